package service

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/mockview-api/internal/cover"
	"github.com/noah-isme/mockview-api/internal/dto"
	"github.com/noah-isme/mockview-api/internal/feedback"
	"github.com/noah-isme/mockview-api/internal/models"
	"github.com/noah-isme/mockview-api/internal/observability"
	"github.com/noah-isme/mockview-api/internal/prompts"
	"github.com/noah-isme/mockview-api/internal/repository"
)

// InterviewService orchestrates question generation, transcript analysis and interview queries.
type InterviewService interface {
	Generate(ctx context.Context, req dto.GenerateInterviewRequest) (dto.InterviewResponse, error)
	// ProcessTranscript may return a non-empty result together with a
	// PersistenceError when the feedback was computed but could not be stored.
	ProcessTranscript(ctx context.Context, req dto.ProcessTranscriptRequest) (dto.TranscriptResult, error)
	Get(ctx context.Context, id string) (dto.InterviewResponse, error)
	ListByUser(ctx context.Context, userID int64) (dto.InterviewListResponse, error)
}

type interviewService struct {
	repo      repository.InterviewRepository
	questions QuestionGenerator
	analyzer  TranscriptAnalyzer
	events    EventService
	cache     *redis.Client
	ttl       time.Duration
	pickCover cover.Picker
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewInterviewService constructs the interview service. The cache, event hub
// and cover picker are optional.
func NewInterviewService(
	repo repository.InterviewRepository,
	questions QuestionGenerator,
	analyzer TranscriptAnalyzer,
	events EventService,
	cache *redis.Client,
	ttl time.Duration,
	pickCover cover.Picker,
	validate *validator.Validate,
	logger zerolog.Logger,
) InterviewService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if pickCover == nil {
		pickCover = cover.Random
	}
	if validate == nil {
		validate = validator.New()
	}

	return &interviewService{
		repo:      repo,
		questions: questions,
		analyzer:  analyzer,
		events:    events,
		cache:     cache,
		ttl:       ttl,
		pickCover: pickCover,
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "interview_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/mockview-api/internal/service/interview"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *interviewService) Generate(ctx context.Context, req dto.GenerateInterviewRequest) (dto.InterviewResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.InterviewResponse{}, newValidationError(err)
	}

	userID := req.UserID.Int64()
	spanCtx, span := s.tracer.Start(ctx, "interviews.generate", trace.WithAttributes(
		attribute.Int64("interview.user_id", userID),
		attribute.String("interview.role", req.Role),
		attribute.Int64("interview.amount", req.Amount.Int64()),
	))
	defer span.End()

	questions, err := s.questions.Generate(spanCtx, prompts.QuestionParams{
		Role:      s.plainText(req.Role),
		Type:      s.plainText(req.Type),
		Level:     s.plainText(req.Level),
		TechStack: strings.TrimSpace(req.TechStack),
		Amount:    int(req.Amount),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "question generation failed")
		return dto.InterviewResponse{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return dto.InterviewResponse{}, &PersistenceError{Op: "assign interview id", Err: err}
	}

	interview := models.Interview{
		ID:         id.String(),
		UserID:     userID,
		Role:       s.plainText(req.Role),
		Type:       s.plainText(req.Type),
		Level:      s.plainText(req.Level),
		TechStack:  datatypes.JSONSlice[string](SplitTechStack(req.TechStack)),
		Questions:  datatypes.JSONSlice[string](questions),
		Amount:     int(req.Amount),
		Finalized:  true,
		CoverImage: s.pickCover(),
		Transcript: datatypes.JSONSlice[models.TranscriptEntry]{},
		Status:     models.InterviewStatusPending,
	}

	if err := s.repo.Create(spanCtx, &interview); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "interview not stored")
		observability.Logger(spanCtx, s.logger).Error().Err(err).Int64("user_id", userID).Strs("questions", questions).Msg("failed to store generated interview")
		return dto.InterviewResponse{}, &PersistenceError{Op: "create interview", Err: err}
	}

	span.SetAttributes(attribute.String("interview.id", interview.ID))
	s.invalidate(spanCtx, interview.ID, userID)
	s.publish(spanCtx, dto.EventInterviewGenerated, interview)

	observability.Logger(spanCtx, s.logger).Info().Str("interview_id", interview.ID).Int64("user_id", userID).Int("questions", len(questions)).Msg("interview generated")

	return dto.NewInterviewResponse(interview), nil
}

func (s *interviewService) ProcessTranscript(ctx context.Context, req dto.ProcessTranscriptRequest) (dto.TranscriptResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.TranscriptResult{}, newValidationError(err)
	}

	userID := req.UserID.Int64()
	spanCtx, span := s.tracer.Start(ctx, "interviews.process_transcript", trace.WithAttributes(
		attribute.Int64("interview.user_id", userID),
		attribute.Int("interview.turns", len(req.Transcript)),
	))
	defer span.End()

	interview, err := s.repo.FindLatestByUser(spanCtx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return dto.TranscriptResult{}, ErrInterviewNotFound
		}
		span.RecordError(err)
		return dto.TranscriptResult{}, &PersistenceError{Op: "find latest interview", Err: err}
	}
	span.SetAttributes(attribute.String("interview.id", interview.ID))
	if interview.IsCompleted() {
		return dto.TranscriptResult{}, ErrInterviewCompleted
	}

	transcript := transcriptEntries(req.Transcript)

	outcome := s.analyzer.Analyze(spanCtx, transcript)
	source := models.FeedbackSourceModel
	if outcome.Placeholder {
		source = models.FeedbackSourcePlaceholder
		span.RecordError(outcome.Err)
	}

	parsed := feedback.ParseDetailed(outcome.Text)
	record := parsed.Record
	analyzedAt := s.now()
	record.AnalyzedAt = &analyzedAt
	s.recordParseMetrics(interview.ID, source, parsed)

	result := dto.TranscriptResult{
		InterviewID:    interview.ID,
		AnswersCount:   len(transcript),
		Feedback:       record,
		FeedbackSource: source,
	}

	status := models.InterviewStatusCompleted
	completedAt := analyzedAt
	err = s.repo.Update(spanCtx, interview.ID, repository.InterviewUpdate{
		Transcript:     &transcript,
		Feedback:       &record,
		FeedbackSource: &source,
		RawFeedback:    &outcome.Text,
		Status:         &status,
		CompletedAt:    &completedAt,
		OnlyPending:    true,
	})
	if errors.Is(err, repository.ErrInterviewCompleted) {
		return dto.TranscriptResult{}, ErrInterviewCompleted
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "feedback not stored")
		observability.Logger(spanCtx, s.logger).Error().Err(err).Str("interview_id", interview.ID).Msg("failed to store interview feedback")
		return result, &PersistenceError{Op: "update interview", Err: err}
	}

	interview.Status = status
	s.invalidate(spanCtx, interview.ID, userID)
	s.publish(spanCtx, dto.EventInterviewCompleted, interview)

	observability.Logger(spanCtx, s.logger).Info().Str("interview_id", interview.ID).Int64("user_id", userID).Str("feedback_source", source).Msg("transcript processed")

	return result, nil
}

func (s *interviewService) Get(ctx context.Context, id string) (dto.InterviewResponse, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return dto.InterviewResponse{}, &ValidationError{Message: "interview id is required"}
	}

	key := interviewCacheKey(id)
	var cached dto.InterviewResponse
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	interview, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrInterviewNotFound) {
			return dto.InterviewResponse{}, ErrInterviewNotFound
		}
		return dto.InterviewResponse{}, &PersistenceError{Op: "get interview", Err: err}
	}

	response := dto.NewInterviewResponse(interview)
	s.writeCache(ctx, key, response)
	return response, nil
}

func (s *interviewService) ListByUser(ctx context.Context, userID int64) (dto.InterviewListResponse, error) {
	if userID <= 0 {
		return dto.InterviewListResponse{}, &ValidationError{Message: "user id must be a positive integer"}
	}

	key := userInterviewsCacheKey(userID)
	var cached dto.InterviewListResponse
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	interviews, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return dto.InterviewListResponse{}, &PersistenceError{Op: "list interviews", Err: err}
	}

	items := dto.NewInterviewResponseSlice(interviews)
	response := dto.InterviewListResponse{Items: items, Count: len(items)}
	s.writeCache(ctx, key, response)
	return response, nil
}

// transcriptEntries keeps the submitted turns verbatim so the prompt and the
// stored record match what was said.
func transcriptEntries(entries []dto.TranscriptEntryRequest) []models.TranscriptEntry {
	transcript := make([]models.TranscriptEntry, 0, len(entries))
	for _, entry := range entries {
		transcript = append(transcript, models.TranscriptEntry{
			Role:      entry.Role,
			Text:      entry.Text,
			Timestamp: entry.Timestamp,
		})
	}
	return transcript
}

// plainText strips markup from the short labels shown on interview cards.
func (s *interviewService) plainText(value string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(value)))
}

func (s *interviewService) recordParseMetrics(interviewID, source string, parsed feedback.Result) {
	observability.FeedbackParsed().WithLabelValues(source).Inc()
	if source != models.FeedbackSourceModel {
		return
	}
	for _, section := range parsed.Unmatched {
		observability.FeedbackUnmatchedSections().WithLabelValues(section).Inc()
	}
	if len(parsed.Unmatched) > 0 || parsed.Recovered {
		s.logger.Warn().
			Str("interview_id", interviewID).
			Strs("unmatched", parsed.Unmatched).
			Bool("recovered", parsed.Recovered).
			Msg("feedback only partially structured")
	}
}

func (s *interviewService) publish(ctx context.Context, eventType string, interview models.Interview) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, dto.InterviewEvent{
		Type:        eventType,
		InterviewID: interview.ID,
		UserID:      interview.UserID,
		Status:      interview.Status,
		OccurredAt:  s.now(),
	})
}

func (s *interviewService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil {
		return false
	}
	payload, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			observability.Logger(ctx, s.logger).Warn().Err(err).Str("key", key).Msg("failed to read interview cache")
		}
		return false
	}
	if err := json.Unmarshal(payload, target); err != nil {
		observability.Logger(ctx, s.logger).Warn().Err(err).Str("key", key).Msg("failed to decode interview cache")
		return false
	}
	observability.Logger(ctx, s.logger).Debug().Str("key", key).Msg("interview cache hit")
	return true
}

func (s *interviewService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		observability.Logger(ctx, s.logger).Warn().Err(err).Str("key", key).Msg("failed to encode interview cache")
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		observability.Logger(ctx, s.logger).Warn().Err(err).Str("key", key).Msg("failed to store interview cache")
	}
}

func (s *interviewService) invalidate(ctx context.Context, interviewID string, userID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, interviewCacheKey(interviewID), userInterviewsCacheKey(userID)).Err(); err != nil {
		observability.Logger(ctx, s.logger).Warn().Err(err).Str("interview_id", interviewID).Msg("failed to invalidate interview cache")
	}
}

func interviewCacheKey(id string) string {
	return "interview:" + id
}

func userInterviewsCacheKey(userID int64) string {
	return "interviews:user:" + strconv.FormatInt(userID, 10)
}
