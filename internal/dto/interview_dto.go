package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/mockview-api/internal/feedback"
	"github.com/noah-isme/mockview-api/internal/models"
)

// LooseInt accepts a JSON number or a numeric string.
type LooseInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (v *LooseInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = 0
		return nil
	}

	text := string(data)
	if len(data) > 0 && data[0] == '"' {
		var unquoted string
		if err := json.Unmarshal(data, &unquoted); err != nil {
			return err
		}
		text = strings.TrimSpace(unquoted)
		if text == "" {
			*v = 0
			return nil
		}
	}

	parsed, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return fmt.Errorf("expected an integer, got %s", string(data))
	}
	*v = LooseInt(parsed)
	return nil
}

// Int64 returns the value as int64.
func (v LooseInt) Int64() int64 {
	return int64(v)
}

// GenerateInterviewRequest is the payload accepted by the question generation endpoint.
type GenerateInterviewRequest struct {
	Role      string   `json:"role" validate:"required,max=255"`
	Type      string   `json:"type" validate:"required,max=64"`
	Level     string   `json:"level" validate:"required,max=64"`
	TechStack string   `json:"techstack" validate:"required,max=1024"`
	Amount    LooseInt `json:"amount" validate:"gt=0,lte=50"`
	UserID    LooseInt `json:"userId" validate:"gt=0"`
}

// TranscriptEntryRequest is a single speaker turn submitted by the client.
type TranscriptEntryRequest struct {
	Role      string `json:"role" validate:"required,oneof=user assistant"`
	Text      string `json:"text" validate:"max=20000"`
	Timestamp string `json:"timestamp" validate:"max=64"`
}

// ProcessTranscriptRequest is the payload accepted by the transcript processing endpoint.
type ProcessTranscriptRequest struct {
	UserID     LooseInt                 `json:"userId" validate:"gt=0"`
	Transcript []TranscriptEntryRequest `json:"transcript" validate:"required,min=1,dive"`
}

// InterviewResponse is the public projection of an interview record.
type InterviewResponse struct {
	ID             string                   `json:"id"`
	UserID         int64                    `json:"userId"`
	Role           string                   `json:"role"`
	Type           string                   `json:"type"`
	Level          string                   `json:"level"`
	TechStack      []string                 `json:"techstack"`
	Questions      []string                 `json:"questions"`
	Amount         int                      `json:"amount"`
	Finalized      bool                     `json:"finalized"`
	CoverImage     string                   `json:"coverImage"`
	Transcript     []models.TranscriptEntry `json:"transcript"`
	Feedback       *feedback.Record         `json:"feedback"`
	FeedbackSource string                   `json:"feedbackSource,omitempty"`
	Status         string                   `json:"status"`
	CompletedAt    *time.Time               `json:"completedAt,omitempty"`
	CreatedAt      time.Time                `json:"createdAt"`
	UpdatedAt      time.Time                `json:"updatedAt"`
}

// NewInterviewResponse converts a model into a DTO.
func NewInterviewResponse(model models.Interview) InterviewResponse {
	response := InterviewResponse{
		ID:             model.ID,
		UserID:         model.UserID,
		Role:           model.Role,
		Type:           model.Type,
		Level:          model.Level,
		TechStack:      nonNilStrings(model.TechStack),
		Questions:      nonNilStrings(model.Questions),
		Amount:         model.Amount,
		Finalized:      model.Finalized,
		CoverImage:     model.CoverImage,
		Transcript:     []models.TranscriptEntry(model.Transcript),
		Feedback:       model.FeedbackRecord(),
		FeedbackSource: model.FeedbackSource,
		Status:         model.Status,
		CompletedAt:    model.CompletedAt,
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
	if response.Transcript == nil {
		response.Transcript = []models.TranscriptEntry{}
	}
	return response
}

// NewInterviewResponseSlice converts a slice of models into DTOs.
func NewInterviewResponseSlice(items []models.Interview) []InterviewResponse {
	out := make([]InterviewResponse, 0, len(items))
	for _, item := range items {
		out = append(out, NewInterviewResponse(item))
	}
	return out
}

// InterviewListResponse wraps a user's interviews with their count.
type InterviewListResponse struct {
	Items []InterviewResponse `json:"items"`
	Count int                 `json:"count"`
}

// TranscriptResult is returned after a transcript has been analyzed.
type TranscriptResult struct {
	InterviewID    string          `json:"interviewId"`
	AnswersCount   int             `json:"answersCount"`
	Feedback       feedback.Record `json:"feedback"`
	FeedbackSource string          `json:"feedbackSource"`
}

// InterviewEvent notifies subscribers about interview lifecycle changes.
type InterviewEvent struct {
	Type        string    `json:"type"`
	InterviewID string    `json:"interviewId"`
	UserID      int64     `json:"userId"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Interview event types.
const (
	EventInterviewGenerated = "interview.generated"
	EventInterviewCompleted = "interview.completed"
)

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
