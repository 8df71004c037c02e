package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/datatypes"

	"github.com/noah-isme/mockview-api/internal/feedback"
	"github.com/noah-isme/mockview-api/internal/models"
)

// InterviewCollection is the default collection name for interview documents.
const InterviewCollection = "interviews"

type interviewDocument struct {
	ID             string                   `bson:"_id"`
	UserID         int64                    `bson:"userId"`
	Role           string                   `bson:"role"`
	Type           string                   `bson:"type"`
	Level          string                   `bson:"level"`
	TechStack      []string                 `bson:"techstack"`
	Questions      []string                 `bson:"questions"`
	Amount         int                      `bson:"amount"`
	Finalized      bool                     `bson:"finalized"`
	CoverImage     string                   `bson:"coverImage"`
	Transcript     []models.TranscriptEntry `bson:"transcript"`
	Feedback       *feedback.Record         `bson:"feedback,omitempty"`
	FeedbackSource string                   `bson:"feedbackSource,omitempty"`
	RawFeedback    string                   `bson:"rawFeedback,omitempty"`
	Status         string                   `bson:"status"`
	CompletedAt    *time.Time               `bson:"completedAt,omitempty"`
	CreatedAt      time.Time                `bson:"createdAt"`
	UpdatedAt      time.Time                `bson:"updatedAt"`
}

func newInterviewDocument(interview models.Interview) interviewDocument {
	doc := interviewDocument{
		ID:             interview.ID,
		UserID:         interview.UserID,
		Role:           interview.Role,
		Type:           interview.Type,
		Level:          interview.Level,
		TechStack:      []string(interview.TechStack),
		Questions:      []string(interview.Questions),
		Amount:         interview.Amount,
		Finalized:      interview.Finalized,
		CoverImage:     interview.CoverImage,
		Transcript:     []models.TranscriptEntry(interview.Transcript),
		FeedbackSource: interview.FeedbackSource,
		RawFeedback:    interview.RawFeedback,
		Status:         interview.Status,
		CompletedAt:    interview.CompletedAt,
		CreatedAt:      interview.CreatedAt,
		UpdatedAt:      interview.UpdatedAt,
	}
	if interview.IsCompleted() {
		record := interview.Feedback.Data()
		doc.Feedback = &record
	}
	if doc.Transcript == nil {
		doc.Transcript = []models.TranscriptEntry{}
	}
	return doc
}

func (d interviewDocument) model() models.Interview {
	interview := models.Interview{
		ID:             d.ID,
		UserID:         d.UserID,
		Role:           d.Role,
		Type:           d.Type,
		Level:          d.Level,
		TechStack:      datatypes.JSONSlice[string](d.TechStack),
		Questions:      datatypes.JSONSlice[string](d.Questions),
		Amount:         d.Amount,
		Finalized:      d.Finalized,
		CoverImage:     d.CoverImage,
		Transcript:     datatypes.JSONSlice[models.TranscriptEntry](d.Transcript),
		FeedbackSource: d.FeedbackSource,
		RawFeedback:    d.RawFeedback,
		Status:         d.Status,
		CompletedAt:    d.CompletedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	if d.Feedback != nil {
		interview.Feedback = datatypes.NewJSONType(*d.Feedback)
	}
	return interview
}

type interviewMongoRepository struct {
	col *mongo.Collection
}

// NewInterviewMongoRepository constructs a repository backed by a MongoDB collection.
func NewInterviewMongoRepository(col *mongo.Collection) InterviewRepository {
	return &interviewMongoRepository{col: col}
}

// EnsureInterviewIndexes creates the index used by the per-user lookups.
func EnsureInterviewIndexes(ctx context.Context, col *mongo.Collection) error {
	_, err := col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("idx_interviews_user_created"),
	})
	if err != nil {
		return fmt.Errorf("create interview index: %w", err)
	}
	return nil
}

func (r *interviewMongoRepository) Create(ctx context.Context, interview *models.Interview) error {
	now := time.Now().UTC()
	if interview.CreatedAt.IsZero() {
		interview.CreatedAt = now
	}
	interview.UpdatedAt = now

	_, err := r.col.InsertOne(ctx, newInterviewDocument(*interview))
	return err
}

func (r *interviewMongoRepository) GetByID(ctx context.Context, id string) (models.Interview, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *interviewMongoRepository) FindLatestByUser(ctx context.Context, userID int64) (models.Interview, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.findOne(ctx, bson.M{"userId": userID}, opts)
}

func (r *interviewMongoRepository) ListByUser(ctx context.Context, userID int64) ([]models.Interview, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []interviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	interviews := make([]models.Interview, 0, len(docs))
	for _, doc := range docs {
		interviews = append(interviews, doc.model())
	}
	return interviews, nil
}

func (r *interviewMongoRepository) Update(ctx context.Context, id string, update InterviewUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if update.Transcript != nil {
		set["transcript"] = *update.Transcript
	}
	if update.Feedback != nil {
		set["feedback"] = *update.Feedback
	}
	if update.FeedbackSource != nil {
		set["feedbackSource"] = *update.FeedbackSource
	}
	if update.RawFeedback != nil {
		set["rawFeedback"] = *update.RawFeedback
	}
	if update.Status != nil {
		set["status"] = *update.Status
	}
	if update.CompletedAt != nil {
		set["completedAt"] = *update.CompletedAt
	}

	filter := bson.M{"_id": id}
	if update.OnlyPending {
		filter["status"] = models.InterviewStatusPending
	}

	result, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}
	if !update.OnlyPending {
		return ErrInterviewNotFound
	}

	count, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrInterviewNotFound
	}
	return ErrInterviewCompleted
}

func (r *interviewMongoRepository) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (models.Interview, error) {
	var doc interviewDocument
	if err := r.col.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Interview{}, ErrInterviewNotFound
		}
		return models.Interview{}, err
	}
	return doc.model(), nil
}
