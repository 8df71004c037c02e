package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/noah-isme/mockview-api/internal/feedback"
	"github.com/noah-isme/mockview-api/internal/models"
)

var (
	// ErrInterviewNotFound is returned when no interview matches the lookup.
	ErrInterviewNotFound = errors.New("interview not found")
	// ErrInterviewCompleted is returned by a pending-only update when the
	// interview already carries feedback.
	ErrInterviewCompleted = errors.New("interview already completed")
)

// InterviewUpdate lists the fields an update may touch. Nil fields are left unchanged.
type InterviewUpdate struct {
	Transcript     *[]models.TranscriptEntry
	Feedback       *feedback.Record
	FeedbackSource *string
	RawFeedback    *string
	Status         *string
	CompletedAt    *time.Time
	// OnlyPending restricts the update to interviews still pending.
	OnlyPending bool
}

// IsEmpty reports whether the update carries no field.
func (u InterviewUpdate) IsEmpty() bool {
	return u.Transcript == nil && u.Feedback == nil && u.FeedbackSource == nil &&
		u.RawFeedback == nil && u.Status == nil && u.CompletedAt == nil
}

// InterviewRepository persists interview records.
type InterviewRepository interface {
	Create(ctx context.Context, interview *models.Interview) error
	GetByID(ctx context.Context, id string) (models.Interview, error)
	FindLatestByUser(ctx context.Context, userID int64) (models.Interview, error)
	ListByUser(ctx context.Context, userID int64) ([]models.Interview, error)
	Update(ctx context.Context, id string, update InterviewUpdate) error
}

type interviewRepository struct {
	db *gorm.DB
}

// NewInterviewRepository constructs a repository backed by GORM.
func NewInterviewRepository(db *gorm.DB) InterviewRepository {
	return &interviewRepository{db: db}
}

func (r *interviewRepository) Create(ctx context.Context, interview *models.Interview) error {
	return r.db.WithContext(ctx).Create(interview).Error
}

func (r *interviewRepository) GetByID(ctx context.Context, id string) (models.Interview, error) {
	var interview models.Interview
	if err := r.db.WithContext(ctx).First(&interview, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Interview{}, ErrInterviewNotFound
		}
		return models.Interview{}, err
	}
	return interview, nil
}

func (r *interviewRepository) FindLatestByUser(ctx context.Context, userID int64) (models.Interview, error) {
	var interview models.Interview
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		First(&interview).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Interview{}, ErrInterviewNotFound
		}
		return models.Interview{}, err
	}
	return interview, nil
}

func (r *interviewRepository) ListByUser(ctx context.Context, userID int64) ([]models.Interview, error) {
	var interviews []models.Interview
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&interviews).Error; err != nil {
		return nil, err
	}
	return interviews, nil
}

func (r *interviewRepository) Update(ctx context.Context, id string, update InterviewUpdate) error {
	if update.IsEmpty() {
		return nil
	}

	columns := map[string]interface{}{"updated_at": time.Now().UTC()}
	if update.Transcript != nil {
		columns["transcript"] = datatypes.JSONSlice[models.TranscriptEntry](*update.Transcript)
	}
	if update.Feedback != nil {
		columns["feedback"] = datatypes.NewJSONType(*update.Feedback)
	}
	if update.FeedbackSource != nil {
		columns["feedback_source"] = *update.FeedbackSource
	}
	if update.RawFeedback != nil {
		columns["raw_feedback"] = *update.RawFeedback
	}
	if update.Status != nil {
		columns["status"] = *update.Status
	}
	if update.CompletedAt != nil {
		columns["completed_at"] = *update.CompletedAt
	}

	query := r.db.WithContext(ctx).Model(&models.Interview{}).Where("id = ?", id)
	if update.OnlyPending {
		query = query.Where("status = ?", models.InterviewStatusPending)
	}

	result := query.Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if !update.OnlyPending {
		return ErrInterviewNotFound
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Interview{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrInterviewNotFound
	}
	return ErrInterviewCompleted
}
