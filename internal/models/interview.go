package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/noah-isme/mockview-api/internal/feedback"
)

// Interview status values.
const (
	InterviewStatusPending   = "pending"
	InterviewStatusCompleted = "completed"
)

// Feedback source values.
const (
	FeedbackSourceModel       = "model"
	FeedbackSourcePlaceholder = "placeholder"
)

// Transcript speaker roles.
const (
	TranscriptRoleUser      = "user"
	TranscriptRoleAssistant = "assistant"
)

// TranscriptEntry is one speaker turn captured during a voice interview.
type TranscriptEntry struct {
	Role      string `json:"role" bson:"role"`
	Text      string `json:"text" bson:"text"`
	Timestamp string `json:"timestamp" bson:"timestamp"`
}

// Interview is one generated interview session and its eventual feedback.
type Interview struct {
	ID             string                               `gorm:"primaryKey;size:36" json:"id"`
	UserID         int64                                `gorm:"not null;index:idx_interviews_user_created,priority:1" json:"userId"`
	Role           string                               `gorm:"size:255" json:"role"`
	Type           string                               `gorm:"size:64" json:"type"`
	Level          string                               `gorm:"size:64" json:"level"`
	TechStack      datatypes.JSONSlice[string]          `gorm:"column:techstack" json:"techstack"`
	Questions      datatypes.JSONSlice[string]          `json:"questions"`
	Amount         int                                  `json:"amount"`
	Finalized      bool                                 `json:"finalized"`
	CoverImage     string                               `gorm:"size:255" json:"coverImage"`
	Transcript     datatypes.JSONSlice[TranscriptEntry] `json:"transcript"`
	Feedback       datatypes.JSONType[feedback.Record]  `json:"feedback"`
	FeedbackSource string                               `gorm:"size:32" json:"feedbackSource"`
	RawFeedback    string                               `gorm:"type:text" json:"rawFeedback"`
	Status         string                               `gorm:"size:32;not null;default:pending" json:"status"`
	CompletedAt    *time.Time                           `json:"completedAt"`
	CreatedAt      time.Time                            `gorm:"index:idx_interviews_user_created,priority:2" json:"createdAt"`
	UpdatedAt      time.Time                            `json:"updatedAt"`
}

// IsCompleted reports whether feedback has been attached.
func (i Interview) IsCompleted() bool {
	return i.Status == InterviewStatusCompleted
}

// FeedbackRecord returns the attached feedback, or nil while the interview is pending.
func (i Interview) FeedbackRecord() *feedback.Record {
	if !i.IsCompleted() {
		return nil
	}
	record := i.Feedback.Data()
	return &record
}
