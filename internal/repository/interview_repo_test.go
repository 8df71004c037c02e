package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/mockview-api/internal/feedback"
	"github.com/noah-isme/mockview-api/internal/models"
)

func TestInterviewRepositoryCreateAndGet(t *testing.T) {
	db := setupInterviewTestDB(t)
	repo := NewInterviewRepository(db)

	interview := newTestInterview("0190a000-0000-7000-8000-000000000001", 7, time.Now())
	require.NoError(t, repo.Create(context.Background(), &interview))

	stored, err := repo.GetByID(context.Background(), interview.ID)
	require.NoError(t, err)
	require.Equal(t, int64(7), stored.UserID)
	require.Equal(t, []string{"React", "Node"}, []string(stored.TechStack))
	require.Equal(t, []string{"Q1", "Q2"}, []string(stored.Questions))
	require.Equal(t, models.InterviewStatusPending, stored.Status)
	require.Empty(t, stored.Transcript)
	require.Nil(t, stored.FeedbackRecord())
	require.Nil(t, stored.CompletedAt)

	_, err = repo.GetByID(context.Background(), "missing")
	require.ErrorIs(t, err, ErrInterviewNotFound)
}

func TestInterviewRepositoryFindLatestByUser(t *testing.T) {
	db := setupInterviewTestDB(t)
	repo := NewInterviewRepository(db)

	base := time.Now().Add(-time.Hour)
	older := newTestInterview("0190a000-0000-7000-8000-000000000001", 7, base)
	tieLow := newTestInterview("0190a000-0000-7000-8000-000000000002", 7, base.Add(time.Minute))
	tieHigh := newTestInterview("0190a000-0000-7000-8000-000000000003", 7, base.Add(time.Minute))
	otherUser := newTestInterview("0190a000-0000-7000-8000-000000000004", 8, base.Add(time.Hour))

	for _, interview := range []*models.Interview{&older, &tieHigh, &tieLow, &otherUser} {
		require.NoError(t, repo.Create(context.Background(), interview))
	}

	latest, err := repo.FindLatestByUser(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, tieHigh.ID, latest.ID, "id should break created_at ties")

	_, err = repo.FindLatestByUser(context.Background(), 99)
	require.ErrorIs(t, err, ErrInterviewNotFound)
}

func TestInterviewRepositoryListByUserNewestFirst(t *testing.T) {
	db := setupInterviewTestDB(t)
	repo := NewInterviewRepository(db)

	base := time.Now().Add(-time.Hour)
	first := newTestInterview("0190a000-0000-7000-8000-000000000001", 3, base)
	second := newTestInterview("0190a000-0000-7000-8000-000000000002", 3, base.Add(time.Minute))
	foreign := newTestInterview("0190a000-0000-7000-8000-000000000003", 4, base)

	require.NoError(t, repo.Create(context.Background(), &first))
	require.NoError(t, repo.Create(context.Background(), &second))
	require.NoError(t, repo.Create(context.Background(), &foreign))

	items, err := repo.ListByUser(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, second.ID, items[0].ID)
	require.Equal(t, first.ID, items[1].ID)

	empty, err := repo.ListByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestInterviewRepositoryUpdateAttachesFeedback(t *testing.T) {
	db := setupInterviewTestDB(t)
	repo := NewInterviewRepository(db)

	interview := newTestInterview("0190a000-0000-7000-8000-000000000001", 7, time.Now())
	require.NoError(t, repo.Create(context.Background(), &interview))

	transcript := []models.TranscriptEntry{
		{Role: models.TranscriptRoleAssistant, Text: "Tell me about yourself", Timestamp: "2024-05-01T10:00:00Z"},
		{Role: models.TranscriptRoleUser, Text: "I build web apps", Timestamp: "2024-05-01T10:00:05Z"},
	}
	record := feedback.Record{
		CommunicationSkills: feedback.CategoryScore{Score: 85, Feedback: "Great clarity."},
		OverallFeedback:     "Solid candidate.",
	}
	source := models.FeedbackSourceModel
	raw := "**Communication Skills: 85/100**\nGreat clarity."
	status := models.InterviewStatusCompleted
	completedAt := time.Now().UTC()

	err := repo.Update(context.Background(), interview.ID, InterviewUpdate{
		Transcript:     &transcript,
		Feedback:       &record,
		FeedbackSource: &source,
		RawFeedback:    &raw,
		Status:         &status,
		CompletedAt:    &completedAt,
	})
	require.NoError(t, err)

	stored, err := repo.GetByID(context.Background(), interview.ID)
	require.NoError(t, err)
	require.True(t, stored.IsCompleted())
	require.Equal(t, transcript, []models.TranscriptEntry(stored.Transcript))
	require.NotNil(t, stored.FeedbackRecord())
	require.Equal(t, 85, stored.FeedbackRecord().CommunicationSkills.Score)
	require.Equal(t, "Solid candidate.", stored.FeedbackRecord().OverallFeedback)
	require.Equal(t, source, stored.FeedbackSource)
	require.Equal(t, raw, stored.RawFeedback)
	require.NotNil(t, stored.CompletedAt)
	require.Equal(t, []string{"Q1", "Q2"}, []string(stored.Questions), "questions must stay untouched")
}

func TestInterviewRepositoryUpdateMissing(t *testing.T) {
	db := setupInterviewTestDB(t)
	repo := NewInterviewRepository(db)

	status := models.InterviewStatusCompleted
	err := repo.Update(context.Background(), "missing", InterviewUpdate{Status: &status})
	require.ErrorIs(t, err, ErrInterviewNotFound)

	require.NoError(t, repo.Update(context.Background(), "missing", InterviewUpdate{}))
}

func TestInterviewRepositoryPendingOnlyUpdateRunsOnce(t *testing.T) {
	db := setupInterviewTestDB(t)
	repo := NewInterviewRepository(db)

	interview := newTestInterview("0190a000-0000-7000-8000-000000000001", 7, time.Now())
	require.NoError(t, repo.Create(context.Background(), &interview))

	status := models.InterviewStatusCompleted
	first := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Update(context.Background(), interview.ID, InterviewUpdate{
		Status:      &status,
		CompletedAt: &first,
		OnlyPending: true,
	}))

	second := first.Add(time.Hour)
	raw := "second analysis"
	err := repo.Update(context.Background(), interview.ID, InterviewUpdate{
		Status:      &status,
		CompletedAt: &second,
		RawFeedback: &raw,
		OnlyPending: true,
	})
	require.ErrorIs(t, err, ErrInterviewCompleted)

	stored, err := repo.GetByID(context.Background(), interview.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.CompletedAt)
	require.True(t, first.Equal(*stored.CompletedAt))
	require.Empty(t, stored.RawFeedback)

	err = repo.Update(context.Background(), "missing", InterviewUpdate{Status: &status, OnlyPending: true})
	require.ErrorIs(t, err, ErrInterviewNotFound)
}

func newTestInterview(id string, userID int64, createdAt time.Time) models.Interview {
	return models.Interview{
		ID:         id,
		UserID:     userID,
		Role:       "Frontend Developer",
		Type:       "technical",
		Level:      "junior",
		TechStack:  datatypes.JSONSlice[string]{"React", "Node"},
		Questions:  datatypes.JSONSlice[string]{"Q1", "Q2"},
		Amount:     2,
		Finalized:  true,
		CoverImage: "/images/companies/amazon.png",
		Transcript: datatypes.JSONSlice[models.TranscriptEntry]{},
		Status:     models.InterviewStatusPending,
		CreatedAt:  createdAt,
	}
}

func setupInterviewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Interview{}))
	return db
}
