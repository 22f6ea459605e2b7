package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/domain/quiz"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:       uuid.New(),
		Username: username,
		Password: "pw",
		FullName: "Test User",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedQuiz(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Quiz {
	tb.Helper()
	q := &types.Quiz{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       "Cells",
		Description: "Cell biology basics",
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed quiz: %v", err)
	}
	return q
}

// SeedMCQuestion inserts a multiple-choice question whose correct choice is "B".
func SeedMCQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID uuid.UUID, position, points int) *types.Question {
	tb.Helper()
	correct := 1
	q := &types.Question{
		ID:           uuid.New(),
		QuizID:       quizID,
		Position:     position,
		Text:         "Pick B",
		Type:         quiz.TypeMultipleChoice,
		CorrectIndex: &correct,
		Points:       points,
	}
	if err := q.SetChoices([]string{"A", "B", "C", "D"}); err != nil {
		tb.Fatalf("set choices: %v", err)
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedOpenQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID uuid.UUID, position, points int, ideal string) *types.Question {
	tb.Helper()
	q := &types.Question{
		ID:          uuid.New(),
		QuizID:      quizID,
		Position:    position,
		Text:        "Explain",
		Type:        quiz.TypeOpenEnded,
		IdealAnswer: ideal,
		Points:      points,
	}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedAttempt(tb testing.TB, ctx context.Context, tx *gorm.DB, quizID, userID uuid.UUID) *types.Attempt {
	tb.Helper()
	a := &types.Attempt{
		ID:        uuid.New(),
		QuizID:    quizID,
		UserID:    userID,
		StartedAt: time.Now().UTC(),
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed attempt: %v", err)
	}
	return a
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, mode string, createdAt time.Time) *types.StudySession {
	tb.Helper()
	s := &types.StudySession{
		ID:        uuid.New(),
		UserID:    userID,
		Mode:      mode,
		RawText:   "photosynthesis converts light into chemical energy",
		CreatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}
