package quiz

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// AttemptResult is what grading writes back onto an attempt.
type AttemptResult struct {
	Score       int
	MaxScore    int
	IsPassed    bool
	CompletedAt time.Time
}

type AttemptRepo interface {
	Create(dbc dbctx.Context, attempts []*types.Attempt) ([]*types.Attempt, error)
	// GetOwned returns nil, nil unless the attempt exists, is on quizID and belongs to userID.
	GetOwned(dbc dbctx.Context, attemptID, quizID, userID uuid.UUID) (*types.Attempt, error)
	ListByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) ([]*types.Attempt, error)
	// Complete returns the number of rows updated; zero means the attempt is not the user's.
	Complete(dbc dbctx.Context, attemptID, userID uuid.UUID, res AttemptResult) (int64, error)
}

type attemptRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAttemptRepo(db *gorm.DB, baseLog *logger.Logger) AttemptRepo {
	repoLog := baseLog.With("repo", "AttemptRepo")
	return &attemptRepo{db: db, log: repoLog}
}

func (r *attemptRepo) Create(dbc dbctx.Context, attempts []*types.Attempt) ([]*types.Attempt, error) {
	if len(attempts) == 0 {
		return []*types.Attempt{}, nil
	}
	if err := dbc.DB(r.db).Create(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

func (r *attemptRepo) GetOwned(dbc dbctx.Context, attemptID, quizID, userID uuid.UUID) (*types.Attempt, error) {
	var a types.Attempt
	err := dbc.DB(r.db).
		Where("id = ? AND quiz_id = ? AND user_id = ?", attemptID, quizID, userID).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attemptRepo) ListByQuizAndUser(dbc dbctx.Context, quizID, userID uuid.UUID) ([]*types.Attempt, error) {
	var results []*types.Attempt
	if err := dbc.DB(r.db).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		Order("started_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *attemptRepo) Complete(dbc dbctx.Context, attemptID, userID uuid.UUID, res AttemptResult) (int64, error) {
	passed := res.IsPassed
	completed := res.CompletedAt
	result := dbc.DB(r.db).
		Model(&types.Attempt{}).
		Where("id = ? AND user_id = ?", attemptID, userID).
		Updates(map[string]any{
			"completed_at": &completed,
			"score":        res.Score,
			"max_score":    res.MaxScore,
			"is_passed":    &passed,
		})
	return result.RowsAffected, result.Error
}
