package quiz

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type QuizRepo interface {
	Create(dbc dbctx.Context, quizzes []*types.Quiz) ([]*types.Quiz, error)
	// GetOwned returns nil, nil when the quiz is absent or owned by someone else.
	GetOwned(dbc dbctx.Context, quizID, userID uuid.UUID) (*types.Quiz, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Quiz, error)
}

type quizRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	repoLog := baseLog.With("repo", "QuizRepo")
	return &quizRepo{db: db, log: repoLog}
}

func (r *quizRepo) Create(dbc dbctx.Context, quizzes []*types.Quiz) ([]*types.Quiz, error) {
	if len(quizzes) == 0 {
		return []*types.Quiz{}, nil
	}
	if err := dbc.DB(r.db).Create(&quizzes).Error; err != nil {
		return nil, err
	}
	return quizzes, nil
}

func (r *quizRepo) GetOwned(dbc dbctx.Context, quizID, userID uuid.UUID) (*types.Quiz, error) {
	if quizID == uuid.Nil || userID == uuid.Nil {
		return nil, nil
	}
	var q types.Quiz
	err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", quizID, userID).
		Take(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quizRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.Quiz, error) {
	var results []*types.Quiz
	if userID == uuid.Nil {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
