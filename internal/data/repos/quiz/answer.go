package quiz

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type AnswerRepo interface {
	Create(dbc dbctx.Context, answers []*types.Answer) ([]*types.Answer, error)
	GetByAttemptID(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.Answer, error)
	DeleteByAttemptID(dbc dbctx.Context, attemptID uuid.UUID) error
}

type answerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnswerRepo(db *gorm.DB, baseLog *logger.Logger) AnswerRepo {
	repoLog := baseLog.With("repo", "AnswerRepo")
	return &answerRepo{db: db, log: repoLog}
}

func (r *answerRepo) Create(dbc dbctx.Context, answers []*types.Answer) ([]*types.Answer, error) {
	if len(answers) == 0 {
		return []*types.Answer{}, nil
	}
	if err := dbc.DB(r.db).Create(&answers).Error; err != nil {
		return nil, err
	}
	return answers, nil
}

func (r *answerRepo) GetByAttemptID(dbc dbctx.Context, attemptID uuid.UUID) ([]*types.Answer, error) {
	var results []*types.Answer
	if err := dbc.DB(r.db).
		Where("attempt_id = ?", attemptID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *answerRepo) DeleteByAttemptID(dbc dbctx.Context, attemptID uuid.UUID) error {
	return dbc.DB(r.db).
		Where("attempt_id = ?", attemptID).
		Delete(&types.Answer{}).Error
}
