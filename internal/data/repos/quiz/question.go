package quiz

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type QuestionRepo interface {
	// Create inserts questions one row at a time in slice order.
	Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error)
	GetByQuizID(dbc dbctx.Context, quizID uuid.UUID) ([]*types.Question, error)
	CountByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) (map[uuid.UUID]int, error)
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	repoLog := baseLog.With("repo", "QuestionRepo")
	return &questionRepo{db: db, log: repoLog}
}

func (r *questionRepo) Create(dbc dbctx.Context, questions []*types.Question) ([]*types.Question, error) {
	if len(questions) == 0 {
		return []*types.Question{}, nil
	}
	transaction := dbc.DB(r.db)
	for _, q := range questions {
		if err := transaction.Create(q).Error; err != nil {
			return nil, err
		}
	}
	return questions, nil
}

func (r *questionRepo) GetByQuizID(dbc dbctx.Context, quizID uuid.UUID) ([]*types.Question, error) {
	var results []*types.Question
	if quizID == uuid.Nil {
		return results, nil
	}
	if err := dbc.DB(r.db).
		Where("quiz_id = ?", quizID).
		Order("position ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *questionRepo) CountByQuizIDs(dbc dbctx.Context, quizIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	out := make(map[uuid.UUID]int, len(quizIDs))
	if len(quizIDs) == 0 {
		return out, nil
	}
	var rows []struct {
		QuizID uuid.UUID
		N      int
	}
	if err := dbc.DB(r.db).
		Model(&types.Question{}).
		Select("quiz_id, COUNT(*) AS n").
		Where("quiz_id IN ?", quizIDs).
		Group("quiz_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.QuizID] = row.N
	}
	return out, nil
}
