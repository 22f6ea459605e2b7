package study

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type SummaryRepo interface {
	Create(dbc dbctx.Context, summaries []*types.StudySummary) ([]*types.StudySummary, error)
	// Latest returns the newest summary of a session, or nil, nil when it has none.
	Latest(dbc dbctx.Context, sessionID uuid.UUID) (*types.StudySummary, error)
}

type summaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSummaryRepo(db *gorm.DB, baseLog *logger.Logger) SummaryRepo {
	repoLog := baseLog.With("repo", "StudySummaryRepo")
	return &summaryRepo{db: db, log: repoLog}
}

func (r *summaryRepo) Create(dbc dbctx.Context, summaries []*types.StudySummary) ([]*types.StudySummary, error) {
	if len(summaries) == 0 {
		return []*types.StudySummary{}, nil
	}
	if err := dbc.DB(r.db).Create(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *summaryRepo) Latest(dbc dbctx.Context, sessionID uuid.UUID) (*types.StudySummary, error) {
	var s types.StudySummary
	err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type ProblemRepo interface {
	Create(dbc dbctx.Context, problems []*types.StudyProblem) ([]*types.StudyProblem, error)
	GetBySessionID(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.StudyProblem, error)
}

type problemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProblemRepo(db *gorm.DB, baseLog *logger.Logger) ProblemRepo {
	repoLog := baseLog.With("repo", "StudyProblemRepo")
	return &problemRepo{db: db, log: repoLog}
}

func (r *problemRepo) Create(dbc dbctx.Context, problems []*types.StudyProblem) ([]*types.StudyProblem, error) {
	if len(problems) == 0 {
		return []*types.StudyProblem{}, nil
	}
	if err := dbc.DB(r.db).Create(&problems).Error; err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepo) GetBySessionID(dbc dbctx.Context, sessionID uuid.UUID) ([]*types.StudyProblem, error) {
	var results []*types.StudyProblem
	if err := dbc.DB(r.db).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

type OralEvaluationRepo interface {
	Create(dbc dbctx.Context, evals []*types.OralEvaluation) ([]*types.OralEvaluation, error)
	ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.OralEvaluation, error)
}

type oralEvaluationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOralEvaluationRepo(db *gorm.DB, baseLog *logger.Logger) OralEvaluationRepo {
	repoLog := baseLog.With("repo", "OralEvaluationRepo")
	return &oralEvaluationRepo{db: db, log: repoLog}
}

func (r *oralEvaluationRepo) Create(dbc dbctx.Context, evals []*types.OralEvaluation) ([]*types.OralEvaluation, error) {
	if len(evals) == 0 {
		return []*types.OralEvaluation{}, nil
	}
	if err := dbc.DB(r.db).Create(&evals).Error; err != nil {
		return nil, err
	}
	return evals, nil
}

func (r *oralEvaluationRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID) ([]*types.OralEvaluation, error) {
	var results []*types.OralEvaluation
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
