package user

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type LoginEventRepo interface {
	Create(dbc dbctx.Context, events []*types.LoginEvent) ([]*types.LoginEvent, error)
	// ListByUserID returns the most recent events first; limit <= 0 means no limit.
	ListByUserID(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LoginEvent, error)
}

type loginEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLoginEventRepo(db *gorm.DB, baseLog *logger.Logger) LoginEventRepo {
	repoLog := baseLog.With("repo", "LoginEventRepo")
	return &loginEventRepo{db: db, log: repoLog}
}

func (r *loginEventRepo) Create(dbc dbctx.Context, events []*types.LoginEvent) ([]*types.LoginEvent, error) {
	if len(events) == 0 {
		return []*types.LoginEvent{}, nil
	}
	if err := dbc.DB(r.db).Create(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *loginEventRepo) ListByUserID(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.LoginEvent, error) {
	var results []*types.LoginEvent
	if userID == uuid.Nil {
		return results, nil
	}
	q := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
