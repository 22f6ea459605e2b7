package study

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/pkg/dbctx"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// SessionListRow is one session joined with its summary and latest oral score.
type SessionListRow struct {
	SessionID uuid.UUID
	Subject   *string
	Mode      string
	CreatedAt time.Time
	Rating    *int
	Summary   *string
	AudioURL  *string
	OralScore *int
}

type UserStats struct {
	TotalSessions int64
	AverageRating *float64
	ModeCounts    map[string]int64
	// RatingProgress holds the earliest 20 ratings in creation order.
	RatingProgress []int
}

type GlobalStats struct {
	TotalSessions        int64
	TotalOralEvaluations int64
	AverageOralScore     *float64
}

const ratingProgressLimit = 20

type SessionRepo interface {
	Create(dbc dbctx.Context, sessions []*types.StudySession) ([]*types.StudySession, error)
	// GetOwned returns nil, nil when the session is absent or belongs to someone else.
	GetOwned(dbc dbctx.Context, sessionID, userID uuid.UUID) (*types.StudySession, error)
	ListWithOutputs(dbc dbctx.Context, userID uuid.UUID) ([]SessionListRow, error)
	SetRating(dbc dbctx.Context, sessionID, userID uuid.UUID, rating int) (int64, error)
	Stats(dbc dbctx.Context, userID uuid.UUID) (UserStats, error)
	GlobalStats(dbc dbctx.Context) (GlobalStats, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "StudySessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Create(dbc dbctx.Context, sessions []*types.StudySession) ([]*types.StudySession, error) {
	if len(sessions) == 0 {
		return []*types.StudySession{}, nil
	}
	if err := dbc.DB(r.db).Create(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *sessionRepo) GetOwned(dbc dbctx.Context, sessionID, userID uuid.UUID) (*types.StudySession, error) {
	var s types.StudySession
	err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Take(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const listWithOutputsSQL = `
SELECT
  s.id         AS session_id,
  s.subject    AS subject,
  s.mode       AS mode,
  s.created_at AS created_at,
  s.rating     AS rating,
  sm.summary   AS summary,
  sm.audio_url AS audio_url,
  (SELECT e.score
     FROM study_oral_evaluation e
    WHERE e.session_id = s.id
    ORDER BY e.created_at DESC
    LIMIT 1)   AS oral_score
FROM study_session s
LEFT JOIN study_summary sm ON sm.session_id = s.id
WHERE s.user_id = ?
ORDER BY s.created_at DESC`

func (r *sessionRepo) ListWithOutputs(dbc dbctx.Context, userID uuid.UUID) ([]SessionListRow, error) {
	rows := []SessionListRow{}
	if userID == uuid.Nil {
		return rows, nil
	}
	if err := dbc.DB(r.db).Raw(listWithOutputsSQL, userID).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *sessionRepo) SetRating(dbc dbctx.Context, sessionID, userID uuid.UUID, rating int) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.StudySession{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Update("rating", rating)
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) Stats(dbc dbctx.Context, userID uuid.UUID) (UserStats, error) {
	out := UserStats{ModeCounts: map[string]int64{}, RatingProgress: []int{}}
	transaction := dbc.DB(r.db)

	var totals struct {
		TotalSessions int64
		AverageRating *float64
	}
	if err := transaction.
		Model(&types.StudySession{}).
		Select("COUNT(*) AS total_sessions, AVG(rating) AS average_rating").
		Where("user_id = ?", userID).
		Scan(&totals).Error; err != nil {
		return out, err
	}
	out.TotalSessions = totals.TotalSessions
	out.AverageRating = totals.AverageRating

	var modes []struct {
		Mode string
		N    int64
	}
	if err := transaction.
		Model(&types.StudySession{}).
		Select("mode, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("mode").
		Scan(&modes).Error; err != nil {
		return out, err
	}
	for _, m := range modes {
		out.ModeCounts[m.Mode] = m.N
	}

	if err := transaction.
		Model(&types.StudySession{}).
		Where("user_id = ? AND rating IS NOT NULL", userID).
		Order("created_at ASC").
		Limit(ratingProgressLimit).
		Pluck("rating", &out.RatingProgress).Error; err != nil {
		return out, err
	}
	return out, nil
}

func (r *sessionRepo) GlobalStats(dbc dbctx.Context) (GlobalStats, error) {
	var out GlobalStats
	transaction := dbc.DB(r.db)

	if err := transaction.Model(&types.StudySession{}).Count(&out.TotalSessions).Error; err != nil {
		return out, err
	}
	var oral struct {
		Total   int64
		Average *float64
	}
	if err := transaction.
		Model(&types.OralEvaluation{}).
		Select("COUNT(*) AS total, AVG(score) AS average").
		Scan(&oral).Error; err != nil {
		return out, err
	}
	out.TotalOralEvaluations = oral.Total
	out.AverageOralScore = oral.Average
	return out, nil
}
