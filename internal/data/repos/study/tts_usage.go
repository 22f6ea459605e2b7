package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/smartstudy-backend/internal/domain"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// TTSUsageRepo counts audio syntheses per user per day. Count and Increment are
// separate calls; callers check first and increment only after a synthesis succeeds.
type TTSUsageRepo interface {
	Count(ctx context.Context, userID uuid.UUID, day string) (int, error)
	Increment(ctx context.Context, userID uuid.UUID, day string) error
}

type ttsUsageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTTSUsageRepo(db *gorm.DB, baseLog *logger.Logger) TTSUsageRepo {
	repoLog := baseLog.With("repo", "TTSUsageRepo")
	return &ttsUsageRepo{db: db, log: repoLog}
}

func (r *ttsUsageRepo) Count(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	var row types.TTSUsage
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND day = ?", userID, day).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return row.Count, nil
}

func (r *ttsUsageRepo) Increment(ctx context.Context, userID uuid.UUID, day string) error {
	row := &types.TTSUsage{UserID: userID, Day: day, Count: 1}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "day"}},
			DoUpdates: clause.Assignments(map[string]any{"count": gorm.Expr("user_tts_usage.count + 1")}),
		}).
		Create(row).Error
}

type redisTTSUsage struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedisTTSUsage keeps counters in Redis under keys that expire after two days.
func NewRedisTTSUsage(baseLog *logger.Logger, addr string) (TTSUsageRepo, error) {
	if baseLog == nil {
		return nil, fmt.Errorf("logger required")
	}
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisTTSUsage{
		log: baseLog.With("repo", "RedisTTSUsage"),
		rdb: rdb,
		ttl: 48 * time.Hour,
	}, nil
}

func ttsUsageKey(userID uuid.UUID, day string) string {
	return "smartstudy:tts:" + userID.String() + ":" + day
}

func (r *redisTTSUsage) Count(ctx context.Context, userID uuid.UUID, day string) (int, error) {
	n, err := r.rdb.Get(ctx, ttsUsageKey(userID, day)).Int()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (r *redisTTSUsage) Increment(ctx context.Context, userID uuid.UUID, day string) error {
	key := ttsUsageKey(userID, day)
	_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Incr(ctx, key)
		p.Expire(ctx, key, r.ttl)
		return nil
	})
	return err
}

func (r *redisTTSUsage) Close() error { return r.rdb.Close() }
