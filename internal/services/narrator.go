package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	"github.com/yungbote/smartstudy-backend/internal/domain/study"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

const maxNarrationRunes = 5000

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Narrator produces the spoken version of a summary under the daily fair-use quota.
// It never fails the caller: any problem yields a nil URL.
type Narrator interface {
	Narrate(ctx context.Context, userID, sessionID uuid.UUID, text string) *string
	// Discard removes narrated audio whose session was never saved. The quota unit stays spent.
	Discard(ctx context.Context, sessionID uuid.UUID)
}

type NarratorConfig struct {
	Enabled    bool
	DailyLimit int
}

type narrator struct {
	log     *logger.Logger
	tts     Synthesizer
	store   AudioStore
	usage   studyrepo.TTSUsageRepo
	metrics *observability.Metrics
	cfg     NarratorConfig
	now     func() time.Time
}

func NewNarrator(log *logger.Logger, tts Synthesizer, store AudioStore, usage studyrepo.TTSUsageRepo, metrics *observability.Metrics, cfg NarratorConfig) Narrator {
	if cfg.DailyLimit < 0 {
		cfg.DailyLimit = 0
	}
	return &narrator{
		log:     log.With("service", "Narrator"),
		tts:     tts,
		store:   store,
		usage:   usage,
		metrics: metrics,
		cfg:     cfg,
		now:     time.Now,
	}
}

// AudioKey names the stored audio for a session.
func AudioKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("study_session_%s.mp3", sessionID)
}

func (n *narrator) Narrate(ctx context.Context, userID, sessionID uuid.UUID, text string) *string {
	text = strings.TrimSpace(text)
	if !n.cfg.Enabled || n.tts == nil || n.store == nil || text == "" {
		n.metrics.ObserveTTS("disabled")
		return nil
	}

	// Check and increment are separate steps; concurrent requests from one user can overshoot by a little.
	day := study.UsageDay(n.now())
	used, err := n.usage.Count(ctx, userID, day)
	if err != nil {
		n.log.Warn("TTS quota lookup failed", "user_id", userID, "error", err)
		n.metrics.ObserveTTS("failed")
		return nil
	}
	if used >= n.cfg.DailyLimit {
		n.log.Info("TTS daily limit reached", "user_id", userID, "used", used, "limit", n.cfg.DailyLimit)
		n.metrics.ObserveTTS("quota")
		return nil
	}

	audio, err := n.tts.Synthesize(ctx, truncateRunes(text, maxNarrationRunes))
	if err != nil || len(audio) == 0 {
		n.log.Warn("TTS synthesis failed", "session_id", sessionID, "error", err)
		n.metrics.ObserveTTS("failed")
		return nil
	}
	url, err := n.store.Save(ctx, AudioKey(sessionID), audio)
	if err != nil {
		n.log.Warn("TTS audio store failed", "session_id", sessionID, "error", err)
		n.metrics.ObserveTTS("failed")
		return nil
	}
	if err := n.usage.Increment(ctx, userID, day); err != nil {
		n.log.Warn("TTS quota increment failed", "user_id", userID, "error", err)
	}
	n.metrics.ObserveTTS("ok")
	return &url
}

func (n *narrator) Discard(ctx context.Context, sessionID uuid.UUID) {
	if n.store == nil {
		return
	}
	if err := n.store.Delete(ctx, AudioKey(sessionID)); err != nil {
		n.log.Warn("Orphaned TTS audio not removed", "session_id", sessionID, "error", err)
	}
}
