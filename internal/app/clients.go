package app

import (
	"context"
	"fmt"
	"io"

	"gorm.io/gorm"

	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/platform/openai"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

type Clients struct {
	// OpenAI serves text, TTS and Whisper calls with the configured retry budget.
	OpenAI openai.Client
	// Generation is the quiz-generation client; it never retries.
	Generation openai.Client

	OCR         services.OCREngine
	Transcriber services.Transcriber
	AudioStore  services.AudioStore
	AudioDir    string
	TTSUsage    studyrepo.TTSUsageRepo

	closers []io.Closer
}

func wireClients(ctx context.Context, log *logger.Logger, cfg Config, db *gorm.DB) (Clients, error) {
	log.Info("Wiring clients...")
	var c Clients

	oaCfg := openai.ConfigFromEnv()
	oa, err := openai.NewClient(log, oaCfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}
	genCfg := oaCfg
	genCfg.MaxRetries = 0
	gen, err := openai.NewClient(log, genCfg)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai generation client: %w", err)
	}
	c.OpenAI, c.Generation = oa, gen

	ocr, closer, err := resolveOCREngine(ctx, log, cfg)
	if err != nil {
		return Clients{}, err
	}
	c.OCR = ocr
	c.track(closer)

	stt, closer, err := resolveTranscriber(log, cfg, oa)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.Transcriber = stt
	c.track(closer)

	store, closer, dir, err := resolveAudioStore(log, cfg)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.AudioStore, c.AudioDir = store, dir
	c.track(closer)

	usage, closer, err := resolveTTSUsage(log, cfg, db)
	if err != nil {
		c.Close()
		return Clients{}, err
	}
	c.TTSUsage = usage
	c.track(closer)

	return c, nil
}

func (c *Clients) track(closer io.Closer) {
	if closer != nil {
		c.closers = append(c.closers, closer)
	}
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
	c.closers = nil
}
