package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/prompts"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

type Services struct {
	Auth   services.AuthService
	Quiz   services.QuizService
	Speech services.SpeechService
	Study  services.StudyService
	Oral   services.OralService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	catalog, err := prompts.Load()
	if err != nil {
		return Services{}, err
	}

	extractor := services.NewTextExtractor(log, clients.OCR, metrics, services.TextExtractorConfig{
		Timeout:        cfg.OCRTimeout,
		Retries:        cfg.OCRRetries,
		MaxConcurrency: int64(cfg.OCRMaxConcurrency),
		MaxSide:        cfg.OCRMaxSide,
	})
	generator := services.NewQuizGenerator(log, clients.Generation, catalog, metrics, cfg.GenerationTimeout)
	ai := services.NewStudyAI(log, clients.OpenAI, catalog, metrics, cfg.GenerationTimeout)
	narrator := services.NewNarrator(log, clients.OpenAI, clients.AudioStore, clients.TTSUsage, metrics, services.NarratorConfig{
		Enabled:    cfg.TTSEnabled,
		DailyLimit: cfg.TTSDailyLimit,
	})

	return Services{
		Auth: services.NewAuthService(db, log, repos.User, repos.LoginEvent, cfg.JWTSecretKey, cfg.AccessTokenTTL),
		Quiz: services.NewQuizService(db, log,
			repos.Quiz, repos.Question, repos.Attempt, repos.Answer,
			extractor, generator, metrics,
		),
		Speech: services.NewSpeechService(log, clients.Transcriber, metrics),
		Study: services.NewStudyService(db, log,
			repos.Session, repos.Summary, repos.Problem,
			extractor, ai, narrator,
		),
		Oral: services.NewOralService(db, log,
			repos.Session, repos.Summary, repos.OralEvaluation,
			clients.Transcriber, ai, metrics,
		),
	}, nil
}
