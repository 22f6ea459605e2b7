package app

import (
	"gorm.io/gorm"

	apphttp "github.com/yungbote/smartstudy-backend/internal/http"
	httpH "github.com/yungbote/smartstudy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/smartstudy-backend/internal/http/middleware"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health *httpH.HealthHandler
	Auth   *httpH.AuthHandler
	Quiz   *httpH.QuizHandler
	Study  *httpH.StudyHandler
}

func wireHandlers(db *gorm.DB, log *logger.Logger, cfg Config, services Services) (Handlers, error) {
	log.Info("Wiring handlers...")
	uploads, err := httpH.NewUploadStore(cfg.UploadDir)
	if err != nil {
		return Handlers{}, err
	}
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Auth:   httpH.NewAuthHandler(services.Auth),
		Quiz:   httpH.NewQuizHandler(log, services.Quiz, services.Speech, uploads),
		Study:  httpH.NewStudyHandler(log, services.Study, services.Oral, uploads),
	}, nil
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics, audioDir string) *apphttp.Server {
	rc := apphttp.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		HealthHandler:  handlers.Health,
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		QuizHandler:    handlers.Quiz,
		StudyHandler:   handlers.Study,
		AudioDir:       audioDir,
		CORSOrigins:    cfg.CORSOrigins,
	}
	if cfg.OTelEnabled {
		rc.OTelService = cfg.OTel.ServiceName
	}
	return apphttp.NewServer(rc)
}
