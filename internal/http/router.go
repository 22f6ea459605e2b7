package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/smartstudy-backend/internal/http/handlers"
	httpMW "github.com/yungbote/smartstudy-backend/internal/http/middleware"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log     *logger.Logger
	Metrics *observability.Metrics

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	QuizHandler    *httpH.QuizHandler
	StudyHandler   *httpH.StudyHandler
	HealthHandler  *httpH.HealthHandler

	// AudioDir is served at /audio when synthesized audio is stored on local disk.
	AudioDir    string
	CORSOrigins []string
	OTelService string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.OTelService != "" {
		r.Use(otelgin.Middleware(cfg.OTelService))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}
	if cfg.AudioDir != "" {
		r.Static("/audio", cfg.AudioDir)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/register", cfg.AuthHandler.Register)
			api.POST("/auth/login", cfg.AuthHandler.Login)
		}
	}

	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		if cfg.AuthHandler != nil {
			protected.GET("/auth/me", cfg.AuthHandler.Me)
		}

		// Quiz
		if cfg.QuizHandler != nil {
			protected.POST("/quiz/from-images", cfg.QuizHandler.FromImages)
			protected.POST("/quiz/stt", cfg.QuizHandler.SpeechToText)
			protected.GET("/quiz", cfg.QuizHandler.List)
			protected.GET("/quiz/:quizID", cfg.QuizHandler.Get)
			protected.GET("/quiz/:quizID/attempts", cfg.QuizHandler.ListAttempts)
			protected.POST("/quiz/:quizID/attempts", cfg.QuizHandler.CreateAttempt)
			protected.POST("/quiz/:quizID/attempts/:attemptID/answers", cfg.QuizHandler.SubmitAnswers)
		}

		// Study
		if cfg.StudyHandler != nil {
			protected.POST("/study/from-images", cfg.StudyHandler.FromImages)
			protected.POST("/study/evaluate-oral", cfg.StudyHandler.EvaluateOral)
			protected.GET("/study/oral-evaluations", cfg.StudyHandler.OralHistory)
			protected.GET("/study/sessions", cfg.StudyHandler.ListSessions)
			protected.GET("/study/session/:sessionID", cfg.StudyHandler.GetSession)
			protected.POST("/study/session/:sessionID/rating", cfg.StudyHandler.SetRating)
			protected.GET("/study/stats", cfg.StudyHandler.Stats)
			protected.GET("/study/stats/global", cfg.StudyHandler.GlobalStats)
		}
	}

	return r
}
