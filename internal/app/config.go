package app

import (
	"strings"
	"time"

	"github.com/yungbote/smartstudy-backend/internal/data/db"
	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/envutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/gcp"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

const defaultJWTSecret = "defaultsecret"

const (
	OCRProviderVision     = "vision"
	OCRProviderDocumentAI = "documentai"
	OCRProviderTesseract  = "tesseract"

	STTProviderOpenAI = "openai"
	STTProviderGCP    = "gcp"

	QuotaBackendDB    = "db"
	QuotaBackendRedis = "redis"

	AudioStorageLocal = "local"
	AudioStorageGCS   = "gcs"
)

type Config struct {
	Port    string
	LogMode string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	DB db.Config

	OCRProvider       string
	OCRTimeout        time.Duration
	OCRRetries        int
	OCRMaxConcurrency int
	OCRMaxSide        int
	Tesseract         TesseractSettings
	DocumentAI        gcp.DocumentConfig

	STTProvider string
	Speech      gcp.SpeechConfig

	TTSEnabled    bool
	TTSDailyLimit int
	QuotaBackend  string
	RedisAddr     string

	AudioStorage string
	AudioDir     string
	AudioBucket  gcp.BucketConfig

	UploadDir         string
	GenerationTimeout time.Duration
	CORSOrigins       []string

	OTelEnabled bool
	OTel        observability.OtelConfig
}

type TesseractSettings struct {
	Path      string
	Languages string
	PSM       int
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL: envutil.Duration("ACCESS_TOKEN_TTL", 8*time.Hour),

		DB: db.ConfigFromEnv(),

		OCRProvider:       strings.ToLower(envutil.String("OCR_PROVIDER", OCRProviderVision)),
		OCRTimeout:        envutil.Duration("OCR_TIMEOUT", 15*time.Second),
		OCRRetries:        envutil.Int("OCR_RETRIES", 1),
		OCRMaxConcurrency: envutil.Int("OCR_MAX_CONCURRENCY", 4),
		OCRMaxSide:        envutil.Int("OCR_MAX_SIDE", 2048),
		Tesseract: TesseractSettings{
			Path:      envutil.String("TESSERACT_PATH", "tesseract"),
			Languages: envutil.String("TESSERACT_LANGUAGES", "eng"),
			PSM:       envutil.Int("TESSERACT_PSM", 6),
		},
		DocumentAI: gcp.DocumentConfig{
			ProjectID:        envutil.String("DOCUMENTAI_PROJECT_ID", ""),
			Location:         envutil.String("DOCUMENTAI_LOCATION", "us"),
			ProcessorID:      envutil.String("DOCUMENTAI_PROCESSOR_ID", ""),
			ProcessorVersion: envutil.String("DOCUMENTAI_PROCESSOR_VERSION", ""),
		},

		STTProvider: strings.ToLower(envutil.String("STT_PROVIDER", STTProviderOpenAI)),
		Speech: gcp.SpeechConfig{
			LanguageCode: envutil.String("SPEECH_LANGUAGE_CODE", "en-US"),
			Model:        envutil.String("SPEECH_MODEL", ""),
		},

		TTSEnabled:    envutil.Bool("TTS_ENABLED", true),
		TTSDailyLimit: envutil.Int("TTS_DAILY_LIMIT", 5),
		QuotaBackend:  strings.ToLower(envutil.String("QUOTA_BACKEND", QuotaBackendDB)),
		RedisAddr:     envutil.String("REDIS_ADDR", ""),

		AudioStorage: strings.ToLower(envutil.String("AUDIO_STORAGE", AudioStorageLocal)),
		AudioDir:     envutil.String("AUDIO_DIR", "audio"),
		AudioBucket: gcp.BucketConfig{
			Name:         envutil.String("AUDIO_GCS_BUCKET_NAME", ""),
			CDNDomain:    envutil.String("AUDIO_CDN_DOMAIN", ""),
			EmulatorHost: envutil.String("STORAGE_EMULATOR_HOST", ""),
		},

		UploadDir:         envutil.String("UPLOAD_DIR", ""),
		GenerationTimeout: envutil.Duration("GENERATION_TIMEOUT", 60*time.Second),
		CORSOrigins:       splitList(envutil.String("CORS_ORIGINS", "")),

		OTelEnabled: envutil.Bool("OTEL_ENABLED", false),
		OTel: observability.OtelConfig{
			ServiceName: envutil.String("OTEL_SERVICE_NAME", "smartstudy-backend"),
			Environment: envutil.String("APP_ENV", "development"),
			Version:     envutil.String("APP_VERSION", "dev"),
		},
	}
	if cfg.JWTSecretKey == defaultJWTSecret && log != nil {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
