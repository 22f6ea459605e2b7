package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"gorm.io/gorm"

	studyrepo "github.com/yungbote/smartstudy-backend/internal/data/repos/study"
	"github.com/yungbote/smartstudy-backend/internal/platform/gcp"
	"github.com/yungbote/smartstudy-backend/internal/platform/localmedia"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
	"github.com/yungbote/smartstudy-backend/internal/platform/openai"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

// Swapped in tests.
var (
	newVision        = gcp.NewVision
	newDocument      = gcp.NewDocument
	newSpeech        = gcp.NewSpeech
	newBucket        = gcp.NewBucket
	newTesseract     = localmedia.NewTesseract
	newRedisTTSUsage = studyrepo.NewRedisTTSUsage
)

type ProviderBootstrapErrorCode string

const (
	ProviderBootstrapErrorInvalidMode   ProviderBootstrapErrorCode = "invalid_mode"
	ProviderBootstrapErrorMissingConfig ProviderBootstrapErrorCode = "missing_config"
	ProviderBootstrapErrorNotReady      ProviderBootstrapErrorCode = "not_ready"
	ProviderBootstrapErrorConnectFailed ProviderBootstrapErrorCode = "connect_failed"
)

// ProviderBootstrapError reports why a pluggable backend could not be selected at startup.
type ProviderBootstrapError struct {
	Kind  string
	Code  ProviderBootstrapErrorCode
	Mode  string
	Cause error
}

func (e *ProviderBootstrapError) Error() string {
	if e == nil {
		return "provider bootstrap failed"
	}
	return fmt.Sprintf("%s provider bootstrap failed (code=%s mode=%q): %v", e.Kind, e.Code, e.Mode, e.Cause)
}

func (e *ProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func bootstrapErr(kind, mode string, code ProviderBootstrapErrorCode, cause error) error {
	return &ProviderBootstrapError{Kind: kind, Code: code, Mode: mode, Cause: cause}
}

func providerBootstrapErrorCode(err error) ProviderBootstrapErrorCode {
	var pe *ProviderBootstrapError
	if errors.As(err, &pe) && pe.Code != "" {
		return pe.Code
	}
	return ProviderBootstrapErrorConnectFailed
}

// resolveOCREngine picks the recognizer behind OCR_PROVIDER. The closer is nil for engines
// that hold no connection.
func resolveOCREngine(ctx context.Context, log *logger.Logger, cfg Config) (services.OCREngine, io.Closer, error) {
	mode := strings.TrimSpace(cfg.OCRProvider)
	log.Info("Selecting OCR provider", "mode", mode)
	switch mode {
	case OCRProviderVision, "":
		log.Info("Using Google credentials", "source", gcp.CredentialMode())
		v, err := newVision(log)
		if err != nil {
			return nil, nil, bootstrapErr("ocr", mode, ProviderBootstrapErrorConnectFailed, err)
		}
		return v, v, nil
	case OCRProviderDocumentAI:
		if cfg.DocumentAI.ProjectID == "" || cfg.DocumentAI.ProcessorID == "" {
			return nil, nil, bootstrapErr("ocr", mode, ProviderBootstrapErrorMissingConfig,
				errors.New("DOCUMENTAI_PROJECT_ID and DOCUMENTAI_PROCESSOR_ID are required"))
		}
		d, err := newDocument(log, cfg.DocumentAI)
		if err != nil {
			return nil, nil, bootstrapErr("ocr", mode, ProviderBootstrapErrorConnectFailed, err)
		}
		return d, d, nil
	case OCRProviderTesseract:
		t := newTesseract(log, localmedia.TesseractConfig{
			Path:      cfg.Tesseract.Path,
			Languages: cfg.Tesseract.Languages,
			PSM:       cfg.Tesseract.PSM,
		})
		readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := t.AssertReady(readyCtx); err != nil {
			return nil, nil, bootstrapErr("ocr", mode, ProviderBootstrapErrorNotReady, err)
		}
		return t, nil, nil
	default:
		return nil, nil, bootstrapErr("ocr", mode, ProviderBootstrapErrorInvalidMode,
			fmt.Errorf("unsupported OCR_PROVIDER %q", mode))
	}
}

// resolveTranscriber picks the speech-to-text backend behind STT_PROVIDER.
func resolveTranscriber(log *logger.Logger, cfg Config, oa openai.Client) (services.Transcriber, io.Closer, error) {
	mode := strings.TrimSpace(cfg.STTProvider)
	log.Info("Selecting speech-to-text provider", "mode", mode)
	switch mode {
	case STTProviderOpenAI, "":
		if oa == nil {
			return nil, nil, bootstrapErr("stt", mode, ProviderBootstrapErrorMissingConfig, errors.New("openai client required"))
		}
		return oa, nil, nil
	case STTProviderGCP:
		s, err := newSpeech(log, cfg.Speech)
		if err != nil {
			return nil, nil, bootstrapErr("stt", mode, ProviderBootstrapErrorConnectFailed, err)
		}
		return s, s, nil
	default:
		return nil, nil, bootstrapErr("stt", mode, ProviderBootstrapErrorInvalidMode,
			fmt.Errorf("unsupported STT_PROVIDER %q", mode))
	}
}

// resolveAudioStore picks where narrated summaries are written. The returned dir is set
// only for local storage, which the router then serves under /audio.
func resolveAudioStore(log *logger.Logger, cfg Config) (services.AudioStore, io.Closer, string, error) {
	mode := strings.TrimSpace(cfg.AudioStorage)
	log.Info("Selecting audio storage", "mode", mode)
	switch mode {
	case AudioStorageLocal, "":
		store, err := services.NewLocalAudioStore(log, cfg.AudioDir)
		if err != nil {
			return nil, nil, "", bootstrapErr("audio", mode, ProviderBootstrapErrorNotReady, err)
		}
		return store, nil, cfg.AudioDir, nil
	case AudioStorageGCS:
		if strings.TrimSpace(cfg.AudioBucket.Name) == "" {
			return nil, nil, "", bootstrapErr("audio", mode, ProviderBootstrapErrorMissingConfig,
				errors.New("AUDIO_GCS_BUCKET_NAME is required"))
		}
		bucket, err := newBucket(log, cfg.AudioBucket)
		if err != nil {
			return nil, nil, "", bootstrapErr("audio", mode, ProviderBootstrapErrorConnectFailed, err)
		}
		return services.NewBucketAudioStore(bucket), bucket, "", nil
	default:
		return nil, nil, "", bootstrapErr("audio", mode, ProviderBootstrapErrorInvalidMode,
			fmt.Errorf("unsupported AUDIO_STORAGE %q", mode))
	}
}

// resolveTTSUsage picks the fair-use counter store behind QUOTA_BACKEND.
func resolveTTSUsage(log *logger.Logger, cfg Config, db *gorm.DB) (studyrepo.TTSUsageRepo, io.Closer, error) {
	mode := strings.TrimSpace(cfg.QuotaBackend)
	switch mode {
	case QuotaBackendDB, "":
		return studyrepo.NewTTSUsageRepo(db, log), nil, nil
	case QuotaBackendRedis:
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, nil, bootstrapErr("quota", mode, ProviderBootstrapErrorMissingConfig, errors.New("REDIS_ADDR is required"))
		}
		repo, err := newRedisTTSUsage(log, cfg.RedisAddr)
		if err != nil {
			return nil, nil, bootstrapErr("quota", mode, ProviderBootstrapErrorConnectFailed, err)
		}
		closer, _ := repo.(io.Closer)
		return repo, closer, nil
	default:
		return nil, nil, bootstrapErr("quota", mode, ProviderBootstrapErrorInvalidMode,
			fmt.Errorf("unsupported QUOTA_BACKEND %q", mode))
	}
}
