package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// Transcriber converts recorded speech to text. openai.Client and gcp.Speech both satisfy it.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

type SpeechService interface {
	// SpeechToText transcribes one uploaded recording and removes it afterwards.
	SpeechToText(ctx context.Context, file UploadedFile) (string, error)
}

type speechService struct {
	log         *logger.Logger
	transcriber Transcriber
	metrics     *observability.Metrics
}

func NewSpeechService(log *logger.Logger, transcriber Transcriber, metrics *observability.Metrics) SpeechService {
	return &speechService{
		log:         log.With("service", "SpeechService"),
		transcriber: transcriber,
		metrics:     metrics,
	}
}

func (s *speechService) SpeechToText(ctx context.Context, file UploadedFile) (string, error) {
	defer removeUploads(s.log, file)
	return transcribeUpload(ctx, s.log, s.transcriber, s.metrics, file)
}

func transcribeUpload(ctx context.Context, log *logger.Logger, t Transcriber, metrics *observability.Metrics, file UploadedFile) (string, error) {
	audio, err := os.ReadFile(file.Path)
	if err != nil {
		return "", apierr.Internal("audio_read_failed", "could not read audio", fmt.Errorf("read upload: %w", err))
	}
	if len(audio) == 0 {
		return "", apierr.BadRequest("empty_audio", "audio file is empty")
	}
	start := time.Now()
	text, err := t.Transcribe(ctx, audio, file.Name)
	metrics.ObserveLLM("transcription", err, time.Since(start))
	if err != nil {
		log.Error("Transcription failed", "file", file.Name, "error", err)
		return "", apierr.Internal("transcription_failed", "audio transcription failed", err)
	}
	return text, nil
}
