package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/yungbote/smartstudy-backend/internal/observability"
	"github.com/yungbote/smartstudy-backend/internal/platform/imageprep"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// OCREngine recognizes the text in one image. gcp.Vision, gcp.Document and
// localmedia.Tesseract all satisfy it.
type OCREngine interface {
	Recognize(ctx context.Context, img []byte, mimeType string) (string, error)
}

// TextExtractor turns a batch of photographed pages into one text blob. It never
// fails: an image that cannot be read contributes nothing.
type TextExtractor interface {
	ExtractText(ctx context.Context, files []UploadedFile) string
}

type TextExtractorConfig struct {
	// Timeout bounds each recognition attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts after the first one fails.
	Retries int
	// MaxConcurrency caps in-flight recognitions across all requests.
	MaxConcurrency int64
	// MaxSide is the longest image edge handed to the engine; 0 disables preprocessing.
	MaxSide int
}

type textExtractor struct {
	log     *logger.Logger
	engine  OCREngine
	metrics *observability.Metrics
	sem     *semaphore.Weighted
	cfg     TextExtractorConfig
}

var errOCRTimeout = errors.New("ocr timeout")

func NewTextExtractor(log *logger.Logger, engine OCREngine, metrics *observability.Metrics, cfg TextExtractorConfig) TextExtractor {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	return &textExtractor{
		log:     log.With("service", "TextExtractor"),
		engine:  engine,
		metrics: metrics,
		sem:     semaphore.NewWeighted(cfg.MaxConcurrency),
		cfg:     cfg,
	}
}

// ExtractText processes files one at a time, in order.
func (s *textExtractor) ExtractText(ctx context.Context, files []UploadedFile) string {
	ctx, span := observability.StartSpan(ctx, "ocr.extract", attribute.Int("ocr.images", len(files)))
	defer span.End()

	parts := make([]string, 0, len(files))
	for _, f := range files {
		text := strings.TrimSpace(s.extractOne(ctx, f))
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	out := strings.Join(parts, "\n\n")
	span.SetAttributes(attribute.Int("ocr.chars", len(out)))
	s.log.Debug("OCR completed", "images", len(files), "chars", len(out))
	return out
}

func (s *textExtractor) extractOne(ctx context.Context, f UploadedFile) string {
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		s.log.Warn("OCR could not read upload", "path", f.Path, "error", err)
		s.metrics.ObserveOCRImage("failed")
		return ""
	}
	img, mimeType := raw, f.MimeType
	if s.cfg.MaxSide > 0 {
		img, mimeType = imageprep.Prepare(raw, f.MimeType, imageprep.Options{MaxSide: s.cfg.MaxSide})
	}

	var lastErr error
	for attempt := 0; attempt <= s.cfg.Retries; attempt++ {
		if ctx.Err() != nil {
			lastErr = ctx.Err()
			break
		}
		text, err := s.recognizeWithDeadline(ctx, img, mimeType)
		if err == nil {
			if strings.TrimSpace(text) == "" {
				s.metrics.ObserveOCRImage("empty")
			} else {
				s.metrics.ObserveOCRImage("text")
			}
			return text
		}
		lastErr = err
		s.log.Warn("OCR attempt failed",
			"file", f.Name,
			"attempt", attempt+1,
			"max_attempts", s.cfg.Retries+1,
			"error", err,
		)
	}
	s.log.Error("OCR gave up on image", "file", f.Name, "error", lastErr)
	s.metrics.ObserveOCRImage("failed")
	return ""
}

type ocrResult struct {
	text string
	err  error
}

// recognizeWithDeadline races one engine call against the per-image deadline, so an
// engine that ignores cancellation still cannot stall the batch.
func (s *textExtractor) recognizeWithDeadline(ctx context.Context, img []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("wait for ocr slot: %w", err)
	}
	done := make(chan ocrResult, 1)
	go func() {
		defer s.sem.Release(1)
		text, err := s.engine.Recognize(ctx, img, mimeType)
		done <- ocrResult{text: text, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", errOCRTimeout
		}
		return "", ctx.Err()
	}
}
