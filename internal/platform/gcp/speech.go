package gcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	speech "cloud.google.com/go/speech/apiv1"
	speechpb "cloud.google.com/go/speech/apiv1/speechpb"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/yungbote/smartstudy-backend/internal/pkg/httpx"
	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// Speech transcribes short spoken answers with Cloud Speech-to-Text.
type Speech interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
	Close() error
}

type SpeechConfig struct {
	LanguageCode string
	Model        string
}

type speechService struct {
	log        *logger.Logger
	client     *speech.Client
	cfg        SpeechConfig
	maxRetries int
}

func NewSpeech(log *logger.Logger, cfg SpeechConfig) (Speech, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.LanguageCode == "" {
		cfg.LanguageCode = "en-US"
	}
	c, err := speech.NewClient(context.Background(), clientOptions()...)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}
	return &speechService{
		log:        log.With("service", "gcp.Speech"),
		client:     c,
		cfg:        cfg,
		maxRetries: 3,
	}, nil
}

func (s *speechService) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *speechService) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", nil
	}
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 3*time.Minute)
	defer cancel()

	req := &speechpb.LongRunningRecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			LanguageCode:               s.cfg.LanguageCode,
			Model:                      s.cfg.Model,
			EnableAutomaticPunctuation: true,
			Encoding:                   inferSpeechEncoding(filename),
		},
		Audio: &speechpb.RecognitionAudio{AudioSource: &speechpb.RecognitionAudio_Content{Content: audio}},
	}

	resp, err := s.retryLR(ctx, func() (*speechpb.LongRunningRecognizeResponse, error) {
		op, err := s.client.LongRunningRecognize(ctx, req)
		if err != nil {
			return nil, err
		}
		return op.Wait(ctx)
	})
	if err != nil {
		return "", fmt.Errorf("speech longrunningrecognize: %w", err)
	}
	return joinTranscript(resp), nil
}

func inferSpeechEncoding(filename string) speechpb.RecognitionConfig_AudioEncoding {
	f := strings.ToLower(strings.TrimSpace(filename))
	switch {
	case strings.HasSuffix(f, ".wav"):
		return speechpb.RecognitionConfig_LINEAR16
	case strings.HasSuffix(f, ".flac"):
		return speechpb.RecognitionConfig_FLAC
	case strings.HasSuffix(f, ".mp3"):
		return speechpb.RecognitionConfig_MP3
	case strings.HasSuffix(f, ".ogg"), strings.HasSuffix(f, ".opus"):
		return speechpb.RecognitionConfig_OGG_OPUS
	case strings.HasSuffix(f, ".webm"):
		return speechpb.RecognitionConfig_WEBM_OPUS
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED
	}
}

func joinTranscript(resp *speechpb.LongRunningRecognizeResponse) string {
	if resp == nil {
		return ""
	}
	var full strings.Builder
	for _, r := range resp.Results {
		if r == nil || len(r.Alternatives) == 0 || r.Alternatives[0] == nil {
			continue
		}
		t := strings.TrimSpace(r.Alternatives[0].Transcript)
		if t == "" {
			continue
		}
		if full.Len() > 0 {
			full.WriteString(" ")
		}
		full.WriteString(t)
	}
	return full.String()
}

func isRetryableSpeechCode(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	default:
		return false
	}
}

func (s *speechService) retryLR(ctx context.Context, fn func() (*speechpb.LongRunningRecognizeResponse, error)) (*speechpb.LongRunningRecognizeResponse, error) {
	backoff := 750 * time.Millisecond
	var last error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		last = err
		if !isRetryableSpeechCode(err) || attempt == s.maxRetries {
			break
		}
		s.log.Warn("Speech request retrying", "attempt", attempt+1, "error", err.Error())
		if err := httpx.SleepContext(ctx, backoff); err != nil {
			return nil, err
		}
		backoff *= 2
		if backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
	return nil, last
}
