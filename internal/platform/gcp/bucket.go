package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// Bucket stores synthesized study audio in a single GCS bucket.
type Bucket interface {
	Upload(ctx context.Context, key string, r io.Reader) error
	// Delete treats a missing object as already deleted.
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
	Close() error
}

type BucketConfig struct {
	Name      string
	CDNDomain string
	// EmulatorHost points the client at a fake-gcs-server style emulator.
	EmulatorHost string
}

type bucketService struct {
	log           *logger.Logger
	storageClient *storage.Client
	cfg           BucketConfig
}

func NewBucket(log *logger.Logger, cfg BucketConfig) (Bucket, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("missing env var AUDIO_GCS_BUCKET_NAME")
	}
	cfg.EmulatorHost = strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")

	var opts []option.ClientOption
	if cfg.EmulatorHost != "" {
		opts = []option.ClientOption{
			option.WithoutAuthentication(),
			option.WithEndpoint(cfg.EmulatorHost + "/storage/v1/"),
		}
	} else {
		opts = clientOptions(option.WithScopes(storage.ScopeReadWrite))
	}
	c, err := storage.NewClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	slog := log.With("service", "BucketService")
	slog.Info("Object storage initialized", "bucket", cfg.Name, "emulator_host", cfg.EmulatorHost)
	return &bucketService{log: slog, storageClient: c, cfg: cfg}, nil
}

func (bs *bucketService) Close() error {
	if bs == nil || bs.storageClient == nil {
		return nil
	}
	return bs.storageClient.Close()
}

func (bs *bucketService) Upload(ctx context.Context, key string, r io.Reader) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 2*time.Minute)
	defer cancel()

	w := bs.storageClient.Bucket(bs.cfg.Name).Object(key).NewWriter(ctx)
	if ct := contentTypeForKey(key); ct != "" {
		w.ContentType = ct
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

func (bs *bucketService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctxutil.Default(ctx), 30*time.Second)
	defer cancel()
	err := bs.storageClient.Bucket(bs.cfg.Name).Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, bs.cfg.Name, err)
	}
	return nil
}

func (bs *bucketService) PublicURL(key string) string {
	return publicURL(bs.cfg, key)
}

func publicURL(cfg BucketConfig, key string) string {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if cfg.CDNDomain != "" {
		return fmt.Sprintf("https://%s/%s", strings.TrimRight(cfg.CDNDomain, "/"), key)
	}
	if cfg.EmulatorHost != "" {
		return fmt.Sprintf("%s/%s/%s", cfg.EmulatorHost, cfg.Name, key)
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", cfg.Name, key)
}

func contentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	switch {
	case strings.HasSuffix(s, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(s, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(s, ".webm"):
		return "audio/webm"
	case strings.HasSuffix(s, ".json"):
		return "application/json"
	default:
		return ""
	}
}
