package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/yungbote/smartstudy-backend/internal/platform/gcp"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// AudioStore persists synthesized audio and returns the URL clients fetch it from.
type AudioStore interface {
	Save(ctx context.Context, key string, data []byte) (string, error)
	// Delete removes the audio under key; a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// LocalAudioURLPrefix is the static route the HTTP layer serves AudioDir under.
const LocalAudioURLPrefix = "/audio"

type localAudioStore struct {
	log *logger.Logger
	dir string
}

func NewLocalAudioStore(log *logger.Logger, dir string) (AudioStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("audio dir required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio dir: %w", err)
	}
	return &localAudioStore{log: log.With("service", "LocalAudioStore"), dir: dir}, nil
}

func (s *localAudioStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	name := filepath.Base(key)
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write audio: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish audio: %w", err)
	}
	s.log.Debug("Audio stored", "file", name, "bytes", len(data))
	return LocalAudioURLPrefix + "/" + name, nil
}

func (s *localAudioStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(filepath.Join(s.dir, filepath.Base(key)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove audio: %w", err)
	}
	return nil
}

type bucketAudioStore struct {
	bucket gcp.Bucket
}

// NewBucketAudioStore keeps audio in GCS and hands out its public or CDN URL.
func NewBucketAudioStore(bucket gcp.Bucket) AudioStore {
	return &bucketAudioStore{bucket: bucket}
}

func (s *bucketAudioStore) Save(ctx context.Context, key string, data []byte) (string, error) {
	if err := s.bucket.Upload(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("upload audio: %w", err)
	}
	return s.bucket.PublicURL(key), nil
}

func (s *bucketAudioStore) Delete(ctx context.Context, key string) error {
	if err := s.bucket.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete audio: %w", err)
	}
	return nil
}
