package services

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// UploadedFile is a multipart upload already written to local disk.
type UploadedFile struct {
	Path     string
	Name     string
	MimeType string
}

// removeUploads deletes the temp files behind uploads; missing files are ignored.
func removeUploads(log *logger.Logger, files ...UploadedFile) {
	for _, f := range files {
		if strings.TrimSpace(f.Path) == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to remove upload", "path", f.Path, "error", err)
		}
	}
}
