package handlers

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/smartstudy-backend/internal/platform/apierr"
	"github.com/yungbote/smartstudy-backend/internal/services"
)

// MaxImagesPerRequest caps the `images` field of the from-images endpoints.
const MaxImagesPerRequest = 10

// UploadStore writes multipart files into a scratch directory. Services remove them.
type UploadStore struct {
	dir string
}

func NewUploadStore(dir string) (*UploadStore, error) {
	if strings.TrimSpace(dir) == "" {
		dir = filepath.Join(os.TempDir(), "smartstudy-uploads")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &UploadStore{dir: dir}, nil
}

// SaveAll stores every file of field; more than max files is a 400.
func (u *UploadStore) SaveAll(c *gin.Context, field string, max int) ([]services.UploadedFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, apierr.New(http.StatusBadRequest, "invalid_multipart_form", "expected a multipart form", err)
	}
	headers := form.File[field]
	if len(headers) == 0 {
		return nil, apierr.BadRequest("no_files", fmt.Sprintf("no files in field %q", field))
	}
	if max > 0 && len(headers) > max {
		return nil, apierr.BadRequest("too_many_files", fmt.Sprintf("at most %d files are allowed", max))
	}
	out := make([]services.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := u.save(c, fh)
		if err != nil {
			for _, saved := range out {
				_ = os.Remove(saved.Path)
			}
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// SaveOne stores the single file of field.
func (u *UploadStore) SaveOne(c *gin.Context, field string) (services.UploadedFile, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return services.UploadedFile{}, apierr.New(http.StatusBadRequest, "missing_file", fmt.Sprintf("missing file field %q", field), err)
	}
	return u.save(c, fh)
}

func (u *UploadStore) save(c *gin.Context, fh *multipart.FileHeader) (services.UploadedFile, error) {
	name := filepath.Base(fh.Filename)
	dst := filepath.Join(u.dir, uuid.NewString()+strings.ToLower(filepath.Ext(name)))
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		return services.UploadedFile{}, apierr.Internal("upload_failed", "could not store upload", err)
	}
	return services.UploadedFile{
		Path:     dst,
		Name:     name,
		MimeType: fh.Header.Get("Content-Type"),
	}, nil
}
