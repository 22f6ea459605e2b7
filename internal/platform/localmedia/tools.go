package localmedia

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// Tesseract is glue around the tesseract binary for hosts without cloud OCR.
//
// REQUIRED BINARY: tesseract (with the configured traineddata languages installed).
type Tesseract interface {
	AssertReady(ctx context.Context) error
	Recognize(ctx context.Context, img []byte, mimeType string) (string, error)
}

type TesseractConfig struct {
	Path string
	// Languages is passed to -l, e.g. "eng" or "ita+eng".
	Languages string
	// PSM is the page segmentation mode; 6 suits photographed blocks of text.
	PSM int
}

type tesseract struct {
	log *logger.Logger
	cfg TesseractConfig
}

func NewTesseract(log *logger.Logger, cfg TesseractConfig) Tesseract {
	if cfg.Path == "" {
		cfg.Path = "tesseract"
	}
	if cfg.Languages == "" {
		cfg.Languages = "eng"
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	return &tesseract{log: log.With("service", "Tesseract"), cfg: cfg}
}

func (t *tesseract) AssertReady(ctx context.Context) error {
	if _, err := exec.LookPath(t.cfg.Path); err != nil {
		return fmt.Errorf("missing required binary %q in PATH: %w", t.cfg.Path, err)
	}
	return nil
}

// Recognize pipes img through "tesseract stdin stdout". The caller owns the deadline.
func (t *tesseract) Recognize(ctx context.Context, img []byte, mimeType string) (string, error) {
	if len(img) == 0 {
		return "", nil
	}
	cmd := exec.CommandContext(ctxutil.Default(ctx), t.cfg.Path, t.args()...)
	cmd.Stdin = bytes.NewReader(img)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w; stderr=%s", err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (t *tesseract) args() []string {
	return []string{"stdin", "stdout", "-l", t.cfg.Languages, "--oem", "1", "--psm", fmt.Sprint(t.cfg.PSM)}
}
