package gcp

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/yungbote/smartstudy-backend/internal/platform/ctxutil"
	"github.com/yungbote/smartstudy-backend/internal/platform/logger"
)

// Document sends page images through a Document AI OCR processor.
type Document interface {
	Recognize(ctx context.Context, img []byte, mimeType string) (string, error)
	Close() error
}

type DocumentConfig struct {
	ProjectID        string
	Location         string
	ProcessorID      string
	ProcessorVersion string
}

type documentService struct {
	log       *logger.Logger
	cfg       DocumentConfig
	docClient *documentai.DocumentProcessorClient
}

func NewDocument(log *logger.Logger, cfg DocumentConfig) (Document, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("documentai: project and processor id required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}
	slog := log.With("service", "gcp.Document")

	// DocumentAI needs a regional endpoint.
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts := clientOptions(option.WithEndpoint(endpoint))
	c, err := documentai.NewDocumentProcessorClient(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("documentai client: %w", err)
	}
	slog.Info("Document AI initialized", "endpoint", endpoint)
	return &documentService{log: slog, cfg: cfg, docClient: c}, nil
}

func (s *documentService) Close() error {
	if s == nil || s.docClient == nil {
		return nil
	}
	return s.docClient.Close()
}

func (s *documentService) Recognize(ctx context.Context, img []byte, mimeType string) (string, error) {
	if len(img) == 0 {
		return "", nil
	}
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	req := &documentaipb.ProcessRequest{
		Name: processorName(s.cfg),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{Content: img, MimeType: mimeType},
		},
	}
	resp, err := s.docClient.ProcessDocument(ctxutil.Default(ctx), req)
	if err != nil {
		return "", fmt.Errorf("documentai ProcessDocument: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return "", nil
	}
	return strings.TrimSpace(resp.Document.Text), nil
}

func processorName(cfg DocumentConfig) string {
	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, cfg.Location, cfg.ProcessorID)
	if cfg.ProcessorVersion != "" {
		name += "/processorVersions/" + cfg.ProcessorVersion
	}
	return name
}
