package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure UploadService implements the interface.
var _ driving.UploadService = (*UploadService)(nil)

// UploadService extracts text from uploaded files and ingests it.
type UploadService struct {
	extractor driven.TextExtractor
	ingester  driving.IngestService
	maxBytes  int64
	now       func() time.Time
}

// NewUploadService creates a new upload service.
// A non-positive maxBytes uses domain.DefaultMaxUploadBytes.
func NewUploadService(extractor driven.TextExtractor, ingester driving.IngestService, maxBytes int64) *UploadService {
	if maxBytes <= 0 {
		maxBytes = domain.DefaultMaxUploadBytes
	}
	return &UploadService{
		extractor: extractor,
		ingester:  ingester,
		maxBytes:  maxBytes,
		now:       time.Now,
	}
}

// Upload extracts the text of a file and ingests it with source,
// upload time and size metadata.
func (s *UploadService) Upload(ctx context.Context, filename string, data []byte) (*domain.UploadResult, error) {
	logger.Section("Upload")

	if len(data) == 0 {
		return nil, domain.InvalidArgument("no file uploaded")
	}
	size := int64(len(data))
	if size > s.maxBytes {
		return nil, domain.InvalidArgument("file is %d bytes, limit is %d", size, s.maxBytes)
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}

	text, err := s.extractor.Extract(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	logger.Debug("Extracted %d characters from %q", len(text), name)

	metadata := map[string]any{
		domain.MetadataUploadedAt: s.now().UTC().Format(time.RFC3339),
		domain.MetadataFileSize:   size,
	}
	if name != "" {
		metadata[domain.MetadataSource] = name
	}

	stored, err := s.ingester.Ingest(ctx, text, metadata)
	if err != nil {
		return nil, err
	}

	return &domain.UploadResult{
		Success: true,
		Chunks:  stored,
		Message: fmt.Sprintf("PDF processed successfully! Stored %d text chunks.", stored),
		FileInfo: domain.FileInfo{
			OriginalName: name,
			Size:         size,
			TextLength:   len([]rune(text)),
		},
	}, nil
}
