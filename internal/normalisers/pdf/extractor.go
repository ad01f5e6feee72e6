// Package pdf extracts plain text from PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.TextExtractor = (*Extractor)(nil)

// MIMEType is the only type the extractor handles.
const MIMEType = "application/pdf"

var magic = []byte("%PDF-")

// Extractor reads the text layer of a PDF held in memory.
type Extractor struct{}

// New creates a new PDF text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{MIMEType}
}

// Extract returns the plain text of every page in order.
// Data that is not a readable PDF fails with domain.ErrInvalidArgument.
func (e *Extractor) Extract(ctx context.Context, data []byte) (text string, err error) {
	if !IsPDF(data) {
		return "", domain.InvalidArgument("file is not a PDF")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", domain.InvalidArgument("unreadable PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", domain.InvalidArgument("unreadable PDF: %v", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read PDF text: %w", err)
	}

	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read PDF text: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// IsPDF reports whether data starts with the PDF header.
func IsPDF(data []byte) bool {
	return bytes.HasPrefix(data, magic)
}
