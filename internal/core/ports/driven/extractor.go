package driven

import "context"

// TextExtractor turns the bytes of an uploaded file into plain text.
type TextExtractor interface {
	// Extract returns the text content of data.
	Extract(ctx context.Context, data []byte) (string, error)

	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string
}
