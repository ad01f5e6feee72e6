package services

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// defaultSource names documents ingested without a source.
const defaultSource = "doc"

// vectorNamespace scopes the content hashes used in vector ids.
var vectorNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/custodia-labs/pdfchat/vectors"))

// documentToken derives a stable 12-character token from document text.
// Re-ingesting the same text under the same source overwrites its vectors.
func documentToken(text string) string {
	id := uuid.NewSHA1(vectorNamespace, []byte(text))
	return strings.ReplaceAll(id.String(), "-", "")[:12]
}

// sourceName returns metadata.source, or defaultSource when absent.
func sourceName(metadata map[string]any) string {
	if s, ok := metadata[domain.MetadataSource].(string); ok {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return defaultSource
}

// vectorID formats the id of the chunk at index.
func vectorID(source, token string, index int) string {
	return source + "_" + token + "_" + strconv.Itoa(index)
}
