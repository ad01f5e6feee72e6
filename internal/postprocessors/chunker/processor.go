// Package chunker splits document text into overlapping, boundary-aware chunks.
package chunker

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = domain.DefaultChunkSize

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = domain.DefaultChunkOverlap

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// Processor splits text into chunks and attaches caller metadata.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
// An overlap that is not smaller than the chunk size is kept as is and
// reported by Chunk.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// ChunkSize returns the configured maximum chunk length.
func (p *Processor) ChunkSize() int { return p.chunkSize }

// Overlap returns the configured overlap length.
func (p *Processor) Overlap() int { return p.overlap }

// Chunk splits text and returns chunks in document order. Chunks that
// contain only whitespace are dropped; the remaining chunks are indexed
// contiguously from zero. Every chunk receives its own copy of metadata.
func (p *Processor) Chunk(text string, metadata map[string]any) ([]domain.Chunk, error) {
	parts, err := Split(text, p.chunkSize, p.overlap)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			Text:     part,
			Index:    len(chunks),
			Metadata: copyMetadata(metadata),
		})
	}
	return chunks, nil
}

// Split cuts text into pieces of at most maxSize characters. Each piece
// after the first starts overlap characters before the end of the
// previous one. Cuts prefer a paragraph break, then a sentence end, then
// whitespace, searching back at most half a chunk from the limit; with
// no boundary in that window the text is cut at the limit.
//
// Lengths are counted in runes.
func Split(text string, maxSize, overlap int) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, domain.InvalidArgument("text is empty")
	}
	if maxSize <= 0 {
		return nil, domain.InvalidArgument("chunk size must be positive, got %d", maxSize)
	}
	if overlap < 0 || overlap >= maxSize {
		return nil, domain.InvalidArgument("chunk overlap %d must be in [0, %d)", overlap, maxSize)
	}

	runes := []rune(text)
	n := len(runes)

	var parts []string
	start := 0
	for {
		if n-start <= maxSize {
			parts = append(parts, string(runes[start:]))
			return parts, nil
		}

		limit := start + maxSize
		// The lower bound keeps every step moving forward past the overlap.
		lo := max(start+overlap+1, limit-maxSize/2)
		end := boundary(runes, lo, limit)

		parts = append(parts, string(runes[start:end]))
		start = end - overlap
	}
}

// boundary returns the best cut position in [lo, limit]. A cut at i
// means the chunk ends just before runes[i].
func boundary(runes []rune, lo, limit int) int {
	for _, match := range []func([]rune, int) bool{paragraphEnd, sentenceEnd, wordEnd} {
		for i := limit; i >= lo; i-- {
			if match(runes, i) {
				return i
			}
		}
	}
	return limit
}

func paragraphEnd(runes []rune, i int) bool {
	return i >= 2 && runes[i-1] == '\n' && runes[i-2] == '\n'
}

func sentenceEnd(runes []rune, i int) bool {
	if i < 2 || !unicode.IsSpace(runes[i-1]) {
		return false
	}
	switch runes[i-2] {
	case '.', '!', '?':
		return true
	}
	return false
}

func wordEnd(runes []rune, i int) bool {
	return i >= 1 && unicode.IsSpace(runes[i-1])
}

func copyMetadata(metadata map[string]any) map[string]any {
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
