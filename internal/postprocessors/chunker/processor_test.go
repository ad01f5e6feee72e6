package chunker

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		p := New()
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})

	t.Run("custom values", func(t *testing.T) {
		p := New(WithChunkSize(500), WithOverlap(100))
		assert.Equal(t, 500, p.ChunkSize())
		assert.Equal(t, 100, p.Overlap())
	})

	t.Run("invalid values ignored", func(t *testing.T) {
		p := New(WithChunkSize(0), WithOverlap(-1))
		assert.Equal(t, DefaultChunkSize, p.ChunkSize())
		assert.Equal(t, DefaultChunkOverlap, p.Overlap())
	})
}

func TestProcessor_Name(t *testing.T) {
	assert.Equal(t, "chunker", New().Name())
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"empty text", "", 20, 5},
		{"whitespace text", " \n\t ", 20, 5},
		{"zero size", "hello", 0, 0},
		{"negative overlap", "hello", 10, -1},
		{"overlap equals size", "hello", 10, 10},
		{"overlap exceeds size", "hello", 10, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := Split(tt.text, tt.size, tt.overlap)
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
			assert.Nil(t, parts)
		})
	}
}

func TestSplit_ShortText(t *testing.T) {
	parts, err := Split("short text", 100, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"short text"}, parts)
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	parts, err := Split("Sentence one. Sentence two. Sentence three.", 20, 5)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Sentence one. ",
		"one. Sentence two. ",
		"two. Sentence three.",
	}, parts)
}

func TestSplit_HardCut(t *testing.T) {
	parts, err := Split("abcdefghijklmnopqrstuvwxyz", 10, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"abcdefghij", "hijklmnopq", "opqrstuvwx", "vwxyz"}, parts)
}

func TestSplit_ZeroOverlap(t *testing.T) {
	parts, err := Split(strings.Repeat("a", 25), 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{strings.Repeat("a", 10), strings.Repeat("a", 10), "aaaaa"}, parts)
}

func TestSplit_PrefersParagraphBreak(t *testing.T) {
	parts, err := Split("First paragraph here.\n\nSecond one follows and is long.", 30, 5)
	require.NoError(t, err)
	require.NotEmpty(t, parts)
	assert.Equal(t, "First paragraph here.\n\n", parts[0])
}

func TestSplit_SentenceBeforeWord(t *testing.T) {
	parts, err := Split("Hi!  How are you? Fine.", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hi!  How ", "w are ", "e you? ", "? Fine."}, parts)
}

func TestSplit_CountsRunes(t *testing.T) {
	parts, err := Split("héllo wörld ünïcode strings", 10, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"héllo ", "o wörld ", "d ünïcode ", "e strings"}, parts)
	for _, part := range parts {
		assert.True(t, utf8.ValidString(part))
	}
}

// Reassembles the input from the chunks by dropping each chunk's
// overlapping head, checking coverage and exact overlap together.
func TestSplit_CoverageAndOverlap(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40) +
		"\n\nA new paragraph starts here! Does it split well? It should."

	for _, cfg := range []struct{ size, overlap int }{
		{20, 5}, {50, 10}, {100, 0}, {200, 199}, {7, 3},
	} {
		parts, err := Split(text, cfg.size, cfg.overlap)
		require.NoError(t, err)
		require.NotEmpty(t, parts)

		var rebuilt []rune
		for i, part := range parts {
			r := []rune(part)
			assert.LessOrEqual(t, len(r), cfg.size)
			if i == 0 {
				rebuilt = append(rebuilt, r...)
				continue
			}
			prev := []rune(parts[i-1])
			require.GreaterOrEqual(t, len(r), cfg.overlap)
			assert.Equal(t, string(prev[len(prev)-cfg.overlap:]), string(r[:cfg.overlap]),
				"chunk %d head should repeat the previous tail", i)
			rebuilt = append(rebuilt, r[cfg.overlap:]...)
		}
		assert.Equal(t, text, string(rebuilt), "size=%d overlap=%d", cfg.size, cfg.overlap)
	}
}

func TestProcessor_Chunk(t *testing.T) {
	p := New(WithChunkSize(20), WithOverlap(5))
	meta := map[string]any{domain.MetadataSource: "notes.pdf"}

	chunks, err := p.Chunk("Sentence one. Sentence two. Sentence three.", meta)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), 20)
		assert.Equal(t, "notes.pdf", c.Metadata[domain.MetadataSource])
	}

	chunks[0].Metadata["extra"] = true
	assert.NotContains(t, meta, "extra")
	assert.NotContains(t, chunks[1].Metadata, "extra")
}

func TestProcessor_Chunk_DropsWhitespaceChunks(t *testing.T) {
	p := New(WithChunkSize(12), WithOverlap(3))

	chunks, err := p.Chunk("   \n\n   Real text here after blank space that goes on.", nil)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	assert.Equal(t, "   Real ", chunks[0].Text)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.NotEmpty(t, strings.TrimSpace(c.Text))
		assert.NotNil(t, c.Metadata)
	}
}

func TestProcessor_Chunk_InvalidOverlap(t *testing.T) {
	p := New(WithChunkSize(10), WithOverlap(10))

	_, err := p.Chunk("some text to split", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}
