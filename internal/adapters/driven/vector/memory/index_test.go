package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

func vec(id, text string, values ...float32) domain.IndexedVector {
	return domain.IndexedVector{
		ID:      id,
		Values:  values,
		Payload: map[string]any{domain.PayloadText: text, domain.MetadataSource: "test.pdf"},
	}
}

func TestIndex_UpsertAndQuery(t *testing.T) {
	idx := NewIndex("", 0)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexedVector{
		vec("x", "east", 1, 0),
		vec("y", "north", 0, 1),
		vec("xy", "north-east", 1, 1),
	}))

	results, err := idx.Query(ctx, []float32{1, 0.1}, 2, true)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].ID)
	assert.Equal(t, "east", results[0].Text)
	assert.Equal(t, "test.pdf", results[0].Metadata[domain.MetadataSource])
	assert.Equal(t, "xy", results[1].ID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestIndex_LastWriteWins(t *testing.T) {
	idx := NewIndex("test", 2)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexedVector{vec("doc_0", "first payload", 1, 0)}))
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedVector{vec("doc_0", "second payload", 0, 1)}))

	results, err := idx.Query(ctx, []float32{1, 0}, 10, true)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "second payload", results[0].Text)

	stats, err := idx.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalVectors)
}

func TestIndex_EmptyIndex(t *testing.T) {
	results, err := NewIndex("test", 3).Query(context.Background(), []float32{1, 2, 3}, 3, true)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestIndex_Validation(t *testing.T) {
	idx := NewIndex("test", 2)
	ctx := context.Background()

	assert.ErrorIs(t, idx.Upsert(ctx, nil), domain.ErrInvalidArgument)
	assert.ErrorIs(t, idx.Upsert(ctx, []domain.IndexedVector{vec("a", "t", 1, 2, 3)}), domain.ErrInvalidArgument)

	_, err := idx.Query(ctx, []float32{1, 2}, 0, true)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	_, err = idx.Query(ctx, []float32{1, 2, 3}, 1, true)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestIndex_InvalidBatchWritesNothing(t *testing.T) {
	idx := NewIndex("test", 0)
	ctx := context.Background()

	err := idx.Upsert(ctx, []domain.IndexedVector{vec("a", "ok", 1, 2), vec("b", "bad", 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	stats, _ := idx.Stats(ctx)
	assert.Zero(t, stats.TotalVectors)
	assert.Zero(t, stats.Dimension)
}

func TestIndex_FixesDimensionOnFirstUpsert(t *testing.T) {
	idx := NewIndex("test", 0)
	ctx := context.Background()

	require.NoError(t, idx.Upsert(ctx, []domain.IndexedVector{vec("a", "t", 1, 2, 3)}))

	stats, _ := idx.Stats(ctx)
	assert.Equal(t, 3, stats.Dimension)
	assert.ErrorIs(t, idx.Upsert(ctx, []domain.IndexedVector{vec("b", "t", 1, 2)}), domain.ErrInvalidArgument)
}

func TestIndex_WithoutMetadata(t *testing.T) {
	idx := NewIndex("test", 0)
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedVector{vec("a", "text", 1, 0)}))

	results, err := idx.Query(ctx, []float32{1, 0}, 1, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Text)
	assert.Nil(t, results[0].Metadata)
}

func TestIndex_StoresCopies(t *testing.T) {
	idx := NewIndex("test", 0)
	ctx := context.Background()

	v := vec("a", "original", 1, 0)
	require.NoError(t, idx.Upsert(ctx, []domain.IndexedVector{v}))
	v.Values[0] = 0
	v.Payload[domain.PayloadText] = "mutated"

	stored, ok := idx.Get("a")
	require.True(t, ok)
	assert.Equal(t, float32(1), stored.Values[0])
	assert.Equal(t, "original", stored.Text())

	_, ok = idx.Get("missing")
	assert.False(t, ok)
}

func TestIndex_ConcurrentAccess(t *testing.T) {
	idx := NewIndex("test", 2)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = idx.Upsert(ctx, []domain.IndexedVector{vec(string(rune('a'+i)), "t", float32(i), 1)})
		}(i)
		go func() {
			defer wg.Done()
			_, _ = idx.Query(ctx, []float32{1, 1}, 5, true)
		}()
	}
	wg.Wait()

	stats, _ := idx.Stats(ctx)
	assert.Equal(t, 20, stats.TotalVectors)
}
