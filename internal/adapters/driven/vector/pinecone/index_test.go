package pinecone

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// fakePinecone serves the control and data plane endpoints from one server.
type fakePinecone struct {
	mu        sync.Mutex
	dimension int
	vectors   map[string]wireVector
	upserts   []upsertRequest
	queries   []queryRequest
	failWith  int
	requests  int

	// upsertLimit makes every upsert request after the first upsertLimit fail.
	upsertLimit int
}

func newFakePinecone(t *testing.T, dimension int) (*fakePinecone, *httptest.Server) {
	t.Helper()
	f := &fakePinecone{dimension: dimension, vectors: make(map[string]wireVector)}
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++

		if r.Header.Get("Api-Key") != "pc-test" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHENTICATED","message":"Invalid API Key"}}`))
			return
		}
		assert.Equal(t, apiVersion, r.Header.Get("X-Pinecone-API-Version"))

		if f.failWith != 0 {
			w.WriteHeader(f.failWith)
			_, _ = w.Write([]byte(`{"code":13,"message":"backend unavailable"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/indexes/pdfchat":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":      "pdfchat",
				"dimension": f.dimension,
				"metric":    "cosine",
				"host":      server.URL,
				"status":    map[string]any{"ready": true, "state": "Ready"},
			})
		case "/indexes/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"Resource missing not found"}}`))
		case "/vectors/upsert":
			if f.upsertLimit > 0 && len(f.upserts) >= f.upsertLimit {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"code":13,"message":"backend unavailable"}`))
				return
			}
			var req upsertRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.upserts = append(f.upserts, req)
			for _, v := range req.Vectors {
				f.vectors[v.ID] = v
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"upsertedCount": len(req.Vectors)})
		case "/query":
			var req queryRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			f.queries = append(f.queries, req)
			matches := []map[string]any{
				{"id": "doc_0", "score": 0.91, "metadata": map[string]any{"text": "alpha", "source": "a.pdf", "chunk_index": 0}},
				{"id": "doc_1", "score": 0.85, "metadata": map[string]any{"text": "beta", "source": "a.pdf", "chunk_index": 1}},
				{"id": "doc_2", "score": 0.70, "metadata": map[string]any{"text": "gamma", "source": "a.pdf", "chunk_index": 2}},
			}
			if len(f.vectors) == 0 {
				matches = nil
			}
			if !req.IncludeMetadata {
				for _, m := range matches {
					delete(m, "metadata")
				}
			}
			if len(matches) > req.TopK {
				matches = matches[:req.TopK]
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"matches": matches, "namespace": req.Namespace})
		case "/describe_index_stats":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"namespaces":       map[string]any{"": map[string]any{"vectorCount": len(f.vectors)}},
				"dimension":        f.dimension,
				"indexFullness":    0,
				"totalVectorCount": len(f.vectors),
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)
	return f, server
}

func newTestIndex(t *testing.T, server *httptest.Server, cfg Config) *Index {
	t.Helper()
	if cfg.APIKey == "" {
		cfg.APIKey = "pc-test"
	}
	cfg.ControlPlaneURL = server.URL
	idx, err := NewIndex(context.Background(), cfg)
	require.NoError(t, err)
	return idx
}

func seed(t *testing.T, idx *Index) {
	t.Helper()
	require.NoError(t, idx.Upsert(context.Background(), []domain.IndexedVector{
		{ID: "doc_0", Values: []float32{1, 0, 0}, Payload: map[string]any{"text": "alpha"}},
	}))
}

func TestNewIndex_ResolvesHost(t *testing.T) {
	_, server := newFakePinecone(t, 3)

	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})

	assert.Equal(t, server.URL, idx.host)
	assert.Equal(t, 3, idx.dimension)
}

func TestNewIndex_Errors(t *testing.T) {
	_, server := newFakePinecone(t, 3)
	ctx := context.Background()

	_, err := NewIndex(ctx, Config{IndexName: "pdfchat"})
	assert.Error(t, err, "api key required")

	_, err = NewIndex(ctx, Config{APIKey: "pc-test"})
	assert.Error(t, err, "name or host required")

	_, err = NewIndex(ctx, Config{APIKey: "pc-test", IndexName: "missing", ControlPlaneURL: server.URL})
	assert.True(t, domain.IsProvider(err, domain.ProviderIndex))
	assert.Contains(t, err.Error(), "Resource missing not found")

	_, err = NewIndex(ctx, Config{APIKey: "wrong", IndexName: "pdfchat", ControlPlaneURL: server.URL})
	assert.Contains(t, err.Error(), "Invalid API Key")

	_, err = NewIndex(ctx, Config{APIKey: "pc-test", IndexName: "pdfchat", Dimension: 768, ControlPlaneURL: server.URL})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestUpsert(t *testing.T) {
	fake, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat", Namespace: "docs"})

	err := idx.Upsert(context.Background(), []domain.IndexedVector{
		{ID: "a_0", Values: []float32{1, 0, 0}, Payload: map[string]any{"text": "alpha", "chunk_index": 0}},
		{ID: "a_1", Values: []float32{0, 1, 0}, Payload: map[string]any{"text": "beta", "chunk_index": 1}},
	})
	require.NoError(t, err)

	require.Len(t, fake.upserts, 1)
	req := fake.upserts[0]
	assert.Equal(t, "docs", req.Namespace)
	require.Len(t, req.Vectors, 2)
	assert.Equal(t, "a_0", req.Vectors[0].ID)
	assert.Equal(t, []float32{1, 0, 0}, req.Vectors[0].Values)
	assert.Equal(t, "alpha", req.Vectors[0].Metadata["text"])
}

func TestUpsert_SplitsLargeBatches(t *testing.T) {
	fake, server := newFakePinecone(t, 2)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat", MaxBatch: 2})

	batch := make([]domain.IndexedVector, 5)
	for i := range batch {
		batch[i] = domain.IndexedVector{ID: string(rune('a' + i)), Values: []float32{1, float32(i)}}
	}
	require.NoError(t, idx.Upsert(context.Background(), batch))

	require.Len(t, fake.upserts, 3)
	assert.Len(t, fake.upserts[0].Vectors, 2)
	assert.Len(t, fake.upserts[2].Vectors, 1)
	assert.Len(t, fake.vectors, 5)
}

func TestUpsert_LaterBatchFailure(t *testing.T) {
	fake, server := newFakePinecone(t, 2)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat", MaxBatch: 2})
	fake.upsertLimit = 1

	batch := make([]domain.IndexedVector, 5)
	for i := range batch {
		batch[i] = domain.IndexedVector{ID: string(rune('a' + i)), Values: []float32{1, float32(i)}}
	}
	err := idx.Upsert(context.Background(), batch)

	require.Error(t, err)
	assert.True(t, domain.IsProvider(err, domain.ProviderIndex))
	// Requests stop at the first failure; the earlier request stays written.
	require.Len(t, fake.upserts, 1)
	assert.Len(t, fake.vectors, 2)
	assert.Contains(t, fake.vectors, "a")
	assert.NotContains(t, fake.vectors, "c")
}

func TestUpsert_Validation(t *testing.T) {
	fake, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})
	before := fake.requests

	assert.ErrorIs(t, idx.Upsert(context.Background(), nil), domain.ErrInvalidArgument)
	err := idx.Upsert(context.Background(), []domain.IndexedVector{{ID: "a", Values: []float32{1, 2}}})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Equal(t, before, fake.requests, "invalid batches must not reach the index")
}

func TestUpsert_ProviderError(t *testing.T) {
	fake, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})
	fake.failWith = http.StatusServiceUnavailable

	err := idx.Upsert(context.Background(), []domain.IndexedVector{{ID: "a", Values: []float32{1, 2, 3}}})

	assert.True(t, domain.IsProvider(err, domain.ProviderIndex))
	assert.Contains(t, err.Error(), "status 503: backend unavailable")
}

func TestQuery(t *testing.T) {
	fake, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})
	seed(t, idx)

	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 3, true)
	require.NoError(t, err)

	require.Len(t, results, 3)
	assert.Equal(t, []float64{0.91, 0.85, 0.70}, []float64{results[0].Score, results[1].Score, results[2].Score})
	assert.Equal(t, "alpha", results[0].Text)
	assert.Equal(t, "a.pdf", results[0].Metadata["source"])
	assert.NotContains(t, results[0].Metadata, "text")

	require.Len(t, fake.queries, 1)
	assert.Equal(t, 3, fake.queries[0].TopK)
	assert.True(t, fake.queries[0].IncludeMetadata)
	assert.False(t, fake.queries[0].IncludeValues)
}

func TestQuery_EmptyIndex(t *testing.T) {
	_, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})

	results, err := idx.Query(context.Background(), []float32{1, 0, 0}, 3, true)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestQuery_Validation(t *testing.T) {
	fake, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})
	before := fake.requests

	_, err := idx.Query(context.Background(), []float32{1, 0, 0}, 0, true)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = idx.Query(context.Background(), []float32{1, 0}, 3, true)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	assert.Equal(t, before, fake.requests)
}

func TestQuery_HostOnlyLearnsDimension(t *testing.T) {
	fake, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{Host: server.URL})
	assert.Zero(t, idx.dimension)

	_, err := idx.Query(context.Background(), []float32{1, 0}, 3, true)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, 3, idx.dimension)
	assert.Empty(t, fake.queries)
}

func TestStats(t *testing.T) {
	_, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})
	seed(t, idx)

	stats, err := idx.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pdfchat", stats.Name)
	assert.Equal(t, 3, stats.Dimension)
	assert.Equal(t, 1, stats.TotalVectors)
	assert.Equal(t, map[string]int{"": 1}, stats.Namespaces)
}

func TestQuery_Cancelled(t *testing.T) {
	_, server := newFakePinecone(t, 3)
	idx := newTestIndex(t, server, Config{IndexName: "pdfchat"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := idx.Query(ctx, []float32{1, 0, 0}, 3, true)
	var perr *domain.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.True(t, perr.Cancelled())
}

func TestNormaliseHost(t *testing.T) {
	assert.Equal(t, "", normaliseHost(" "))
	assert.Equal(t, "https://idx-abc.svc.pinecone.io", normaliseHost("idx-abc.svc.pinecone.io"))
	assert.Equal(t, "http://localhost:5080", normaliseHost("http://localhost:5080/"))
}
