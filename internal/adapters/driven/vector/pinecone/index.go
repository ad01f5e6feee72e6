// Package pinecone provides a VectorIndex backed by a Pinecone serverless index.
//
// It talks to the Pinecone REST API: the control plane resolves the index
// host and dimension, the data plane serves upsert, query and stats.
package pinecone

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/adapters/driven/vector"
	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultControlPlaneURL = "https://api.pinecone.io"
	DefaultTimeout         = domain.DefaultCallTimeout

	// DefaultMaxBatch keeps each upsert request under Pinecone's 2 MB
	// request limit for 768-dimensional vectors with chunk text metadata.
	DefaultMaxBatch = 100
)

// Config holds configuration for the Pinecone index.
type Config struct {
	// APIKey is the Pinecone API key (required).
	APIKey string

	// IndexName is the index to use. Required unless Host is set.
	IndexName string

	// Host is the data plane host of the index. Resolved from IndexName when empty.
	Host string

	// Namespace partitions the index. Empty uses the default namespace.
	Namespace string

	// Dimension is the expected vector length. Zero is resolved from the index.
	Dimension int

	// ControlPlaneURL is the control plane base URL (default: https://api.pinecone.io).
	ControlPlaneURL string

	// Timeout is the request timeout (default: 60s).
	Timeout time.Duration

	// MaxBatch is the largest number of vectors sent per upsert request (default: 100).
	MaxBatch int
}

// Index is a Pinecone implementation of driven.VectorIndex.
type Index struct {
	client    *http.Client
	apiKey    string
	name      string
	host      string
	namespace string
	maxBatch  int

	mu        sync.Mutex
	dimension int
}

// NewIndex creates a Pinecone index adapter. When cfg.Host is empty the
// control plane is asked for the host and dimension of cfg.IndexName.
func NewIndex(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone: API key is required")
	}
	if cfg.IndexName == "" && cfg.Host == "" {
		return nil, fmt.Errorf("pinecone: index name or host is required")
	}
	if cfg.ControlPlaneURL == "" {
		cfg.ControlPlaneURL = DefaultControlPlaneURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}

	idx := &Index{
		client:    &http.Client{Timeout: cfg.Timeout},
		apiKey:    cfg.APIKey,
		name:      cfg.IndexName,
		host:      normaliseHost(cfg.Host),
		namespace: cfg.Namespace,
		maxBatch:  cfg.MaxBatch,
		dimension: cfg.Dimension,
	}

	if idx.host == "" {
		if err := idx.describe(ctx, strings.TrimRight(cfg.ControlPlaneURL, "/")); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// describe resolves host and dimension from the control plane.
func (i *Index) describe(ctx context.Context, controlPlane string) error {
	var desc describeIndexResponse
	if err := i.do(ctx, http.MethodGet, controlPlane+"/indexes/"+i.name, nil, &desc); err != nil {
		return i.fail("describe_index", err)
	}
	if desc.Host == "" {
		return i.fail("describe_index", fmt.Errorf("index %q has no host (state %q)", i.name, desc.Status.State))
	}
	if !desc.Status.Ready {
		logger.Warn("pinecone index %q is not ready (state %q)", i.name, desc.Status.State)
	}

	i.host = normaliseHost(desc.Host)
	if i.dimension == 0 {
		i.dimension = desc.Dimension
	} else if desc.Dimension != 0 && desc.Dimension != i.dimension {
		return domain.InvalidArgument("pinecone index %q has dimension %d, configured %d",
			i.name, desc.Dimension, i.dimension)
	}
	logger.Debug("pinecone: index %q at %s (dimension %d)", i.name, i.host, i.dimension)
	return nil
}

// Upsert writes the batch. Batches larger than MaxBatch are sent as
// several requests in order; the first failing request aborts the call.
func (i *Index) Upsert(ctx context.Context, batch []domain.IndexedVector) error {
	if len(batch) == 0 {
		return domain.InvalidArgument("upsert batch is empty")
	}
	dim, err := i.knownDimension(ctx)
	if err != nil {
		return err
	}
	if _, err := vector.CheckBatch(batch, dim); err != nil {
		return err
	}

	for start := 0; start < len(batch); start += i.maxBatch {
		end := min(start+i.maxBatch, len(batch))

		req := upsertRequest{Namespace: i.namespace, Vectors: make([]wireVector, 0, end-start)}
		for _, v := range batch[start:end] {
			req.Vectors = append(req.Vectors, wireVector{ID: v.ID, Values: v.Values, Metadata: v.Payload})
		}

		var resp upsertResponse
		if err := i.do(ctx, http.MethodPost, i.host+"/vectors/upsert", req, &resp); err != nil {
			return i.fail("upsert", err)
		}
		if resp.UpsertedCount != len(req.Vectors) {
			logger.Warn("pinecone: upserted %d of %d vectors", resp.UpsertedCount, len(req.Vectors))
		}
	}
	logger.Debug("pinecone: upserted %d vectors", len(batch))
	return nil
}

// Query returns the topK vectors most similar to values.
func (i *Index) Query(
	ctx context.Context, values []float32, topK int, includeMetadata bool,
) ([]domain.RetrievalResult, error) {
	if topK <= 0 {
		return nil, domain.InvalidArgument("topK must be positive, got %d", topK)
	}
	dim, err := i.knownDimension(ctx)
	if err != nil {
		return nil, err
	}
	if err := vector.CheckQuery(values, topK, dim); err != nil {
		return nil, err
	}

	req := queryRequest{
		Vector:          values,
		TopK:            topK,
		IncludeMetadata: includeMetadata,
		Namespace:       i.namespace,
	}
	var resp queryResponse
	if err := i.do(ctx, http.MethodPost, i.host+"/query", req, &resp); err != nil {
		return nil, i.fail("query", err)
	}

	results := make([]domain.RetrievalResult, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		results = append(results, domain.ResultFromPayload(m.ID, m.Score, m.Metadata))
	}
	return results, nil
}

// Stats describes the index contents.
func (i *Index) Stats(ctx context.Context) (domain.IndexStats, error) {
	var resp statsResponse
	if err := i.do(ctx, http.MethodPost, i.host+"/describe_index_stats", struct{}{}, &resp); err != nil {
		return domain.IndexStats{}, i.fail("describe_index_stats", err)
	}

	i.mu.Lock()
	if i.dimension == 0 {
		i.dimension = resp.Dimension
	}
	i.mu.Unlock()

	stats := domain.IndexStats{
		Name:         i.name,
		Dimension:    resp.Dimension,
		TotalVectors: resp.TotalVectorCount,
	}
	if len(resp.Namespaces) > 0 {
		stats.Namespaces = make(map[string]int, len(resp.Namespaces))
		for ns, summary := range resp.Namespaces {
			stats.Namespaces[ns] = summary.VectorCount
		}
	}
	return stats, nil
}

// Close releases resources.
func (i *Index) Close() error {
	i.client.CloseIdleConnections()
	return nil
}

// knownDimension returns the index dimension, asking the index once when
// it was configured by host alone.
func (i *Index) knownDimension(ctx context.Context) (int, error) {
	i.mu.Lock()
	dim := i.dimension
	i.mu.Unlock()
	if dim > 0 {
		return dim, nil
	}
	stats, err := i.Stats(ctx)
	if err != nil {
		return 0, err
	}
	return stats.Dimension, nil
}

func (i *Index) fail(op string, err error) error {
	return domain.NewProviderError(domain.ProviderIndex, op, err)
}

// normaliseHost adds an https scheme to bare hosts.
func normaliseHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}
	return host
}
