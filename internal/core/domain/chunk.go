package domain

// Payload keys written by the ingestion pipeline.
const (
	// PayloadText holds the chunk text inside an IndexedVector payload.
	PayloadText = "text"

	// PayloadChunkIndex holds the zero-based chunk position within its document.
	PayloadChunkIndex = "chunk_index"

	// PayloadChunkLength holds the chunk length in Unicode code points.
	PayloadChunkLength = "chunk_length"

	// MetadataSource names the origin of a document (for example the filename).
	MetadataSource = "source"

	// MetadataUploadedAt is the RFC 3339 upload timestamp.
	MetadataUploadedAt = "uploaded_at"

	// MetadataFileSize is the size in bytes of the uploaded file.
	MetadataFileSize = "file_size"
)

// Chunk is a contiguous substring of a source document prepared for embedding.
type Chunk struct {
	// Text is the chunk content.
	Text string

	// Index is the zero-based position within the document.
	Index int

	// Metadata carries the caller-supplied source metadata.
	Metadata map[string]any
}

// IndexedVector is the persisted unit of a vector index.
// It is created at upsert time and never mutated.
type IndexedVector struct {
	// ID is unique within the index.
	ID string

	// Values is the embedding. All vectors in one index share its length.
	Values []float32

	// Payload holds at minimum the chunk text and its source metadata.
	Payload map[string]any
}

// Text returns the chunk text stored in the payload.
func (v IndexedVector) Text() string {
	s, _ := v.Payload[PayloadText].(string)
	return s
}

// RetrievalResult is a scored snippet produced by a similarity query.
type RetrievalResult struct {
	// ID is the matched vector id.
	ID string `json:"id"`

	// Score is the similarity; higher is more relevant.
	Score float64 `json:"score"`

	// Text is the stored chunk text.
	Text string `json:"text"`

	// Metadata is the payload minus the text.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ResultFromPayload splits a payload into a RetrievalResult.
// The payload map is not modified.
func ResultFromPayload(id string, score float64, payload map[string]any) RetrievalResult {
	result := RetrievalResult{ID: id, Score: score}
	if len(payload) == 0 {
		return result
	}
	meta := make(map[string]any, len(payload))
	for k, v := range payload {
		if k == PayloadText {
			if s, ok := v.(string); ok {
				result.Text = s
			}
			continue
		}
		meta[k] = v
	}
	if len(meta) > 0 {
		result.Metadata = meta
	}
	return result
}

// IndexStats describes the contents of a vector index.
type IndexStats struct {
	// Name is the index name.
	Name string `json:"name"`

	// Dimension is the configured vector length (0 when not yet known).
	Dimension int `json:"dimension"`

	// TotalVectors is the number of stored vectors.
	TotalVectors int `json:"total_vectors"`

	// Namespaces maps namespace names to vector counts.
	Namespaces map[string]int `json:"namespaces,omitempty"`
}
