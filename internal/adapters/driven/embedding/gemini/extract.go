package gemini

import (
	"errors"

	"github.com/tidwall/gjson"
)

// errNoEmbedding is returned when no extractor matches the response.
var errNoEmbedding = errors.New("response has no recognizable embedding field")

// Extractor locates an embedding inside a provider response.
type Extractor struct {
	// Name identifies the response shape in logs.
	Name string

	// Path is a gjson path that resolves to an array of numbers.
	Path string
}

// DefaultExtractors lists the response shapes the embedding endpoints are
// known to return, in the order they are tried.
var DefaultExtractors = []Extractor{
	{Name: "embedContent", Path: "embedding.values"},
	{Name: "flat", Path: "embedding"},
	{Name: "batchEmbedContents", Path: "embeddings.0.values"},
	{Name: "batch flat", Path: "embeddings.0"},
	{Name: "openai-compatible", Path: "data.0.embedding"},
}

// Extract returns the first non-empty numeric array matched by extractors.
// The name of the matching extractor is returned alongside the vector.
func Extract(body []byte, extractors []Extractor) ([]float32, string, error) {
	if !gjson.ValidBytes(body) {
		return nil, "", errors.New("response is not valid JSON")
	}
	for _, ex := range extractors {
		if values, ok := numbers(gjson.GetBytes(body, ex.Path)); ok {
			return values, ex.Name, nil
		}
	}
	return nil, "", errNoEmbedding
}

// numbers converts a JSON array of numbers. Empty arrays and arrays with
// any non-numeric element are rejected.
func numbers(r gjson.Result) ([]float32, bool) {
	if !r.IsArray() {
		return nil, false
	}
	items := r.Array()
	if len(items) == 0 {
		return nil, false
	}
	values := make([]float32, len(items))
	for i, item := range items {
		if item.Type != gjson.Number {
			return nil, false
		}
		values[i] = float32(item.Float())
	}
	return values, true
}
