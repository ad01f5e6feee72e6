// Package vector holds validation and ranking shared by the VectorIndex adapters.
package vector

import (
	"math"
	"sort"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// Match is a scored candidate before ranking.
type Match struct {
	ID      string
	Score   float64
	Payload map[string]any
}

// CheckBatch validates an upsert batch against the index dimension and
// returns the dimension of the batch. A dimension of zero means the index
// has not fixed one yet.
func CheckBatch(batch []domain.IndexedVector, dimension int) (int, error) {
	if len(batch) == 0 {
		return 0, domain.InvalidArgument("upsert batch is empty")
	}
	want := dimension
	for i, v := range batch {
		if v.ID == "" {
			return 0, domain.InvalidArgument("vector %d has no id", i)
		}
		if len(v.Values) == 0 {
			return 0, domain.InvalidArgument("vector %q is empty", v.ID)
		}
		if want == 0 {
			want = len(v.Values)
		}
		if len(v.Values) != want {
			return 0, domain.InvalidArgument("vector %q has dimension %d, index expects %d", v.ID, len(v.Values), want)
		}
	}
	return want, nil
}

// CheckQuery validates query arguments against the index dimension.
func CheckQuery(values []float32, topK, dimension int) error {
	if topK <= 0 {
		return domain.InvalidArgument("topK must be positive, got %d", topK)
	}
	if len(values) == 0 {
		return domain.InvalidArgument("query vector is empty")
	}
	if dimension > 0 && len(values) != dimension {
		return domain.InvalidArgument("query vector has dimension %d, index expects %d", len(values), dimension)
	}
	return nil
}

// Cosine returns the cosine similarity of a and b, or 0 if either has zero norm.
// The vectors must have the same length.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Rank orders matches by descending score, then id, and converts the
// first topK into results. Without includeMetadata only id and score are set.
func Rank(matches []Match, topK int, includeMetadata bool) []domain.RetrievalResult {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	results := make([]domain.RetrievalResult, len(matches))
	for i, m := range matches {
		if includeMetadata {
			results[i] = domain.ResultFromPayload(m.ID, m.Score, m.Payload)
		} else {
			results[i] = domain.RetrievalResult{ID: m.ID, Score: m.Score}
		}
	}
	return results
}

// ClonePayload returns a shallow copy of payload.
func ClonePayload(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}
