package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

type fakeUploads struct {
	name string
	data []byte
	err  error
}

func (f *fakeUploads) Upload(_ context.Context, filename string, data []byte) (*domain.UploadResult, error) {
	f.name, f.data = filename, data
	if f.err != nil {
		return nil, f.err
	}
	return &domain.UploadResult{
		Success:  true,
		Chunks:   2,
		Message:  "PDF processed successfully! Stored 2 text chunks.",
		FileInfo: domain.FileInfo{OriginalName: filename, Size: int64(len(data)), TextLength: 42},
	}, nil
}

type fakeRetrieval struct {
	query string
	topK  int
	err   error
}

func (f *fakeRetrieval) Retrieve(_ context.Context, query string, topK int) ([]domain.RetrievalResult, error) {
	f.query, f.topK = query, topK
	if f.err != nil {
		return nil, f.err
	}
	return []domain.RetrievalResult{{ID: "doc_1", Score: 0.9, Text: "alpha"}}, nil
}

type fakeAnswers struct {
	err error
}

func (f *fakeAnswers) Answer(_ context.Context, question string) (*domain.Answer, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Answer{Response: "answer to " + question}, nil
}

type fakeIndex struct{}

func (fakeIndex) Stats(context.Context) (domain.IndexStats, error) {
	return domain.IndexStats{Name: "pdfs", Dimension: 768, TotalVectors: 10}, nil
}

func newTestRouter(services Services, maxUpload int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(services, maxUpload))
}

func do(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	var body map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func multipartFile(t *testing.T, field, name string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestUpload(t *testing.T) {
	uploads := &fakeUploads{}
	router := newTestRouter(Services{Uploads: uploads}, 0)

	w, body := do(t, router, multipartFile(t, "file", "paper.pdf", []byte("%PDF-1.4 data")))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paper.pdf", uploads.name)
	assert.Equal(t, []byte("%PDF-1.4 data"), uploads.data)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["chunks"])
	info := body["file_info"].(map[string]any)
	assert.Equal(t, "paper.pdf", info["original_name"])
	assert.Equal(t, float64(42), info["text_length"])
}

func TestUpload_Errors(t *testing.T) {
	t.Run("no file", func(t *testing.T) {
		router := newTestRouter(Services{Uploads: &fakeUploads{}}, 0)

		w, body := do(t, router, multipartFile(t, "other", "paper.pdf", []byte("x")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file uploaded", body["error"])
	})

	t.Run("too large", func(t *testing.T) {
		uploads := &fakeUploads{}
		router := newTestRouter(Services{Uploads: uploads}, 8)

		w, body := do(t, router, multipartFile(t, "file", "big.pdf", []byte("0123456789")))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "File too large", body["error"])
		assert.Empty(t, uploads.name)
	})

	t.Run("invalid pdf", func(t *testing.T) {
		router := newTestRouter(Services{Uploads: &fakeUploads{err: domain.InvalidArgument("file is not a PDF")}}, 0)

		w, body := do(t, router, multipartFile(t, "file", "notes.txt", []byte("hello")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, body["error"], "file is not a PDF")
	})

	t.Run("provider failure", func(t *testing.T) {
		err := domain.NewProviderError(domain.ProviderIndex, "upsert", errors.New("status 503"))
		router := newTestRouter(Services{Uploads: &fakeUploads{err: err}}, 0)

		w, body := do(t, router, multipartFile(t, "file", "paper.pdf", []byte("%PDF-")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, body["error"], "index provider: upsert")
	})
}

func TestChat(t *testing.T) {
	router := newTestRouter(Services{Answers: &fakeAnswers{}}, 0)

	w, body := do(t, router, jsonRequest(http.MethodPost, "/api/chat", `{"message":"what is alpha?"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"response": "answer to what is alpha?"}, body)
}

func TestChat_Errors(t *testing.T) {
	tests := []struct {
		name     string
		services Services
		body     string
		status   int
		message  string
	}{
		{"missing message", Services{Answers: &fakeAnswers{}}, `{}`, http.StatusBadRequest, "Message required"},
		{"malformed json", Services{Answers: &fakeAnswers{}}, `{"message":`, http.StatusBadRequest, "Message required"},
		{"no generator", Services{}, `{"message":"hi"}`, http.StatusServiceUnavailable, "not configured"},
		{
			"generation failure",
			Services{Answers: &fakeAnswers{err: domain.NewProviderError(domain.ProviderGeneration, "generateContent", errors.New("boom"))}},
			`{"message":"hi"}`,
			http.StatusInternalServerError,
			"generation provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(tt.services, 0)

			w, body := do(t, router, jsonRequest(http.MethodPost, "/api/chat", tt.body))

			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, body["error"], tt.message)
		})
	}
}

func TestSearch(t *testing.T) {
	retrieval := &fakeRetrieval{}
	router := newTestRouter(Services{Retrieval: retrieval}, 0)

	w, body := do(t, router, jsonRequest(http.MethodPost, "/api/search", `{"query":"alpha","top_k":5}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alpha", retrieval.query)
	assert.Equal(t, 5, retrieval.topK)
	assert.Equal(t, float64(1), body["count"])
	results := body["results"].([]any)
	assert.Equal(t, "alpha", results[0].(map[string]any)["text"])
}

func TestSearch_EmptyQuery(t *testing.T) {
	router := newTestRouter(Services{Retrieval: &fakeRetrieval{err: domain.InvalidArgument("query is empty")}}, 0)

	w, _ := do(t, router, jsonRequest(http.MethodPost, "/api/search", `{"query":""}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIndexStatsAndHealth(t *testing.T) {
	router := newTestRouter(Services{Index: fakeIndex{}}, 0)

	w, body := do(t, router, httptest.NewRequest(http.MethodGet, "/api/index/stats", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pdfs", body["name"])
	assert.Equal(t, float64(10), body["total_vectors"])

	w, body = do(t, router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestCORSMiddleware(t *testing.T) {
	router := newTestRouter(Services{}, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.InvalidArgument("x")))
	assert.Equal(t, http.StatusServiceUnavailable, StatusFor(domain.ErrNotConfigured))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(domain.Internal("no vectors generated")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}
