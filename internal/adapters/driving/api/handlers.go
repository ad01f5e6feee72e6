// Package api is the HTTP route layer: PDF upload, chat, search and index stats.
package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Services are the core services the routes call.
// Answers may be nil when no generation provider is configured.
type Services struct {
	Uploads   driving.UploadService
	Retrieval driving.RetrievalService
	Answers   driving.AnswerService
	Index     driving.IndexService
}

// Handler serves the /api routes.
type Handler struct {
	services       Services
	maxUploadBytes int64
}

// NewHandler creates a handler. maxUploadBytes <= 0 uses the default limit.
func NewHandler(services Services, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = domain.DefaultMaxUploadBytes
	}
	return &Handler{services: services, maxUploadBytes: maxUploadBytes}
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

// RegisterRoutes mounts the API under group.
func (h *Handler) RegisterRoutes(group gin.IRouter) {
	group.POST("/upload", h.Upload)
	group.POST("/chat", h.Chat)
	group.POST("/search", h.Search)
	group.GET("/index/stats", h.IndexStats)
	group.GET("/health", h.Health)
}

// Upload handles POST /api/upload with a multipart "file" field.
func (h *Handler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if header.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxUploadBytes+1))
	if err != nil {
		h.fail(c, err)
		return
	}

	result, err := h.services.Uploads.Upload(c.Request.Context(), header.Filename, data)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Chat handles POST /api/chat.
func (h *Handler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message required"})
		return
	}
	if h.services.Answers == nil {
		h.fail(c, domain.ErrNotConfigured)
		return
	}

	answer, err := h.services.Answers.Answer(c.Request.Context(), req.Message)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": answer.Response})
}

// Search handles POST /api/search and returns the ranked snippets.
func (h *Handler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.services.Retrieval.Retrieve(c.Request.Context(), req.Query, req.TopK)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// IndexStats handles GET /api/index/stats.
func (h *Handler) IndexStats(c *gin.Context) {
	stats, err := h.services.Index.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Health handles GET /api/health.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// fail writes err with the status matching its kind.
func (h *Handler) fail(c *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor maps a core error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
