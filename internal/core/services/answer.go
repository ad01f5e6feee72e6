package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// NoResponse is returned when the generator produces empty text.
const NoResponse = "No response generated."

// Ensure AnswerService implements the interfaces.
var (
	_ driving.AnswerService   = (*AnswerService)(nil)
	_ driven.PromptStoreAware = (*AnswerService)(nil)
)

// AnswerService answers questions from retrieved context.
type AnswerService struct {
	retriever driving.RetrievalService
	generator driven.Generator
	prompts   driven.PromptStore
	topK      int
}

// NewAnswerService creates a new answer service.
// topK of zero uses the retriever's default.
func NewAnswerService(retriever driving.RetrievalService, generator driven.Generator, topK int) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		generator: generator,
		topK:      topK,
	}
}

// Answer retrieves context for question and asks the generator for a reply.
func (s *AnswerService) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, domain.InvalidArgument("question is empty")
	}
	if s.generator == nil {
		return nil, fmt.Errorf("%w: generation provider", domain.ErrNotConfigured)
	}

	results, err := s.retriever.Retrieve(ctx, question, s.topK)
	if err != nil {
		return nil, err
	}

	logger.Section("Answer")
	prompt := buildPrompt(s.template(), question, results)
	logger.Debug("Prompt: %d characters from %d snippets", len(prompt), len(results))

	response, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if strings.TrimSpace(response) == "" {
		response = NoResponse
	}

	return &domain.Answer{Response: response, Sources: results}, nil
}

// SetPromptStore lets the answer prompt be customised.
func (s *AnswerService) SetPromptStore(store driven.PromptStore) {
	s.prompts = store
}

// template returns the customised answer prompt when it is usable.
func (s *AnswerService) template() string {
	if s.prompts == nil {
		return domain.DefaultAnswerPrompt
	}
	tmpl, err := s.prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("answer prompt: %v; using built-in prompt", err)
		return domain.DefaultAnswerPrompt
	}
	if strings.Count(tmpl, "%s") != 2 {
		logger.Warn("answer prompt must contain two %%s placeholders; using built-in prompt")
		return domain.DefaultAnswerPrompt
	}
	return tmpl
}

// BuildPrompt joins the snippet texts with blank lines and frames them
// with the question.
func BuildPrompt(question string, results []domain.RetrievalResult) string {
	return buildPrompt(domain.DefaultAnswerPrompt, question, results)
}

func buildPrompt(tmpl, question string, results []domain.RetrievalResult) string {
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Text
	}
	return fmt.Sprintf(tmpl, strings.Join(texts, "\n\n"), question)
}
