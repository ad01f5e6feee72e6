// Package chat provides the interactive question-and-answer view.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driving"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

// chromeHeight is the number of lines taken by the title, input and help.
const chromeHeight = 5

// AnswerReceived carries the outcome of one question.
type AnswerReceived struct {
	Answer *domain.Answer
	Err    error
}

// turn is one question and its answer.
type turn struct {
	question string
	answer   *domain.Answer
	err      error
}

// Ensure Model implements tea.Model.
var _ tea.Model = (*Model)(nil)

// Model is the chat view: a transcript viewport above a question input.
type Model struct {
	answers driving.AnswerService
	ctx     context.Context

	input    textinput.Model
	viewport viewport.Model

	turns       []turn
	pending     bool
	showSources bool
	ready       bool
}

// New creates a chat view backed by answers.
func New(answers driving.AnswerService) *Model {
	ti := textinput.New()
	ti.Placeholder = "Ask a question about your PDFs..."
	ti.Prompt = "> "
	ti.CharLimit = 1000
	ti.Width = 76
	ti.Focus()

	return &Model{
		answers:  answers,
		ctx:      context.Background(),
		input:    ti,
		viewport: viewport.New(80, 20),
	}
}

// WithContext sets the context passed to the answer service.
func (m *Model) WithContext(ctx context.Context) *Model {
	m.ctx = ctx
	return m
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles window, key and answer messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetDimensions(msg.Width, msg.Height)
		return m, nil

	case AnswerReceived:
		m.pending = false
		if n := len(m.turns); n > 0 {
			m.turns[n-1].answer = msg.Answer
			m.turns[n-1].err = msg.Err
		}
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	//nolint:exhaustive // handling only relevant key types
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit

	case tea.KeyEnter:
		question := strings.TrimSpace(m.input.Value())
		if question == "" || m.pending {
			return m, nil
		}
		m.turns = append(m.turns, turn{question: question})
		m.pending = true
		m.input.Reset()
		m.refresh()
		return m, m.ask(question)

	case tea.KeyCtrlS:
		m.showSources = !m.showSources
		m.refresh()
		return m, nil

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// ask calls the answer service off the UI goroutine.
func (m *Model) ask(question string) tea.Cmd {
	answers, ctx := m.answers, m.ctx
	return func() tea.Msg {
		if answers == nil {
			return AnswerReceived{Err: ErrNoAnswerService}
		}
		answer, err := answers.Answer(ctx, question)
		return AnswerReceived{Answer: answer, Err: err}
	}
}

// refresh re-renders the transcript and scrolls to the latest turn.
func (m *Model) refresh() {
	m.viewport.SetContent(m.Transcript())
	m.viewport.GotoBottom()
}

// Transcript renders every turn.
func (m *Model) Transcript() string {
	if len(m.turns) == 0 {
		return mutedStyle.Render("No questions yet.")
	}

	var b strings.Builder
	for i, t := range m.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(questionStyle.Render("You: " + t.question))
		b.WriteString("\n")

		switch {
		case t.err != nil:
			b.WriteString(errorStyle.Render("Error: " + t.err.Error()))
			b.WriteString("\n")
		case t.answer == nil:
			b.WriteString(mutedStyle.Render("Thinking..."))
			b.WriteString("\n")
		default:
			b.WriteString(t.answer.Response)
			b.WriteString("\n")
			if m.showSources {
				writeSources(&b, t.answer.Sources)
			}
		}
	}
	return b.String()
}

func writeSources(b *strings.Builder, sources []domain.RetrievalResult) {
	for i, s := range sources {
		label := s.ID
		if name, ok := s.Metadata[domain.MetadataSource].(string); ok && name != "" {
			label = name
		}
		b.WriteString(mutedStyle.Render(fmt.Sprintf("  [%d] %s (%.2f)", i+1, label, s.Score)))
		b.WriteString("\n")
	}
}

// View renders the title, transcript, input and key help.
func (m *Model) View() string {
	if !m.ready {
		return "Initialising..."
	}

	help := "enter ask • ctrl+s sources • pgup/pgdn scroll • esc quit"
	if m.pending {
		help = "waiting for answer... • esc quit"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("pdfchat"),
		m.viewport.View(),
		"",
		m.input.View(),
		mutedStyle.Render(help),
	)
}

// SetDimensions sizes the transcript and input to the terminal.
func (m *Model) SetDimensions(width, height int) {
	m.viewport.Width = width
	m.viewport.Height = max(height-chromeHeight, 1)
	m.input.Width = max(width-len(m.input.Prompt)-1, 10)
	m.ready = true
	m.refresh()
}

// Ready reports whether the view has received its dimensions.
func (m *Model) Ready() bool { return m.ready }

// Pending reports whether a question is awaiting its answer.
func (m *Model) Pending() bool { return m.pending }

// Query returns the text currently in the input.
func (m *Model) Query() string { return m.input.Value() }

// Run starts the chat view in the alternate screen and blocks until the user quits.
func Run(ctx context.Context, answers driving.AnswerService) error {
	p := tea.NewProgram(New(answers).WithContext(ctx), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
