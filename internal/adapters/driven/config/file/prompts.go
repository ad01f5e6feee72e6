package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
	"github.com/custodia-labs/pdfchat/internal/core/ports/driven"
	"github.com/custodia-labs/pdfchat/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// builtinPrompts are written to disk the first time they are loaded so
// users have a file to edit.
var builtinPrompts = map[string]string{
	driven.PromptAnswer: domain.DefaultAnswerPrompt,
}

// PromptStore reads prompt templates from <dir>/<name>.txt.
// A file edited while the server runs is picked up on the next Load.
type PromptStore struct {
	dir string

	mu      sync.Mutex
	entries map[string]promptEntry
}

// promptEntry is a cached template and the file state it was read from.
type promptEntry struct {
	text    string
	size    int64
	modTime time.Time
}

// NewPromptStore creates a prompt store rooted at dir.
// An empty dir selects ~/.pdfchat/prompts. Nothing is read or written
// until the first Load.
func NewPromptStore(dir string) (*PromptStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		dir = filepath.Join(home, ".pdfchat", "prompts")
	}
	return &PromptStore{dir: dir, entries: make(map[string]promptEntry)}, nil
}

// Dir returns the prompt directory.
func (s *PromptStore) Dir() string {
	return s.dir
}

// Load returns the template called name. A missing or empty file yields the
// built-in template; a name with neither a file nor a built-in is an error.
func (s *PromptStore) Load(name string) (string, error) {
	builtin, known := builtinPrompts[name]
	path := filepath.Join(s.dir, name+".txt")

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		if !known {
			return "", fmt.Errorf("prompt %q not found in %s", name, s.dir)
		}
		s.materialise(path, builtin)
		return builtin, nil
	}
	if err != nil {
		if known {
			logger.Warn("prompt %q: %v", name, err)
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok && e.size == info.Size() && e.modTime.Equal(info.ModTime()) {
		return e.text, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if known {
			return builtin, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" && known {
		text = builtin
	}
	s.entries[name] = promptEntry{text: text, size: info.Size(), modTime: info.ModTime()}
	return text, nil
}

// Reload drops every cached template.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.entries = make(map[string]promptEntry)
	s.mu.Unlock()
}

// materialise writes a built-in template to path. Failure only costs the
// user an editable copy, so it is logged rather than returned.
func (s *PromptStore) materialise(path, content string) {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		logger.Debug("create prompt directory: %v", err)
		return
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		// Another Load got there first.
		return
	}
	defer f.Close()
	if _, err := f.WriteString(content + "\n"); err != nil {
		logger.Debug("write prompt %s: %v", path, err)
	}
}
