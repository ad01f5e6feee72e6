package driven

import "context"

// Generator produces text from a prompt. The core treats it as opaque.
type Generator interface {
	// Generate returns the completion for prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the generation model being used.
	ModelName() string

	// Ping validates the provider is reachable and the credentials work.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
