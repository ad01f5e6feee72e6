package driving

import (
	"context"

	"github.com/custodia-labs/pdfchat/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the stored settings layered over the defaults.
	Get() (domain.Settings, error)

	// Set parses value for the named key and persists it.
	// Unknown keys and unparsable values fail with domain.ErrInvalidArgument.
	Set(key, value string) error

	// Keys returns the names of all settable keys.
	Keys() []string

	// Path returns where settings are persisted.
	Path() string

	// Check pings every configured provider and returns one line per provider.
	Check(ctx context.Context, settings domain.Settings) []ProviderCheck
}

// ProviderCheck is the outcome of pinging one provider.
type ProviderCheck struct {
	// Name is "embedding", "index" or "generation".
	Name string

	// Detail describes the provider that was checked.
	Detail string

	// Err is nil when the provider answered.
	Err error
}
