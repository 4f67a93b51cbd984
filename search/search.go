// Package search provides the web search backend used by the web_search
// and fetch_page_content tools.
//
// Information Hiding:
// - Backend request/response formats hidden behind Provider
// - Credential handling: a missing key yields Unconfigured, which never
//   performs I/O
package search

import (
	"context"
	"errors"
	"os"
)

// ErrNotConfigured is returned by Unconfigured for every request.
var ErrNotConfigured = errors.New("search provider credential is not set")

// Result is one search hit. Empty fields mean the backend omitted them.
type Result struct {
	ID    string
	Title string
	URL   string
	Text  string
}

// Page is the retrieved content of one result.
type Page struct {
	ID    string
	Title string
	URL   string
	Text  string
}

// Provider searches the web and retrieves page contents by result ID.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Search returns up to n results for query, in rank order.
	Search(ctx context.Context, query string, n int) ([]Result, error)

	// Contents returns the text of the pages identified by ids.
	Contents(ctx context.Context, ids []string) ([]Page, error)
}

// Unconfigured is the Provider used when no credential is available.
type Unconfigured struct{}

// Search always fails with ErrNotConfigured.
func (Unconfigured) Search(context.Context, string, int) ([]Result, error) {
	return nil, ErrNotConfigured
}

// Contents always fails with ErrNotConfigured.
func (Unconfigured) Contents(context.Context, []string) ([]Page, error) {
	return nil, ErrNotConfigured
}

// EnvAPIKey names the environment variable holding the Exa key.
const EnvAPIKey = "EXA_API_KEY"

// New returns an Exa client for apiKey, or Unconfigured when it is empty.
func New(apiKey string) Provider {
	if apiKey == "" {
		return Unconfigured{}
	}
	return NewExaClient(apiKey)
}

// FromEnv reads the credential once from EXA_API_KEY.
func FromEnv() Provider {
	return New(os.Getenv(EnvAPIKey))
}

var (
	_ Provider = Unconfigured{}
	_ Provider = (*ExaClient)(nil)
)
