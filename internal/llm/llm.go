// Package llm defines the text-generation provider interface and its
// implementations. Providers are best-effort collaborators: callers must be
// able to carry on when one is missing or fails.
package llm

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single provider request.
const DefaultTimeout = 30 * time.Second

// Settings configures the generation request.
type Settings struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Seed        *int
}

// Provider generates text from a prompt.
type Provider interface {
	Generate(ctx context.Context, prompt string, settings Settings) (string, error)
	Name() string
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}
