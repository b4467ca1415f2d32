package llm

import (
	"context"
	"errors"
	"os"
	"strings"
)

// ErrNoProvider is returned when no provider is configured.
var ErrNoProvider = errors.New("no text-generation provider configured: set ANTHROPIC_API_KEY or OPENAI_API_KEY")

// ResolveProvider selects a provider from the model flag and available API
// keys. "anthropic:" and "openai:" prefixes pick a provider explicitly;
// "claude*" and "gpt*" model names imply one.
func ResolveProvider(modelFlag string) (Provider, error) {
	if modelFlag != "" {
		lower := strings.ToLower(modelFlag)
		switch {
		case strings.HasPrefix(lower, "anthropic:"):
			p, err := NewAnthropic()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag[len("anthropic:"):]}, nil

		case strings.HasPrefix(lower, "claude"):
			p, err := NewAnthropic()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil

		case strings.HasPrefix(lower, "openai:"):
			p, err := NewOpenAI()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag[len("openai:"):]}, nil

		case strings.HasPrefix(lower, "gpt"):
			p, err := NewOpenAI()
			if err != nil {
				return nil, err
			}
			return &modelOverride{Provider: p, model: modelFlag}, nil
		}
	}

	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return NewAnthropic()
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return NewOpenAI()
	}
	return nil, ErrNoProvider
}

// modelOverride wraps a provider to override the model in settings.
type modelOverride struct {
	Provider
	model string
}

func (m *modelOverride) Generate(ctx context.Context, prompt string, s Settings) (string, error) {
	s.Model = m.model
	return m.Provider.Generate(ctx, prompt, s)
}
