package tips

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/ecoscore/internal/llm"
	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/score"
)

// DefaultCacheSize is the number of answer sets whose tips are remembered.
const DefaultCacheSize = 128

// ErrUnavailable is returned when no provider is configured.
var ErrUnavailable = errors.New("tips: no provider configured")

// ErrEmpty is returned when the provider answered with nothing but whitespace.
var ErrEmpty = errors.New("tips: provider returned no tips")

// Config configures a Generator.
type Config struct {
	Provider  llm.Provider
	Settings  llm.Settings
	Count     int
	CacheSize int
}

// Generator produces tips and caches them per policy and answer set.
type Generator struct {
	provider llm.Provider
	settings llm.Settings
	count    int
	cache    *lru.Cache[string, []string]
}

// NewGenerator returns a Generator. A nil provider yields a Generator whose
// Suggest always fails with ErrUnavailable.
func NewGenerator(cfg Config) (*Generator, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("tips.NewGenerator: %w", err)
	}
	count := cfg.Count
	if count <= 0 {
		count = DefaultCount
	}
	return &Generator{provider: cfg.Provider, settings: cfg.Settings, count: count, cache: cache}, nil
}

// Available reports whether a provider is configured.
func (g *Generator) Available() bool {
	return g != nil && g.provider != nil
}

// Provider returns the provider name, or "" when none is configured.
func (g *Generator) Provider() string {
	if !g.Available() {
		return ""
	}
	return g.provider.Name()
}

// Suggest returns tips for profile. Errors are for the caller to report as a
// warning.
func (g *Generator) Suggest(ctx context.Context, p *policy.Policy, profile score.Profile) ([]string, error) {
	lines, _, err := g.Fetch(ctx, p, profile)
	return lines, err
}

// Fetch is Suggest that also reports whether the tips were served from the
// cache without calling the provider.
func (g *Generator) Fetch(ctx context.Context, p *policy.Policy, profile score.Profile) ([]string, bool, error) {
	if !g.Available() {
		return nil, false, ErrUnavailable
	}

	key := cacheKey(p, profile)
	if cached, ok := g.cache.Get(key); ok {
		return append([]string(nil), cached...), true, nil
	}

	text, err := g.provider.Generate(ctx, BuildPrompt(p, profile, g.count), g.settings)
	if err != nil {
		return nil, false, fmt.Errorf("tips: %s: %w", g.provider.Name(), err)
	}
	lines := Clean(text)
	if len(lines) == 0 {
		return nil, false, ErrEmpty
	}
	g.cache.Add(key, lines)
	return append([]string(nil), lines...), false, nil
}

func cacheKey(p *policy.Policy, profile score.Profile) string {
	keys := make([]string, 0, len(profile))
	for k := range profile {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "%s@%d", p.Name, p.Version)
	for _, k := range keys {
		fmt.Fprintf(&b, "\x00%s=%s", k, profile[k])
	}
	return b.String()
}
