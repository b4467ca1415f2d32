// Package tips asks a text-generation provider for eco tips tailored to a
// set of answers. Tips are decoration: nothing in scoring depends on them.
package tips

import (
	"fmt"
	"strings"

	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/score"
)

// DefaultCount is the number of tips requested.
const DefaultCount = 3

// BuildPrompt renders the answers as plain text for the provider.
func BuildPrompt(p *policy.Policy, profile score.Profile, count int) string {
	if count <= 0 {
		count = DefaultCount
	}

	var b strings.Builder
	b.WriteString("You are a friendly sustainability coach. Suggest practical, specific actions that lower the environmental footprint of someone with the habits below.\n\n")

	b.WriteString(policy.FormatForPrompt(p))
	b.WriteString("\n## Habits\n\n")
	for _, c := range p.Categories {
		label := c.Label
		if label == "" {
			label = c.ID
		}
		fmt.Fprintf(&b, "- %s: %s\n", label, profile[c.ID])
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "Give exactly %d tips, one per line. No preamble and no closing remarks.\n", count)
	return b.String()
}

// Clean splits provider output into tips. Surrounding whitespace and blank
// lines are dropped; the text is otherwise passed through untouched.
func Clean(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
