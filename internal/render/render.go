// Package render produces human-readable output from a score result.
package render

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/score"
)

// Markdown renders a result, with optional tips, as a Markdown report.
func Markdown(r *score.Result, tips []string) string {
	var b strings.Builder

	b.WriteString("# Eco Score\n\n")
	fmt.Fprintf(&b, "**Policy:** %s\n", r.Policy)
	fmt.Fprintf(&b, "**Total:** %d / %d\n", r.Total, r.MaxPossible)
	fmt.Fprintf(&b, "**Tier:** %s (%s)\n\n", r.TierLabel, r.Tier)
	if r.Message != "" {
		fmt.Fprintf(&b, "%s\n\n", r.Message)
	}

	b.WriteString("## Breakdown\n\n")
	b.WriteString("| Category | Answer | Points |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, c := range r.PerCategory {
		fmt.Fprintf(&b, "| %s | %s | %d/%d |\n", categoryName(c), c.Value, c.Points, c.Max)
	}
	b.WriteString("\n")

	if len(r.Badges) > 0 {
		b.WriteString("## Badges\n\n")
		for _, badge := range r.Badges {
			fmt.Fprintf(&b, "- %s\n", badge.Name)
		}
		b.WriteString("\n")
	}

	if len(tips) > 0 {
		b.WriteString("## Tips\n\n")
		for _, t := range tips {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Text renders a compact terminal report. Tier names are colored when
// colored is true.
func Text(r *score.Result, tips []string, colored bool) string {
	var b strings.Builder

	for _, c := range r.PerCategory {
		fmt.Fprintf(&b, "%-16s %-24s %d/%d\n", categoryName(c)+":", c.Value, c.Points, c.Max)
	}
	fmt.Fprintf(&b, "%-16s %d/%d\n", "Total:", r.Total, r.MaxPossible)
	fmt.Fprintf(&b, "%-16s %s\n", "Tier:", tierColor(r.Tier, colored).Sprint(r.TierLabel))
	if r.Message != "" {
		fmt.Fprintf(&b, "%s\n", r.Message)
	}

	if len(r.Badges) > 0 {
		names := make([]string, len(r.Badges))
		for i, badge := range r.Badges {
			names[i] = badge.Name
		}
		fmt.Fprintf(&b, "%-16s %s\n", "Badges:", strings.Join(names, ", "))
	}

	if len(tips) > 0 {
		b.WriteString("\nTips:\n")
		for _, t := range tips {
			fmt.Fprintf(&b, "  %s\n", t)
		}
	}

	return b.String()
}

// Challenges lists the challenges a policy offers.
func Challenges(p *policy.Policy) string {
	if len(p.Challenges) == 0 {
		return "No challenges configured.\n"
	}
	var b strings.Builder
	for _, ch := range p.Challenges {
		fmt.Fprintf(&b, "%-24s %-24s +%d pts\n", ch.ID, ch.Name, ch.Points)
	}
	return b.String()
}

func categoryName(c score.CategoryScore) string {
	if c.Label != "" {
		return c.Label
	}
	return c.Category
}

func tierColor(t score.Tier, colored bool) *color.Color {
	var c *color.Color
	switch t {
	case score.TierExcellent:
		c = color.New(color.FgGreen, color.Bold)
	case score.TierGood:
		c = color.New(color.FgGreen)
	case score.TierDeveloping:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c
}
