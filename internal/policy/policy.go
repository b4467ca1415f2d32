// Package policy handles loading, validating, and formatting scoring policies.
package policy

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Polarity states whether higher or lower raw totals are greener.
type Polarity string

const (
	HigherIsBetter Polarity = "higher_is_better"
	LowerIsBetter  Polarity = "lower_is_better"
)

func (p Polarity) Valid() bool {
	switch p {
	case HigherIsBetter, LowerIsBetter:
		return true
	}
	return false
}

// Policy maps each lifestyle category's answers to points, plus the tier
// configuration used to grade the total.
type Policy struct {
	Name        string      `yaml:"name" json:"name"`
	Version     int         `yaml:"version" json:"version"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Polarity    Polarity    `yaml:"polarity" json:"polarity"`
	Categories  []Category  `yaml:"categories" json:"categories"`
	Thresholds  Thresholds  `yaml:"thresholds" json:"thresholds"`
	Tiers       TierLabels  `yaml:"tiers" json:"tiers"`
	Challenges  []Challenge `yaml:"challenges" json:"challenges,omitempty"`
	Badges      []Badge     `yaml:"badges" json:"badges,omitempty"`
}

// Category is one question of the lifestyle form.
type Category struct {
	ID      string   `yaml:"id" json:"id"`
	Label   string   `yaml:"label" json:"label"`
	Options []Option `yaml:"options" json:"options"`
}

// Option is one allowed answer and the points it scores.
type Option struct {
	Value  string `yaml:"value" json:"value"`
	Points int    `yaml:"points" json:"points"`
}

// Thresholds are ascending fractions of the maximum score (t1 < t2 < t3).
type Thresholds struct {
	Developing float64 `yaml:"developing" json:"developing"`
	Good       float64 `yaml:"good" json:"good"`
	Excellent  float64 `yaml:"excellent" json:"excellent"`
}

// TierLabels holds the display text for each tier.
type TierLabels struct {
	Poor       TierLabel `yaml:"poor" json:"poor"`
	Developing TierLabel `yaml:"developing" json:"developing"`
	Good       TierLabel `yaml:"good" json:"good"`
	Excellent  TierLabel `yaml:"excellent" json:"excellent"`
}

// TierLabel is the name and feedback message shown for a tier.
type TierLabel struct {
	Label   string `yaml:"label" json:"label"`
	Message string `yaml:"message" json:"message,omitempty"`
}

// Challenge is an optional action that awards points when acknowledged.
type Challenge struct {
	ID     string `yaml:"id" json:"id"`
	Name   string `yaml:"name" json:"name"`
	Points int    `yaml:"points" json:"points"`
}

// Badge is earned when an answer matches Values, the normalized score reaches
// MinFraction, or both when both are set.
type Badge struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Category    string   `yaml:"category" json:"category,omitempty"`
	Values      []string `yaml:"values" json:"values,omitempty"`
	MinFraction *float64 `yaml:"min_fraction" json:"min_fraction,omitempty"`
}

// Category returns the category with the given ID.
func (p *Policy) Category(id string) (*Category, bool) {
	for i := range p.Categories {
		if p.Categories[i].ID == id {
			return &p.Categories[i], true
		}
	}
	return nil, false
}

// PointsFor returns the points configured for value in category.
func (p *Policy) PointsFor(category, value string) (int, bool) {
	c, ok := p.Category(category)
	if !ok {
		return 0, false
	}
	return c.PointsFor(value)
}

// Domain returns the allowed answers of a category in policy order.
func (p *Policy) Domain(category string) []string {
	c, ok := p.Category(category)
	if !ok {
		return nil
	}
	values := make([]string, len(c.Options))
	for i, o := range c.Options {
		values[i] = o.Value
	}
	return values
}

// MaxPossible is the sum of each category's highest option.
func (p *Policy) MaxPossible() int {
	total := 0
	for _, c := range p.Categories {
		total += c.MaxPoints()
	}
	return total
}

// MinPossible is the sum of each category's lowest option.
func (p *Policy) MinPossible() int {
	total := 0
	for _, c := range p.Categories {
		total += c.MinPoints()
	}
	return total
}

// Challenge returns the challenge with the given ID.
func (p *Policy) Challenge(id string) (Challenge, bool) {
	for _, ch := range p.Challenges {
		if ch.ID == id {
			return ch, true
		}
	}
	return Challenge{}, false
}

// PointsFor returns the points configured for value.
func (c *Category) PointsFor(value string) (int, bool) {
	for _, o := range c.Options {
		if o.Value == value {
			return o.Points, true
		}
	}
	return 0, false
}

// MaxPoints returns the highest option value, or 0 for an empty category.
func (c *Category) MaxPoints() int {
	if len(c.Options) == 0 {
		return 0
	}
	m := c.Options[0].Points
	for _, o := range c.Options[1:] {
		if o.Points > m {
			m = o.Points
		}
	}
	return m
}

// MinPoints returns the lowest option value, or 0 for an empty category.
func (c *Category) MinPoints() int {
	if len(c.Options) == 0 {
		return 0
	}
	m := c.Options[0].Points
	for _, o := range c.Options[1:] {
		if o.Points < m {
			m = o.Points
		}
	}
	return m
}

// InvalidPolicyError reports the validation failures of a policy.
type InvalidPolicyError struct {
	Name   string
	Errors []ValidationError
}

func (e *InvalidPolicyError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("invalid policy %q: %s", e.Name, strings.Join(msgs, "; "))
}

// Parse decodes a YAML policy and validates it.
func Parse(data []byte) (*Policy, error) {
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("policy.Parse: %w", err)
	}
	if errs := Validate(&p); len(errs) > 0 {
		return nil, &InvalidPolicyError{Name: p.Name, Errors: errs}
	}
	return &p, nil
}

// LoadFile reads and validates a policy from a YAML file.
func LoadFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("policy.LoadFile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy.LoadFile: %s: %w", path, err)
	}
	return p, nil
}

// LoadBuiltin loads a built-in policy by name.
func LoadBuiltin(name string) (*Policy, error) {
	data, err := builtinFS.ReadFile("builtin/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("policy.LoadBuiltin: unknown policy %q: %w", name, err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("policy.LoadBuiltin: %w", err)
	}
	return p, nil
}

// Load resolves nameOrPath as a built-in policy name first, then as a file.
func Load(nameOrPath string) (*Policy, error) {
	p, err := LoadBuiltin(nameOrPath)
	if err == nil {
		return p, nil
	}
	var invalid *InvalidPolicyError
	if errors.As(err, &invalid) {
		return nil, err
	}
	if _, statErr := os.Stat(nameOrPath); statErr != nil {
		return nil, fmt.Errorf("policy.Load: %q is neither a built-in policy nor a readable file", nameOrPath)
	}
	return LoadFile(nameOrPath)
}

// List returns the names of all built-in policies.
func List() ([]string, error) {
	entries, err := builtinFS.ReadDir("builtin")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n := e.Name()
		if strings.HasSuffix(n, ".yaml") {
			names = append(names, strings.TrimSuffix(n, ".yaml"))
		}
	}
	sort.Strings(names)
	return names, nil
}

// FormatForPrompt renders the policy into text suitable for the tips prompt.
func FormatForPrompt(p *Policy) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Scoring policy: %s\n\n", p.Name)
	if p.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", strings.TrimSpace(p.Description))
	}

	switch p.Polarity {
	case LowerIsBetter:
		b.WriteString("Lower points are greener.\n\n")
	default:
		b.WriteString("Higher points are greener.\n\n")
	}

	for _, c := range p.Categories {
		label := c.Label
		if label == "" {
			label = c.ID
		}
		fmt.Fprintf(&b, "**%s**\n", label)
		for _, o := range c.Options {
			fmt.Fprintf(&b, "- %s (%d pts)\n", o.Value, o.Points)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Maximum score: %d points\n", p.MaxPossible())
	return b.String()
}
