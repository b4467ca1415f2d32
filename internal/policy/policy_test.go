package policy

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const validYAML = `
name: test
version: 1
polarity: higher_is_better
categories:
  - id: transport
    options:
      - {value: Car, points: 1}
      - {value: BusTrain, points: 2}
      - {value: BikeWalk, points: 3}
  - id: diet
    options:
      - {value: Daily, points: 1}
      - {value: Weekly, points: 2}
      - {value: Never, points: 3}
  - id: energy
    options:
      - {value: Regular, points: 1}
      - {value: Renewable, points: 3}
thresholds: {developing: 0.44, good: 0.67, excellent: 0.78}
challenges:
  - {id: bus, name: Bus Day, points: 2}
`

func TestLoadBuiltinAll(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p, err := LoadBuiltin(name)
			if err != nil {
				t.Fatalf("LoadBuiltin(%q): %v", name, err)
			}
			if p.Name != name {
				t.Errorf("policy name = %q, want %q", p.Name, name)
			}
			if len(p.Categories) == 0 {
				t.Error("policy has no categories")
			}
			if p.Tiers.Excellent.Label == "" {
				t.Error("excellent tier has no label")
			}
		})
	}
}

func TestLoadBuiltinNotFound(t *testing.T) {
	_, err := LoadBuiltin("nonexistent")
	if err == nil {
		t.Error("expected error for unknown policy")
	}
}

func TestList(t *testing.T) {
	names, err := List()
	if err != nil {
		t.Fatal(err)
	}
	required := map[string]bool{"ecogame": false, "greenscore": false}
	for _, n := range names {
		required[n] = true
	}
	for name, found := range required {
		if !found {
			t.Errorf("missing required policy: %s", name)
		}
	}
}

func TestBuiltinPolarity(t *testing.T) {
	eco, err := LoadBuiltin("ecogame")
	if err != nil {
		t.Fatal(err)
	}
	if eco.Polarity != HigherIsBetter {
		t.Errorf("ecogame polarity = %q", eco.Polarity)
	}
	if eco.MaxPossible() != 9 {
		t.Errorf("ecogame MaxPossible = %d, want 9", eco.MaxPossible())
	}

	green, err := LoadBuiltin("greenscore")
	if err != nil {
		t.Fatal(err)
	}
	if green.Polarity != LowerIsBetter {
		t.Errorf("greenscore polarity = %q", green.Polarity)
	}
	if green.MaxPossible() != 11 {
		t.Errorf("greenscore MaxPossible = %d, want 11", green.MaxPossible())
	}
	if green.MinPossible() != 3 {
		t.Errorf("greenscore MinPossible = %d, want 3", green.MinPossible())
	}
}

func TestParseAndLookups(t *testing.T) {
	p, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}

	if got, ok := p.PointsFor("transport", "BikeWalk"); !ok || got != 3 {
		t.Errorf("PointsFor(transport, BikeWalk) = %d, %v", got, ok)
	}
	if _, ok := p.PointsFor("transport", "Spaceship"); ok {
		t.Error("expected Spaceship to be unmapped")
	}
	if _, ok := p.PointsFor("commute", "Car"); ok {
		t.Error("expected unknown category to be unmapped")
	}

	domain := p.Domain("energy")
	if len(domain) != 2 || domain[0] != "Regular" || domain[1] != "Renewable" {
		t.Errorf("Domain(energy) = %v", domain)
	}
	if p.Domain("nope") != nil {
		t.Error("expected nil domain for unknown category")
	}

	if p.MaxPossible() != 9 {
		t.Errorf("MaxPossible = %d, want 9", p.MaxPossible())
	}

	ch, ok := p.Challenge("bus")
	if !ok || ch.Points != 2 {
		t.Errorf("Challenge(bus) = %+v, %v", ch, ok)
	}
}

func TestMaxPossibleFollowsPolicy(t *testing.T) {
	p, err := Parse([]byte(validYAML))
	if err != nil {
		t.Fatal(err)
	}
	p.Categories[2].Options[1].Points = 5
	if p.MaxPossible() != 11 {
		t.Errorf("MaxPossible after edit = %d, want 11", p.MaxPossible())
	}
}

func TestParseInvalid(t *testing.T) {
	data := strings.Replace(validYAML, "polarity: higher_is_better", "polarity: sideways", 1)
	_, err := Parse([]byte(data))
	var invalid *InvalidPolicyError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidPolicyError, got %T: %v", err, err)
	}
	if len(invalid.Errors) != 1 || invalid.Errors[0].Path != "polarity" {
		t.Errorf("unexpected errors: %v", invalid.Errors)
	}
}

func TestParseMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("name: [unclosed")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestLoadFileAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte(validYAML), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "test" {
		t.Errorf("name = %q", p.Name)
	}

	p, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "test" {
		t.Errorf("Load(path) name = %q", p.Name)
	}

	p, err = Load("ecogame")
	if err != nil {
		t.Fatal(err)
	}
	if p.Name != "ecogame" {
		t.Errorf("Load(builtin) name = %q", p.Name)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing policy")
	}
}

func TestFormatForPrompt(t *testing.T) {
	p, err := LoadBuiltin("greenscore")
	if err != nil {
		t.Fatal(err)
	}

	text := FormatForPrompt(p)

	checks := []string{
		"## Scoring policy: greenscore",
		"Lower points are greener.",
		"**Transportation**",
		"- Bike/Walk (1 pts)",
		"Maximum score: 11 points",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("prompt text missing %q", want)
		}
	}
}
