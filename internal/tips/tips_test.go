package tips

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dshills/ecoscore/internal/llm"
	"github.com/dshills/ecoscore/internal/policy"
	"github.com/dshills/ecoscore/internal/score"
)

func loadPolicy(t *testing.T) *policy.Policy {
	t.Helper()
	p, err := policy.LoadBuiltin("ecogame")
	if err != nil {
		t.Fatal(err)
	}
	return p
}

var sampleProfile = score.Profile{"transport": "Car", "diet": "Daily", "energy": "Regular Power"}

func TestBuildPrompt(t *testing.T) {
	text := BuildPrompt(loadPolicy(t), sampleProfile, 0)

	checks := []string{
		"## Scoring policy: ecogame",
		"## Habits",
		"- Transportation: Car",
		"- Meat Consumption: Daily",
		"- Energy Source: Regular Power",
		"Give exactly 3 tips",
	}
	for _, want := range checks {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"only blank lines", "\n  \n\t\n", nil},
		{"trims and drops blanks", "\n  1. Walk more  \n\n2. Eat less meat\n   \n", []string{"1. Walk more", "2. Eat less meat"}},
		{"single line", "Switch to LED bulbs", []string{"Switch to LED bulbs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSuggestCaches(t *testing.T) {
	mock := &llm.MockProvider{Response: "\nTip one\n\nTip two\n"}
	g, err := NewGenerator(Config{Provider: mock})
	if err != nil {
		t.Fatal(err)
	}
	p := loadPolicy(t)

	for i := 0; i < 2; i++ {
		got, err := g.Suggest(context.Background(), p, sampleProfile)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(got, []string{"Tip one", "Tip two"}) {
			t.Errorf("Suggest = %q", got)
		}
	}
	if n := len(mock.Prompts()); n != 1 {
		t.Errorf("provider called %d times, want 1", n)
	}

	other := score.Profile{"transport": "Bike/Walk", "diet": "Daily", "energy": "Regular Power"}
	if _, err := g.Suggest(context.Background(), p, other); err != nil {
		t.Fatal(err)
	}
	if n := len(mock.Prompts()); n != 2 {
		t.Errorf("provider called %d times, want 2", n)
	}
}

func TestSuggestErrors(t *testing.T) {
	p := loadPolicy(t)

	g, err := NewGenerator(Config{})
	if err != nil {
		t.Fatal(err)
	}
	if g.Available() {
		t.Error("expected generator without provider to be unavailable")
	}
	if _, err := g.Suggest(context.Background(), p, sampleProfile); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	boom := errors.New("model exploded")
	g, _ = NewGenerator(Config{Provider: &llm.MockProvider{Err: boom}})
	if _, err := g.Suggest(context.Background(), p, sampleProfile); !errors.Is(err, boom) {
		t.Errorf("expected wrapped provider error, got %v", err)
	}

	g, _ = NewGenerator(Config{Provider: &llm.MockProvider{Response: " \n\n "}})
	if _, err := g.Suggest(context.Background(), p, sampleProfile); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestSuggestReturnsCopy(t *testing.T) {
	g, _ := NewGenerator(Config{Provider: &llm.MockProvider{Response: "a\nb"}})
	p := loadPolicy(t)
	first, _ := g.Suggest(context.Background(), p, sampleProfile)
	first[0] = "mutated"
	second, _ := g.Suggest(context.Background(), p, sampleProfile)
	if second[0] != "a" {
		t.Errorf("cached tips were mutated: %q", second)
	}
}

func TestFetchReportsCacheHit(t *testing.T) {
	mock := &llm.MockProvider{Response: "Tip one"}
	g, err := NewGenerator(Config{Provider: mock})
	if err != nil {
		t.Fatal(err)
	}
	p := loadPolicy(t)

	_, cached, err := g.Fetch(context.Background(), p, sampleProfile)
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("first call should reach the provider")
	}
	got, cached, err := g.Fetch(context.Background(), p, sampleProfile)
	if err != nil {
		t.Fatal(err)
	}
	if !cached {
		t.Error("second call should be served from the cache")
	}
	if !reflect.DeepEqual(got, []string{"Tip one"}) {
		t.Errorf("Fetch = %q", got)
	}
}
