package score

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/dshills/ecoscore/internal/policy"
)

func examplePolicy() *policy.Policy {
	return &policy.Policy{
		Name:     "example",
		Polarity: policy.HigherIsBetter,
		Categories: []policy.Category{
			{ID: "transport", Options: []policy.Option{{Value: "Car", Points: 1}, {Value: "BusTrain", Points: 2}, {Value: "BikeWalk", Points: 3}}},
			{ID: "diet", Options: []policy.Option{{Value: "Daily", Points: 1}, {Value: "Weekly", Points: 2}, {Value: "Never", Points: 3}}},
			{ID: "energy", Options: []policy.Option{{Value: "Regular", Points: 1}, {Value: "Renewable", Points: 3}}},
		},
		Thresholds: policy.Thresholds{Developing: 0.44, Good: 0.67, Excellent: 0.78},
		Tiers: policy.TierLabels{
			Excellent: policy.TierLabel{Label: "Eco Champion", Message: "Keep it up"},
		},
	}
}

// allProfiles enumerates every combination of answers the policy accepts.
func allProfiles(p *policy.Policy) []Profile {
	profiles := []Profile{{}}
	for _, c := range p.Categories {
		var next []Profile
		for _, base := range profiles {
			for _, o := range c.Options {
				prof := Profile{}
				for k, v := range base {
					prof[k] = v
				}
				prof[c.ID] = o.Value
				next = append(next, prof)
			}
		}
		profiles = next
	}
	return profiles
}

// --- Enum tests ---

func TestTierValidAndRank(t *testing.T) {
	tiers := []Tier{TierPoor, TierDeveloping, TierGood, TierExcellent}
	for i, tier := range tiers {
		if !tier.Valid() {
			t.Errorf("expected %q to be valid", tier)
		}
		if tier.Rank() != i {
			t.Errorf("%q.Rank() = %d, want %d", tier, tier.Rank(), i)
		}
	}
	if Tier("legendary").Valid() {
		t.Error("expected legendary to be invalid")
	}
	if Tier("legendary").Rank() != -1 {
		t.Error("expected unknown tier rank -1")
	}
	if _, ok := ParseTier("good"); !ok {
		t.Error("ParseTier(good) failed")
	}
}

// --- Evaluate tests ---

func TestEvaluateExamples(t *testing.T) {
	p := examplePolicy()
	tests := []struct {
		name      string
		profile   Profile
		wantTotal int
		wantTier  Tier
		wantLabel string
	}{
		{"greenest", Profile{"transport": "BikeWalk", "diet": "Never", "energy": "Renewable"}, 9, TierExcellent, "Eco Champion"},
		{"least green", Profile{"transport": "Car", "diet": "Daily", "energy": "Regular"}, 3, TierPoor, "Poor"},
		{"developing", Profile{"transport": "BusTrain", "diet": "Weekly", "energy": "Regular"}, 5, TierDeveloping, "Developing"},
		{"good", Profile{"transport": "BikeWalk", "diet": "Never", "energy": "Regular"}, 7, TierGood, "Good"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.profile, p)
			if err != nil {
				t.Fatal(err)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
			if got.MaxPossible != 9 {
				t.Errorf("MaxPossible = %d, want 9", got.MaxPossible)
			}
			if got.Tier != tt.wantTier {
				t.Errorf("Tier = %q, want %q", got.Tier, tt.wantTier)
			}
			if got.TierLabel != tt.wantLabel {
				t.Errorf("TierLabel = %q, want %q", got.TierLabel, tt.wantLabel)
			}
		})
	}
}

func TestEvaluatePerCategoryOrder(t *testing.T) {
	got, err := Evaluate(Profile{"energy": "Renewable", "transport": "Car", "diet": "Weekly"}, examplePolicy())
	if err != nil {
		t.Fatal(err)
	}
	want := []CategoryScore{
		{Category: "transport", Value: "Car", Points: 1, Max: 3},
		{Category: "diet", Value: "Weekly", Points: 2, Max: 3},
		{Category: "energy", Value: "Renewable", Points: 3, Max: 3},
	}
	if !reflect.DeepEqual(got.PerCategory, want) {
		t.Errorf("PerCategory = %+v, want %+v", got.PerCategory, want)
	}
}

func TestEvaluateUnknownValue(t *testing.T) {
	p := examplePolicy()
	tests := []struct {
		name      string
		profile   Profile
		wantField string
		wantValue string
	}{
		{"unknown transport", Profile{"transport": "Spaceship", "diet": "Never", "energy": "Renewable"}, "transport", "Spaceship"},
		{"missing energy", Profile{"transport": "Car", "diet": "Never"}, "energy", ""},
		{"extra category", Profile{"transport": "Car", "diet": "Never", "energy": "Regular", "pets": "Cat"}, "pets", "Cat"},
		{"empty profile", Profile{}, "transport", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.profile, p)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrUnknownCategoryValue) {
				t.Errorf("expected ErrUnknownCategoryValue, got %v", err)
			}
			var uv *UnknownCategoryValueError
			if !errors.As(err, &uv) {
				t.Fatalf("expected *UnknownCategoryValueError, got %T", err)
			}
			if uv.Field != tt.wantField || uv.Value != tt.wantValue {
				t.Errorf("error = %s=%q, want %s=%q", uv.Field, uv.Value, tt.wantField, tt.wantValue)
			}
			if !reflect.DeepEqual(got, Result{}) {
				t.Errorf("expected zero result on error, got %+v", got)
			}
		})
	}
}

func TestUnknownCategoryValueErrorMessage(t *testing.T) {
	err := &UnknownCategoryValueError{Field: "transport", Value: "Spaceship"}
	if err.Error() != `unknown category value: transport="Spaceship"` {
		t.Errorf("unexpected message: %s", err.Error())
	}
	missing := &UnknownCategoryValueError{Field: "diet"}
	if missing.Error() != "unknown category value: diet: no answer given" {
		t.Errorf("unexpected message: %s", missing.Error())
	}
}

func TestEvaluateBoundsAndDeterminism(t *testing.T) {
	for _, name := range []string{"ecogame", "greenscore"} {
		p, err := policy.LoadBuiltin(name)
		if err != nil {
			t.Fatal(err)
		}
		for _, prof := range allProfiles(p) {
			first, err := Evaluate(prof, p)
			if err != nil {
				t.Fatalf("%s: Evaluate(%v): %v", name, prof, err)
			}
			if first.Total < 0 || first.Total > first.MaxPossible {
				t.Errorf("%s: total %d outside [0, %d]", name, first.Total, first.MaxPossible)
			}
			if first.MaxPossible != p.MaxPossible() {
				t.Errorf("%s: MaxPossible %d != policy %d", name, first.MaxPossible, p.MaxPossible())
			}
			second, err := Evaluate(prof, p)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(first, second) {
				t.Errorf("%s: Evaluate not deterministic for %v", name, prof)
			}
		}
	}
}

func TestTierMonotonicInTotal(t *testing.T) {
	p := examplePolicy()
	profiles := allProfiles(p)
	for _, a := range profiles {
		ra, _ := Evaluate(a, p)
		for _, b := range profiles {
			rb, _ := Evaluate(b, p)
			if ra.Total < rb.Total && ra.Tier.Rank() > rb.Tier.Rank() {
				t.Errorf("total %d has tier %s but higher total %d has %s", ra.Total, ra.Tier, rb.Total, rb.Tier)
			}
		}
	}
}

func TestLowerIsBetterPolarity(t *testing.T) {
	p, err := policy.LoadBuiltin("greenscore")
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name      string
		profile   Profile
		wantTotal int
		wantTier  Tier
		wantLabel string
	}{
		{"greenest", Profile{"transport": "Bike/Walk", "diet": "Vegetarian/Vegan", "energy": "Solar/Wind"}, 3, TierExcellent, "Eco Champion"},
		{"six points", Profile{"transport": "Public Transport", "diet": "1-2 times/week", "energy": "Mixed Renewable"}, 6, TierGood, "Green Starter"},
		{"eight points", Profile{"transport": "Car (Carpool)", "diet": "3-4 times/week", "energy": "Mixed Renewable"}, 8, TierDeveloping, "Getting There"},
		{"worst", Profile{"transport": "Car (Alone)", "diet": "Daily", "energy": "Non-Renewable (Grid)"}, 11, TierPoor, "Improvement Needed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.profile, p)
			if err != nil {
				t.Fatal(err)
			}
			if got.Total != tt.wantTotal || got.Tier != tt.wantTier || got.TierLabel != tt.wantLabel {
				t.Errorf("got total=%d tier=%s label=%q, want %d %s %q", got.Total, got.Tier, got.TierLabel, tt.wantTotal, tt.wantTier, tt.wantLabel)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize(3, 9, policy.HigherIsBetter); math.Abs(got-1.0/3.0) > 1e-9 {
		t.Errorf("Normalize higher = %v", got)
	}
	if got := Normalize(3, 9, policy.LowerIsBetter); math.Abs(got-2.0/3.0) > 1e-9 {
		t.Errorf("Normalize lower = %v", got)
	}
	if got := Normalize(3, 0, policy.HigherIsBetter); got != 0 {
		t.Errorf("Normalize zero max = %v", got)
	}
}

func TestTierFor(t *testing.T) {
	th := policy.Thresholds{Developing: 0.44, Good: 0.67, Excellent: 0.78}
	tests := []struct {
		fraction float64
		want     Tier
	}{
		{0, TierPoor},
		{0.43, TierPoor},
		{0.44, TierDeveloping},
		{0.67, TierGood},
		{0.78, TierExcellent},
		{1, TierExcellent},
	}
	for _, tt := range tests {
		if got := TierFor(tt.fraction, th); got != tt.want {
			t.Errorf("TierFor(%v) = %s, want %s", tt.fraction, got, tt.want)
		}
	}
}

func TestBadges(t *testing.T) {
	p, err := policy.LoadBuiltin("greenscore")
	if err != nil {
		t.Fatal(err)
	}
	got, err := Evaluate(Profile{"transport": "Bike/Walk", "diet": "Daily", "energy": "Non-Renewable (Grid)"}, p)
	if err != nil {
		t.Fatal(err)
	}
	// 1+4+3 = 8: too high for Green Novice, but the commute earns a badge.
	want := []Badge{{ID: "public-commuter", Name: "Public Commuter"}}
	if !reflect.DeepEqual(got.Badges, want) {
		t.Errorf("Badges = %+v, want %+v", got.Badges, want)
	}

	got, err = Evaluate(Profile{"transport": "Bike/Walk", "diet": "Vegetarian/Vegan", "energy": "Solar/Wind"}, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Badges) != 4 {
		t.Errorf("expected all 4 badges, got %+v", got.Badges)
	}
}
