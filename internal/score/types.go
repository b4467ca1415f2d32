// Package score computes eco-scores from lifestyle answers under a policy.
package score

// Profile holds one answer per policy category, keyed by category ID.
type Profile map[string]string

// Result is the outcome of evaluating a Profile. It is rebuilt on every call.
// Fraction is Total/MaxPossible, complemented for lower-is-better policies
// so that 1 is always the greenest.
type Result struct {
	Policy      string          `json:"policy"`
	PerCategory []CategoryScore `json:"per_category"`
	Total       int             `json:"total"`
	MaxPossible int             `json:"max_possible"`
	Fraction    float64         `json:"fraction"`
	Tier        Tier            `json:"tier"`
	TierLabel   string          `json:"tier_label"`
	Message     string          `json:"message,omitempty"`
	Badges      []Badge         `json:"badges,omitempty"`
}

// CategoryScore is the points scored for one category.
type CategoryScore struct {
	Category string `json:"category"`
	Label    string `json:"label,omitempty"`
	Value    string `json:"value"`
	Points   int    `json:"points"`
	Max      int    `json:"max"`
}

// Badge is a badge earned by a profile.
type Badge struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
