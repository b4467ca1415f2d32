package policy

import "fmt"

// MaxOptionPoints bounds the points a single answer may score.
const MaxOptionPoints = 100

// ValidationError describes a single policy violation.
type ValidationError struct {
	Path    string
	Message string
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Policy for structural validity. A policy that passes can
// be evaluated without any answer silently scoring zero.
func Validate(p *Policy) []ValidationError {
	var errs []ValidationError

	if p.Name == "" {
		errs = append(errs, ValidationError{"name", "required"})
	}
	if !p.Polarity.Valid() {
		errs = append(errs, ValidationError{"polarity", fmt.Sprintf("must be %q or %q, got %q", HigherIsBetter, LowerIsBetter, p.Polarity)})
	}
	if len(p.Categories) == 0 {
		errs = append(errs, ValidationError{"categories", "at least one category required"})
	}

	categoryIDs := make(map[string]bool)
	for i, c := range p.Categories {
		prefix := fmt.Sprintf("categories[%d]", i)
		if c.ID == "" {
			errs = append(errs, ValidationError{prefix + ".id", "required"})
		} else if categoryIDs[c.ID] {
			errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate ID: %q", c.ID)})
		} else {
			categoryIDs[c.ID] = true
		}
		if len(c.Options) == 0 {
			errs = append(errs, ValidationError{prefix + ".options", "at least one option required"})
		}
		values := make(map[string]bool)
		for j, o := range c.Options {
			op := fmt.Sprintf("%s.options[%d]", prefix, j)
			if o.Value == "" {
				errs = append(errs, ValidationError{op + ".value", "required"})
			} else if values[o.Value] {
				errs = append(errs, ValidationError{op + ".value", fmt.Sprintf("duplicate value: %q", o.Value)})
			} else {
				values[o.Value] = true
			}
			if o.Points < 0 || o.Points > MaxOptionPoints {
				errs = append(errs, ValidationError{op + ".points", fmt.Sprintf("must be in [0, %d], got %d", MaxOptionPoints, o.Points)})
			}
		}
	}
	if len(p.Categories) > 0 && p.MaxPossible() <= 0 {
		errs = append(errs, ValidationError{"categories", "maximum possible score must be positive"})
	}

	errs = append(errs, validateThresholds(p.Thresholds)...)

	challengeIDs := make(map[string]bool)
	for i, ch := range p.Challenges {
		prefix := fmt.Sprintf("challenges[%d]", i)
		if ch.ID == "" {
			errs = append(errs, ValidationError{prefix + ".id", "required"})
		} else if challengeIDs[ch.ID] {
			errs = append(errs, ValidationError{prefix + ".id", fmt.Sprintf("duplicate ID: %q", ch.ID)})
		} else {
			challengeIDs[ch.ID] = true
		}
		if ch.Points <= 0 {
			errs = append(errs, ValidationError{prefix + ".points", "must be > 0"})
		}
	}

	for i, b := range p.Badges {
		errs = append(errs, validateBadge(p, fmt.Sprintf("badges[%d]", i), b)...)
	}

	return errs
}

func validateThresholds(t Thresholds) []ValidationError {
	var errs []ValidationError
	if t.Developing <= 0 {
		errs = append(errs, ValidationError{"thresholds.developing", "must be > 0"})
	}
	if t.Good <= t.Developing {
		errs = append(errs, ValidationError{"thresholds.good", "must be greater than thresholds.developing"})
	}
	if t.Excellent <= t.Good {
		errs = append(errs, ValidationError{"thresholds.excellent", "must be greater than thresholds.good"})
	}
	if t.Excellent > 1 {
		errs = append(errs, ValidationError{"thresholds.excellent", "must be <= 1"})
	}
	return errs
}

func validateBadge(p *Policy, prefix string, b Badge) []ValidationError {
	var errs []ValidationError
	if b.ID == "" {
		errs = append(errs, ValidationError{prefix + ".id", "required"})
	}
	if b.Category == "" && b.MinFraction == nil {
		errs = append(errs, ValidationError{prefix, "needs a category or min_fraction"})
	}
	if b.MinFraction != nil && (*b.MinFraction < 0 || *b.MinFraction > 1) {
		errs = append(errs, ValidationError{prefix + ".min_fraction", "must be in [0, 1]"})
	}
	if b.Category == "" {
		return errs
	}
	c, ok := p.Category(b.Category)
	if !ok {
		errs = append(errs, ValidationError{prefix + ".category", fmt.Sprintf("unknown category: %q", b.Category)})
		return errs
	}
	if len(b.Values) == 0 {
		errs = append(errs, ValidationError{prefix + ".values", "at least one value required with a category"})
	}
	for j, v := range b.Values {
		if _, ok := c.PointsFor(v); !ok {
			errs = append(errs, ValidationError{fmt.Sprintf("%s.values[%d]", prefix, j), fmt.Sprintf("%q is not an option of %q", v, c.ID)})
		}
	}
	return errs
}
