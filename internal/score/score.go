package score

import (
	"sort"

	"github.com/dshills/ecoscore/internal/policy"
)

// Evaluate scores a profile under p. Every policy category must be answered
// with one of its options and every answer must belong to a policy category;
// otherwise an *UnknownCategoryValueError is returned and no partial result.
func Evaluate(profile Profile, p *policy.Policy) (Result, error) {
	fields := make([]string, 0, len(profile))
	for field := range profile {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		if _, ok := p.Category(field); !ok {
			return Result{}, &UnknownCategoryValueError{Field: field, Value: profile[field]}
		}
	}

	per := make([]CategoryScore, 0, len(p.Categories))
	total := 0
	for i := range p.Categories {
		c := &p.Categories[i]
		value := profile[c.ID]
		points, ok := c.PointsFor(value)
		if !ok {
			return Result{}, &UnknownCategoryValueError{Field: c.ID, Value: value}
		}
		per = append(per, CategoryScore{
			Category: c.ID,
			Label:    c.Label,
			Value:    value,
			Points:   points,
			Max:      c.MaxPoints(),
		})
		total += points
	}

	maxPossible := p.MaxPossible()
	fraction := Normalize(total, maxPossible, p.Polarity)
	tier := TierFor(fraction, p.Thresholds)
	label := labelFor(tier, p.Tiers)

	return Result{
		Policy:      p.Name,
		PerCategory: per,
		Total:       total,
		MaxPossible: maxPossible,
		Fraction:    fraction,
		Tier:        tier,
		TierLabel:   label.Label,
		Message:     label.Message,
		Badges:      earnedBadges(profile, fraction, p.Badges),
	}, nil
}

// Normalize maps total onto [0, 1] with 1 the greenest end for the polarity.
func Normalize(total, maxPossible int, polarity policy.Polarity) float64 {
	if maxPossible <= 0 {
		return 0
	}
	raw := float64(total) / float64(maxPossible)
	if polarity == policy.LowerIsBetter {
		return 1 - raw
	}
	return raw
}

// TierFor buckets a normalized fraction using ascending thresholds.
func TierFor(fraction float64, t policy.Thresholds) Tier {
	switch {
	case fraction >= t.Excellent:
		return TierExcellent
	case fraction >= t.Good:
		return TierGood
	case fraction >= t.Developing:
		return TierDeveloping
	default:
		return TierPoor
	}
}

func labelFor(tier Tier, labels policy.TierLabels) policy.TierLabel {
	var l policy.TierLabel
	switch tier {
	case TierExcellent:
		l = labels.Excellent
	case TierGood:
		l = labels.Good
	case TierDeveloping:
		l = labels.Developing
	default:
		l = labels.Poor
	}
	if l.Label == "" {
		l.Label = defaultLabel(tier)
	}
	return l
}

func defaultLabel(tier Tier) string {
	switch tier {
	case TierExcellent:
		return "Excellent"
	case TierGood:
		return "Good"
	case TierDeveloping:
		return "Developing"
	default:
		return "Poor"
	}
}

func earnedBadges(profile Profile, fraction float64, badges []policy.Badge) []Badge {
	var earned []Badge
	for _, b := range badges {
		if badgeEarned(profile, fraction, b) {
			earned = append(earned, Badge{ID: b.ID, Name: b.Name})
		}
	}
	return earned
}

func badgeEarned(profile Profile, fraction float64, b policy.Badge) bool {
	if b.MinFraction != nil && fraction < *b.MinFraction {
		return false
	}
	if b.Category == "" {
		return b.MinFraction != nil
	}
	answer := profile[b.Category]
	for _, v := range b.Values {
		if v == answer {
			return true
		}
	}
	return false
}
