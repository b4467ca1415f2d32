// Package ledger accumulates challenge points for a single session.
package ledger

import (
	"errors"
	"fmt"
	"sync"
)

// ErrInvalidChallengeAward matches any *InvalidChallengeAwardError.
var ErrInvalidChallengeAward = errors.New("invalid challenge award")

// InvalidChallengeAwardError reports a non-positive point award.
type InvalidChallengeAwardError struct {
	Points int
}

func (e *InvalidChallengeAwardError) Error() string {
	return fmt.Sprintf("invalid challenge award: points must be > 0, got %d", e.Points)
}

func (e *InvalidChallengeAwardError) Is(target error) bool {
	return target == ErrInvalidChallengeAward
}

// CheckAward returns an *InvalidChallengeAwardError unless points > 0.
func CheckAward(points int) error {
	if points <= 0 {
		return &InvalidChallengeAwardError{Points: points}
	}
	return nil
}

// Ledger is a running challenge total. The zero value is an empty ledger and
// is safe for concurrent use.
type Ledger struct {
	mu    sync.Mutex
	total int
}

// Acknowledge adds points and returns the new total. A rejected award leaves
// the total unchanged.
func (l *Ledger) Acknowledge(points int) (int, error) {
	if err := CheckAward(points); err != nil {
		return l.Total(), err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total += points
	return l.total, nil
}

// Reset sets the total back to zero.
func (l *Ledger) Reset() {
	l.mu.Lock()
	l.total = 0
	l.mu.Unlock()
}

// Total returns the current total.
func (l *Ledger) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
