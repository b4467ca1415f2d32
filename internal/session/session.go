// Package session owns the per-visitor state: a challenge ledger and the
// scores saved during the visit. Nothing here outlives the session.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/ecoscore/internal/ledger"
	"github.com/dshills/ecoscore/internal/score"
)

// DefaultHistoryLimit caps the number of saved scores kept per session.
const DefaultHistoryLimit = 100

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Entry is one saved score.
type Entry struct {
	At          time.Time  `json:"at"`
	Policy      string     `json:"policy"`
	Total       int        `json:"total"`
	MaxPossible int        `json:"max_possible"`
	Tier        score.Tier `json:"tier"`
}

// EntryFor records r as saved at the given time.
func EntryFor(r score.Result, at time.Time) Entry {
	return Entry{
		At:          at.UTC(),
		Policy:      r.Policy,
		Total:       r.Total,
		MaxPossible: r.MaxPossible,
		Tier:        r.Tier,
	}
}

// Snapshot is a read-only view of a session.
type Snapshot struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Total     int       `json:"total"`
	History   []Entry   `json:"history"`
}

// Store creates sessions and applies events to them.
type Store interface {
	Create(ctx context.Context) (Snapshot, error)
	Get(ctx context.Context, id string) (Snapshot, error)
	Acknowledge(ctx context.Context, id string, points int) (int, error)
	Reset(ctx context.Context, id string) error
	Save(ctx context.Context, id string, e Entry) error
	Delete(ctx context.Context, id string) error
}

// Session is one visitor's state. The ledger belongs to the session and is
// never shared between sessions.
type Session struct {
	ID        string
	CreatedAt time.Time
	Ledger    *ledger.Ledger

	mu      sync.Mutex
	history []Entry
	limit   int
}

// New returns an empty session with a random ID.
func New(now time.Time, historyLimit int) *Session {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: now.UTC(),
		Ledger:    &ledger.Ledger{},
		limit:     historyLimit,
	}
}

// Save appends e, dropping the oldest entry once the limit is reached.
func (s *Session) Save(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
	if len(s.history) > s.limit {
		s.history = s.history[len(s.history)-s.limit:]
	}
}

// History returns a copy of the saved entries, oldest first.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.history))
	copy(out, s.history)
	return out
}

// Snapshot returns the current state of s.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Total:     s.Ledger.Total(),
		History:   s.History(),
	}
}
