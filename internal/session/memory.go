package session

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dshills/ecoscore/internal/ledger"
)

// DefaultCapacity is the number of live sessions a MemoryStore keeps.
const DefaultCapacity = 1024

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	// Capacity bounds the live sessions; the least recently used session
	// ends when a new one would exceed it.
	Capacity     int
	HistoryLimit int
	// OnEnd is called with the ID of every session that ends, whether
	// deleted or evicted.
	OnEnd func(id string)
	Now   func() time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	cache        *lru.Cache[string, *Session]
	historyLimit int
	now          func() time.Time
}

// NewMemoryStore creates an in-process store.
func NewMemoryStore(cfg MemoryConfig) (*MemoryStore, error) {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	var onEvict func(string, *Session)
	if cfg.OnEnd != nil {
		onEvict = func(id string, _ *Session) { cfg.OnEnd(id) }
	}
	cache, err := lru.NewWithEvict[string, *Session](capacity, onEvict)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{cache: cache, historyLimit: cfg.HistoryLimit, now: now}, nil
}

func (m *MemoryStore) Create(_ context.Context) (Snapshot, error) {
	s := New(m.now(), m.historyLimit)
	m.cache.Add(s.ID, s)
	return s.Snapshot(), nil
}

func (m *MemoryStore) get(id string) (*Session, error) {
	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Snapshot, error) {
	s, err := m.get(id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

func (m *MemoryStore) Acknowledge(_ context.Context, id string, points int) (int, error) {
	if err := ledger.CheckAward(points); err != nil {
		return 0, err
	}
	s, err := m.get(id)
	if err != nil {
		return 0, err
	}
	return s.Ledger.Acknowledge(points)
}

func (m *MemoryStore) Reset(_ context.Context, id string) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.Ledger.Reset()
	return nil
}

func (m *MemoryStore) Save(_ context.Context, id string, e Entry) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.Save(e)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	if !m.cache.Remove(id) {
		return ErrSessionNotFound
	}
	return nil
}

// Len returns the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.cache.Len()
}
