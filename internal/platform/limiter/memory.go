package limiter

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type hit struct {
	at     time.Time
	member string
}

// MemoryStore keeps per-key hit timestamps in process memory. All access
// goes through one mutex so concurrent bursts cannot undercount.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]hit
	seq  uint64
	now  func() time.Time
}

// NewMemoryStore builds a MemoryStore. A nil now func means the wall clock.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{hits: make(map[string][]hit), now: now}
}

func (s *MemoryStore) Hit(_ context.Context, key string, window time.Duration, limit int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	kept := s.prune(key, now.Add(-window))

	if len(kept) >= limit {
		return Result{
			Allowed: false,
			ResetAt: kept[0].at.Add(window),
		}, nil
	}

	s.seq++
	member := strconv.FormatUint(s.seq, 10)
	kept = append(kept, hit{at: now, member: member})
	s.hits[key] = kept

	return Result{
		Allowed:   true,
		Remaining: limit - len(kept),
		ResetAt:   kept[0].at.Add(window),
		Member:    member,
	}, nil
}

func (s *MemoryStore) Forget(_ context.Context, key, member string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.hits[key][:0]
	for _, h := range s.hits[key] {
		if h.member != member {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		delete(s.hits, key)
	} else {
		s.hits[key] = kept
	}
	return nil
}

// prune drops hits that slid out of the window and returns what remains.
// Caller holds the lock.
func (s *MemoryStore) prune(key string, cutoff time.Time) []hit {
	kept := s.hits[key][:0]
	for _, h := range s.hits[key] {
		if h.at.After(cutoff) {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		delete(s.hits, key)
		return nil
	}
	s.hits[key] = kept
	return kept
}
