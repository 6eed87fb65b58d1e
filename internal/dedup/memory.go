package dedup

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process Store: append-only per-key slices
// pruned by age. A single mutex guards all keys; the scanner's hot path does
// a handful of map operations per emission, so finer-grained locking has not
// been worth the complexity.
type MemoryStore struct {
	mu        sync.Mutex
	byKey     map[string][]Record
	retention time.Duration
	now       func() time.Time
}

// NewMemoryStore creates a store retaining records for at least the given
// duration. Retention is floored at one hour so the trailing-hour rate cap
// always has full history; pass the configured cooldown when it is longer.
func NewMemoryStore(retention time.Duration) *MemoryStore {
	if retention < time.Hour {
		retention = time.Hour
	}
	return &MemoryStore{
		byKey:     make(map[string][]Record),
		retention: retention,
		now:       time.Now,
	}
}

func key(symbol, detectorType string) string {
	return symbol + "|" + detectorType
}

// RecordSignal appends an emission record, dropping aged-out entries for the
// key on the way.
func (s *MemoryStore) RecordSignal(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(rec.Symbol, rec.DetectorType)
	s.byKey[k] = append(s.pruneLocked(s.byKey[k]), rec)
	return nil
}

// IsDuplicate reports whether a record already exists for the exact
// (symbol, detectorType, barTimeKey).
func (s *MemoryStore) IsDuplicate(_ context.Context, symbol, detectorType, barTimeKey string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.byKey[key(symbol, detectorType)] {
		if rec.BarTimeKey == barTimeKey {
			return true, nil
		}
	}
	return false, nil
}

// CountInWindow counts emissions within the trailing window. An empty
// detectorType counts across all detectors for the symbol.
func (s *MemoryStore) CountInWindow(_ context.Context, symbol, detectorType string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-window)
	count := 0
	if detectorType != "" {
		for _, rec := range s.byKey[key(symbol, detectorType)] {
			if rec.EmittedAt.After(cutoff) {
				count++
			}
		}
		return count, nil
	}
	for k, recs := range s.byKey {
		if len(k) <= len(symbol) || k[:len(symbol)+1] != symbol+"|" {
			continue
		}
		for _, rec := range recs {
			if rec.EmittedAt.After(cutoff) {
				count++
			}
		}
	}
	return count, nil
}

// LastEmission returns the most recent emission time for the key.
func (s *MemoryStore) LastEmission(_ context.Context, symbol, detectorType string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.byKey[key(symbol, detectorType)]
	if len(recs) == 0 {
		return time.Time{}, false, nil
	}
	latest := recs[0].EmittedAt
	for _, rec := range recs[1:] {
		if rec.EmittedAt.After(latest) {
			latest = rec.EmittedAt
		}
	}
	return latest, true, nil
}

// Clear drops all history. Intended for tests and scoped lifecycles.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byKey = make(map[string][]Record)
	return nil
}

// Stats summarizes the retained history.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	now := s.now()
	symbols := make(map[string]struct{})
	var oldest, newest time.Time
	for _, recs := range s.byKey {
		for _, rec := range recs {
			st.TotalSignals++
			symbols[rec.Symbol] = struct{}{}
			if oldest.IsZero() || rec.EmittedAt.Before(oldest) {
				oldest = rec.EmittedAt
			}
			if rec.EmittedAt.After(newest) {
				newest = rec.EmittedAt
			}
		}
	}
	st.UniqueSymbols = len(symbols)
	if st.TotalSignals > 0 {
		st.OldestSignal = now.Sub(oldest)
		st.NewestSignal = now.Sub(newest)
	}
	return st, nil
}

// pruneLocked drops records older than the retention horizon. Caller holds
// the mutex.
func (s *MemoryStore) pruneLocked(recs []Record) []Record {
	cutoff := s.now().Add(-s.retention)
	kept := recs[:0]
	for _, rec := range recs {
		if rec.EmittedAt.After(cutoff) {
			kept = append(kept, rec)
		}
	}
	return kept
}

var _ Store = (*MemoryStore)(nil)
