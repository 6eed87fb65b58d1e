package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreDuplicateDetection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	rec := Record{
		Symbol:       "AAPL",
		DetectorType: "orb_breakout_long",
		BarTimeKey:   "2026-03-02T14:55:00Z",
		EmittedAt:    now,
	}
	require.NoError(t, s.RecordSignal(ctx, rec))

	dup, err := s.IsDuplicate(ctx, "AAPL", "orb_breakout_long", "2026-03-02T14:55:00Z")
	require.NoError(t, err)
	assert.True(t, dup)

	// different bar, detector, or symbol is never a duplicate
	dup, err = s.IsDuplicate(ctx, "AAPL", "orb_breakout_long", "2026-03-02T15:00:00Z")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = s.IsDuplicate(ctx, "AAPL", "momentum_surge_long", "2026-03-02T14:55:00Z")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = s.IsDuplicate(ctx, "MSFT", "orb_breakout_long", "2026-03-02T14:55:00Z")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestMemoryStoreCountInWindow(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	add := func(detector string, age time.Duration) {
		require.NoError(t, s.RecordSignal(ctx, Record{
			Symbol:       "AAPL",
			DetectorType: detector,
			BarTimeKey:   now.Add(-age).Format("2006-01-02T15:04:05Z"),
			EmittedAt:    now.Add(-age),
		}))
	}
	add("orb_breakout_long", 10*time.Minute)
	add("orb_breakout_long", 30*time.Minute)
	add("momentum_surge_long", 20*time.Minute)
	add("orb_breakout_long", 90*time.Minute) // outside the trailing hour

	count, err := s.CountInWindow(ctx, "AAPL", "orb_breakout_long", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// empty detector type counts symbol-wide
	count, err = s.CountInWindow(ctx, "AAPL", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = s.CountInWindow(ctx, "MSFT", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMemoryStoreSymbolWideCountIgnoresPrefixCollisions(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Now()

	require.NoError(t, s.RecordSignal(ctx, Record{
		Symbol: "SP", DetectorType: "a", BarTimeKey: "k1", EmittedAt: now,
	}))
	require.NoError(t, s.RecordSignal(ctx, Record{
		Symbol: "SPX", DetectorType: "a", BarTimeKey: "k2", EmittedAt: now,
	}))

	count, err := s.CountInWindow(ctx, "SP", "", time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "SPX records must not count toward SP")
}

func TestMemoryStoreLastEmission(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_, ok, err := s.LastEmission(ctx, "AAPL", "orb_breakout_long")
	require.NoError(t, err)
	assert.False(t, ok)

	first := now.Add(-40 * time.Minute)
	second := now.Add(-10 * time.Minute)
	for _, ts := range []time.Time{first, second} {
		require.NoError(t, s.RecordSignal(ctx, Record{
			Symbol:       "AAPL",
			DetectorType: "orb_breakout_long",
			BarTimeKey:   ts.Format("2006-01-02T15:04:05Z"),
			EmittedAt:    ts,
		}))
	}

	last, ok, err := s.LastEmission(ctx, "AAPL", "orb_breakout_long")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, last.Equal(second))
}

func TestMemoryStoreRetentionPrunes(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.RecordSignal(ctx, Record{
		Symbol: "AAPL", DetectorType: "d", BarTimeKey: "old", EmittedAt: now.Add(-2 * time.Hour),
	}))
	// the next write for the key prunes the aged record
	require.NoError(t, s.RecordSignal(ctx, Record{
		Symbol: "AAPL", DetectorType: "d", BarTimeKey: "new", EmittedAt: now,
	}))

	dup, err := s.IsDuplicate(ctx, "AAPL", "d", "old")
	require.NoError(t, err)
	assert.False(t, dup, "aged-out record should be gone")

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.TotalSignals)
}

func TestMemoryStoreClearAndStats(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2026, 3, 2, 16, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	for i, sym := range []string{"AAPL", "MSFT", "AAPL"} {
		require.NoError(t, s.RecordSignal(ctx, Record{
			Symbol:       sym,
			DetectorType: "d",
			BarTimeKey:   now.Add(time.Duration(i) * time.Minute).Format("2006-01-02T15:04:05Z"),
			EmittedAt:    now.Add(-time.Duration(i) * time.Minute),
		}))
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalSignals)
	assert.Equal(t, 2, st.UniqueSymbols)
	assert.Equal(t, 2*time.Minute, st.OldestSignal)
	assert.Equal(t, time.Duration(0), st.NewestSignal)

	require.NoError(t, s.Clear(ctx))
	st, err = s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, st.TotalSignals)
	assert.Equal(t, 0, st.UniqueSymbols)
}

func TestMemoryStoreRetentionFloor(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	assert.Equal(t, time.Hour, s.retention, "retention floors at the rate-cap window")
}
