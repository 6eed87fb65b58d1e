package dedup

import (
	"context"
	"time"
)

// Record is the lightweight trace kept per emission; the full signal belongs
// to the downstream consumer. No two records share
// (Symbol, DetectorType, BarTimeKey).
type Record struct {
	Symbol       string    `json:"symbol"`
	DetectorType string    `json:"detector_type"`
	BarTimeKey   string    `json:"bar_time_key"`
	EmittedAt    time.Time `json:"emitted_at"`
}

// Stats is the aggregate snapshot used by operational dashboards.
type Stats struct {
	TotalSignals  int           `json:"total_signals"`
	UniqueSymbols int           `json:"unique_symbols"`
	OldestSignal  time.Duration `json:"oldest_signal_age"`
	NewestSignal  time.Duration `json:"newest_signal_age"`
}

// Store is the per-symbol, per-detector emission history backing cooldown,
// per-hour caps, and duplicate-bar suppression. Implementations must
// serialize check-then-act sequences per (symbol, detectorType) key so two
// concurrent scans cannot both pass the duplicate or rate-cap check for the
// same bar.
//
// CountInWindow with an empty detectorType counts symbol-wide, which is how
// the scanner implements the per-symbol rate-cap scope.
type Store interface {
	RecordSignal(ctx context.Context, rec Record) error
	IsDuplicate(ctx context.Context, symbol, detectorType, barTimeKey string) (bool, error)
	CountInWindow(ctx context.Context, symbol, detectorType string, window time.Duration) (int, error)
	LastEmission(ctx context.Context, symbol, detectorType string) (time.Time, bool, error)
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
}
