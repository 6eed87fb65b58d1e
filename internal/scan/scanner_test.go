package scan

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketlens/oppscan/internal/config"
	"github.com/marketlens/oppscan/internal/dedup"
	"github.com/marketlens/oppscan/internal/detect"
	"github.com/marketlens/oppscan/internal/domain"
)

func boolPtr(b bool) *bool { return &b }

// strongBreakoutSnapshot fires exactly one detector (orb_breakout_long):
// fresh breakout 45 minutes in, 2.5x volume, extended above VWAP, RSI parked
// mid-range so no momentum or reversal gate opens alongside it.
func strongBreakoutSnapshot(ts time.Time) *domain.FeatureSnapshot {
	return &domain.FeatureSnapshot{
		Symbol:     "AAPL",
		Timestamp:  ts,
		AssetClass: domain.AssetStock,
		Price: domain.PriceData{
			Current:   105.0,
			Open:      100.3,
			High:      105.6,
			Low:       100.0,
			PrevClose: 100.0,
		},
		Volume: domain.VolumeData{
			Current:       2_000_000,
			RelativeToAvg: 2.5,
			Average:       1_000_000,
		},
		VWAP:      domain.VWAPData{Value: 103.75, DistancePct: 1.2},
		SpreadPct: 0.05,
		RSI:       map[int]float64{14: 48},
		EMA:       map[int]float64{9: 104.0, 21: 103.0},
		ATR:       map[int]float64{14: 2.0},
		Session: domain.SessionInfo{
			MinutesSinceOpen: 45,
			IsRegularHours:   boolPtr(true),
		},
		Patterns: domain.PatternFlags{
			MarketRegime: domain.RegimeTrendingUp,
			BreakoutUp:   true,
		},
	}
}

// quietSnapshot passes every universal filter but opens no detector gate.
func quietSnapshot(ts time.Time) *domain.FeatureSnapshot {
	return &domain.FeatureSnapshot{
		Symbol:     "MSFT",
		Timestamp:  ts,
		AssetClass: domain.AssetStock,
		Price: domain.PriceData{
			Current:   300.0,
			Open:      299.8,
			High:      300.5,
			Low:       299.0,
			PrevClose: 299.9,
		},
		Volume: domain.VolumeData{
			Current:       500_000,
			RelativeToAvg: 0.8,
			Average:       900_000,
		},
		VWAP:      domain.VWAPData{Value: 300.1, DistancePct: -0.03},
		SpreadPct: 0.02,
		RSI:       map[int]float64{14: 51},
		Session: domain.SessionInfo{
			MinutesSinceOpen: 120,
			IsRegularHours:   boolPtr(true),
		},
	}
}

func newTestScanner(t *testing.T, cfg config.ScannerConfig, now func() time.Time) (*Scanner, *dedup.MemoryStore) {
	t.Helper()
	registry, err := detect.DefaultRegistry()
	require.NoError(t, err)
	store := dedup.NewMemoryStore(time.Hour)
	sc, err := NewScanner(registry, store, cfg, WithClock(now))
	require.NoError(t, err)
	return sc, store
}

func TestScanEmitsCompositeSignal(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	res, err := sc.ScanSymbol(context.Background(), strongBreakoutSnapshot(base), nil, domain.ModeLive)
	require.NoError(t, err)
	require.False(t, res.Filtered, "reason: %s", res.FilterReason)
	require.Len(t, res.Signals, 1)

	sig := res.Signal
	require.NotNil(t, sig)
	assert.Equal(t, "orb_breakout_long", sig.DetectorType)
	assert.Equal(t, domain.DirectionLong, sig.Direction)
	assert.Equal(t, "AAPL", sig.Symbol)
	assert.Equal(t, domain.AssetStock, sig.AssetClass)
	assert.NotEmpty(t, sig.ID)
	assert.Equal(t, 1, res.DetectionCount)

	assert.GreaterOrEqual(t, sig.CompositeScore, 65.0)
	assert.LessOrEqual(t, sig.CompositeScore, 100.0)
	assert.InDelta(t, 91.8, sig.CompositeScore, 0.5)
	assert.Greater(t, sig.Confidence, 0.0)
	assert.GreaterOrEqual(t, sig.RiskReward, 1.5)

	// factor breakdown survives onto the signal with weighted contributions
	require.Len(t, sig.Factors, 5)
	sum := 0.0
	for _, f := range sig.Factors {
		sum += f.Weighted
	}
	assert.InDelta(t, sig.CompositeScore, sum, 0.01)
}

func TestScanNoDetectorsTriggered(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	res, err := sc.ScanSymbol(context.Background(), quietSnapshot(base), nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Equal(t, "no detectors triggered", res.FilterReason)
	assert.Equal(t, 0, res.DetectionCount)
	assert.Empty(t, res.Signals)
}

func TestScanThresholdRejectionNamesScore(t *testing.T) {
	base := time.Now()
	cfg := config.Default()
	cfg.Thresholds.MinBaseScore = 95
	sc, _ := newTestScanner(t, cfg, func() time.Time { return base })

	res, err := sc.ScanSymbol(context.Background(), strongBreakoutSnapshot(base), nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Equal(t, 1, res.DetectionCount, "gate passed, threshold rejected")
	assert.Contains(t, res.FilterReason, "composite score")
	assert.Contains(t, res.FilterReason, "below minimum")
}

func TestScanBlacklistedSymbol(t *testing.T) {
	base := time.Now()
	cfg := config.Default()
	cfg.Filters.Blacklist = []string{"aapl"}
	sc, _ := newTestScanner(t, cfg, func() time.Time { return base })

	res, err := sc.ScanSymbol(context.Background(), strongBreakoutSnapshot(base), nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Contains(t, res.FilterReason, "universal filters")
	assert.Contains(t, res.FilterReason, "blacklisted")
	assert.Equal(t, 0, res.DetectionCount, "filters run before any gate")
}

func TestScanOutsideMarketHours(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	snap := strongBreakoutSnapshot(base)
	snap.Session.IsRegularHours = boolPtr(false)

	res, err := sc.ScanSymbol(context.Background(), snap, nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Contains(t, res.FilterReason, "outside regular market hours")
}

func TestScanHistoricalModeBypassesMarketHoursFilter(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	snap := strongBreakoutSnapshot(base)
	snap.Session.IsRegularHours = boolPtr(false)

	res, err := sc.ScanSymbol(context.Background(), snap, nil, domain.ModeHistorical)
	require.NoError(t, err)
	// the universal hours filter is skipped; gates still respect the session
	// flag, so the scan falls through to a no-trigger result, never an
	// hours rejection
	assert.NotContains(t, res.FilterReason, "outside regular market hours")
}

func TestScanUnknownSessionFlagTreatedAsRegularHours(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	snap := strongBreakoutSnapshot(base)
	snap.Session.IsRegularHours = nil

	res, err := sc.ScanSymbol(context.Background(), snap, nil, domain.ModeLive)
	require.NoError(t, err)
	assert.False(t, res.Filtered, "unknown session flag must not suppress live detection")
	require.NotNil(t, res.Signal)
	assert.Equal(t, "orb_breakout_long", res.Signal.DetectorType)
}

func TestScanCooldownWindow(t *testing.T) {
	base := time.Now()
	cur := base
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return cur })

	ctx := context.Background()

	res, err := sc.ScanSymbol(ctx, strongBreakoutSnapshot(base), nil, domain.ModeLive)
	require.NoError(t, err)
	require.False(t, res.Filtered)

	// 14 minutes later: new bar, still inside the 15 minute cooldown
	cur = base.Add(14 * time.Minute)
	res, err = sc.ScanSymbol(ctx, strongBreakoutSnapshot(cur), nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Contains(t, res.FilterReason, "cooldown")

	// 16 minutes after the first emission the window has lapsed
	cur = base.Add(16 * time.Minute)
	res, err = sc.ScanSymbol(ctx, strongBreakoutSnapshot(cur), nil, domain.ModeLive)
	require.NoError(t, err)
	assert.False(t, res.Filtered, "reason: %s", res.FilterReason)
}

func TestScanHourlyRateCap(t *testing.T) {
	base := time.Now()
	cur := base
	cfg := config.Default()
	cfg.Thresholds.CooldownMinutes = 0
	cfg.Thresholds.MaxSignalsPerSymbolPerHr = 2
	sc, _ := newTestScanner(t, cfg, func() time.Time { return cur })

	ctx := context.Background()
	emitted, capped := 0, 0
	for i := 0; i < 5; i++ {
		cur = base.Add(time.Duration(i) * 5 * time.Minute)
		res, err := sc.ScanSymbol(ctx, strongBreakoutSnapshot(cur), nil, domain.ModeLive)
		require.NoError(t, err)
		if res.Filtered {
			assert.Contains(t, res.FilterReason, "rate cap")
			capped++
			continue
		}
		emitted++
	}
	assert.Equal(t, 2, emitted)
	assert.Equal(t, 3, capped)
}

func TestScanDuplicateBarSuppressed(t *testing.T) {
	base := time.Now()
	cfg := config.Default()
	cfg.Thresholds.CooldownMinutes = 0
	sc, _ := newTestScanner(t, cfg, func() time.Time { return base })

	ctx := context.Background()
	snap := strongBreakoutSnapshot(base)

	res, err := sc.ScanSymbol(ctx, snap, nil, domain.ModeLive)
	require.NoError(t, err)
	require.False(t, res.Filtered)

	// same bar, same detector: suppressed no matter how strong the setup
	res, err = sc.ScanSymbol(ctx, snap, nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Contains(t, res.FilterReason, "Duplicate bar time key")
}

func TestScanIndexOverrideRaisesBar(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	// a setup scoring in the 65-75 band emits for a stock but must be
	// rejected by the stricter index override
	snap := strongBreakoutSnapshot(base)
	snap.Symbol = "SPX"
	snap.AssetClass = domain.AssetIndex
	snap.Price.Current = 103.0
	snap.Price.High = 103.05
	snap.Volume.RelativeToAvg = 2.6
	snap.VWAP.DistancePct = 1.0

	res, err := sc.ScanSymbol(context.Background(), snap, nil, domain.ModeLive)
	require.NoError(t, err)
	if !res.Filtered {
		t.Fatalf("expected index threshold rejection, emitted score %.1f", res.Signal.CompositeScore)
	}
	assert.Contains(t, res.FilterReason, "below minimum 75.0")
}

func TestUpdateConfigRejectsInvalid(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	bad := config.Default()
	bad.Filters.MinRVOL = -1
	err := sc.UpdateConfig(bad)
	require.Error(t, err)

	// previous config stays in force
	assert.Equal(t, 0.5, sc.Config().Filters.MinRVOL)
}

func TestUpdateConfigAppliesToNextScan(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	cfg := config.Default()
	cfg.Filters.MinRVOL = 3.0
	require.NoError(t, sc.UpdateConfig(cfg))

	res, err := sc.ScanSymbol(context.Background(), strongBreakoutSnapshot(base), nil, domain.ModeLive)
	require.NoError(t, err)
	assert.True(t, res.Filtered)
	assert.Contains(t, res.FilterReason, "relative volume")
}

func TestScanInfersAssetClassFromSymbol(t *testing.T) {
	base := time.Now()
	sc, _ := newTestScanner(t, config.Default(), func() time.Time { return base })

	snap := strongBreakoutSnapshot(base)
	snap.Symbol = "QQQ"
	snap.AssetClass = ""

	res, err := sc.ScanSymbol(context.Background(), snap, nil, domain.ModeLive)
	require.NoError(t, err)
	require.False(t, res.Filtered, "reason: %s", res.FilterReason)
	assert.Equal(t, domain.AssetEquityETF, res.Signal.AssetClass)
}
