package scan

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/marketlens/oppscan/internal/adaptive"
	"github.com/marketlens/oppscan/internal/config"
	"github.com/marketlens/oppscan/internal/dedup"
	"github.com/marketlens/oppscan/internal/detect"
	"github.com/marketlens/oppscan/internal/domain"
	"github.com/marketlens/oppscan/internal/telemetry"
)

// Scanner is the composite orchestrator: universal filters, detector
// gate+score, adaptive thresholds, then the dedup pipeline. Detectors and
// factors are pure, so concurrent scans of different symbols are safe; scans
// of the same symbol must run sequentially because the dedup check-then-act
// sequence is serialized per symbol by that discipline, not by the store.
type Scanner struct {
	registry *detect.Registry
	store    dedup.Store
	metrics  *telemetry.Metrics
	log      zerolog.Logger
	now      func() time.Time

	mu  sync.RWMutex
	cfg config.ScannerConfig
}

// Option customizes a Scanner.
type Option func(*Scanner)

// WithLogger injects the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Scanner) { s.metrics = m }
}

// WithClock overrides the time source. Tests use this to drive cooldown and
// rate-cap windows deterministically.
func WithClock(now func() time.Time) Option {
	return func(s *Scanner) { s.now = now }
}

// NewScanner validates the config and builds a scanner.
func NewScanner(registry *detect.Registry, store dedup.Store, cfg config.ScannerConfig, opts ...Option) (*Scanner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scanner{
		registry: registry,
		store:    store,
		log:      zerolog.Nop(),
		now:      time.Now,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// UpdateConfig validates and swaps the runtime configuration. A rejected
// config leaves the previous one in effect; an accepted one applies to the
// next scan call.
func (s *Scanner) UpdateConfig(cfg config.ScannerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
	s.log.Info().Msg("scanner config updated")
	return nil
}

// Config returns a copy of the active configuration.
func (s *Scanner) Config() config.ScannerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// ScanSymbol runs the full pipeline for one snapshot and returns exactly one
// result: an emission (possibly several signals) or a filtered result with
// the reason. The only returned errors are dedup-store failures; detection
// rejections are well-typed results, never errors.
func (s *Scanner) ScanSymbol(ctx context.Context, snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext, mode domain.AnalysisMode) (*domain.ScanResult, error) {
	start := s.now()
	cfg := s.Config()

	if s.metrics != nil {
		s.metrics.ScansTotal.Inc()
		defer func() {
			s.metrics.ScanDuration.Observe(time.Since(start).Seconds())
		}()
	}

	result := &domain.ScanResult{Symbol: snap.Symbol, ScannedAt: start}

	class := snap.AssetClass
	if class == "" {
		class = domain.ClassifySymbol(snap.Symbol)
	}

	if reason := s.applyUniversalFilters(&cfg, snap, mode); reason != "" {
		return s.filtered(result, reason, telemetry.StageUniversal), nil
	}

	thresholds := adaptive.Resolve(class, &cfg)
	barKey := domain.BarTimeKey(snap.Timestamp, cfg.BarInterval())

	var rejections []string
	var emitted []*domain.CompositeSignal

	for _, det := range s.registry.ForClass(class, opts != nil) {
		if !det.Gate(snap, opts) {
			continue
		}
		result.DetectionCount++
		if s.metrics != nil {
			s.metrics.GatePasses.WithLabelValues(det.Type).Inc()
		}

		sig, reason, stage, err := s.evaluateDetection(ctx, &det, snap, opts, &cfg, thresholds, class, barKey)
		if err != nil {
			return nil, err
		}
		if sig == nil {
			rejections = append(rejections, reason)
			if s.metrics != nil {
				s.metrics.ScansFiltered.WithLabelValues(stage).Inc()
			}
			continue
		}
		emitted = append(emitted, sig)
	}

	if len(emitted) == 0 {
		if len(rejections) == 0 {
			return s.filtered(result, "no detectors triggered", ""), nil
		}
		return s.filtered(result, rejections[0], ""), nil
	}

	sort.Slice(emitted, func(i, j int) bool {
		return emitted[i].CompositeScore > emitted[j].CompositeScore
	})
	result.Signals = emitted
	result.Signal = emitted[0]
	return result, nil
}

// evaluateDetection runs steps 4-8 of the pipeline for one gate-passing
// detector: thresholds, cooldown, rate cap, duplicate-bar, then emission.
func (s *Scanner) evaluateDetection(
	ctx context.Context,
	det *detect.Detector,
	snap *domain.FeatureSnapshot,
	opts *domain.OptionsChainContext,
	cfg *config.ScannerConfig,
	thresholds adaptive.Thresholds,
	class domain.AssetClass,
	barKey string,
) (*domain.CompositeSignal, string, string, error) {
	score, contribs := det.Score(snap, opts)
	styleScore := adaptive.StyleScore(score, snap, det.Direction)
	riskReward := adaptive.RiskReward(snap, det.Direction)

	switch {
	case score < thresholds.MinBaseScore:
		return nil, fmt.Sprintf("%s: composite score %.1f below minimum %.1f", det.Type, score, thresholds.MinBaseScore), telemetry.StageThreshold, nil
	case styleScore < thresholds.MinStyleScore:
		return nil, fmt.Sprintf("%s: style score %.1f below minimum %.1f", det.Type, styleScore, thresholds.MinStyleScore), telemetry.StageThreshold, nil
	case riskReward < thresholds.MinRiskReward:
		return nil, fmt.Sprintf("%s: risk/reward %.2f below minimum %.2f", det.Type, riskReward, thresholds.MinRiskReward), telemetry.StageThreshold, nil
	}

	now := s.now()

	if cooldown := cfg.Cooldown(); cooldown > 0 {
		last, ok, err := s.store.LastEmission(ctx, snap.Symbol, det.Type)
		if err != nil {
			return nil, "", "", fmt.Errorf("scan %s: %w", snap.Symbol, err)
		}
		if ok && now.Sub(last) < cooldown {
			return nil, fmt.Sprintf("%s: cooldown active, %.0fm since last signal (minimum %dm)",
				det.Type, now.Sub(last).Minutes(), cfg.Thresholds.CooldownMinutes), telemetry.StageCooldown, nil
		}
	}

	capDetector := det.Type
	if cfg.RateCapScope == config.ScopePerSymbol {
		capDetector = ""
	}
	count, err := s.store.CountInWindow(ctx, snap.Symbol, capDetector, time.Hour)
	if err != nil {
		return nil, "", "", fmt.Errorf("scan %s: %w", snap.Symbol, err)
	}
	if count >= cfg.Thresholds.MaxSignalsPerSymbolPerHr {
		return nil, fmt.Sprintf("%s: hourly rate cap reached (%d/%d)",
			det.Type, count, cfg.Thresholds.MaxSignalsPerSymbolPerHr), telemetry.StageRateCap, nil
	}

	duplicate, err := s.store.IsDuplicate(ctx, snap.Symbol, det.Type, barKey)
	if err != nil {
		return nil, "", "", fmt.Errorf("scan %s: %w", snap.Symbol, err)
	}
	if duplicate {
		return nil, fmt.Sprintf("%s: Duplicate bar time key %s", det.Type, barKey), telemetry.StageDuplicateBar, nil
	}

	sig := &domain.CompositeSignal{
		ID:             uuid.NewString(),
		Symbol:         snap.Symbol,
		DetectorType:   det.Type,
		Direction:      det.Direction,
		AssetClass:     class,
		CompositeScore: score,
		Confidence:     adaptive.Confidence(score, snap, opts, det.Direction),
		StyleScore:     styleScore,
		RiskReward:     riskReward,
		Price:          snap.Price.Current,
		Factors:        contribs,
		BarTimeKey:     barKey,
		DetectedAt:     now,
	}

	if err := s.store.RecordSignal(ctx, dedup.Record{
		Symbol:       snap.Symbol,
		DetectorType: det.Type,
		BarTimeKey:   barKey,
		EmittedAt:    now,
	}); err != nil {
		return nil, "", "", fmt.Errorf("scan %s: record signal: %w", snap.Symbol, err)
	}

	if s.metrics != nil {
		s.metrics.SignalsEmitted.WithLabelValues(det.Type).Inc()
	}
	s.log.Info().
		Str("symbol", snap.Symbol).
		Str("detector", det.Type).
		Str("direction", string(det.Direction)).
		Float64("score", score).
		Float64("confidence", sig.Confidence).
		Msg("signal emitted")

	return sig, "", "", nil
}

func (s *Scanner) filtered(result *domain.ScanResult, reason, stage string) *domain.ScanResult {
	result.Filtered = true
	result.FilterReason = reason
	if s.metrics != nil && stage != "" {
		s.metrics.ScansFiltered.WithLabelValues(stage).Inc()
	}
	s.log.Debug().
		Str("symbol", result.Symbol).
		Str("reason", reason).
		Int("detections", result.DetectionCount).
		Msg("scan filtered")
	return result
}
