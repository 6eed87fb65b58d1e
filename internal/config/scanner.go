package config

import (
	"fmt"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/marketlens/oppscan/internal/domain"
)

// RateCapScope selects whether the trailing-hour emission cap counts per
// (symbol, detector type) or per symbol across all detectors.
type RateCapScope string

const (
	ScopePerDetector RateCapScope = "per_detector"
	ScopePerSymbol   RateCapScope = "per_symbol"
)

// FilterConfig holds the universal pre-detector filters. Order of application
// is fixed by the scanner: blacklist, market hours, RVOL, spread, liquidity.
type FilterConfig struct {
	MarketHoursOnly         bool     `yaml:"market_hours_only" default:"true"`
	MinRVOL                 float64  `yaml:"min_rvol" default:"0.5" validate:"gte=0"`
	MaxSpreadPct            float64  `yaml:"max_spread_pct" default:"0.5" validate:"gte=0"`
	Blacklist               []string `yaml:"blacklist"`
	RequireMinimumLiquidity bool     `yaml:"require_minimum_liquidity" default:"true"`
	MinAvgVolume            float64  `yaml:"min_avg_volume" default:"500000" validate:"gte=0"`
}

// ThresholdConfig holds the emission thresholds. Asset-class overrides in
// ScannerConfig take precedence over these base values.
type ThresholdConfig struct {
	MinBaseScore             float64 `yaml:"min_base_score" default:"65" validate:"gte=0,lte=100"`
	MinStyleScore            float64 `yaml:"min_style_score" default:"55" validate:"gte=0,lte=100"`
	MinRiskReward            float64 `yaml:"min_risk_reward" default:"1.5" validate:"gte=0"`
	MaxSignalsPerSymbolPerHr int     `yaml:"max_signals_per_symbol_per_hour" default:"3" validate:"gte=1"`
	CooldownMinutes          int     `yaml:"cooldown_minutes" default:"15" validate:"gte=0"`
}

// ThresholdOverride is a sparse per-asset-class override; nil fields fall
// through to the base thresholds.
type ThresholdOverride struct {
	MinBaseScore  *float64 `yaml:"min_base_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinStyleScore *float64 `yaml:"min_style_score,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinRiskReward *float64 `yaml:"min_risk_reward,omitempty" validate:"omitempty,gte=0"`
}

// ScannerConfig is the full runtime configuration of the composite scanner.
// It is mutable at runtime via Scanner.UpdateConfig; validation happens there,
// not at scan time.
type ScannerConfig struct {
	Filters    FilterConfig    `yaml:"filters"`
	Thresholds ThresholdConfig `yaml:"thresholds"`

	// AssetOverrides keys are asset classes (STOCK, EQUITY_ETF, INDEX).
	// Index symbols ship with stricter defaults than single equities.
	AssetOverrides map[domain.AssetClass]ThresholdOverride `yaml:"asset_overrides,omitempty"`

	RateCapScope RateCapScope `yaml:"rate_cap_scope" default:"per_detector" validate:"oneof=per_detector per_symbol"`

	// BarIntervalMinutes is the bar size used to derive bar time keys.
	BarIntervalMinutes int `yaml:"bar_interval_minutes" default:"5" validate:"gte=1"`
}

var validate = validator.New()

// Default returns the production default configuration, including the
// stricter index overrides.
func Default() ScannerConfig {
	var cfg ScannerConfig
	_ = defaults.Set(&cfg)
	idxBase, idxStyle := 75.0, 65.0
	cfg.AssetOverrides = map[domain.AssetClass]ThresholdOverride{
		domain.AssetIndex: {MinBaseScore: &idxBase, MinStyleScore: &idxStyle},
	}
	return cfg
}

// Load reads and validates a scanner config from a YAML file, applying
// struct defaults for absent fields.
func Load(path string) (ScannerConfig, error) {
	var cfg ScannerConfig
	if err := defaults.Set(&cfg); err != nil {
		return cfg, fmt.Errorf("apply defaults: %w", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects malformed configuration. Called by Load and by the
// scanner's UpdateConfig so a bad config is a terminal setup error, never a
// silent scan-time behavior change.
func (c *ScannerConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	for class := range c.AssetOverrides {
		switch class {
		case domain.AssetStock, domain.AssetEquityETF, domain.AssetIndex:
		default:
			return fmt.Errorf("validate config: unknown asset class %q in overrides", class)
		}
	}
	return nil
}

// Cooldown is the configured cooldown as a duration.
func (c *ScannerConfig) Cooldown() time.Duration {
	return time.Duration(c.Thresholds.CooldownMinutes) * time.Minute
}

// BarInterval is the configured bar size as a duration.
func (c *ScannerConfig) BarInterval() time.Duration {
	return time.Duration(c.BarIntervalMinutes) * time.Minute
}
