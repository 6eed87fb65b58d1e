package domain

import (
	"strings"
	"time"
)

// AssetClass is the coarse symbol category that governs which detectors apply.
type AssetClass string

const (
	AssetStock     AssetClass = "STOCK"
	AssetEquityETF AssetClass = "EQUITY_ETF"
	AssetIndex     AssetClass = "INDEX"
)

// Direction is the trade side a detector looks for.
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// AnalysisMode selects live scanning vs historical/weekend analysis. It is an
// explicit parameter to every scan call rather than ambient process state so
// runs are deterministic and testable.
type AnalysisMode string

const (
	ModeLive       AnalysisMode = "LIVE"
	ModeHistorical AnalysisMode = "HISTORICAL"
)

// MarketRegime labels the prevailing market character supplied by the
// upstream feature builder.
type MarketRegime string

const (
	RegimeTrendingUp   MarketRegime = "TRENDING_UP"
	RegimeTrendingDown MarketRegime = "TRENDING_DOWN"
	RegimeRangeBound   MarketRegime = "RANGE_BOUND"
	RegimeHighVol      MarketRegime = "HIGH_VOLATILITY"
	RegimeUnknown      MarketRegime = ""
)

// FlowBias is the aggregated directional lean inferred from options order flow.
type FlowBias string

const (
	FlowBullish FlowBias = "BULLISH"
	FlowBearish FlowBias = "BEARISH"
	FlowNeutral FlowBias = "NEUTRAL"
)

// PriceData carries the current bar's OHLC context.
type PriceData struct {
	Current   float64 `json:"current"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	PrevClose float64 `json:"prev_close"`
}

// VolumeData carries raw and relative volume. RelativeToAvg is RVOL: current
// volume divided by the average baseline for this point in the session.
type VolumeData struct {
	Current       float64 `json:"current"`
	RelativeToAvg float64 `json:"relative_to_avg"`
	Average       float64 `json:"average"`
}

// VWAPData is the session VWAP and the percent deviation of price from it.
// DistancePct is positive when price trades above VWAP.
type VWAPData struct {
	Value       float64 `json:"value"`
	DistancePct float64 `json:"distance_pct"`
}

// SessionInfo describes where in the trading session the snapshot was taken.
// IsRegularHours is tri-state: nil means the upstream builder could not
// determine it, and detectors must treat that as regular hours rather than
// weekend so live detection is never silently disabled.
type SessionInfo struct {
	MinutesSinceOpen float64 `json:"minutes_since_open"`
	IsRegularHours   *bool   `json:"is_regular_hours,omitempty"`
}

// RegularHours resolves the tri-state flag, defaulting unknown to true.
func (s SessionInfo) RegularHours() bool {
	if s.IsRegularHours == nil {
		return true
	}
	return *s.IsRegularHours
}

// PatternFlags are precomputed boolean/categorical features from the upstream
// pattern recognizer.
type PatternFlags struct {
	MarketRegime      MarketRegime `json:"market_regime"`
	BreakoutUp        bool         `json:"breakout_up"`
	BreakoutDown      bool         `json:"breakout_down"`
	BullishDivergence bool         `json:"bullish_divergence"`
	BearishDivergence bool         `json:"bearish_divergence"`
}

// FlowMetrics aggregates options order-flow activity for the symbol. Optional:
// a nil FlowMetrics on the snapshot means no flow data was available this tick.
type FlowMetrics struct {
	FlowScore      float64  `json:"flow_score"` // 0-100 composite
	FlowBias       FlowBias `json:"flow_bias"`
	SweepCount     int      `json:"sweep_count"`
	BuyPressure    float64  `json:"buy_pressure"` // 0-1 fraction of aggressive buys
	LargeTradePct  float64  `json:"large_trade_pct"`
	Aggressiveness float64  `json:"aggressiveness"` // 0-100
}

// FeatureSnapshot is a point-in-time bundle of computed indicators for one
// symbol. It is produced externally once per tick per symbol and treated as
// immutable by the engine.
type FeatureSnapshot struct {
	Symbol     string     `json:"symbol"`
	Timestamp  time.Time  `json:"timestamp"`
	AssetClass AssetClass `json:"asset_class"`

	Price  PriceData  `json:"price"`
	Volume VolumeData `json:"volume"`
	VWAP   VWAPData   `json:"vwap"`

	// SpreadPct is the quoted bid/ask spread as a percent of price.
	SpreadPct float64 `json:"spread_pct"`

	// Indicator maps keyed by period, e.g. RSI[14], EMA[9], ATR[14].
	RSI map[int]float64 `json:"rsi,omitempty"`
	EMA map[int]float64 `json:"ema,omitempty"`
	ATR map[int]float64 `json:"atr,omitempty"`

	Session  SessionInfo  `json:"session"`
	Patterns PatternFlags `json:"patterns"`

	Flow *FlowMetrics `json:"flow,omitempty"`

	// Timeframes holds optional nested snapshots for higher timeframes,
	// keyed by labels like "15m" or "1h".
	Timeframes map[string]*FeatureSnapshot `json:"timeframes,omitempty"`
}

// RSIAt returns the RSI for the given period and whether it was present.
func (f *FeatureSnapshot) RSIAt(period int) (float64, bool) {
	v, ok := f.RSI[period]
	return v, ok
}

// EMAAt returns the EMA for the given period and whether it was present.
func (f *FeatureSnapshot) EMAAt(period int) (float64, bool) {
	v, ok := f.EMA[period]
	return v, ok
}

// ATRAt returns the ATR for the given period and whether it was present.
func (f *FeatureSnapshot) ATRAt(period int) (float64, bool) {
	v, ok := f.ATR[period]
	return v, ok
}

// ChangePct is the percent move from the previous close, 0 when prevClose is
// missing.
func (f *FeatureSnapshot) ChangePct() float64 {
	if f.Price.PrevClose <= 0 {
		return 0
	}
	return (f.Price.Current - f.Price.PrevClose) / f.Price.PrevClose * 100
}

// BarTimeKey ties a signal to a specific price-bar interval so one bar never
// emits the same detector twice. Keys are UTC truncated to the interval.
func BarTimeKey(ts time.Time, interval time.Duration) string {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return ts.UTC().Truncate(interval).Format("2006-01-02T15:04:05Z")
}

// ClassifySymbol infers an asset class for snapshots that arrive without one.
// Index symbols carry well-known tickers; a short list of the liquid ETFs is
// enough for the default universe, everything else is a single stock.
func ClassifySymbol(symbol string) AssetClass {
	switch strings.ToUpper(symbol) {
	case "SPX", "NDX", "RUT", "VIX", "XSP":
		return AssetIndex
	case "SPY", "QQQ", "IWM", "DIA", "XLF", "XLE", "XLK", "SMH", "TLT", "GLD":
		return AssetEquityETF
	default:
		return AssetStock
	}
}
