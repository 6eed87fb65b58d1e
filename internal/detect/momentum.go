package detect

import (
	"math"

	"github.com/marketlens/oppscan/internal/domain"
)

// momentumDetectors covers directional continuation: RSI in the working band,
// EMA alignment, and VWAP-side confirmation.
func momentumDetectors() []Detector {
	return []Detector{
		{
			Type:         "momentum_surge_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				if !ok || !snap.Session.RegularHours() {
					return false
				}
				f, okF := snap.EMAAt(9)
				s, okS := snap.EMAAt(21)
				return okF && okS && f > s &&
					rsi >= 55 && rsi <= 75 &&
					snap.VWAP.DistancePct > 0 &&
					snap.Volume.RelativeToAvg >= 1.3
			},
			ScoreFactors: []ScoreFactor{
				rsiBandFactor(0.25, 14, 50, 58, 70, 80),
				emaTrendFactor(0.25, domain.DirectionLong, 9, 21),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
				rvolFactor(0.15, 1.3),
				regimeFitFactor(0.15, domain.DirectionLong),
			},
		},
		{
			Type:         "momentum_surge_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				if !ok || !snap.Session.RegularHours() {
					return false
				}
				f, okF := snap.EMAAt(9)
				s, okS := snap.EMAAt(21)
				return okF && okS && f < s &&
					rsi >= 25 && rsi <= 45 &&
					snap.VWAP.DistancePct < 0 &&
					snap.Volume.RelativeToAvg >= 1.3
			},
			ScoreFactors: []ScoreFactor{
				rsiBandFactor(0.25, 14, 20, 30, 42, 50),
				emaTrendFactor(0.25, domain.DirectionShort, 9, 21),
				vwapAlignmentFactor(0.20, domain.DirectionShort),
				rvolFactor(0.15, 1.3),
				regimeFitFactor(0.15, domain.DirectionShort),
			},
		},
		{
			Type:         "trend_continuation_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				if snap.Patterns.MarketRegime != domain.RegimeTrendingUp || !snap.Session.RegularHours() {
					return false
				}
				rsi, okR := snap.RSIAt(14)
				ema9, okE := snap.EMAAt(9)
				if !okR || !okE || ema9 <= 0 {
					return false
				}
				// pullback entry: price within 0.3% of the fast average
				pullback := math.Abs(snap.Price.Current-ema9) / ema9 * 100
				return pullback <= 0.3 && rsi >= 45 && rsi <= 65
			},
			ScoreFactors: []ScoreFactor{
				regimeFitFactor(0.30, domain.DirectionLong),
				emaTrendFactor(0.25, domain.DirectionLong, 9, 21),
				rsiBandFactor(0.20, 14, 40, 48, 62, 70),
				multiTimeframeFactor(0.15, domain.DirectionLong),
				rvolFactor(0.10, 1.0),
			},
		},
		{
			Type:         "trend_continuation_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				if snap.Patterns.MarketRegime != domain.RegimeTrendingDown || !snap.Session.RegularHours() {
					return false
				}
				rsi, okR := snap.RSIAt(14)
				ema9, okE := snap.EMAAt(9)
				if !okR || !okE || ema9 <= 0 {
					return false
				}
				pullback := math.Abs(snap.Price.Current-ema9) / ema9 * 100
				return pullback <= 0.3 && rsi >= 35 && rsi <= 55
			},
			ScoreFactors: []ScoreFactor{
				regimeFitFactor(0.30, domain.DirectionShort),
				emaTrendFactor(0.25, domain.DirectionShort, 9, 21),
				rsiBandFactor(0.20, 14, 30, 38, 52, 60),
				multiTimeframeFactor(0.15, domain.DirectionShort),
				rvolFactor(0.10, 1.0),
			},
		},
		{
			Type:         "gap_and_go_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				if !snap.Session.RegularHours() || snap.Price.PrevClose <= 0 {
					return false
				}
				gapPct := (snap.Price.Open - snap.Price.PrevClose) / snap.Price.PrevClose * 100
				return snap.Session.MinutesSinceOpen <= 60 &&
					gapPct >= 1.0 &&
					snap.Price.Current > snap.Price.Open &&
					snap.Volume.RelativeToAvg >= 2.0
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.30, domain.DirectionLong),
				rvolFactor(0.30, 2.0),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
				sessionTimingFactor(0.20, 5, 60),
			},
		},
	}
}
