package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// reversalDetectors covers exhaustion and mean-reversion entries. These gate
// on stretched RSI or VWAP deviation plus a confirming flag so they do not
// fight strong trends blindly.
func reversalDetectors() []Detector {
	return []Detector{
		{
			Type:         "oversold_reversal_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				return ok && snap.Session.RegularHours() &&
					rsi <= 30 &&
					snap.Patterns.BullishDivergence &&
					snap.Volume.RelativeToAvg >= 1.2
			},
			ScoreFactors: []ScoreFactor{
				divergenceFactor(0.30, domain.DirectionLong),
				rsiBandFactor(0.25, 14, 0, 15, 28, 35),
				vwapReversionFactor(0.20, domain.DirectionLong),
				rvolFactor(0.15, 1.2),
				rangeRegimeFactor(0.10),
			},
		},
		{
			Type:         "overbought_reversal_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				return ok && snap.Session.RegularHours() &&
					rsi >= 70 &&
					snap.Patterns.BearishDivergence &&
					snap.Volume.RelativeToAvg >= 1.2
			},
			ScoreFactors: []ScoreFactor{
				divergenceFactor(0.30, domain.DirectionShort),
				rsiBandFactor(0.25, 14, 65, 72, 85, 100),
				vwapReversionFactor(0.20, domain.DirectionShort),
				rvolFactor(0.15, 1.2),
				rangeRegimeFactor(0.10),
			},
		},
		{
			Type:         "vwap_mean_reversion_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				return ok && snap.Session.RegularHours() &&
					snap.VWAP.DistancePct <= -1.5 &&
					rsi < 40 &&
					snap.Patterns.MarketRegime != domain.RegimeTrendingDown
			},
			ScoreFactors: []ScoreFactor{
				vwapReversionFactor(0.35, domain.DirectionLong),
				rangeRegimeFactor(0.25),
				rsiBandFactor(0.20, 14, 10, 20, 38, 45),
				rvolFactor(0.20, 1.0),
			},
		},
		{
			Type:         "vwap_mean_reversion_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				return ok && snap.Session.RegularHours() &&
					snap.VWAP.DistancePct >= 1.5 &&
					rsi > 60 &&
					snap.Patterns.MarketRegime != domain.RegimeTrendingUp
			},
			ScoreFactors: []ScoreFactor{
				vwapReversionFactor(0.35, domain.DirectionShort),
				rangeRegimeFactor(0.25),
				rsiBandFactor(0.20, 14, 55, 62, 80, 90),
				rvolFactor(0.20, 1.0),
			},
		},
		{
			Type:         "capitulation_bounce_long",
			Direction:    domain.DirectionLong,
			AssetClasses: []domain.AssetClass{domain.AssetStock},
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				rsi, ok := snap.RSIAt(14)
				return ok && snap.Session.RegularHours() &&
					snap.ChangePct() <= -3.0 &&
					rsi <= 25 &&
					snap.Volume.RelativeToAvg >= 2.5
			},
			ScoreFactors: []ScoreFactor{
				rvolFactor(0.30, 2.5),
				rsiBandFactor(0.25, 14, 0, 5, 22, 30),
				vwapReversionFactor(0.25, domain.DirectionLong),
				divergenceFactor(0.20, domain.DirectionLong),
			},
		},
	}
}
