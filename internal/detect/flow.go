package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// flowDetectors keys primarily off options order-flow aggregates on the
// snapshot. They fail closed when the snapshot carries no flow block and are
// not backtestable (the flow tape is live-only).
func flowDetectors() []Detector {
	return []Detector{
		{
			Type:         "sweep_momentum_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				fl := snap.Flow
				return fl != nil && snap.Session.RegularHours() &&
					fl.SweepCount >= 3 &&
					fl.FlowBias == domain.FlowBullish &&
					fl.BuyPressure >= 0.65 &&
					snap.VWAP.DistancePct > 0
			},
			ScoreFactors: []ScoreFactor{
				sweepIntensityFactor(0.30),
				flowAlignmentFactor(0.25, domain.DirectionLong),
				buyPressureFactor(0.20, domain.DirectionLong),
				vwapAlignmentFactor(0.15, domain.DirectionLong),
				rvolFactor(0.10, 1.2),
			},
		},
		{
			Type:         "sweep_momentum_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allEquity,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				fl := snap.Flow
				return fl != nil && snap.Session.RegularHours() &&
					fl.SweepCount >= 3 &&
					fl.FlowBias == domain.FlowBearish &&
					fl.BuyPressure <= 0.35 &&
					snap.VWAP.DistancePct < 0
			},
			ScoreFactors: []ScoreFactor{
				sweepIntensityFactor(0.30),
				flowAlignmentFactor(0.25, domain.DirectionShort),
				buyPressureFactor(0.20, domain.DirectionShort),
				vwapAlignmentFactor(0.15, domain.DirectionShort),
				rvolFactor(0.10, 1.2),
			},
		},
		{
			Type:         "institutional_accumulation_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				fl := snap.Flow
				return fl != nil && snap.Session.RegularHours() &&
					fl.LargeTradePct >= 40 &&
					fl.FlowScore >= 70 &&
					fl.FlowBias == domain.FlowBullish
			},
			ScoreFactors: []ScoreFactor{
				largeTradeFactor(0.30),
				flowAlignmentFactor(0.30, domain.DirectionLong),
				buyPressureFactor(0.15, domain.DirectionLong),
				vwapAlignmentFactor(0.15, domain.DirectionLong),
				regimeFitFactor(0.10, domain.DirectionLong),
			},
		},
		{
			Type:         "aggressive_flow_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				fl := snap.Flow
				return fl != nil && snap.Session.RegularHours() &&
					fl.Aggressiveness >= 70 &&
					fl.FlowBias == domain.FlowBullish &&
					snap.Volume.RelativeToAvg >= 1.2
			},
			ScoreFactors: []ScoreFactor{
				flowAlignmentFactor(0.35, domain.DirectionLong),
				buyPressureFactor(0.25, domain.DirectionLong),
				sweepIntensityFactor(0.15),
				rvolFactor(0.15, 1.2),
				vwapAlignmentFactor(0.10, domain.DirectionLong),
			},
		},
		{
			Type:         "aggressive_flow_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allEquity,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				fl := snap.Flow
				return fl != nil && snap.Session.RegularHours() &&
					fl.Aggressiveness >= 70 &&
					fl.FlowBias == domain.FlowBearish &&
					snap.Volume.RelativeToAvg >= 1.2
			},
			ScoreFactors: []ScoreFactor{
				flowAlignmentFactor(0.35, domain.DirectionShort),
				buyPressureFactor(0.25, domain.DirectionShort),
				sweepIntensityFactor(0.15),
				rvolFactor(0.15, 1.2),
				vwapAlignmentFactor(0.10, domain.DirectionShort),
			},
		},
	}
}
