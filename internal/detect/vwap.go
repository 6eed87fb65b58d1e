package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// vwapDetectors covers reclaim/rejection plays around the session VWAP.
func vwapDetectors() []Detector {
	return []Detector{
		{
			Type:         "vwap_reclaim_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				// freshly back above VWAP after opening below it
				return snap.Session.RegularHours() &&
					snap.VWAP.Value > 0 &&
					snap.VWAP.DistancePct > 0 && snap.VWAP.DistancePct <= 0.4 &&
					snap.Price.Open < snap.VWAP.Value &&
					snap.Volume.RelativeToAvg >= 1.2
			},
			ScoreFactors: []ScoreFactor{
				vwapAlignmentFactor(0.30, domain.DirectionLong),
				rvolFactor(0.25, 1.2),
				emaTrendFactor(0.20, domain.DirectionLong, 9, 21),
				regimeFitFactor(0.15, domain.DirectionLong),
				multiTimeframeFactor(0.10, domain.DirectionLong),
			},
		},
		{
			Type:         "vwap_rejection_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				// tested VWAP from below and failed: intraday high pierced
				// it but price trades back under
				return snap.Session.RegularHours() &&
					snap.VWAP.Value > 0 &&
					snap.VWAP.DistancePct < 0 &&
					snap.Price.High >= snap.VWAP.Value &&
					snap.Volume.RelativeToAvg >= 1.2
			},
			ScoreFactors: []ScoreFactor{
				vwapAlignmentFactor(0.30, domain.DirectionShort),
				rvolFactor(0.25, 1.2),
				emaTrendFactor(0.20, domain.DirectionShort, 9, 21),
				regimeFitFactor(0.15, domain.DirectionShort),
				multiTimeframeFactor(0.10, domain.DirectionShort),
			},
		},
	}
}
