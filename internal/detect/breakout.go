package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// breakoutDetectors covers opening-range and intraday range breaks. All gate
// on the upstream breakout pattern flags plus volume and VWAP confirmation so
// a flag alone never fires.
func breakoutDetectors() []Detector {
	return []Detector{
		{
			Type:         "orb_breakout_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				if !snap.Session.RegularHours() {
					return false
				}
				m := snap.Session.MinutesSinceOpen
				return m >= 15 && m <= 90 &&
					snap.Patterns.BreakoutUp &&
					snap.Volume.RelativeToAvg >= 1.5 &&
					snap.VWAP.DistancePct > 0
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.30, domain.DirectionLong),
				rvolFactor(0.25, 1.5),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
				sessionTimingFactor(0.15, 15, 90),
				regimeFitFactor(0.10, domain.DirectionLong),
			},
		},
		{
			Type:         "orb_breakdown_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				if !snap.Session.RegularHours() {
					return false
				}
				m := snap.Session.MinutesSinceOpen
				return m >= 15 && m <= 90 &&
					snap.Patterns.BreakoutDown &&
					snap.Volume.RelativeToAvg >= 1.5 &&
					snap.VWAP.DistancePct < 0
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.30, domain.DirectionShort),
				rvolFactor(0.25, 1.5),
				vwapAlignmentFactor(0.20, domain.DirectionShort),
				sessionTimingFactor(0.15, 15, 90),
				regimeFitFactor(0.10, domain.DirectionShort),
			},
		},
		{
			Type:         "range_breakout_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Patterns.BreakoutUp &&
					snap.Volume.RelativeToAvg >= 2.0 &&
					snap.Price.Current >= snap.Price.High*0.999 &&
					snap.Price.High > 0
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.35, domain.DirectionLong),
				rvolFactor(0.30, 2.0),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
				multiTimeframeFactor(0.15, domain.DirectionLong),
			},
		},
		{
			Type:         "range_breakdown_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Patterns.BreakoutDown &&
					snap.Volume.RelativeToAvg >= 2.0 &&
					snap.Price.Low > 0 &&
					snap.Price.Current <= snap.Price.Low*1.001
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.35, domain.DirectionShort),
				rvolFactor(0.30, 2.0),
				vwapAlignmentFactor(0.20, domain.DirectionShort),
				multiTimeframeFactor(0.15, domain.DirectionShort),
			},
		},
		{
			Type:         "volume_surge_breakout_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Volume.RelativeToAvg >= 3.0 &&
					snap.ChangePct() >= 0.5 &&
					snap.VWAP.DistancePct > 0
			},
			ScoreFactors: []ScoreFactor{
				rvolFactor(0.40, 3.0),
				breakoutMagnitudeFactor(0.25, domain.DirectionLong),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
				regimeFitFactor(0.15, domain.DirectionLong),
			},
		},
	}
}
