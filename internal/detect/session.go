package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// sessionDetectors covers time-of-day plays: opening drives in the first half
// hour and power-hour pushes in the last.
func sessionDetectors() []Detector {
	return []Detector{
		{
			Type:         "opening_drive_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Session.MinutesSinceOpen > 0 &&
					snap.Session.MinutesSinceOpen <= 30 &&
					snap.ChangePct() >= 1.0 &&
					snap.Price.Current > snap.Price.Open &&
					snap.Volume.RelativeToAvg >= 2.0
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.30, domain.DirectionLong),
				rvolFactor(0.30, 2.0),
				sessionTimingFactor(0.20, 0, 30),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
			},
		},
		{
			Type:         "opening_drive_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allEquity,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Session.MinutesSinceOpen > 0 &&
					snap.Session.MinutesSinceOpen <= 30 &&
					snap.ChangePct() <= -1.0 &&
					snap.Price.Current < snap.Price.Open &&
					snap.Volume.RelativeToAvg >= 2.0
			},
			ScoreFactors: []ScoreFactor{
				breakoutMagnitudeFactor(0.30, domain.DirectionShort),
				rvolFactor(0.30, 2.0),
				sessionTimingFactor(0.20, 0, 30),
				vwapAlignmentFactor(0.20, domain.DirectionShort),
			},
		},
		{
			Type:         "power_hour_momentum_long",
			Direction:    domain.DirectionLong,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Session.MinutesSinceOpen >= 330 &&
					snap.Session.MinutesSinceOpen <= 390 &&
					snap.VWAP.DistancePct > 0.3 &&
					snap.Volume.RelativeToAvg >= 1.5
			},
			ScoreFactors: []ScoreFactor{
				vwapAlignmentFactor(0.30, domain.DirectionLong),
				rvolFactor(0.25, 1.5),
				sessionTimingFactor(0.20, 330, 390),
				regimeFitFactor(0.25, domain.DirectionLong),
			},
		},
		{
			Type:         "power_hour_momentum_short",
			Direction:    domain.DirectionShort,
			AssetClasses: allClasses,
			Backtestable: true,
			Gate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) bool {
				return snap.Session.RegularHours() &&
					snap.Session.MinutesSinceOpen >= 330 &&
					snap.Session.MinutesSinceOpen <= 390 &&
					snap.VWAP.DistancePct < -0.3 &&
					snap.Volume.RelativeToAvg >= 1.5
			},
			ScoreFactors: []ScoreFactor{
				vwapAlignmentFactor(0.30, domain.DirectionShort),
				rvolFactor(0.25, 1.5),
				sessionTimingFactor(0.20, 330, 390),
				regimeFitFactor(0.25, domain.DirectionShort),
			},
		},
	}
}
