package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// gammaDetectors keys off dealer positioning from the options chain context.
// All require options data and fail closed without it. Index and the liquid
// ETFs are the only venues where the dealer gamma picture is reliable.
func gammaDetectors() []Detector {
	return []Detector{
		{
			Type:                "gamma_wall_breach_long",
			Direction:           domain.DirectionLong,
			AssetClasses:        etfIndex,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || opts.MaxGammaStrike <= 0 {
					return false
				}
				// price clearing the wall with dealers short gamma:
				// hedging flow chases the move
				return snap.Session.RegularHours() &&
					opts.DealerNetGamma < 0 &&
					snap.Price.Current > opts.MaxGammaStrike &&
					snap.Volume.RelativeToAvg >= 1.3
			},
			ScoreFactors: []ScoreFactor{
				gammaRegimeFactor(0.30, true),
				gammaWallProximityFactor(0.25, false),
				rvolFactor(0.20, 1.3),
				vwapAlignmentFactor(0.15, domain.DirectionLong),
				flowAlignmentFactor(0.10, domain.DirectionLong),
			},
		},
		{
			Type:                "gamma_wall_breach_short",
			Direction:           domain.DirectionShort,
			AssetClasses:        etfIndex,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || opts.MaxGammaStrike <= 0 {
					return false
				}
				return snap.Session.RegularHours() &&
					opts.DealerNetGamma < 0 &&
					snap.Price.Current < opts.MaxGammaStrike &&
					snap.VWAP.DistancePct < 0 &&
					snap.Volume.RelativeToAvg >= 1.3
			},
			ScoreFactors: []ScoreFactor{
				gammaRegimeFactor(0.30, true),
				gammaWallProximityFactor(0.25, false),
				rvolFactor(0.20, 1.3),
				vwapAlignmentFactor(0.15, domain.DirectionShort),
				flowAlignmentFactor(0.10, domain.DirectionShort),
			},
		},
		{
			Type:                "gamma_pin_fade_short",
			Direction:           domain.DirectionShort,
			AssetClasses:        etfIndex,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || opts.MaxGammaStrike <= 0 {
					return false
				}
				// dealers long gamma pin price to the wall; fade extensions
				// above it back toward the strike
				distPct := (snap.Price.Current - opts.MaxGammaStrike) / opts.MaxGammaStrike * 100
				return snap.Session.RegularHours() &&
					opts.DealerNetGamma > 0 &&
					distPct >= 0.3 && distPct <= 1.5
			},
			ScoreFactors: []ScoreFactor{
				gammaRegimeFactor(0.35, false),
				gammaWallProximityFactor(0.25, true),
				expiryPressureFactor(0.20),
				rangeRegimeFactor(0.20),
			},
		},
		{
			Type:                "gamma_pin_fade_long",
			Direction:           domain.DirectionLong,
			AssetClasses:        etfIndex,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || opts.MaxGammaStrike <= 0 {
					return false
				}
				distPct := (opts.MaxGammaStrike - snap.Price.Current) / opts.MaxGammaStrike * 100
				return snap.Session.RegularHours() &&
					opts.DealerNetGamma > 0 &&
					distPct >= 0.3 && distPct <= 1.5
			},
			ScoreFactors: []ScoreFactor{
				gammaRegimeFactor(0.35, false),
				gammaWallProximityFactor(0.25, true),
				expiryPressureFactor(0.20),
				rangeRegimeFactor(0.20),
			},
		},
		{
			Type:                "zero_dte_squeeze_long",
			Direction:           domain.DirectionLong,
			AssetClasses:        indexOnly,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || !opts.Is0DTE {
					return false
				}
				return snap.Session.RegularHours() &&
					opts.MinutesToExpiry > 0 && opts.MinutesToExpiry <= 240 &&
					opts.DealerNetGamma < 0 &&
					snap.VWAP.DistancePct > 0 &&
					snap.Volume.RelativeToAvg >= 1.5
			},
			ScoreFactors: []ScoreFactor{
				gammaRegimeFactor(0.30, true),
				expiryPressureFactor(0.25),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
				rvolFactor(0.15, 1.5),
				flowAlignmentFactor(0.10, domain.DirectionLong),
			},
		},
		{
			Type:                "zero_dte_squeeze_short",
			Direction:           domain.DirectionShort,
			AssetClasses:        indexOnly,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || !opts.Is0DTE {
					return false
				}
				return snap.Session.RegularHours() &&
					opts.MinutesToExpiry > 0 && opts.MinutesToExpiry <= 240 &&
					opts.DealerNetGamma < 0 &&
					snap.VWAP.DistancePct < 0 &&
					snap.Volume.RelativeToAvg >= 1.5
			},
			ScoreFactors: []ScoreFactor{
				gammaRegimeFactor(0.30, true),
				expiryPressureFactor(0.25),
				vwapAlignmentFactor(0.20, domain.DirectionShort),
				rvolFactor(0.15, 1.5),
				flowAlignmentFactor(0.10, domain.DirectionShort),
			},
		},
		{
			Type:                "max_pain_drift_short",
			Direction:           domain.DirectionShort,
			AssetClasses:        etfIndex,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || opts.MaxPainStrike <= 0 {
					return false
				}
				// late-session drift back toward max pain when price runs
				// above it into expiry with dealers long gamma
				return snap.Session.RegularHours() &&
					opts.MinutesToExpiry > 0 && opts.MinutesToExpiry <= 120 &&
					opts.DealerNetGamma > 0 &&
					snap.Price.Current >= opts.MaxPainStrike*1.01
			},
			ScoreFactors: []ScoreFactor{
				expiryPressureFactor(0.35),
				gammaRegimeFactor(0.25, false),
				rangeRegimeFactor(0.20),
				vwapAlignmentFactor(0.20, domain.DirectionShort),
			},
		},
		{
			Type:                "max_pain_drift_long",
			Direction:           domain.DirectionLong,
			AssetClasses:        etfIndex,
			RequiresOptionsData: true,
			Gate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool {
				if opts == nil || opts.MaxPainStrike <= 0 {
					return false
				}
				return snap.Session.RegularHours() &&
					opts.MinutesToExpiry > 0 && opts.MinutesToExpiry <= 120 &&
					opts.DealerNetGamma > 0 &&
					snap.Price.Current <= opts.MaxPainStrike*0.99
			},
			ScoreFactors: []ScoreFactor{
				expiryPressureFactor(0.35),
				gammaRegimeFactor(0.25, false),
				rangeRegimeFactor(0.20),
				vwapAlignmentFactor(0.20, domain.DirectionLong),
			},
		},
	}
}
