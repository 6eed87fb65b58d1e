package detect

import (
	"math"

	"github.com/marketlens/oppscan/internal/domain"
)

// ScoreFactor is a named, weighted, pure scoring function. Evaluate must
// return a finite value in [0,100] for any syntactically valid snapshot,
// including one with missing optional fields. Missing-data handling is
// factor-specific: neutral (50) when the feature is incidental, 0 when it is
// essential to the factor's semantics. Factors never panic.
type ScoreFactor struct {
	Name     string
	Weight   float64
	Evaluate func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) float64
}

const neutralScore = 50.0

func clampScore(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// scaleTo maps v linearly from [lo,hi] onto [0,100], clamped.
func scaleTo(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	return clampScore((v - lo) / (hi - lo) * 100)
}

// rvolFactor rewards relative volume approaching and exceeding target.
// Scores 50 at target, 100 at 2x target, 0 with no volume data.
func rvolFactor(weight, target float64) ScoreFactor {
	return ScoreFactor{
		Name:   "relative_volume",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			rvol := snap.Volume.RelativeToAvg
			if rvol <= 0 {
				return 0
			}
			return scaleTo(rvol, 0, 2*target)
		},
	}
}

// vwapAlignmentFactor rewards price extension from VWAP in the trade
// direction. Neutral at VWAP, full score at ±2% favorable deviation.
func vwapAlignmentFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "vwap_alignment",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			dist := snap.VWAP.DistancePct
			if dir == domain.DirectionShort {
				dist = -dist
			}
			return scaleTo(dist, -2, 2)
		},
	}
}

// vwapReversionFactor rewards stretched deviation against the trade
// direction, for mean-reversion entries. Full score at 3% adverse stretch.
func vwapReversionFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "vwap_stretch",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			stretch := -snap.VWAP.DistancePct
			if dir == domain.DirectionShort {
				stretch = snap.VWAP.DistancePct
			}
			return scaleTo(stretch, 0, 3)
		},
	}
}

// rsiBandFactor scores RSI proximity to an ideal band. Peaks inside
// [idealLo, idealHi], decays to 0 at hardLo/hardHi, neutral without RSI data.
func rsiBandFactor(weight float64, period int, hardLo, idealLo, idealHi, hardHi float64) ScoreFactor {
	return ScoreFactor{
		Name:   "rsi_band",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			rsi, ok := snap.RSIAt(period)
			if !ok {
				return neutralScore
			}
			switch {
			case rsi >= idealLo && rsi <= idealHi:
				return 100
			case rsi > hardLo && rsi < idealLo:
				return scaleTo(rsi, hardLo, idealLo)
			case rsi > idealHi && rsi < hardHi:
				return scaleTo(hardHi-rsi, 0, hardHi-idealHi)
			default:
				return 0
			}
		},
	}
}

// emaTrendFactor rewards fast/slow EMA alignment with the trade direction,
// scaled by the spread between the averages. Neutral without both EMAs.
func emaTrendFactor(weight float64, dir domain.Direction, fast, slow int) ScoreFactor {
	return ScoreFactor{
		Name:   "ema_trend",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			f, okF := snap.EMAAt(fast)
			s, okS := snap.EMAAt(slow)
			if !okF || !okS || s == 0 {
				return neutralScore
			}
			spreadPct := (f - s) / s * 100
			if dir == domain.DirectionShort {
				spreadPct = -spreadPct
			}
			return scaleTo(spreadPct, -0.5, 0.5)
		},
	}
}

// regimeFitFactor scores compatibility between the flagged market regime and
// the trade direction. Unknown regime is neutral.
func regimeFitFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "regime_fit",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			switch snap.Patterns.MarketRegime {
			case domain.RegimeTrendingUp:
				if dir == domain.DirectionLong {
					return 100
				}
				return 20
			case domain.RegimeTrendingDown:
				if dir == domain.DirectionShort {
					return 100
				}
				return 20
			case domain.RegimeRangeBound:
				return 40
			case domain.RegimeHighVol:
				return 30
			default:
				return neutralScore
			}
		},
	}
}

// rangeRegimeFactor is the mean-reversion counterpart: range-bound markets
// score highest, trending markets lowest.
func rangeRegimeFactor(weight float64) ScoreFactor {
	return ScoreFactor{
		Name:   "range_regime",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			switch snap.Patterns.MarketRegime {
			case domain.RegimeRangeBound:
				return 100
			case domain.RegimeHighVol:
				return 40
			case domain.RegimeTrendingUp, domain.RegimeTrendingDown:
				return 15
			default:
				return neutralScore
			}
		},
	}
}

// breakoutMagnitudeFactor rewards distance traveled beyond the prior close in
// the trade direction, normalized by ATR when available.
func breakoutMagnitudeFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "breakout_magnitude",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			move := snap.Price.Current - snap.Price.PrevClose
			if dir == domain.DirectionShort {
				move = -move
			}
			if atr, ok := snap.ATRAt(14); ok && atr > 0 {
				return scaleTo(move/atr, 0, 2)
			}
			if snap.Price.PrevClose <= 0 {
				return 0
			}
			return scaleTo(move/snap.Price.PrevClose*100, 0, 3)
		},
	}
}

// sessionTimingFactor peaks when the snapshot falls inside the detector's
// preferred minutes-since-open window and decays outside it.
func sessionTimingFactor(weight, windowStart, windowEnd float64) ScoreFactor {
	return ScoreFactor{
		Name:   "session_timing",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			m := snap.Session.MinutesSinceOpen
			if m >= windowStart && m <= windowEnd {
				return 100
			}
			span := windowEnd - windowStart
			if span <= 0 {
				return 0
			}
			if m < windowStart {
				return scaleTo(m, windowStart-span, windowStart)
			}
			return scaleTo(windowEnd+span-m, 0, span)
		},
	}
}

// flowAlignmentFactor scores options-flow confirmation of the trade
// direction. Essential to flow detectors, so missing flow scores 0.
func flowAlignmentFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "flow_alignment",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			fl := snap.Flow
			if fl == nil {
				return 0
			}
			aligned := (dir == domain.DirectionLong && fl.FlowBias == domain.FlowBullish) ||
				(dir == domain.DirectionShort && fl.FlowBias == domain.FlowBearish)
			if !aligned {
				if fl.FlowBias == domain.FlowNeutral {
					return 30
				}
				return 0
			}
			return clampScore(fl.FlowScore)
		},
	}
}

// buyPressureFactor scores aggressive take-side participation. BuyPressure is
// a 0-1 fraction; shorts invert it.
func buyPressureFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "buy_pressure",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			if snap.Flow == nil {
				return 0
			}
			p := snap.Flow.BuyPressure
			if dir == domain.DirectionShort {
				p = 1 - p
			}
			return scaleTo(p, 0.5, 0.9)
		},
	}
}

// sweepIntensityFactor rewards clustered sweep activity. 0 without flow data.
func sweepIntensityFactor(weight float64) ScoreFactor {
	return ScoreFactor{
		Name:   "sweep_intensity",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			if snap.Flow == nil {
				return 0
			}
			return scaleTo(float64(snap.Flow.SweepCount), 0, 8)
		},
	}
}

// largeTradeFactor rewards block-sized participation in the flow tape.
func largeTradeFactor(weight float64) ScoreFactor {
	return ScoreFactor{
		Name:   "large_trades",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			if snap.Flow == nil {
				return 0
			}
			return scaleTo(snap.Flow.LargeTradePct, 10, 60)
		},
	}
}

// divergenceFactor scores the precomputed RSI/price divergence flag for the
// trade direction. Binary feature: present scores 100, absent 20 (the gate
// usually requires it, so absence only happens for optional uses).
func divergenceFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "divergence",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			if dir == domain.DirectionLong && snap.Patterns.BullishDivergence {
				return 100
			}
			if dir == domain.DirectionShort && snap.Patterns.BearishDivergence {
				return 100
			}
			return 20
		},
	}
}

// multiTimeframeFactor rewards higher-timeframe agreement: each nested
// snapshot whose VWAP deviation and EMA trend agree with the direction adds
// confirmation. Neutral when no higher timeframes were supplied.
func multiTimeframeFactor(weight float64, dir domain.Direction) ScoreFactor {
	return ScoreFactor{
		Name:   "mtf_alignment",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, _ *domain.OptionsChainContext) float64 {
			if len(snap.Timeframes) == 0 {
				return neutralScore
			}
			aligned, total := 0, 0
			for _, tf := range snap.Timeframes {
				if tf == nil {
					continue
				}
				total++
				dist := tf.VWAP.DistancePct
				if dir == domain.DirectionShort {
					dist = -dist
				}
				if dist > 0 {
					aligned++
				}
			}
			if total == 0 {
				return neutralScore
			}
			return scaleTo(float64(aligned)/float64(total), 0, 1)
		},
	}
}

// gammaRegimeFactor scores dealer gamma posture for the detector's thesis.
// amplify=true favors negative dealer gamma (moves extend); amplify=false
// favors positive gamma (moves pin). 0 without options data.
func gammaRegimeFactor(weight float64, amplify bool) ScoreFactor {
	return ScoreFactor{
		Name:   "gamma_regime",
		Weight: weight,
		Evaluate: func(_ *domain.FeatureSnapshot, opts *domain.OptionsChainContext) float64 {
			if opts == nil {
				return 0
			}
			g := opts.DealerNetGamma
			if amplify {
				g = -g
			}
			// normalize on a $5M/1% exposure scale
			return scaleTo(g, 0, 5_000_000)
		},
	}
}

// gammaWallProximityFactor scores distance from the max-gamma strike.
// near=true peaks at the wall (pin plays); near=false peaks away from it
// (breach plays clear of the wall's influence).
func gammaWallProximityFactor(weight float64, near bool) ScoreFactor {
	return ScoreFactor{
		Name:   "gamma_wall_proximity",
		Weight: weight,
		Evaluate: func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) float64 {
			if opts == nil || opts.MaxGammaStrike <= 0 || snap.Price.Current <= 0 {
				return 0
			}
			distPct := math.Abs(snap.Price.Current-opts.MaxGammaStrike) / opts.MaxGammaStrike * 100
			if near {
				return scaleTo(1.0-distPct, 0, 1.0)
			}
			return scaleTo(distPct, 0, 1.5)
		},
	}
}

// expiryPressureFactor rewards proximity to expiry, where dealer hedging
// flows are most forceful. 0 without options data.
func expiryPressureFactor(weight float64) ScoreFactor {
	return ScoreFactor{
		Name:   "expiry_pressure",
		Weight: weight,
		Evaluate: func(_ *domain.FeatureSnapshot, opts *domain.OptionsChainContext) float64 {
			if opts == nil || opts.MinutesToExpiry <= 0 {
				return 0
			}
			return scaleTo(390-opts.MinutesToExpiry, 0, 390)
		},
	}
}
