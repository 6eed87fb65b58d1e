package adaptive

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// Confidence derives the advisory confidence value attached to an emitted
// signal. It starts from the raw composite score and is re-weighted by data
// quality, regime stability, and flow/multi-timeframe confirmation. It is
// metadata only: emission is gated exclusively by the resolved thresholds.
func Confidence(raw float64, snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext, dir domain.Direction) float64 {
	conf := raw

	conf *= dataQualityMultiplier(snap, opts)
	conf *= regimeMultiplier(snap)
	conf *= confirmationMultiplier(snap, dir)

	return clamp(conf)
}

// dataQualityMultiplier penalizes thin snapshots: each missing optional
// block (flow, options, multi-timeframe, core indicators) shaves confidence.
func dataQualityMultiplier(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) float64 {
	m := 1.0
	if snap.Flow == nil {
		m -= 0.08
	}
	if opts == nil {
		m -= 0.05
	}
	if len(snap.Timeframes) == 0 {
		m -= 0.07
	}
	if _, ok := snap.RSIAt(14); !ok {
		m -= 0.05
	}
	if _, ok := snap.ATRAt(14); !ok {
		m -= 0.05
	}
	if snap.Volume.RelativeToAvg <= 0 {
		m -= 0.10
	}
	return m
}

// regimeMultiplier discounts unstable tape.
func regimeMultiplier(snap *domain.FeatureSnapshot) float64 {
	switch snap.Patterns.MarketRegime {
	case domain.RegimeHighVol:
		return 0.85
	case domain.RegimeUnknown:
		return 0.92
	default:
		return 1.0
	}
}

// confirmationMultiplier rewards institutional flow and higher-timeframe
// agreement with the signal direction, and penalizes contradicting flow.
func confirmationMultiplier(snap *domain.FeatureSnapshot, dir domain.Direction) float64 {
	m := 1.0

	if fl := snap.Flow; fl != nil {
		aligned := (dir == domain.DirectionLong && fl.FlowBias == domain.FlowBullish) ||
			(dir == domain.DirectionShort && fl.FlowBias == domain.FlowBearish)
		opposed := (dir == domain.DirectionLong && fl.FlowBias == domain.FlowBearish) ||
			(dir == domain.DirectionShort && fl.FlowBias == domain.FlowBullish)
		switch {
		case aligned && fl.FlowScore >= 70:
			m += 0.12
		case aligned:
			m += 0.06
		case opposed:
			m -= 0.12
		}
	}

	if len(snap.Timeframes) > 0 {
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
		if total > 0 {
			frac := float64(aligned) / float64(total)
			// full agreement +10%, full disagreement -10%
			m += (frac - 0.5) * 0.2
		}
	}

	return m
}
