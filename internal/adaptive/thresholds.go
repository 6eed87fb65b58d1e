package adaptive

import (
	"github.com/marketlens/oppscan/internal/config"
	"github.com/marketlens/oppscan/internal/domain"
)

// Thresholds are the effective emission thresholds after asset-class
// resolution. Only these gate emission; confidence never does.
type Thresholds struct {
	MinBaseScore  float64
	MinStyleScore float64
	MinRiskReward float64
}

// Resolve applies the asset-class override on top of the base thresholds.
// Absent override fields fall through to the base values.
func Resolve(class domain.AssetClass, cfg *config.ScannerConfig) Thresholds {
	t := Thresholds{
		MinBaseScore:  cfg.Thresholds.MinBaseScore,
		MinStyleScore: cfg.Thresholds.MinStyleScore,
		MinRiskReward: cfg.Thresholds.MinRiskReward,
	}
	ov, ok := cfg.AssetOverrides[class]
	if !ok {
		return t
	}
	if ov.MinBaseScore != nil {
		t.MinBaseScore = *ov.MinBaseScore
	}
	if ov.MinStyleScore != nil {
		t.MinStyleScore = *ov.MinStyleScore
	}
	if ov.MinRiskReward != nil {
		t.MinRiskReward = *ov.MinRiskReward
	}
	return t
}

// StyleScore derives the secondary "style" score checked against
// MinStyleScore: the raw composite adjusted for regime fit and session
// placement. A detection that fires against its regime or deep in the
// lunchtime chop carries less style than its raw confluence suggests.
func StyleScore(raw float64, snap *domain.FeatureSnapshot, dir domain.Direction) float64 {
	score := raw

	switch snap.Patterns.MarketRegime {
	case domain.RegimeTrendingUp:
		if dir == domain.DirectionShort {
			score -= 15
		}
	case domain.RegimeTrendingDown:
		if dir == domain.DirectionLong {
			score -= 15
		}
	case domain.RegimeHighVol:
		score -= 10
	}

	// midday drift window trades poorly for every style
	m := snap.Session.MinutesSinceOpen
	if m >= 150 && m <= 270 {
		score -= 8
	}

	return clamp(score)
}

// RiskReward derives the implied risk/reward for the detection from ATR
// geometry: stop at 1.2 ATR against the entry, target at the larger of
// 2 ATR and the VWAP re-touch distance. Without ATR data a conservative
// 1.0 is reported so the minimum-RR threshold bites.
func RiskReward(snap *domain.FeatureSnapshot, dir domain.Direction) float64 {
	atr, ok := snap.ATRAt(14)
	if !ok || atr <= 0 || snap.Price.Current <= 0 {
		return 1.0
	}
	risk := 1.2 * atr
	reward := 2.0 * atr
	// mean-reversion style entries can also count the VWAP distance
	vwapDist := snap.VWAP.Value - snap.Price.Current
	if dir == domain.DirectionShort {
		vwapDist = -vwapDist
	}
	if vwapDist > reward {
		reward = vwapDist
	}
	if risk <= 0 {
		return 1.0
	}
	return reward / risk
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
