package detect

import (
	"github.com/marketlens/oppscan/internal/domain"
)

// Detector is one declarative opportunity pattern: a fail-closed boolean gate
// plus an ordered list of weighted score factors. Detectors are plain values,
// stateless, and safe to evaluate concurrently across symbols.
type Detector struct {
	// Type is the unique identifier, e.g. "orb_breakout_long".
	Type string

	Direction domain.Direction

	// AssetClasses is the applicability set; the scanner enforces it, the
	// detector itself only guards its own field requirements.
	AssetClasses []domain.AssetClass

	// RequiresOptionsData marks detectors that only run when an options
	// chain context was supplied for the tick.
	RequiresOptionsData bool

	// Backtestable marks detectors whose inputs are reproducible from
	// historical bars (no live-only flow dependence).
	Backtestable bool

	// Gate decides whether the pattern is present. It must return false,
	// never panic, when required fields are absent or the session window
	// does not apply.
	Gate func(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) bool

	ScoreFactors []ScoreFactor
}

// AppliesTo reports whether the detector covers the given asset class.
func (d *Detector) AppliesTo(class domain.AssetClass) bool {
	for _, c := range d.AssetClasses {
		if c == class {
			return true
		}
	}
	return false
}

// Score computes the weighted confluence score, clamped to [0,100], with the
// per-factor contribution breakdown. Weights are validated at registration to
// sum to ~1.0; the engine does not renormalize here.
func (d *Detector) Score(snap *domain.FeatureSnapshot, opts *domain.OptionsChainContext) (float64, []domain.FactorContribution) {
	total := 0.0
	contribs := make([]domain.FactorContribution, 0, len(d.ScoreFactors))
	for _, f := range d.ScoreFactors {
		raw := clampScore(f.Evaluate(snap, opts))
		weighted := f.Weight * raw
		total += weighted
		contribs = append(contribs, domain.FactorContribution{
			Name:     f.Name,
			Weight:   f.Weight,
			Raw:      raw,
			Weighted: weighted,
		})
	}
	return clampScore(total), contribs
}

var (
	allEquity  = []domain.AssetClass{domain.AssetStock, domain.AssetEquityETF}
	allClasses = []domain.AssetClass{domain.AssetStock, domain.AssetEquityETF, domain.AssetIndex}
	etfIndex   = []domain.AssetClass{domain.AssetEquityETF, domain.AssetIndex}
	indexOnly  = []domain.AssetClass{domain.AssetIndex}
)
