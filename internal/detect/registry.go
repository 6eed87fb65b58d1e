package detect

import (
	"fmt"
	"math"

	"github.com/marketlens/oppscan/internal/domain"
)

// WeightSumTolerance is how far a detector's factor weights may drift from
// 1.0 before registration fails. Weight hygiene is an authoring invariant
// enforced here, at startup, rather than at scan time.
const WeightSumTolerance = 0.02

// Registry is the fixed catalog of detectors. Construct it once at startup;
// it is immutable and safe for concurrent readers afterwards.
type Registry struct {
	detectors []Detector
	byType    map[string]*Detector
}

// NewRegistry validates and indexes the given detectors.
func NewRegistry(detectors []Detector) (*Registry, error) {
	r := &Registry{
		detectors: detectors,
		byType:    make(map[string]*Detector, len(detectors)),
	}
	for i := range r.detectors {
		d := &r.detectors[i]
		if err := validateDetector(d); err != nil {
			return nil, fmt.Errorf("detector %q: %w", d.Type, err)
		}
		if _, dup := r.byType[d.Type]; dup {
			return nil, fmt.Errorf("detector %q: duplicate type", d.Type)
		}
		r.byType[d.Type] = d
	}
	return r, nil
}

// DefaultRegistry builds the full production catalog.
func DefaultRegistry() (*Registry, error) {
	var all []Detector
	all = append(all, breakoutDetectors()...)
	all = append(all, momentumDetectors()...)
	all = append(all, reversalDetectors()...)
	all = append(all, vwapDetectors()...)
	all = append(all, sessionDetectors()...)
	all = append(all, flowDetectors()...)
	all = append(all, gammaDetectors()...)
	return NewRegistry(all)
}

func validateDetector(d *Detector) error {
	if d.Type == "" {
		return fmt.Errorf("empty type")
	}
	if d.Direction != domain.DirectionLong && d.Direction != domain.DirectionShort {
		return fmt.Errorf("invalid direction %q", d.Direction)
	}
	if len(d.AssetClasses) == 0 {
		return fmt.Errorf("empty asset class set")
	}
	if d.Gate == nil {
		return fmt.Errorf("nil gate")
	}
	if len(d.ScoreFactors) == 0 {
		return fmt.Errorf("no score factors")
	}
	sum := 0.0
	for _, f := range d.ScoreFactors {
		if f.Evaluate == nil {
			return fmt.Errorf("factor %q: nil evaluate", f.Name)
		}
		if f.Weight <= 0 || f.Weight > 1 {
			return fmt.Errorf("factor %q: weight %.3f outside (0,1]", f.Name, f.Weight)
		}
		sum += f.Weight
	}
	if math.Abs(sum-1.0) > WeightSumTolerance {
		return fmt.Errorf("factor weights sum to %.3f, want 1.0±%.2f", sum, WeightSumTolerance)
	}
	return nil
}

// All returns every registered detector.
func (r *Registry) All() []Detector {
	return r.detectors
}

// Get looks up a detector by type.
func (r *Registry) Get(detectorType string) (*Detector, bool) {
	d, ok := r.byType[detectorType]
	return d, ok
}

// Len is the catalog size.
func (r *Registry) Len() int {
	return len(r.detectors)
}

// ForClass returns the detectors applicable to an asset class, excluding
// options-dependent detectors when withOptions is false.
func (r *Registry) ForClass(class domain.AssetClass, withOptions bool) []Detector {
	return r.filter(func(d *Detector) bool {
		if !d.AppliesTo(class) {
			return false
		}
		return withOptions || !d.RequiresOptionsData
	})
}

// EquityOnly returns detectors that never apply to index symbols.
func (r *Registry) EquityOnly() []Detector {
	return r.filter(func(d *Detector) bool { return !d.AppliesTo(domain.AssetIndex) })
}

// IndexOnly returns detectors whose scope includes index symbols.
func (r *Registry) IndexOnly() []Detector {
	return r.filter(func(d *Detector) bool { return d.AppliesTo(domain.AssetIndex) })
}

// OptionsDependent returns detectors that require an options chain context.
func (r *Registry) OptionsDependent() []Detector {
	return r.filter(func(d *Detector) bool { return d.RequiresOptionsData })
}

// FlowPrimary returns detectors whose first-listed factor reads the options
// flow tape (sweep/flow/large-trade/pressure factors).
func (r *Registry) FlowPrimary() []Detector {
	return r.filter(func(d *Detector) bool {
		if len(d.ScoreFactors) == 0 {
			return false
		}
		switch d.ScoreFactors[0].Name {
		case "flow_alignment", "sweep_intensity", "large_trades", "buy_pressure":
			return true
		}
		return false
	})
}

// Backtestable returns detectors reproducible from historical bars.
func (r *Registry) Backtestable() []Detector {
	return r.filter(func(d *Detector) bool { return d.Backtestable })
}

func (r *Registry) filter(keep func(*Detector) bool) []Detector {
	out := make([]Detector, 0, len(r.detectors))
	for i := range r.detectors {
		if keep(&r.detectors[i]) {
			out = append(out, r.detectors[i])
		}
	}
	return out
}
