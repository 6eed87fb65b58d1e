package domain

// OptionsChainContext summarizes dealer positioning derived from the options
// chain. It is supplied only for detectors that declare RequiresOptionsData;
// a nil context disables those detectors for the tick.
type OptionsChainContext struct {
	// DealerNetGamma is the aggregate dealer gamma exposure in dollars per
	// 1% move. Positive gamma pins price, negative gamma amplifies moves.
	DealerNetGamma float64 `json:"dealer_net_gamma"`

	// MaxGammaStrike is the strike with the largest concentrated gamma
	// exposure (the "gamma wall").
	MaxGammaStrike float64 `json:"max_gamma_strike"`

	// MaxPainStrike is the strike minimizing aggregate option holder value.
	MaxPainStrike float64 `json:"max_pain_strike"`

	// OpenInterestByStrike is the total OI per strike.
	OpenInterestByStrike map[float64]float64 `json:"open_interest_by_strike,omitempty"`

	MinutesToExpiry float64 `json:"minutes_to_expiry"`
	Is0DTE          bool    `json:"is_0dte"`
}

// OIAtStrike looks up open interest at a strike, 0 when unknown.
func (o *OptionsChainContext) OIAtStrike(strike float64) float64 {
	if o == nil || o.OpenInterestByStrike == nil {
		return 0
	}
	return o.OpenInterestByStrike[strike]
}
