package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/marketlens/oppscan/internal/domain"
)

// OptionsProvider supplies the optional chain context for a symbol. A nil
// context with nil error means the provider has no chain for the symbol;
// options-dependent detectors simply do not run that tick.
type OptionsProvider interface {
	ChainContext(ctx context.Context, symbol string) (*domain.OptionsChainContext, error)
}

// HTTPOptionsProvider fetches dealer-positioning summaries from an upstream
// options analytics service. Requests are rate limited and wrapped in a
// circuit breaker so a degraded upstream cannot stall the scan loop.
type HTTPOptionsProvider struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewHTTPOptionsProvider builds a provider for the given base URL. rps bounds
// outbound request rate; burst allows short catch-up bursts after idle.
func NewHTTPOptionsProvider(baseURL string, rps float64, burst int, log zerolog.Logger) *HTTPOptionsProvider {
	settings := gobreaker.Settings{
		Name:    "options-provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state change")
		},
	}
	return &HTTPOptionsProvider{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     log,
	}
}

type chainResponse struct {
	DealerNetGamma       float64            `json:"dealer_net_gamma"`
	MaxGammaStrike       float64            `json:"max_gamma_strike"`
	MaxPainStrike        float64            `json:"max_pain_strike"`
	OpenInterestByStrike map[string]float64 `json:"open_interest_by_strike"`
	MinutesToExpiry      float64            `json:"minutes_to_expiry"`
	Is0DTE               bool               `json:"is_0dte"`
}

// ChainContext fetches the chain summary for a symbol. 404 means no chain,
// returned as (nil, nil).
func (p *HTTPOptionsProvider) ChainContext(ctx context.Context, symbol string) (*domain.OptionsChainContext, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("options rate limit: %w", err)
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetch(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	chain, _ := out.(*domain.OptionsChainContext)
	return chain, nil
}

func (p *HTTPOptionsProvider) fetch(ctx context.Context, symbol string) (*domain.OptionsChainContext, error) {
	url := fmt.Sprintf("%s/v1/chain/%s/summary", p.baseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch chain %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("fetch chain %s: status %d", symbol, resp.StatusCode)
	}

	var body chainResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode chain %s: %w", symbol, err)
	}

	chain := &domain.OptionsChainContext{
		DealerNetGamma:  body.DealerNetGamma,
		MaxGammaStrike:  body.MaxGammaStrike,
		MaxPainStrike:   body.MaxPainStrike,
		MinutesToExpiry: body.MinutesToExpiry,
		Is0DTE:          body.Is0DTE,
	}
	if len(body.OpenInterestByStrike) > 0 {
		chain.OpenInterestByStrike = make(map[float64]float64, len(body.OpenInterestByStrike))
		for k, v := range body.OpenInterestByStrike {
			var strike float64
			if _, err := fmt.Sscanf(k, "%f", &strike); err == nil {
				chain.OpenInterestByStrike[strike] = v
			}
		}
	}
	return chain, nil
}

var _ OptionsProvider = (*HTTPOptionsProvider)(nil)
