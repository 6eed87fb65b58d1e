package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChainContextFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chain/SPX/summary", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"dealer_net_gamma": -2500000,
			"max_gamma_strike": 5050,
			"max_pain_strike": 5000,
			"open_interest_by_strike": {"5000": 12000, "5050": 8000},
			"minutes_to_expiry": 180,
			"is_0dte": true
		}`)
	}))
	defer srv.Close()

	p := NewHTTPOptionsProvider(srv.URL, 100, 10, zerolog.Nop())
	chain, err := p.ChainContext(context.Background(), "SPX")
	require.NoError(t, err)
	require.NotNil(t, chain)

	assert.Equal(t, -2500000.0, chain.DealerNetGamma)
	assert.Equal(t, 5050.0, chain.MaxGammaStrike)
	assert.Equal(t, 5000.0, chain.MaxPainStrike)
	assert.Equal(t, 180.0, chain.MinutesToExpiry)
	assert.True(t, chain.Is0DTE)
	assert.Equal(t, 12000.0, chain.OIAtStrike(5000))
	assert.Equal(t, 8000.0, chain.OIAtStrike(5050))
}

func TestChainContextNoChain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewHTTPOptionsProvider(srv.URL, 100, 10, zerolog.Nop())
	chain, err := p.ChainContext(context.Background(), "XYZ")
	require.NoError(t, err, "no chain is not an error")
	assert.Nil(t, chain)
}

func TestChainContextUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPOptionsProvider(srv.URL, 100, 10, zerolog.Nop())
	_, err := p.ChainContext(context.Background(), "SPX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewHTTPOptionsProvider(srv.URL, 1000, 100, zerolog.Nop())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := p.ChainContext(ctx, "SPX")
		require.Error(t, err)
	}
	// breaker is open now: the next call fails fast without hitting upstream
	_, err := p.ChainContext(ctx, "SPX")
	require.Error(t, err)
	assert.Equal(t, 5, calls)
}

func TestChainContextMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"dealer_net_gamma": "not a number"`)
	}))
	defer srv.Close()

	p := NewHTTPOptionsProvider(srv.URL, 100, 10, zerolog.Nop())
	_, err := p.ChainContext(context.Background(), "SPX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode chain")
}
