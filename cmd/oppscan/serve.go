package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/marketlens/oppscan/internal/dedup"
)

// serveOps exposes the operational surface next to the scan loop: Prometheus
// metrics, dedup store stats for dashboards, and a liveness probe.
func serveOps(ctx context.Context, addr string, promReg *prometheus.Registry, store dedup.Store) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	r.HandleFunc("/stats", func(w http.ResponseWriter, req *http.Request) {
		st, err := store.Stats(req.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_signals":     st.TotalSignals,
			"unique_symbols":    st.UniqueSymbols,
			"oldest_signal_age": st.OldestSignal.String(),
			"newest_signal_age": st.NewestSignal.String(),
		})
	}).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info().Str("addr", addr).Msg("ops server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("ops server stopped")
	}
}
