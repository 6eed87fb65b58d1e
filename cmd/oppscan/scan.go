package main

import (
	"os/signal"
	"strings"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/marketlens/oppscan/internal/config"
	"github.com/marketlens/oppscan/internal/dedup"
	"github.com/marketlens/oppscan/internal/detect"
	"github.com/marketlens/oppscan/internal/domain"
	"github.com/marketlens/oppscan/internal/feed"
	"github.com/marketlens/oppscan/internal/persistence"
	"github.com/marketlens/oppscan/internal/persistence/postgres"
	"github.com/marketlens/oppscan/internal/provider"
	"github.com/marketlens/oppscan/internal/scan"
	"github.com/marketlens/oppscan/internal/telemetry"
)

var (
	flagFeedURL     string
	flagSymbols     []string
	flagMode        string
	flagOpsAddr     string
	flagRedisAddr   string
	flagPostgresDSN string
	flagOptionsURL  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the live scan loop against a snapshot feed",
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().StringVar(&flagFeedURL, "feed-url", "ws://localhost:8090/stream", "feature snapshot websocket URL")
	scanCmd.Flags().StringSliceVar(&flagSymbols, "symbols", []string{"SPY", "QQQ", "AAPL", "TSLA"}, "symbols to subscribe")
	scanCmd.Flags().StringVar(&flagMode, "mode", "live", "analysis mode (live|historical)")
	scanCmd.Flags().StringVar(&flagOpsAddr, "ops-addr", ":9090", "ops HTTP listen address (metrics, stats)")
	scanCmd.Flags().StringVar(&flagRedisAddr, "redis-addr", "", "redis address for the shared dedup store (in-memory when empty)")
	scanCmd.Flags().StringVar(&flagPostgresDSN, "postgres-dsn", "", "postgres DSN for the signal sink (log-only when empty)")
	scanCmd.Flags().StringVar(&flagOptionsURL, "options-url", "", "options analytics base URL (options detectors idle when empty)")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if flagConfig != "" {
		var err error
		if cfg, err = config.Load(flagConfig); err != nil {
			return err
		}
	}

	registry, err := detect.DefaultRegistry()
	if err != nil {
		return err
	}

	retention := cfg.Cooldown()
	var store dedup.Store
	if flagRedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: flagRedisAddr})
		store = dedup.NewRedisStore(client, "oppscan:dedup", retention)
		log.Info().Str("addr", flagRedisAddr).Msg("using redis dedup store")
	} else {
		store = dedup.NewMemoryStore(retention)
	}

	metrics := telemetry.NewMetrics()
	promReg := prometheus.NewRegistry()
	if err := metrics.Register(promReg); err != nil {
		return err
	}

	scanner, err := scan.NewScanner(registry, store, cfg,
		scan.WithLogger(log.Logger),
		scan.WithMetrics(metrics),
	)
	if err != nil {
		return err
	}

	var sink persistence.SignalRepo
	if flagPostgresDSN != "" {
		db, err := postgres.Connect(flagPostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		sink = postgres.NewSignalRepo(db, 5*time.Second)
	}

	var options provider.OptionsProvider
	if flagOptionsURL != "" {
		options = provider.NewHTTPOptionsProvider(flagOptionsURL, 5, 10, log.Logger)
	}

	mode := domain.ModeLive
	if strings.EqualFold(flagMode, "historical") {
		mode = domain.ModeHistorical
	}

	go serveOps(ctx, flagOpsAddr, promReg, store)

	snapshots := feed.NewSnapshotFeed(flagFeedURL, flagSymbols, log.Logger)
	go func() {
		if err := snapshots.Run(ctx); err != nil {
			log.Error().Err(err).Msg("snapshot feed stopped")
		}
	}()

	log.Info().Int("detectors", registry.Len()).Str("mode", string(mode)).Msg("scan loop started")

	// One consumer goroutine keeps scans per symbol sequential, which is the
	// serialization discipline the dedup store's contract requires. Shard the
	// feed by symbol before parallelizing.
	for snap := range snapshots.Snapshots() {
		var chain *domain.OptionsChainContext
		if options != nil {
			if chain, err = options.ChainContext(ctx, snap.Symbol); err != nil {
				log.Warn().Err(err).Str("symbol", snap.Symbol).Msg("options context unavailable")
				chain = nil
			}
		}

		result, err := scanner.ScanSymbol(ctx, snap, chain, mode)
		if err != nil {
			log.Error().Err(err).Str("symbol", snap.Symbol).Msg("scan failed")
			continue
		}
		if result.Filtered {
			continue
		}
		for _, sig := range result.Signals {
			if sink == nil {
				log.Info().Str("symbol", sig.Symbol).Str("detector", sig.DetectorType).
					Float64("score", sig.CompositeScore).Msg("signal (no sink configured)")
				continue
			}
			if err := sink.Insert(ctx, sig); err != nil {
				log.Error().Err(err).Str("signal", sig.ID).Msg("persist signal failed")
			}
		}
		if st, err := store.Stats(ctx); err == nil {
			metrics.DedupRecords.Set(float64(st.TotalSignals))
		}
	}
	return nil
}
