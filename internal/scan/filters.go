package scan

import (
	"fmt"
	"strings"

	"github.com/marketlens/oppscan/internal/config"
	"github.com/marketlens/oppscan/internal/domain"
)

// applyUniversalFilters runs the pre-detector checks in fixed order and
// returns the first failure as a reason string, or "" when all pass. The
// reason always names the stage so downstream observability can bucket it.
func (s *Scanner) applyUniversalFilters(cfg *config.ScannerConfig, snap *domain.FeatureSnapshot, mode domain.AnalysisMode) string {
	for _, sym := range cfg.Filters.Blacklist {
		if strings.EqualFold(sym, snap.Symbol) {
			return fmt.Sprintf("universal filters: symbol %s is blacklisted", snap.Symbol)
		}
	}

	// HISTORICAL mode is the weekend/backtest escape hatch; the tri-state
	// session flag already defaults unknown to regular hours.
	if cfg.Filters.MarketHoursOnly && mode != domain.ModeHistorical && !snap.Session.RegularHours() {
		return "universal filters: outside regular market hours"
	}

	if snap.Volume.RelativeToAvg < cfg.Filters.MinRVOL {
		return fmt.Sprintf("universal filters: relative volume %.2f below minimum %.2f",
			snap.Volume.RelativeToAvg, cfg.Filters.MinRVOL)
	}

	if cfg.Filters.MaxSpreadPct > 0 && snap.SpreadPct > cfg.Filters.MaxSpreadPct {
		return fmt.Sprintf("universal filters: spread %.2f%% above maximum %.2f%%",
			snap.SpreadPct, cfg.Filters.MaxSpreadPct)
	}

	if cfg.Filters.RequireMinimumLiquidity && snap.Volume.Average < cfg.Filters.MinAvgVolume {
		return fmt.Sprintf("universal filters: average volume %.0f below minimum %.0f",
			snap.Volume.Average, cfg.Filters.MinAvgVolume)
	}

	return ""
}
