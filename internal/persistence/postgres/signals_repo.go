package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/marketlens/oppscan/internal/domain"
	"github.com/marketlens/oppscan/internal/persistence"
)

// signalRepo implements persistence.SignalRepo for PostgreSQL. Factor
// contributions are stored as JSONB alongside the scalar columns.
type signalRepo struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewSignalRepo wraps an open sqlx handle.
func NewSignalRepo(db *sqlx.DB, timeout time.Duration) persistence.SignalRepo {
	return &signalRepo{db: db, timeout: timeout}
}

// Connect opens and pings a PostgreSQL connection.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

func (r *signalRepo) Insert(ctx context.Context, sig *domain.CompositeSignal) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	factorsJSON, err := json.Marshal(sig.Factors)
	if err != nil {
		return fmt.Errorf("marshal factors: %w", err)
	}

	const query = `
		INSERT INTO composite_signals
		(id, symbol, detector_type, direction, asset_class, composite_score,
		 confidence, style_score, risk_reward, price, factors, bar_time_key, detected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (symbol, detector_type, bar_time_key) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query,
		sig.ID, sig.Symbol, sig.DetectorType, sig.Direction, sig.AssetClass,
		sig.CompositeScore, sig.Confidence, sig.StyleScore, sig.RiskReward,
		sig.Price, factorsJSON, sig.BarTimeKey, sig.DetectedAt); err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	return nil
}

func (r *signalRepo) RecentForSymbol(ctx context.Context, symbol string, limit int) ([]domain.CompositeSignal, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	const query = `
		SELECT id, symbol, detector_type, direction, asset_class, composite_score,
		       confidence, style_score, risk_reward, price, factors, bar_time_key, detected_at
		FROM composite_signals
		WHERE symbol = $1
		ORDER BY detected_at DESC
		LIMIT $2`

	rows, err := r.db.QueryxContext(ctx, query, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("query signals: %w", err)
	}
	defer rows.Close()

	var out []domain.CompositeSignal
	for rows.Next() {
		var sig domain.CompositeSignal
		var factorsJSON []byte
		if err := rows.Scan(&sig.ID, &sig.Symbol, &sig.DetectorType, &sig.Direction,
			&sig.AssetClass, &sig.CompositeScore, &sig.Confidence, &sig.StyleScore,
			&sig.RiskReward, &sig.Price, &factorsJSON, &sig.BarTimeKey, &sig.DetectedAt); err != nil {
			return nil, fmt.Errorf("scan signal row: %w", err)
		}
		if len(factorsJSON) > 0 {
			if err := json.Unmarshal(factorsJSON, &sig.Factors); err != nil {
				return nil, fmt.Errorf("unmarshal factors: %w", err)
			}
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (r *signalRepo) CountSince(ctx context.Context, symbol string, since time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var count int
	const query = `SELECT COUNT(*) FROM composite_signals WHERE symbol = $1 AND detected_at >= $2`
	if err := r.db.GetContext(ctx, &count, query, symbol, since); err != nil {
		return 0, fmt.Errorf("count signals: %w", err)
	}
	return count, nil
}
