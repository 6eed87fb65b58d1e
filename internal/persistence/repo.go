package persistence

import (
	"context"
	"time"

	"github.com/marketlens/oppscan/internal/domain"
)

// SignalRepo is the downstream collaborator that owns emitted signals once
// the scanner hands them off.
type SignalRepo interface {
	Insert(ctx context.Context, sig *domain.CompositeSignal) error
	RecentForSymbol(ctx context.Context, symbol string, limit int) ([]domain.CompositeSignal, error)
	CountSince(ctx context.Context, symbol string, since time.Time) (int, error)
}
