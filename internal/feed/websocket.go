package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/marketlens/oppscan/internal/domain"
)

// SnapshotFeed subscribes to the upstream feature-builder's websocket stream
// and delivers one FeatureSnapshot per symbol per tick. The feed owns
// reconnection; consumers just range over Snapshots until the context ends.
type SnapshotFeed struct {
	url       string
	symbols   []string
	log       zerolog.Logger
	snapshots chan *domain.FeatureSnapshot

	dialer         *websocket.Dialer
	reconnectDelay time.Duration
}

// NewSnapshotFeed builds a feed for the given stream URL and symbol set.
func NewSnapshotFeed(url string, symbols []string, log zerolog.Logger) *SnapshotFeed {
	return &SnapshotFeed{
		url:            url,
		symbols:        symbols,
		log:            log,
		snapshots:      make(chan *domain.FeatureSnapshot, 256),
		dialer:         websocket.DefaultDialer,
		reconnectDelay: 2 * time.Second,
	}
}

// Snapshots is the delivery channel; closed when Run returns.
func (f *SnapshotFeed) Snapshots() <-chan *domain.FeatureSnapshot {
	return f.snapshots
}

// Run connects and pumps snapshots until the context is cancelled,
// reconnecting with a capped backoff on stream errors.
func (f *SnapshotFeed) Run(ctx context.Context) error {
	defer close(f.snapshots)

	delay := f.reconnectDelay
	for {
		err := f.connectAndPump(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			f.log.Warn().Err(err).Dur("retry_in", delay).Msg("snapshot stream disconnected")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(delay):
			}
			if delay < 30*time.Second {
				delay *= 2
			}
			continue
		}
		delay = f.reconnectDelay
	}
}

type subscribeMsg struct {
	Action  string   `json:"action"`
	Symbols []string `json:"symbols"`
}

func (f *SnapshotFeed) connectAndPump(ctx context.Context) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", f.url, err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(subscribeMsg{Action: "subscribe", Symbols: f.symbols}); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.log.Info().Int("symbols", len(f.symbols)).Msg("snapshot stream connected")

	// unblock ReadMessage on shutdown
	go func() {
		<-ctx.Done()
		conn.SetReadDeadline(time.Now())
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		var snap domain.FeatureSnapshot
		if err := json.Unmarshal(msg, &snap); err != nil {
			f.log.Warn().Err(err).Msg("dropping malformed snapshot")
			continue
		}
		if snap.Symbol == "" {
			continue
		}
		select {
		case f.snapshots <- &snap:
		case <-ctx.Done():
			return nil
		default:
			f.log.Warn().Str("symbol", snap.Symbol).Msg("snapshot buffer full, dropping tick")
		}
	}
}
