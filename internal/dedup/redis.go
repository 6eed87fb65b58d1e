package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisStore is the Store implementation shared by scanner replicas. Each
// (symbol, detectorType) key is a sorted set of barTimeKeys scored by
// emission time; an index set tracks live keys for stats. Individual Redis
// commands are atomic, but the check-then-act sequences around them are not:
// deployments sharing a store must keep one scan in flight per symbol, same
// as the in-memory store's contract.
type RedisStore struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	now       func() time.Time
}

// NewRedisStore wraps an existing client. Retention is floored at one hour,
// matching the in-memory store.
func NewRedisStore(client *redis.Client, prefix string, retention time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "oppscan:dedup"
	}
	if retention < time.Hour {
		retention = time.Hour
	}
	return &RedisStore{client: client, prefix: prefix, retention: retention, now: time.Now}
}

func (s *RedisStore) setKey(symbol, detectorType string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, symbol, detectorType)
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":keys"
}

// RecordSignal appends the emission and prunes aged-out members. ZAddNX
// preserves the uniqueness invariant even if two writers race.
func (s *RedisStore) RecordSignal(ctx context.Context, rec Record) error {
	k := s.setKey(rec.Symbol, rec.DetectorType)
	score := float64(rec.EmittedAt.UnixMilli())

	if err := s.client.ZAddNX(ctx, k, &redis.Z{Score: score, Member: rec.BarTimeKey}).Err(); err != nil {
		return fmt.Errorf("dedup record: %w", err)
	}
	cutoff := float64(s.now().Add(-s.retention).UnixMilli())
	if err := s.client.ZRemRangeByScore(ctx, k, "0", fmt.Sprintf("%f", cutoff)).Err(); err != nil {
		return fmt.Errorf("dedup prune: %w", err)
	}
	if err := s.client.SAdd(ctx, s.indexKey(), k).Err(); err != nil {
		return fmt.Errorf("dedup index: %w", err)
	}
	if err := s.client.Expire(ctx, k, s.retention).Err(); err != nil {
		return fmt.Errorf("dedup expire: %w", err)
	}
	return nil
}

// IsDuplicate checks for the exact (symbol, detectorType, barTimeKey).
func (s *RedisStore) IsDuplicate(ctx context.Context, symbol, detectorType, barTimeKey string) (bool, error) {
	err := s.client.ZScore(ctx, s.setKey(symbol, detectorType), barTimeKey).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	return true, nil
}

// CountInWindow counts emissions in the trailing window; empty detectorType
// counts symbol-wide across the indexed keys.
func (s *RedisStore) CountInWindow(ctx context.Context, symbol, detectorType string, window time.Duration) (int, error) {
	min := fmt.Sprintf("%d", s.now().Add(-window).UnixMilli())
	if detectorType != "" {
		n, err := s.client.ZCount(ctx, s.setKey(symbol, detectorType), min, "+inf").Result()
		if err != nil {
			return 0, fmt.Errorf("dedup count: %w", err)
		}
		return int(n), nil
	}

	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("dedup index read: %w", err)
	}
	symbolPrefix := fmt.Sprintf("%s:%s:", s.prefix, symbol)
	total := 0
	for _, k := range keys {
		if len(k) < len(symbolPrefix) || k[:len(symbolPrefix)] != symbolPrefix {
			continue
		}
		n, err := s.client.ZCount(ctx, k, min, "+inf").Result()
		if err != nil {
			return 0, fmt.Errorf("dedup count: %w", err)
		}
		total += int(n)
	}
	return total, nil
}

// LastEmission returns the most recent emission time for the key.
func (s *RedisStore) LastEmission(ctx context.Context, symbol, detectorType string) (time.Time, bool, error) {
	zs, err := s.client.ZRevRangeWithScores(ctx, s.setKey(symbol, detectorType), 0, 0).Result()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("dedup last: %w", err)
	}
	if len(zs) == 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(int64(zs[0].Score)), true, nil
}

// Clear removes every indexed key and the index itself.
func (s *RedisStore) Clear(ctx context.Context) error {
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("dedup index read: %w", err)
	}
	if len(keys) > 0 {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("dedup clear: %w", err)
		}
	}
	if err := s.client.Del(ctx, s.indexKey()).Err(); err != nil {
		return fmt.Errorf("dedup clear index: %w", err)
	}
	return nil
}

// Stats aggregates counts and age bounds across the indexed keys.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	keys, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return st, fmt.Errorf("dedup index read: %w", err)
	}
	now := s.now()
	symbols := make(map[string]struct{})
	var oldestMs, newestMs float64
	for _, k := range keys {
		zs, err := s.client.ZRangeWithScores(ctx, k, 0, -1).Result()
		if err != nil {
			return st, fmt.Errorf("dedup range: %w", err)
		}
		if len(zs) == 0 {
			continue
		}
		st.TotalSignals += len(zs)
		// key layout: prefix:symbol:detector
		rest := k[len(s.prefix)+1:]
		for i := 0; i < len(rest); i++ {
			if rest[i] == ':' {
				symbols[rest[:i]] = struct{}{}
				break
			}
		}
		if oldestMs == 0 || zs[0].Score < oldestMs {
			oldestMs = zs[0].Score
		}
		if zs[len(zs)-1].Score > newestMs {
			newestMs = zs[len(zs)-1].Score
		}
	}
	st.UniqueSymbols = len(symbols)
	if st.TotalSignals > 0 {
		st.OldestSignal = now.Sub(time.UnixMilli(int64(oldestMs)))
		st.NewestSignal = now.Sub(time.UnixMilli(int64(newestMs)))
	}
	return st, nil
}

var _ Store = (*RedisStore)(nil)
