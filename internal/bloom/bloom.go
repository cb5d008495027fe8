package bloom

import (
	"context"

	"github.com/redis/go-redis/v9"

	"marketplace-catalog/internal/logger"
)

// Filter is a RedisBloom filter over change ids. It lets the projector skip
// changes redelivered by Kafka after a rebalance.
type Filter struct {
	rdb *redis.Client
	key string
}

// NewFilter reserves the filter (error rate 0.001, capacity 1M). Reserving
// an existing filter fails harmlessly, so this is safe on every start.
func NewFilter(ctx context.Context, rdb *redis.Client, key string) *Filter {
	// RedisBloom: BF.RESERVE needs the module (redis-stack); plain Redis only logs here.
	if err := rdb.Do(ctx, "BF.RESERVE", key, 0.001, 1_000_000).Err(); err != nil {
		logger.Debugf("bloom: reserve %s (may already exist): %v", key, err)
	}
	return &Filter{rdb: rdb, key: key}
}

// Has reports whether id was probably recorded before. Any Redis error
// counts as "not recorded": applying a change twice is safe, dropping one
// is not.
func (f *Filter) Has(ctx context.Context, id string) bool {
	if f == nil || f.rdb == nil || id == "" {
		return false
	}
	// BF.EXISTS returns 1 when the id probably exists, 0 otherwise.
	res := f.rdb.Do(ctx, "BF.EXISTS", f.key, id)
	if res.Err() != nil {
		logger.Warnf("bloom: BF.EXISTS error: %v", res.Err())
		return false
	}
	exists, ok := flag(res)
	if !ok {
		logger.Warnf("bloom: BF.EXISTS reply is not int or bool: %v", res.Val())
		return false
	}
	return exists
}

// Add records id. Call it only once the change has been applied.
func (f *Filter) Add(ctx context.Context, id string) {
	if f == nil || f.rdb == nil || id == "" {
		return
	}
	if err := f.rdb.Do(ctx, "BF.ADD", f.key, id).Err(); err != nil {
		logger.Warnf("bloom: BF.ADD error: %v", err)
	}
}

// flag reads a 0/1 reply; depending on the Redis version it is an int or a bool.
func flag(res *redis.Cmd) (bool, bool) {
	if val, err := res.Int(); err == nil {
		return val != 0, true
	}
	b, err := res.Bool()
	if err != nil {
		return false, false
	}
	return b, true
}
