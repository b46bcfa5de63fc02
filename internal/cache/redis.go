package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const keyPrefix = "abbey:stats:"

// Connect opens a client and checks the server is reachable.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisStatsCache keeps Stats as JSON strings with a TTL.
type RedisStatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStatsCache(client *redis.Client, ttl time.Duration) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl}
}

func statsKey(id uuid.UUID) string {
	return keyPrefix + id.String()
}

func generationKey(id uuid.UUID) string {
	return keyPrefix + "gen:" + id.String()
}

func (c *RedisStatsCache) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Stats, error) {
	found := make(map[uuid.UUID]Stats, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = statsKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return found, err
	}
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var s Stats
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			continue
		}
		found[ids[i]] = s
	}
	return found, nil
}

// storeIfCurrent sets the stats key only while the generation key still
// holds the generation the caller counted under.
var storeIfCurrent = redis.NewScript(`
local gen = redis.call('GET', KEYS[1]) or '0'
if gen == ARGV[1] then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
	return 1
end
return 0
`)

func (c *RedisStatsCache) Generations(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	gens := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return gens, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = generationKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range values {
		gens[ids[i]] = 0
		raw, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parse generation of %s: %w", ids[i], err)
		}
		gens[ids[i]] = n
	}
	return gens, nil
}

// SetMany stores the stats of every user whose generation still matches
// generations. Users missing from generations are not stored.
func (c *RedisStatsCache) SetMany(ctx context.Context, stats map[uuid.UUID]Stats, generations map[uuid.UUID]int64) error {
	if len(stats) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	queued := 0
	for id, s := range stats {
		gen, ok := generations[id]
		if !ok {
			continue
		}
		data, err := json.Marshal(s)
		if err != nil {
			return err
		}
		storeIfCurrent.Eval(ctx, pipe,
			[]string{generationKey(id), statsKey(id)},
			strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds())
		queued++
	}
	if queued == 0 {
		return nil
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops the cached stats and advances the generation, which
// turns any recount already in flight into a no-op on SetMany.
func (c *RedisStatsCache) Invalidate(ctx context.Context, ids ...uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	pipe := c.client.TxPipeline()
	for _, id := range ids {
		pipe.Incr(ctx, generationKey(id))
		pipe.Del(ctx, statsKey(id))
	}
	_, err := pipe.Exec(ctx)
	return err
}
