// Package redis holds the Redis-backed rule-catalog cache and the pub/sub
// award relay. Both are optional: deployments without Redis fall back to the
// in-memory equivalents.
package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"certify-service/internal/app"
	"certify-service/internal/domain"
)

const rulesKey = "gamification:rules:active"

// RuleCache caches the serialized active rule catalog in Redis so multiple
// service instances share one staleness window. ClearCache drops the key;
// readers may observe definitions up to the TTL stale.
type RuleCache struct {
	client *redis.Client
	source app.RuleSource
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewRuleCache(client *redis.Client, source app.RuleSource, ttl time.Duration) *RuleCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RuleCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *RuleCache) ActiveRules(ctx context.Context, now time.Time) ([]domain.GamificationRule, error) {
	if rules, ok := c.fromCache(ctx); ok {
		return rules, nil
	}

	result, err, _ := c.sf.Do(rulesKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if rules, ok := c.fromCache(ctx); ok {
			return rules, nil
		}

		rules, err := c.source.ActiveRules(ctx, now)
		if err != nil {
			return nil, err
		}

		payload, err := json.Marshal(rules)
		if err != nil {
			return nil, err
		}
		// best-effort fill; a failed SET only costs the next reader a reload
		_ = c.client.Set(ctx, rulesKey, payload, c.ttlWithJitter()).Err()
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.GamificationRule), nil
}

// ClearCache drops the shared key so every instance reloads on next read.
func (c *RuleCache) ClearCache() {
	_ = c.client.Del(context.Background(), rulesKey).Err()
}

func (c *RuleCache) fromCache(ctx context.Context) ([]domain.GamificationRule, bool) {
	payload, err := c.client.Get(ctx, rulesKey).Bytes()
	if err != nil {
		return nil, false
	}
	var rules []domain.GamificationRule
	if err := json.Unmarshal(payload, &rules); err != nil {
		return nil, false
	}
	return rules, true
}

func (c *RuleCache) ttlWithJitter() time.Duration {
	jitterMax := int64(c.ttl) / 10
	if jitterMax <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
