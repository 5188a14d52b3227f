package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"certify-service/internal/app"
	"certify-service/internal/domain"
)

// DefaultRuleTTL bounds how stale the cached rule catalog may get.
const DefaultRuleTTL = 30 * time.Second

// RuleCache caches the active rule catalog with a short TTL so completions
// do not hammer the database. Writers must call ClearCache after any rule
// mutation; readers may observe definitions up to the TTL stale.
type RuleCache struct {
	source app.RuleSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	cached    []domain.GamificationRule
	expiresAt time.Time
	valid     bool
}

func NewRuleCache(source app.RuleSource, ttl time.Duration) *RuleCache {
	if ttl <= 0 {
		ttl = DefaultRuleTTL
	}
	return &RuleCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// WithClock overrides the cache clock for deterministic expiry tests.
func (c *RuleCache) WithClock(clock func() time.Time) *RuleCache {
	c.clock = clock
	return c
}

func (c *RuleCache) ActiveRules(ctx context.Context, now time.Time) ([]domain.GamificationRule, error) {
	c.mu.RLock()
	if c.valid && c.expiresAt.After(c.clock()) {
		rules := c.cached
		c.mu.RUnlock()
		return rules, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("rules", func() (interface{}, error) {
		c.mu.RLock()
		if c.valid && c.expiresAt.After(c.clock()) {
			rules := c.cached
			c.mu.RUnlock()
			return rules, nil
		}
		c.mu.RUnlock()

		rules, err := c.source.ActiveRules(ctx, now)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cached = rules
		c.expiresAt = c.clock().Add(c.ttlWithJitter())
		c.valid = true
		c.mu.Unlock()
		return rules, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.GamificationRule), nil
}

// ClearCache invalidates the cached catalog; the next read reloads.
func (c *RuleCache) ClearCache() {
	c.mu.Lock()
	c.valid = false
	c.cached = nil
	c.mu.Unlock()
}

func (c *RuleCache) ttlWithJitter() time.Duration {
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	if jitterMax <= 0 {
		return c.ttl
	}
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
