package memory

import (
	"context"
	"testing"
	"time"

	"certify-service/internal/domain"
)

type countingSource struct {
	calls int
	rules []domain.GamificationRule
}

func (s *countingSource) ActiveRules(context.Context, time.Time) ([]domain.GamificationRule, error) {
	s.calls++
	return s.rules, nil
}

func TestRuleCacheServesWithinTTL(t *testing.T) {
	source := &countingSource{rules: []domain.GamificationRule{{ID: 1, Code: "r1", Active: true}}}
	cache := NewRuleCache(source, 30*time.Second)

	now := time.Now()
	if _, err := cache.ActiveRules(context.Background(), now); err != nil {
		t.Fatalf("load rules: %v", err)
	}
	if _, err := cache.ActiveRules(context.Background(), now); err != nil {
		t.Fatalf("load rules again: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected one source load, got %d", source.calls)
	}
}

func TestRuleCacheExpires(t *testing.T) {
	source := &countingSource{}
	current := time.Now()
	cache := NewRuleCache(source, 30*time.Second).WithClock(func() time.Time { return current })

	if _, err := cache.ActiveRules(context.Background(), current); err != nil {
		t.Fatalf("load: %v", err)
	}

	// Past TTL plus the maximum 10% jitter.
	current = current.Add(34 * time.Second)
	if _, err := cache.ActiveRules(context.Background(), current); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after expiry, got %d calls", source.calls)
	}
}

func TestRuleCacheExplicitInvalidation(t *testing.T) {
	source := &countingSource{}
	cache := NewRuleCache(source, time.Hour)

	if _, err := cache.ActiveRules(context.Background(), time.Now()); err != nil {
		t.Fatalf("load: %v", err)
	}
	cache.ClearCache()
	if _, err := cache.ActiveRules(context.Background(), time.Now()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if source.calls != 2 {
		t.Fatalf("expected reload after ClearCache, got %d calls", source.calls)
	}
}
