// Package memory holds in-process implementations of the app storage
// contracts: a snapshotting transactional store used by unit tests and
// demos, plus the TTL rule-catalog cache.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"certify-service/internal/app"
	"certify-service/internal/domain"
)

type answerKey struct {
	attemptID  int64
	questionID int64
}

type userBadgeKey struct {
	userID  int64
	badgeID int64
}

type branchScoreKey struct {
	challengeID int64
	branchID    int64
}

type tables struct {
	assessments  map[int64]domain.Assessment
	attempts     map[int64]domain.Attempt
	answers      map[answerKey]domain.Answer
	users        map[int64]domain.User
	stats        map[int64]domain.GamificationStats
	badges       map[int64]domain.Badge
	userBadges   map[userBadgeKey]domain.UserBadge
	levels       []domain.Level
	events       []domain.PointEvent
	challenges   map[int64]domain.TeamChallenge
	branchScores map[branchScoreKey]int
	rules        map[int64]domain.GamificationRule
	seq          map[string]int64
}

func newTables() *tables {
	return &tables{
		assessments:  make(map[int64]domain.Assessment),
		attempts:     make(map[int64]domain.Attempt),
		answers:      make(map[answerKey]domain.Answer),
		users:        make(map[int64]domain.User),
		stats:        make(map[int64]domain.GamificationStats),
		badges:       make(map[int64]domain.Badge),
		userBadges:   make(map[userBadgeKey]domain.UserBadge),
		challenges:   make(map[int64]domain.TeamChallenge),
		branchScores: make(map[branchScoreKey]int),
		rules:        make(map[int64]domain.GamificationRule),
		seq:          make(map[string]int64),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.assessments {
		c.assessments[k] = v
	}
	for k, v := range t.attempts {
		c.attempts[k] = v
	}
	for k, v := range t.answers {
		c.answers[k] = v
	}
	for k, v := range t.users {
		c.users[k] = v
	}
	for k, v := range t.stats {
		c.stats[k] = v
	}
	for k, v := range t.badges {
		c.badges[k] = v
	}
	for k, v := range t.userBadges {
		c.userBadges[k] = v
	}
	c.levels = append(c.levels, t.levels...)
	c.events = append(c.events, t.events...)
	for k, v := range t.challenges {
		c.challenges[k] = v
	}
	for k, v := range t.branchScores {
		c.branchScores[k] = v
	}
	for k, v := range t.rules {
		c.rules[k] = v
	}
	for k, v := range t.seq {
		c.seq[k] = v
	}
	return c
}

func (t *tables) nextID(entity string) int64 {
	t.seq[entity]++
	return t.seq[entity]
}

// Store is an in-memory app.Store. Transactions run under one mutex (the
// moral equivalent of row locks in a single process) and roll back by
// restoring a pre-transaction snapshot.
type Store struct {
	mu   sync.Mutex
	data *tables
}

func NewStore() *Store {
	return &Store{data: newTables()}
}

// RunInTx serializes transactions and restores the snapshot when fn fails.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context, tx app.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(ctx, &memTx{data: s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Seeding helpers for tests and demos. IDs of zero are assigned.

func (s *Store) SeedAssessment(a domain.Assessment) domain.Assessment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.data.nextID("assessment")
	}
	s.data.assessments[a.ID] = a
	return a
}

func (s *Store) SeedUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == 0 {
		u.ID = s.data.nextID("user")
	}
	s.data.users[u.ID] = u
	return u
}

func (s *Store) SeedLevels(levels []domain.Level) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.levels = nil
	for _, l := range levels {
		if l.ID == 0 {
			l.ID = s.data.nextID("level")
		}
		s.data.levels = append(s.data.levels, l)
	}
}

func (s *Store) SeedBadges(badges []domain.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range badges {
		if b.ID == 0 {
			b.ID = s.data.nextID("badge")
		}
		s.data.badges[b.ID] = b
	}
}

// User returns the current user row for assertions.
func (s *Store) User(id int64) (domain.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.data.users[id]
	return u, ok
}

// Stats returns the current stats row for assertions.
func (s *Store) Stats(userID int64) (domain.GamificationStats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.data.stats[userID]
	return st, ok
}

// BadgeCount returns how many ledger rows the user holds for the badge code.
func (s *Store) BadgeCount(userID int64, code string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for k := range s.data.userBadges {
		if k.userID != userID {
			continue
		}
		if b, ok := s.data.badges[k.badgeID]; ok && b.Code == code {
			count++
		}
	}
	return count
}

// SaveRule implements app.RuleWriter.
func (s *Store) SaveRule(_ context.Context, rule *domain.GamificationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rule.ID == 0 {
		rule.ID = s.data.nextID("rule")
	}
	s.data.rules[rule.ID] = *rule
	return nil
}

// ActiveRules implements app.RuleSource against the stored catalog.
func (s *Store) ActiveRules(_ context.Context, now time.Time) ([]domain.GamificationRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.GamificationRule
	for _, r := range s.data.rules {
		if r.ActiveAt(now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// StaticSettings is a fixed-value app.Settings for wiring and tests.
type StaticSettings struct {
	Enabled bool
}

func (s StaticSettings) RulesEnabled(context.Context) (bool, error) {
	return s.Enabled, nil
}
