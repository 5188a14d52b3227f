package app

import (
	"context"
	"time"

	"certify-service/internal/domain"
)

// Store is the transactional unit of work. Every multi-statement mutation
// runs inside RunInTx; an error from fn rolls the whole transaction back.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx exposes the repositories bound to one transaction. Methods named
// *ForUpdate take a row lock that is held until the transaction ends.
type Tx interface {
	Assessments() AssessmentRepository
	Attempts() AttemptRepository
	Users() UserRepository
	Stats() StatsRepository
	Badges() BadgeRepository
	Levels() LevelRepository
	PointEvents() PointEventRepository
	Challenges() ChallengeRepository
}

// AssessmentRepository reads assessment metadata and question sets.
type AssessmentRepository interface {
	Get(ctx context.Context, id int64) (domain.Assessment, error)
	GetForUpdate(ctx context.Context, id int64) (domain.Assessment, error)
	// ListAssignedTo returns every assessment targeting the user directly or
	// through their position/branch (union semantics). Question sets are not
	// loaded.
	ListAssignedTo(ctx context.Context, user domain.User) ([]domain.Assessment, error)
}

// AttemptRepository owns attempt and answer rows.
type AttemptRepository interface {
	GetForUpdate(ctx context.Context, id int64) (domain.Attempt, error)
	FindInProgress(ctx context.Context, assessmentID, userID int64) (domain.Attempt, bool, error)
	CountForUser(ctx context.Context, assessmentID, userID int64) (int, error)
	Create(ctx context.Context, attempt *domain.Attempt) error
	Update(ctx context.Context, attempt *domain.Attempt) error
	UpsertAnswer(ctx context.Context, answer domain.Answer) error
	CountCorrectAnswers(ctx context.Context, attemptID int64) (int, error)
	// BestScores maps assessment ID to the user's best completed score.
	BestScores(ctx context.Context, userID int64) (map[int64]float64, error)
}

// UserRepository is the slice of the user directory this core touches.
type UserRepository interface {
	Get(ctx context.Context, id int64) (domain.User, error)
	GetForUpdate(ctx context.Context, id int64) (domain.User, error)
	UpdateProgress(ctx context.Context, id int64, points, level int) error
}

// StatsRepository owns the per-user streak aggregates.
type StatsRepository interface {
	GetOrCreateForUpdate(ctx context.Context, userID int64) (domain.GamificationStats, error)
	Update(ctx context.Context, stats domain.GamificationStats) error
}

// BadgeRepository is the badge catalog plus the award-once ledger.
type BadgeRepository interface {
	GetByCode(ctx context.Context, code string) (domain.Badge, error)
	// Award inserts the (user, badge) row if absent and reports whether a
	// new award occurred. Already-held badges are a no-op, not an error.
	Award(ctx context.Context, userID, badgeID int64, at time.Time) (bool, error)
}

// LevelRepository reads the admin-managed level ladder.
type LevelRepository interface {
	List(ctx context.Context) ([]domain.Level, error)
}

// PointEventRepository is the append-only award audit ledger.
type PointEventRepository interface {
	Record(ctx context.Context, event domain.PointEvent) error
	MonthTotal(ctx context.Context, userID int64, from, to time.Time) (int, error)
	ListForUser(ctx context.Context, userID int64, limit int) ([]domain.PointEvent, error)
}

// ChallengeRepository maintains the month-scoped branch leaderboard.
type ChallengeRepository interface {
	// GetOrCreate returns the challenge for the period, creating it on
	// first access.
	GetOrCreate(ctx context.Context, start, end time.Time) (domain.TeamChallenge, error)
	AddBranchPoints(ctx context.Context, challengeID, branchID int64, delta int) error
	Standings(ctx context.Context, challengeID int64) ([]domain.ChallengeStanding, error)
}

// RuleSource yields the catalog rules active at the given instant, ordered
// by priority ascending then ID. Implementations may serve answers up to
// their TTL stale.
type RuleSource interface {
	ActiveRules(ctx context.Context, now time.Time) ([]domain.GamificationRule, error)
}

// RuleCache is a RuleSource with explicit invalidation.
type RuleCache interface {
	RuleSource
	ClearCache()
}

// RuleWriter persists catalog rules. CRUD surfaces live outside this core;
// the writer exists so cache invalidation can be tied to the write.
type RuleWriter interface {
	SaveRule(ctx context.Context, rule *domain.GamificationRule) error
}

// RuleCatalog pairs the rule writer with its cache so every write
// invalidates atomically at the call site.
type RuleCatalog struct {
	writer RuleWriter
	cache  RuleCache
}

func NewRuleCatalog(writer RuleWriter, cache RuleCache) *RuleCatalog {
	return &RuleCatalog{writer: writer, cache: cache}
}

// ActiveRules serves reads through the cache.
func (c *RuleCatalog) ActiveRules(ctx context.Context, now time.Time) ([]domain.GamificationRule, error) {
	return c.cache.ActiveRules(ctx, now)
}

// Save writes the rule and drops the cache so the next evaluation sees it.
func (c *RuleCatalog) Save(ctx context.Context, rule *domain.GamificationRule) error {
	if err := c.writer.SaveRule(ctx, rule); err != nil {
		return err
	}
	c.cache.ClearCache()
	return nil
}

// Settings is the external settings store; only one flag matters here.
type Settings interface {
	RulesEnabled(ctx context.Context) (bool, error)
}

// AwardNotifier relays a committed award summary to the outside world.
// Delivery is best-effort; failures are logged, never rolled back.
type AwardNotifier interface {
	NotifyAward(ctx context.Context, summary domain.AwardSummary) error
}
