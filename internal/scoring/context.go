// Package scoring is the pure rule-evaluation engine. The fixed progression
// heuristics (base score, perfect/competence/speed bonuses, streak
// milestones) ship as a built-in rule set evaluated through the same
// contract as admin-authored catalog rules, so both paths share one
// condition-checking pipeline and can be unit tested without a database.
package scoring

import "certify-service/internal/domain"

// EventAttemptCompleted is the only event the orchestrator emits today.
const EventAttemptCompleted = "attempt_completed"

// Context is the snapshot a completed attempt is scored against. It carries
// everything a rule may predicate on; rules never reach back into storage.
type Context struct {
	Event        string
	UserID       int64
	AssessmentID int64
	BranchID     int64
	PositionID   int64

	ScorePercent float64
	Passed       bool
	Perfect      bool
	// TimeRatio is time_spent / time_limit, nil when the assessment has no
	// time limit.
	TimeRatio *float64

	// CurrentStreak is the streak value after this completion was applied.
	// LastStreakAward is the highest milestone already paid out on the
	// running streak.
	CurrentStreak   int
	LastStreakAward int

	AnswerCorrect *bool

	// BasePoints feeds multiplier formulas; the orchestrator sets it to the
	// heuristic base score.
	BasePoints int
}

// Outcome is what a single matching rule produced.
type Outcome struct {
	Points      int
	PointType   string
	Description string
	Badges      []string
	// StreakMilestone is the highest milestone threshold this outcome paid,
	// zero when no milestone was crossed.
	StreakMilestone int
}

// Rule is the shared contract for built-in heuristics and catalog rules.
// Evaluate returns ok=false when the rule does not match the context.
type Rule interface {
	Code() string
	Evaluate(ctx Context) (Outcome, bool)
}

// CombineMode controls whether every rule contributes or evaluation stops at
// the first rule that produced points or a badge.
type CombineMode int

const (
	CombineAdditive CombineMode = iota
	CombineFirstMatch
)

// Result aggregates the outcomes of one evaluation pass.
type Result struct {
	Awards []domain.PointAward
	Total  int
	// Badges is deduplicated, in first-produced order.
	Badges          []string
	StreakMilestone int
}
