package domain

import "time"

// RoleEmployee is the only role that accrues points; managers and admins
// complete attempts without touching the progression layer.
const RoleEmployee = "employee"

// Badge codes granted by the built-in heuristics.
const (
	BadgePerfectRun        = "perfect_run"
	BadgeCompetence90      = "competence_90"
	BadgeSpeedster         = "speedster"
	BadgeStreakMaster      = "streak_master"
	BadgeAllTestsCompleted = "all_tests_completed"
)

// User is the projection of the user directory this core reads and writes:
// role/branch/position for scoping, points/level for progression.
type User struct {
	ID         int64
	Role       string
	BranchID   int64
	PositionID int64
	Points     int
	Level      int
}

// GamificationStats are the per-user streak aggregates, mutated only inside
// the completion transaction under a row lock.
type GamificationStats struct {
	UserID          int64
	CurrentStreak   int
	LongestStreak   int
	LastStreakAward int
	LastAttemptAt   *time.Time
	LastSuccessAt   *time.Time
}

// Badge is static catalog reference data.
type Badge struct {
	ID          int64
	Code        string
	Name        string
	Description string
	Icon        string
}

// UserBadge is an award record, unique per (user, badge), never revoked.
type UserBadge struct {
	UserID    int64
	BadgeID   int64
	AwardedAt time.Time
}

// PointEvent is one ledger row per nonzero point contribution.
type PointEvent struct {
	ID          int64
	UserID      int64
	Type        string
	Delta       int
	Description string
	BranchID    int64
	PositionID  int64
	CreatedAt   time.Time
}

// PointAward is one line of an award breakdown.
type PointAward struct {
	Type        string `json:"type"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// TeamChallenge is the calendar-month branch-vs-branch points competition.
type TeamChallenge struct {
	ID          int64
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// ChallengeStanding is one branch's cumulative score within a challenge.
type ChallengeStanding struct {
	BranchID int64 `json:"branchId"`
	Points   int   `json:"points"`
}

// ChallengePeriod returns the UTC calendar month window containing now.
// The end bound is exclusive (first instant of the next month).
func ChallengePeriod(now time.Time) (start, end time.Time) {
	now = now.UTC()
	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = start.AddDate(0, 1, 0)
	return start, end
}

// SkipNotEmployee marks an award summary short-circuited by the role gate.
const SkipNotEmployee = "not_employee"

// AwardSummary is the orchestrator's return value: hand-off data for the
// external notifier and the caller's UI.
type AwardSummary struct {
	UserID        int64          `json:"userId"`
	AttemptID     int64          `json:"attemptId"`
	Skipped       string         `json:"skipped,omitempty"`
	Passed        bool           `json:"passed"`
	TotalEarned   int            `json:"totalEarned"`
	Breakdown     []PointAward   `json:"breakdown"`
	PointsBefore  int            `json:"pointsBefore"`
	PointsAfter   int            `json:"pointsAfter"`
	LevelBefore   int            `json:"levelBefore"`
	LevelAfter    int            `json:"levelAfter"`
	NextLevelIn   int            `json:"nextLevelIn"`
	CurrentStreak int            `json:"currentStreak"`
	LongestStreak int            `json:"longestStreak"`
	NewBadges     []Badge        `json:"newBadges"`
	MonthPoints   int            `json:"monthPoints"`
	Challenge     *TeamChallenge `json:"challenge,omitempty"`
}
