package domain

import (
	"math"
	"time"
)

// AttemptStatus is the attempt lifecycle state.
type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptCancelled  AttemptStatus = "cancelled"
)

// Attempt is one user's timed run through an assessment's question set.
// At most one in_progress attempt exists per (assessment, user); once
// completed it is immutable.
type Attempt struct {
	ID               int64
	AssessmentID     int64
	UserID           int64
	AttemptNumber    int
	Status           AttemptStatus
	StartedAt        time.Time
	CompletedAt      *time.Time
	ScorePercent     float64
	CorrectAnswers   int
	TotalQuestions   int
	TimeSpentSeconds int
}

// Answer is one row per (attempt, question), last write wins while the
// attempt is in progress. IsCorrect snapshots the chosen option's correctness
// at answer time; scoring reads the snapshot, never a recomputation.
type Answer struct {
	AttemptID  int64
	QuestionID int64
	OptionID   int64
	IsCorrect  bool
	AnsweredAt time.Time
}

// StartedAttempt is what startAttempt hands back to the caller.
type StartedAttempt struct {
	AttemptID        int64
	AttemptNumber    int
	TimeLimitMinutes int
	RemainingSeconds int
	Resumed          bool
}

// ScorePercent computes correct/total*100 rounded to two decimals.
// A zero-question attempt scores 0.
func ScorePercent(correct, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*100*100) / 100
}

// RemainingSeconds returns the seconds left in a timed attempt, clamped at
// zero, or limit*60 when called at the instant the attempt starts.
func RemainingSeconds(startedAt, now time.Time, limit time.Duration) int {
	if limit <= 0 {
		return 0
	}
	left := limit - now.Sub(startedAt)
	if left < 0 {
		return 0
	}
	return int(left / time.Second)
}
