package domain

import "time"

// AssessmentStatus is derived from the open/close window, never stored.
type AssessmentStatus string

const (
	AssessmentPending AssessmentStatus = "pending"
	AssessmentActive  AssessmentStatus = "active"
	AssessmentClosed  AssessmentStatus = "closed"
)

// Assessment is an admin-authored timed quiz with an open/close window and
// assignment targets (explicit users, positions, branches — union semantics).
type Assessment struct {
	ID               int64
	Title            string
	Description      string
	OpenAt           time.Time
	CloseAt          time.Time
	TimeLimitMinutes int
	PassScorePercent float64
	MaxAttempts      int
	Questions        []Question

	AssignedUserIDs     []int64
	AssignedPositionIDs []int64
	AssignedBranchIDs   []int64
}

// Status derives the lifecycle state at the given instant.
func (a Assessment) Status(now time.Time) AssessmentStatus {
	switch {
	case now.Before(a.OpenAt):
		return AssessmentPending
	case now.After(a.CloseAt):
		return AssessmentClosed
	default:
		return AssessmentActive
	}
}

// TimeLimit returns the attempt duration limit, zero when unlimited.
func (a Assessment) TimeLimit() time.Duration {
	return time.Duration(a.TimeLimitMinutes) * time.Minute
}

// Question finds a question of this assessment by ID.
func (a Assessment) Question(id int64) (Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return a.Questions[i], true
		}
	}
	return Question{}, false
}

// AssignedTo reports whether the user is targeted by this assessment either
// directly, through their position, or through their branch.
func (a Assessment) AssignedTo(u User) bool {
	return containsID(a.AssignedUserIDs, u.ID) ||
		containsID(a.AssignedPositionIDs, u.PositionID) ||
		containsID(a.AssignedBranchIDs, u.BranchID)
}

// Question belongs to exactly one assessment and keeps its authored order.
type Question struct {
	ID           int64
	AssessmentID int64
	Position     int
	Text         string
	Options      []Option
}

// Option finds an option of this question by ID.
func (q Question) Option(id int64) (Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return q.Options[i], true
		}
	}
	return Option{}, false
}

// Option is one selectable answer for a question.
type Option struct {
	ID         int64
	QuestionID int64
	Text       string
	IsCorrect  bool
}

func containsID(ids []int64, id int64) bool {
	if id == 0 {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
