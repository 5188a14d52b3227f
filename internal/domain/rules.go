package domain

import "time"

// RuleType says what a matching rule produces.
type RuleType string

const (
	RulePoints RuleType = "points"
	RuleBadge  RuleType = "badge"
)

// FormulaKind selects how a points rule computes its value.
type FormulaKind string

const (
	FormulaFixed          FormulaKind = "fixed"
	FormulaPercentOfScore FormulaKind = "percent_of_score"
	FormulaMultiplier     FormulaKind = "multiplier"
)

// GamificationRule is an admin-authored condition+formula pair. The CRUD
// surface lives elsewhere; this core only evaluates them.
type GamificationRule struct {
	ID         int64
	Code       string
	Name       string
	Type       RuleType
	Condition  RuleCondition
	Formula    RuleFormula
	Scope      RuleScope
	Priority   int
	Active     bool
	ActiveFrom *time.Time
	ActiveTo   *time.Time
}

// ActiveAt reports whether the rule applies at the given instant. The
// from/to window is optional on either side.
func (r GamificationRule) ActiveAt(now time.Time) bool {
	if !r.Active {
		return false
	}
	if r.ActiveFrom != nil && now.Before(*r.ActiveFrom) {
		return false
	}
	if r.ActiveTo != nil && now.After(*r.ActiveTo) {
		return false
	}
	return true
}

// RuleCondition is a structured predicate; nil fields are permissive and all
// set fields are ANDed.
type RuleCondition struct {
	Event         *string  `json:"event,omitempty"`
	Passed        *bool    `json:"passed,omitempty"`
	Perfect       *bool    `json:"perfect,omitempty"`
	MinScore      *float64 `json:"minScore,omitempty"`
	MaxScore      *float64 `json:"maxScore,omitempty"`
	MaxTimeRatio  *float64 `json:"maxTimeRatio,omitempty"`
	MinStreak     *int     `json:"minStreak,omitempty"`
	AnswerCorrect *bool    `json:"answerCorrect,omitempty"`
}

// RuleFormula computes a matching rule's output. Cap of zero means uncapped.
// Badge rules carry only BadgeCode.
type RuleFormula struct {
	Kind       FormulaKind `json:"kind"`
	Points     int         `json:"points,omitempty"`
	Multiplier float64     `json:"multiplier,omitempty"`
	Cap        int         `json:"cap,omitempty"`
	BadgeCode  string      `json:"badgeCode,omitempty"`
}

// RuleScope restricts a rule to allow-listed branches, positions or
// assessments. Empty lists match everything.
type RuleScope struct {
	BranchIDs     []int64 `json:"branchIds,omitempty"`
	PositionIDs   []int64 `json:"positionIds,omitempty"`
	AssessmentIDs []int64 `json:"assessmentIds,omitempty"`
}

// InScope checks the allow-lists against the evaluation context's IDs.
func (s RuleScope) InScope(branchID, positionID, assessmentID int64) bool {
	if len(s.BranchIDs) > 0 && !containsID(s.BranchIDs, branchID) {
		return false
	}
	if len(s.PositionIDs) > 0 && !containsID(s.PositionIDs, positionID) {
		return false
	}
	if len(s.AssessmentIDs) > 0 && !containsID(s.AssessmentIDs, assessmentID) {
		return false
	}
	return true
}
