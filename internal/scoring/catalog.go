package scoring

import (
	"math"
	"sort"

	"certify-service/internal/domain"
)

// FromCatalog adapts admin-authored rules to the Rule contract, ordered by
// priority ascending, ties broken by ID. Callers are expected to pass only
// rules that are active at evaluation time.
func FromCatalog(rules []domain.GamificationRule) []Rule {
	sorted := make([]domain.GamificationRule, len(rules))
	copy(sorted, rules)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make([]Rule, 0, len(sorted))
	for _, r := range sorted {
		out = append(out, catalogRule{r})
	}
	return out
}

type catalogRule struct {
	r domain.GamificationRule
}

func (c catalogRule) Code() string { return c.r.Code }

func (c catalogRule) Evaluate(ctx Context) (Outcome, bool) {
	if !c.r.Scope.InScope(ctx.BranchID, ctx.PositionID, ctx.AssessmentID) {
		return Outcome{}, false
	}
	if !c.matches(ctx) {
		return Outcome{}, false
	}

	switch c.r.Type {
	case domain.RuleBadge:
		if c.r.Formula.BadgeCode == "" {
			return Outcome{}, false
		}
		return Outcome{Badges: []string{c.r.Formula.BadgeCode}}, true
	case domain.RulePoints:
		points := formulaValue(c.r.Formula, ctx)
		if points == 0 {
			return Outcome{}, false
		}
		return Outcome{
			Points:      points,
			PointType:   c.r.Code,
			Description: c.r.Name,
		}, true
	default:
		return Outcome{}, false
	}
}

// matches ANDs the set condition fields; nil fields are permissive.
func (c catalogRule) matches(ctx Context) bool {
	cond := c.r.Condition
	if cond.Event != nil && *cond.Event != ctx.Event {
		return false
	}
	if cond.Passed != nil && *cond.Passed != ctx.Passed {
		return false
	}
	if cond.Perfect != nil && *cond.Perfect != ctx.Perfect {
		return false
	}
	if cond.MinScore != nil && ctx.ScorePercent < *cond.MinScore {
		return false
	}
	if cond.MaxScore != nil && ctx.ScorePercent > *cond.MaxScore {
		return false
	}
	if cond.MaxTimeRatio != nil {
		if ctx.TimeRatio == nil || *ctx.TimeRatio > *cond.MaxTimeRatio {
			return false
		}
	}
	if cond.MinStreak != nil && ctx.CurrentStreak < *cond.MinStreak {
		return false
	}
	if cond.AnswerCorrect != nil {
		if ctx.AnswerCorrect == nil || *ctx.AnswerCorrect != *cond.AnswerCorrect {
			return false
		}
	}
	return true
}

func formulaValue(f domain.RuleFormula, ctx Context) int {
	var value int
	switch f.Kind {
	case domain.FormulaFixed:
		value = f.Points
	case domain.FormulaPercentOfScore:
		value = int(math.Round(math.Floor(ctx.ScorePercent) * f.Multiplier))
	case domain.FormulaMultiplier:
		value = int(math.Round(float64(ctx.BasePoints) * f.Multiplier))
	default:
		return 0
	}
	if f.Cap > 0 && value > f.Cap {
		value = f.Cap
	}
	return value
}
