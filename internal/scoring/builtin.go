package scoring

import (
	"fmt"
	"math"

	"certify-service/internal/domain"
)

// Point event types recorded by the built-in rule set.
const (
	TypeBaseScore       = "base_score"
	TypePerfectBonus    = "perfect_bonus"
	TypeCompetenceBonus = "competence_bonus"
	TypeSpeedBonus      = "speed_bonus"
	TypeStreakBonus     = "streak_bonus"
)

// SpeedBracket pays Points when the time ratio is at or under MaxRatio.
// Brackets are mutually exclusive; the first matching one applies.
type SpeedBracket struct {
	MaxRatio float64
	Points   int
}

// StreakMilestone pays Points when the running streak reaches Threshold.
type StreakMilestone struct {
	Threshold int
	Points    int
}

// Heuristics holds the fixed scoring constants. Defaults match production;
// they are injectable so the bonuses can be tuned without forking the rules.
type Heuristics struct {
	PerfectBonus     int
	CompetenceScore  float64
	CompetenceBonus  int
	SpeedBrackets    []SpeedBracket
	SpeedBadgeRatio  float64
	StreakMilestones []StreakMilestone
	StreakBadgeMin   int
}

// DefaultHeuristics returns the production constants.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		PerfectBonus:    40,
		CompetenceScore: 90,
		CompetenceBonus: 20,
		SpeedBrackets: []SpeedBracket{
			{MaxRatio: 0.5, Points: 25},
			{MaxRatio: 0.7, Points: 15},
			{MaxRatio: 0.85, Points: 10},
		},
		SpeedBadgeRatio: 0.5,
		StreakMilestones: []StreakMilestone{
			{Threshold: 3, Points: 25},
			{Threshold: 5, Points: 40},
			{Threshold: 10, Points: 75},
		},
		StreakBadgeMin: 5,
	}
}

// BaseScore is the unconditional per-attempt base: the rounded score
// percent, never negative.
func (h Heuristics) BaseScore(scorePercent float64) int {
	base := int(math.Round(scorePercent))
	if base < 0 {
		return 0
	}
	return base
}

// BuiltinRules assembles the fixed heuristics as an ordered rule set.
func BuiltinRules(h Heuristics) []Rule {
	return []Rule{
		baseScoreRule{h},
		perfectRule{h},
		competenceRule{h},
		speedRule{h},
		streakRule{h},
	}
}

type baseScoreRule struct{ h Heuristics }

func (baseScoreRule) Code() string { return TypeBaseScore }

func (r baseScoreRule) Evaluate(ctx Context) (Outcome, bool) {
	if ctx.Event != EventAttemptCompleted {
		return Outcome{}, false
	}
	return Outcome{
		Points:      r.h.BaseScore(ctx.ScorePercent),
		PointType:   TypeBaseScore,
		Description: fmt.Sprintf("Assessment score %.0f%%", ctx.ScorePercent),
	}, true
}

type perfectRule struct{ h Heuristics }

func (perfectRule) Code() string { return TypePerfectBonus }

func (r perfectRule) Evaluate(ctx Context) (Outcome, bool) {
	if ctx.Event != EventAttemptCompleted || !ctx.Perfect {
		return Outcome{}, false
	}
	return Outcome{
		Points:      r.h.PerfectBonus,
		PointType:   TypePerfectBonus,
		Description: "Perfect run",
		Badges:      []string{domain.BadgePerfectRun},
	}, true
}

type competenceRule struct{ h Heuristics }

func (competenceRule) Code() string { return TypeCompetenceBonus }

func (r competenceRule) Evaluate(ctx Context) (Outcome, bool) {
	if ctx.Event != EventAttemptCompleted || ctx.ScorePercent < r.h.CompetenceScore {
		return Outcome{}, false
	}
	return Outcome{
		Points:      r.h.CompetenceBonus,
		PointType:   TypeCompetenceBonus,
		Description: fmt.Sprintf("Scored %.0f%% or above", r.h.CompetenceScore),
		Badges:      []string{domain.BadgeCompetence90},
	}, true
}

type speedRule struct{ h Heuristics }

func (speedRule) Code() string { return TypeSpeedBonus }

// speedRule pays only on a pass of a time-limited assessment. Bracket
// boundaries are inclusive.
func (r speedRule) Evaluate(ctx Context) (Outcome, bool) {
	if ctx.Event != EventAttemptCompleted || !ctx.Passed || ctx.TimeRatio == nil {
		return Outcome{}, false
	}
	ratio := *ctx.TimeRatio
	for _, bracket := range r.h.SpeedBrackets {
		if ratio > bracket.MaxRatio {
			continue
		}
		out := Outcome{
			Points:      bracket.Points,
			PointType:   TypeSpeedBonus,
			Description: fmt.Sprintf("Finished in %.0f%% of the time limit", ratio*100),
		}
		if ratio <= r.h.SpeedBadgeRatio {
			out.Badges = []string{domain.BadgeSpeedster}
		}
		return out, true
	}
	return Outcome{}, false
}

type streakRule struct{ h Heuristics }

func (streakRule) Code() string { return TypeStreakBonus }

// streakRule walks the milestones in ascending order and pays every
// threshold at or under the current streak that is strictly above the last
// paid milestone. With streaks growing one pass at a time that is at most
// one milestone per completion, but the walk stays general.
func (r streakRule) Evaluate(ctx Context) (Outcome, bool) {
	if ctx.Event != EventAttemptCompleted || ctx.CurrentStreak == 0 {
		return Outcome{}, false
	}
	var out Outcome
	for _, m := range r.h.StreakMilestones {
		if m.Threshold > ctx.CurrentStreak || m.Threshold <= ctx.LastStreakAward {
			continue
		}
		out.Points += m.Points
		out.StreakMilestone = m.Threshold
		if m.Threshold >= r.h.StreakBadgeMin {
			out.Badges = append(out.Badges, domain.BadgeStreakMaster)
		}
	}
	if out.Points == 0 {
		return Outcome{}, false
	}
	out.PointType = TypeStreakBonus
	out.Description = fmt.Sprintf("Streak of %d passed assessments", ctx.CurrentStreak)
	return out, true
}
