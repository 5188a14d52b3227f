package scoring

import (
	"testing"

	"certify-service/internal/domain"
)

func ratio(v float64) *float64 { return &v }

func completedCtx() Context {
	return Context{
		Event:        EventAttemptCompleted,
		UserID:       1,
		AssessmentID: 10,
		BranchID:     2,
		PositionID:   3,
	}
}

func evalBuiltin(t *testing.T, ctx Context) Result {
	t.Helper()
	engine := NewEngine(BuiltinRules(DefaultHeuristics()))
	return engine.Evaluate(ctx, CombineAdditive)
}

func TestPerfectFastFirstPass(t *testing.T) {
	// 10/10 correct in 8 of 20 minutes, first-ever pass.
	ctx := completedCtx()
	ctx.ScorePercent = 100
	ctx.Passed = true
	ctx.Perfect = true
	ctx.TimeRatio = ratio(0.4)
	ctx.CurrentStreak = 1

	res := evalBuiltin(t, ctx)
	if res.Total != 185 {
		t.Fatalf("expected 185 points, got %d (%+v)", res.Total, res.Awards)
	}
	wantBadges := map[string]bool{
		domain.BadgePerfectRun:   true,
		domain.BadgeCompetence90: true,
		domain.BadgeSpeedster:    true,
	}
	if len(res.Badges) != len(wantBadges) {
		t.Fatalf("expected %d badges, got %v", len(wantBadges), res.Badges)
	}
	for _, b := range res.Badges {
		if !wantBadges[b] {
			t.Fatalf("unexpected badge %q", b)
		}
	}
	if res.StreakMilestone != 0 {
		t.Fatalf("no streak milestone expected at streak=1, got %d", res.StreakMilestone)
	}
}

func TestFailedAttemptStillEarnsBase(t *testing.T) {
	// 5/10 correct against pass score 70: base only, streak reset upstream.
	ctx := completedCtx()
	ctx.ScorePercent = 50
	ctx.TimeRatio = ratio(0.4)

	res := evalBuiltin(t, ctx)
	if res.Total != 50 {
		t.Fatalf("expected base 50 only, got %d (%+v)", res.Total, res.Awards)
	}
	if len(res.Awards) != 1 || res.Awards[0].Type != TypeBaseScore {
		t.Fatalf("expected a single base award, got %+v", res.Awards)
	}
	if len(res.Badges) != 0 {
		t.Fatalf("expected no badges, got %v", res.Badges)
	}
}

func TestStreakMilestones(t *testing.T) {
	// Third consecutive pass: +25, no streak_master yet.
	ctx := completedCtx()
	ctx.ScorePercent = 80
	ctx.Passed = true
	ctx.CurrentStreak = 3
	ctx.LastStreakAward = 0

	res := evalBuiltin(t, ctx)
	if got := awardPoints(res, TypeStreakBonus); got != 25 {
		t.Fatalf("expected +25 streak bonus, got %d", got)
	}
	if res.StreakMilestone != 3 {
		t.Fatalf("expected milestone 3, got %d", res.StreakMilestone)
	}
	if hasBadge(res, domain.BadgeStreakMaster) {
		t.Fatalf("streak_master must not be granted below threshold 5")
	}

	// Fifth consecutive pass: +40 more and the badge.
	ctx.CurrentStreak = 5
	ctx.LastStreakAward = 3
	res = evalBuiltin(t, ctx)
	if got := awardPoints(res, TypeStreakBonus); got != 40 {
		t.Fatalf("expected +40 streak bonus, got %d", got)
	}
	if !hasBadge(res, domain.BadgeStreakMaster) {
		t.Fatalf("expected streak_master at milestone 5")
	}
}

func TestStreakMilestoneNotRepaid(t *testing.T) {
	// Fourth consecutive pass right after the 3-milestone paid out.
	ctx := completedCtx()
	ctx.ScorePercent = 80
	ctx.Passed = true
	ctx.CurrentStreak = 4
	ctx.LastStreakAward = 3

	res := evalBuiltin(t, ctx)
	if got := awardPoints(res, TypeStreakBonus); got != 0 {
		t.Fatalf("milestone 3 must not be re-paid, got %d", got)
	}
}

func TestSpeedBracketBoundariesInclusive(t *testing.T) {
	cases := []struct {
		ratio float64
		want  int
	}{
		{0.5, 25},
		{0.500001, 15},
		{0.7, 15},
		{0.71, 10},
		{0.85, 10},
		{0.851, 0},
		{1.2, 0},
	}
	for _, tc := range cases {
		ctx := completedCtx()
		ctx.ScorePercent = 80
		ctx.Passed = true
		ctx.TimeRatio = ratio(tc.ratio)

		res := evalBuiltin(t, ctx)
		if got := awardPoints(res, TypeSpeedBonus); got != tc.want {
			t.Fatalf("ratio=%v: expected speed bonus %d, got %d", tc.ratio, tc.want, got)
		}
	}
}

func TestSpeedRequiresPassAndLimit(t *testing.T) {
	ctx := completedCtx()
	ctx.ScorePercent = 60
	ctx.TimeRatio = ratio(0.3)
	if got := awardPoints(evalBuiltin(t, ctx), TypeSpeedBonus); got != 0 {
		t.Fatalf("failed attempt must not earn a speed bonus, got %d", got)
	}

	ctx.Passed = true
	ctx.TimeRatio = nil
	if got := awardPoints(evalBuiltin(t, ctx), TypeSpeedBonus); got != 0 {
		t.Fatalf("no time limit means no speed bonus, got %d", got)
	}
}

func TestBaseScoreNeverNegative(t *testing.T) {
	h := DefaultHeuristics()
	if got := h.BaseScore(-5); got != 0 {
		t.Fatalf("expected clamp to zero, got %d", got)
	}
	if got := h.BaseScore(66.67); got != 67 {
		t.Fatalf("expected round to 67, got %d", got)
	}
}

func awardPoints(res Result, typ string) int {
	total := 0
	for _, a := range res.Awards {
		if a.Type == typ {
			total += a.Points
		}
	}
	return total
}

func hasBadge(res Result, code string) bool {
	for _, b := range res.Badges {
		if b == code {
			return true
		}
	}
	return false
}
