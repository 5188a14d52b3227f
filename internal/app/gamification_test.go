package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"certify-service/internal/app"
	"certify-service/internal/domain"
	"certify-service/internal/infra/memory"
)

// runAttempt starts, answers and completes one attempt, returning the award
// summary.
func (f *fixture) runAttempt(t *testing.T, a domain.Assessment, userID int64, correct int, spent time.Duration) domain.AwardSummary {
	t.Helper()
	ctx := context.Background()
	st, err := f.svc.Start(ctx, a.ID, userID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	f.answerAll(t, a, st.AttemptID, userID, correct)
	f.advance(spent)
	_, summary, err := f.svc.Complete(ctx, st.AttemptID, userID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	return summary
}

func TestPerfectFastFirstPassScenario(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, nil) // pass 70, limit 20min
	u := f.seedEmployee(t)

	summary := f.runAttempt(t, a, u.ID, 10, 8*time.Minute)

	if !summary.Passed {
		t.Fatalf("expected a pass")
	}
	// base 100 + perfect 40 + competence 20 + speed 25 (ratio 0.4)
	if summary.TotalEarned != 185 {
		t.Fatalf("expected 185 points, got %d (%+v)", summary.TotalEarned, summary.Breakdown)
	}
	if summary.PointsBefore != 0 || summary.PointsAfter != 185 {
		t.Fatalf("unexpected point movement %d -> %d", summary.PointsBefore, summary.PointsAfter)
	}
	if summary.CurrentStreak != 1 {
		t.Fatalf("expected streak 1, got %d", summary.CurrentStreak)
	}

	want := map[string]bool{
		domain.BadgePerfectRun:   true,
		domain.BadgeCompetence90: true,
		domain.BadgeSpeedster:    true,
	}
	if len(summary.NewBadges) != len(want) {
		t.Fatalf("expected %d new badges, got %+v", len(want), summary.NewBadges)
	}
	for _, b := range summary.NewBadges {
		if !want[b.Code] {
			t.Fatalf("unexpected badge %q", b.Code)
		}
	}

	if user, _ := f.store.User(u.ID); user.Points != 185 {
		t.Fatalf("expected persisted points 185, got %d", user.Points)
	}
	if summary.MonthPoints != 185 {
		t.Fatalf("expected month total 185, got %d", summary.MonthPoints)
	}
	if summary.Challenge == nil {
		t.Fatalf("expected the monthly challenge to be attached")
	}
}

func TestFailedAttemptEarnsBaseOnly(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, nil)
	u := f.seedEmployee(t)

	// Build a streak first so the failure visibly resets it.
	f.runAttempt(t, a, u.ID, 10, 5*time.Minute)

	summary := f.runAttempt(t, a, u.ID, 5, 5*time.Minute)
	if summary.Passed {
		t.Fatalf("50%% against pass 70 must fail")
	}
	if summary.TotalEarned != 50 {
		t.Fatalf("base score is unconditional: expected 50, got %d (%+v)", summary.TotalEarned, summary.Breakdown)
	}
	if summary.CurrentStreak != 0 {
		t.Fatalf("expected streak reset, got %d", summary.CurrentStreak)
	}
	if len(summary.NewBadges) != 0 {
		t.Fatalf("expected no badges on a fail, got %+v", summary.NewBadges)
	}
}

func TestStreakMilestoneProgression(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, func(a *domain.Assessment) {
		a.MaxAttempts = 0 // unlimited
		a.TimeLimitMinutes = 0
	})
	u := f.seedEmployee(t)

	var summaries []domain.AwardSummary
	for i := 0; i < 5; i++ {
		summaries = append(summaries, f.runAttempt(t, a, u.ID, 8, time.Minute))
	}

	// 8/10 = 80%: base 80 each pass, no perfect/competence/speed.
	for i, want := range []int{80, 80, 105, 80, 120} {
		if got := summaries[i].TotalEarned; got != want {
			t.Fatalf("pass %d: expected %d points, got %d (%+v)", i+1, want, got, summaries[i].Breakdown)
		}
	}

	// streak_master arrives with milestone 5, not 3.
	for i := 0; i < 4; i++ {
		for _, b := range summaries[i].NewBadges {
			if b.Code == domain.BadgeStreakMaster {
				t.Fatalf("streak_master granted too early on pass %d", i+1)
			}
		}
	}
	found := false
	for _, b := range summaries[4].NewBadges {
		if b.Code == domain.BadgeStreakMaster {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected streak_master on the fifth pass, got %+v", summaries[4].NewBadges)
	}

	stats, _ := f.store.Stats(u.ID)
	if stats.CurrentStreak != 5 || stats.LongestStreak != 5 || stats.LastStreakAward != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestStreakResetsAndCanRebuild(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, func(a *domain.Assessment) {
		a.MaxAttempts = 0
		a.TimeLimitMinutes = 0
	})
	u := f.seedEmployee(t)

	for i := 0; i < 3; i++ {
		f.runAttempt(t, a, u.ID, 8, time.Minute)
	}
	f.runAttempt(t, a, u.ID, 2, time.Minute) // fail, streak resets

	// Climb back to 3: the milestone is payable again on the new streak.
	var last domain.AwardSummary
	for i := 0; i < 3; i++ {
		last = f.runAttempt(t, a, u.ID, 8, time.Minute)
	}
	if last.TotalEarned != 105 {
		t.Fatalf("expected rebuilt streak to pay milestone 3 again (80+25), got %d", last.TotalEarned)
	}
}

func TestBadgeAwardIdempotent(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, func(a *domain.Assessment) { a.MaxAttempts = 0 })
	u := f.seedEmployee(t)

	first := f.runAttempt(t, a, u.ID, 10, 5*time.Minute)
	second := f.runAttempt(t, a, u.ID, 10, 5*time.Minute)

	if len(first.NewBadges) == 0 {
		t.Fatalf("expected new badges on the first perfect run")
	}
	for _, b := range second.NewBadges {
		if b.Code == domain.BadgePerfectRun {
			t.Fatalf("perfect_run reported as new twice")
		}
	}
	if count := f.store.BadgeCount(u.ID, domain.BadgePerfectRun); count != 1 {
		t.Fatalf("expected exactly one ledger row, got %d", count)
	}
}

func TestNonEmployeeSkipsGamification(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 2, nil)
	manager := f.store.SeedUser(domain.User{Role: "manager", BranchID: 2, Level: 1})

	summary := f.runAttempt(t, a, manager.ID, 2, time.Minute)
	if summary.Skipped != domain.SkipNotEmployee {
		t.Fatalf("expected not_employee skip, got %+v", summary)
	}
	if summary.TotalEarned != 0 || len(summary.NewBadges) != 0 {
		t.Fatalf("skipped summary must be empty, got %+v", summary)
	}
	if user, _ := f.store.User(manager.ID); user.Points != 0 {
		t.Fatalf("manager must not accrue points, got %d", user.Points)
	}
}

func TestCatalogRulesOverlay(t *testing.T) {
	f := newFixture(t, true)
	a := f.seedAssessment(t, 10, nil)
	u := f.seedEmployee(t)

	passed := true
	rule := domain.GamificationRule{
		Code:      "first_class_pass",
		Name:      "First class pass",
		Type:      domain.RulePoints,
		Condition: domain.RuleCondition{Passed: &passed},
		Formula:   domain.RuleFormula{Kind: domain.FormulaFixed, Points: 15},
		Active:    true,
	}
	if err := f.store.SaveRule(context.Background(), &rule); err != nil {
		t.Fatalf("save rule: %v", err)
	}

	summary := f.runAttempt(t, a, u.ID, 10, 8*time.Minute)
	if summary.TotalEarned != 200 { // 185 heuristics + 15 rule
		t.Fatalf("expected rule overlay on top of heuristics, got %d (%+v)", summary.TotalEarned, summary.Breakdown)
	}
}

func TestCatalogRulesIgnoredWhenDisabled(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, nil)
	u := f.seedEmployee(t)

	rule := domain.GamificationRule{
		Code:    "never_applied",
		Type:    domain.RulePoints,
		Formula: domain.RuleFormula{Kind: domain.FormulaFixed, Points: 500},
		Active:  true,
	}
	if err := f.store.SaveRule(context.Background(), &rule); err != nil {
		t.Fatalf("save rule: %v", err)
	}

	summary := f.runAttempt(t, a, u.ID, 10, 8*time.Minute)
	if summary.TotalEarned != 185 {
		t.Fatalf("feature flag off must skip catalog rules, got %d", summary.TotalEarned)
	}
}

func TestRuleCatalogSaveInvalidatesCache(t *testing.T) {
	store := memory.NewStore()
	cache := memory.NewRuleCache(store, time.Hour)
	catalog := app.NewRuleCatalog(store, cache)
	ctx := context.Background()

	rules, err := catalog.ActiveRules(ctx, baseTime)
	if err != nil || len(rules) != 0 {
		t.Fatalf("expected empty catalog, got %v %v", rules, err)
	}

	rule := domain.GamificationRule{Code: "fresh", Type: domain.RulePoints, Formula: domain.RuleFormula{Kind: domain.FormulaFixed, Points: 1}, Active: true}
	if err := catalog.Save(ctx, &rule); err != nil {
		t.Fatalf("save: %v", err)
	}

	rules, err = catalog.ActiveRules(ctx, baseTime)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(rules) != 1 || rules[0].Code != "fresh" {
		t.Fatalf("expected the write to be visible immediately, got %v", rules)
	}
}

func TestAllAssignedCompletedBadge(t *testing.T) {
	f := newFixture(t, false)
	u := f.seedEmployee(t) // branch 2
	first := f.seedAssessment(t, 2, func(a *domain.Assessment) {
		a.AssignedBranchIDs = []int64{2}
	})
	second := f.seedAssessment(t, 2, func(a *domain.Assessment) {
		a.AssignedUserIDs = []int64{u.ID}
	})

	summary := f.runAttempt(t, first, u.ID, 2, time.Minute)
	for _, b := range summary.NewBadges {
		if b.Code == domain.BadgeAllTestsCompleted {
			t.Fatalf("badge granted with an assignment still unfinished")
		}
	}

	summary = f.runAttempt(t, second, u.ID, 2, time.Minute)
	found := false
	for _, b := range summary.NewBadges {
		if b.Code == domain.BadgeAllTestsCompleted {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected all_tests_completed after the last assignment, got %+v", summary.NewBadges)
	}
}

func TestCompletionRollsBackAtomically(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 2, nil)
	ctx := context.Background()

	// The attempt references a user the directory does not know: the
	// orchestrator fails and the whole completion must roll back.
	ghost := int64(404)
	st, err := f.svc.Start(ctx, a.ID, ghost)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, _, err := f.svc.Complete(ctx, st.AttemptID, ghost); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected user-not-found, got %v", err)
	}

	// Attempt must still be open: completing after fixing the directory works.
	f.store.SeedUser(domain.User{ID: ghost, Role: domain.RoleEmployee, Level: 1})
	if _, _, err := f.svc.Complete(ctx, st.AttemptID, ghost); err != nil {
		t.Fatalf("expected retry to succeed after rollback, got %v", err)
	}
}

func TestChallengeStandingsAccumulate(t *testing.T) {
	f := newFixture(t, false)
	a := f.seedAssessment(t, 10, func(a *domain.Assessment) { a.MaxAttempts = 0 })
	u := f.seedEmployee(t) // branch 2
	other := f.store.SeedUser(domain.User{Role: domain.RoleEmployee, BranchID: 9, Level: 1})

	f.runAttempt(t, a, u.ID, 8, time.Minute) // 80 to branch 2
	f.runAttempt(t, a, u.ID, 8, time.Minute) // +80
	sum := f.runAttempt(t, a, other.ID, 10, time.Minute)

	if sum.Challenge == nil {
		t.Fatalf("expected challenge in summary")
	}
	err := f.store.RunInTx(context.Background(), func(ctx context.Context, tx app.Tx) error {
		standings, err := tx.Challenges().Standings(ctx, sum.Challenge.ID)
		if err != nil {
			return err
		}
		if len(standings) != 2 {
			t.Fatalf("expected two branches, got %+v", standings)
		}
		byBranch := map[int64]int{}
		for _, s := range standings {
			byBranch[s.BranchID] = s.Points
		}
		if byBranch[2] != 160 {
			t.Fatalf("expected branch 2 at 160, got %d", byBranch[2])
		}
		if byBranch[9] != sum.TotalEarned {
			t.Fatalf("expected branch 9 at %d, got %d", sum.TotalEarned, byBranch[9])
		}
		return nil
	})
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
}
