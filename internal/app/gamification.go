package app

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"certify-service/internal/domain"
	"certify-service/internal/scoring"
)

// Gamification computes and applies the progression update for one completed
// attempt. It always runs inside the caller's transaction: the user row and
// the user's stats row stay locked for the whole computation, so concurrent
// completions by the same user serialize and points are never double
// awarded.
type Gamification struct {
	rules      RuleSource
	settings   Settings
	heuristics scoring.Heuristics
	logger     *zap.Logger
	now        func() time.Time
}

func NewGamification(rules RuleSource, settings Settings, heuristics scoring.Heuristics, logger *zap.Logger) *Gamification {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gamification{
		rules:      rules,
		settings:   settings,
		heuristics: heuristics,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock overrides the wall clock for deterministic tests.
func (g *Gamification) WithClock(now func() time.Time) *Gamification {
	g.now = now
	return g
}

// ProcessCompletion applies the full scoring pipeline for the attempt: streak
// update, heuristic and catalog rule evaluation, point/level persistence, the
// audit ledger, the monthly team challenge and badge awards. Any error aborts
// the enclosing transaction; nothing is ever partially applied.
func (g *Gamification) ProcessCompletion(ctx context.Context, tx Tx, assessment domain.Assessment, attempt domain.Attempt) (domain.AwardSummary, error) {
	summary := domain.AwardSummary{UserID: attempt.UserID, AttemptID: attempt.ID}

	user, err := tx.Users().GetForUpdate(ctx, attempt.UserID)
	if err != nil {
		return summary, err
	}
	if user.Role != domain.RoleEmployee {
		summary.Skipped = domain.SkipNotEmployee
		return summary, nil
	}

	stats, err := tx.Stats().GetOrCreateForUpdate(ctx, user.ID)
	if err != nil {
		return summary, err
	}

	now := g.now().UTC()
	passed := attempt.ScorePercent >= assessment.PassScorePercent
	perfect := attempt.TotalQuestions > 0 && attempt.CorrectAnswers == attempt.TotalQuestions

	var timeRatio *float64
	if assessment.TimeLimitMinutes > 0 {
		r := float64(attempt.TimeSpentSeconds) / float64(assessment.TimeLimitMinutes*60)
		timeRatio = &r
	}

	lastAward := stats.LastStreakAward
	stats.LastAttemptAt = &now
	if passed {
		stats.CurrentStreak++
		stats.LastSuccessAt = &now
		if stats.CurrentStreak > stats.LongestStreak {
			stats.LongestStreak = stats.CurrentStreak
		}
	} else {
		// A failed completion breaks the run; the paid-milestone marker
		// resets with it so a rebuilt streak can earn milestones again.
		stats.CurrentStreak = 0
		stats.LastStreakAward = 0
		lastAward = 0
	}

	evalCtx := scoring.Context{
		Event:           scoring.EventAttemptCompleted,
		UserID:          user.ID,
		AssessmentID:    assessment.ID,
		BranchID:        user.BranchID,
		PositionID:      user.PositionID,
		ScorePercent:    attempt.ScorePercent,
		Passed:          passed,
		Perfect:         perfect,
		TimeRatio:       timeRatio,
		CurrentStreak:   stats.CurrentStreak,
		LastStreakAward: lastAward,
		BasePoints:      g.heuristics.BaseScore(attempt.ScorePercent),
	}

	rules := scoring.BuiltinRules(g.heuristics)
	if enabled, err := g.settings.RulesEnabled(ctx); err != nil {
		return summary, err
	} else if enabled {
		catalog, err := g.rules.ActiveRules(ctx, now)
		if err != nil {
			return summary, err
		}
		rules = append(rules, scoring.FromCatalog(catalog)...)
	}

	result := scoring.NewEngine(rules).Evaluate(evalCtx, scoring.CombineAdditive)

	if result.StreakMilestone > stats.LastStreakAward {
		stats.LastStreakAward = result.StreakMilestone
	}
	if err := tx.Stats().Update(ctx, stats); err != nil {
		return summary, err
	}

	newPoints := user.Points + result.Total
	if newPoints < 0 {
		newPoints = 0
	}

	ladder, err := tx.Levels().List(ctx)
	if err != nil {
		return summary, err
	}
	newLevel := user.Level
	if level, ok := domain.FindLevelForPoints(ladder, newPoints); ok {
		newLevel = level.Number
	}
	if err := tx.Users().UpdateProgress(ctx, user.ID, newPoints, newLevel); err != nil {
		return summary, err
	}

	for _, award := range result.Awards {
		err := tx.PointEvents().Record(ctx, domain.PointEvent{
			UserID:      user.ID,
			Type:        award.Type,
			Delta:       award.Points,
			Description: award.Description,
			BranchID:    user.BranchID,
			PositionID:  user.PositionID,
			CreatedAt:   now,
		})
		if err != nil {
			return summary, err
		}
	}

	periodStart, periodEnd := domain.ChallengePeriod(now)
	if result.Total > 0 && user.BranchID != 0 {
		challenge, err := tx.Challenges().GetOrCreate(ctx, periodStart, periodEnd)
		if err != nil {
			return summary, err
		}
		if err := tx.Challenges().AddBranchPoints(ctx, challenge.ID, user.BranchID, result.Total); err != nil {
			return summary, err
		}
		summary.Challenge = &challenge
	}

	badgeCodes := result.Badges
	if passed {
		done, err := g.allAssignedFinished(ctx, tx, user)
		if err != nil {
			return summary, err
		}
		if done {
			badgeCodes = append(badgeCodes, domain.BadgeAllTestsCompleted)
		}
	}

	for _, code := range badgeCodes {
		badge, err := tx.Badges().GetByCode(ctx, code)
		if errors.Is(err, domain.ErrBadgeNotFound) {
			// A rule can name a badge the catalog does not carry; that is an
			// admin mistake, not a reason to fail the completion.
			g.logger.Warn("badge code missing from catalog", zap.String("code", code))
			continue
		}
		if err != nil {
			return summary, err
		}
		fresh, err := tx.Badges().Award(ctx, user.ID, badge.ID, now)
		if err != nil {
			return summary, err
		}
		if fresh {
			summary.NewBadges = append(summary.NewBadges, badge)
			g.logger.Info("badge awarded",
				zap.Int64("user_id", user.ID),
				zap.String("badge", badge.Code))
		}
	}

	monthPoints, err := tx.PointEvents().MonthTotal(ctx, user.ID, periodStart, periodEnd)
	if err != nil {
		return summary, err
	}

	summary.Passed = passed
	summary.TotalEarned = result.Total
	summary.Breakdown = result.Awards
	summary.PointsBefore = user.Points
	summary.PointsAfter = newPoints
	summary.LevelBefore = user.Level
	summary.LevelAfter = newLevel
	summary.CurrentStreak = stats.CurrentStreak
	summary.LongestStreak = stats.LongestStreak
	summary.MonthPoints = monthPoints
	if next, ok := domain.FindNextLevel(ladder, newPoints); ok {
		summary.NextLevelIn = next.MinPoints - newPoints
	}
	return summary, nil
}

// allAssignedFinished reports whether the user has at least one assignment
// and every assigned assessment already has a completed attempt at or above
// its pass threshold.
func (g *Gamification) allAssignedFinished(ctx context.Context, tx Tx, user domain.User) (bool, error) {
	assigned, err := tx.Assessments().ListAssignedTo(ctx, user)
	if err != nil {
		return false, err
	}
	if len(assigned) == 0 {
		return false, nil
	}
	best, err := tx.Attempts().BestScores(ctx, user.ID)
	if err != nil {
		return false, err
	}
	for _, a := range assigned {
		score, ok := best[a.ID]
		if !ok || score < a.PassScorePercent {
			return false, nil
		}
	}
	return true, nil
}
