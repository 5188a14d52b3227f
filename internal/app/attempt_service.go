package app

import (
	"context"
	"time"

	"go.uber.org/zap"

	"certify-service/internal/domain"
)

// AttemptService drives the attempt lifecycle: start, answer, complete.
// Completion hands off to the gamification pipeline inside the same
// transaction, so a failed award computation also rolls the completion back.
type AttemptService struct {
	store    Store
	game     *Gamification
	notifier AwardNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewAttemptService(store Store, game *Gamification, notifier AwardNotifier, logger *zap.Logger) *AttemptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptService{
		store:    store,
		game:     game,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock overrides the wall clock for deterministic tests.
func (s *AttemptService) WithClock(now func() time.Time) *AttemptService {
	s.now = now
	return s
}

// Start opens a new attempt or resumes the user's in-progress one. The
// assessment row is locked before the in-progress check so two concurrent
// starts cannot both pass the attempt-count gate.
func (s *AttemptService) Start(ctx context.Context, assessmentID, userID int64) (domain.StartedAttempt, error) {
	var started domain.StartedAttempt
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		assessment, err := tx.Assessments().GetForUpdate(ctx, assessmentID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		if existing, ok, err := tx.Attempts().FindInProgress(ctx, assessmentID, userID); err != nil {
			return err
		} else if ok {
			started = domain.StartedAttempt{
				AttemptID:        existing.ID,
				AttemptNumber:    existing.AttemptNumber,
				TimeLimitMinutes: assessment.TimeLimitMinutes,
				RemainingSeconds: domain.RemainingSeconds(existing.StartedAt, now, assessment.TimeLimit()),
				Resumed:          true,
			}
			return nil
		}

		switch assessment.Status(now) {
		case domain.AssessmentPending:
			return domain.ErrAssessmentNotOpen
		case domain.AssessmentClosed:
			return domain.ErrAssessmentClosed
		}
		if len(assessment.Questions) == 0 {
			return domain.ErrNoQuestions
		}

		count, err := tx.Attempts().CountForUser(ctx, assessmentID, userID)
		if err != nil {
			return err
		}
		number := count + 1
		if assessment.MaxAttempts > 0 && number > assessment.MaxAttempts {
			return domain.ErrAttemptLimitExceeded
		}

		attempt := domain.Attempt{
			AssessmentID:  assessmentID,
			UserID:        userID,
			AttemptNumber: number,
			Status:        domain.AttemptInProgress,
			StartedAt:     now,
		}
		if err := tx.Attempts().Create(ctx, &attempt); err != nil {
			return err
		}

		started = domain.StartedAttempt{
			AttemptID:        attempt.ID,
			AttemptNumber:    attempt.AttemptNumber,
			TimeLimitMinutes: assessment.TimeLimitMinutes,
			RemainingSeconds: assessment.TimeLimitMinutes * 60,
		}
		return nil
	})
	return started, err
}

// SaveAnswer upserts the answer for (attempt, question), snapshotting the
// option's correctness at answer time. No scoring happens here.
func (s *AttemptService) SaveAnswer(ctx context.Context, attemptID, userID, questionID, optionID int64) error {
	return s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		attempt, err := tx.Attempts().GetForUpdate(ctx, attemptID)
		if err != nil {
			return err
		}
		// Another user's attempt looks like a missing one.
		if attempt.UserID != userID {
			return domain.ErrAttemptNotFound
		}
		if attempt.Status != domain.AttemptInProgress {
			return domain.ErrAttemptCompleted
		}

		assessment, err := tx.Assessments().Get(ctx, attempt.AssessmentID)
		if err != nil {
			return err
		}
		question, ok := assessment.Question(questionID)
		if !ok {
			return domain.ErrQuestionNotFound
		}
		option, ok := question.Option(optionID)
		if !ok {
			return domain.ErrOptionNotFound
		}

		return tx.Attempts().UpsertAnswer(ctx, domain.Answer{
			AttemptID:  attemptID,
			QuestionID: questionID,
			OptionID:   optionID,
			IsCorrect:  option.IsCorrect,
			AnsweredAt: s.now().UTC(),
		})
	})
}

// Complete finalizes the attempt, computes its score from the answer
// snapshots and runs the gamification pipeline in the same transaction. The
// award summary is relayed to the notifier best-effort after commit.
func (s *AttemptService) Complete(ctx context.Context, attemptID, userID int64) (domain.Attempt, domain.AwardSummary, error) {
	var (
		attempt domain.Attempt
		summary domain.AwardSummary
	)
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		attempt, err = tx.Attempts().GetForUpdate(ctx, attemptID)
		if err != nil {
			return err
		}
		if attempt.UserID != userID {
			return domain.ErrAttemptNotFound
		}
		if attempt.Status != domain.AttemptInProgress {
			return domain.ErrAttemptCompleted
		}

		assessment, err := tx.Assessments().Get(ctx, attempt.AssessmentID)
		if err != nil {
			return err
		}
		correct, err := tx.Attempts().CountCorrectAnswers(ctx, attemptID)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		attempt.Status = domain.AttemptCompleted
		attempt.CompletedAt = &now
		attempt.TotalQuestions = len(assessment.Questions)
		attempt.CorrectAnswers = correct
		attempt.ScorePercent = domain.ScorePercent(correct, attempt.TotalQuestions)
		spent := int(now.Sub(attempt.StartedAt) / time.Second)
		if spent < 0 {
			spent = 0
		}
		attempt.TimeSpentSeconds = spent

		if err := tx.Attempts().Update(ctx, &attempt); err != nil {
			return err
		}

		summary, err = s.game.ProcessCompletion(ctx, tx, assessment, attempt)
		return err
	})
	if err != nil {
		return domain.Attempt{}, domain.AwardSummary{}, err
	}

	s.logger.Info("attempt completed",
		zap.Int64("attempt_id", attempt.ID),
		zap.Int64("assessment_id", attempt.AssessmentID),
		zap.Int64("user_id", attempt.UserID),
		zap.Float64("score_percent", attempt.ScorePercent),
		zap.Bool("passed", summary.Passed),
		zap.Int("points_earned", summary.TotalEarned))

	if s.notifier != nil && summary.Skipped == "" {
		if nerr := s.notifier.NotifyAward(ctx, summary); nerr != nil {
			// The transaction is committed; a lost notification must not
			// fail the completion.
			s.logger.Warn("award notification failed", zap.Error(nerr))
		}
	}
	return attempt, summary, nil
}
