package app

import (
	"context"

	"go.uber.org/zap"

	"certify-service/internal/domain"
)

// LogNotifier is the fallback AwardNotifier for deployments without a
// message relay: it only writes the award to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyAward(_ context.Context, summary domain.AwardSummary) error {
	n.logger.Info("award summary",
		zap.Int64("user_id", summary.UserID),
		zap.Int64("attempt_id", summary.AttemptID),
		zap.Bool("passed", summary.Passed),
		zap.Int("total_earned", summary.TotalEarned),
		zap.Int("points_after", summary.PointsAfter),
		zap.Int("level_after", summary.LevelAfter),
		zap.Int("new_badges", len(summary.NewBadges)))
	return nil
}
