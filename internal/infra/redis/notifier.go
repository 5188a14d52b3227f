package redis

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"certify-service/internal/domain"
)

// AwardChannel carries one JSON AwardSummary per completed attempt.
const AwardChannel = "gamification:awards"

// AwardNotifier publishes award summaries over Redis pub/sub so the bot
// gateway can push "you earned X points" messages to users. Delivery is
// fire-and-forget: the completion transaction never depends on it.
type AwardNotifier struct {
	client *redis.Client
}

func NewAwardNotifier(client *redis.Client) *AwardNotifier {
	return &AwardNotifier{client: client}
}

func (n *AwardNotifier) NotifyAward(ctx context.Context, summary domain.AwardSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return err
	}
	return n.client.Publish(ctx, AwardChannel, payload).Err()
}
