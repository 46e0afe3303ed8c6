package cmd

import (
	"context"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/scheduler"
)

// NewDelayQueue keeps resume requests in Redis when redisURL is set and in
// process memory otherwise.
func NewDelayQueue(ctx context.Context, logger *slog.Logger, redisURL string) (scheduler.DelayQueue, error) {
	if redisURL == "" {
		logger.WarnContext(ctx, "REDIS_URL not set, pending delays will not survive a restart")

		return scheduler.NewMemoryDelayQueue(), nil
	}

	queue, err := scheduler.NewRedisDelayQueueFromURL(ctx, logger, redisURL)
	if err != nil {
		return nil, err
	}

	return queue, nil
}
