package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	rd "github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "chatflow:resume_queue"

// RedisDelayQueue keeps request ids in a sorted set scored by due time, with
// the request bodies in a companion hash. Several workers may share it.
type RedisDelayQueue struct {
	client  rd.UniversalClient
	logger  *slog.Logger
	zsetKey string
	hashKey string
	owned   bool
}

// NewRedisDelayQueueFromURL connects to redisURL. Close releases the connection.
func NewRedisDelayQueueFromURL(ctx context.Context, logger *slog.Logger, redisURL string) (*RedisDelayQueue, error) {
	options, err := rd.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := rd.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	q := NewRedisDelayQueue(logger, client, DefaultRedisKey)
	q.owned = true

	return q, nil
}

func NewRedisDelayQueue(logger *slog.Logger, client rd.UniversalClient, key string) *RedisDelayQueue {
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisDelayQueue{
		client:  client,
		logger:  logger.With("module", "redis_delay_queue"),
		zsetKey: key,
		hashKey: key + ":requests",
	}
}

func (q *RedisDelayQueue) Push(ctx context.Context, request models.ResumeRequest) error {
	if err := validate(request); err != nil {
		return err
	}

	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to encode resume request: %w", err)
	}

	_, err = q.client.TxPipelined(ctx, func(pipe rd.Pipeliner) error {
		pipe.HSet(ctx, q.hashKey, request.ID, body)
		pipe.ZAdd(ctx, q.zsetKey, rd.Z{Score: score(request.DueAt), Member: request.ID})

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to queue resume request: %w", err)
	}

	return nil
}

func (q *RedisDelayQueue) PopDue(ctx context.Context, now time.Time, limit int) ([]models.ResumeRequest, error) {
	rangeBy := &rd.ZRangeBy{Min: "-inf", Max: strconv.FormatFloat(score(now), 'f', -1, 64)}
	if limit > 0 {
		rangeBy.Count = int64(limit)
	}

	ids, err := q.client.ZRangeByScore(ctx, q.zsetKey, rangeBy).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read due requests: %w", err)
	}

	var due []models.ResumeRequest

	for _, id := range ids {
		// ZREM decides which worker owns the request.
		removed, err := q.client.ZRem(ctx, q.zsetKey, id).Result()
		if err != nil {
			return due, fmt.Errorf("failed to claim resume request %s: %w", id, err)
		}

		if removed == 0 {
			continue
		}

		body, err := q.client.HGet(ctx, q.hashKey, id).Bytes()
		if err != nil {
			q.logger.WarnContext(ctx, "Claimed resume request has no body", "resume_id", id, "error", err)

			continue
		}

		q.client.HDel(ctx, q.hashKey, id)

		var request models.ResumeRequest
		if err := json.Unmarshal(body, &request); err != nil {
			q.logger.ErrorContext(ctx, "Dropping undecodable resume request", "resume_id", id, "error", err)

			continue
		}

		due = append(due, request)
	}

	return due, nil
}

func (q *RedisDelayQueue) Len(ctx context.Context) (int, error) {
	n, err := q.client.ZCard(ctx, q.zsetKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count queued requests: %w", err)
	}

	return int(n), nil
}

// Close releases the connection when the queue opened it.
func (q *RedisDelayQueue) Close() error {
	if !q.owned {
		return nil
	}

	return q.client.Close()
}

func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}
