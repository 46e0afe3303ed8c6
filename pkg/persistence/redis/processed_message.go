package redis

import (
	"context"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	rd "github.com/redis/go-redis/v9"
)

// ProcessedMessageRepository marks message ids with SET NX and expires them after ttl.
type ProcessedMessageRepository struct {
	client rd.UniversalClient
	keys   keyspace
	ttl    time.Duration
}

func (r *ProcessedMessageRepository) Has(ctx context.Context, messageID string) (bool, error) {
	count, err := r.client.Exists(ctx, r.keys.processed(messageID)).Result()
	if err != nil {
		return false, persistence.NewError("Has", messageID, err)
	}

	return count > 0, nil
}

func (r *ProcessedMessageRepository) Put(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, persistence.NewError("Put", messageID, persistence.ErrInvalidID)
	}

	inserted, err := r.client.SetNX(ctx, r.keys.processed(messageID), time.Now().UTC().Unix(), r.ttl).Result()
	if err != nil {
		return false, persistence.NewError("Put", messageID, err)
	}

	return inserted, nil
}
