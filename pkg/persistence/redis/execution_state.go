package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	rd "github.com/redis/go-redis/v9"
)

const (
	fieldVersion = "version"
	fieldData    = "data"
)

var (
	// Writes ARGV[3] when the stored version (0 when absent) equals ARGV[1].
	// Returns 1 on success, 0 on a version conflict.
	saveStateLua = rd.NewScript(`
local key = KEYS[1]
local expected = ARGV[1]

local cur = redis.call('HGET', key, 'version')
if not cur then
	cur = '0'
end
if cur ~= expected then
	return 0
end
redis.call('HSET', key, 'version', ARGV[2], 'data', ARGV[3])
return 1
`)

	// Acquires or extends a lease for the same owner. Returns 1 if held, 0 otherwise.
	leaseAcquireLua = rd.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]
local ttlms = tonumber(ARGV[2])

local cur = redis.call('GET', key)
if not cur then
	redis.call('PSETEX', key, ttlms, owner)
	return 1
end
if cur == owner then
	redis.call('PEXPIRE', key, ttlms)
	return 1
end
return 0
`)

	// Deletes the lease only when owned by ARGV[1].
	leaseReleaseLua = rd.NewScript(`
local key = KEYS[1]
local owner = ARGV[1]

if redis.call('GET', key) == owner then
	redis.call('DEL', key)
	return 1
end
return 0
`)
)

// ExecutionStateRepository keeps each state in a hash holding its version
// next to the JSON document, so saves can compare and swap atomically.
type ExecutionStateRepository struct {
	client rd.UniversalClient
	keys   keyspace
}

func (r *ExecutionStateRepository) Get(ctx context.Context, key models.ExecutionKey) (*models.ExecutionState, error) {
	raw, err := r.client.HGet(ctx, r.keys.execution(key.String()), fieldData).Bytes()
	if errors.Is(err, rd.Nil) {
		return nil, persistence.NewError("Get", key.String(), persistence.ErrExecutionStateNotFound)
	}

	if err != nil {
		return nil, persistence.NewError("Get", key.String(), err)
	}

	var state models.ExecutionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, persistence.NewError("Get", key.String(), fmt.Errorf("%w: %w", persistence.ErrCorruptState, err))
	}

	return &state, nil
}

func (r *ExecutionStateRepository) Save(ctx context.Context, state *models.ExecutionState) error {
	key := state.Key()

	now := time.Now().UTC()
	if state.CreatedAt.IsZero() {
		state.CreatedAt = now
	}

	next := *state
	next.Version++
	next.UpdatedAt = now

	data, err := json.Marshal(&next)
	if err != nil {
		return persistence.NewError("Save", key.String(), fmt.Errorf("failed to marshal execution state: %w", err))
	}

	saved, err := saveStateLua.Run(ctx, r.client,
		[]string{r.keys.execution(key.String())},
		strconv.FormatInt(state.Version, 10),
		strconv.FormatInt(next.Version, 10),
		data,
	).Int()
	if err != nil {
		return persistence.NewError("Save", key.String(), err)
	}

	if saved != 1 {
		return persistence.NewError("Save", key.String(), persistence.ErrVersionConflict)
	}

	state.Version = next.Version
	state.UpdatedAt = next.UpdatedAt

	return nil
}

func (r *ExecutionStateRepository) Delete(ctx context.Context, key models.ExecutionKey) error {
	if err := r.client.Del(ctx, r.keys.execution(key.String())).Err(); err != nil {
		return persistence.NewError("Delete", key.String(), err)
	}

	return nil
}

func (r *ExecutionStateRepository) AcquireLease(ctx context.Context, key models.ExecutionKey, owner string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, persistence.NewError("AcquireLease", key.String(), errors.New("ttl must be > 0"))
	}

	held, err := leaseAcquireLua.Run(ctx, r.client, []string{r.keys.lease(key.String())}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, persistence.NewError("AcquireLease", key.String(), err)
	}

	return held == 1, nil
}

// ReleaseLease is idempotent; releasing a missing or foreign lease succeeds.
func (r *ExecutionStateRepository) ReleaseLease(ctx context.Context, key models.ExecutionKey, owner string) error {
	if err := leaseReleaseLua.Run(ctx, r.client, []string{r.keys.lease(key.String())}, owner).Err(); err != nil {
		return persistence.NewError("ReleaseLease", key.String(), err)
	}

	return nil
}
