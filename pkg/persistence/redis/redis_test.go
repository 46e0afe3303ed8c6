package redis_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	store "github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/redis"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/testutil"
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStore returns a store isolated under a random namespace.
func newStore(t *testing.T) *store.Persistence {
	t.Helper()

	client := rd.NewClient(&rd.Options{Addr: testutil.RedisAddress(t)})
	require.NoError(t, client.Ping(context.Background()).Err())

	p := store.NewPersistenceWithClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client, "test:"+uuid.NewString())

	t.Cleanup(func() {
		_ = p.Close(context.Background())
	})

	return p
}

func TestFlowRepository_ActiveFlowsFollowsChannel(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).FlowRepository()

	first := testutil.CreateTestFlow(testutil.WithPriority(1))
	second := testutil.CreateTestFlow(testutil.WithPriority(5))
	draft := testutil.CreateTestFlow(func(f *models.Flow) { f.IsPublished = false })

	for _, flow := range []*models.Flow{first, second, draft} {
		require.NoError(t, repo.SaveFlow(ctx, flow))
	}

	active, err := repo.ActiveFlows(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, first.ID, active[1].ID)

	second.ChannelID = "ch-2"
	require.NoError(t, repo.SaveFlow(ctx, second))

	active, err = repo.ActiveFlows(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	require.NoError(t, repo.DeleteFlow(ctx, first.ID))
	require.NoError(t, repo.DeleteFlow(ctx, first.ID))

	_, err = repo.FlowByID(ctx, first.ID)
	assert.True(t, persistence.IsFlowNotFound(err))

	all, err := repo.Flows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestChannelRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).ChannelRepository()

	require.NoError(t, repo.SaveChannel(ctx, testutil.CreateTestChannel("ch-1")))

	channel, err := repo.ChannelByID(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "phone-ch-1", channel.PhoneNumberID)

	_, err = repo.ChannelByID(ctx, "ch-9")
	assert.True(t, persistence.IsChannelNotFound(err))

	channels, err := repo.Channels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestExecutionStateRepository_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	first := &models.ExecutionState{ID: "a", ConversationID: key.ConversationID, ChannelID: key.ChannelID, Status: models.ExecutionStatusRunning}
	second := &models.ExecutionState{ID: "b", ConversationID: key.ConversationID, ChannelID: key.ChannelID, Status: models.ExecutionStatusRunning}

	require.NoError(t, repo.Save(ctx, first))
	assert.Equal(t, int64(1), first.Version)

	err := repo.Save(ctx, second)
	assert.True(t, persistence.IsVersionConflict(err))

	first.Status = models.ExecutionStatusWaiting
	first.Wait = &models.Wait{Kind: models.WaitKindTimer, PendingResumeID: "r-1"}
	require.NoError(t, repo.Save(ctx, first))

	loaded, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "a", loaded.ID)
	assert.Equal(t, int64(2), loaded.Version)
	assert.Equal(t, "r-1", loaded.Wait.PendingResumeID)

	require.NoError(t, repo.Delete(ctx, key))

	_, err = repo.Get(ctx, key)
	assert.True(t, persistence.IsExecutionStateNotFound(err))
}

func TestExecutionStateRepository_Lease(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	held, err := repo.AcquireLease(ctx, key, "a", time.Minute)
	require.NoError(t, err)
	assert.True(t, held)

	held, err = repo.AcquireLease(ctx, key, "b", time.Minute)
	require.NoError(t, err)
	assert.False(t, held)

	require.NoError(t, repo.ReleaseLease(ctx, key, "b"))

	held, err = repo.AcquireLease(ctx, key, "a", 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, held)

	require.Eventually(t, func() bool {
		held, err := repo.AcquireLease(ctx, key, "b", time.Minute)

		return err == nil && held
	}, 2*time.Second, 20*time.Millisecond)

	_, err = repo.AcquireLease(ctx, key, "c", 0)
	assert.Error(t, err)
}

func TestProcessedMessageRepository_Put(t *testing.T) {
	ctx := context.Background()
	repo := newStore(t).ProcessedMessageRepository()

	inserted, err := repo.Put(ctx, "wamid.1")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Put(ctx, "wamid.1")
	require.NoError(t, err)
	assert.False(t, inserted)

	has, err := repo.Has(ctx, "wamid.2")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestExecutionStateRepository_CorruptState(t *testing.T) {
	ctx := context.Background()
	client := rd.NewClient(&rd.Options{Addr: testutil.RedisAddress(t)})
	namespace := "test:" + uuid.NewString()
	repo := store.NewPersistenceWithClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client, namespace).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	t.Cleanup(func() {
		_ = client.Close()
	})

	require.NoError(t, client.HSet(ctx, namespace+":execution:"+key.String(), "data", "{not json", "version", 1).Err())

	_, err := repo.Get(ctx, key)
	assert.True(t, persistence.IsCorruptState(err))

	require.NoError(t, repo.Delete(ctx, key))

	_, err = repo.Get(ctx, key)
	assert.True(t, persistence.IsExecutionStateNotFound(err))
}
