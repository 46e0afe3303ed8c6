package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlowRepository_SaveAndActiveFlows(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewPersistence("file://" + t.TempDir())
	repo := store.FlowRepository()

	now := time.Now().UTC()
	flows := []*models.Flow{
		{ID: "low", ChannelID: "ch-1", IsActive: true, IsPublished: true, Priority: 1, UpdatedAt: now},
		{ID: "high", ChannelID: "ch-1", IsActive: true, IsPublished: true, Priority: 9, UpdatedAt: now},
		{ID: "draft", ChannelID: "ch-1", IsActive: true, Priority: 99, UpdatedAt: now},
		{ID: "other", ChannelID: "ch-2", IsActive: true, IsPublished: true, Priority: 50, UpdatedAt: now},
	}

	for _, flow := range flows {
		require.NoError(t, repo.SaveFlow(ctx, flow))
	}

	active, err := repo.ActiveFlows(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "high", active[0].ID)
	assert.Equal(t, "low", active[1].ID)

	all, err := repo.Flows(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	loaded, err := repo.FlowByID(ctx, "draft")
	require.NoError(t, err)
	assert.Equal(t, 99, loaded.Priority)

	require.NoError(t, repo.DeleteFlow(ctx, "draft"))

	_, err = repo.FlowByID(ctx, "draft")
	assert.True(t, persistence.IsFlowNotFound(err))
}

func TestFlowRepository_RejectsPathTraversal(t *testing.T) {
	t.Parallel()

	repo := NewPersistence(t.TempDir()).FlowRepository()

	_, err := repo.FlowByID(context.Background(), "../etc/passwd")
	assert.ErrorIs(t, err, persistence.ErrInvalidID)
}

func TestChannelRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).ChannelRepository()

	_, err := repo.ChannelByID(ctx, "missing")
	assert.True(t, persistence.IsChannelNotFound(err))

	require.NoError(t, repo.SaveChannel(ctx, &models.Channel{ID: "ch-1", PhoneNumberID: "123", AccessToken: "tok", IsActive: true}))

	channel, err := repo.ChannelByID(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "123", channel.PhoneNumberID)
	assert.False(t, channel.CreatedAt.IsZero())

	channels, err := repo.Channels(ctx)
	require.NoError(t, err)
	assert.Len(t, channels, 1)
}

func TestExecutionStateRepository_VersionedSave(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	_, err := repo.Get(ctx, key)
	require.True(t, persistence.IsExecutionStateNotFound(err))

	state := &models.ExecutionState{
		ID:             "exec-1",
		ConversationID: key.ConversationID,
		ChannelID:      key.ChannelID,
		FlowID:         "flow-1",
		Status:         models.ExecutionStatusWaiting,
		CurrentNodeID:  "ask",
		Wait:           &models.Wait{Kind: models.WaitKindReply, VariableName: "answer"},
		Variables:      map[string]any{"customer_name": "Sam"},
		LoopCounters:   map[string]int{"loop-1": 2},
	}

	require.NoError(t, repo.Save(ctx, state))
	assert.Equal(t, int64(1), state.Version)

	loaded, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "ask", loaded.CurrentNodeID)
	assert.Equal(t, "answer", loaded.Wait.VariableName)
	assert.Equal(t, "Sam", loaded.Variables["customer_name"])
	assert.Equal(t, 2, loaded.LoopCounters["loop-1"])

	stale := *loaded
	loaded.Status = models.ExecutionStatusCompleted
	require.NoError(t, repo.Save(ctx, loaded))
	assert.Equal(t, int64(2), loaded.Version)

	err = repo.Save(ctx, &stale)
	assert.True(t, persistence.IsVersionConflict(err))

	require.NoError(t, repo.Delete(ctx, key))
	require.NoError(t, repo.Delete(ctx, key))

	_, err = repo.Get(ctx, key)
	assert.True(t, persistence.IsExecutionStateNotFound(err))
}

func TestExecutionStateRepository_CorruptState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	root := t.TempDir()
	repo := NewPersistence(root).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	require.NoError(t, repo.Save(ctx, &models.ExecutionState{ID: "a", ConversationID: key.ConversationID, ChannelID: key.ChannelID}))
	require.NoError(t, os.WriteFile(filepath.Join(root, executionsDir, "ch-1__5511999.json"), []byte("{not json"), 0o600))

	_, err := repo.Get(ctx, key)
	assert.True(t, persistence.IsCorruptState(err))

	require.NoError(t, repo.Delete(ctx, key))
	require.NoError(t, repo.Save(ctx, &models.ExecutionState{ID: "b", ConversationID: key.ConversationID, ChannelID: key.ChannelID}))

	loaded, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "b", loaded.ID)
}

func TestExecutionStateRepository_Lease(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	acquired, err := repo.AcquireLease(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	acquired, err = repo.AcquireLease(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	acquired, err = repo.AcquireLease(ctx, key, "owner-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired, "owner may extend its own lease")

	require.NoError(t, repo.ReleaseLease(ctx, key, "owner-b"))

	acquired, err = repo.AcquireLease(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired, "release by a non-owner is ignored")

	require.NoError(t, repo.ReleaseLease(ctx, key, "owner-a"))

	acquired, err = repo.AcquireLease(ctx, key, "owner-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestExecutionStateRepository_LeaseExpires(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).ExecutionStateRepository()
	key := models.ExecutionKey{ConversationID: "5511999", ChannelID: "ch-1"}

	acquired, err := repo.AcquireLease(ctx, key, "crashed", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	require.Eventually(t, func() bool {
		acquired, err := repo.AcquireLease(ctx, key, "next", time.Minute)

		return err == nil && acquired
	}, time.Second, 10*time.Millisecond)
}

func TestProcessedMessageRepository_PutOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewPersistence(t.TempDir()).ProcessedMessageRepository()

	has, err := repo.Has(ctx, "wamid.ABC==")
	require.NoError(t, err)
	assert.False(t, has)

	var (
		inserted atomic.Int32
		wg       sync.WaitGroup
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			ok, err := repo.Put(ctx, "wamid.ABC==")
			if err == nil && ok {
				inserted.Add(1)
			}
		}()
	}

	wg.Wait()

	assert.Equal(t, int32(1), inserted.Load())

	has, err = repo.Has(ctx, "wamid.ABC==")
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	assert.NoError(t, NewPersistence(t.TempDir()).HealthCheck(context.Background()))
	assert.Error(t, NewPersistence("/definitely/not/here").HealthCheck(context.Background()))
}
