package scheduler_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/scheduler"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/testutil"
	"github.com/google/uuid"
	rd "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)

func request(id string, dueIn time.Duration) models.ResumeRequest {
	return models.ResumeRequest{
		ID:             id,
		ExecutionID:    "exec-" + id,
		ConversationID: "5511999990000",
		ChannelID:      "ch-1",
		NodeID:         "delay-1",
		Reason:         models.ResumeReasonDelay,
		DueAt:          base.Add(dueIn),
	}
}

func ids(requests []models.ResumeRequest) []string {
	out := make([]string, 0, len(requests))
	for _, r := range requests {
		out = append(out, r.ID)
	}

	return out
}

// exerciseQueue runs the behaviour every DelayQueue must share.
func exerciseQueue(t *testing.T, queue scheduler.DelayQueue) {
	t.Helper()

	ctx := context.Background()

	require.NoError(t, queue.Push(ctx, request("late", 10*time.Second)))
	require.NoError(t, queue.Push(ctx, request("early", 1*time.Second)))
	require.NoError(t, queue.Push(ctx, request("middle", 5*time.Second)))

	n, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	due, err := queue.PopDue(ctx, base, 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	due, err = queue.PopDue(ctx, base.Add(6*time.Second), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "middle"}, ids(due))

	// Re-pushing replaces the pending entry.
	require.NoError(t, queue.Push(ctx, request("late", 2*time.Second)))

	n, err = queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	due, err = queue.PopDue(ctx, base.Add(3*time.Second), 1)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "late", due[0].ID)
	assert.Equal(t, models.ResumeReasonDelay, due[0].Reason)
	assert.True(t, due[0].DueAt.Equal(base.Add(2*time.Second)))

	due, err = queue.PopDue(ctx, base.Add(time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	require.ErrorIs(t, queue.Push(ctx, models.ResumeRequest{ID: "x"}), scheduler.ErrInvalidRequest)
}

func TestMemoryDelayQueue(t *testing.T) {
	t.Parallel()

	exerciseQueue(t, scheduler.NewMemoryDelayQueue())
}

func TestRedisDelayQueue(t *testing.T) {
	client := rd.NewClient(&rd.Options{Addr: testutil.RedisAddress(t)})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})

	queue := scheduler.NewRedisDelayQueue(slog.New(slog.DiscardHandler), client, "test:"+uuid.NewString())
	exerciseQueue(t, queue)
}

func TestRedisDelayQueue_ConcurrentPopClaimsOnce(t *testing.T) {
	client := rd.NewClient(&rd.Options{Addr: testutil.RedisAddress(t)})
	require.NoError(t, client.Ping(context.Background()).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})

	ctx := context.Background()
	queue := scheduler.NewRedisDelayQueue(slog.New(slog.DiscardHandler), client, "test:"+uuid.NewString())

	for i := range 20 {
		require.NoError(t, queue.Push(ctx, request(uuid.NewString(), time.Duration(i)*time.Millisecond)))
	}

	var (
		mu      sync.Mutex
		claimed = map[string]int{}
		wg      sync.WaitGroup
	)

	for range 4 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			due, err := queue.PopDue(ctx, base.Add(time.Minute), 0)
			assert.NoError(t, err)

			mu.Lock()
			defer mu.Unlock()

			for _, r := range due {
				claimed[r.ID]++
			}
		}()
	}

	wg.Wait()

	assert.Len(t, claimed, 20)

	for id, count := range claimed {
		assert.Equal(t, 1, count, id)
	}
}

type recordingHandler struct {
	mu       sync.Mutex
	received []string
	fail     map[string]int
}

func (h *recordingHandler) handle(_ context.Context, r models.ResumeRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.fail[r.ID] > 0 {
		h.fail[r.ID]--

		return errors.New("execution busy")
	}

	h.received = append(h.received, r.ID)

	return nil
}

func (h *recordingHandler) ids() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.received...)
}

func TestDispatcher_TickDeliversDueRequests(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := base
	queue := scheduler.NewMemoryDelayQueue()
	handler := &recordingHandler{}

	dispatcher := scheduler.NewDispatcher(slog.New(slog.DiscardHandler), queue, handler.handle,
		scheduler.WithClock(func() time.Time { return now }))

	require.NoError(t, dispatcher.Schedule(ctx, request("a", time.Second)))
	require.NoError(t, dispatcher.Schedule(ctx, request("b", time.Minute)))

	delivered, err := dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, delivered)

	now = base.Add(2 * time.Second)

	delivered, err = dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{"a"}, handler.ids())

	pending, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)
}

func TestDispatcher_TickHonorsBatchSize(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	queue := scheduler.NewMemoryDelayQueue()
	handler := &recordingHandler{}

	dispatcher := scheduler.NewDispatcher(slog.New(slog.DiscardHandler), queue, handler.handle,
		scheduler.WithBatchSize(2),
		scheduler.WithClock(func() time.Time { return base.Add(time.Hour) }))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, dispatcher.Schedule(ctx, request(id, time.Second)))
	}

	delivered, err := dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, delivered)

	delivered, err = dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, handler.ids())
}

func TestDispatcher_FailedDeliveryIsRetried(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := base.Add(time.Second)
	queue := scheduler.NewMemoryDelayQueue()
	handler := &recordingHandler{fail: map[string]int{"a": 1}}

	dispatcher := scheduler.NewDispatcher(slog.New(slog.DiscardHandler), queue, handler.handle,
		scheduler.WithClock(func() time.Time { return now }),
		scheduler.WithRetryDelay(5*time.Second))

	require.NoError(t, dispatcher.Schedule(ctx, request("a", 0)))

	delivered, err := dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, delivered)
	assert.Empty(t, handler.ids())

	now = now.Add(4 * time.Second)

	delivered, err = dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Zero(t, delivered)

	now = now.Add(2 * time.Second)

	delivered, err = dispatcher.Tick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, delivered)
	assert.Equal(t, []string{"a"}, handler.ids())
}

func TestDispatcher_StartPollsUntilStopped(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	queue := scheduler.NewMemoryDelayQueue()
	handler := &recordingHandler{}

	dispatcher := scheduler.NewDispatcher(slog.New(slog.DiscardHandler), queue, handler.handle,
		scheduler.WithInterval(50*time.Millisecond))

	require.NoError(t, dispatcher.Schedule(ctx, models.ResumeRequest{
		ID:             "soon",
		ConversationID: "5511999990000",
		ChannelID:      "ch-1",
		DueAt:          time.Now().Add(-time.Millisecond),
	}))

	require.NoError(t, dispatcher.Start(ctx))
	require.ErrorIs(t, dispatcher.Start(ctx), scheduler.ErrAlreadyRunning)

	assert.Eventually(t, func() bool {
		return len(handler.ids()) == 1
	}, 3*time.Second, 20*time.Millisecond)

	dispatcher.Stop()
}
