package web_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/channels/gochannel"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/eventbus"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/events"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/testutil"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/web"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/workflow"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBusDispatcher_PublishesInboundEvent(t *testing.T) {
	t.Parallel()

	pub, sub, err := gochannel.CreateTestChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(slog.New(slog.DiscardHandler), pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan *events.InboundMessageReceived, 1)
	require.NoError(t, bus.Handle(events.InboundMessageReceivedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.InboundMessageReceived)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	message := testutil.TextMessage("ch-1", "5511999990000", "hello")
	require.NoError(t, web.NewEventBusDispatcher(bus).Dispatch(ctx, message))
	require.NoError(t, bus.Subscribe(ctx))

	select {
	case got := <-received:
		assert.Equal(t, message.MessageID, got.Message.MessageID)
		assert.Equal(t, "hello", got.Message.Content.Text)
	case <-time.After(5 * time.Second):
		t.Fatal("inbound event was not delivered")
	}
}

type stubEngine struct {
	outcome workflow.Outcome
	seen    []string
}

func (s *stubEngine) HandleInboundMessage(_ context.Context, message models.InboundMessage) workflow.Outcome {
	s.seen = append(s.seen, message.MessageID)

	return s.outcome
}

func TestEngineDispatcher_IgnoresOutcome(t *testing.T) {
	t.Parallel()

	for _, outcome := range []workflow.Outcome{workflow.OutcomeStarted, workflow.OutcomeFailed, workflow.OutcomeBusy} {
		engine := &stubEngine{outcome: outcome}
		dispatcher := web.NewEngineDispatcher(slog.New(slog.DiscardHandler), engine)

		message := testutil.TextMessage("ch-1", "551100", "hi")
		require.NoError(t, dispatcher.Dispatch(context.Background(), message), outcome)
		assert.Equal(t, []string{message.MessageID}, engine.seen)
	}
}
