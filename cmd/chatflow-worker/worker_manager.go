package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/eventbus"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/events"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/workflow"
)

// Engine is the part of workflow.Engine the worker drives.
type Engine interface {
	HandleInboundMessage(ctx context.Context, msg models.InboundMessage) workflow.Outcome
	Resume(ctx context.Context, req models.ResumeRequest) workflow.Outcome
}

// Dispatcher polls due resume requests.
type Dispatcher interface {
	Start(ctx context.Context) error
	Stop()
}

type WorkerManager struct {
	id         string
	logger     *slog.Logger
	engine     Engine
	eventBus   eventbus.EventBus
	dispatcher Dispatcher
}

func NewWorkerManager(
	id string,
	engine Engine,
	eventBus eventbus.EventBus,
	dispatcher Dispatcher,
	logger *slog.Logger,
) *WorkerManager {
	return &WorkerManager{
		id:         id,
		logger:     logger.With("module", "chatflow-worker", "worker_id", id),
		engine:     engine,
		eventBus:   eventBus,
		dispatcher: dispatcher,
	}
}

// Start subscribes to inbound and resume events, starts the resume
// dispatcher and blocks until ctx is cancelled.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	if err := w.eventBus.Handle(events.InboundMessageReceivedEvent, w.handleInboundMessage); err != nil {
		return err
	}

	if err := w.eventBus.Handle(events.ExecutionResumeRequestedEvent, w.handleResumeRequested); err != nil {
		return err
	}

	if err := w.eventBus.Subscribe(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	if err := w.dispatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start resume dispatcher: %w", err)
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	<-ctx.Done()

	w.logger.InfoContext(ctx, "Shutting down worker...")
	w.dispatcher.Stop()

	return nil
}

// publishResume is the dispatcher's ResumeHandler. Resumes travel over the
// bus keyed like inbound messages so a conversation is handled in order.
func (w *WorkerManager) publishResume(ctx context.Context, request models.ResumeRequest) error {
	event := events.ExecutionResumeRequested{
		BaseEvent: events.NewBaseEvent(events.ExecutionResumeRequestedEvent, ""),
		Request:   request,
	}
	event.WorkerID = w.id

	return w.eventBus.Publish(ctx, request.Key().String(), event)
}

func (w *WorkerManager) handleInboundMessage(ctx context.Context, event any) error {
	inbound, ok := event.(*events.InboundMessageReceived)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for InboundMessageReceived")

		return nil
	}

	outcome := w.engine.HandleInboundMessage(ctx, inbound.Message)

	w.logger.DebugContext(ctx, "Processed inbound message event",
		"event_id", inbound.ID,
		"message_id", inbound.Message.MessageID,
		"outcome", outcome)

	return nil
}

// handleResumeRequested nacks a resume that lost the conversation lease so
// the bus redelivers it; every other outcome is final.
func (w *WorkerManager) handleResumeRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.ExecutionResumeRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for ExecutionResumeRequested")

		return nil
	}

	outcome := w.engine.Resume(ctx, requested.Request)

	w.logger.DebugContext(ctx, "Processed resume event",
		"event_id", requested.ID,
		"resume_id", requested.Request.ID,
		"outcome", outcome)

	if outcome == workflow.OutcomeBusy {
		return fmt.Errorf("resume %s: %w", requested.Request.ID, workflow.ErrConcurrencyConflict)
	}

	return nil
}
