// Package workflow drives conversations through flow graphs: it matches
// inbound messages to flows, steps executions node by node and suspends them
// durably between messages.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/eventbus"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/events"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/otelhelper"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultStepBudget = 1000
	DefaultLeaseTTL   = 30 * time.Second
)

// Outcome summarizes what one engine invocation did.
type Outcome string

const (
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeStarted   Outcome = "started"
	OutcomeResumed   Outcome = "resumed"
	OutcomeBusy      Outcome = "busy"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeFailed    Outcome = "failed"
)

// HandlerRegistry resolves the handler of a node type.
type HandlerRegistry interface {
	Handler(nodeType models.NodeType) (protocol.NodeHandler, error)
}

type EngineConfig struct {
	// StepBudget caps the nodes executed by one pass.
	StepBudget int
	LeaseTTL   time.Duration
}

type Option func(*Engine)

func WithScheduler(scheduler protocol.Scheduler) Option {
	return func(e *Engine) { e.scheduler = scheduler }
}

func WithEventPublisher(publisher eventbus.EventPublisher) Option {
	return func(e *Engine) { e.publisher = publisher }
}

func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.httpClient = client }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	handlers    HandlerRegistry
	gateway     protocol.MessagingGateway
	matcher     *TriggerMatcher
	scheduler   protocol.Scheduler
	publisher   eventbus.EventPublisher
	httpClient  *http.Client
	tracer      trace.Tracer
	now         func() time.Time
	config      EngineConfig
}

func NewEngine(
	logger *slog.Logger,
	persistence persistence.Persistence,
	handlers HandlerRegistry,
	gateway protocol.MessagingGateway,
	config EngineConfig,
	opts ...Option,
) *Engine {
	if config.StepBudget <= 0 {
		config.StepBudget = DefaultStepBudget
	}

	if config.LeaseTTL <= 0 {
		config.LeaseTTL = DefaultLeaseTTL
	}

	e := &Engine{
		logger:      logger.With("module", "engine"),
		persistence: persistence,
		handlers:    handlers,
		gateway:     gateway,
		matcher:     NewTriggerMatcher(logger),
		httpClient:  &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		tracer:      otel.Tracer("chatflow.engine"),
		now:         time.Now,
		config:      config,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// pass is the working set of one stepping pass over an execution.
type pass struct {
	logger  *slog.Logger
	graph   *Graph
	state   *models.ExecutionState
	channel *models.Channel
	steps   int
}

// HandleInboundMessage processes one inbound message for the conversation
// (msg.SenderID, msg.ChannelID). Failures are reported through the outcome
// and logs only.
func (e *Engine) HandleInboundMessage(ctx context.Context, msg models.InboundMessage) Outcome {
	key := msg.Key()

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.inbound",
		attribute.String(otelhelper.ConversationIDKey, key.ConversationID),
		attribute.String(otelhelper.ChannelIDKey, key.ChannelID),
		attribute.String(otelhelper.MessageIDKey, msg.MessageID),
	)
	defer span.End()

	logger := e.logger.With(
		"conversation_id", key.ConversationID,
		"channel_id", key.ChannelID,
		"message_id", msg.MessageID,
	)

	outcome := e.handleInbound(ctx, logger, msg)

	otelhelper.SetOutcome(span, string(outcome), outcome == OutcomeFailed)
	logger.InfoContext(ctx, "Handled inbound message", "outcome", outcome)

	return outcome
}

func (e *Engine) handleInbound(ctx context.Context, logger *slog.Logger, msg models.InboundMessage) Outcome {
	inserted, err := e.persistence.ProcessedMessageRepository().Put(ctx, msg.MessageID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to record message id", "error", err)

		return OutcomeFailed
	}

	if !inserted {
		return OutcomeDuplicate
	}

	channel, err := e.persistence.ChannelRepository().ChannelByID(ctx, msg.ChannelID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load channel", "error", err)

		return OutcomeFailed
	}

	if err := e.gateway.MarkAsRead(ctx, channel, msg.MessageID); err != nil {
		logger.WarnContext(ctx, "Failed to mark message as read", "error", err)
	}

	release, err := e.acquire(ctx, logger, msg.Key())
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return OutcomeBusy
		}

		logger.ErrorContext(ctx, "Failed to acquire conversation lease", "error", err)

		return OutcomeFailed
	}
	defer release()

	previous, err := e.loadState(ctx, msg.Key())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load execution state", "error", err)

		return OutcomeFailed
	}

	if previous != nil {
		switch previous.Status {
		case models.ExecutionStatusWaiting:
			return e.resumeWithReply(ctx, logger, channel, previous, msg)
		case models.ExecutionStatusRunning:
			if err := e.abandon(ctx, logger, previous); err != nil {
				logger.ErrorContext(ctx, "Failed to abandon stale execution", "execution_id", previous.ID, "error", err)

				return OutcomeFailed
			}
		}
	}

	return e.start(ctx, logger, channel, previous, msg)
}

// Resume continues a suspended execution on behalf of the scheduler. A
// request that no longer matches the pending continuation is ignored.
func (e *Engine) Resume(ctx context.Context, req models.ResumeRequest) Outcome {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.resume",
		attribute.String(otelhelper.ConversationIDKey, req.ConversationID),
		attribute.String(otelhelper.ChannelIDKey, req.ChannelID),
		attribute.String(otelhelper.ResumeIDKey, req.ID),
		attribute.String(otelhelper.ExecutionIDKey, req.ExecutionID),
	)
	defer span.End()

	logger := e.logger.With(
		"conversation_id", req.ConversationID,
		"channel_id", req.ChannelID,
		"resume_id", req.ID,
		"reason", req.Reason,
	)

	outcome := e.resume(ctx, logger, req)

	otelhelper.SetOutcome(span, string(outcome), outcome == OutcomeFailed)
	logger.InfoContext(ctx, "Handled resume request", "outcome", outcome)

	return outcome
}

func (e *Engine) resume(ctx context.Context, logger *slog.Logger, req models.ResumeRequest) Outcome {
	release, err := e.acquire(ctx, logger, req.Key())
	if err != nil {
		if errors.Is(err, ErrConcurrencyConflict) {
			return OutcomeBusy
		}

		logger.ErrorContext(ctx, "Failed to acquire conversation lease", "error", err)

		return OutcomeFailed
	}
	defer release()

	state, err := e.loadState(ctx, req.Key())
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load execution state", "error", err)

		return OutcomeFailed
	}

	if state == nil || state.Status != models.ExecutionStatusWaiting || state.Wait == nil ||
		state.Wait.PendingResumeID != req.ID {
		logger.DebugContext(ctx, "Resume request is stale")

		return OutcomeIgnored
	}

	var expected models.WaitKind

	switch req.Reason {
	case models.ResumeReasonDelay:
		expected = models.WaitKindTimer
	case models.ResumeReasonReplyTimeout:
		expected = models.WaitKindReply
	default:
		logger.WarnContext(ctx, "Unknown resume reason")

		return OutcomeIgnored
	}

	if state.Wait.Kind != expected {
		return OutcomeIgnored
	}

	channel, err := e.persistence.ChannelRepository().ChannelByID(ctx, state.ChannelID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load channel", "error", err)

		return OutcomeFailed
	}

	p := e.newPass(logger, state, channel)

	if err := e.loadGraph(ctx, p); err != nil {
		_ = e.fail(ctx, p, state.CurrentNodeID, err)

		return OutcomeFailed
	}

	nodeID := state.CurrentNodeID
	e.markRunning(p)
	e.publish(ctx, state, events.ExecutionResumed{
		BaseEvent: events.NewBaseEvent(events.ExecutionResumedEvent, state.FlowID),
		Execution: executionOf(state),
		NodeID:    nodeID,
		Reason:    string(req.Reason),
	})

	var next string

	if req.Reason == models.ResumeReasonDelay {
		next, _ = p.graph.Next(nodeID, models.DefaultBranch)
	} else if edge, ok := p.graph.Edge(nodeID, BranchTimeout); ok {
		next = edge.Target
	}

	if err := e.step(ctx, p, next); err != nil {
		return OutcomeFailed
	}

	return OutcomeResumed
}

func (e *Engine) resumeWithReply(
	ctx context.Context,
	logger *slog.Logger,
	channel *models.Channel,
	state *models.ExecutionState,
	msg models.InboundMessage,
) Outcome {
	p := e.newPass(logger, state, channel)

	wait := state.Wait
	if wait == nil {
		_ = e.fail(ctx, p, state.CurrentNodeID, ErrNoWait)

		return OutcomeFailed
	}

	if wait.Kind == models.WaitKindTimer {
		logger.DebugContext(ctx, "Message received during delay, ignoring", "execution_id", state.ID)

		return OutcomeIgnored
	}

	if !msg.Content.Matches(wait.ExpectedType) {
		logger.InfoContext(ctx, "Reply does not match expected type, still waiting",
			"execution_id", state.ID,
			"expected_type", wait.ExpectedType,
			"content_type", msg.Content.Type,
		)

		return OutcomeIgnored
	}

	nodeID := state.CurrentNodeID

	if err := bindReply(p.state.Variables, wait, msg); err != nil {
		_ = e.fail(ctx, p, nodeID, fmt.Errorf("bind reply: %w", err))

		return OutcomeFailed
	}

	if err := e.loadGraph(ctx, p); err != nil {
		_ = e.fail(ctx, p, nodeID, err)

		return OutcomeFailed
	}

	e.markRunning(p)
	e.publish(ctx, state, events.ExecutionResumed{
		BaseEvent: events.NewBaseEvent(events.ExecutionResumedEvent, state.FlowID),
		Execution: executionOf(state),
		NodeID:    nodeID,
		Reason:    "reply",
	})

	next, _ := p.graph.Next(nodeID, models.DefaultBranch)
	if err := e.step(ctx, p, next); err != nil {
		return OutcomeFailed
	}

	return OutcomeResumed
}

func (e *Engine) start(
	ctx context.Context,
	logger *slog.Logger,
	channel *models.Channel,
	previous *models.ExecutionState,
	msg models.InboundMessage,
) Outcome {
	flows, err := e.persistence.FlowRepository().ActiveFlows(ctx, msg.ChannelID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load active flows", "error", err)

		return OutcomeFailed
	}

	flow := e.matcher.Match(flows, msg.Content.Text)
	if flow == nil {
		return OutcomeNoMatch
	}

	scope := msg.ContactVariables()
	scope["last_message"] = msg.Content.Snapshot()

	now := e.now().UTC()
	state := &models.ExecutionState{
		ID:             uuid.NewString(),
		ConversationID: msg.SenderID,
		ChannelID:      msg.ChannelID,
		FlowID:         flow.ID,
		Status:         models.ExecutionStatusRunning,
		Variables:      scope,
		LoopCounters:   make(map[string]int),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if previous != nil {
		state.Version = previous.Version
	}

	logger = logger.With("execution_id", state.ID, "flow_id", flow.ID)

	if err := e.persistence.ExecutionStateRepository().Save(ctx, state); err != nil {
		logger.ErrorContext(ctx, "Failed to create execution", "error", err)

		return OutcomeFailed
	}

	logger.InfoContext(ctx, "Started execution", "flow_name", flow.Name)
	e.publish(ctx, state, events.ExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.ExecutionStartedEvent, flow.ID),
		Execution: executionOf(state),
		FlowName:  flow.Name,
	})

	p := e.newPass(logger, state, channel)
	p.graph = NewGraph(flow)

	entry := p.graph.Entry()
	if entry == nil {
		_ = e.fail(ctx, p, "", ErrNoEntry)

		return OutcomeFailed
	}

	next, _ := p.graph.Next(entry.ID, models.DefaultBranch)
	if err := e.step(ctx, p, next); err != nil {
		return OutcomeFailed
	}

	return OutcomeStarted
}

// step runs nodes from nodeID until the execution suspends or terminates.
// An empty nodeID completes the execution.
func (e *Engine) step(ctx context.Context, p *pass, nodeID string) error {
	for nodeID != "" {
		if p.steps >= e.config.StepBudget {
			return e.fail(ctx, p, nodeID, ErrStepBudgetExceeded)
		}

		node, ok := p.graph.Node(nodeID)
		if !ok {
			return e.fail(ctx, p, nodeID, fmt.Errorf("%w: %s", ErrUnknownNode, nodeID))
		}

		p.steps++

		transition, err := e.execute(ctx, p, node)
		if err != nil {
			if edge, ok := p.graph.Edge(node.ID, BranchError); ok && protocol.IsRuntimeNodeError(err) {
				p.logger.WarnContext(ctx, "Node failed, following error branch", "node_id", node.ID, "error", err)

				nodeID = edge.Target

				continue
			}

			return e.fail(ctx, p, node.ID, err)
		}

		switch transition.Kind {
		case protocol.TransitionAdvance:
			nodeID, _ = p.graph.Next(node.ID, transition.Branch)
		case protocol.TransitionWait:
			return e.suspendOnReply(ctx, p, node, transition)
		case protocol.TransitionSleep:
			return e.suspendOnTimer(ctx, p, node, transition)
		case protocol.TransitionTerminate:
			return e.finalize(ctx, p, transition.Status, transition.Message)
		default:
			return e.fail(ctx, p, node.ID, fmt.Errorf("unknown transition %q", transition.Kind))
		}
	}

	return e.finalize(ctx, p, models.ExecutionStatusCompleted, "")
}

func (e *Engine) execute(ctx context.Context, p *pass, node *models.FlowNode) (protocol.Transition, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "engine.node "+string(node.Type),
		attribute.String(otelhelper.NodeIDKey, node.ID),
		attribute.String(otelhelper.NodeTypeKey, string(node.Type)),
		attribute.String(otelhelper.ExecutionIDKey, p.state.ID),
		attribute.String(otelhelper.FlowIDKey, p.state.FlowID),
	)
	defer span.End()

	handler, err := e.handlers.Handler(node.Type)
	if err != nil {
		otelhelper.SetError(span, err)

		return protocol.Transition{}, err
	}

	p.logger.DebugContext(ctx, "Executing node", "node_id", node.ID, "node_type", node.Type)

	transition, err := handler.Handle(ctx, node, p.state.Variables, &protocol.Env{
		ExecutionID: p.state.ID,
		FlowID:      p.state.FlowID,
		Channel:     p.channel,
		Recipient:   p.state.ConversationID,
		Gateway:     e.gateway,
		HTTPClient:  e.httpClient,
		Counters:    p.state.LoopCounters,
		Logger:      p.logger,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return protocol.Transition{}, err
	}

	return transition, nil
}

func (e *Engine) suspendOnReply(ctx context.Context, p *pass, node *models.FlowNode, t protocol.Transition) error {
	wait := &models.Wait{
		Kind:         models.WaitKindReply,
		VariableName: t.VariableName,
		ExpectedType: t.ExpectedType,
	}

	if t.Timeout > 0 {
		if e.scheduler == nil {
			p.logger.WarnContext(ctx, "Reply timeout ignored without scheduler", "node_id", node.ID)
		} else {
			deadline := e.now().UTC().Add(t.Timeout)
			wait.PendingResumeID = uuid.NewString()
			wait.Deadline = &deadline

			if err := e.schedule(ctx, p, node.ID, wait, models.ResumeReasonReplyTimeout); err != nil {
				return e.fail(ctx, p, node.ID, err)
			}
		}
	}

	return e.suspend(ctx, p, node, wait)
}

func (e *Engine) suspendOnTimer(ctx context.Context, p *pass, node *models.FlowNode, t protocol.Transition) error {
	if e.scheduler == nil {
		return e.fail(ctx, p, node.ID, ErrNoScheduler)
	}

	deadline := e.now().UTC().Add(t.Delay)
	wait := &models.Wait{
		Kind:            models.WaitKindTimer,
		PendingResumeID: uuid.NewString(),
		Deadline:        &deadline,
	}

	if err := e.schedule(ctx, p, node.ID, wait, models.ResumeReasonDelay); err != nil {
		return e.fail(ctx, p, node.ID, err)
	}

	return e.suspend(ctx, p, node, wait)
}

func (e *Engine) schedule(ctx context.Context, p *pass, nodeID string, wait *models.Wait, reason models.ResumeReason) error {
	err := e.scheduler.Schedule(ctx, models.ResumeRequest{
		ID:             wait.PendingResumeID,
		ExecutionID:    p.state.ID,
		ConversationID: p.state.ConversationID,
		ChannelID:      p.state.ChannelID,
		NodeID:         nodeID,
		Reason:         reason,
		DueAt:          *wait.Deadline,
	})
	if err != nil {
		return fmt.Errorf("schedule %s: %w", reason, err)
	}

	return nil
}

func (e *Engine) suspend(ctx context.Context, p *pass, node *models.FlowNode, wait *models.Wait) error {
	p.state.Status = models.ExecutionStatusWaiting
	p.state.CurrentNodeID = node.ID
	p.state.Wait = wait

	if err := e.save(ctx, p); err != nil {
		return e.fail(ctx, p, node.ID, err)
	}

	p.logger.InfoContext(ctx, "Execution suspended", "node_id", node.ID, "wait_kind", wait.Kind)
	e.publish(ctx, p.state, events.ExecutionSuspended{
		BaseEvent: events.NewBaseEvent(events.ExecutionSuspendedEvent, p.state.FlowID),
		Execution: executionOf(p.state),
		NodeID:    node.ID,
		WaitKind:  wait.Kind,
		Deadline:  wait.Deadline,
	})

	return nil
}

func (e *Engine) finalize(ctx context.Context, p *pass, status models.ExecutionStatus, message string) error {
	p.state.Status = status
	p.state.CurrentNodeID = ""
	p.state.Wait = nil
	p.state.ErrorMessage = message

	if err := e.save(ctx, p); err != nil {
		return e.fail(ctx, p, "", err)
	}

	p.logger.InfoContext(ctx, "Execution finished", "status", status, "nodes_executed", p.steps)

	if status == models.ExecutionStatusErrored {
		e.publish(ctx, p.state, events.ExecutionFailed{
			BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, p.state.FlowID),
			Execution: executionOf(p.state),
			Error:     message,
		})

		return nil
	}

	e.publish(ctx, p.state, events.ExecutionCompleted{
		BaseEvent:     events.NewBaseEvent(events.ExecutionCompletedEvent, p.state.FlowID),
		Execution:     executionOf(p.state),
		NodesExecuted: p.steps,
	})

	return nil
}

// fail finalizes the execution as errored and returns the fault. A version
// conflict leaves the stored record alone since another writer owns it now.
func (e *Engine) fail(ctx context.Context, p *pass, nodeID string, err error) error {
	fault := &ExecutionFault{ExecutionID: p.state.ID, NodeID: nodeID, Err: err}

	p.logger.ErrorContext(ctx, "Execution fault", "execution_id", p.state.ID, "node_id", nodeID, "error", err)

	if !persistence.IsVersionConflict(err) {
		p.state.Status = models.ExecutionStatusErrored
		p.state.CurrentNodeID = ""
		p.state.Wait = nil
		p.state.ErrorMessage = fault.Error()

		if saveErr := e.save(ctx, p); saveErr != nil {
			p.logger.ErrorContext(ctx, "Failed to persist errored execution", "execution_id", p.state.ID, "error", saveErr)
		}
	}

	e.publish(ctx, p.state, events.ExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, p.state.FlowID),
		Execution: executionOf(p.state),
		NodeID:    nodeID,
		Error:     err.Error(),
	})

	return fault
}

// abandon finalizes a running record left behind by a pass that never finished.
func (e *Engine) abandon(ctx context.Context, logger *slog.Logger, state *models.ExecutionState) error {
	logger.WarnContext(ctx, "Abandoning stale running execution", "execution_id", state.ID, "flow_id", state.FlowID)

	state.Status = models.ExecutionStatusErrored
	state.CurrentNodeID = ""
	state.Wait = nil
	state.ErrorMessage = "stale running execution abandoned"
	state.UpdatedAt = e.now().UTC()

	if err := e.persistence.ExecutionStateRepository().Save(ctx, state); err != nil {
		return err
	}

	e.publish(ctx, state, events.ExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, state.FlowID),
		Execution: executionOf(state),
		Error:     state.ErrorMessage,
	})

	return nil
}

func (e *Engine) newPass(logger *slog.Logger, state *models.ExecutionState, channel *models.Channel) *pass {
	if state.Variables == nil {
		state.Variables = make(map[string]any)
	}

	if state.LoopCounters == nil {
		state.LoopCounters = make(map[string]int)
	}

	return &pass{
		logger:  logger.With("execution_id", state.ID, "flow_id", state.FlowID),
		state:   state,
		channel: channel,
	}
}

func (e *Engine) loadGraph(ctx context.Context, p *pass) error {
	flow, err := e.persistence.FlowRepository().FlowByID(ctx, p.state.FlowID)
	if err != nil {
		return fmt.Errorf("load flow %s: %w", p.state.FlowID, err)
	}

	p.graph = NewGraph(flow)

	return nil
}

func (e *Engine) markRunning(p *pass) {
	p.state.Status = models.ExecutionStatusRunning
	p.state.CurrentNodeID = ""
	p.state.Wait = nil
}

func (e *Engine) save(ctx context.Context, p *pass) error {
	p.state.UpdatedAt = e.now().UTC()

	return e.persistence.ExecutionStateRepository().Save(ctx, p.state)
}

// loadState returns nil when the key has no execution. An undecodable record
// is discarded as a faulted execution so the conversation can start over.
func (e *Engine) loadState(ctx context.Context, key models.ExecutionKey) (*models.ExecutionState, error) {
	state, err := e.persistence.ExecutionStateRepository().Get(ctx, key)
	if err != nil {
		if persistence.IsExecutionStateNotFound(err) {
			return nil, nil
		}

		if persistence.IsCorruptState(err) {
			return nil, e.discardCorrupt(ctx, key, err)
		}

		return nil, err
	}

	return state, nil
}

func (e *Engine) discardCorrupt(ctx context.Context, key models.ExecutionKey, cause error) error {
	e.logger.ErrorContext(ctx, "Discarding corrupt execution state",
		"conversation_id", key.ConversationID, "channel_id", key.ChannelID, "error", cause)

	if err := e.persistence.ExecutionStateRepository().Delete(ctx, key); err != nil {
		return fmt.Errorf("discard corrupt state: %w", err)
	}

	tombstone := &models.ExecutionState{
		ConversationID: key.ConversationID,
		ChannelID:      key.ChannelID,
		Status:         models.ExecutionStatusErrored,
	}

	e.publish(ctx, tombstone, events.ExecutionFailed{
		BaseEvent: events.NewBaseEvent(events.ExecutionFailedEvent, ""),
		Execution: executionOf(tombstone),
		Error:     cause.Error(),
	})

	return nil
}

func (e *Engine) acquire(ctx context.Context, logger *slog.Logger, key models.ExecutionKey) (func(), error) {
	repo := e.persistence.ExecutionStateRepository()
	owner := uuid.NewString()

	acquired, err := repo.AcquireLease(ctx, key, owner, e.config.LeaseTTL)
	if err != nil {
		return nil, fmt.Errorf("acquire lease %s: %w", key, err)
	}

	if !acquired {
		logger.InfoContext(ctx, "Conversation busy, dropping")

		return nil, ErrConcurrencyConflict
	}

	return func() {
		if err := repo.ReleaseLease(context.WithoutCancel(ctx), key, owner); err != nil {
			logger.WarnContext(ctx, "Failed to release conversation lease", "error", err)
		}
	}, nil
}

func (e *Engine) publish(ctx context.Context, state *models.ExecutionState, event eventbus.Event) {
	if e.publisher == nil {
		return
	}

	if err := e.publisher.Publish(ctx, state.Key().String(), event); err != nil {
		e.logger.WarnContext(ctx, "Failed to publish lifecycle event", "event_type", event.GetType(), "error", err)
	}
}

// bindReply stores the reply under the wait variable and refreshes the
// contact and last_message variables.
func bindReply(scope map[string]any, wait *models.Wait, msg models.InboundMessage) error {
	for key, value := range msg.ContactVariables() {
		scope[key] = value
	}

	scope["last_message"] = msg.Content.Snapshot()

	if wait.VariableName == "" {
		return nil
	}

	if err := variables.Assign(scope, wait.VariableName, msg.Content.Text); err != nil {
		return err
	}

	switch msg.Content.Type {
	case models.ContentTypeButton:
		return variables.Assign(scope, wait.VariableName+"_id", msg.Content.ButtonID)
	case models.ContentTypeList:
		return variables.Assign(scope, wait.VariableName+"_id", msg.Content.ListRowID)
	}

	return nil
}

func executionOf(state *models.ExecutionState) events.Execution {
	return events.Execution{
		ExecutionID:    state.ID,
		ConversationID: state.ConversationID,
		ChannelID:      state.ChannelID,
	}
}
