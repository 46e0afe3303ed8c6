// Package events defines the messages exchanged over the event bus: inbound
// deliveries, scheduler continuations and execution lifecycle notifications.
package events

import (
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Kafka topics.
const Topic = "chatflow.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Work items consumed by the engine worker.
	InboundMessageReceivedEvent   EventType = "inbound.message.received"
	ExecutionResumeRequestedEvent EventType = "execution.resume.requested"

	// Execution lifecycle events.
	ExecutionStartedEvent   EventType = "execution.started"
	ExecutionSuspendedEvent EventType = "execution.suspended"
	ExecutionResumedEvent   EventType = "execution.resumed"
	ExecutionCompletedEvent EventType = "execution.completed"
	ExecutionFailedEvent    EventType = "execution.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	FlowID    string         `json:"flow_id,omitempty"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, flowID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		FlowID:    flowID,
		Metadata:  make(map[string]any),
	}
}

// InboundMessageReceived carries a parsed webhook delivery to the engine worker.
type InboundMessageReceived struct {
	BaseEvent

	Message models.InboundMessage `json:"message"`
}

func (e InboundMessageReceived) GetType() EventType {
	return InboundMessageReceivedEvent
}

// ExecutionResumeRequested is emitted by the scheduler when a continuation is due.
type ExecutionResumeRequested struct {
	BaseEvent

	Request models.ResumeRequest `json:"request"`
}

func (e ExecutionResumeRequested) GetType() EventType {
	return ExecutionResumeRequestedEvent
}

// Execution identifies the execution a lifecycle event refers to.
type Execution struct {
	ExecutionID    string `json:"execution_id"`
	ConversationID string `json:"conversation_id"`
	ChannelID      string `json:"channel_id"`
}

type ExecutionStarted struct {
	BaseEvent
	Execution

	FlowName string `json:"flow_name"`
}

func (e ExecutionStarted) GetType() EventType {
	return ExecutionStartedEvent
}

type ExecutionSuspended struct {
	BaseEvent
	Execution

	NodeID   string          `json:"node_id"`
	WaitKind models.WaitKind `json:"wait_kind"`
	Deadline *time.Time      `json:"deadline,omitempty"`
}

func (e ExecutionSuspended) GetType() EventType {
	return ExecutionSuspendedEvent
}

type ExecutionResumed struct {
	BaseEvent
	Execution

	NodeID string `json:"node_id"`
	Reason string `json:"reason"`
}

func (e ExecutionResumed) GetType() EventType {
	return ExecutionResumedEvent
}

type ExecutionCompleted struct {
	BaseEvent
	Execution

	NodesExecuted int `json:"nodes_executed"`
}

func (e ExecutionCompleted) GetType() EventType {
	return ExecutionCompletedEvent
}

type ExecutionFailed struct {
	BaseEvent
	Execution

	NodeID string `json:"node_id,omitempty"`
	Error  string `json:"error"`
}

func (e ExecutionFailed) GetType() EventType {
	return ExecutionFailedEvent
}
