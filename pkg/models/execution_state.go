package models

import "time"

// ExecutionStatus is the lifecycle state of an execution.
type ExecutionStatus string

const (
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusWaiting   ExecutionStatus = "waiting"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusErrored   ExecutionStatus = "errored"
)

// Terminal reports whether no further resumption is possible.
func (s ExecutionStatus) Terminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusErrored
}

// ExecutionKey identifies the single execution slot of a conversation.
type ExecutionKey struct {
	ConversationID string `json:"conversation_id"`
	ChannelID      string `json:"channel_id"`
}

func (k ExecutionKey) String() string {
	return k.ChannelID + ":" + k.ConversationID
}

// WaitKind distinguishes a suspension on a reply from one on a timer.
type WaitKind string

const (
	WaitKindReply WaitKind = "reply"
	WaitKindTimer WaitKind = "timer"
)

// Wait describes why a waiting execution is suspended.
type Wait struct {
	Kind            WaitKind     `json:"kind"`
	VariableName    string       `json:"variable_name,omitempty"`
	ExpectedType    ExpectedType `json:"expected_type,omitempty"`
	PendingResumeID string       `json:"pending_resume_id,omitempty"`
	Deadline        *time.Time   `json:"deadline,omitempty"`
}

// ExecutionState is the durable cursor of one conversation through a flow.
type ExecutionState struct {
	ID             string          `json:"id"`
	ConversationID string          `json:"conversation_id"`
	ChannelID      string          `json:"channel_id"`
	FlowID         string          `json:"flow_id"`
	Status         ExecutionStatus `json:"status"`
	CurrentNodeID  string          `json:"current_node_id,omitempty"`
	Wait           *Wait           `json:"wait,omitempty"`
	Variables      map[string]any  `json:"variables"`
	LoopCounters   map[string]int  `json:"loop_counters"`
	Version        int64           `json:"version"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func (s *ExecutionState) Key() ExecutionKey {
	return ExecutionKey{ConversationID: s.ConversationID, ChannelID: s.ChannelID}
}

// Active reports whether the state still owns its conversation slot.
func (s *ExecutionState) Active() bool {
	return !s.Status.Terminal()
}

// ResumeReason tells the engine why a scheduled continuation fired.
type ResumeReason string

const (
	ResumeReasonDelay        ResumeReason = "delay"
	ResumeReasonReplyTimeout ResumeReason = "reply_timeout"
)

// ResumeRequest is a synthetic continuation delivered by the scheduler.
type ResumeRequest struct {
	ID             string       `json:"id"`
	ExecutionID    string       `json:"execution_id"`
	ConversationID string       `json:"conversation_id"`
	ChannelID      string       `json:"channel_id"`
	NodeID         string       `json:"node_id"`
	Reason         ResumeReason `json:"reason"`
	DueAt          time.Time    `json:"due_at"`
}

func (r ResumeRequest) Key() ExecutionKey {
	return ExecutionKey{ConversationID: r.ConversationID, ChannelID: r.ChannelID}
}
