package models

import (
	"encoding/json"
	"fmt"
)

// NodeType is the tag that selects a node handler.
type NodeType string

const (
	NodeTypeTrigger      NodeType = "trigger"
	NodeTypeSendText     NodeType = "sendText"
	NodeTypeSendImage    NodeType = "sendImage"
	NodeTypeSendButtons  NodeType = "sendButtons"
	NodeTypeSendList     NodeType = "sendList"
	NodeTypeWaitForReply NodeType = "waitForReply"
	NodeTypeCondition    NodeType = "condition"
	NodeTypeSetVariable  NodeType = "setVariable"
	NodeTypeAPICall      NodeType = "apiCall"
	NodeTypeDelay        NodeType = "delay"
	NodeTypeLoop         NodeType = "loop"
	NodeTypeEnd          NodeType = "end"
)

// DefaultBranch labels an edge without an explicit branch.
const DefaultBranch = "default"

// FlowNode is a single step of a flow.
type FlowNode struct {
	ID        string         `json:"id"                   validate:"required"`
	Type      NodeType       `json:"type"                 validate:"required"`
	Label     string         `json:"label,omitempty"`
	Config    map[string]any `json:"config"`
	PositionX int            `json:"position_x,omitempty"`
	PositionY int            `json:"position_y,omitempty"`
}

// DecodeConfig converts the raw configuration into a typed struct.
func (n *FlowNode) DecodeConfig(target any) error {
	raw, err := json.Marshal(n.Config)
	if err != nil {
		return fmt.Errorf("failed to encode config of node %s: %w", n.ID, err)
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("invalid config for %s node %s: %w", n.Type, n.ID, err)
	}

	return nil
}

// FlowEdge connects a source node branch to a target node.
type FlowEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"           validate:"required"`
	Target string `json:"target"           validate:"required"`
	Branch string `json:"sourceHandle,omitempty"`
}

// BranchLabel returns the edge branch, defaulting to DefaultBranch.
func (e *FlowEdge) BranchLabel() string {
	if e.Branch == "" {
		return DefaultBranch
	}

	return e.Branch
}
