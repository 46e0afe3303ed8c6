// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates a test FlowNode with default values that can be overridden.
func CreateTestNode(overrides ...func(*models.FlowNode)) *models.FlowNode {
	node := &models.FlowNode{
		ID:        uuid.New().String(),
		Type:      models.NodeTypeSendText,
		Label:     "Test Node",
		Config:    map[string]any{"message": "test"},
		PositionX: 100,
		PositionY: 200,
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node id.
func WithID(id string) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.ID = id
	}
}

// WithType sets the node type.
func WithType(nodeType models.NodeType) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Type = nodeType
	}
}

// WithTriggerNode configures the node as a trigger node.
func WithTriggerNode(keywords ...string) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Type = models.NodeTypeTrigger
		n.Config = map[string]any{}

		if len(keywords) > 0 {
			n.Config["keywords"] = keywords
		}
	}
}

// WithConfig sets the node configuration.
func WithConfig(config map[string]any) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Config = config
	}
}

// WithLabel sets the node label.
func WithLabel(label string) func(*models.FlowNode) {
	return func(n *models.FlowNode) {
		n.Label = label
	}
}

// Edge connects source to target on branch; an empty branch is the default edge.
func Edge(source, target, branch string) *models.FlowEdge {
	return &models.FlowEdge{
		ID:     source + "->" + target + ":" + branch,
		Source: source,
		Target: target,
		Branch: branch,
	}
}

// CreateTestFlow creates an active, published keyword flow on channel "ch-1".
func CreateTestFlow(overrides ...func(*models.Flow)) *models.Flow {
	now := time.Now().UTC()

	flow := &models.Flow{
		ID:          uuid.New().String(),
		Name:        "Test Flow",
		ChannelID:   "ch-1",
		Trigger:     models.Trigger{Type: models.TriggerTypeKeyword, Value: "hi"},
		IsActive:    true,
		IsPublished: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	for _, override := range overrides {
		override(flow)
	}

	return flow
}

// WithGraph sets the flow nodes and edges.
func WithGraph(nodes []*models.FlowNode, edges ...*models.FlowEdge) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Nodes = nodes
		f.Edges = edges
	}
}

// WithTrigger sets the flow-level trigger.
func WithTrigger(triggerType models.TriggerType, value string) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Trigger = models.Trigger{Type: triggerType, Value: value}
	}
}

// WithPriority sets the flow priority.
func WithPriority(priority int) func(*models.Flow) {
	return func(f *models.Flow) {
		f.Priority = priority
	}
}

// CreateTestChannel creates an active channel with test credentials.
func CreateTestChannel(id string) *models.Channel {
	return &models.Channel{
		ID:            id,
		Name:          "Test Channel",
		PhoneNumberID: "phone-" + id,
		PhoneNumber:   "15550000000",
		AccessToken:   "test-token",
		VerifyToken:   "verify-token",
		IsActive:      true,
	}
}

// TextMessage creates an inbound text message from sender on channelID.
func TextMessage(channelID, sender, text string) models.InboundMessage {
	return models.InboundMessage{
		MessageID:  "wamid." + uuid.New().String(),
		ChannelID:  channelID,
		SenderID:   sender,
		Content:    models.MessageContent{Type: models.ContentTypeText, Text: text},
		Contact:    models.Contact{Name: "Test User", WaID: sender},
		ReceivedAt: time.Now().UTC(),
	}
}
