// Package web exposes the WhatsApp webhook and the flow admin endpoints over
// HTTP.
package web

import (
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// VerifyRequest holds the query parameters of a webhook verification call.
type VerifyRequest struct {
	Mode      string `validate:"required,eq=subscribe"`
	Token     string `validate:"required"`
	Challenge string `validate:"required"`
}

// FlowSummary is the list representation of a flow.
type FlowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ChannelID   string    `json:"channel_id"`
	Priority    int       `json:"priority"`
	IsActive    bool      `json:"is_active"`
	IsPublished bool      `json:"is_published"`
	NodeCount   int       `json:"node_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func TransformFlowSummary(flow *models.Flow) FlowSummary {
	return FlowSummary{
		ID:          flow.ID,
		Name:        flow.Name,
		ChannelID:   flow.ChannelID,
		Priority:    flow.Priority,
		IsActive:    flow.IsActive,
		IsPublished: flow.IsPublished,
		NodeCount:   len(flow.Nodes),
		UpdatedAt:   flow.UpdatedAt,
	}
}

// ValidationResponse reports the outcome of a dry-run validation.
type ValidationResponse struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}
