// Package models defines the core domain models for chat flow automation.
package models

import (
	"sort"
	"strings"
	"time"
)

// TriggerType decides which inbound messages start a flow.
type TriggerType string

const (
	TriggerTypeKeyword    TriggerType = "keyword"
	TriggerTypeAnyMessage TriggerType = "any_message"
)

// Trigger is the flow-level trigger descriptor.
type Trigger struct {
	Type  TriggerType `json:"type"            validate:"required,oneof=keyword any_message"`
	Value string      `json:"value,omitempty"` // comma separated keywords for keyword triggers
}

// Flow is an author-defined directed graph bound to one channel.
type Flow struct {
	ID          string      `json:"id"          validate:"required"`
	Name        string      `json:"name"        validate:"required"`
	ChannelID   string      `json:"channel_id"  validate:"required"`
	Trigger     Trigger     `json:"trigger"`
	Nodes       []*FlowNode `json:"nodes"       validate:"dive"`
	Edges       []*FlowEdge `json:"edges"       validate:"dive"`
	IsActive    bool        `json:"is_active"`
	IsPublished bool        `json:"is_published"`
	Priority    int         `json:"priority"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Runnable reports whether the flow may start new executions.
func (f *Flow) Runnable() bool {
	return f.IsActive && f.IsPublished
}

// TriggerNode returns the first trigger node of the flow, if any.
func (f *Flow) TriggerNode() *FlowNode {
	for _, node := range f.Nodes {
		if node.Type == NodeTypeTrigger {
			return node
		}
	}

	return nil
}

// Keywords merges the trigger value with the keywords configured on the trigger node.
func (f *Flow) Keywords() ([]string, bool) {
	var (
		keywords      []string
		caseSensitive bool
	)

	for _, keyword := range strings.Split(f.Trigger.Value, ",") {
		if keyword = strings.TrimSpace(keyword); keyword != "" {
			keywords = append(keywords, keyword)
		}
	}

	if node := f.TriggerNode(); node != nil {
		var cfg TriggerConfig
		if err := node.DecodeConfig(&cfg); err == nil {
			caseSensitive = cfg.CaseSensitive

			for _, keyword := range cfg.Keywords {
				if keyword = strings.TrimSpace(keyword); keyword != "" {
					keywords = append(keywords, keyword)
				}
			}
		}
	}

	return keywords, caseSensitive
}

// SortByPriority orders flows by descending priority, most recently updated first on ties.
func SortByPriority(flows []*Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		if flows[i].Priority != flows[j].Priority {
			return flows[i].Priority > flows[j].Priority
		}

		return flows[i].UpdatedAt.After(flows[j].UpdatedAt)
	})
}
