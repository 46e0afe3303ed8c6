package workflow

import (
	"log/slog"
	"slices"
	"strings"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// TriggerMatcher selects the flow a new conversation starts.
type TriggerMatcher struct {
	logger *slog.Logger
}

func NewTriggerMatcher(logger *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{
		logger: logger.With("module", "trigger_matcher"),
	}
}

// Match returns the highest priority runnable flow whose trigger accepts
// text, or nil.
func (tm *TriggerMatcher) Match(flows []*models.Flow, text string) *models.Flow {
	candidates := make([]*models.Flow, 0, len(flows))

	for _, flow := range flows {
		if flow != nil && flow.Runnable() {
			candidates = append(candidates, flow)
		}
	}

	models.SortByPriority(candidates)

	for _, flow := range candidates {
		if tm.matches(flow, text) {
			tm.logger.Debug("Matched flow", "flow_id", flow.ID, "trigger_type", flow.Trigger.Type, "priority", flow.Priority)

			return flow
		}
	}

	tm.logger.Debug("No flow matched", "flows_count", len(candidates))

	return nil
}

func (tm *TriggerMatcher) matches(flow *models.Flow, text string) bool {
	switch flow.Trigger.Type {
	case models.TriggerTypeAnyMessage:
		return true
	case models.TriggerTypeKeyword:
		keywords, caseSensitive := flow.Keywords()
		text = strings.TrimSpace(text)

		if caseSensitive {
			return slices.Contains(keywords, text)
		}

		return slices.ContainsFunc(keywords, func(keyword string) bool {
			return strings.EqualFold(keyword, text)
		})
	default:
		tm.logger.Warn("Unsupported trigger type", "flow_id", flow.ID, "trigger_type", flow.Trigger.Type)

		return false
	}
}
