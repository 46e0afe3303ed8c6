package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/nodes/condition"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/registry"
	"github.com/go-playground/validator/v10"
)

// Publishing validates flows and toggles whether they accept new conversations.
type Publishing struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	validate    *validator.Validate
}

func NewPublishing(logger *slog.Logger, persistence persistence.Persistence, registry *registry.Registry) *Publishing {
	return &Publishing{
		logger:      logger.With("module", "publishing"),
		persistence: persistence,
		registry:    registry,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Publish validates the flow and marks it active and published.
func (p *Publishing) Publish(ctx context.Context, flowID string) (*models.Flow, error) {
	flow, err := p.persistence.FlowRepository().FlowByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	if err := p.Validate(flow); err != nil {
		return nil, err
	}

	flow.IsActive = true
	flow.IsPublished = true
	flow.UpdatedAt = time.Now().UTC()

	if err := p.persistence.FlowRepository().SaveFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to publish flow: %w", err)
	}

	p.logger.InfoContext(ctx, "Published flow", "flow_id", flow.ID, "channel_id", flow.ChannelID)

	return flow, nil
}

// Unpublish stops the flow from matching new conversations. Executions
// already waiting in it still resume.
func (p *Publishing) Unpublish(ctx context.Context, flowID string) (*models.Flow, error) {
	flow, err := p.persistence.FlowRepository().FlowByID(ctx, flowID)
	if err != nil {
		return nil, fmt.Errorf("failed to get flow: %w", err)
	}

	flow.IsActive = false
	flow.IsPublished = false
	flow.UpdatedAt = time.Now().UTC()

	if err := p.persistence.FlowRepository().SaveFlow(ctx, flow); err != nil {
		return nil, fmt.Errorf("failed to unpublish flow: %w", err)
	}

	p.logger.InfoContext(ctx, "Unpublished flow", "flow_id", flow.ID)

	return flow, nil
}

// Validate checks the structural rules the engine relies on and returns a
// *ValidationError listing every violation.
func (p *Publishing) Validate(flow *models.Flow) error {
	if flow == nil {
		return ErrFlowNil
	}

	var problems []error

	if err := p.validate.Struct(flow); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}

		for _, fieldErr := range fieldErrs {
			problems = append(problems, fmt.Errorf("%w: %s failed %q", ErrInvalidRequest, fieldErr.Namespace(), fieldErr.Tag()))
		}
	}

	if len(flow.Nodes) == 0 {
		problems = append(problems, ErrNodesRequired)
	}

	nodes := make(map[string]*models.FlowNode, len(flow.Nodes))
	hasTrigger := false

	for _, node := range flow.Nodes {
		if node == nil {
			continue
		}

		if _, exists := nodes[node.ID]; exists {
			problems = append(problems, fmt.Errorf("%w: %s", ErrDuplicateNodeID, node.ID))
		}

		nodes[node.ID] = node

		if node.Type == models.NodeTypeTrigger {
			hasTrigger = true
		}

		if err := p.registry.ValidateConfig(node); err != nil {
			problems = append(problems, configProblem(node, err))
		}
	}

	if !hasTrigger {
		problems = append(problems, ErrTriggerNodeRequired)
	}

	branches := make(map[string]map[string]bool)

	for _, edge := range flow.Edges {
		if edge == nil {
			continue
		}

		for _, id := range []string{edge.Source, edge.Target} {
			if _, ok := nodes[id]; !ok {
				problems = append(problems, fmt.Errorf("%w: edge %s references %q", ErrDanglingEdge, edge.ID, id))
			}
		}

		if source, ok := nodes[edge.Source]; ok && source.Type == models.NodeTypeCondition {
			if branches[edge.Source] == nil {
				branches[edge.Source] = make(map[string]bool)
			}

			if branches[edge.Source][edge.BranchLabel()] {
				problems = append(problems, fmt.Errorf("%w: node %s branch %q", ErrDuplicateBranch, edge.Source, edge.BranchLabel()))
			}

			branches[edge.Source][edge.BranchLabel()] = true
		}
	}

	for _, node := range nodes {
		if node.Type != models.NodeTypeCondition {
			continue
		}

		var cfg models.ConditionConfig
		if err := node.DecodeConfig(&cfg); err != nil {
			continue
		}

		if !branches[node.ID][condition.DefaultHandle(cfg)] {
			problems = append(problems, fmt.Errorf("%w: node %s needs an edge labeled %q", ErrConditionDefaultEdge, node.ID, condition.DefaultHandle(cfg)))
		}
	}

	if len(problems) == 0 {
		return nil
	}

	return &ValidationError{FlowID: flow.ID, Problems: problems}
}

func configProblem(node *models.FlowNode, err error) error {
	if errors.Is(err, registry.ErrUnknownNodeType) {
		return fmt.Errorf("%w: node %s has type %q", ErrUnknownNodeType, node.ID, node.Type)
	}

	return fmt.Errorf("%w: %w", ErrInvalidNodeConfig, err)
}
