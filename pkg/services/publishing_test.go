package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/file"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/registry"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPublishing(t *testing.T) (*Publishing, *file.Persistence) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store := file.NewPersistence(t.TempDir())

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultHandlers()

	return NewPublishing(logger, store, reg), store
}

func validFlow() *models.Flow {
	return testutil.CreateTestFlow(testutil.WithGraph(
		[]*models.FlowNode{
			testutil.CreateTestNode(testutil.WithID("start"), testutil.WithTriggerNode("hi")),
			testutil.CreateTestNode(testutil.WithID("greet"), testutil.WithConfig(map[string]any{"message": "Hello"})),
		},
		testutil.Edge("start", "greet", ""),
	))
}

func conditionNode(defaultHandle string) *models.FlowNode {
	config := map[string]any{
		"conditions": []any{map[string]any{"variable": "x", "operator": "equals", "value": "a", "outputHandle": "A"}},
	}
	if defaultHandle != "" {
		config["defaultHandle"] = defaultHandle
	}

	return testutil.CreateTestNode(testutil.WithID("check"), testutil.WithType(models.NodeTypeCondition), testutil.WithConfig(config))
}

func TestPublishing_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*models.Flow)
		wantErr []error
	}{
		{name: "valid flow", mutate: func(*models.Flow) {}},
		{
			name: "missing trigger node",
			mutate: func(f *models.Flow) {
				f.Nodes = f.Nodes[1:]
				f.Edges = nil
			},
			wantErr: []error{ErrTriggerNodeRequired},
		},
		{
			name:    "no nodes",
			mutate:  func(f *models.Flow) { f.Nodes, f.Edges = nil, nil },
			wantErr: []error{ErrNodesRequired, ErrTriggerNodeRequired},
		},
		{
			name:    "dangling edge",
			mutate:  func(f *models.Flow) { f.Edges = append(f.Edges, testutil.Edge("greet", "ghost", "")) },
			wantErr: []error{ErrDanglingEdge},
		},
		{
			name:    "unknown node type",
			mutate:  func(f *models.Flow) { f.Nodes[1].Type = "teleport" },
			wantErr: []error{ErrUnknownNodeType},
		},
		{
			name:    "config violates schema",
			mutate:  func(f *models.Flow) { f.Nodes[1].Config = map[string]any{} },
			wantErr: []error{ErrInvalidNodeConfig},
		},
		{
			name:    "duplicate node id",
			mutate:  func(f *models.Flow) { f.Nodes[1].ID = "start" },
			wantErr: []error{ErrDuplicateNodeID},
		},
		{
			name: "condition without default edge",
			mutate: func(f *models.Flow) {
				f.Nodes = append(f.Nodes, conditionNode("else"))
				f.Edges = append(f.Edges, testutil.Edge("greet", "check", ""), testutil.Edge("check", "greet", "A"))
			},
			wantErr: []error{ErrConditionDefaultEdge},
		},
		{
			name: "condition with default edge",
			mutate: func(f *models.Flow) {
				f.Nodes = append(f.Nodes, conditionNode(""))
				f.Edges = append(f.Edges,
					testutil.Edge("greet", "check", ""),
					testutil.Edge("check", "greet", "A"),
					testutil.Edge("check", "start", ""),
				)
			},
		},
		{
			name: "condition with duplicate branch",
			mutate: func(f *models.Flow) {
				f.Nodes = append(f.Nodes, conditionNode(""))
				f.Edges = append(f.Edges,
					testutil.Edge("check", "greet", "A"),
					testutil.Edge("check", "start", "A"),
					testutil.Edge("check", "start", ""),
				)
			},
			wantErr: []error{ErrDuplicateBranch},
		},
		{
			name:    "missing name",
			mutate:  func(f *models.Flow) { f.Name = "" },
			wantErr: []error{ErrInvalidRequest},
		},
	}

	publishing, _ := newPublishing(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			flow := validFlow()
			tt.mutate(flow)

			err := publishing.Validate(flow)
			if len(tt.wantErr) == 0 {
				require.NoError(t, err)

				return
			}

			require.Error(t, err)
			assert.True(t, IsValidationError(err))

			for _, want := range tt.wantErr {
				assert.ErrorIs(t, err, want)
			}
		})
	}
}

func TestPublishing_Validate_Nil(t *testing.T) {
	t.Parallel()

	publishing, _ := newPublishing(t)

	assert.ErrorIs(t, publishing.Validate(nil), ErrFlowNil)
}

func TestPublishing_PublishAndUnpublish(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publishing, store := newPublishing(t)

	flow := validFlow()
	flow.IsActive = false
	flow.IsPublished = false
	require.NoError(t, store.FlowRepository().SaveFlow(ctx, flow))

	published, err := publishing.Publish(ctx, flow.ID)
	require.NoError(t, err)
	assert.True(t, published.Runnable())

	active, err := store.FlowRepository().ActiveFlows(ctx, flow.ChannelID)
	require.NoError(t, err)
	require.Len(t, active, 1)

	unpublished, err := publishing.Unpublish(ctx, flow.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsActive)
	assert.False(t, unpublished.IsPublished)

	active, err = store.FlowRepository().ActiveFlows(ctx, flow.ChannelID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestPublishing_PublishRejectsInvalidFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publishing, store := newPublishing(t)

	flow := validFlow()
	flow.IsActive = false
	flow.IsPublished = false
	flow.Nodes = flow.Nodes[1:]
	flow.Edges = nil
	require.NoError(t, store.FlowRepository().SaveFlow(ctx, flow))

	_, err := publishing.Publish(ctx, flow.ID)
	require.ErrorIs(t, err, ErrTriggerNodeRequired)

	stored, err := store.FlowRepository().FlowByID(ctx, flow.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsPublished)
}

func TestPublishing_PublishMissingFlow(t *testing.T) {
	t.Parallel()

	publishing, _ := newPublishing(t)

	_, err := publishing.Publish(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}
