package delay

import (
	"context"
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Handle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seconds  int
		expected protocol.Transition
	}{
		{name: "sleeps", seconds: 30, expected: protocol.Sleep(30 * time.Second)},
		{name: "zero advances", seconds: 0, expected: protocol.Advance(models.DefaultBranch)},
		{name: "negative advances", seconds: -5, expected: protocol.Advance(models.DefaultBranch)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			node := &models.FlowNode{ID: "pause", Type: models.NodeTypeDelay, Config: map[string]any{"delaySeconds": tt.seconds}}

			transition, err := NewHandler().Handle(context.Background(), node, map[string]any{}, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, transition)
		})
	}
}
