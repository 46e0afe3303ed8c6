package variables

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	t.Parallel()

	scope := map[string]any{
		"user":  map[string]any{"name": "Sam"},
		"count": float64(3),
		"items": []any{map[string]any{"sku": "A1"}},
	}

	tests := []struct {
		name     string
		template string
		expected string
	}{
		{"nested path", "Hi {{user.name}}", "Hi Sam"},
		{"trimmed path", "Hi {{ user.name }}!", "Hi Sam!"},
		{"missing keeps token", "Hi {{missing}}", "Hi {{missing}}"},
		{"partially missing keeps token", "Hi {{user.age}}", "Hi {{user.age}}"},
		{"number", "You have {{count}} items", "You have 3 items"},
		{"list index", "First: {{items.0.sku}}", "First: A1"},
		{"multiple tokens", "{{user.name}}/{{count}}/{{nope}}", "Sam/3/{{nope}}"},
		{"no tokens", "plain text", "plain text"},
		{"unclosed token", "Hi {{user.name", "Hi {{user.name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Interpolate(tt.template, scope))
		})
	}
}

func TestInterpolate_EmptyScope(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Hi {{missing}}", Interpolate("Hi {{missing}}", map[string]any{}))
	assert.Equal(t, "Hi {{missing}}", Interpolate("Hi {{missing}}", nil))
}

func TestInterpolateMap(t *testing.T) {
	t.Parallel()

	headers := InterpolateMap(map[string]string{
		"Authorization": "Bearer {{token}}",
		"X-Static":      "static",
	}, map[string]any{"token": "abc"})

	assert.Equal(t, "Bearer abc", headers["Authorization"])
	assert.Equal(t, "static", headers["X-Static"])
}
