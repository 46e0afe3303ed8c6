package apicall

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_SuccessMapsResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders/42", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"phone":"5511999"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "shipped",
			"items":  []any{map[string]any{"name": "Book"}},
		})
	}))
	defer server.Close()

	node := &models.FlowNode{ID: "api", Type: models.NodeTypeAPICall, Config: map[string]any{
		"method":  "post",
		"url":     server.URL + "/orders/{{order_id}}",
		"headers": map[string]any{"Authorization": "Bearer {{token}}"},
		"body":    `{"phone":"{{customer_phone}}"}`,
		"responseMapping": []any{
			map[string]any{"jsonPath": "$.status", "variableName": "order_status"},
			map[string]any{"jsonPath": "items[0].name", "variableName": "first_item"},
			map[string]any{"jsonPath": "$.missing", "variableName": "unresolved"},
		},
	}}

	scope := map[string]any{"order_id": 42, "token": "secret", "customer_phone": "5511999", ErrorVariable: "stale"}
	env := &protocol.Env{HTTPClient: server.Client()}

	transition, err := NewHandler().Handle(context.Background(), node, scope, env)
	require.NoError(t, err)
	assert.Equal(t, OutputPortSuccess, transition.Branch)

	assert.Equal(t, "shipped", scope["order_status"])
	assert.Equal(t, "Book", scope["first_item"])
	assert.NotContains(t, scope, "unresolved")
	assert.NotContains(t, scope, ErrorVariable)

	response, ok := scope[ResponseVariable].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, response["status"])
}

func TestHandler_HTTPErrorIsRuntimeError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	node := &models.FlowNode{ID: "api", Type: models.NodeTypeAPICall, Config: map[string]any{"url": server.URL}}
	scope := map[string]any{}

	_, err := NewHandler().Handle(context.Background(), node, scope, &protocol.Env{HTTPClient: server.Client()})
	require.Error(t, err)
	assert.True(t, protocol.IsRuntimeNodeError(err))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadGateway, httpErr.StatusCode)
	assert.Contains(t, scope[ErrorVariable], "502")
}

func TestHandler_GetSendsNoBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	node := &models.FlowNode{ID: "api", Type: models.NodeTypeAPICall, Config: map[string]any{
		"url":  server.URL,
		"body": `{"ignored":true}`,
	}}
	scope := map[string]any{}

	transition, err := NewHandler().Handle(context.Background(), node, scope, nil)
	require.NoError(t, err)
	assert.Equal(t, OutputPortSuccess, transition.Branch)
	assert.Equal(t, map[string]any{"status": http.StatusNoContent, "data": nil}, scope[ResponseVariable])
}

func TestHandler_FailuresFollowError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		handler   http.HandlerFunc
		timeoutMs int
		wantErr   error
		wantScope string
	}{
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}

				w.WriteHeader(http.StatusOK)
			},
			timeoutMs: 50,
			wantErr:   context.DeadlineExceeded,
			wantScope: "request failed",
		},
		{
			name: "undecodable body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				_, _ = w.Write([]byte("<html>ok</html>"))
			},
			wantScope: "failed to decode response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(tt.handler)
			defer server.Close()

			config := map[string]any{"url": server.URL}
			if tt.timeoutMs > 0 {
				config["timeoutMs"] = tt.timeoutMs
			}

			node := &models.FlowNode{ID: "api", Type: models.NodeTypeAPICall, Config: config}
			scope := map[string]any{}

			started := time.Now()
			_, err := NewHandler().Handle(context.Background(), node, scope, &protocol.Env{HTTPClient: server.Client()})
			require.Error(t, err)
			assert.Less(t, time.Since(started), time.Second)

			var runtimeErr *protocol.RuntimeNodeError
			require.ErrorAs(t, err, &runtimeErr)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			assert.Contains(t, scope[ErrorVariable], tt.wantScope)
			assert.NotContains(t, scope, ResponseVariable)
		})
	}
}
