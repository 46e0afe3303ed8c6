// Package apicall performs outbound HTTP calls and maps response fields into
// conversation variables.
package apicall

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/variables"
	"github.com/oliveagle/jsonpath"
)

const (
	OutputPortSuccess = "success"
	OutputPortError   = "error"

	ResponseVariable = "api_response"
	ErrorVariable    = "api_error"

	DefaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// HTTPError is a completed call with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Body)
}

type Handler struct{}

func NewHandler() protocol.NodeHandler {
	return &Handler{}
}

func (h *Handler) Type() models.NodeType {
	return models.NodeTypeAPICall
}

func (h *Handler) Name() string {
	return "API Call"
}

func (h *Handler) Description() string {
	return "Calls an HTTP endpoint. 2xx responses follow 'success', anything else follows 'error'."
}

func (h *Handler) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"method": map[string]any{
				"type": "string",
				"enum": []string{"GET", "POST", "PUT", "PATCH", "DELETE", "get", "post", "put", "patch", "delete"},
			},
			"url":     map[string]any{"type": "string", "minLength": 1},
			"headers": map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}},
			"body":    map[string]any{"type": "string"},
			"responseMapping": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"jsonPath":     map[string]any{"type": "string", "minLength": 1},
						"variableName": map[string]any{"type": "string", "minLength": 1},
					},
					"required": []string{"jsonPath", "variableName"},
				},
			},
			"timeoutMs": map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"url"},
		"examples": []map[string]any{
			{
				"method": "GET",
				"url":    "https://api.example.com/orders/{{order_id}}",
				"responseMapping": []map[string]any{
					{"jsonPath": "$.status", "variableName": "order_status"},
				},
			},
		},
	}
}

func (h *Handler) Handle(ctx context.Context, node *models.FlowNode, scope map[string]any, env *protocol.Env) (protocol.Transition, error) {
	var cfg models.APICallConfig
	if err := node.DecodeConfig(&cfg); err != nil {
		return protocol.Transition{}, err
	}

	status, data, err := h.call(ctx, cfg, scope, env)
	if err != nil {
		scope[ErrorVariable] = err.Error()

		return protocol.Transition{}, protocol.NewRuntimeNodeError(node, err)
	}

	delete(scope, ErrorVariable)
	scope[ResponseVariable] = map[string]any{
		"status": status,
		"data":   data,
	}

	for _, mapping := range cfg.ResponseMapping {
		value, err := lookup(data, mapping.JSONPath)
		if err != nil {
			if env != nil && env.Logger != nil {
				env.Logger.DebugContext(ctx, "Response mapping did not resolve",
					"node_id", node.ID, "json_path", mapping.JSONPath, "error", err)
			}

			continue
		}

		if err := variables.Assign(scope, mapping.VariableName, value); err != nil {
			return protocol.Transition{}, err
		}
	}

	return protocol.Advance(OutputPortSuccess), nil
}

func (h *Handler) call(ctx context.Context, cfg models.APICallConfig, scope map[string]any, env *protocol.Env) (int, any, error) {
	timeout := DefaultTimeout
	if cfg.TimeoutMs > 0 {
		timeout = time.Duration(cfg.TimeoutMs) * time.Millisecond
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader

	renderedBody := variables.Interpolate(cfg.Body, scope)
	if renderedBody != "" && method != http.MethodGet {
		body = strings.NewReader(renderedBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, variables.Interpolate(cfg.URL, scope), body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range variables.InterpolateMap(cfg.Headers, scope) {
		req.Header.Set(key, value)
	}

	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	client := http.DefaultClient
	if env != nil && env.HTTPClient != nil {
		client = env.HTTPClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if len(strings.TrimSpace(string(raw))) == 0 {
		return resp.StatusCode, nil, nil
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.StatusCode, data, nil
}

var errNoResponse = errors.New("response has no body")

// lookup evaluates a JSONPath against the decoded body. The leading "$." is optional.
func lookup(data any, path string) (any, error) {
	if data == nil {
		return nil, errNoResponse
	}

	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		path = "$." + path
	}

	return jsonpath.JsonPathLookup(data, path)
}
