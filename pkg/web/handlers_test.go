package web_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/file"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/registry"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/services"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/testutil"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/web"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDispatcher struct {
	mu       sync.Mutex
	messages []models.InboundMessage
	err      error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, message models.InboundMessage) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.err != nil {
		return d.err
	}

	d.messages = append(d.messages, message)

	return nil
}

type fixture struct {
	app        *fiber.App
	store      *file.Persistence
	dispatcher *recordingDispatcher
}

func setupTestApp(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)
	store := file.NewPersistence(t.TempDir())

	active := testutil.CreateTestChannel("ch-1")
	inactive := testutil.CreateTestChannel("ch-off")
	inactive.IsActive = false

	require.NoError(t, store.ChannelRepository().SaveChannel(context.Background(), active))
	require.NoError(t, store.ChannelRepository().SaveChannel(context.Background(), inactive))

	reg := registry.NewRegistry(logger)
	reg.RegisterDefaultHandlers()

	dispatcher := &recordingDispatcher{}
	server := web.NewServer(logger, store, services.NewPublishing(logger, store, reg), dispatcher)

	return &fixture{app: server.App(), store: store, dispatcher: dispatcher}
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, string(body)
}

func TestWebhook_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "matching token echoes challenge",
			path:       "/webhook/ch-1?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=12345",
			wantStatus: http.StatusOK,
			wantBody:   "12345",
		},
		{
			name:       "wrong token",
			path:       "/webhook/ch-1?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "wrong mode",
			path:       "/webhook/ch-1?hub.mode=unsubscribe&hub.verify_token=verify-token&hub.challenge=12345",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing challenge",
			path:       "/webhook/ch-1?hub.mode=subscribe&hub.verify_token=verify-token",
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unknown channel",
			path:       "/webhook/ch-missing?hub.mode=subscribe&hub.verify_token=verify-token&hub.challenge=1",
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := setupTestApp(t)

			status, body := do(t, f.app, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.wantStatus, status)

			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, body)
			}
		})
	}
}

func delivery(messageID, text string) string {
	return `{"object":"whatsapp_business_account","entry":[{"id":"WABA","changes":[{"field":"messages","value":{` +
		`"metadata":{"phone_number_id":"phone-ch-1"},` +
		`"contacts":[{"profile":{"name":"Maria"},"wa_id":"5511999990000"}],` +
		`"messages":[{"from":"5511999990000","id":"` + messageID + `","timestamp":"1760000000","type":"text","text":{"body":"` + text + `"}}]` +
		`}}]}]}`
}

func post(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	return req
}

func TestWebhook_Receive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		path         string
		body         string
		wantStatus   int
		wantDispatch bool
	}{
		{
			name:         "text message is dispatched",
			path:         "/webhook/ch-1",
			body:         delivery("wamid.A", "hi"),
			wantStatus:   http.StatusOK,
			wantDispatch: true,
		},
		{
			name:       "status update acknowledged",
			path:       "/webhook/ch-1",
			body:       `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"x"}]}}]}]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown channel acknowledged",
			path:       "/webhook/ch-missing",
			body:       delivery("wamid.B", "hi"),
			wantStatus: http.StatusOK,
		},
		{
			name:       "inactive channel acknowledged",
			path:       "/webhook/ch-off",
			body:       delivery("wamid.C", "hi"),
			wantStatus: http.StatusOK,
		},
		{
			name:       "foreign object rejected",
			path:       "/webhook/ch-1",
			body:       `{"object":"instagram","entry":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body rejected",
			path:       "/webhook/ch-1",
			body:       `{"object":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := setupTestApp(t)

			status, _ := do(t, f.app, post(tt.path, tt.body))
			assert.Equal(t, tt.wantStatus, status)

			if !tt.wantDispatch {
				assert.Empty(t, f.dispatcher.messages)
				return
			}

			require.Len(t, f.dispatcher.messages, 1)

			message := f.dispatcher.messages[0]
			assert.Equal(t, "wamid.A", message.MessageID)
			assert.Equal(t, "ch-1", message.ChannelID)
			assert.Equal(t, "5511999990000", message.SenderID)
			assert.Equal(t, "hi", message.Content.Text)
			assert.Equal(t, "Maria", message.Contact.Name)
		})
	}
}

func TestWebhook_ReceiveDispatchFailure(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)
	f.dispatcher.err = errors.New("broker unavailable")

	status, body := do(t, f.app, post("/webhook/ch-1", delivery("wamid.A", "hi")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Contains(t, body, "internal_error")
}

func TestFlows_PublishLifecycle(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	flow := testutil.CreateTestFlow(testutil.WithGraph(
		[]*models.FlowNode{
			testutil.CreateTestNode(testutil.WithID("start"), testutil.WithTriggerNode("hi")),
			testutil.CreateTestNode(testutil.WithID("greet"), testutil.WithConfig(map[string]any{"message": "Hello"})),
		},
		testutil.Edge("start", "greet", ""),
	))
	flow.IsActive = false
	flow.IsPublished = false

	require.NoError(t, f.store.FlowRepository().SaveFlow(context.Background(), flow))

	status, body := do(t, f.app, httptest.NewRequest(http.MethodPost, "/flows/"+flow.ID+"/validate", nil))
	require.Equal(t, http.StatusOK, status)

	var validation web.ValidationResponse
	require.NoError(t, json.Unmarshal([]byte(body), &validation))
	assert.True(t, validation.Valid)

	status, body = do(t, f.app, httptest.NewRequest(http.MethodPost, "/flows/"+flow.ID+"/publish", nil))
	require.Equal(t, http.StatusOK, status)

	var summary web.FlowSummary
	require.NoError(t, json.Unmarshal([]byte(body), &summary))
	assert.True(t, summary.IsActive)
	assert.True(t, summary.IsPublished)
	assert.Equal(t, 2, summary.NodeCount)

	status, body = do(t, f.app, httptest.NewRequest(http.MethodGet, "/flows?channel_id=ch-1", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"total_count":1`)

	status, _ = do(t, f.app, httptest.NewRequest(http.MethodGet, "/flows?channel_id=other", nil))
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, f.app, httptest.NewRequest(http.MethodPost, "/flows/"+flow.ID+"/unpublish", nil))
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &summary))
	assert.False(t, summary.IsPublished)
}

func TestFlows_InvalidAndMissing(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	// No trigger node.
	flow := testutil.CreateTestFlow(testutil.WithGraph([]*models.FlowNode{
		testutil.CreateTestNode(testutil.WithID("greet"), testutil.WithConfig(map[string]any{"message": "Hello"})),
	}))
	require.NoError(t, f.store.FlowRepository().SaveFlow(context.Background(), flow))

	status, body := do(t, f.app, httptest.NewRequest(http.MethodPost, "/flows/"+flow.ID+"/validate", nil))
	require.Equal(t, http.StatusOK, status)

	var validation web.ValidationResponse
	require.NoError(t, json.Unmarshal([]byte(body), &validation))
	assert.False(t, validation.Valid)
	assert.NotEmpty(t, validation.Problems)

	status, body = do(t, f.app, httptest.NewRequest(http.MethodPost, "/flows/"+flow.ID+"/publish", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, body, "invalid_flow")

	status, body = do(t, f.app, httptest.NewRequest(http.MethodGet, "/flows/missing", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "flow_not_found")
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	f := setupTestApp(t)

	status, body := do(t, f.app, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", body)

	status, _ = do(t, f.app, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, status)
}
