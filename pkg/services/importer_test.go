package services

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDocument = `
channels:
  - id: ch-1
    name: Support
    phone_number_id: "1234567890"
    access_token: token
    verify_token: verify
    is_active: true
flows:
  - id: welcome
    name: Welcome
    channel_id: ch-1
    trigger:
      type: keyword
      value: hi, hello
    is_active: true
    is_published: true
    priority: 2
    nodes:
      - id: start
        type: trigger
        config: {}
      - id: greet
        type: sendText
        config:
          message: "Hello {{customer_name}}"
    edges:
      - id: e1
        source: start
        target: greet
  - name: Draft
    channel_id: ch-1
    trigger:
      type: any_message
    nodes: []
    edges: []
`

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "flows.json", want: FormatJSON},
		{path: "flows.YAML", want: FormatYAML},
		{path: "dir/flows.yml", want: FormatYAML},
		{path: "flows.toml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFileFormat)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParse(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(yamlDocument), FormatYAML)
	require.NoError(t, err)
	require.Len(t, doc.Channels, 1)
	require.Len(t, doc.Flows, 2)

	assert.Equal(t, "1234567890", doc.Channels[0].PhoneNumberID)
	assert.Equal(t, "hi, hello", doc.Flows[0].Trigger.Value)
	assert.Equal(t, "Hello {{customer_name}}", doc.Flows[0].Nodes[1].Config["message"])

	_, err = Parse([]byte(`{"flows": [{"unknown_field": 1}]}`), FormatJSON)
	require.ErrorIs(t, err, ErrInvalidRequest)

	_, err = Parse([]byte(`{}`), "xml")
	require.ErrorIs(t, err, ErrUnsupportedFileFormat)
}

func TestImporter_Import(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publishing, store := newPublishing(t)
	importer := NewImporter(slog.New(slog.DiscardHandler), store, publishing)

	result, err := importer.Import(ctx, []byte(yamlDocument), FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, []string{"ch-1"}, result.Channels)
	require.Len(t, result.Flows, 2)
	assert.Equal(t, "welcome", result.Flows[0])
	assert.NotEmpty(t, result.Flows[1])

	channel, err := store.ChannelRepository().ChannelByID(ctx, "ch-1")
	require.NoError(t, err)
	assert.Equal(t, "verify", channel.VerifyToken)

	active, err := store.FlowRepository().ActiveFlows(ctx, "ch-1")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "welcome", active[0].ID)
}

func TestImporter_RejectsInvalidPublishedFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publishing, store := newPublishing(t)
	importer := NewImporter(slog.New(slog.DiscardHandler), store, publishing)

	doc := `{
		"channels": [{"id": "ch-1", "phone_number_id": "1", "access_token": "t"}],
		"flows": [{
			"id": "broken", "name": "Broken", "channel_id": "ch-1",
			"trigger": {"type": "any_message"}, "is_published": true, "is_active": true,
			"nodes": [{"id": "greet", "type": "sendText", "config": {"message": "hi"}}],
			"edges": []
		}]
	}`

	_, err := importer.Import(ctx, []byte(doc), FormatJSON)
	require.ErrorIs(t, err, ErrTriggerNodeRequired)

	channels, err := store.ChannelRepository().Channels(ctx)
	require.NoError(t, err)
	assert.Empty(t, channels)
}
