package whatsapp_test

import (
	"testing"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/messaging/whatsapp"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const textDelivery = `{
  "object": "whatsapp_business_account",
  "entry": [{
    "id": "WABA",
    "changes": [{
      "field": "messages",
      "value": {
        "messaging_product": "whatsapp",
        "metadata": {"display_phone_number": "15550001111", "phone_number_id": "1098765"},
        "contacts": [{"profile": {"name": "Maria"}, "wa_id": "5511999990000"}],
        "messages": [{
          "from": "5511999990000",
          "id": "wamid.IN1",
          "timestamp": "1760000000",
          "type": "text",
          "text": {"body": "hi there"}
        }]
      }
    }]
  }]
}`

func TestParseWebhook_TextMessage(t *testing.T) {
	t.Parallel()

	message, err := whatsapp.ParseWebhook([]byte(textDelivery), "ch-1")
	require.NoError(t, err)
	require.NotNil(t, message)

	assert.Equal(t, "wamid.IN1", message.MessageID)
	assert.Equal(t, "ch-1", message.ChannelID)
	assert.Equal(t, "5511999990000", message.SenderID)
	assert.Equal(t, models.MessageContent{Type: models.ContentTypeText, Text: "hi there"}, message.Content)
	assert.Equal(t, models.Contact{Name: "Maria", WaID: "5511999990000"}, message.Contact)
	assert.Equal(t, time.Unix(1760000000, 0).UTC(), message.ReceivedAt)
}

func TestParseWebhook_NonMessageDeliveries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{
			name:    "other object",
			body:    `{"object":"page","entry":[]}`,
			wantErr: whatsapp.ErrNotWhatsApp,
		},
		{
			name:    "malformed json",
			body:    `{"object":`,
			wantErr: whatsapp.ErrInvalidPayload,
		},
		{
			name: "status update",
			body: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.X","status":"delivered"}]}}]}]}`,
		},
		{
			name: "no entries",
			body: `{"object":"whatsapp_business_account","entry":[]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			message, err := whatsapp.ParseWebhook([]byte(tt.body), "ch-1")
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Nil(t, message)
		})
	}
}

func TestExtractContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message whatsapp.WebhookMessage
		want    models.MessageContent
	}{
		{
			name: "button reply",
			message: whatsapp.WebhookMessage{Type: "interactive", Interactive: &whatsapp.WebhookInteractive{
				Type:        "button_reply",
				ButtonReply: &whatsapp.WebhookReply{ID: "yes", Title: "Yes"},
			}},
			want: models.MessageContent{Type: models.ContentTypeButton, Text: "Yes", ButtonID: "yes"},
		},
		{
			name: "list reply",
			message: whatsapp.WebhookMessage{Type: "interactive", Interactive: &whatsapp.WebhookInteractive{
				Type:      "list_reply",
				ListReply: &whatsapp.WebhookReply{ID: "row-2", Title: "Second"},
			}},
			want: models.MessageContent{Type: models.ContentTypeList, Text: "Second", ListRowID: "row-2"},
		},
		{
			name:    "image with caption",
			message: whatsapp.WebhookMessage{Type: "image", Image: &whatsapp.WebhookMedia{ID: "m1", Caption: "receipt"}},
			want:    models.MessageContent{Type: models.ContentTypeImage, Text: "receipt", MediaID: "m1"},
		},
		{
			name:    "image without caption",
			message: whatsapp.WebhookMessage{Type: "image", Image: &whatsapp.WebhookMedia{ID: "m1"}},
			want:    models.MessageContent{Type: models.ContentTypeImage, Text: "[Image]", MediaID: "m1"},
		},
		{
			name:    "document",
			message: whatsapp.WebhookMessage{Type: "document", Document: &whatsapp.WebhookMedia{ID: "d1"}},
			want:    models.MessageContent{Type: models.ContentTypeDocument, Text: "[Document]", MediaID: "d1"},
		},
		{
			name:    "audio",
			message: whatsapp.WebhookMessage{Type: "audio", Audio: &whatsapp.WebhookMedia{ID: "a1"}},
			want:    models.MessageContent{Type: models.ContentTypeAudio, Text: "[Audio]", MediaID: "a1"},
		},
		{
			name:    "video with caption",
			message: whatsapp.WebhookMessage{Type: "video", Video: &whatsapp.WebhookMedia{ID: "v1", Caption: "clip"}},
			want:    models.MessageContent{Type: models.ContentTypeVideo, Text: "clip", MediaID: "v1"},
		},
		{
			name:    "location",
			message: whatsapp.WebhookMessage{Type: "location", Location: &whatsapp.WebhookLocation{Latitude: -23.5, Longitude: -46.6}},
			want:    models.MessageContent{Type: models.ContentTypeLocation, Text: "[Location: -23.5, -46.6]"},
		},
		{
			name:    "sticker",
			message: whatsapp.WebhookMessage{Type: "sticker"},
			want:    models.MessageContent{Type: models.ContentTypeOther, Text: "[sticker]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, whatsapp.ExtractContent(tt.message))
		})
	}
}
