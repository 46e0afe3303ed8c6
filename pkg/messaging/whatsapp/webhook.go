package whatsapp

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

const BusinessAccountObject = "whatsapp_business_account"

// WebhookPayload is the envelope the Cloud API posts to the webhook.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string       `json:"field"`
	Value WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string            `json:"messaging_product"`
	Metadata         WebhookMetadata   `json:"metadata"`
	Contacts         []WebhookContact  `json:"contacts"`
	Messages         []WebhookMessage  `json:"messages"`
	Statuses         []json.RawMessage `json:"statuses"`
}

type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type WebhookContact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type WebhookMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Interactive *WebhookInteractive `json:"interactive,omitempty"`
	Button      *struct {
		Text    string `json:"text"`
		Payload string `json:"payload"`
	} `json:"button,omitempty"`
	Image    *WebhookMedia    `json:"image,omitempty"`
	Document *WebhookMedia    `json:"document,omitempty"`
	Audio    *WebhookMedia    `json:"audio,omitempty"`
	Video    *WebhookMedia    `json:"video,omitempty"`
	Location *WebhookLocation `json:"location,omitempty"`
}

type WebhookInteractive struct {
	Type        string        `json:"type"`
	ButtonReply *WebhookReply `json:"button_reply,omitempty"`
	ListReply   *WebhookReply `json:"list_reply,omitempty"`
}

type WebhookReply struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type WebhookMedia struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
	Filename string `json:"filename,omitempty"`
}

type WebhookLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

// ParseWebhook decodes a webhook delivery into the first inbound message it
// carries. Deliveries with no message, such as status updates, yield nil.
func ParseWebhook(body []byte, channelID string) (*models.InboundMessage, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	if payload.Object != BusinessAccountObject {
		return nil, ErrNotWhatsApp
	}

	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, nil
	}

	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil, nil
	}

	message := value.Messages[0]
	if message.ID == "" || message.From == "" {
		return nil, fmt.Errorf("%w: message id and sender are required", ErrInvalidPayload)
	}

	inbound := &models.InboundMessage{
		MessageID:  message.ID,
		ChannelID:  channelID,
		SenderID:   message.From,
		Content:    ExtractContent(message),
		ReceivedAt: parseTimestamp(message.Timestamp),
	}

	if len(value.Contacts) > 0 {
		inbound.Contact = models.Contact{
			Name: value.Contacts[0].Profile.Name,
			WaID: value.Contacts[0].WaID,
		}
	}

	return inbound, nil
}

// ExtractContent normalizes a webhook message into its text and reply ids.
func ExtractContent(message WebhookMessage) models.MessageContent {
	switch message.Type {
	case "text":
		content := models.MessageContent{Type: models.ContentTypeText}
		if message.Text != nil {
			content.Text = message.Text.Body
		}

		return content
	case "interactive":
		if message.Interactive != nil {
			if r := message.Interactive.ButtonReply; r != nil {
				return models.MessageContent{Type: models.ContentTypeButton, Text: r.Title, ButtonID: r.ID}
			}

			if r := message.Interactive.ListReply; r != nil {
				return models.MessageContent{Type: models.ContentTypeList, Text: r.Title, ListRowID: r.ID}
			}
		}

		return models.MessageContent{Type: models.ContentTypeOther, Text: "[interactive]"}
	case "button":
		// Quick-reply buttons on template messages.
		if message.Button != nil {
			return models.MessageContent{Type: models.ContentTypeButton, Text: message.Button.Text, ButtonID: message.Button.Payload}
		}

		return models.MessageContent{Type: models.ContentTypeButton}
	case "image":
		return media(models.ContentTypeImage, message.Image, "[Image]")
	case "document":
		return media(models.ContentTypeDocument, message.Document, "[Document]")
	case "audio":
		content := media(models.ContentTypeAudio, message.Audio, "[Audio]")
		content.Text = "[Audio]"

		return content
	case "video":
		return media(models.ContentTypeVideo, message.Video, "[Video]")
	case "location":
		content := models.MessageContent{Type: models.ContentTypeLocation, Text: "[Location]"}
		if message.Location != nil {
			content.Text = fmt.Sprintf("[Location: %v, %v]", message.Location.Latitude, message.Location.Longitude)
		}

		return content
	default:
		return models.MessageContent{Type: models.ContentTypeOther, Text: "[" + message.Type + "]"}
	}
}

func media(contentType models.ContentType, m *WebhookMedia, placeholder string) models.MessageContent {
	content := models.MessageContent{Type: contentType, Text: placeholder}
	if m == nil {
		return content
	}

	content.MediaID = m.ID
	if m.Caption != "" {
		content.Text = m.Caption
	}

	return content
}

func parseTimestamp(raw string) time.Time {
	seconds, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seconds <= 0 {
		return time.Now().UTC()
	}

	return time.Unix(seconds, 0).UTC()
}
