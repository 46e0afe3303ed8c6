package models

import "time"

// ContentType is the normalized kind of an inbound message.
type ContentType string

const (
	ContentTypeText     ContentType = "text"
	ContentTypeButton   ContentType = "button"
	ContentTypeList     ContentType = "list"
	ContentTypeImage    ContentType = "image"
	ContentTypeDocument ContentType = "document"
	ContentTypeAudio    ContentType = "audio"
	ContentTypeVideo    ContentType = "video"
	ContentTypeLocation ContentType = "location"
	ContentTypeOther    ContentType = "other"
)

// MessageContent is the normalized payload of an inbound message.
type MessageContent struct {
	Type      ContentType `json:"type"`
	Text      string      `json:"text"`
	ButtonID  string      `json:"button_id,omitempty"`
	ListRowID string      `json:"list_row_id,omitempty"`
	MediaID   string      `json:"media_id,omitempty"`
}

// Contact is the counterparty profile delivered with a message.
type Contact struct {
	Name string `json:"name,omitempty"`
	WaID string `json:"wa_id,omitempty"`
}

// InboundMessage is one message delivered by the chat transport.
type InboundMessage struct {
	MessageID  string         `json:"message_id" validate:"required"`
	ChannelID  string         `json:"channel_id" validate:"required"`
	SenderID   string         `json:"sender_id"  validate:"required"`
	Content    MessageContent `json:"content"`
	Contact    Contact        `json:"contact"`
	ReceivedAt time.Time      `json:"received_at"`
}

func (m InboundMessage) Key() ExecutionKey {
	return ExecutionKey{ConversationID: m.SenderID, ChannelID: m.ChannelID}
}

// ContactVariables returns the conversation variables describing the sender.
func (m InboundMessage) ContactVariables() map[string]any {
	name := m.Contact.Name
	if name == "" {
		name = m.SenderID
	}

	waID := m.Contact.WaID
	if waID == "" {
		waID = m.SenderID
	}

	return map[string]any{
		"customer_phone": m.SenderID,
		"customer_name":  name,
		"customer_wa_id": waID,
	}
}

// Snapshot renders the content as the last_message variable.
func (c MessageContent) Snapshot() map[string]any {
	return map[string]any{
		"type":        string(c.Type),
		"text":        c.Text,
		"button_id":   c.ButtonID,
		"list_row_id": c.ListRowID,
	}
}

// Matches reports whether the content satisfies an expected reply type.
func (c MessageContent) Matches(expected ExpectedType) bool {
	switch expected {
	case "", ExpectedAny:
		return true
	case ExpectedText:
		return c.Type == ContentTypeText
	case ExpectedButton:
		return c.Type == ContentTypeButton
	case ExpectedList:
		return c.Type == ContentTypeList
	case ExpectedImage:
		return c.Type == ContentTypeImage
	default:
		return false
	}
}
