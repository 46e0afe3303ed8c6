package whatsapp

import (
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

// Cloud API field limits, in characters.
const (
	maxTextBody        = 4096
	maxCaption         = 1024
	maxInteractiveBody = 1024
	maxHeader          = 60
	maxFooter          = 60
	maxButtons         = 3
	maxButtonTitle     = 20
	maxListButton      = 20
	maxSectionTitle    = 24
	maxSectionRows     = 10
	maxRowTitle        = 24
	maxRowDescription  = 72
)

type outboundMessage struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *textBody    `json:"text,omitempty"`
	Image            *imageBody   `json:"image,omitempty"`
	Interactive      *interactive `json:"interactive,omitempty"`
}

type readReceipt struct {
	MessagingProduct string `json:"messaging_product"`
	Status           string `json:"status"`
	MessageID        string `json:"message_id"`
}

type textBody struct {
	Body string `json:"body"`
}

type imageBody struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type interactive struct {
	Type   string            `json:"type"`
	Header *interactiveText  `json:"header,omitempty"`
	Body   textOnly          `json:"body"`
	Footer *textOnly         `json:"footer,omitempty"`
	Action interactiveAction `json:"action"`
}

type interactiveText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type textOnly struct {
	Text string `json:"text"`
}

type interactiveAction struct {
	Buttons  []replyButton `json:"buttons,omitempty"`
	Button   string        `json:"button,omitempty"`
	Sections []listSection `json:"sections,omitempty"`
}

type replyButton struct {
	Type  string `json:"type"`
	Reply reply  `json:"reply"`
}

type reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type listSection struct {
	Title string    `json:"title,omitempty"`
	Rows  []listRow `json:"rows"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func buttonsInteractive(message models.SendButtonsConfig) *interactive {
	buttons := message.Buttons
	if len(buttons) > maxButtons {
		buttons = buttons[:maxButtons]
	}

	out := &interactive{
		Type: "button",
		Body: textOnly{Text: truncate(message.BodyText, maxInteractiveBody)},
	}

	for _, button := range buttons {
		out.Action.Buttons = append(out.Action.Buttons, replyButton{
			Type:  "reply",
			Reply: reply{ID: button.ID, Title: truncate(button.Title, maxButtonTitle)},
		})
	}

	decorate(out, message.HeaderText, message.FooterText)

	return out
}

func listInteractive(message models.SendListConfig) *interactive {
	out := &interactive{
		Type: "list",
		Body: textOnly{Text: truncate(message.BodyText, maxInteractiveBody)},
		Action: interactiveAction{
			Button: truncate(message.ButtonText, maxListButton),
		},
	}

	for _, section := range message.Sections {
		rows := section.Rows
		if len(rows) > maxSectionRows {
			rows = rows[:maxSectionRows]
		}

		converted := listSection{Title: truncate(section.Title, maxSectionTitle)}

		for _, row := range rows {
			converted.Rows = append(converted.Rows, listRow{
				ID:          row.ID,
				Title:       truncate(row.Title, maxRowTitle),
				Description: truncate(row.Description, maxRowDescription),
			})
		}

		out.Action.Sections = append(out.Action.Sections, converted)
	}

	decorate(out, message.HeaderText, message.FooterText)

	return out
}

func decorate(out *interactive, header, footer string) {
	if header != "" {
		out.Header = &interactiveText{Type: "text", Text: truncate(header, maxHeader)}
	}

	if footer != "" {
		out.Footer = &textOnly{Text: truncate(footer, maxFooter)}
	}
}

// truncate cuts s to at most limit characters.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}

	return string(runes[:limit])
}
