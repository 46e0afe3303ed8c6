// Package whatsapp implements the messaging gateway on top of the WhatsApp
// Cloud API and decodes its webhook deliveries.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/protocol"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL = "https://graph.facebook.com"
	APIVersion     = "v23.0"
	DefaultTimeout = 15 * time.Second

	messagingProduct = "whatsapp"
	maxErrorBody     = 4 << 10
)

// Client sends messages through the Cloud API using each channel's credentials.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
}

type Option func(*Client)

// WithBaseURL points the client at another Graph API host.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.httpClient = client }
}

func NewClient(logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		logger: logger.With("module", "whatsapp"),
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		baseURL: DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

var _ protocol.MessagingGateway = (*Client)(nil)

func (c *Client) SendText(ctx context.Context, channel *models.Channel, to, text string) (protocol.DeliveryResult, error) {
	return c.send(ctx, channel, outboundMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "text",
		Text:             &textBody{Body: truncate(text, maxTextBody)},
	})
}

func (c *Client) SendImage(ctx context.Context, channel *models.Channel, to, imageURL, caption string) (protocol.DeliveryResult, error) {
	return c.send(ctx, channel, outboundMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "image",
		Image:            &imageBody{Link: imageURL, Caption: truncate(caption, maxCaption)},
	})
}

func (c *Client) SendButtons(ctx context.Context, channel *models.Channel, to string, message models.SendButtonsConfig) (protocol.DeliveryResult, error) {
	return c.send(ctx, channel, outboundMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "interactive",
		Interactive:      buttonsInteractive(message),
	})
}

func (c *Client) SendList(ctx context.Context, channel *models.Channel, to string, message models.SendListConfig) (protocol.DeliveryResult, error) {
	return c.send(ctx, channel, outboundMessage{
		MessagingProduct: messagingProduct,
		To:               to,
		Type:             "interactive",
		Interactive:      listInteractive(message),
	})
}

func (c *Client) MarkAsRead(ctx context.Context, channel *models.Channel, messageID string) error {
	_, err := c.send(ctx, channel, readReceipt{
		MessagingProduct: messagingProduct,
		Status:           "read",
		MessageID:        messageID,
	})

	return err
}

func (c *Client) send(ctx context.Context, channel *models.Channel, payload any) (protocol.DeliveryResult, error) {
	if channel == nil {
		return protocol.DeliveryResult{}, ErrNoChannel
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return protocol.DeliveryResult{}, fmt.Errorf("failed to encode message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/%s/messages", c.baseURL, APIVersion, channel.PhoneNumberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return protocol.DeliveryResult{}, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+channel.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return protocol.DeliveryResult{}, fmt.Errorf("whatsapp request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		apiErr := &APIError{StatusCode: resp.StatusCode}

		var envelope errorEnvelope
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		} else {
			apiErr.Message = strings.TrimSpace(string(raw))
		}

		c.logger.WarnContext(ctx, "WhatsApp API rejected request",
			"channel_id", channel.ID, "status", resp.StatusCode, "error", apiErr.Message)

		return protocol.DeliveryResult{}, apiErr
	}

	var sent sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sent); err != nil && err != io.EOF {
		return protocol.DeliveryResult{}, fmt.Errorf("failed to decode response: %w", err)
	}

	result := protocol.DeliveryResult{}
	if len(sent.Messages) > 0 {
		result.MessageID = sent.Messages[0].ID
	}

	return result, nil
}
