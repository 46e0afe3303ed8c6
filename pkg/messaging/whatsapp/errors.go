package whatsapp

import (
	"errors"
	"fmt"
)

var (
	ErrNoChannel      = errors.New("channel is required")
	ErrNotWhatsApp    = errors.New("not a whatsapp business account webhook")
	ErrInvalidPayload = errors.New("invalid webhook payload")
)

// APIError is a non-2xx answer from the Cloud API.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whatsapp api error %d (code %d): %s", e.StatusCode, e.Code, e.Message)
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}
