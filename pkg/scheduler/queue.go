// Package scheduler delivers delayed resume requests back to the engine once
// they fall due.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/models"
)

var ErrInvalidRequest = errors.New("resume request requires an id and execution key")

// DelayQueue holds resume requests ordered by due time.
type DelayQueue interface {
	// Push stores the request. Pushing an id that is already queued replaces it.
	Push(ctx context.Context, request models.ResumeRequest) error
	// PopDue removes and returns up to limit requests due at or before now.
	// A request is returned to at most one caller.
	PopDue(ctx context.Context, now time.Time, limit int) ([]models.ResumeRequest, error)
	Len(ctx context.Context) (int, error)
	Close() error
}

func validate(request models.ResumeRequest) error {
	if request.ID == "" || request.ConversationID == "" || request.ChannelID == "" {
		return ErrInvalidRequest
	}

	return nil
}
