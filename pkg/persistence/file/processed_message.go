package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
)

// ProcessedMessageRepository keeps one marker file per message id. Creation
// uses O_EXCL so concurrent writers agree on who inserted first.
type ProcessedMessageRepository struct {
	root string
}

func (r *ProcessedMessageRepository) path(messageID string) string {
	sum := sha256.Sum256([]byte(messageID))

	return filepath.Join(r.root, processedDir, hex.EncodeToString(sum[:]))
}

func (r *ProcessedMessageRepository) Has(_ context.Context, messageID string) (bool, error) {
	_, err := os.Stat(r.path(messageID))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, persistence.NewError("Has", messageID, err)
}

func (r *ProcessedMessageRepository) Put(_ context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, persistence.NewError("Put", messageID, fmt.Errorf("%w: empty", persistence.ErrInvalidID))
	}

	if err := os.MkdirAll(filepath.Join(r.root, processedDir), 0750); err != nil {
		return false, persistence.NewError("Put", messageID, err)
	}

	marker, err := os.OpenFile(r.path(messageID), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if errors.Is(err, os.ErrExist) {
		return false, nil
	}

	if err != nil {
		return false, persistence.NewError("Put", messageID, err)
	}

	_, err = marker.WriteString(messageID)
	if closeErr := marker.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return true, persistence.NewError("Put", messageID, err)
	}

	return true, nil
}
