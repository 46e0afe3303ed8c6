package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/file"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/postgresql"
	"github.com/TheCircleGuy/The-Potential-Company-Whatsapp-Product/pkg/persistence/redis"
)

// NewPersistence opens the store named by databaseURL. A URL without a
// scheme is a directory for the file store.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	if databaseURL == "" {
		return nil, ErrDatabaseURLRequired
	}

	switch parsePersistenceProvider(databaseURL) {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger.With("module", "postgresql"), databaseURL)
		if err != nil {
			return nil, err
		}

		return store, nil
	case "redis", "rediss":
		store, err := redis.NewPersistence(ctx, logger.With("module", "redis"), databaseURL)
		if err != nil {
			return nil, err
		}

		return store, nil
	case "file":
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedPersistence, databaseURL)
	}
}

func parsePersistenceProvider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return strings.ToLower(scheme)
}
