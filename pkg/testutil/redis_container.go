package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisOnce     sync.Once
	redisEndpoint string
	redisErr      error
)

// RedisAddress starts a shared Redis container on first use and returns its
// host:port. Tests are skipped in short mode.
func RedisAddress(t *testing.T) string {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	redisOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
		defer cancel()

		container, err := testcontainers.Run(
			ctx, "redis:7-alpine",
			testcontainers.WithExposedPorts("6379/tcp"),
			testcontainers.WithWaitStrategy(
				wait.ForListeningPort("6379/tcp"),
				wait.ForLog("Ready to accept connections"),
			),
		)
		if err != nil {
			redisErr = err

			return
		}

		endpoint, err := container.Endpoint(ctx, "")
		if err != nil {
			_ = container.Terminate(context.Background())
			redisErr = err

			return
		}

		redisEndpoint = endpoint
	})

	if redisErr != nil {
		t.Fatalf("failed to start redis container: %v", redisErr)
	}

	return redisEndpoint
}
