package redisclient

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockLifecycle(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Integration test - requires redis")
	}

	client, err := NewClient(addr, "", 0)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()

	lock, err := client.AcquireLock(ctx, "webhook:evt_test", 5*time.Second)
	require.NoError(t, err)
	require.NotNil(t, lock)

	second, err := client.AcquireLock(ctx, "webhook:evt_test", 5*time.Second)
	require.NoError(t, err)
	assert.Nil(t, second)

	require.NoError(t, client.ReleaseLock(ctx, lock))

	again, err := client.AcquireLock(ctx, "webhook:evt_test", 5*time.Second)
	require.NoError(t, err)
	assert.NotNil(t, again)
	require.NoError(t, client.ReleaseLock(ctx, again))
}

func TestReleaseNilLock(t *testing.T) {
	c := &Client{}
	assert.NoError(t, c.ReleaseLock(context.Background(), nil))
}
