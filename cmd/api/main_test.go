package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"membership_backend/internal/store/memory"
	"membership_backend/platform/config"
	"membership_backend/platform/logger"

	"github.com/stretchr/testify/require"
)

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), logger.Discard(), "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestWithRetryReturnsLastError(t *testing.T) {
	err := withRetry(context.Background(), logger.Discard(), "database connection", 2, time.Millisecond, func() error {
		return errors.New("connection refused")
	})
	require.EqualError(t, err, "database connection: connection refused")
}

func TestWithRetryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, logger.Discard(), "op", 5, time.Second, func() error {
		return errors.New("unreachable")
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestWithRetryRejectsZeroAttempts(t *testing.T) {
	err := withRetry(context.Background(), logger.Discard(), "op", 0, time.Millisecond, func() error { return nil })
	require.Error(t, err)
}

type storeConfig struct {
	driver string
}

func (c storeConfig) GetDatabaseURL() string { return "" }
func (c storeConfig) GetStoreDriver() string { return c.driver }
func (c storeConfig) GetRunMigrations() bool { return false }

func TestOpenStoresMemoryDriver(t *testing.T) {
	ctx := context.Background()
	st, err := openStores(ctx, storeConfig{driver: config.StoreDriverMemory}, logger.Discard())
	require.NoError(t, err)
	defer st.close()

	require.IsType(t, &memory.Store{}, st.users)
	require.Same(t, st.users, st.orgs)
	require.NoError(t, st.health.Ping(ctx))
}
