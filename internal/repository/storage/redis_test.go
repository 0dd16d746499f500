package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/snakesladders-backend/testing/suite"
)

func TestNew(t *testing.T) {
	t.Run("Connects to a running Redis", func(t *testing.T) {
		ctx, st := suite.New(t)

		client, err := New(ctx, st.Addr)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })

		require.NoError(t, client.Ping(ctx).Err())
	})

	t.Run("Fails when nothing listens", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		client, err := New(ctx, "127.0.0.1:1")

		require.Error(t, err)
		require.Nil(t, client)
	})
}
