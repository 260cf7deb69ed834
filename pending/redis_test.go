package pending_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/effective-security/mcpbridge/pending"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	rediscon "github.com/testcontainers/testcontainers-go/modules/redis"
)

func Test_RedisStore(t *testing.T) {
	ctx := context.Background()
	redisContainer, err := rediscon.Run(ctx, "redis:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, redisContainer.Terminate(ctx))
	})

	state, err := redisContainer.State(ctx)
	require.NoError(t, err)
	require.True(t, state.Running)

	root := fmt.Sprintf("test-%d", time.Now().Unix())

	host, err := redisContainer.ConnectionString(ctx)
	require.NoError(t, err)

	options, err := redis.ParseURL(host)
	require.NoError(t, err)

	client := redis.NewClient(options)

	rs := client.Ping(ctx) // Ensure the connection is established
	require.NoError(t, rs.Err(), "failed to connect to Redis")

	st := pending.NewRedisStore(client, root)

	_, err = st.Take(ctx, "missing")
	assert.ErrorIs(t, err, pending.ErrNotFound)

	ids, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	p1 := &pending.Pending{
		InvocationID: "inv-1",
		Event:        []byte(`{"invocationId":"inv-1","invocationInputs":[]}`),
		SessionState: []byte(`{"sessionAttributes":{"k":"v"}}`),
	}
	require.NoError(t, st.Put(ctx, p1))
	require.NoError(t, st.Put(ctx, &pending.Pending{InvocationID: "inv-2"}))

	ids, err = st.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"inv-1", "inv-2"}, ids)

	got, err := st.Take(ctx, "inv-1")
	require.NoError(t, err)
	assert.Equal(t, p1.Event, got.Event)
	assert.Equal(t, p1.SessionState, got.SessionState)
	assert.False(t, got.CreatedAt.IsZero())

	// taking consumes the entry
	_, err = st.Take(ctx, "inv-1")
	assert.ErrorIs(t, err, pending.ErrNotFound)

	require.NoError(t, st.Delete(ctx, "inv-2"))
	ids, err = st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}
