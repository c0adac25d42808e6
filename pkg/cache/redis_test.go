package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return &Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
}

func TestSetGet(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key1", "value1", time.Minute))

	val, err := c.Get(ctx, "key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", val)
}

func TestGet_Missing(t *testing.T) {
	c := newTestClient(t)

	_, err := c.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, redis.Nil)
}

func TestDeletePattern(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "reviews:user:u1:10:0", "a", time.Minute))
	require.NoError(t, c.Set(ctx, "reviews:user:u1:20:0", "b", time.Minute))
	require.NoError(t, c.Set(ctx, "reviews:user:u2:10:0", "c", time.Minute))

	require.NoError(t, c.DeletePattern(ctx, "reviews:user:u1:*"))

	_, err := c.Get(ctx, "reviews:user:u1:10:0")
	assert.ErrorIs(t, err, redis.Nil)
	_, err = c.Get(ctx, "reviews:user:u1:20:0")
	assert.ErrorIs(t, err, redis.Nil)

	val, err := c.Get(ctx, "reviews:user:u2:10:0")
	require.NoError(t, err)
	assert.Equal(t, "c", val)
}

func TestNilClient_IsNoop(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	_, err := c.Get(ctx, "k")
	assert.ErrorIs(t, err, redis.Nil)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.Close())
}
