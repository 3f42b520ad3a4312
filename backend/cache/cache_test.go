package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type payload struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

func newTestClient(t *testing.T) *Client {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(rdb, "test:", time.Minute)
}

func TestSetGetRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "course", payload{ID: 7, Title: "Go from Scratch"})

	var got payload
	err := c.Get(ctx, "course", &got)
	assert.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, "Go from Scratch", got.Title)
}

func TestGetMiss(t *testing.T) {
	c := newTestClient(t)

	var got payload
	err := c.Get(context.Background(), "missing", &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteInvalidates(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	c.Set(ctx, "a", payload{ID: 1})
	c.Set(ctx, "b", payload{ID: 2})
	c.Delete(ctx, "a", "b")

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "a", &got), ErrNotFound)
	assert.ErrorIs(t, c.Get(ctx, "b", &got), ErrNotFound)
}

func TestNilClientDegradesGracefully(t *testing.T) {
	c := New(nil, "test:", time.Minute)
	ctx := context.Background()

	var got payload
	assert.ErrorIs(t, c.Get(ctx, "anything", &got), ErrNotAvailable)

	// Writes and deletes are silently dropped.
	c.Set(ctx, "anything", payload{ID: 1})
	c.Delete(ctx, "anything")
}

func TestConnectWithoutAddr(t *testing.T) {
	assert.Nil(t, Connect("", ""))
}
