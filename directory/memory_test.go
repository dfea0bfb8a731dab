package directory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryClient_PutGetDelete(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Put(ctx, "k", time.Minute, "v"))
	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok, err = c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryClient_Expiry(t *testing.T) {
	c := NewMemoryClient()
	fakeNow := time.Now()
	c.nowFunc = func() time.Time { return fakeNow }

	require.NoError(t, c.Put(context.Background(), "k", time.Second, "v"))
	fakeNow = fakeNow.Add(2 * time.Second)

	_, ok, err := c.Get(context.Background(), "k")
	require.NoError(t, err)
	require.False(t, ok, "entry should have expired")
}

func TestMemoryClient_SetsAndPutAndMembers(t *testing.T) {
	c := NewMemoryClient()
	ctx := context.Background()

	require.NoError(t, c.Add(ctx, "set", "a"))
	require.NoError(t, c.Add(ctx, "set", "b"))

	members, err := c.Members(ctx, "set")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, members)

	members, err = c.PutAndMembers(ctx, "k", time.Minute, "v", "set")
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, members)

	value, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)
}
