package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGetSetDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()

	_, ok, err := mem.Get(ctx, "tab", "cart")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, mem.Set(ctx, "tab", "cart", "[]"))
	value, ok, err := mem.Get(ctx, "tab", "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", value)

	_, ok, _ = mem.Get(ctx, "other", "cart")
	assert.False(t, ok, "scopes must not share values")

	require.NoError(t, mem.Delete(ctx, "tab", "cart"))
	_, ok, _ = mem.Get(ctx, "tab", "cart")
	assert.False(t, ok)
}

func TestMemoryEmptyScopeIsDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()
	require.NoError(t, mem.Set(ctx, "", "cart", "x"))

	value, ok, err := mem.Get(ctx, "default", "cart")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "x", value)
}

func TestMemoryWatchSkipsOwnOrigin(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tabA := WithOrigin(ctx, "tab-a")
	tabB := WithOrigin(ctx, "tab-b")

	changesA, err := mem.Watch(tabA, "s", "cart")
	require.NoError(t, err)
	changesB, err := mem.Watch(tabB, "s", "cart")
	require.NoError(t, err)

	require.NoError(t, mem.Set(tabA, "s", "cart", "[1]"))

	select {
	case change := <-changesB:
		assert.Equal(t, Change{Scope: "s", Key: "cart", Origin: "tab-a"}, change)
	case <-time.After(time.Second):
		t.Fatal("expected tab-b to observe tab-a's write")
	}

	select {
	case change := <-changesA:
		t.Fatalf("writer should not observe its own change: %+v", change)
	default:
	}
}

func TestMemoryWatchClosesOnCancel(t *testing.T) {
	t.Parallel()

	mem := NewMemory()
	ctx, cancel := context.WithCancel(context.Background())
	changes, err := mem.Watch(ctx, "s", "cart")
	require.NoError(t, err)

	cancel()
	select {
	case _, ok := <-changes:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("expected watch channel to close")
	}
	assert.Eventually(t, func() bool { return mem.hub.size() == 0 }, time.Second, 10*time.Millisecond)
}

func TestOriginFromContext(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "", OriginFromContext(context.Background()))
	assert.Equal(t, "x", OriginFromContext(WithOrigin(context.Background(), "x")))
}
