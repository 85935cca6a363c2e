package realtime

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRegistry(t *testing.T) (*RedisRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisRegistry(client, 0), mr
}

// registryContract runs the behaviour every Registry must share.
func registryContract(t *testing.T, newRegistry func(t *testing.T) Registry) {
	ctx := context.Background()

	t.Run("resolve unknown user", func(t *testing.T) {
		r := newRegistry(t)
		_, ok, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("attach then resolve", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Attach(ctx, "u1", "c1"))

		connID, ok, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "c1", connID)
	})

	t.Run("last attach wins", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Attach(ctx, "u1", "c1"))
		require.NoError(t, r.Attach(ctx, "u1", "c2"))

		connID, ok, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "c2", connID)
	})

	t.Run("detach clears current connection", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Attach(ctx, "u1", "c1"))
		require.NoError(t, r.Detach(ctx, "c1"))

		_, ok, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("stale detach keeps newer connection", func(t *testing.T) {
		r := newRegistry(t)
		require.NoError(t, r.Attach(ctx, "u1", "c1"))
		require.NoError(t, r.Attach(ctx, "u1", "c2"))
		require.NoError(t, r.Detach(ctx, "c1"))

		connID, ok, err := r.Resolve(ctx, "u1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "c2", connID)
	})

	t.Run("detach unknown connection", func(t *testing.T) {
		r := newRegistry(t)
		assert.NoError(t, r.Detach(ctx, "nope"))
	})
}

func TestMemoryRegistry(t *testing.T) {
	registryContract(t, func(t *testing.T) Registry { return NewMemoryRegistry() })
}

func TestRedisRegistry(t *testing.T) {
	registryContract(t, func(t *testing.T) Registry {
		r, _ := newRedisRegistry(t)
		return r
	})
}

func TestRedisRegistry_Keys(t *testing.T) {
	r, mr := newRedisRegistry(t)
	ctx := context.Background()

	require.NoError(t, r.Attach(ctx, "u1", "c1"))
	user, err := mr.Get("live:user:u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", user)
	conn, err := mr.Get("live:conn:c1")
	require.NoError(t, err)
	assert.Equal(t, "u1", conn)

	require.NoError(t, r.Detach(ctx, "c1"))
	assert.False(t, mr.Exists("live:user:u1"))
	assert.False(t, mr.Exists("live:conn:c1"))
}

func TestRedisRegistry_ResolveFailsWhenRedisDown(t *testing.T) {
	r, mr := newRedisRegistry(t)
	mr.Close()

	_, _, err := r.Resolve(context.Background(), "u1")
	assert.Error(t, err)
}

func TestMemoryRegistry_ConcurrentAttachAndResolve(t *testing.T) {
	r := NewMemoryRegistry()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			_ = r.Attach(ctx, "u1", fmt.Sprintf("c%d", i))
		}(i)
		go func() {
			defer wg.Done()
			_, _, _ = r.Resolve(ctx, "u1")
		}()
	}
	wg.Wait()

	connID, ok, err := r.Resolve(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	// exactly one connection is left pointing at u1
	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.Equal(t, "u1", r.byConn[connID])
	assert.Len(t, r.byConn, 1)
}
