package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("crawl.locale", "es-ES"))
	require.NoError(t, store.Set("crawl.locale", "ca-ES"))

	val, ok := store.Get("crawl.locale")
	assert.True(t, ok)
	assert.Equal(t, "ca-ES", val)

	_, ok = store.Get("missing")
	assert.False(t, ok)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("s", "text"))
	require.NoError(t, store.Set("i", int64(7)))
	require.NoError(t, store.Set("f", 2.5))
	require.NoError(t, store.Set("b", true))
	require.NoError(t, store.Set("d", "300ms"))
	require.NoError(t, store.Set("bad", "soon"))
	require.NoError(t, store.Set("list", []any{"a", 1, "b"}))

	assert.Equal(t, "text", store.GetString("s"))
	assert.Empty(t, store.GetString("i"))

	assert.Equal(t, 7, store.GetInt("i"))
	assert.Equal(t, 2, store.GetInt("f"))
	assert.Zero(t, store.GetInt("s"))

	assert.Equal(t, 2.5, store.GetFloat("f"))
	assert.Equal(t, 7.0, store.GetFloat("i"))
	assert.Zero(t, store.GetFloat("b"))

	assert.True(t, store.GetBool("b"))
	assert.False(t, store.GetBool("s"))

	assert.Equal(t, 300*time.Millisecond, store.GetDuration("d"))
	assert.Zero(t, store.GetDuration("bad"))
	assert.Zero(t, store.GetDuration("missing"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("list"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_NoOpPersistence(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", n)
			_ = store.Set(key, n)
			assert.Equal(t, n, store.GetInt(key))
		}(i)
	}
	wg.Wait()
}
