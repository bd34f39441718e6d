package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	require.NotNil(t, store)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_HomeEnv(t *testing.T) {
	home := filepath.Join(t.TempDir(), "custom")
	t.Setenv(HomeEnv, home)

	store, err := NewConfigStore("")

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "config.toml"), store.Path())
	info, err := os.Stat(home)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), info.Mode().Perm())
}

func TestHomeDir_Default(t *testing.T) {
	t.Setenv(HomeEnv, "")
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot determine home directory")
	}

	dir, err := HomeDir()

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".baratazo"), dir)
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("crawl.postal_code", "08203"))
	require.NoError(t, store.Set("crawl.max_pages", 200))
	require.NoError(t, store.Set("crawl.headless", true))
	require.NoError(t, store.Set("crawl.actions_per_second", 1.5))
	require.NoError(t, store.Set("crawl.scroll_pause", "300ms"))

	assert.Equal(t, "08203", store.GetString("crawl.postal_code"))
	assert.Equal(t, 200, store.GetInt("crawl.max_pages"))
	assert.True(t, store.GetBool("crawl.headless"))
	assert.InDelta(t, 1.5, store.GetFloat("crawl.actions_per_second"), 1e-9)
	assert.InDelta(t, 200, store.GetFloat("crawl.max_pages"), 1e-9)
	assert.Equal(t, 300*time.Millisecond, store.GetDuration("crawl.scroll_pause"))

	// Wrong types and missing keys read as zero values.
	assert.Empty(t, store.GetString("crawl.max_pages"))
	assert.Zero(t, store.GetInt("crawl.postal_code"))
	assert.False(t, store.GetBool("crawl.postal_code"))
	assert.Zero(t, store.GetFloat("crawl.headless"))
	assert.Zero(t, store.GetDuration("crawl.postal_code"))
	assert.Zero(t, store.GetDuration("missing"))
	val, ok := store.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestConfigStore_Persistence(t *testing.T) {
	tmpDir := t.TempDir()
	store1, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store1.Set("storage.driver", "postgres"))
	require.NoError(t, store1.Set("crawl.stable_rounds", 5))
	require.NoError(t, store1.Set("crawl.load_images", false))
	require.NoError(t, store1.Set("crawl.actions_per_second", 2.0))

	store2, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "postgres", store2.GetString("storage.driver"))
	assert.Equal(t, 5, store2.GetInt("crawl.stable_rounds"))
	_, exists := store2.Get("crawl.load_images")
	assert.True(t, exists)
	assert.False(t, store2.GetBool("crawl.load_images"))
	assert.InDelta(t, 2.0, store2.GetFloat("crawl.actions_per_second"), 1e-9)
}

func TestConfigStore_WritesTables(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("crawl.headless", false))
	require.NoError(t, store.Set("storage.dsn", "postgres://localhost/baratazo"))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(data), "[crawl]")
	assert.Contains(t, string(data), "[storage]")
	assert.NotContains(t, string(data), "crawl.headless")
}

func TestConfigStore_ReadsHandWrittenFile(t *testing.T) {
	tmpDir := t.TempDir()
	content := []byte(`
# Baratazo settings
[crawl]
postal_code = "46001"
scroll_pause = "500ms"
actions_per_second = 3

[browser]
bin = "/usr/bin/chromium"
`)
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0600))

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, "46001", store.GetString("crawl.postal_code"))
	assert.Equal(t, 500*time.Millisecond, store.GetDuration("crawl.scroll_pause"))
	assert.InDelta(t, 3, store.GetFloat("crawl.actions_per_second"), 1e-9)
	assert.Equal(t, "/usr/bin/chromium", store.GetString("browser.bin"))
}

func TestConfigStore_FilePermissions(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("crawl.locale", "es-ES"))

	info, err := os.Stat(store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestConfigStore_EmptyOrCommentOnlyFile(t *testing.T) {
	for _, content := range []string{"", "# Just a comment\n\n"} {
		tmpDir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

		store, err := NewConfigStore(tmpDir)

		require.NoError(t, err)
		_, ok := store.Get("crawl.headless")
		assert.False(t, ok)
	}
}

func TestConfigStore_Concurrency(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			key := "crawl.key" + string(rune('0'+id))
			_ = store.Set(key, id)
			_ = store.GetInt(key)
			_ = store.GetString(key)
			_, _ = store.Get(key)
		}(i)
	}
	wg.Wait()
}

func TestNewConfigStore_MkdirAllError(t *testing.T) {
	store, err := NewConfigStore("/dev/null/cannot/create/dirs")

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestNewConfigStore_LoadCorruptedFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("this is not valid TOML {{{[["), 0600))

	store, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestConfigStore_Save_WriteFileError(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("crawl.locale", "es-ES"))

	// Replace the file with a directory so the write fails.
	require.NoError(t, os.Remove(store.Path()))
	require.NoError(t, os.Mkdir(store.Path(), 0700))

	assert.Error(t, store.Set("crawl.locale", "ca-ES"))
	assert.Error(t, store.Save())
}

func TestConfigStore_SetWithUnmarshallableValue(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Set("channel", make(chan int)))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	store.mu.Lock()
	store.data["crawl.only"] = []any{"lacteos", 3, "bebidas"}
	store.mu.Unlock()

	assert.Equal(t, []string{"lacteos", "bebidas"}, store.GetStringSlice("crawl.only"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestNestMap(t *testing.T) {
	flat := map[string]any{
		"crawl.headless":   true,
		"crawl.max_pages":  int64(10),
		"storage.dsn":      "x",
		"version":          int64(1),
		"version.extended": "quoted",
	}

	nested := nestMap(flat)

	assert.Equal(t, map[string]any{"headless": true, "max_pages": int64(10)}, nested["crawl"])
	assert.Equal(t, map[string]any{"dsn": "x"}, nested["storage"])
	assert.Equal(t, int64(1), nested["version"])
	assert.Equal(t, "quoted", nested["version.extended"])
	assert.Equal(t, flat, flattenMap(nested, ""))
}
