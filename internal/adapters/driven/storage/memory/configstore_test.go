package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore(t *testing.T) {
	store := NewConfigStore()
	require.NotNil(t, store)
	assert.NotNil(t, store.values)
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("n8n.api_url", "https://n8n.example.com"))
	require.NoError(t, store.Set("n8n.api_url", "http://localhost:5678"))

	val, ok := store.Get("n8n.api_url")
	assert.True(t, ok)
	assert.Equal(t, "http://localhost:5678", val)

	_, ok = store.Get("nonexistent")
	assert.False(t, ok)
}

func TestConfigStore_TypeAssertions(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("string", "value")
	_ = store.Set("int", 42)
	_ = store.Set("int64", int64(43))
	_ = store.Set("float", 3.14)
	_ = store.Set("bool", true)
	_ = store.Set("strings", []string{"a", "b"})
	_ = store.Set("anys", []any{"c", 1, "d"})

	assert.Equal(t, "value", store.GetString("string"))
	assert.Equal(t, "", store.GetString("int"))

	assert.Equal(t, 42, store.GetInt("int"))
	assert.Equal(t, 43, store.GetInt("int64"))
	assert.Equal(t, 3, store.GetInt("float"))
	assert.Equal(t, 0, store.GetInt("string"))

	assert.True(t, store.GetBool("bool"))
	assert.False(t, store.GetBool("int"))

	assert.Equal(t, []string{"a", "b"}, store.GetStringSlice("strings"))
	assert.Equal(t, []string{"c", "d"}, store.GetStringSlice("anys"))
	assert.Nil(t, store.GetStringSlice("string"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_Keys(t *testing.T) {
	store := NewConfigStore()
	_ = store.Set("workflows.quark.path", "/work/quark.json")
	_ = store.Set("workflows.quark.id", "L6K4bzSKlGC36ABL")
	_ = store.Set("workflows.lepton.id", "Xq2wLepton000001")
	_ = store.Set("sync.debounce", "1s")

	assert.Equal(t, []string{
		"workflows.lepton.id",
		"workflows.quark.id",
		"workflows.quark.path",
	}, store.Keys("workflows."))
	assert.Len(t, store.Keys(""), 4)
	assert.Empty(t, store.Keys("history."))
}

func TestNewConfigStoreFrom(t *testing.T) {
	seed := map[string]any{"workflows.quark.id": "L6K4bzSKlGC36ABL"}
	store := NewConfigStoreFrom(seed)
	seed["workflows.quark.id"] = "changed"

	assert.Equal(t, "L6K4bzSKlGC36ABL", store.GetString("workflows.quark.id"))
	assert.Zero(t, store.Saves())
}

func TestConfigStore_SetPersists(t *testing.T) {
	store := NewConfigStore()
	require.NoError(t, store.Set("history.keep", int64(10)))

	require.NoError(t, store.Load())
	assert.Equal(t, 10, store.GetInt("history.keep"))
	assert.Equal(t, 1, store.Saves())
}

func TestConfigStore_LoadRestoresPersisted(t *testing.T) {
	store := NewConfigStoreFrom(map[string]any{"sync.debounce": "1s"})

	store.mu.Lock()
	store.values["sync.debounce"] = "5s"
	store.mu.Unlock()
	require.NoError(t, store.Load())
	assert.Equal(t, "1s", store.GetString("sync.debounce"))

	store.mu.Lock()
	store.values["sync.debounce"] = "5s"
	store.mu.Unlock()
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())
	assert.Equal(t, "5s", store.GetString("sync.debounce"))
	assert.Equal(t, 1, store.Saves())
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			_ = store.Set("workflows.w"+string(rune('a'+n))+".id", n)
		}(i)
		go func() {
			defer wg.Done()
			_ = store.Keys("workflows.")
		}()
	}
	wg.Wait()

	assert.Len(t, store.Keys("workflows."), 10)
}
