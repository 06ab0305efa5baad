package state

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/jeeves/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ core.StateStore = (*InMemoryStore)(nil)
	_ core.StateStore = (*FileStore)(nil)
	_ core.StateStore = (*PebbleStore)(nil)
)

var defaults = core.Defaults{
	Model:          "gpt-3.5-turbo",
	SystemPrompt:   "be a butler",
	ResponsePolicy: core.ResponsePolicy{Kind: core.RespondToEveryMessage},
}

func sampleSnapshot() *core.Snapshot {
	snap := core.EmptySnapshot()
	c, _ := snap.EnsureCommunity("g1", "c1", defaults)
	c.Activate("c2")
	c.Append("c1", core.Utterance{ExternalID: "m1", Speaker: "bertie", Text: "hello"})
	c.Append("c1", core.Utterance{Speaker: "Jeeves", Text: "Good morning, sir."})
	c.Cooldown = 3
	c.Debug = true
	c.ResponsePolicy = core.ResponsePolicy{Kind: core.RespondOnKeyword, Pattern: "tea"}
	c.RoleFilter = core.Filter{Listen: []string{"r1"}, Ignore: []string{"r2"}}
	c.UserFilter = core.Filter{Ignore: []string{"u9"}}
	return snap
}

type failingCodec struct{ JSONCodec }

func (failingCodec) Marshal(*core.Snapshot) ([]byte, error) {
	return nil, fmt.Errorf("boom")
}

func storesUnderTest(t *testing.T) map[string]core.StateStore {
	t.Helper()
	dir := t.TempDir()

	fileStore, err := NewFileStore(filepath.Join(dir, "state.json"))
	require.NoError(t, err)

	pebbleStore, err := OpenPebbleStore(filepath.Join(dir, "pebble"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = pebbleStore.Close() })

	return map[string]core.StateStore{
		"memory": NewInMemoryStore(),
		"file":   fileStore,
		"pebble": pebbleStore,
	}
}

func TestStores_LoadEmpty(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			snap := store.Load()
			require.NotNil(t, snap)
			assert.Empty(t, snap.Communities)
		})
	}
}

func TestStores_RoundTripAllFields(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleSnapshot()
			require.NoError(t, store.Save(want))
			assert.Equal(t, want, store.Load())
		})
	}
}

func TestStores_LoadReturnsIndependentCopies(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Save(sampleSnapshot()))

			first := store.Load()
			c, ok := first.Community("g1")
			require.True(t, ok)
			c.ClearLog("c1")

			second := store.Load()
			c2, _ := second.Community("g1")
			assert.Len(t, c2.Log("c1"), 2)
		})
	}
}

func TestInMemoryStore_EncodeFailurePersistsPlaceholder(t *testing.T) {
	store := NewInMemoryStore(func(o *Options) { o.Codec = failingCodec{} })
	err := store.Save(sampleSnapshot())
	require.ErrorIs(t, err, ErrEncode)
	assert.Empty(t, store.Raw())
	assert.Empty(t, store.Load().Communities)
}

func TestFileStore_EncodeFailureOverwritesWithPlaceholder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	good, err := NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, good.Save(sampleSnapshot()))

	broken, err := NewFileStore(path, func(o *Options) { o.Codec = failingCodec{} })
	require.NoError(t, err)
	require.ErrorIs(t, broken.Save(sampleSnapshot()), ErrEncode)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Empty(t, good.Load().Communities)
}

func TestFileStore_CorruptBlobLoadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store, err := NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Load().Communities)
}

func TestFileStore_RequiresPath(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestPebbleStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pebble")
	store, err := OpenPebbleStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(sampleSnapshot()))
	require.NoError(t, store.Close())

	reopened, err := OpenPebbleStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	c, ok := reopened.Load().Community("g1")
	require.True(t, ok)
	assert.Equal(t, uint32(3), c.Cooldown)
}

func TestJSONCodec_NormalisesNilCollections(t *testing.T) {
	snap, err := JSONCodec{}.Unmarshal([]byte(`{"guilds":{"g1":{"id":"g1"},"g2":null}}`))
	require.NoError(t, err)
	require.Len(t, snap.Communities, 1)
	c, ok := snap.Community("g1")
	require.True(t, ok)
	assert.NotNil(t, c.ConversationLog)
	assert.NotNil(t, c.ActiveChannels)
}

func TestEnsureCommunity(t *testing.T) {
	store := NewInMemoryStore()

	snap, c, err := EnsureCommunity(store, "g1", "c1", defaults)
	require.NoError(t, err)
	assert.True(t, c.IsActive("c1"))
	assert.Equal(t, "gpt-3.5-turbo", c.Model)
	_, ok := snap.Community("g1")
	assert.True(t, ok)

	persisted, ok := store.Load().Community("g1")
	require.True(t, ok)
	assert.Equal(t, []string{"c1"}, persisted.ActiveChannels)

	// second call is a no-op on existing state
	_, c, err = EnsureCommunity(store, "g1", "c9", defaults)
	require.NoError(t, err)
	assert.False(t, c.IsActive("c9"))
}
