package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anonchat/internal/structures"
	"anonchat/internal/testutil"
)

func newTestProfileStore(t *testing.T) ProfileStoreInterface {
	t.Helper()
	conf := &structures.Config{
		Storage: structures.StorageConfig{Dir: t.TempDir(), MessagesPerPage: 20},
		Chat:    structures.ChatConfig{DefaultName: "Anonymous"},
	}
	store, err := NewProfileStore(conf, &testutil.MockLogger{})
	require.NoError(t, err)
	return store
}

func TestCreateOrGet_NewProfile(t *testing.T) {
	store := newTestProfileStore(t)

	bundle := map[string]any{"userAgent": "Mozilla/5.0", "cores": float64(8)}
	profile, err := store.CreateOrGet("abc123", bundle)
	require.NoError(t, err)

	assert.Equal(t, "Anonymous", profile.Name)
	assert.NotZero(t, profile.Created)
	assert.Equal(t, "Mozilla/5.0", profile.Fingerprint["userAgent"])
}

func TestCreateOrGet_SecondCallDiscardsBundle(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.CreateOrGet("abc123", map[string]any{"userAgent": "original"})
	require.NoError(t, err)

	profile, err := store.CreateOrGet("abc123", map[string]any{"userAgent": "spoofed", "extra": "x"})
	require.NoError(t, err)

	assert.Equal(t, "original", profile.Fingerprint["userAgent"])
	assert.NotContains(t, profile.Fingerprint, "extra")
}

func TestCreateOrGet_IdempotentAcrossNameChange(t *testing.T) {
	store := newTestProfileStore(t)

	_, err := store.CreateOrGet("abc123", map[string]any{})
	require.NoError(t, err)
	_, err = store.UpdateName("abc123", "Alice")
	require.NoError(t, err)

	profile, err := store.CreateOrGet("abc123", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
}

func TestGet_Unknown(t *testing.T) {
	store := newTestProfileStore(t)
	_, err := store.Get("missing")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestUpdateName_PersistsImmediately(t *testing.T) {
	store := newTestProfileStore(t)
	_, err := store.CreateOrGet("abc123", map[string]any{})
	require.NoError(t, err)

	updated, err := store.UpdateName("abc123", "Новое имя")
	require.NoError(t, err)
	assert.Equal(t, "Новое имя", updated.Name)

	got, err := store.Get("abc123")
	require.NoError(t, err)
	assert.Equal(t, "Новое имя", got.Name)
}

func TestUpdateName_Unknown(t *testing.T) {
	store := newTestProfileStore(t)
	_, err := store.UpdateName("missing", "Alice")
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestCount(t *testing.T) {
	store := newTestProfileStore(t)
	assert.Equal(t, 0, store.Count())

	_, err := store.CreateOrGet("a1", map[string]any{})
	require.NoError(t, err)
	_, err = store.CreateOrGet("b2", map[string]any{})
	require.NoError(t, err)
	_, err = store.CreateOrGet("a1", map[string]any{})
	require.NoError(t, err)

	assert.Equal(t, 2, store.Count())
}
