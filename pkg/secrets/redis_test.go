package secrets

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	redis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStoreFromClient(client)
}

func TestRedisStore_SetAndGet(t *testing.T) {
	store := newTestRedisStore(t)

	stored, err := store.Set(t.Context(), "api_key", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Version)

	got, err := store.Get(t.Context(), "api_key")
	require.NoError(t, err)
	assert.Equal(t, "api_key", got.Name)
	assert.Equal(t, "s3cret", got.Value)
	assert.Equal(t, 1, got.Version)
}

func TestRedisStore_SetBumpsVersion(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Set(t.Context(), "api_key", "first")
	require.NoError(t, err)

	rotated, err := store.Set(t.Context(), "api_key", "second")
	require.NoError(t, err)
	assert.Equal(t, 2, rotated.Version)

	got, err := store.Get(t.Context(), "api_key")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Value)
	assert.Equal(t, 2, got.Version)
}

func TestRedisStore_GetMissing(t *testing.T) {
	store := newTestRedisStore(t)

	_, err := store.Get(t.Context(), "unknown")
	assert.ErrorIs(t, err, ErrSecretNotFound)
}

func TestRedisStore_ListIsSorted(t *testing.T) {
	store := newTestRedisStore(t)

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := store.Set(t.Context(), name, "value")
		require.NoError(t, err)
	}

	names, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestRedisStore_ListEmpty(t *testing.T) {
	store := newTestRedisStore(t)

	names, err := store.List(t.Context())
	require.NoError(t, err)
	assert.Empty(t, names)
}
