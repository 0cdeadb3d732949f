package secrets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticStore(t *testing.T) {
	store := Static(map[string]string{"TOKEN": "abc"})

	v, err := store.Get(context.Background(), "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "abc", v)

	_, err = store.Get(context.Background(), "MISSING")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEnvStore(t *testing.T) {
	t.Setenv("GANTRY_SECRET_TOKEN", "xyz")

	store := FromEnv("GANTRY_SECRET_")

	v, err := store.Get(context.Background(), "TOKEN")
	require.NoError(t, err)
	assert.Equal(t, "xyz", v)

	_, err = store.Get(context.Background(), "OTHER")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMultiStore(t *testing.T) {
	store := Multi(
		Static(map[string]string{"A": "first"}),
		Static(map[string]string{"A": "second", "B": "b"}),
	)

	v, err := store.Get(context.Background(), "A")
	require.NoError(t, err)
	assert.Equal(t, "first", v)

	v, err = store.Get(context.Background(), "B")
	require.NoError(t, err)
	assert.Equal(t, "b", v)

	_, err = store.Get(context.Background(), "C")
	assert.ErrorIs(t, err, ErrNotFound)
}
