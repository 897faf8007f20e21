package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, found, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, "k", "v"))
	got, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v", got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, found, _ = s.Get(ctx, "k")
	assert.False(t, found)
}

func TestMemoryStore_DeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, Prefix+"user:1:session:google", "a"))
	require.NoError(t, s.Set(ctx, Prefix+"user:1:profile", "b"))
	require.NoError(t, s.Set(ctx, Prefix+"user:2:profile", "c"))

	require.NoError(t, s.DeletePrefix(ctx, Prefix+"user:1:"))

	_, found, _ := s.Get(ctx, Prefix+"user:1:session:google")
	assert.False(t, found)
	_, found, _ = s.Get(ctx, Prefix+"user:1:profile")
	assert.False(t, found)
	_, found, _ = s.Get(ctx, Prefix+"user:2:profile")
	assert.True(t, found)
}
