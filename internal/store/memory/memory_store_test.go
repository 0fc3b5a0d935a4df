package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docdesk/internal/port"
	"docdesk/internal/store/memory"
)

func TestMemoryStore_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, port.ErrKeyNotFound)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), got)

	require.NoError(t, s.Set(ctx, "a", []byte("2")))
	got, _ = s.Get(ctx, "a")
	assert.Equal(t, []byte("2"), got)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.ErrorIs(t, err, port.ErrKeyNotFound)
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()

	v := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", v))
	v[0] = 'x'

	got, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(got))
	got[1] = 'y'
	again, _ := s.Get(ctx, "k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_KeysAndClear(t *testing.T) {
	ctx := context.Background()
	s := memory.NewStore()
	for _, k := range []string{"job_2", "job_1", "list"} {
		require.NoError(t, s.Set(ctx, k, []byte("{}")))
	}

	keys, err := s.Keys(ctx, "job_")
	require.NoError(t, err)
	assert.Equal(t, []string{"job_1", "job_2"}, keys)

	all, _ := s.Keys(ctx, "")
	assert.Len(t, all, 3)

	require.NoError(t, s.Clear(ctx))
	all, _ = s.Keys(ctx, "")
	assert.Empty(t, all)
}
