package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetDelete(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.Set(ctx, "k", []byte("v"), 0))
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, m.Delete(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryLazyExpiry(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return clock }

	require.NoError(t, m.Set(ctx, "session", []byte("x"), time.Minute))
	require.NoError(t, m.Set(ctx, "forever", []byte("y"), 0))

	_, err := m.Get(ctx, "session")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Minute)
	_, err = m.Get(ctx, "session")
	assert.ErrorIs(t, err, ErrNotFound, "key past its TTL must be gone without a janitor run")

	_, err = m.Get(ctx, "forever")
	assert.NoError(t, err, "zero TTL means no expiry")

	assert.Equal(t, 1, m.Len())
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	original := []byte("immutable")
	require.NoError(t, m.Set(ctx, "k", original, 0))

	original[0] = 'X'
	got, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "immutable", string(got), "store must not alias caller buffers")

	got[0] = 'Y'
	again, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "immutable", string(again), "readers must not corrupt stored values")
}

func TestSessionHelpers(t *testing.T) {
	m := NewMemory()
	defer m.Close()
	ctx := context.Background()

	rec := SessionRecord{
		SessionID:        "sess-1",
		Flags:            map[string]bool{"maintenance": true},
		OperatorID:       "op-1",
		OperatorVerified: true,
	}
	require.NoError(t, PutSession(ctx, m, rec, time.Hour))

	got, err := GetSession(ctx, m, "sess-1")
	require.NoError(t, err)
	assert.True(t, got.Flags["maintenance"])
	assert.True(t, got.OperatorVerified)
	assert.False(t, got.UpdatedAt.IsZero())

	_, err = GetSession(ctx, m, "sess-2")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, DeleteSession(ctx, m, "sess-1"))
	_, err = GetSession(ctx, m, "sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
