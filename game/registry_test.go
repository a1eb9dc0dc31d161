package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(&fakeSender{}, &fakeRecorder{}, zap.NewNop())
}

func TestRegistryCreateAndGet(t *testing.T) {
	registry := newTestRegistry(t)

	room, err := registry.Create("table one", slowSettings)
	require.NoError(t, err)
	assert.Len(t, room.ID(), roomIDLength)
	for _, c := range room.ID() {
		assert.Contains(t, roomIDAlphabet, string(c))
	}

	got, err := registry.Get(room.ID())
	require.NoError(t, err)
	assert.Same(t, room, got)
	assert.Equal(t, 1, registry.Len())

	_, err = registry.Get("NOPE")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRegistryCreateRejectsBadSettings(t *testing.T) {
	registry := newTestRegistry(t)
	_, err := registry.Create("table one", Settings{})
	assert.ErrorIs(t, err, ErrInvalidSettings)
	assert.Zero(t, registry.Len())
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	registry := newTestRegistry(t)
	room, err := registry.Create("table one", slowSettings)
	require.NoError(t, err)

	registry.Remove(room.ID())
	registry.Remove(room.ID())
	assert.Zero(t, registry.Len())
}

func TestRegistryRoomIDsAreUnique(t *testing.T) {
	registry := newTestRegistry(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		room, err := registry.Create("t", slowSettings)
		require.NoError(t, err)
		assert.False(t, seen[room.ID()])
		seen[room.ID()] = true
	}
}

func TestSweepIdleSparesLiveAndFreshRooms(t *testing.T) {
	registry := newTestRegistry(t)

	// A room with a connected player is never idle.
	live, err := registry.Create("live", slowSettings)
	require.NoError(t, err)
	require.NoError(t, live.Join("c1", "ann", false))

	// A room everyone disconnected from goes idle.
	stale, err := registry.Create("stale", slowSettings)
	require.NoError(t, err)
	require.NoError(t, stale.Join("c2", "bo", false))
	require.NoError(t, stale.Disconnect("c2"))

	time.Sleep(20 * time.Millisecond)

	// A freshly created room has no connection yet but is not past the cutoff.
	fresh, err := registry.Create("fresh", slowSettings)
	require.NoError(t, err)

	removed := registry.SweepIdle(10 * time.Millisecond)

	assert.Equal(t, 1, removed)
	_, err = registry.Get(stale.ID())
	assert.ErrorIs(t, err, ErrRoomNotFound)
	_, err = registry.Get(live.ID())
	assert.NoError(t, err)
	_, err = registry.Get(fresh.ID())
	assert.NoError(t, err)
}
