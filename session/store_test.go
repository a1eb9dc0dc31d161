package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"impostord/game"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, time.Minute, zap.NewNop()), mr
}

func TestIssueAndRedeem(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	binding, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, Binding{RoomID: "ROOM1", ConnID: "conn-1"}, binding)
}

func TestTokenIsSingleUse(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)

	_, err = store.Redeem(ctx, token)
	require.NoError(t, err)

	// A second socket racing on the same token loses.
	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, game.ErrInvalidToken)
}

func TestRedeemUnknownToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Redeem(ctx, "no-such-token")
	assert.ErrorIs(t, err, game.ErrInvalidToken)

	_, err = store.Redeem(ctx, "")
	assert.ErrorIs(t, err, game.ErrInvalidToken)
}

func TestReissueInvalidatesPreviousToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	first, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)
	second, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = store.Redeem(ctx, first)
	assert.ErrorIs(t, err, game.ErrInvalidToken)

	binding, err := store.Redeem(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", binding.ConnID)
}

func TestTokensAreScopedPerConnection(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	t1, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)
	t2, err := store.Issue(ctx, "ROOM1", "conn-2")
	require.NoError(t, err)

	b1, err := store.Redeem(ctx, t1)
	require.NoError(t, err)
	assert.Equal(t, "conn-1", b1.ConnID)
	b2, err := store.Redeem(ctx, t2)
	require.NoError(t, err)
	assert.Equal(t, "conn-2", b2.ConnID)
}

func TestRevokeDropsToken(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)

	store.Revoke(ctx, "ROOM1", "conn-1")
	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, game.ErrInvalidToken)

	// Revoking again is harmless.
	store.Revoke(ctx, "ROOM1", "conn-1")
}

func TestTokenExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	token, err := store.Issue(ctx, "ROOM1", "conn-1")
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, game.ErrInvalidToken)
}
