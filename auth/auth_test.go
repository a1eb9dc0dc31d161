package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostTokenRoundTrip(t *testing.T) {
	token, err := GenerateHostToken("ROOM1234")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	roomID, err := ParseHostToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ROOM1234", roomID)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := ParseHostToken("not-a-jwt")
	assert.Error(t, err)
}

func TestTokenIsRoomScoped(t *testing.T) {
	token, err := GenerateHostToken("ROOMAAAA")
	require.NoError(t, err)
	roomID, err := ParseHostToken(token)
	require.NoError(t, err)
	assert.NotEqual(t, "ROOMBBBB", roomID)
}
