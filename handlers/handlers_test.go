package handlers

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"impostord/game"
	"impostord/models"
)

func TestErrorCodeMapping(t *testing.T) {
	cases := map[error]string{
		game.ErrRoomNotFound:    "room_not_found",
		game.ErrRoomFull:        "room_full",
		game.ErrInvalidToken:    "invalid_token",
		game.ErrNotHost:         "not_host",
		game.ErrNotAllReady:     "not_all_ready",
		game.ErrTooFewPlayers:   "too_few_players",
		game.ErrWrongPhase:      "wrong_phase",
		game.ErrNotYourTurn:     "not_your_turn",
		game.ErrAlreadyVoted:    "already_voted",
		game.ErrNotEligible:     "not_eligible",
		game.ErrInvalidSettings: "invalid_settings",
	}
	for err, code := range cases {
		assert.Equal(t, code, errorCode(err))
		// Wrapped errors keep their code.
		assert.Equal(t, code, errorCode(fmt.Errorf("context: %w", err)))
	}
	assert.Equal(t, "internal", errorCode(errors.New("boom")))
}

func TestErrorEventShape(t *testing.T) {
	ev := errorEvent(game.ErrNotYourTurn)
	assert.Equal(t, "error", ev["type"])
	assert.Equal(t, "not_your_turn", ev["code"])
	assert.NotEmpty(t, ev["message"])
}

func TestParseSettings(t *testing.T) {
	// JSON numbers decode as float64.
	msg := map[string]interface{}{
		"type":          "settings",
		"max_players":   float64(6),
		"turn_seconds":  float64(25),
		"vote_seconds":  float64(45),
		"grace_seconds": float64(90),
	}
	settings := parseSettings(msg)
	assert.Equal(t, 6, settings.MaxPlayers)
	assert.Equal(t, 25*time.Second, settings.TurnDuration)
	assert.Equal(t, 45*time.Second, settings.VoteDuration)
	assert.Equal(t, 90*time.Second, settings.Grace)
}

func TestDefaultSettings(t *testing.T) {
	settings := defaultSettings(models.Config{})
	assert.Equal(t, 8, settings.MaxPlayers)
	assert.Equal(t, 30*time.Second, settings.TurnDuration)
	assert.Equal(t, 60*time.Second, settings.VoteDuration)
	assert.Equal(t, 60*time.Second, settings.Grace)

	settings = defaultSettings(models.Config{MaxPlayers: 10, TurnSeconds: 15})
	assert.Equal(t, 10, settings.MaxPlayers)
	assert.Equal(t, 15*time.Second, settings.TurnDuration)
	assert.Equal(t, 60*time.Second, settings.VoteDuration)
}
