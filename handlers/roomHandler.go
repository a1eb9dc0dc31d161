package handlers

import (
	"net/http"
	"time"

	"impostord/auth"
	"impostord/game"
	"impostord/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type settingsRequest struct {
	MaxPlayers   int `json:"max_players"`
	TurnSeconds  int `json:"turn_seconds"`
	VoteSeconds  int `json:"vote_seconds"`
	GraceSeconds int `json:"grace_seconds"`
}

type roomCreateRequest struct {
	Name     string           `json:"name" binding:"required"`
	Settings *settingsRequest `json:"settings"`
}

// RoomCreate allocates a lobby and returns its id together with the host
// token the creator presents on join to claim the host seat.
func RoomCreate(c *gin.Context, registry *game.Registry, cfg models.Config, logger *zap.Logger) {
	var request roomCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		logger.Error("Room create request bind error", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settings := defaultSettings(cfg)
	if request.Settings != nil {
		settings = game.Settings{
			MaxPlayers:   request.Settings.MaxPlayers,
			TurnDuration: time.Duration(request.Settings.TurnSeconds) * time.Second,
			VoteDuration: time.Duration(request.Settings.VoteSeconds) * time.Second,
			Grace:        time.Duration(request.Settings.GraceSeconds) * time.Second,
		}
	}

	room, err := registry.Create(request.Name, settings)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errorCode(err)})
		return
	}

	hostToken, err := auth.GenerateHostToken(room.ID())
	if err != nil {
		logger.Error("Host token generation error", zap.Error(err))
		registry.Remove(room.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue host token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"room_id":    room.ID(),
		"host_token": hostToken,
	})
}

// RoomInfo returns the public snapshot of a room, e.g. for a join screen.
func RoomInfo(c *gin.Context, registry *game.Registry) {
	room, err := registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": errorCode(err)})
		return
	}
	c.JSON(http.StatusOK, room.PublicSnapshot())
}

func defaultSettings(cfg models.Config) game.Settings {
	settings := game.Settings{
		MaxPlayers:   8,
		TurnDuration: 30 * time.Second,
		VoteDuration: 60 * time.Second,
		Grace:        60 * time.Second,
	}
	if cfg.MaxPlayers > 0 {
		settings.MaxPlayers = cfg.MaxPlayers
	}
	if cfg.TurnSeconds > 0 {
		settings.TurnDuration = time.Duration(cfg.TurnSeconds) * time.Second
	}
	if cfg.VoteSeconds > 0 {
		settings.VoteDuration = time.Duration(cfg.VoteSeconds) * time.Second
	}
	if cfg.GraceSeconds > 0 {
		settings.Grace = time.Duration(cfg.GraceSeconds) * time.Second
	}
	return settings
}
