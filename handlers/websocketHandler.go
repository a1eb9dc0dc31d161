package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"impostord/auth"
	"impostord/broadcast"
	"impostord/game"
	"impostord/models"
	"impostord/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const pongWait = 60 * time.Second

// HandleWS upgrades the connection and binds it to a room: either as a
// fresh join (?room=&nick=, optionally &host_token=) or as a resume
// (?resume=<token>). Everything after the upgrade flows through the room's
// serialization point.
func HandleWS(c *gin.Context, registry *game.Registry, hub *broadcast.Hub, sessions *session.Store, upgrader websocket.Upgrader, logger *zap.Logger) {
	ctx := c.Request.Context()

	var room *game.Room
	var connID string
	resuming := false

	if token := c.Query("resume"); token != "" {
		binding, err := sessions.Redeem(ctx, token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errorCode(game.ErrInvalidToken)})
			return
		}
		room, err = registry.Get(binding.RoomID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": errorCode(err)})
			return
		}
		connID = binding.ConnID
		resuming = true
	} else {
		roomID := c.Query("room")
		var err error
		room, err = registry.Get(roomID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": errorCode(err)})
			return
		}
		connID = uuid.New().String()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := &models.Client{Conn: conn, ConnID: connID, RoomID: room.ID()}
	hub.Register(client)

	if resuming {
		err = room.Reconnect(connID)
	} else {
		asHost := false
		if t := c.Query("host_token"); t != "" {
			if roomID, perr := auth.ParseHostToken(t); perr == nil && roomID == room.ID() {
				asHost = true
			}
		}
		err = room.Join(connID, c.Query("nick"), asHost)
	}
	if err != nil {
		hub.Deliver([]string{connID}, errorEvent(err))
		hub.Unregister(connID, conn)
		conn.Close()
		return
	}

	// Every bind gets a fresh single-use resume token; the previous one,
	// if any, is invalidated by the store.
	resumeToken, err := sessions.Issue(ctx, room.ID(), connID)
	if err != nil {
		logger.Error("Failed to issue resume token", zap.Error(err))
	}
	hub.Deliver([]string{connID}, map[string]interface{}{
		"type":         "welcome",
		"conn_id":      connID,
		"resume_token": resumeToken,
		"state":        room.PrivateSnapshot(connID),
	})

	left := readLoop(conn, connID, room, hub, sessions, logger)

	if !hub.Unregister(connID, conn) {
		// A resume socket already replaced this one; the connection
		// identity is live there and the room must not see a disconnect.
		return
	}
	if left {
		// The request context is gone once the socket is; revoke with a
		// background context.
		sessions.Revoke(context.Background(), room.ID(), connID)
		room.Leave(connID)
		if room.Empty() {
			registry.Remove(room.ID())
		}
	} else {
		room.Disconnect(connID)
	}
}

// readLoop dispatches inbound messages until the socket dies or the client
// leaves. Returns true for an explicit leave.
func readLoop(conn *websocket.Conn, connID string, room *game.Room, hub *broadcast.Hub, sessions *session.Store, logger *zap.Logger) bool {
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return false
		}
		var msg map[string]interface{}
		if err := json.Unmarshal(data, &msg); err != nil {
			logger.Warn("undecodable client message", zap.String("connID", connID))
			continue
		}
		msgType, _ := msg["type"].(string)
		if msgType == "leave" {
			return true
		}
		if err := dispatch(msgType, msg, connID, room, hub, sessions); err != nil {
			hub.Deliver([]string{connID}, errorEvent(err))
		}
	}
}

func dispatch(msgType string, msg map[string]interface{}, connID string, room *game.Room, hub *broadcast.Hub, sessions *session.Store) error {
	switch msgType {
	case "ready":
		ready, _ := msg["ready"].(bool)
		return room.SetReady(connID, ready)
	case "settings":
		return room.UpdateSettings(connID, parseSettings(msg))
	case "start":
		return room.Start(connID)
	case "word":
		word, _ := msg["word"].(string)
		return room.SubmitWord(connID, word)
	case "vote":
		target, _ := msg["target"].(string)
		return room.CastVote(connID, target)
	case "guess":
		guess, _ := msg["guess"].(string)
		return room.SubmitGuess(connID, guess)
	case "kick":
		target, _ := msg["target"].(string)
		if err := room.Kick(connID, target); err != nil {
			return err
		}
		sessions.Revoke(context.Background(), room.ID(), target)
		return nil
	case "end":
		return room.EndGame(connID)
	case "lobby":
		return room.BackToLobby(connID)
	case "snapshot":
		hub.Deliver([]string{connID}, map[string]interface{}{
			"type":  "room_state",
			"state": room.PrivateSnapshot(connID),
		})
		return nil
	}
	return errors.New("unknown message type: " + msgType)
}

func parseSettings(msg map[string]interface{}) game.Settings {
	num := func(key string) int {
		v, _ := msg[key].(float64)
		return int(v)
	}
	return game.Settings{
		MaxPlayers:   num("max_players"),
		TurnDuration: time.Duration(num("turn_seconds")) * time.Second,
		VoteDuration: time.Duration(num("vote_seconds")) * time.Second,
		Grace:        time.Duration(num("grace_seconds")) * time.Second,
	}
}

func errorEvent(err error) map[string]interface{} {
	return map[string]interface{}{
		"type":    "error",
		"code":    errorCode(err),
		"message": err.Error(),
	}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return "room_not_found"
	case errors.Is(err, game.ErrRoomFull):
		return "room_full"
	case errors.Is(err, game.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, game.ErrNotHost):
		return "not_host"
	case errors.Is(err, game.ErrNotAllReady):
		return "not_all_ready"
	case errors.Is(err, game.ErrTooFewPlayers):
		return "too_few_players"
	case errors.Is(err, game.ErrWrongPhase):
		return "wrong_phase"
	case errors.Is(err, game.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, game.ErrAlreadyVoted):
		return "already_voted"
	case errors.Is(err, game.ErrNotEligible):
		return "not_eligible"
	case errors.Is(err, game.ErrInvalidSettings):
		return "invalid_settings"
	}
	return "internal"
}
