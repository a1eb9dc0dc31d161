package models

import (
	"github.com/gorilla/websocket"
)

// Client is one websocket connection bound to a room.
type Client struct {
	Conn   *websocket.Conn
	ConnID string // stable connection identity, survives reconnects via resume token
	RoomID string
	Send   chan []byte // outbound mailbox drained by the write pump
}
