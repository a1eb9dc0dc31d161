package models

import (
	"gorm.io/gorm"
)

// MatchRecord archives one finished game.
type MatchRecord struct {
	gorm.Model
	RoomID       string `gorm:"not null;index"`
	RoomName     string
	Rounds       int
	Winner       string `gorm:"not null"` // "crew" or "impostor"
	Reason       string `gorm:"not null"`
	SecretWord   string
	WordCategory string
	ImpostorNick string
	PlayerCount  int
}
