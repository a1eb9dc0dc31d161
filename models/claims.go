package models

import (
	jwt "github.com/dgrijalva/jwt-go"
)

// HostClaims is the JWT payload issued on room creation. Presenting it on
// the first join claims the host seat for that room.
type HostClaims struct {
	RoomID string `json:"room_id"`
	jwt.StandardClaims
}
