package auth

import (
	"errors"
	"os"
	"time"

	jwt "github.com/dgrijalva/jwt-go"

	"impostord/models"
)

var jwtKey = func() []byte {
	if key := os.Getenv("JWT_KEY"); key != "" {
		return []byte(key)
	}
	return []byte("impostord-dev-key")
}()

const hostTokenTTL = 24 * time.Hour

// GenerateHostToken signs a credential proving the bearer created the room.
// It is returned by the room-creation endpoint and redeemed on join to
// claim the host seat.
func GenerateHostToken(roomID string) (string, error) {
	claims := &models.HostClaims{
		RoomID: roomID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(hostTokenTTL).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

// ParseHostToken validates a host token and returns the room it was issued
// for.
func ParseHostToken(tokenString string) (string, error) {
	claims := &models.HostClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return jwtKey, nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid host token")
	}
	return claims.RoomID, nil
}
