package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"impostord/game"
)

const tokenKeyPrefix = "resume:"
const connKeyPrefix = "resumeconn:"

// Binding is what a resume token redeems to.
type Binding struct {
	RoomID string `json:"room_id"`
	ConnID string `json:"conn_id"`
}

// Store keeps resume tokens in Redis so they survive process restarts.
// A token is strictly single-use: redemption removes it atomically, so two
// sockets racing on the same token cannot both win.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewStore(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Store {
	return &Store{rdb: rdb, ttl: ttl, logger: logger}
}

// Issue creates a fresh token for the connection, invalidating any token
// previously issued for it. Re-issuing on every (re)bind keeps exactly one
// live token per connection.
func (s *Store) Issue(ctx context.Context, roomID, connID string) (string, error) {
	token := uuid.New().String()
	payload, err := json.Marshal(Binding{RoomID: roomID, ConnID: connID})
	if err != nil {
		return "", err
	}

	connKey := connKeyPrefix + roomID + ":" + connID
	if old, err := s.rdb.Get(ctx, connKey).Result(); err == nil && old != "" {
		s.rdb.Del(ctx, tokenKeyPrefix+old)
	}

	if err := s.rdb.Set(ctx, tokenKeyPrefix+token, payload, s.ttl).Err(); err != nil {
		s.logger.Error("failed to store resume token", zap.Error(err))
		return "", err
	}
	if err := s.rdb.Set(ctx, connKey, token, s.ttl).Err(); err != nil {
		s.logger.Error("failed to store resume token reverse key", zap.Error(err))
		return "", err
	}
	return token, nil
}

// Redeem consumes a token. An unknown, expired or already-redeemed token
// fails closed with ErrInvalidToken.
func (s *Store) Redeem(ctx context.Context, token string) (Binding, error) {
	if token == "" {
		return Binding{}, game.ErrInvalidToken
	}
	payload, err := s.rdb.GetDel(ctx, tokenKeyPrefix+token).Result()
	if err == redis.Nil {
		return Binding{}, game.ErrInvalidToken
	}
	if err != nil {
		s.logger.Error("failed to redeem resume token", zap.Error(err))
		return Binding{}, err
	}
	var binding Binding
	if err := json.Unmarshal([]byte(payload), &binding); err != nil {
		s.logger.Error("corrupt resume token payload", zap.Error(err))
		return Binding{}, game.ErrInvalidToken
	}
	s.rdb.Del(ctx, connKeyPrefix+binding.RoomID+":"+binding.ConnID)
	return binding, nil
}

// Revoke drops any live token for the connection. Used on kick and leave.
func (s *Store) Revoke(ctx context.Context, roomID, connID string) {
	connKey := connKeyPrefix + roomID + ":" + connID
	token, err := s.rdb.Get(ctx, connKey).Result()
	if err == nil && token != "" {
		s.rdb.Del(ctx, tokenKeyPrefix+token)
	}
	s.rdb.Del(ctx, connKey)
}
