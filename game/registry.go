package game

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Room codes avoid ambiguous characters so they survive being read aloud.
const roomIDAlphabet = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"
const roomIDLength = 8

// Registry owns the live rooms. It is the only process-wide mutable state;
// each room keeps its own serialization point, so the registry lock is held
// only for the map itself, never during room mutations.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	rng    *rand.Rand
	rngMu  sync.Mutex
	sender Sender

	recorder Recorder
	logger   *zap.Logger
}

func NewRegistry(sender Sender, recorder Recorder, logger *zap.Logger) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sender:   sender,
		recorder: recorder,
		logger:   logger,
	}
}

// Create allocates a room in the lobby state and registers it.
func (g *Registry) Create(name string, settings Settings) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.newRoomID()
	for g.rooms[id] != nil {
		id = g.newRoomID()
	}
	room, err := NewRoom(id, name, settings, g.sender, g.recorder, g.logger)
	if err != nil {
		return nil, err
	}
	g.rooms[id] = room
	if g.logger != nil {
		g.logger.Info("room created", zap.String("roomID", id), zap.String("name", name))
	}
	return room, nil
}

// Get looks a room up by id.
func (g *Registry) Get(id string) (*Room, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// Remove tears a room down, cancelling its timer. Removing an unknown id
// is a no-op, so late callers are harmless.
func (g *Registry) Remove(id string) {
	g.mu.Lock()
	room, ok := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()
	if ok {
		room.Close()
		if g.logger != nil {
			g.logger.Info("room removed", zap.String("roomID", id))
		}
	}
}

// SweepIdle removes rooms with no connected players whose last activity is
// older than maxIdle. Returns how many were removed.
func (g *Registry) SweepIdle(maxIdle time.Duration) int {
	g.mu.RLock()
	candidates := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		candidates = append(candidates, room)
	}
	g.mu.RUnlock()

	removed := 0
	cutoff := time.Now().Add(-maxIdle)
	for _, room := range candidates {
		if idle := room.IdleSince(); !idle.IsZero() && idle.Before(cutoff) {
			g.Remove(room.ID())
			removed++
		}
	}
	return removed
}

// Len reports how many rooms are live.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}

func (g *Registry) newRoomID() string {
	g.rngMu.Lock()
	defer g.rngMu.Unlock()
	code := make([]byte, roomIDLength)
	for i := range code {
		code[i] = roomIDAlphabet[g.rng.Intn(len(roomIDAlphabet))]
	}
	return string(code)
}
