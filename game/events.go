package game

// Event is one outbound message produced by the room. To is the explicit
// recipient list, computed while the room lock is held; delivery happens
// after the lock is released.
type Event struct {
	To      []string
	Payload map[string]interface{}
}

// Sender fans events out to connections. Implementations must not block;
// the room calls Deliver outside its own lock but from request goroutines.
type Sender interface {
	Deliver(to []string, payload map[string]interface{})
}

func (r *Room) deliver(events []Event) {
	if r.sender == nil {
		return
	}
	for _, ev := range events {
		r.sender.Deliver(ev.To, ev.Payload)
	}
}

// Event constructors. Names follow the wire vocabulary the clients consume.

func evRole(p *Player, word string) map[string]interface{} {
	payload := map[string]interface{}{
		"type": "role",
		"role": string(p.Role),
	}
	if p.Role == RoleCrew {
		payload["word"] = word
	} else {
		payload["message"] = "you are the impostor"
	}
	return payload
}

func evTurnStarted(roomID string, round, turnIndex int, connID string, duration int) map[string]interface{} {
	return map[string]interface{}{
		"type":          "turn_started",
		"room_id":       roomID,
		"round":         round,
		"turn_index":    turnIndex,
		"conn_id":       connID,
		"turn_duration": duration,
	}
}

func evTurnEnded(roomID string, entry WordEntry) map[string]interface{} {
	return map[string]interface{}{
		"type":       "turn_ended",
		"room_id":    roomID,
		"round":      entry.Round,
		"turn_index": entry.TurnIndex,
		"conn_id":    entry.ConnID,
		"reason":     string(entry.Reason),
	}
}
