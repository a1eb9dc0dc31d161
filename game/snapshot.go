package game

import (
	"sort"
)

// Snapshots are role-scoped renderings of room state. The public view never
// reveals a role or the secret word; the private view adds the recipient's
// own role and, for crew only, the word. Deadlines are absolute unix
// timestamps, so rendering the same state twice yields identical output.

// PublicSnapshot renders the view every participant may see.
func (r *Room) PublicSnapshot() map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.publicSnapshotLocked()
}

// PrivateSnapshot renders the view for one connection. Unknown connections
// get the public view.
func (r *Room) PrivateSnapshot(connID string) map[string]interface{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := r.publicSnapshotLocked()
	p, ok := r.players[connID]
	if !ok {
		return snapshot
	}
	you := map[string]interface{}{
		"conn_id":  p.ConnID,
		"nickname": p.Nickname,
		"role":     string(p.Role),
	}
	if p.Role == RoleCrew {
		you["word"] = r.secretWord
	}
	snapshot["you"] = you
	return snapshot
}

func (r *Room) publicSnapshotLocked() map[string]interface{} {
	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	sortPlayers(players)

	roster := make([]map[string]interface{}, len(players))
	for i, p := range players {
		roster[i] = map[string]interface{}{
			"conn_id":   p.ConnID,
			"nickname":  p.Nickname,
			"ready":     p.Ready,
			"connected": p.Connected,
			"skipped":   p.Skipped,
		}
	}

	snapshot := map[string]interface{}{
		"room_id": r.id,
		"name":    r.name,
		"state":   string(r.state),
		"round":   r.round,
		"host":    r.hostID,
		"settings": map[string]interface{}{
			"max_players":   r.settings.MaxPlayers,
			"turn_seconds":  int(r.settings.TurnDuration.Seconds()),
			"vote_seconds":  int(r.settings.VoteDuration.Seconds()),
			"grace_seconds": int(r.settings.Grace.Seconds()),
		},
		"players": roster,
		"history": r.historySnapshotLocked(),
	}

	if r.state == PhaseActive {
		turn := map[string]interface{}{
			"order": append([]string(nil), r.turnOrder...),
			"index": r.turnIndex,
			"phase": string(r.turnPhase),
		}
		switch r.turnPhase {
		case TurnActive:
			turn["deadline"] = r.turnDeadline.Unix()
		case TurnPaused:
			turn["paused_remaining"] = int(r.pausedRemaining.Seconds())
			if p, ok := r.players[r.currentTurnID()]; ok && !p.GraceDeadline.IsZero() {
				turn["grace_deadline"] = p.GraceDeadline.Unix()
			}
		}
		snapshot["turn"] = turn
	}

	if r.state == PhaseVoting {
		snapshot["voting"] = map[string]interface{}{
			"voters":   append([]string(nil), r.voters...),
			"votes":    copyVotes(r.votes),
			"tally":    tallyVotes(r.votes, r.voters),
			"deadline": r.voteDeadline.Unix(),
		}
	}

	if r.lastResult != nil {
		snapshot["result"] = r.lastResult
	}
	return snapshot
}

func (r *Room) historySnapshotLocked() []WordEntry {
	if r.history == nil {
		return []WordEntry{}
	}
	return append([]WordEntry(nil), r.history...)
}

func (r *Room) roomStateEvent() Event {
	return Event{
		To: r.connectedIDsLocked(),
		Payload: map[string]interface{}{
			"type":  "room_state",
			"state": r.publicSnapshotLocked(),
		},
	}
}

func sortPlayers(players []*Player) {
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinedSeq < players[j].JoinedSeq
	})
}

func copyVotes(votes map[string]string) map[string]string {
	out := make(map[string]string, len(votes))
	for k, v := range votes {
		out[k] = v
	}
	return out
}
