package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"impostord/models"
)

// Phase is the room lifecycle state.
type Phase string

const (
	PhaseLobby  Phase = "lobby"
	PhaseActive Phase = "active"
	PhaseVoting Phase = "voting"
	PhaseEnded  Phase = "ended"
)

// TurnPhase is the state of the current speaking turn.
type TurnPhase string

const (
	TurnNone   TurnPhase = ""
	TurnActive TurnPhase = "active"
	TurnPaused TurnPhase = "paused"
)

// Role of a player once a game has started.
type Role string

const (
	RoleNone     Role = ""
	RoleCrew     Role = "crew"
	RoleImpostor Role = "impostor"
)

// TurnEndReason records how a turn slot in the word history was closed.
// Timeouts and grace skips both leave an empty word but stay
// distinguishable in the round summary.
type TurnEndReason string

const (
	ReasonSpoken  TurnEndReason = "spoken"
	ReasonTimeout TurnEndReason = "timeout"
	ReasonSkipped TurnEndReason = "skipped"
)

// MinPlayers is the minimum player count to start a game.
const MinPlayers = 3

// Settings are the per-room knobs, fixed at creation and adjustable by the
// host while in the lobby.
type Settings struct {
	MaxPlayers   int
	TurnDuration time.Duration
	VoteDuration time.Duration
	Grace        time.Duration
}

func (s Settings) validate() error {
	if s.MaxPlayers <= 0 || s.TurnDuration <= 0 || s.VoteDuration <= 0 || s.Grace <= 0 {
		return ErrInvalidSettings
	}
	return nil
}

// Player is one roster entry. The connection id is stable across socket
// reconnects; Connected tracks whether a live socket is currently bound.
type Player struct {
	ConnID        string
	Nickname      string
	Ready         bool
	Connected     bool
	Role          Role
	JoinedSeq     int
	GraceDeadline time.Time
	Skipped       bool // auto-skipped in the current round
}

// WordEntry is one closed turn slot in the word history.
type WordEntry struct {
	ConnID    string        `json:"conn_id"`
	Word      string        `json:"word"`
	Round     int           `json:"round"`
	TurnIndex int           `json:"turn_index"`
	Reason    TurnEndReason `json:"reason"`
}

// Result is the terminal outcome of a game.
type Result struct {
	Winner   string         `json:"winner"`
	Reason   string         `json:"reason"`
	VotedOut string         `json:"voted_out,omitempty"`
	Impostor string         `json:"impostor,omitempty"`
	Word     string         `json:"word,omitempty"`
	Tally    map[string]int `json:"tally,omitempty"`
}

// Recorder archives finished games. Called outside the room lock.
type Recorder interface {
	RecordMatch(rec models.MatchRecord)
}

// Room is one isolated game session. All state mutation goes through the
// single mutex; inbound actions and timer expiries are serialized in
// arrival order. Events are collected under the lock and delivered after
// it is released, so the room never blocks on the network.
type Room struct {
	mu sync.Mutex

	id       string
	name     string
	hostID   string
	settings Settings

	state Phase
	round int

	secretWord   string
	wordCategory string
	impostorID   string

	players map[string]*Player
	joinSeq int

	turnOrder       []string
	turnIndex       int
	turnPhase       TurnPhase
	turnDeadline    time.Time
	pausedRemaining time.Duration

	history []WordEntry

	voters       []string
	votes        map[string]string
	voteDeadline time.Time

	lastResult *Result

	timer    *RoomTimer
	rng      *rand.Rand
	sender   Sender
	recorder Recorder
	logger   *zap.Logger

	lastActivity  time.Time
	pendingRecord *models.MatchRecord
}

// NewRoom creates a room in the lobby state with no players yet.
func NewRoom(id, name string, settings Settings, sender Sender, recorder Recorder, logger *zap.Logger) (*Room, error) {
	if err := settings.validate(); err != nil {
		return nil, err
	}
	r := &Room{
		id:           id,
		name:         name,
		settings:     settings,
		state:        PhaseLobby,
		players:      make(map[string]*Player),
		votes:        make(map[string]string),
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		sender:       sender,
		recorder:     recorder,
		logger:       logger,
		lastActivity: time.Now(),
	}
	r.timer = NewRoomTimer(r.timerExpired, r.timerTick)
	return r, nil
}

// ID returns the room id.
func (r *Room) ID() string { return r.id }

// run serializes a mutation, then delivers the produced events and the
// pending match record with the lock released.
func (r *Room) run(fn func() ([]Event, error)) error {
	r.mu.Lock()
	events, err := fn()
	r.lastActivity = time.Now()
	record := r.pendingRecord
	r.pendingRecord = nil
	r.mu.Unlock()

	r.deliver(events)
	if record != nil && r.recorder != nil {
		r.recorder.RecordMatch(*record)
	}
	return err
}

// Join adds a fresh player under the given connection id. Only possible
// while the room is in the lobby: a game in progress has exactly one
// impostor and a fixed crew, and a roleless latecomer would break both the
// voter set and the turn order. asHost claims the host seat: the first
// joiner gets it regardless, and a holder of the creation credential can
// reclaim it while in the lobby.
func (r *Room) Join(connID, nickname string, asHost bool) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseLobby {
			return nil, ErrWrongPhase
		}
		if len(r.players) >= r.settings.MaxPlayers {
			return nil, ErrRoomFull
		}
		r.joinSeq++
		r.players[connID] = &Player{
			ConnID:    connID,
			Nickname:  nickname,
			Connected: true,
			JoinedSeq: r.joinSeq,
		}
		if r.hostID == "" || (asHost && r.state == PhaseLobby) {
			r.hostID = connID
		}
		return []Event{r.roomStateEvent()}, nil
	})
}

// Reconnect rebinds a previously known connection id after a successful
// resume-token redemption. If that player was the paused current turn
// holder, the turn resumes with the frozen remaining time.
func (r *Room) Reconnect(connID string) error {
	return r.run(func() ([]Event, error) {
		p, ok := r.players[connID]
		if !ok {
			return nil, ErrInvalidToken
		}
		p.Connected = true
		p.GraceDeadline = time.Time{}

		events := []Event{r.roomStateEvent()}
		if r.state != PhaseLobby && p.Role != RoleNone {
			events = append(events, Event{To: []string{connID}, Payload: evRole(p, r.secretWord)})
		}
		if r.state == PhaseActive && r.turnPhase == TurnPaused && r.currentTurnID() == connID {
			events = append(events, r.resumeTurnLocked()...)
		}
		return events, nil
	})
}

// SetReady flips the lobby ready flag.
func (r *Room) SetReady(connID string, ready bool) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseLobby {
			return nil, ErrWrongPhase
		}
		p, ok := r.players[connID]
		if !ok {
			return nil, ErrNotEligible
		}
		p.Ready = ready
		return []Event{r.roomStateEvent()}, nil
	})
}

// UpdateSettings replaces the room settings. Host only, lobby only.
func (r *Room) UpdateSettings(connID string, s Settings) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseLobby {
			return nil, ErrWrongPhase
		}
		if connID != r.hostID {
			return nil, ErrNotHost
		}
		if err := s.validate(); err != nil {
			return nil, err
		}
		r.settings = s
		return []Event{r.roomStateEvent()}, nil
	})
}

// Start begins the game: assigns the impostor and the secret word, builds
// a shuffled turn order from the connected players and opens round 1.
func (r *Room) Start(connID string) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseLobby {
			return nil, ErrWrongPhase
		}
		if connID != r.hostID {
			return nil, ErrNotHost
		}
		connected := r.connectedPlayersLocked()
		if len(connected) < MinPlayers {
			return nil, ErrTooFewPlayers
		}
		for _, p := range connected {
			if !p.Ready {
				return nil, ErrNotAllReady
			}
		}

		r.wordCategory, r.secretWord = pickWord(r.rng)
		r.impostorID = connected[r.rng.Intn(len(connected))].ConnID
		for _, p := range r.players {
			if p.ConnID == r.impostorID {
				p.Role = RoleImpostor
			} else {
				p.Role = RoleCrew
			}
		}

		r.state = PhaseActive
		r.round = 0
		r.history = nil
		r.lastResult = nil

		events := []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
			"type":    "game_started",
			"room_id": r.id,
		}}}
		for _, p := range connected {
			events = append(events, Event{To: []string{p.ConnID}, Payload: evRole(p, r.secretWord)})
		}
		events = append(events, r.beginRoundLocked()...)
		return events, nil
	})
}

// SubmitWord records the current turn holder's word and advances the turn.
func (r *Room) SubmitWord(connID, word string) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseActive || r.turnPhase != TurnActive {
			return nil, ErrWrongPhase
		}
		if r.currentTurnID() != connID {
			return nil, ErrNotYourTurn
		}
		word = strings.TrimSpace(word)
		events := []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
			"type":       "turn_word_submitted",
			"room_id":    r.id,
			"conn_id":    connID,
			"word":       word,
			"round":      r.round,
			"turn_index": r.turnIndex,
		}}}
		return append(events, r.advanceTurnLocked(word, ReasonSpoken)...), nil
	})
}

// CastVote records one vote. Voting resolves as soon as every eligible
// voter has cast, or when the vote timer expires.
func (r *Room) CastVote(connID, target string) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseVoting {
			return nil, ErrWrongPhase
		}
		if !r.isEligibleVoter(connID) {
			return nil, ErrNotEligible
		}
		if _, dup := r.votes[connID]; dup {
			return nil, ErrAlreadyVoted
		}
		if target != SkipTarget && !r.isEligibleVoter(target) {
			return nil, ErrNotEligible
		}
		r.votes[connID] = target

		events := []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
			"type":    "vote_cast",
			"room_id": r.id,
			"round":   r.round,
			"voter":   connID,
			"target":  target,
			"tally":   tallyVotes(r.votes, r.voters),
		}}}
		if len(r.votes) >= len(r.voters) {
			events = append(events, r.finalizeVotingLocked()...)
		}
		return events, nil
	})
}

// SubmitGuess lets the impostor guess the secret word, immediately ending
// the game either way. Comparison is case- and whitespace-insensitive.
func (r *Room) SubmitGuess(connID, guess string) error {
	return r.run(func() ([]Event, error) {
		if r.state != PhaseActive && r.state != PhaseVoting {
			return nil, ErrWrongPhase
		}
		if connID != r.impostorID {
			return nil, ErrNotEligible
		}
		correct := normalizeWord(guess) == normalizeWord(r.secretWord)
		result := &Result{
			Winner:   "crew",
			Reason:   "impostor_failed_guess",
			Impostor: r.impostorID,
			Word:     r.secretWord,
		}
		if correct {
			result.Winner = "impostor"
			result.Reason = "impostor_guessed"
		}
		return r.endGameLocked(result), nil
	})
}

// Kick removes a player from the room. Host only. Their resume token must
// be revoked by the caller; any current turn or pending vote they held is
// resolved the same way a grace timeout would.
func (r *Room) Kick(connID, target string) error {
	return r.run(func() ([]Event, error) {
		if connID != r.hostID {
			return nil, ErrNotHost
		}
		if _, ok := r.players[target]; !ok {
			return nil, ErrNotEligible
		}
		events := []Event{{To: []string{target}, Payload: map[string]interface{}{
			"type":    "kicked",
			"room_id": r.id,
		}}}
		return append(events, r.removePlayerLocked(target)...), nil
	})
}

// Leave removes a player for good. Unlike a disconnect it frees the turn
// slot for future rounds and cannot be resumed.
func (r *Room) Leave(connID string) error {
	return r.run(func() ([]Event, error) {
		if _, ok := r.players[connID]; !ok {
			return nil, ErrNotEligible
		}
		return r.removePlayerLocked(connID), nil
	})
}

// Disconnect marks a player's socket as gone. Nothing is destroyed: the
// roster entry stays, and if they held the active turn it pauses with a
// grace window for them to resume into.
func (r *Room) Disconnect(connID string) error {
	return r.run(func() ([]Event, error) {
		p, ok := r.players[connID]
		if !ok {
			return nil, nil // already removed, e.g. kicked
		}
		p.Connected = false

		var events []Event
		if connID == r.hostID {
			if next := r.nextHostLocked(connID); next != "" {
				r.hostID = next
			}
		}
		if r.state == PhaseActive && r.turnPhase == TurnActive && r.currentTurnID() == connID {
			events = append(events, r.pauseTurnLocked(p)...)
		}
		events = append(events, r.roomStateEvent())
		return events, nil
	})
}

// EndGame force-ends a running game. Host only.
func (r *Room) EndGame(connID string) error {
	return r.run(func() ([]Event, error) {
		if connID != r.hostID {
			return nil, ErrNotHost
		}
		if r.state != PhaseActive && r.state != PhaseVoting {
			return nil, ErrWrongPhase
		}
		return r.endGameLocked(&Result{Reason: "host_ended"}), nil
	})
}

// BackToLobby resets a finished room to the lobby, keeping the roster with
// ready flags cleared. Host only.
func (r *Room) BackToLobby(connID string) error {
	return r.run(func() ([]Event, error) {
		if connID != r.hostID {
			return nil, ErrNotHost
		}
		if r.state != PhaseEnded {
			return nil, ErrWrongPhase
		}
		r.state = PhaseLobby
		r.round = 0
		r.secretWord = ""
		r.wordCategory = ""
		r.impostorID = ""
		r.turnOrder = nil
		r.turnIndex = 0
		r.turnPhase = TurnNone
		r.history = nil
		r.voters = nil
		r.votes = make(map[string]string)
		r.lastResult = nil
		for _, p := range r.players {
			p.Ready = false
			p.Role = RoleNone
			p.Skipped = false
		}
		return []Event{r.roomStateEvent()}, nil
	})
}

// Close cancels the room timer. Called when the registry tears the room down.
func (r *Room) Close() {
	r.timer.Cancel()
}

// Empty reports whether no roster entries remain.
func (r *Room) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players) == 0
}

// IdleSince returns the last activity time if no player is connected, or
// the zero time while anyone is still online. The registry sweep uses it.
func (r *Room) IdleSince() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Connected {
			return time.Time{}
		}
	}
	return r.lastActivity
}

// --- timer callbacks ---

// timerExpired is invoked from the timer goroutine. It re-enters the
// serialization point like any other inbound action; an expiry whose tag no
// longer matches the room state lost a race and is a no-op.
func (r *Room) timerExpired(tag TimerTag) {
	_ = r.run(func() ([]Event, error) {
		switch tag {
		case TagTurn:
			if r.state != PhaseActive || r.turnPhase != TurnActive {
				return nil, nil
			}
			return r.advanceTurnLocked("", ReasonTimeout), nil
		case TagGrace:
			if r.state != PhaseActive || r.turnPhase != TurnPaused {
				return nil, nil
			}
			if p, ok := r.players[r.currentTurnID()]; ok {
				p.Skipped = true
				p.GraceDeadline = time.Time{}
			}
			return r.advanceTurnLocked("", ReasonSkipped), nil
		case TagVote:
			if r.state != PhaseVoting {
				return nil, nil
			}
			return r.finalizeVotingLocked(), nil
		}
		return nil, nil
	})
}

func (r *Room) timerTick(tag TimerTag, remaining time.Duration) {
	r.mu.Lock()
	ev := Event{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
		"type":      "turn_timer",
		"room_id":   r.id,
		"round":     r.round,
		"phase":     string(tag),
		"remaining": int(remaining.Round(time.Second).Seconds()),
	}}
	r.mu.Unlock()
	r.deliver([]Event{ev})
}

// --- locked helpers ---

func (r *Room) currentTurnID() string {
	if r.turnIndex < 0 || r.turnIndex >= len(r.turnOrder) {
		return ""
	}
	return r.turnOrder[r.turnIndex]
}

func (r *Room) isEligibleVoter(connID string) bool {
	for _, v := range r.voters {
		if v == connID {
			return true
		}
	}
	return false
}

func (r *Room) connectedPlayersLocked() []*Player {
	players := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected {
			players = append(players, p)
		}
	}
	sortPlayers(players)
	return players
}

func (r *Room) connectedIDsLocked() []string {
	players := r.connectedPlayersLocked()
	ids := make([]string, len(players))
	for i, p := range players {
		ids[i] = p.ConnID
	}
	return ids
}

// nextHostLocked picks the replacement host: the earliest-joined player
// still connected, excluding the leaving one.
func (r *Room) nextHostLocked(exclude string) string {
	best := ""
	bestSeq := 0
	for _, p := range r.players {
		if p.ConnID == exclude || !p.Connected {
			continue
		}
		if best == "" || p.JoinedSeq < bestSeq {
			best = p.ConnID
			bestSeq = p.JoinedSeq
		}
	}
	return best
}

// beginRoundLocked opens the next round with a freshly shuffled turn order
// over the players connected right now.
func (r *Room) beginRoundLocked() []Event {
	r.round++
	r.votes = make(map[string]string)
	r.voters = nil

	order := r.connectedIDsLocked()
	r.rng.Shuffle(len(order), func(i, j int) {
		order[i], order[j] = order[j], order[i]
	})
	r.turnOrder = order
	r.turnIndex = 0
	for _, p := range r.players {
		p.Skipped = false
	}
	if len(order) == 0 {
		return r.endGameLocked(&Result{Reason: "no_players_left"})
	}

	events := []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
		"type":          "round_started",
		"room_id":       r.id,
		"round":         r.round,
		"order":         order,
		"turn_duration": int(r.settings.TurnDuration.Seconds()),
	}}}
	return append(events, r.startTurnLocked()...)
}

// startTurnLocked opens the turn at the current index. A turn belonging to
// a disconnected player starts paused with the full duration frozen, so
// the slot is not skipped outright.
func (r *Room) startTurnLocked() []Event {
	if r.turnIndex < 0 || r.turnIndex >= len(r.turnOrder) {
		return r.failLocked("turn index out of range")
	}
	connID := r.turnOrder[r.turnIndex]
	p, ok := r.players[connID]
	if !ok {
		// Slot of a player who left or was kicked after the round began.
		return r.advanceTurnLocked("", ReasonSkipped)
	}

	events := []Event{{
		To:      r.connectedIDsLocked(),
		Payload: evTurnStarted(r.id, r.round, r.turnIndex, connID, int(r.settings.TurnDuration.Seconds())),
	}}
	if !p.Connected {
		r.turnPhase = TurnPaused
		r.pausedRemaining = r.settings.TurnDuration
		p.GraceDeadline = time.Now().Add(r.settings.Grace)
		r.timer.Start(r.settings.Grace, TagGrace)
		return append(events, r.turnPausedEvent(connID))
	}
	r.turnPhase = TurnActive
	r.turnDeadline = time.Now().Add(r.settings.TurnDuration)
	r.timer.Start(r.settings.TurnDuration, TagTurn)
	return events
}

// advanceTurnLocked closes the current turn slot with the given word (empty
// for timeouts and skips) and moves on, entering voting when the order is
// exhausted.
func (r *Room) advanceTurnLocked(word string, reason TurnEndReason) []Event {
	entry := WordEntry{
		ConnID:    r.currentTurnID(),
		Word:      word,
		Round:     r.round,
		TurnIndex: r.turnIndex,
		Reason:    reason,
	}
	r.history = append(r.history, entry)
	r.turnPhase = TurnNone
	r.timer.Cancel()

	events := []Event{{To: r.connectedIDsLocked(), Payload: evTurnEnded(r.id, entry)}}
	r.turnIndex++
	if r.turnIndex >= len(r.turnOrder) {
		return append(events, r.startVotingLocked()...)
	}
	return append(events, r.startTurnLocked()...)
}

func (r *Room) pauseTurnLocked(p *Player) []Event {
	remaining := r.timer.Pause()
	r.turnPhase = TurnPaused
	r.pausedRemaining = remaining
	p.GraceDeadline = time.Now().Add(r.settings.Grace)
	r.timer.Start(r.settings.Grace, TagGrace)
	return []Event{r.turnPausedEvent(p.ConnID)}
}

func (r *Room) resumeTurnLocked() []Event {
	connID := r.currentTurnID()
	remaining := r.pausedRemaining
	if remaining <= 0 {
		if p, ok := r.players[connID]; ok {
			p.Skipped = true
		}
		return r.advanceTurnLocked("", ReasonSkipped)
	}
	r.turnPhase = TurnActive
	r.turnDeadline = time.Now().Add(remaining)
	r.pausedRemaining = 0
	r.timer.Resume(remaining, TagTurn)
	return []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
		"type":       "turn_resumed",
		"room_id":    r.id,
		"round":      r.round,
		"turn_index": r.turnIndex,
		"conn_id":    connID,
		"remaining":  int(remaining.Round(time.Second).Seconds()),
	}}}
}

func (r *Room) turnPausedEvent(connID string) Event {
	return Event{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
		"type":       "turn_paused",
		"room_id":    r.id,
		"round":      r.round,
		"turn_index": r.turnIndex,
		"conn_id":    connID,
		"grace":      int(r.settings.Grace.Seconds()),
		"remaining":  int(r.pausedRemaining.Round(time.Second).Seconds()),
	}}
}

// startVotingLocked closes the round and opens voting with every currently
// connected player as an eligible voter.
func (r *Room) startVotingLocked() []Event {
	r.state = PhaseVoting
	r.turnPhase = TurnNone
	r.voters = r.connectedIDsLocked()
	r.votes = make(map[string]string)
	r.voteDeadline = time.Now().Add(r.settings.VoteDuration)
	r.timer.Start(r.settings.VoteDuration, TagVote)

	return []Event{
		{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
			"type":    "round_ended",
			"room_id": r.id,
			"round":   r.round,
		}},
		{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
			"type":          "voting_started",
			"room_id":       r.id,
			"round":         r.round,
			"voters":        r.voters,
			"vote_duration": int(r.settings.VoteDuration.Seconds()),
		}},
	}
}

// finalizeVotingLocked resolves the vote with the casts received so far.
func (r *Room) finalizeVotingLocked() []Event {
	r.timer.Cancel()
	tally := tallyVotes(r.votes, r.voters)

	target, ok := majorityTarget(tally, len(r.voters))
	if !ok {
		events := []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
			"type":    "voting_result",
			"room_id": r.id,
			"round":   r.round,
			"result": map[string]interface{}{
				"eliminated": nil,
				"reason":     "no_majority",
				"tally":      tally,
			},
		}}}
		r.state = PhaseActive
		return append(events, r.beginRoundLocked()...)
	}

	if target == r.impostorID {
		return r.endGameLocked(&Result{
			Winner:   "crew",
			Reason:   "impostor_eliminated",
			VotedOut: target,
			Impostor: r.impostorID,
			Word:     r.secretWord,
			Tally:    tally,
		})
	}

	// A crew member was voted out: they leave the game, and the impostor
	// wins outright once fewer than two crew remain.
	events := []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
		"type":    "voting_result",
		"room_id": r.id,
		"round":   r.round,
		"result": map[string]interface{}{
			"eliminated": target,
			"reason":     "crew_eliminated",
			"tally":      tally,
		},
	}}}
	delete(r.players, target)
	if r.hostID == target {
		if next := r.nextHostLocked(target); next != "" {
			r.hostID = next
		}
	}

	if r.crewCountLocked() < 2 {
		return append(events, r.endGameLocked(&Result{
			Winner:   "impostor",
			Reason:   "crew_eliminated",
			VotedOut: target,
			Impostor: r.impostorID,
			Word:     r.secretWord,
			Tally:    tally,
		})...)
	}
	r.state = PhaseActive
	return append(events, r.beginRoundLocked()...)
}

func (r *Room) crewCountLocked() int {
	count := 0
	for _, p := range r.players {
		if p.Role == RoleCrew {
			count++
		}
	}
	return count
}

// removePlayerLocked permanently removes a player (leave, kick or
// elimination) and resolves whatever they were holding: the host seat, the
// current turn, or an outstanding vote. History is never rewritten.
func (r *Room) removePlayerLocked(connID string) []Event {
	p, ok := r.players[connID]
	if !ok {
		return nil
	}
	wasImpostor := p.Role == RoleImpostor
	delete(r.players, connID)

	if r.hostID == connID {
		if next := r.nextHostLocked(connID); next != "" {
			r.hostID = next
		} else {
			// Nobody connected: hand the seat to the earliest-joined
			// roster entry so the invariant holds while the room exists.
			r.hostID = ""
			bestSeq := 0
			for _, q := range r.players {
				if r.hostID == "" || q.JoinedSeq < bestSeq {
					r.hostID = q.ConnID
					bestSeq = q.JoinedSeq
				}
			}
		}
	}

	events := []Event{}
	inGame := r.state == PhaseActive || r.state == PhaseVoting
	if inGame && wasImpostor {
		events = append(events, r.endGameLocked(&Result{
			Winner:   "crew",
			Reason:   "impostor_left",
			Impostor: connID,
			Word:     r.secretWord,
		})...)
		return append(events, r.roomStateEvent())
	}

	// The current round's turn order is never respliced: a departed
	// player's remaining slot auto-skips when reached, and future rounds
	// rebuild the order from the surviving roster.
	if r.state == PhaseActive {
		if r.currentTurnID() == connID {
			// Same path as a grace timeout.
			entry := WordEntry{ConnID: connID, Word: "", Round: r.round, TurnIndex: r.turnIndex, Reason: ReasonSkipped}
			r.history = append(r.history, entry)
			r.turnPhase = TurnNone
			r.timer.Cancel()
			events = append(events, Event{To: r.connectedIDsLocked(), Payload: evTurnEnded(r.id, entry)})
			r.turnIndex++
			if r.turnIndex >= len(r.turnOrder) {
				events = append(events, r.startVotingLocked()...)
			} else {
				events = append(events, r.startTurnLocked()...)
			}
		}
	} else if r.state == PhaseVoting {
		for i, v := range r.voters {
			if v == connID {
				r.voters = append(r.voters[:i], r.voters[i+1:]...)
				break
			}
		}
		delete(r.votes, connID)
		if len(r.voters) == 0 || len(r.votes) >= len(r.voters) {
			events = append(events, r.finalizeVotingLocked()...)
		}
	}

	if (r.state == PhaseActive || r.state == PhaseVoting) && r.crewCountLocked() < 2 {
		events = append(events, r.endGameLocked(&Result{
			Winner:   "impostor",
			Reason:   "crew_left",
			Impostor: r.impostorID,
			Word:     r.secretWord,
		})...)
	}

	return append(events, r.roomStateEvent())
}

// endGameLocked moves the room to Ended, stops the timer, stages the match
// record and resets ready flags for the next lobby.
func (r *Room) endGameLocked(result *Result) []Event {
	r.timer.Cancel()
	r.state = PhaseEnded
	r.turnPhase = TurnNone
	r.lastResult = result

	impostorNick := ""
	if p, ok := r.players[r.impostorID]; ok {
		impostorNick = p.Nickname
	}
	if result.Winner != "" {
		r.pendingRecord = &models.MatchRecord{
			RoomID:       r.id,
			RoomName:     r.name,
			Rounds:       r.round,
			Winner:       result.Winner,
			Reason:       result.Reason,
			SecretWord:   r.secretWord,
			WordCategory: r.wordCategory,
			ImpostorNick: impostorNick,
			PlayerCount:  len(r.players),
		}
	}
	for _, p := range r.players {
		p.Ready = false
	}

	return []Event{{To: r.connectedIDsLocked(), Payload: map[string]interface{}{
		"type":    "game_ended",
		"room_id": r.id,
		"result":  result,
	}}}
}

// failLocked handles an internal invariant violation: the room ends with a
// generic failure instead of wedging, and no other room is affected.
func (r *Room) failLocked(detail string) []Event {
	if r.logger != nil {
		r.logger.Error("room invariant violated, ending session",
			zap.String("roomID", r.id), zap.String("detail", detail))
	}
	return r.endGameLocked(&Result{Reason: "internal_error"})
}

func normalizeWord(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}
