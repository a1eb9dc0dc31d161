package game

import (
	"sync"
	"time"
)

// TimerTag identifies what a running countdown is for.
type TimerTag string

const (
	TagTurn  TimerTag = "turn"
	TagGrace TimerTag = "grace"
	TagVote  TimerTag = "vote"
)

const tickPeriod = time.Second

// RoomTimer is the single countdown a room owns. Starting a new countdown
// replaces the previous one, so at most one can ever be live. Expiry and
// ticks are delivered through callbacks; the timer itself never touches
// room state, and a fire that lost the race against Pause/Cancel/Start is
// silently discarded via the generation counter.
type RoomTimer struct {
	mu       sync.Mutex
	gen      uint64
	tag      TimerTag
	deadline time.Time
	timer    *time.Timer

	expire func(tag TimerTag)
	tick   func(tag TimerTag, remaining time.Duration)
}

// NewRoomTimer creates a stopped timer. tick may be nil.
func NewRoomTimer(expire func(TimerTag), tick func(TimerTag, time.Duration)) *RoomTimer {
	return &RoomTimer{expire: expire, tick: tick}
}

// Start begins a countdown of d tagged tag, cancelling any previous one.
func (t *RoomTimer) Start(d time.Duration, tag TimerTag) {
	t.mu.Lock()
	t.stopLocked()
	t.gen++
	gen := t.gen
	t.tag = tag
	t.deadline = time.Now().Add(d)
	t.timer = time.AfterFunc(d, func() { t.fire(gen, tag) })
	t.mu.Unlock()

	if t.tick != nil {
		go t.runTicker(gen, tag)
	}
}

// Pause stops the countdown and returns the frozen remaining time.
// Returns zero if nothing was running.
func (t *RoomTimer) Pause() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return 0
	}
	t.stopLocked()
	t.gen++
	remaining := time.Until(t.deadline)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// Resume restarts a paused countdown with the frozen remaining time.
func (t *RoomTimer) Resume(remaining time.Duration, tag TimerTag) {
	t.Start(remaining, tag)
}

// Cancel stops the countdown. Safe to call repeatedly, and after Pause.
func (t *RoomTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.gen++
}

// Active reports the live countdown, if any.
func (t *RoomTimer) Active() (TimerTag, time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer == nil {
		return "", time.Time{}, false
	}
	return t.tag, t.deadline, true
}

func (t *RoomTimer) stopLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *RoomTimer) fire(gen uint64, tag TimerTag) {
	t.mu.Lock()
	if gen != t.gen {
		t.mu.Unlock()
		return
	}
	t.gen++
	t.timer = nil
	t.mu.Unlock()

	t.expire(tag)
}

func (t *RoomTimer) runTicker(gen uint64, tag TimerTag) {
	ticker := time.NewTicker(tickPeriod)
	defer ticker.Stop()
	for range ticker.C {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}
		remaining := time.Until(t.deadline)
		t.mu.Unlock()
		if remaining <= 0 {
			return
		}
		t.tick(tag, remaining)
	}
}
