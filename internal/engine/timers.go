package engine

import (
	"sync"
	"time"
)

// Timer names used by the engine. "turn" and "countdown" are
// phase-scoped; "inactivity" and "empty" are session-scoped and
// survive round resets.
const (
	TimerCountdown  = "countdown"
	TimerAccept     = "accept"
	TimerTurn       = "turn"
	TimerMove       = "move"
	TimerCooldown   = "cooldown"
	TimerInactivity = "inactivity"
	TimerEmpty      = "empty"
)

// timerSet holds the named deferred callbacks of one session. Arming a
// name cancels any live timer of that name, so a session can never
// carry two live timers with the same name. Each arm bumps a
// generation counter; a callback delivers its generation so a firing
// that lost the race against a re-arm or cancel is recognizably stale.
type timerSet struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	gens   map[string]uint64
}

func newTimerSet() *timerSet {
	return &timerSet{
		timers: make(map[string]*time.Timer),
		gens:   make(map[string]uint64),
	}
}

// Arm schedules fn(gen) after d, replacing any live timer of the same
// name.
func (ts *timerSet) Arm(name string, d time.Duration, fn func(gen uint64)) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.timers[name]; ok {
		t.Stop()
	}
	ts.gens[name]++
	gen := ts.gens[name]
	ts.timers[name] = time.AfterFunc(d, func() { fn(gen) })
}

// Cancel stops the named timer. A callback already in flight will be
// treated as stale by the generation check.
func (ts *timerSet) Cancel(name string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if t, ok := ts.timers[name]; ok {
		t.Stop()
		delete(ts.timers, name)
	}
	ts.gens[name]++
}

// CancelAll stops every live timer. Called on session close.
func (ts *timerSet) CancelAll() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	for name, t := range ts.timers {
		t.Stop()
		delete(ts.timers, name)
		ts.gens[name]++
	}
}

// current reports whether gen is the live generation for name.
func (ts *timerSet) current(name string, gen uint64) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.gens[name] == gen
}
