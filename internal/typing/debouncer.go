// Package typing implements the local side of typing indicators: a
// per-scope Idle/Active machine that announces typing on the first
// keystroke and withdraws it after a quiet interval.
//
// A Debouncer is not safe for concurrent use. Timer callbacks are delivered
// through the Clock, so the owner must supply a clock whose callbacks run on
// the same goroutine as every other call (the engine wraps the real clock
// for that).
package typing

import (
	"time"

	"chat-client/internal/clock"
	"chat-client/internal/models"
)

const DefaultInterval = time.Second

// Emitter sends the typing commands for a scope.
type Emitter interface {
	StartTyping(scope models.Scope)
	StopTyping(scope models.Scope)
}

type state struct {
	timer clock.Timer
	gen   uint64
}

type Debouncer struct {
	clock    clock.Clock
	interval time.Duration
	emit     Emitter
	active   map[models.Scope]*state
	gen      uint64
}

func New(c clock.Clock, interval time.Duration, emit Emitter) *Debouncer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Debouncer{
		clock:    c,
		interval: interval,
		emit:     emit,
		active:   make(map[models.Scope]*state),
	}
}

// Keystroke moves scope to Active, emitting start when it was Idle, and
// restarts the quiet-interval timer.
func (d *Debouncer) Keystroke(scope models.Scope) {
	if scope.IsZero() {
		return
	}
	st, ok := d.active[scope]
	if !ok {
		st = &state{}
		d.active[scope] = st
		d.emit.StartTyping(scope)
	} else if st.timer != nil {
		st.timer.Stop()
	}

	d.gen++
	gen := d.gen
	st.gen = gen
	st.timer = d.clock.AfterFunc(d.interval, func() { d.elapsed(scope, gen) })
}

// Submit returns scope to Idle ahead of a message send, emitting stop if it
// was Active. It reports whether a stop was emitted.
func (d *Debouncer) Submit(scope models.Scope) bool {
	return d.idle(scope, true)
}

// Leave is called when scope stops being the one the user is composing in.
// A pending timer is cancelled and the stop is sent to scope right away.
func (d *Debouncer) Leave(scope models.Scope) bool {
	return d.idle(scope, true)
}

func (d *Debouncer) Active(scope models.Scope) bool {
	_, ok := d.active[scope]
	return ok
}

// Stop cancels every pending timer without emitting anything. Used at
// session teardown, when the transport may already be gone.
func (d *Debouncer) Stop() {
	for scope := range d.active {
		d.idle(scope, false)
	}
}

func (d *Debouncer) elapsed(scope models.Scope, gen uint64) {
	st, ok := d.active[scope]
	if !ok || st.gen != gen {
		return
	}
	delete(d.active, scope)
	d.emit.StopTyping(scope)
}

func (d *Debouncer) idle(scope models.Scope, emit bool) bool {
	st, ok := d.active[scope]
	if !ok {
		return false
	}
	if st.timer != nil {
		st.timer.Stop()
	}
	delete(d.active, scope)
	if emit {
		d.emit.StopTyping(scope)
	}
	return emit
}
