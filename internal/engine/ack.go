package engine

import (
	"context"
	"fmt"
	"sync"
)

// Ack is the one-shot outcome of a command. It resolves once, with nil on
// success or the reason for failure, and may stay pending forever when the
// server never answers.
type Ack struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newAck() *Ack {
	return &Ack{done: make(chan struct{})}
}

func failedAck(err error) *Ack {
	a := newAck()
	a.resolve(err)
	return a
}

func (a *Ack) resolve(err error) {
	if a == nil {
		return
	}
	a.once.Do(func() {
		a.err = err
		close(a.done)
	})
}

// Done is closed once the command has resolved.
func (a *Ack) Done() <-chan struct{} {
	return a.done
}

// Err returns ErrPending until the command resolves, then its outcome.
func (a *Ack) Err() error {
	select {
	case <-a.done:
		return a.err
	default:
		return ErrPending
	}
}

// Wait blocks until the command resolves or ctx is done.
func (a *Ack) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CommandError is a command the server answered with success=false.
type CommandError struct {
	Event   string
	Message string
}

func (e *CommandError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s rejected by server", e.Event)
	}
	return fmt.Sprintf("%s: %s", e.Event, e.Message)
}
