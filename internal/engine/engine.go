// Package engine is the client's synchronization core. It turns user intents
// into server commands, folds acknowledgements and pushed events into the
// store, and drives local typing announcements.
//
// Every store mutation runs on a single goroutine, the loop started by Run.
// Transport callbacks, timer callbacks and public commands only post work to
// that loop, so handlers never interleave and readers observe whole updates.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"chat-client/internal/auth"
	"chat-client/internal/clock"
	"chat-client/internal/store"
	"chat-client/internal/typing"
	"chat-client/pkg/logger"
)

var (
	ErrClosed               = errors.New("engine closed")
	ErrPending              = errors.New("acknowledgement pending")
	ErrNotAuthenticated     = errors.New("not logged in")
	ErrAlreadyAuthenticated = errors.New("already logged in")
	ErrLoginInProgress      = errors.New("login already in progress")
	ErrSessionEnded         = errors.New("session ended before the server answered")
	ErrNoActiveScope        = errors.New("no room or conversation selected")
	ErrSelfConversation     = errors.New("cannot start a conversation with yourself")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrPeerRequired         = errors.New("username is required")
)

const actionQueueSize = 256

// Transport is the server connection as the engine needs it.
type Transport interface {
	// Emit sends a command; ack, when non-nil, receives the server's
	// acknowledgement at most once.
	Emit(event string, payload any, ack func(json.RawMessage)) error
	// On subscribes to a pushed event and returns its disposer.
	On(event string, handler func(json.RawMessage)) func()
}

// TokenSetter is implemented by transports that present a session token when
// they reconnect.
type TokenSetter interface {
	SetToken(token string)
}

// Alerter gets an out-of-band nudge when a private message arrives outside
// the conversation on screen.
type Alerter interface {
	Alert(title, message string)
}

type nopAlerter struct{}

func (nopAlerter) Alert(string, string) {}

type Options struct {
	Clock                clock.Clock
	Logger               *logger.Logger
	Alerter              Alerter
	TypingInterval       time.Duration
	TypingExpiry         time.Duration
	NotificationCapacity int
	RefreshOnReconnect   bool
}

type Engine struct {
	transport Transport
	clock     clock.Clock
	loopClock clock.Clock
	log       *logger.Logger
	alerter   Alerter
	opts      Options

	actions   chan func()
	changes   chan struct{}
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
	started   atomic.Bool

	// Owned by the loop.
	store      *store.Store
	typing     *typing.Debouncer
	session    *auth.Session
	sessionGen uint64
	loggingIn  bool
	offs       []func()
	expiries   map[typingKey]*expiry
	expiryGen  uint64
}

func New(transport Transport, opts Options) *Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Logger == nil {
		opts.Logger = logger.GlobalLogger
	}
	if opts.Alerter == nil {
		opts.Alerter = nopAlerter{}
	}

	e := &Engine{
		transport: transport,
		clock:     opts.Clock,
		log:       opts.Logger,
		alerter:   opts.Alerter,
		opts:      opts,
		actions:   make(chan func(), actionQueueSize),
		changes:   make(chan struct{}, 1),
		quit:      make(chan struct{}),
		stopped:   make(chan struct{}),
		expiries:  make(map[typingKey]*expiry),
	}
	e.loopClock = loopClock{Clock: opts.Clock, e: e}
	e.store = store.New(
		store.WithClock(opts.Clock),
		store.WithNotificationCapacity(opts.NotificationCapacity),
	)
	e.typing = typing.New(e.loopClock, opts.TypingInterval, typingEmitter{e})
	return e
}

// Run processes posted work until ctx is done or Close is called, then tears
// the session down. It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	e.started.Store(true)
	defer func() {
		e.endSession()
		e.closeOnce.Do(func() { close(e.quit) })
		close(e.stopped)
	}()

	for {
		select {
		case fn := <-e.actions:
			fn()
			e.notifyChange()
		case <-e.quit:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops the loop and waits for teardown when Run is active.
func (e *Engine) Close() {
	e.closeOnce.Do(func() { close(e.quit) })
	if e.started.Load() {
		<-e.stopped
	}
}

// View runs fn on the loop with read access to the store and waits for it.
// fn must not retain the Reader or call back into the engine.
func (e *Engine) View(fn func(store.Reader)) error {
	done := make(chan struct{})
	if !e.do(func() {
		fn(e.store)
		close(done)
	}) {
		return ErrClosed
	}

	select {
	case <-done:
		return nil
	case <-e.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrClosed
		}
	}
}

// Changes signals after the loop has processed work. Signals coalesce: a
// receive means at least one update happened since the previous one.
func (e *Engine) Changes() <-chan struct{} {
	return e.changes
}

func (e *Engine) notifyChange() {
	select {
	case e.changes <- struct{}{}:
	default:
	}
}

// do posts fn to the loop. It reports false once the engine is closed.
func (e *Engine) do(fn func()) bool {
	select {
	case <-e.quit:
		return false
	default:
	}

	select {
	case e.actions <- fn:
		return true
	case <-e.quit:
		return false
	}
}

// command posts fn with a fresh Ack, failing the Ack when the engine is
// already closed.
func (e *Engine) command(fn func(ack *Ack)) *Ack {
	ack := newAck()
	if !e.do(func() { fn(ack) }) {
		ack.resolve(ErrClosed)
	}
	return ack
}

func (e *Engine) authenticated() bool {
	_, ok := e.store.Identity()
	return ok
}

// loopClock delivers timer callbacks on the engine loop.
type loopClock struct {
	clock.Clock
	e *Engine
}

func (c loopClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	return c.Clock.AfterFunc(d, func() { c.e.do(f) })
}
