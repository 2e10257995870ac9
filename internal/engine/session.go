package engine

import (
	"chat-client/internal/auth"
	"chat-client/internal/clock"
	"chat-client/internal/models"
)

func (e *Engine) startSession(user models.User, online []string) {
	if user.Token != "" {
		session, err := auth.ParseSessionToken(user.Token)
		if err != nil {
			e.log.Error("Ignoring session token: %v", err)
		} else {
			e.session = session
			e.setToken(session.Token)
		}
	}

	e.store.SetIdentity(models.User{Username: user.Username})
	e.store.SetConnected(true)
	e.store.SetOnlineUsers(online)
	e.attach()
	e.fetchRooms(nil)
	e.log.Info("Logged in as %s", user.Username)
}

// endSession detaches handlers, cancels every timer and clears the store.
// Work already queued for the old session is discarded when it runs.
func (e *Engine) endSession() {
	e.sessionGen++
	e.loggingIn = false
	e.detach()
	e.typing.Stop()
	e.stopExpiries()
	if e.session != nil {
		e.session = nil
		e.setToken("")
	}
	e.store.Reset()
}

func (e *Engine) setToken(token string) {
	if ts, ok := e.transport.(TokenSetter); ok {
		ts.SetToken(token)
	}
}

// typingEmitter sends local typing announcements for the debouncer.
type typingEmitter struct {
	e *Engine
}

func (t typingEmitter) StartTyping(scope models.Scope) {
	t.send(scope, models.EventTypingStart, models.EventTypingPrivateStart)
}

func (t typingEmitter) StopTyping(scope models.Scope) {
	t.send(scope, models.EventTypingStop, models.EventTypingPrivateStop)
}

func (t typingEmitter) send(scope models.Scope, roomEvent, privateEvent string) {
	event, payload := roomEvent, any(models.RoomTypingRequest{RoomName: scope.Key})
	if scope.Mode == models.ModePrivate {
		event, payload = privateEvent, models.PrivateTypingRequest{RecipientUsername: scope.Key}
	}
	if err := t.e.transport.Emit(event, payload, nil); err != nil {
		t.e.log.Debug("Failed to send %s for %s: %v", event, scope, err)
	}
}

type typingKey struct {
	scope models.Scope
	actor string
}

type expiry struct {
	timer clock.Timer
	gen   uint64
}

// setRemoteTyping records a remote typing indicator. With a typing expiry
// configured, an indicator whose stop never arrives is cleared once the
// expiry passes without a fresh start.
func (e *Engine) setRemoteTyping(scope models.Scope, actor string, typing bool) {
	e.store.SetTyping(scope, actor, typing)

	key := typingKey{scope: scope, actor: actor}
	if cur, ok := e.expiries[key]; ok {
		cur.timer.Stop()
		delete(e.expiries, key)
	}
	if !typing || e.opts.TypingExpiry <= 0 {
		return
	}

	e.expiryGen++
	gen := e.expiryGen
	timer := e.loopClock.AfterFunc(e.opts.TypingExpiry, func() {
		cur, ok := e.expiries[key]
		if !ok || cur.gen != gen {
			return
		}
		delete(e.expiries, key)
		e.store.SetTyping(key.scope, key.actor, false)
	})
	e.expiries[key] = &expiry{timer: timer, gen: gen}
}

func (e *Engine) stopExpiries() {
	for key, cur := range e.expiries {
		cur.timer.Stop()
		delete(e.expiries, key)
	}
}
