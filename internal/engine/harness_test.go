package engine

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"chat-client/internal/clock"
	"chat-client/internal/models"
	"chat-client/internal/store"
	"chat-client/pkg/logger"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

type emitted struct {
	event   string
	payload any
	ack     func(json.RawMessage)
	acked   bool
}

// fakeTransport records commands and lets tests answer them and push events.
type fakeTransport struct {
	mu       sync.Mutex
	sent     []*emitted
	handlers map[string]map[int]func(json.RawMessage)
	nextID   int
	token    string
	emitErr  error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]map[int]func(json.RawMessage))}
}

func (f *fakeTransport) Emit(event string, payload any, ack func(json.RawMessage)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.emitErr != nil {
		return f.emitErr
	}
	f.sent = append(f.sent, &emitted{event: event, payload: payload, ack: ack})
	return nil
}

func (f *fakeTransport) On(event string, handler func(json.RawMessage)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	if f.handlers[event] == nil {
		f.handlers[event] = make(map[int]func(json.RawMessage))
	}
	f.handlers[event][id] = handler
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.handlers[event], id)
	}
}

func (f *fakeTransport) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeTransport) currentToken() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeTransport) failEmits(err error) {
	f.mu.Lock()
	f.emitErr = err
	f.mu.Unlock()
}

func (f *fakeTransport) handlerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, hs := range f.handlers {
		n += len(hs)
	}
	return n
}

// events lists the names of every command sent so far.
func (f *fakeTransport) events() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		names = append(names, s.event)
	}
	return names
}

func (f *fakeTransport) last(event string) *emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].event == event {
			return f.sent[i]
		}
	}
	return nil
}

// answer acknowledges the oldest unanswered command named event.
func (f *fakeTransport) answer(t *testing.T, event string, resp any) {
	t.Helper()

	f.mu.Lock()
	var target *emitted
	for _, s := range f.sent {
		if s.event == event && s.ack != nil && !s.acked {
			target = s
			break
		}
	}
	if target != nil {
		target.acked = true
	}
	f.mu.Unlock()

	require.NotNil(t, target, "no pending %s command", event)
	data, err := json.Marshal(resp)
	require.NoError(t, err)
	target.ack(data)
}

func (f *fakeTransport) push(t *testing.T, event string, payload any) {
	t.Helper()

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		data = raw
	}

	f.mu.Lock()
	var hs []func(json.RawMessage)
	for _, h := range f.handlers[event] {
		hs = append(hs, h)
	}
	f.mu.Unlock()

	for _, h := range hs {
		h(data)
	}
}

type recordingAlerter struct {
	mu     sync.Mutex
	alerts []string
}

func (a *recordingAlerter) Alert(title, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if title != "" {
		a.alerts = append(a.alerts, title)
		return
	}
	a.alerts = append(a.alerts, message)
}

func (a *recordingAlerter) all() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.alerts...)
}

type harness struct {
	t       *testing.T
	e       *Engine
	tr      *fakeTransport
	clk     *clock.Fake
	alerter *recordingAlerter
	logs    *observer.ObservedLogs
}

func newHarness(t *testing.T, configure ...func(*Options)) *harness {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{
		t:       t,
		tr:      newFakeTransport(),
		clk:     clock.NewFake(epoch),
		alerter: &recordingAlerter{},
		logs:    logs,
	}
	opts := Options{
		Clock:              h.clk,
		Logger:             logger.FromZap(zap.New(core)),
		Alerter:            h.alerter,
		RefreshOnReconnect: true,
	}
	for _, fn := range configure {
		fn(&opts)
	}
	h.e = New(h.tr, opts)

	ctx, cancel := context.WithCancel(context.Background())
	go h.e.Run(ctx)
	t.Cleanup(func() {
		cancel()
		h.e.Close()
	})
	return h
}

// sync waits until the loop has processed everything posted so far.
func (h *harness) sync() {
	h.t.Helper()
	require.NoError(h.t, h.e.View(func(store.Reader) {}))
}

func (h *harness) view(fn func(r store.Reader)) {
	h.t.Helper()
	require.NoError(h.t, h.e.View(fn))
}

func (h *harness) answer(event string, resp any) {
	h.t.Helper()
	h.tr.answer(h.t, event, resp)
	h.sync()
}

func (h *harness) push(event string, payload any) {
	h.t.Helper()
	h.tr.push(h.t, event, payload)
	h.sync()
}

func ok() models.AckResponse {
	return models.AckResponse{Success: true}
}

func fail(msg string) models.AckResponse {
	return models.AckResponse{Success: false, Error: msg}
}

// login completes a session for name with general in the room directory.
func (h *harness) login(name string, online ...string) {
	h.t.Helper()

	ack := h.e.Login(name)
	h.sync()
	h.answer(models.EventUserLogin, models.LoginResponse{
		AckResponse: ok(),
		User:        &models.User{Username: name},
		OnlineUsers: online,
	})
	require.NoError(h.t, ack.Err())

	h.answer(models.EventRoomsList, models.RoomsListResponse{
		AckResponse: ok(),
		Rooms:       []models.Room{{Name: "general", DisplayName: "General"}},
	})
}

// join makes room current with the given history.
func (h *harness) join(room string, history ...models.RoomMessage) {
	h.t.Helper()

	ack := h.e.JoinRoom(room)
	h.sync()
	h.answer(models.EventRoomJoin, models.JoinRoomResponse{AckResponse: ok(), Messages: history})
	require.NoError(h.t, ack.Err())
}

// openConversation makes the conversation with peer active.
func (h *harness) openConversation(peer string, history ...models.PrivateMessage) {
	h.t.Helper()

	ack := h.e.OpenConversation(peer)
	h.sync()
	h.answer(models.EventConversationGet, models.ConversationResponse{AckResponse: ok(), Messages: history})
	require.NoError(h.t, ack.Err())
}
