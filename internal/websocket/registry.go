package websocket

import (
	"encoding/json"
	"sync"
)

type handlerEntry struct {
	id uint64
	fn func(json.RawMessage)
}

// registry routes inbound frames: pushes to the handlers registered for
// their event name, acknowledgements to the one-shot callback waiting on
// their ack id.
type registry struct {
	mu       sync.Mutex
	handlers map[string][]handlerEntry
	acks     map[uint64]func(json.RawMessage)
	nextID   uint64
	nextAck  uint64
}

func newRegistry() *registry {
	return &registry{
		handlers: make(map[string][]handlerEntry),
		acks:     make(map[uint64]func(json.RawMessage)),
	}
}

// on registers fn for event and returns its disposer. Calling the disposer
// more than once is harmless.
func (r *registry) on(event string, fn func(json.RawMessage)) func() {
	r.mu.Lock()
	r.nextID++
	id := r.nextID
	r.handlers[event] = append(r.handlers[event], handlerEntry{id: id, fn: fn})
	r.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { r.off(event, id) })
	}
}

func (r *registry) off(event string, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.handlers[event]
	for i, e := range entries {
		if e.id == id {
			r.handlers[event] = append(entries[:i:i], entries[i+1:]...)
			break
		}
	}
	if len(r.handlers[event]) == 0 {
		delete(r.handlers, event)
	}
}

// dispatch calls every handler of event in registration order, outside the
// lock so handlers may register or dispose.
func (r *registry) dispatch(event string, data json.RawMessage) int {
	r.mu.Lock()
	entries := append([]handlerEntry(nil), r.handlers[event]...)
	r.mu.Unlock()

	for _, e := range entries {
		e.fn(data)
	}
	return len(entries)
}

func (r *registry) handlerCount(event string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[event])
}

func (r *registry) expect(fn func(json.RawMessage)) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextAck++
	r.acks[r.nextAck] = fn
	return r.nextAck
}

func (r *registry) forget(id uint64) {
	r.mu.Lock()
	delete(r.acks, id)
	r.mu.Unlock()
}

// resolve delivers an acknowledgement at most once. Unknown ids are
// reported as false.
func (r *registry) resolve(id uint64, data json.RawMessage) bool {
	r.mu.Lock()
	fn, ok := r.acks[id]
	delete(r.acks, id)
	r.mu.Unlock()

	if !ok {
		return false
	}
	fn(data)
	return true
}

func (r *registry) pendingAcks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.acks)
}

func (r *registry) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[string][]handlerEntry)
	r.acks = make(map[uint64]func(json.RawMessage))
}
