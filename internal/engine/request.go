package engine

import (
	"encoding/json"
	"fmt"

	"chat-client/internal/models"
)

// request emits a command from the loop and hands its decoded
// acknowledgement back to handle, also on the loop. A send that fails
// immediately is reported to handle before request returns. An answer that
// arrives after the session ended is reported as ErrSessionEnded.
func request[T any](e *Engine, event string, payload any, handle func(resp T, err error)) {
	gen := e.sessionGen
	err := e.transport.Emit(event, payload, func(data json.RawMessage) {
		var resp T
		decodeErr := json.Unmarshal(data, &resp)
		e.do(func() {
			switch {
			case gen != e.sessionGen:
				handle(resp, ErrSessionEnded)
			case decodeErr != nil:
				handle(resp, fmt.Errorf("decode %s ack: %w", event, decodeErr))
			default:
				handle(resp, nil)
			}
		})
	})
	if err != nil {
		var zero T
		handle(zero, fmt.Errorf("send %s: %w", event, err))
	}
}

// rejected turns a negative acknowledgement into a CommandError.
func rejected(event string, resp models.AckResponse) error {
	if resp.Success {
		return nil
	}
	return &CommandError{Event: event, Message: resp.Error}
}

// subscribe registers a push handler that decodes the payload on the
// transport goroutine and applies it on the loop. Events posted before the
// session that subscribed them ended are discarded.
func subscribe[T any](e *Engine, event string, handle func(T)) {
	gen := e.sessionGen
	off := e.transport.On(event, func(data json.RawMessage) {
		var payload T
		if len(data) > 0 {
			if err := json.Unmarshal(data, &payload); err != nil {
				e.log.Error("Dropping malformed %s event: %v", event, err)
				return
			}
		}
		e.do(func() {
			if gen != e.sessionGen {
				return
			}
			e.log.Debug("Received %s", event)
			handle(payload)
		})
	})
	e.offs = append(e.offs, off)
}
