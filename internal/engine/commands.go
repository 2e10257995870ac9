package engine

import (
	"strings"

	"github.com/google/uuid"

	"chat-client/internal/auth"
	"chat-client/internal/models"
	"chat-client/internal/services"
)

// provisionalPrefix marks ids minted locally for messages the server has not
// acknowledged yet.
const provisionalPrefix = "temp-"

// Login validates the username and asks the server for a session. On success
// the identity and presence snapshot are stored, push subscriptions are
// attached and the room directory is fetched.
func (e *Engine) Login(username string) *Ack {
	name, err := auth.ValidateUsername(username)
	if err != nil {
		return failedAck(err)
	}

	return e.command(func(ack *Ack) {
		if e.authenticated() {
			ack.resolve(ErrAlreadyAuthenticated)
			return
		}
		if e.loggingIn {
			ack.resolve(ErrLoginInProgress)
			return
		}

		e.loggingIn = true
		request(e, models.EventUserLogin, models.LoginRequest{Username: name}, func(resp models.LoginResponse, err error) {
			e.loggingIn = false
			if err == nil {
				err = rejected(models.EventUserLogin, resp.AckResponse)
			}
			if err != nil {
				e.log.Error("Login as %s failed: %v", name, err)
				ack.resolve(err)
				return
			}

			user := models.User{Username: name}
			if resp.User != nil && resp.User.Username != "" {
				user = *resp.User
			}
			e.startSession(user, resp.OnlineUsers)
			ack.resolve(nil)
		})
	})
}

// Logout ends the session locally: subscriptions are detached, timers are
// cancelled and the store is cleared.
func (e *Engine) Logout() *Ack {
	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		name := e.store.Username()
		e.endSession()
		e.log.Info("Logged out %s", name)
		ack.resolve(nil)
	})
}

// FetchRooms replaces the room directory with the server's list.
func (e *Engine) FetchRooms() *Ack {
	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		e.fetchRooms(ack)
	})
}

// JoinRoom makes roomName the current room and loads its history. Joining
// the room that is already current only switches the view back to it.
func (e *Engine) JoinRoom(roomName string) *Ack {
	name := strings.TrimSpace(roomName)
	if name == "" {
		return failedAck(services.ErrRoomNameRequired)
	}

	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		e.enterRoom(name, ack)
	})
}

// CreateRoom creates a room and, once the server confirms it, joins it. The
// returned Ack resolves with the outcome of the join.
func (e *Engine) CreateRoom(roomName, displayName string) *Ack {
	req, err := services.NewCreateRoomRequest(roomName, displayName)
	if err != nil {
		return failedAck(err)
	}

	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}

		request(e, models.EventRoomCreate, req, func(resp models.CreateRoomResponse, err error) {
			if err == nil {
				err = rejected(models.EventRoomCreate, resp.AckResponse)
			}
			if err != nil {
				e.log.Error("Failed to create room %s: %v", req.RoomName, err)
				ack.resolve(err)
				return
			}

			room := models.Room{Name: req.RoomName, DisplayName: req.DisplayName}
			if resp.Room != nil && resp.Room.Name != "" {
				room = *resp.Room
			}
			e.store.UpsertRoom(room)
			e.enterRoom(room.Name, ack)
		})
	})
}

// SendRoomMessage sends content to roomName. Nothing is stored locally; the
// message appears when the server broadcasts it back.
func (e *Engine) SendRoomMessage(roomName, content string) *Ack {
	room := strings.TrimSpace(roomName)
	if room == "" {
		return failedAck(services.ErrRoomNameRequired)
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return failedAck(ErrEmptyMessage)
	}

	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		e.sendRoomMessage(room, text, ack)
	})
}

// SendPrivateMessage appends an optimistic entry to the conversation with
// peer and sends it. The acknowledgement reconciles that entry in place; if
// the send fails the entry stays pending and the Ack carries the error.
func (e *Engine) SendPrivateMessage(peer, content string) *Ack {
	to := strings.TrimSpace(peer)
	if to == "" {
		return failedAck(ErrPeerRequired)
	}
	text := strings.TrimSpace(content)
	if text == "" {
		return failedAck(ErrEmptyMessage)
	}

	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		e.sendPrivateMessage(to, text, ack)
	})
}

// Submit sends content to whatever is active: the current room in room mode,
// the active conversation in private mode.
func (e *Engine) Submit(content string) *Ack {
	text := strings.TrimSpace(content)
	if text == "" {
		return failedAck(ErrEmptyMessage)
	}

	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}

		scope := e.store.ActiveScope()
		switch {
		case scope.IsZero():
			ack.resolve(ErrNoActiveScope)
		case scope.Mode == models.ModePrivate:
			e.sendPrivateMessage(scope.Key, text, ack)
		default:
			e.sendRoomMessage(scope.Key, text, ack)
		}
	})
}

// OpenConversation loads the history with peer and makes it the active
// conversation.
func (e *Engine) OpenConversation(peer string) *Ack {
	name := strings.TrimSpace(peer)
	if name == "" {
		return failedAck(ErrPeerRequired)
	}

	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		if name == e.store.Username() {
			ack.resolve(ErrSelfConversation)
			return
		}

		req := models.ConversationRequest{Username: name}
		request(e, models.EventConversationGet, req, func(resp models.ConversationResponse, err error) {
			if err == nil {
				err = rejected(models.EventConversationGet, resp.AckResponse)
			}
			if err != nil {
				e.log.Error("Failed to load conversation with %s: %v", name, err)
				ack.resolve(err)
				return
			}

			if dropped := e.store.SetPrivateMessages(name, resp.Messages); dropped > 0 {
				e.log.Error("Dropped %d messages not involving %s", dropped, name)
			}
			e.switchScope(models.PrivateScope(name))
			ack.resolve(nil)
		})
	})
}

// ShowRooms leaves private mode and returns to the current room.
func (e *Engine) ShowRooms() *Ack {
	return e.command(func(ack *Ack) {
		if !e.authenticated() {
			ack.resolve(ErrNotAuthenticated)
			return
		}
		e.switchScope(models.RoomScope(e.store.CurrentRoom()))
		ack.resolve(nil)
	})
}

// Keystroke records local typing in the active scope.
func (e *Engine) Keystroke() {
	e.do(func() {
		if !e.authenticated() {
			return
		}
		e.typing.Keystroke(e.store.ActiveScope())
	})
}

func (e *Engine) fetchRooms(ack *Ack) {
	request(e, models.EventRoomsList, nil, func(resp models.RoomsListResponse, err error) {
		if err == nil {
			err = rejected(models.EventRoomsList, resp.AckResponse)
		}
		if err != nil {
			e.log.Error("Failed to fetch rooms: %v", err)
			ack.resolve(err)
			return
		}
		e.store.SetRooms(resp.Rooms)
		ack.resolve(nil)
	})
}

func (e *Engine) enterRoom(name string, ack *Ack) {
	if e.store.CurrentRoom() == name {
		e.switchScope(models.RoomScope(name))
		ack.resolve(nil)
		return
	}

	request(e, models.EventRoomJoin, models.JoinRoomRequest{RoomName: name}, func(resp models.JoinRoomResponse, err error) {
		if err == nil {
			err = rejected(models.EventRoomJoin, resp.AckResponse)
		}
		if err != nil {
			e.log.Error("Failed to join room %s: %v", name, err)
			ack.resolve(err)
			return
		}

		e.switchScope(models.RoomScope(name))
		e.store.SetRoomMessages(name, resp.Messages)
		ack.resolve(nil)
	})
}

// switchScope activates next, withdrawing any typing announcement left in the
// scope being abandoned.
func (e *Engine) switchScope(next models.Scope) {
	prev := e.store.ActiveScope()
	if !prev.IsZero() && prev != next {
		e.typing.Leave(prev)
	}
	if next.Key == "" {
		e.store.SetMode(next.Mode)
		return
	}
	e.store.SetActive(next.Mode, next.Key)
}

func (e *Engine) sendRoomMessage(room, content string, ack *Ack) {
	e.typing.Submit(models.RoomScope(room))

	req := models.RoomMessageRequest{RoomName: room, Content: content}
	request(e, models.EventMessageRoom, req, func(resp models.AckResponse, err error) {
		if err == nil {
			err = rejected(models.EventMessageRoom, resp)
		}
		if err != nil {
			e.log.Error("Failed to send message to %s: %v", room, err)
		}
		ack.resolve(err)
	})
}

func (e *Engine) sendPrivateMessage(peer, content string, ack *Ack) {
	me := e.store.Username()
	if peer == me {
		ack.resolve(ErrSelfConversation)
		return
	}
	e.typing.Submit(models.PrivateScope(peer))

	msg := models.PrivateMessage{
		ID:        provisionalPrefix + uuid.NewString(),
		From:      me,
		To:        peer,
		Content:   content,
		Timestamp: e.clock.Now().UTC().Format(models.TimestampLayout),
	}
	if err := e.store.AppendPrivateMessage(peer, msg); err != nil {
		ack.resolve(err)
		return
	}

	req := models.PrivateMessageRequest{RecipientUsername: peer, Content: content}
	request(e, models.EventMessagePrivate, req, func(resp models.PrivateMessageResponse, err error) {
		if err == nil {
			err = rejected(models.EventMessagePrivate, resp.AckResponse)
		}
		if err != nil {
			e.log.Error("Failed to send private message to %s: %v", peer, err)
			ack.resolve(err)
			return
		}

		fields := models.Reconciliation{ID: resp.MessageID, Delivered: resp.Delivered}
		if !e.store.ReplaceMessage(peer, msg.ID, fields) {
			e.log.Debug("Provisional message %s no longer buffered", msg.ID)
		}
		ack.resolve(nil)
	})
}

// IsProvisional reports whether id was minted locally and is still awaiting
// the server's acknowledgement.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, provisionalPrefix)
}
