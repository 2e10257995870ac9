package engine

import (
	"fmt"

	"chat-client/internal/models"
)

// attach subscribes every push handler for the current session.
func (e *Engine) attach() {
	e.detach()

	subscribe(e, models.EventMessageReceived, e.onRoomMessage)
	subscribe(e, models.EventPrivateMessageReceived, e.onPrivateMessage)
	subscribe(e, models.EventUserOnline, e.onUserOnline)
	subscribe(e, models.EventUserOffline, e.onUserOffline)
	subscribe(e, models.EventUserJoined, e.onUserJoined)
	subscribe(e, models.EventUserLeft, e.onUserLeft)
	subscribe(e, models.EventUserTyping, e.onRoomTyping(true))
	subscribe(e, models.EventUserStoppedTyping, e.onRoomTyping(false))
	subscribe(e, models.EventUserTypingPrivate, e.onPrivateTyping(true))
	subscribe(e, models.EventUserStoppedPrivate, e.onPrivateTyping(false))
	subscribe(e, models.EventRoomCreated, e.onRoomCreated)
	subscribe(e, models.EventRoomsUpdate, e.onRoomsUpdate)
	subscribe(e, models.EventDisconnect, e.onDisconnect)
	subscribe(e, models.EventReconnect, e.onReconnect)
}

func (e *Engine) detach() {
	for _, off := range e.offs {
		off()
	}
	e.offs = nil
}

func (e *Engine) onRoomMessage(msg models.RoomMessage) {
	if msg.RoomName == "" {
		e.log.Error("Dropping room message %s without a room", msg.ID)
		return
	}
	e.store.AppendRoomMessage(msg.RoomName, msg)
}

func (e *Engine) onPrivateMessage(msg models.PrivateMessage) {
	me := e.store.Username()
	if msg.From != me && msg.To != me {
		e.log.Error("Dropping private message %s between %s and %s", msg.ID, msg.From, msg.To)
		return
	}
	peer := msg.From
	if peer == me {
		peer = msg.To
	}
	if err := e.store.AppendPrivateMessage(peer, msg); err != nil {
		e.log.Error("Dropping private message %s: %v", msg.ID, err)
		return
	}

	viewing := e.store.Mode() == models.ModePrivate && e.store.ActiveConversation() == peer
	if msg.From != me && !viewing {
		n := e.store.Notify(models.NotificationMessage, "New message from "+msg.From, msg.Content)
		e.alerter.Alert(n.Title, n.Message)
	}
}

func (e *Engine) onUserOnline(ev models.PresenceEvent) {
	e.store.AddOnlineUser(ev.Username)
	e.notify(models.NotificationInfo, "", ev.Username+" joined the chat")
}

func (e *Engine) onUserOffline(ev models.PresenceEvent) {
	e.store.RemoveOnlineUser(ev.Username)
	e.notify(models.NotificationInfo, "", ev.Username+" left the chat")
}

func (e *Engine) onUserJoined(ev models.MembershipEvent) {
	if ev.Username == e.store.Username() {
		return
	}
	e.notify(models.NotificationInfo, "", fmt.Sprintf("%s joined %s", ev.Username, ev.RoomName))
}

func (e *Engine) onUserLeft(ev models.MembershipEvent) {
	e.notify(models.NotificationInfo, "", fmt.Sprintf("%s left %s", ev.Username, ev.RoomName))
}

func (e *Engine) onRoomTyping(typing bool) func(models.TypingEvent) {
	return func(ev models.TypingEvent) {
		if ev.RoomName == "" || ev.Username == "" {
			return
		}
		e.setRemoteTyping(models.RoomScope(ev.RoomName), ev.Username, typing)
	}
}

func (e *Engine) onPrivateTyping(typing bool) func(models.TypingEvent) {
	return func(ev models.TypingEvent) {
		if ev.Username == "" {
			return
		}
		e.setRemoteTyping(models.PrivateScope(ev.Username), ev.Username, typing)
	}
}

func (e *Engine) onRoomCreated(room models.Room) {
	if room.Name == "" {
		return
	}
	e.store.UpsertRoom(room)
}

func (e *Engine) onRoomsUpdate(ev models.RoomCountEvent) {
	if !e.store.UpdateUserCount(ev.RoomName, ev.UserCount) {
		e.log.Debug("User count for unknown room %s", ev.RoomName)
	}
}

func (e *Engine) onDisconnect(struct{}) {
	e.store.SetConnected(false)
	if e.session != nil && !e.session.Valid(e.clock.Now()) {
		e.setToken("")
	}
	e.notify(models.NotificationError, "", "Disconnected from server")
}

func (e *Engine) onReconnect(struct{}) {
	e.store.SetConnected(true)
	e.notify(models.NotificationSuccess, "", "Reconnected to server")
	if e.opts.RefreshOnReconnect {
		e.fetchRooms(nil)
	}
}

func (e *Engine) notify(typ models.NotificationType, title, message string) {
	e.store.Notify(typ, title, message)
}
