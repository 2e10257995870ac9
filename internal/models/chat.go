package models

import "time"

type ChatMode string

const (
	ModeRoom    ChatMode = "room"
	ModePrivate ChatMode = "private"
)

// Scope keys a message buffer or a typing indicator: a room name in room
// mode, the peer's username in private mode.
type Scope struct {
	Mode ChatMode
	Key  string
}

func RoomScope(name string) Scope {
	return Scope{Mode: ModeRoom, Key: name}
}

func PrivateScope(peer string) Scope {
	return Scope{Mode: ModePrivate, Key: peer}
}

func (s Scope) IsZero() bool {
	return s.Key == ""
}

func (s Scope) String() string {
	return string(s.Mode) + ":" + s.Key
}

type NotificationType string

const (
	NotificationMessage NotificationType = "message"
	NotificationInfo    NotificationType = "info"
	NotificationError   NotificationType = "error"
	NotificationSuccess NotificationType = "success"
)

// Notification is a transient alert surfaced to the user. It is never read
// back into engine logic.
type Notification struct {
	ID        string
	Type      NotificationType
	Title     string
	Message   string
	CreatedAt time.Time
}
