package store

import "chat-client/internal/models"

// The interfaces below are the read-only projection handed to renderers.
// Every slice or map returned is a copy.

type SessionReader interface {
	Identity() (models.User, bool)
	Connected() bool
}

type PresenceReader interface {
	OnlineUsers() []string
	IsOnline(username string) bool
}

type RoomReader interface {
	Rooms() []models.Room
	Room(name string) (models.Room, bool)
}

type ConversationReader interface {
	Mode() models.ChatMode
	CurrentRoom() string
	ActiveConversation() string
	ActiveScope() models.Scope
	RoomMessages(roomName string) []models.RoomMessage
	PrivateMessages(peer string) []models.PrivateMessage
}

type TypingReader interface {
	TypingUsers(scope models.Scope) []string
}

type NotificationReader interface {
	Notifications() []models.Notification
}

type Reader interface {
	SessionReader
	PresenceReader
	RoomReader
	ConversationReader
	TypingReader
	NotificationReader
}

var _ Reader = (*Store)(nil)
