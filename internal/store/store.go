// Package store holds the client's chat state for one session: identity,
// presence, the room directory, message buffers, typing indicators and the
// notification queue.
//
// A Store is not safe for concurrent use. It is owned by the engine's event
// loop, which is its only writer; renderers read it through Reader from
// within that loop.
package store

import (
	"chat-client/internal/clock"
	"chat-client/internal/models"
)

const DefaultNotificationCapacity = 20

type Store struct {
	clock clock.Clock

	identity  *models.User
	connected bool

	online map[string]struct{}

	rooms     []models.Room
	roomIndex map[string]int

	mode               models.ChatMode
	currentRoom        string
	activeConversation string
	roomMessages       map[string][]models.RoomMessage
	privateMessages    map[string][]models.PrivateMessage

	typingRooms   map[string][]string
	typingPrivate map[string]bool

	notifications *notificationQueue
}

type Option func(*Store)

func WithClock(c clock.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithNotificationCapacity bounds the notification queue. Non-positive values
// keep the default.
func WithNotificationCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.notifications = newNotificationQueue(n)
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		clock:         clock.Real(),
		notifications: newNotificationQueue(DefaultNotificationCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.reset()
	return s
}

// Reset discards all session state. The notification capacity and clock are
// kept.
func (s *Store) Reset() {
	s.reset()
}

func (s *Store) reset() {
	s.identity = nil
	s.connected = false
	s.online = make(map[string]struct{})
	s.rooms = nil
	s.roomIndex = make(map[string]int)
	s.mode = models.ModeRoom
	s.currentRoom = ""
	s.activeConversation = ""
	s.roomMessages = make(map[string][]models.RoomMessage)
	s.privateMessages = make(map[string][]models.PrivateMessage)
	s.typingRooms = make(map[string][]string)
	s.typingPrivate = make(map[string]bool)
	s.notifications.clear()
}
