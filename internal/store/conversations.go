package store

import (
	"errors"
	"fmt"
	"slices"

	"chat-client/internal/models"
)

var ErrForeignMessage = errors.New("message does not belong to conversation")

// AppendRoomMessage appends to the room's buffer in call order, creating the
// buffer on first use. Messages are not de-duplicated.
func (s *Store) AppendRoomMessage(roomName string, msg models.RoomMessage) {
	s.roomMessages[roomName] = append(s.roomMessages[roomName], msg)
}

// AppendPrivateMessage appends to the conversation with peer. The message
// must have peer as sender or recipient.
func (s *Store) AppendPrivateMessage(peer string, msg models.PrivateMessage) error {
	if !msg.Involves(peer) {
		return fmt.Errorf("%w: %s -> %s in conversation with %s", ErrForeignMessage, msg.From, msg.To, peer)
	}
	s.privateMessages[peer] = append(s.privateMessages[peer], msg)
	return nil
}

// ReplaceMessage merges the server-assigned fields into the private message
// currently identified by localID, keeping its position. It reports false
// and changes nothing when localID is not in the conversation.
func (s *Store) ReplaceMessage(peer, localID string, fields models.Reconciliation) bool {
	msgs := s.privateMessages[peer]
	for i := range msgs {
		if msgs[i].ID != localID {
			continue
		}
		if fields.ID != "" {
			msgs[i].ID = fields.ID
		}
		msgs[i].Delivered = fields.Delivered
		return true
	}
	return false
}

// SetRoomMessages replaces the room's buffer wholesale.
func (s *Store) SetRoomMessages(roomName string, msgs []models.RoomMessage) {
	s.roomMessages[roomName] = append([]models.RoomMessage{}, msgs...)
}

// SetPrivateMessages replaces the conversation's buffer wholesale. Entries
// not involving peer are dropped.
func (s *Store) SetPrivateMessages(peer string, msgs []models.PrivateMessage) int {
	kept := make([]models.PrivateMessage, 0, len(msgs))
	dropped := 0
	for _, m := range msgs {
		if !m.Involves(peer) {
			dropped++
			continue
		}
		kept = append(kept, m)
	}
	s.privateMessages[peer] = kept
	return dropped
}

// SetActive switches the displayed conversation. In room mode key is the
// room name, in private mode the peer. Buffers are left as they are, and the
// key of the other mode is remembered.
func (s *Store) SetActive(mode models.ChatMode, key string) {
	s.mode = mode
	switch mode {
	case models.ModeRoom:
		s.currentRoom = key
	case models.ModePrivate:
		s.activeConversation = key
	}
}

// SetMode switches the display mode only, keeping both active keys.
func (s *Store) SetMode(mode models.ChatMode) {
	s.mode = mode
}

func (s *Store) Mode() models.ChatMode {
	return s.mode
}

func (s *Store) CurrentRoom() string {
	return s.currentRoom
}

func (s *Store) ActiveConversation() string {
	return s.activeConversation
}

// ActiveScope returns the conversation currently displayed, or the zero
// Scope when nothing has been opened in the current mode.
func (s *Store) ActiveScope() models.Scope {
	if s.mode == models.ModePrivate {
		if s.activeConversation == "" {
			return models.Scope{}
		}
		return models.PrivateScope(s.activeConversation)
	}
	if s.currentRoom == "" {
		return models.Scope{}
	}
	return models.RoomScope(s.currentRoom)
}

func (s *Store) RoomMessages(roomName string) []models.RoomMessage {
	return slices.Clone(s.roomMessages[roomName])
}

func (s *Store) PrivateMessages(peer string) []models.PrivateMessage {
	return slices.Clone(s.privateMessages[peer])
}
