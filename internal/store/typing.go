package store

import (
	"slices"

	"chat-client/internal/models"
)

// SetTyping records or clears a remote "is typing" indicator. In private
// scope the actor is the peer itself.
func (s *Store) SetTyping(scope models.Scope, actor string, typing bool) {
	switch scope.Mode {
	case models.ModePrivate:
		if typing {
			s.typingPrivate[scope.Key] = true
		} else {
			delete(s.typingPrivate, scope.Key)
		}
	case models.ModeRoom:
		users := s.typingRooms[scope.Key]
		i := slices.Index(users, actor)
		switch {
		case typing && i < 0:
			s.typingRooms[scope.Key] = append(users, actor)
		case !typing && i >= 0:
			users = slices.Delete(users, i, i+1)
			if len(users) == 0 {
				delete(s.typingRooms, scope.Key)
			} else {
				s.typingRooms[scope.Key] = users
			}
		}
	}
}

func (s *Store) IsTyping(scope models.Scope, actor string) bool {
	if scope.Mode == models.ModePrivate {
		return s.typingPrivate[scope.Key] && actor == scope.Key
	}
	return slices.Contains(s.typingRooms[scope.Key], actor)
}

// TypingUsers lists who is typing in scope, in the order they started.
func (s *Store) TypingUsers(scope models.Scope) []string {
	if scope.Mode == models.ModePrivate {
		if s.typingPrivate[scope.Key] {
			return []string{scope.Key}
		}
		return nil
	}
	return slices.Clone(s.typingRooms[scope.Key])
}
