package store

import "chat-client/internal/models"

func (s *Store) SetIdentity(user models.User) {
	u := user
	s.identity = &u
}

func (s *Store) Identity() (models.User, bool) {
	if s.identity == nil {
		return models.User{}, false
	}
	return *s.identity, true
}

// Username returns the local user's name, or "" before login.
func (s *Store) Username() string {
	if s.identity == nil {
		return ""
	}
	return s.identity.Username
}

func (s *Store) SetConnected(connected bool) {
	s.connected = connected
}

func (s *Store) Connected() bool {
	return s.connected
}
