package store

import "sort"

// SetOnlineUsers replaces the presence set wholesale.
func (s *Store) SetOnlineUsers(usernames []string) {
	s.online = make(map[string]struct{}, len(usernames))
	for _, u := range usernames {
		s.online[u] = struct{}{}
	}
}

func (s *Store) AddOnlineUser(username string) {
	s.online[username] = struct{}{}
}

func (s *Store) RemoveOnlineUser(username string) {
	delete(s.online, username)
}

func (s *Store) IsOnline(username string) bool {
	_, ok := s.online[username]
	return ok
}

// OnlineUsers returns the presence set sorted by name. The local user is
// included when the server reports it; callers filter it out themselves.
func (s *Store) OnlineUsers() []string {
	users := make([]string, 0, len(s.online))
	for u := range s.online {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}
