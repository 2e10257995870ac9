package store

import (
	"slices"

	"chat-client/internal/models"
)

// SetRooms replaces the room directory. Later duplicates of a name overwrite
// earlier ones in place.
func (s *Store) SetRooms(rooms []models.Room) {
	s.rooms = make([]models.Room, 0, len(rooms))
	s.roomIndex = make(map[string]int, len(rooms))
	for _, r := range rooms {
		s.UpsertRoom(r)
	}
}

// UpsertRoom inserts the room, or replaces the entry with the same name
// without moving it.
func (s *Store) UpsertRoom(room models.Room) {
	if i, ok := s.roomIndex[room.Name]; ok {
		s.rooms[i] = room
		return
	}
	s.roomIndex[room.Name] = len(s.rooms)
	s.rooms = append(s.rooms, room)
}

// UpdateUserCount sets the member count of a known room. It reports false
// for rooms missing from the directory, which are left untouched.
func (s *Store) UpdateUserCount(roomName string, count int) bool {
	i, ok := s.roomIndex[roomName]
	if !ok {
		return false
	}
	if count < 0 {
		count = 0
	}
	s.rooms[i].UserCount = count
	return true
}

func (s *Store) Rooms() []models.Room {
	return slices.Clone(s.rooms)
}

func (s *Store) Room(name string) (models.Room, bool) {
	i, ok := s.roomIndex[name]
	if !ok {
		return models.Room{}, false
	}
	return s.rooms[i], true
}
