package services

import (
	"errors"
	"strings"

	"chat-client/internal/models"
)

var (
	ErrRoomNameRequired    = errors.New("room name is required")
	ErrDisplayNameRequired = errors.New("room display name is required")
)

// NormalizeRoomName turns user input into the room key: trimmed, lowercased,
// with every run of whitespace replaced by a single "-".
func NormalizeRoomName(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), "-")
}

// NewCreateRoomRequest validates and normalizes the create-room form.
func NewCreateRoomRequest(roomName, displayName string) (models.CreateRoomRequest, error) {
	name := NormalizeRoomName(roomName)
	if name == "" {
		return models.CreateRoomRequest{}, ErrRoomNameRequired
	}
	display := strings.TrimSpace(displayName)
	if display == "" {
		return models.CreateRoomRequest{}, ErrDisplayNameRequired
	}
	return models.CreateRoomRequest{RoomName: name, DisplayName: display}, nil
}
