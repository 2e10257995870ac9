package models

// TimestampLayout is the ISO-8601 form used for message timestamps
// (millisecond precision, UTC "Z" suffix).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

type User struct {
	Username string `json:"username"`
	Token    string `json:"token,omitempty"`
}

type Room struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	UserCount   int    `json:"userCount"`
}

// RoomMessage is a message broadcast to a room. RoomName is only present on
// the inbound push; history entries omit it.
type RoomMessage struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	RoomName  string `json:"roomName,omitempty"`
}

type PrivateMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Delivered bool   `json:"delivered"`
}

// Involves reports whether username is either party of the message.
func (m PrivateMessage) Involves(username string) bool {
	return m.From == username || m.To == username
}

// Reconciliation carries the server-authoritative fields merged into an
// optimistic private message once its send is acknowledged.
type Reconciliation struct {
	ID        string
	Delivered bool
}

// Command payloads.

type LoginRequest struct {
	Username string `json:"username"`
}

type JoinRoomRequest struct {
	RoomName string `json:"roomName"`
}

type CreateRoomRequest struct {
	RoomName    string `json:"roomName"`
	DisplayName string `json:"displayName"`
}

type RoomMessageRequest struct {
	RoomName string `json:"roomName"`
	Content  string `json:"content"`
}

type PrivateMessageRequest struct {
	RecipientUsername string `json:"recipientUsername"`
	Content           string `json:"content"`
}

type ConversationRequest struct {
	Username string `json:"username"`
}

type RoomTypingRequest struct {
	RoomName string `json:"roomName"`
}

type PrivateTypingRequest struct {
	RecipientUsername string `json:"recipientUsername"`
}

// Acknowledgements.

type AckResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type LoginResponse struct {
	AckResponse
	User        *User    `json:"user,omitempty"`
	OnlineUsers []string `json:"onlineUsers,omitempty"`
}

type RoomsListResponse struct {
	AckResponse
	Rooms []Room `json:"rooms,omitempty"`
}

type JoinRoomResponse struct {
	AckResponse
	Messages []RoomMessage `json:"messages,omitempty"`
}

type CreateRoomResponse struct {
	AckResponse
	Room *Room `json:"room,omitempty"`
}

type PrivateMessageResponse struct {
	AckResponse
	MessageID string `json:"messageId,omitempty"`
	Delivered bool   `json:"delivered,omitempty"`
}

type ConversationResponse struct {
	AckResponse
	Messages []PrivateMessage `json:"messages,omitempty"`
}

// Push payloads.

type PresenceEvent struct {
	Username string `json:"username"`
}

type MembershipEvent struct {
	Username string `json:"username"`
	RoomName string `json:"roomName"`
}

// TypingEvent covers both room and private typing pushes; RoomName is empty
// for the private variants.
type TypingEvent struct {
	Username string `json:"username"`
	RoomName string `json:"roomName,omitempty"`
}

type RoomCountEvent struct {
	RoomName  string `json:"roomName"`
	UserCount int    `json:"userCount"`
}
