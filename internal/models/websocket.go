package models

import "encoding/json"

// Outbound commands.
const (
	EventUserLogin          = "user:login"
	EventRoomsList          = "rooms:list"
	EventRoomJoin           = "room:join"
	EventRoomCreate         = "room:create"
	EventMessageRoom        = "message:room"
	EventMessagePrivate     = "message:private"
	EventConversationGet    = "conversation:get"
	EventTypingStart        = "typing:start"
	EventTypingStop         = "typing:stop"
	EventTypingPrivateStart = "typing:private:start"
	EventTypingPrivateStop  = "typing:private:stop"
)

// Inbound pushes.
const (
	EventMessageReceived        = "message:received"
	EventPrivateMessageReceived = "message:private:received"
	EventUserOnline             = "user:online"
	EventUserOffline            = "user:offline"
	EventUserJoined             = "user:joined"
	EventUserLeft               = "user:left"
	EventUserTyping             = "user:typing"
	EventUserStoppedTyping      = "user:stopped-typing"
	EventUserTypingPrivate      = "user:typing:private"
	EventUserStoppedPrivate     = "user:stopped-typing:private"
	EventRoomCreated            = "room:created"
	EventRoomsUpdate            = "rooms:update"
)

// Connection lifecycle notifications are synthesized by the transport and
// never travel on the wire.
const (
	EventDisconnect = "disconnect"
	EventReconnect  = "reconnect"
)

// EventAck is the frame name the server uses to answer a command that asked
// for an acknowledgement.
const EventAck = "ack"

// Frame is the envelope of every websocket text message in both directions.
// AckID is set on commands expecting an acknowledgement and echoed back on
// the matching "ack" frame.
type Frame struct {
	Event string          `json:"event"`
	AckID uint64          `json:"ackId,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}
