package ws

import (
	"encoding/json"

	"github.com/techyouandme/TempTelegram/internal/store"
)

// Inbound is the envelope every client frame arrives in.
type Inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client -> server event names.
const (
	EventJoinRoom    = "join_room"
	EventSendMessage = "send_message"
	EventClearChat   = "clear_chat"
)

// Server -> client event names.
const (
	EventError          = "error"
	EventJoined         = "joined"
	EventReceiveMessage = "receive_message"
	EventRoomUsers      = "room_users"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventChatCleared    = "chat_cleared"
)

type JoinRoomPayload struct {
	RoomCode string `json:"roomCode"`
	Password string `json:"password"`
}

type SendMessagePayload struct {
	RoomCode string `json:"roomCode"`
	Text     string `json:"text"`
}

type ClearChatPayload struct {
	RoomCode string `json:"roomCode"`
}

type JoinedPayload struct {
	RoomCode string          `json:"roomCode"`
	Username string          `json:"username"`
	Messages []store.Message `json:"messages"`
	Users    []string        `json:"users"`
}

// UserEvent announces a member joining or leaving as a system notice.
type UserEvent struct {
	Username string `json:"username"`
	System   bool   `json:"system"`
}

// envelope marshals an outbound event. Payloads are our own types, so a
// marshal failure is a programming error; it is logged at the call site
// by returning nil.
func envelope(event string, data any) []byte {
	b, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return b
}
