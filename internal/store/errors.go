package store

import "errors"

// Failure taxonomy shared by the HTTP handlers and the realtime protocol.
// Handlers map these to status codes or error events; anything else is an
// internal fault that gets logged and answered generically.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrPasswordRequired  = errors.New("password required")
	ErrPasswordIncorrect = errors.New("incorrect password")
	ErrRoomCodeExhausted = errors.New("failed to generate unique room code")
)
