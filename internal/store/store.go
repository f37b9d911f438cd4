package store

import (
	"strings"
	"sync"
	"time"
)

// Message kinds carried in a room's log.
const (
	MessageTypeText   = "text"
	MessageTypeSystem = "system"
)

// MaxMessages caps a room's log; the oldest entry is evicted first.
const MaxMessages = 50

// Message is a single chat entry. Sender is a pointer so a scrub can null it.
type Message struct {
	ID        string  `json:"id"`
	Sender    *string `json:"sender"`
	Text      string  `json:"text"`
	Timestamp int64   `json:"timestamp"`
	Type      string  `json:"type"`
}

type room struct {
	code         string
	passwordHash string
	users        map[string]string // connID -> display name
	messages     []Message
	createdAt    time.Time
	lastActiveAt time.Time
}

// RoomInfo is a read-only snapshot of a room's metadata.
type RoomInfo struct {
	Code         string
	PasswordHash string
	HasPassword  bool
	CreatedAt    time.Time
	LastActiveAt time.Time
	UserCount    int
}

// LeaveResult reports what LeaveRoom removed.
type LeaveResult struct {
	RoomCode  string
	Username  string
	Remaining int
}

// Store is the in-memory room directory plus the reverse connection->room
// session index. All state lives here; handlers keep only connection IDs.
// A single lock serializes mutation, which is plenty at this scale.
type Store struct {
	mu          sync.RWMutex
	rooms       map[string]*room
	sessions    map[string]string // connID -> roomCode
	inactiveTTL time.Duration
	emptyTTL    time.Duration
	now         func() time.Time
}

// New creates an empty directory. inactiveTTL evicts rooms with no activity,
// emptyTTL evicts rooms whose last member left and nothing happened since.
func New(inactiveTTL, emptyTTL time.Duration) *Store {
	return &Store{
		rooms:       make(map[string]*room),
		sessions:    make(map[string]string),
		inactiveTTL: inactiveTTL,
		emptyTTL:    emptyTTL,
		now:         time.Now,
	}
}

// CreateRoom inserts a new room under code. The exists-check and the insert
// happen under one lock, so two creators can never both win the same code.
// Returns false on collision; the caller owns the retry policy.
func (s *Store) CreateRoom(code, passwordHash string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[code]; ok {
		return false
	}
	now := s.now()
	s.rooms[code] = &room{
		code:         code,
		passwordHash: passwordHash,
		users:        make(map[string]string),
		messages:     make([]Message, 0, 8),
		createdAt:    now,
		lastActiveAt: now,
	}
	return true
}

// GetRoom returns a snapshot of the room's metadata. It is a pure read and
// does not refresh LastActiveAt; only mutating operations do.
func (s *Store) GetRoom(code string) (RoomInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return RoomInfo{}, false
	}
	return RoomInfo{
		Code:         r.code,
		PasswordHash: r.passwordHash,
		HasPassword:  r.passwordHash != "",
		CreatedAt:    r.createdAt,
		LastActiveAt: r.lastActiveAt,
		UserCount:    len(r.users),
	}, true
}

// JoinRoom binds connID to the room, overwriting any previous binding. A
// connection that was joined to a different room is removed from it first so
// the one-session-per-connection invariant holds across the switch.
func (s *Store) JoinRoom(code, connID, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return false
	}
	if prev, ok := s.sessions[connID]; ok && prev != code {
		if old, ok := s.rooms[prev]; ok {
			delete(old.users, connID)
			old.lastActiveAt = s.now()
		}
	}
	r.users[connID] = username
	r.lastActiveAt = s.now()
	s.sessions[connID] = code
	return true
}

// LeaveRoom removes the connection's membership and session. It is a no-op
// for connections with no session, which makes disconnect handling idempotent.
func (s *Store) LeaveRoom(connID string) (LeaveResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.sessions[connID]
	if !ok {
		return LeaveResult{}, false
	}
	delete(s.sessions, connID)
	r, ok := s.rooms[code]
	if !ok {
		// Stale session left behind by a reaped room; dropping it is enough.
		return LeaveResult{}, false
	}
	username := r.users[connID]
	delete(r.users, connID)
	r.lastActiveAt = s.now()
	return LeaveResult{RoomCode: code, Username: username, Remaining: len(r.users)}, true
}

// AddMessage appends to the room's log, evicting the oldest entry once the
// log holds MaxMessages.
func (s *Store) AddMessage(code string, msg Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return false
	}
	if len(r.messages) >= MaxMessages {
		r.messages = append(r.messages[:0], r.messages[1:]...)
	}
	r.messages = append(r.messages, msg)
	r.lastActiveAt = s.now()
	return true
}

// ClearMessages scrubs every retained message and truncates the log. The
// scrub overwrites each text with a same-length placeholder and nulls the
// sender before the entries are released. This is best-effort memory hygiene,
// not a secure-erasure guarantee: Go strings are immutable and the original
// bytes live until the GC reclaims them.
func (s *Store) ClearMessages(code string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[code]
	if !ok {
		return false
	}
	scrubMessages(r.messages)
	r.messages = r.messages[:0]
	r.lastActiveAt = s.now()
	return true
}

func scrubMessages(msgs []Message) {
	for i := range msgs {
		if msgs[i].Text != "" {
			msgs[i].Text = strings.Repeat("0", len(msgs[i].Text))
		}
		msgs[i].Sender = nil
	}
}

// Messages returns a copy of the room's log, oldest first.
func (s *Store) Messages(code string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil
	}
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Users returns the display names of the room's current members.
func (s *Store) Users(code string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.users))
	for _, name := range r.users {
		out = append(out, name)
	}
	return out
}

// MemberConns returns the connection IDs currently bound to the room, so a
// broadcast always targets the membership as of call time.
func (s *Store) MemberConns(code string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(r.users))
	for connID := range r.users {
		out = append(out, connID)
	}
	return out
}

// Session resolves a connection's room and display name. The session index is
// never trusted on its own: the answer is validated against the room table.
func (s *Store) Session(connID string) (code, username string, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok = s.sessions[connID]
	if !ok {
		return "", "", false
	}
	r, ok := s.rooms[code]
	if !ok {
		return "", "", false
	}
	username, ok = r.users[connID]
	if !ok {
		return "", "", false
	}
	return code, username, true
}

// RoomCount reports how many rooms the directory currently holds.
func (s *Store) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// Cleanup removes rooms that have been inactive past inactiveTTL, and empty
// rooms that have been idle past emptyTTL. Messages are scrubbed the same way
// ClearMessages scrubs them before the room is dropped. Rooms with members
// survive unless the inactivity threshold itself is exceeded. Returns the
// number of rooms removed.
func (s *Store) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for code, r := range s.rooms {
		idle := now.Sub(r.lastActiveAt)
		inactive := idle > s.inactiveTTL
		emptyAndStale := len(r.users) == 0 && idle > s.emptyTTL
		if !inactive && !emptyAndStale {
			continue
		}
		scrubMessages(r.messages)
		for connID := range r.users {
			delete(s.sessions, connID)
		}
		delete(s.rooms, code)
		removed++
	}
	return removed
}
