package store

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func newTestStore() (*Store, *time.Time) {
	s := New(30*time.Minute, 5*time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestNewRoomCode_Format(t *testing.T) {
	for i := 0; i < 200; i++ {
		code := NewRoomCode()
		if len(code) != RoomCodeLength {
			t.Fatalf("NewRoomCode() length = %d, want %d", len(code), RoomCodeLength)
		}
		for _, r := range code {
			if !(r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				t.Fatalf("NewRoomCode() = %q, contains non-uppercase-alphanumeric %q", code, r)
			}
		}
	}
}

func TestNewUsername(t *testing.T) {
	name := NewUsername()
	if name == "" {
		t.Fatal("NewUsername() returned empty name")
	}
	found := false
	for _, adj := range adjectives {
		if strings.HasPrefix(name, adj) {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("NewUsername() = %q, does not start with a known adjective", name)
	}
}

func TestCreateRoom(t *testing.T) {
	s, _ := newTestStore()
	if !s.CreateRoom("AAAAAA", "") {
		t.Fatal("CreateRoom() = false for fresh code")
	}
	if s.CreateRoom("AAAAAA", "") {
		t.Error("CreateRoom() = true for duplicate code")
	}
	if s.RoomCount() != 1 {
		t.Errorf("RoomCount() = %d, want 1", s.RoomCount())
	}
}

func TestGetRoom(t *testing.T) {
	s, now := newTestStore()
	s.CreateRoom("AAAAAA", "digest")

	room, ok := s.GetRoom("AAAAAA")
	if !ok {
		t.Fatal("GetRoom() ok = false for existing room")
	}
	if !room.HasPassword || room.PasswordHash != "digest" {
		t.Errorf("GetRoom() = %+v, want protected room with stored digest", room)
	}
	if _, ok := s.GetRoom("ZZZZZZ"); ok {
		t.Error("GetRoom() ok = true for absent room")
	}

	// Reads must not refresh activity; only mutations do.
	created := room.LastActiveAt
	*now = now.Add(10 * time.Minute)
	room, _ = s.GetRoom("AAAAAA")
	if !room.LastActiveAt.Equal(created) {
		t.Error("GetRoom() refreshed LastActiveAt")
	}
}

func TestJoinRoom(t *testing.T) {
	s, now := newTestStore()
	s.CreateRoom("AAAAAA", "")

	if s.JoinRoom("ZZZZZZ", "conn-1", "SilentFox1") {
		t.Error("JoinRoom() = true for absent room")
	}
	if !s.JoinRoom("AAAAAA", "conn-1", "SilentFox1") {
		t.Fatal("JoinRoom() = false for existing room")
	}

	code, username, ok := s.Session("conn-1")
	if !ok || code != "AAAAAA" || username != "SilentFox1" {
		t.Errorf("Session() = (%q, %q, %v), want (AAAAAA, SilentFox1, true)", code, username, ok)
	}

	// Rejoin overwrites the display name, not a second entry.
	s.JoinRoom("AAAAAA", "conn-1", "NeonOwl2")
	if users := s.Users("AAAAAA"); len(users) != 1 || users[0] != "NeonOwl2" {
		t.Errorf("Users() after rejoin = %v, want [NeonOwl2]", users)
	}

	// Mutations refresh activity.
	*now = now.Add(time.Minute)
	s.JoinRoom("AAAAAA", "conn-2", "CleverBear3")
	room, _ := s.GetRoom("AAAAAA")
	if !room.LastActiveAt.Equal(*now) {
		t.Error("JoinRoom() did not refresh LastActiveAt")
	}
}

func TestJoinRoom_SwitchRemovesOldMembership(t *testing.T) {
	s, _ := newTestStore()
	s.CreateRoom("AAAAAA", "")
	s.CreateRoom("BBBBBB", "")

	s.JoinRoom("AAAAAA", "conn-1", "SilentFox1")
	s.JoinRoom("BBBBBB", "conn-1", "SilentFox1")

	if users := s.Users("AAAAAA"); len(users) != 0 {
		t.Errorf("Users(AAAAAA) after switch = %v, want empty", users)
	}
	if code, _, _ := s.Session("conn-1"); code != "BBBBBB" {
		t.Errorf("Session() room = %q, want BBBBBB", code)
	}
}

func TestLeaveRoom(t *testing.T) {
	s, _ := newTestStore()
	s.CreateRoom("AAAAAA", "")
	s.JoinRoom("AAAAAA", "conn-1", "SilentFox1")
	s.JoinRoom("AAAAAA", "conn-2", "NeonOwl2")

	res, ok := s.LeaveRoom("conn-1")
	if !ok {
		t.Fatal("LeaveRoom() ok = false for joined connection")
	}
	if res.RoomCode != "AAAAAA" || res.Username != "SilentFox1" || res.Remaining != 1 {
		t.Errorf("LeaveRoom() = %+v, want {AAAAAA SilentFox1 1}", res)
	}

	// Second leave is an idempotent no-op.
	if _, ok := s.LeaveRoom("conn-1"); ok {
		t.Error("LeaveRoom() ok = true on second call")
	}
}

func TestLeaveRoom_NoSession(t *testing.T) {
	s, now := newTestStore()
	s.CreateRoom("AAAAAA", "")
	before, _ := s.GetRoom("AAAAAA")

	*now = now.Add(time.Minute)
	if _, ok := s.LeaveRoom("ghost-conn"); ok {
		t.Error("LeaveRoom() ok = true for connection with no session")
	}
	after, _ := s.GetRoom("AAAAAA")
	if !after.LastActiveAt.Equal(before.LastActiveAt) {
		t.Error("LeaveRoom() with no session mutated room state")
	}
}

func TestAddMessage_BoundedFIFO(t *testing.T) {
	s, _ := newTestStore()
	s.CreateRoom("AAAAAA", "")
	sender := "SilentFox1"

	total := MaxMessages + 5
	for i := 0; i < total; i++ {
		ok := s.AddMessage("AAAAAA", Message{
			ID:     fmt.Sprintf("msg-%d", i),
			Sender: &sender,
			Text:   fmt.Sprintf("message %d", i),
			Type:   MessageTypeText,
		})
		if !ok {
			t.Fatalf("AddMessage() = false at %d", i)
		}
	}

	msgs := s.Messages("AAAAAA")
	if len(msgs) != MaxMessages {
		t.Fatalf("Messages() length = %d, want %d", len(msgs), MaxMessages)
	}
	// The 50 most recent, oldest first.
	for i, m := range msgs {
		want := fmt.Sprintf("msg-%d", total-MaxMessages+i)
		if m.ID != want {
			t.Fatalf("Messages()[%d].ID = %q, want %q", i, m.ID, want)
		}
	}
}

func TestAddMessage_AbsentRoom(t *testing.T) {
	s, _ := newTestStore()
	if s.AddMessage("ZZZZZZ", Message{ID: "msg-1", Text: "hi", Type: MessageTypeText}) {
		t.Error("AddMessage() = true for absent room")
	}
}

func TestClearMessages(t *testing.T) {
	s, _ := newTestStore()
	s.CreateRoom("AAAAAA", "")
	sender := "SilentFox1"
	for i := 0; i < 3; i++ {
		s.AddMessage("AAAAAA", Message{ID: fmt.Sprintf("msg-%d", i), Sender: &sender, Text: "secret", Type: MessageTypeText})
	}

	// Keep a view into the retained entries to observe the scrub.
	retained := s.rooms["AAAAAA"].messages

	if !s.ClearMessages("AAAAAA") {
		t.Fatal("ClearMessages() = false for existing room")
	}
	if msgs := s.Messages("AAAAAA"); len(msgs) != 0 {
		t.Errorf("Messages() after clear = %d entries, want 0", len(msgs))
	}
	for i := range retained {
		if retained[i].Sender != nil {
			t.Errorf("retained message %d sender not nulled", i)
		}
		if retained[i].Text != strings.Repeat("0", len("secret")) {
			t.Errorf("retained message %d text = %q, want scrub placeholder", i, retained[i].Text)
		}
	}

	if s.ClearMessages("ZZZZZZ") {
		t.Error("ClearMessages() = true for absent room")
	}
}

func TestCleanup(t *testing.T) {
	s, now := newTestStore()

	// Empty room, idle past the empty threshold.
	s.CreateRoom("EMPTY1", "")
	// Occupied room, idle but under the inactivity threshold.
	s.CreateRoom("BUSY01", "")
	s.JoinRoom("BUSY01", "conn-1", "SilentFox1")
	// Occupied room, idle past the inactivity threshold.
	s.CreateRoom("DEAD01", "")
	s.JoinRoom("DEAD01", "conn-2", "NeonOwl2")

	*now = now.Add(6 * time.Minute)
	if removed := s.Cleanup(); removed != 1 {
		t.Fatalf("Cleanup() after 6m = %d, want 1", removed)
	}
	if _, ok := s.GetRoom("EMPTY1"); ok {
		t.Error("empty stale room survived cleanup")
	}
	if _, ok := s.GetRoom("BUSY01"); !ok {
		t.Error("occupied room was removed before the inactivity threshold")
	}

	*now = now.Add(25 * time.Minute)
	if removed := s.Cleanup(); removed != 2 {
		t.Fatalf("Cleanup() after 31m = %d, want 2", removed)
	}
	if _, ok := s.GetRoom("DEAD01"); ok {
		t.Error("inactive occupied room survived cleanup")
	}
	// Sessions of reaped members must not linger.
	if _, _, ok := s.Session("conn-2"); ok {
		t.Error("Session() ok = true for member of a reaped room")
	}
	if s.RoomCount() != 0 {
		t.Errorf("RoomCount() = %d, want 0", s.RoomCount())
	}
}

func TestCleanup_FreshRoomsSurvive(t *testing.T) {
	s, now := newTestStore()
	s.CreateRoom("AAAAAA", "")
	*now = now.Add(time.Minute)
	if removed := s.Cleanup(); removed != 0 {
		t.Errorf("Cleanup() = %d, want 0", removed)
	}
}
