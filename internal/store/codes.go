package store

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// RoomCodeLength is the fixed length of a room code.
const RoomCodeLength = 6

// CreateRoomAttempts bounds the retry loop on code collision. At realistic
// room counts a collision is already rare; exhausting five draws is reported
// as ErrRoomCodeExhausted instead of retrying forever.
const CreateRoomAttempts = 5

// NewRoomCode draws a 6-character uppercase hex code from crypto/rand.
func NewRoomCode() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand failing means the process is in no state to serve.
		panic(err)
	}
	return strings.ToUpper(hex.EncodeToString(b)[:RoomCodeLength])
}

var (
	adjectives = []string{"Silent", "Fast", "Clever", "Brave", "Happy", "Cool", "Lazy", "Wise", "Neon", "Cyber"}
	nouns      = []string{"Fox", "Eagle", "Bear", "Tiger", "Wolf", "Owl", "Cat", "Dog", "Ninja", "Ghost"}
)

// NewUsername generates a throwaway display name like CyberFox123456.
// Uniqueness within a room is not required.
func NewUsername() string {
	adj := adjectives[randomInt(len(adjectives))]
	noun := nouns[randomInt(len(nouns))]
	return fmt.Sprintf("%s%s%d", adj, noun, randomInt(1000000))
}

func randomInt(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic(err)
	}
	return int(v.Int64())
}
