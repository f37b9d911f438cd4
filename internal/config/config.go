package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	Env                   string
	AllowedOrigins        []string
	RoomInactiveTTLMins   int
	RoomEmptyTTLMins      int
	ReaperIntervalSeconds int
	CreateRoomPerMinute   int
	JoinRoomPerMinute     int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(getenv(key, ""))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func Load() Config {
	origins := strings.Split(getenv("ALLOWED_ORIGINS", "http://localhost:5173"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return Config{
		Port:                  getenv("APP_PORT", "8080"),
		Env:                   getenv("APP_ENV", "dev"),
		AllowedOrigins:        origins,
		RoomInactiveTTLMins:   getenvInt("ROOM_INACTIVE_TTL_MINUTES", 30),
		RoomEmptyTTLMins:      getenvInt("ROOM_EMPTY_TTL_MINUTES", 5),
		ReaperIntervalSeconds: getenvInt("REAPER_INTERVAL_SECONDS", 60),
		CreateRoomPerMinute:   getenvInt("CREATE_ROOM_PER_MINUTE", 10),
		JoinRoomPerMinute:     getenvInt("JOIN_ROOM_PER_MINUTE", 20),
	}
}

// Validate rejects configurations the server cannot run with.
func Validate(cfg Config) error {
	if cfg.Port == "" {
		return errors.New("port must not be empty")
	}
	if cfg.RoomInactiveTTLMins <= 0 || cfg.RoomEmptyTTLMins <= 0 {
		return errors.New("room TTLs must be positive")
	}
	if cfg.RoomEmptyTTLMins > cfg.RoomInactiveTTLMins {
		return errors.New("empty-room TTL must not exceed the inactivity TTL")
	}
	if cfg.ReaperIntervalSeconds <= 0 {
		return errors.New("reaper interval must be positive")
	}
	return nil
}
