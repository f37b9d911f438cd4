package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/techyouandme/TempTelegram/internal/auth"
	"github.com/techyouandme/TempTelegram/internal/metrics"
	"github.com/techyouandme/TempTelegram/internal/store"
)

// Handler serves the room control endpoints against the injected directory.
type Handler struct {
	store *store.Store
}

func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// CreateRoom handles POST /api/rooms. An optional password is hashed before
// the room is created; the raw secret is never stored.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	passwordHash := ""
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			log.Error().Err(err).Msg("create room hash password")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		passwordHash = hash
	}

	for i := 0; i < store.CreateRoomAttempts; i++ {
		code := store.NewRoomCode()
		if h.store.CreateRoom(code, passwordHash) {
			metrics.RoomsCreatedTotal.Inc()
			metrics.ActiveRooms.Set(float64(h.store.RoomCount()))
			log.Info().Str("room", code).Bool("protected", passwordHash != "").Msg("room created")
			c.JSON(http.StatusOK, gin.H{"roomCode": code})
			return
		}
	}
	log.Error().Err(store.ErrRoomCodeExhausted).Msg("create room")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate unique room code"})
}

// JoinRoom handles POST /api/rooms/join. It only validates the room code and
// password so the client can fail fast before opening a websocket; membership
// is registered by the realtime join, never here.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req struct {
		RoomCode string `json:"roomCode"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.RoomCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	err := h.checkJoin(req.RoomCode, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"success": true, "roomCode": req.RoomCode})
	case errors.Is(err, store.ErrRoomNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
	case errors.Is(err, store.ErrPasswordRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Password required", "passwordRequired": true})
	case errors.Is(err, store.ErrPasswordIncorrect):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect password", "passwordRequired": true})
	default:
		log.Error().Err(err).Str("room", req.RoomCode).Msg("join room")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func (h *Handler) checkJoin(code, password string) error {
	room, ok := h.store.GetRoom(code)
	if !ok {
		return store.ErrRoomNotFound
	}
	if room.HasPassword {
		if password == "" {
			return store.ErrPasswordRequired
		}
		if !auth.VerifyPassword(room.PasswordHash, password) {
			return store.ErrPasswordIncorrect
		}
	}
	return nil
}
