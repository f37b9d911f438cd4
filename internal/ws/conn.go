package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/techyouandme/TempTelegram/internal/auth"
	"github.com/techyouandme/TempTelegram/internal/metrics"
	"github.com/techyouandme/TempTelegram/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxFrameSize   = 1 << 16 // 64KB is generous for chat text
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Client is the per-connection protocol state machine. It holds only
// transient identifiers; all room state lives in the directory.
type Client struct {
	id    string
	conn  *websocket.Conn
	send  chan []byte
	hub   *Hub
	store *store.Store
}

// Serve upgrades the request and runs the connection until it drops.
func Serve(hub *Hub, st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := &Client{
			id:    uuid.NewString(),
			conn:  conn,
			send:  make(chan []byte, sendBufferSize),
			hub:   hub,
			store: st,
		}
		hub.add(client)
		metrics.WsConnections.Inc()
		log.Debug().Str("conn_id", client.id).Msg("connection established")

		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.disconnect()
		metrics.WsConnections.Dec()
	}()
	c.conn.SetReadLimit(maxFrameSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var in Inbound
		if err := json.Unmarshal(data, &in); err != nil {
			continue
		}
		c.handleEvent(in)
	}
}

// handleEvent dispatches one inbound frame. Unknown events and malformed
// payloads are dropped; only the join handshake surfaces errors to the
// client, everything after that fails silently to keep the channel alive.
func (c *Client) handleEvent(in Inbound) {
	switch in.Event {
	case EventJoinRoom:
		var p JoinRoomPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return
		}
		c.handleJoin(p)
	case EventSendMessage:
		var p SendMessagePayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return
		}
		c.handleSendMessage(p)
	case EventClearChat:
		var p ClearChatPayload
		if err := json.Unmarshal(in.Data, &p); err != nil {
			return
		}
		c.handleClearChat(p)
	}
}

// checkJoin re-validates the room and password for a socket-level join.
// The bcrypt compare runs on this connection's goroutine, outside any
// directory lock, so a slow hash never stalls other rooms.
func (c *Client) checkJoin(p JoinRoomPayload) error {
	room, ok := c.store.GetRoom(p.RoomCode)
	if !ok {
		return store.ErrRoomNotFound
	}
	if room.HasPassword {
		if p.Password == "" {
			return store.ErrPasswordRequired
		}
		if !auth.VerifyPassword(room.PasswordHash, p.Password) {
			return store.ErrPasswordIncorrect
		}
	}
	return nil
}

func (c *Client) handleJoin(p JoinRoomPayload) {
	if err := c.checkJoin(p); err != nil {
		c.hub.send(c.id, envelope(EventError, joinErrorMessage(err)))
		return
	}

	// Switching rooms is a leave followed by a join; tell the old room.
	if prev, _, ok := c.store.Session(c.id); ok && prev != p.RoomCode {
		c.leaveCurrentRoom()
	}

	username := store.NewUsername()
	if !c.store.JoinRoom(p.RoomCode, c.id, username) {
		// The room was reaped between the check and the join.
		c.hub.send(c.id, envelope(EventError, joinErrorMessage(store.ErrRoomNotFound)))
		return
	}

	c.hub.send(c.id, envelope(EventJoined, JoinedPayload{
		RoomCode: p.RoomCode,
		Username: username,
		Messages: c.store.Messages(p.RoomCode),
		Users:    c.store.Users(p.RoomCode),
	}))
	c.hub.BroadcastRoom(p.RoomCode, c.id, envelope(EventUserJoined, UserEvent{Username: username, System: true}))
	c.hub.BroadcastRoom(p.RoomCode, "", envelope(EventRoomUsers, c.store.Users(p.RoomCode)))
	log.Info().Str("room", p.RoomCode).Str("username", username).Msg("user joined room")
}

// joinErrorMessage maps the join failure taxonomy onto the wire strings the
// client matches against.
func joinErrorMessage(err error) string {
	switch err {
	case store.ErrRoomNotFound:
		return "Room does not exist"
	case store.ErrPasswordRequired:
		return "Password required"
	case store.ErrPasswordIncorrect:
		return "Incorrect password"
	default:
		return "Internal error"
	}
}

func (c *Client) handleSendMessage(p SendMessagePayload) {
	// A session that is gone or points elsewhere means we raced a
	// disconnect or a reap; drop without surfacing an error.
	code, sender, ok := c.store.Session(c.id)
	if !ok || code != p.RoomCode {
		return
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return
	}
	msg := store.Message{
		ID:        uuid.NewString(),
		Sender:    &sender,
		Text:      sanitize(text),
		Timestamp: time.Now().UnixMilli(),
		Type:      store.MessageTypeText,
	}
	if !c.store.AddMessage(p.RoomCode, msg) {
		return
	}
	metrics.WsMessagesTotal.Inc()
	c.hub.BroadcastRoom(p.RoomCode, "", envelope(EventReceiveMessage, msg))
}

// sanitize escapes the one markup-significant character before the text is
// stored or fanned out.
func sanitize(text string) string {
	return strings.ReplaceAll(text, "<", "&lt;")
}

func (c *Client) handleClearChat(p ClearChatPayload) {
	code, _, ok := c.store.Session(c.id)
	if !ok || code != p.RoomCode {
		return
	}
	if !c.store.ClearMessages(p.RoomCode) {
		// Room vanished mid-flight; nothing to announce.
		return
	}
	c.hub.BroadcastRoom(p.RoomCode, "", envelope(EventChatCleared, nil))
	sysMsg := store.Message{
		ID:        uuid.NewString(),
		Text:      "Chat history was cleared",
		Timestamp: time.Now().UnixMilli(),
		Type:      store.MessageTypeSystem,
	}
	c.hub.BroadcastRoom(p.RoomCode, "", envelope(EventReceiveMessage, sysMsg))
	log.Info().Str("room", p.RoomCode).Msg("chat cleared")
}

// leaveCurrentRoom removes this connection's membership and notifies the
// room's remaining members. Idempotent: the directory returns nothing on the
// second call, so nothing is broadcast twice.
func (c *Client) leaveCurrentRoom() {
	res, ok := c.store.LeaveRoom(c.id)
	if !ok {
		return
	}
	c.hub.BroadcastRoom(res.RoomCode, "", envelope(EventUserLeft, UserEvent{Username: res.Username, System: true}))
	c.hub.BroadcastRoom(res.RoomCode, "", envelope(EventRoomUsers, c.store.Users(res.RoomCode)))
	log.Info().Str("room", res.RoomCode).Str("username", res.Username).Msg("user left room")
}

// disconnect tears the connection down: membership first, so the departure
// broadcast already excludes this connection, then the hub entry.
func (c *Client) disconnect() {
	c.leaveCurrentRoom()
	c.hub.remove(c.id)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
