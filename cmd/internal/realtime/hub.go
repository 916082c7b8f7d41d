package realtime

import (
	"log/slog"
	"sync"

	v1 "sociofeed/shared/contracts/realtime/v1"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sociofeed_ws_connections",
		Help: "Currently admitted websocket sessions.",
	})

	wsBroadcasts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sociofeed_ws_room_broadcasts_total",
		Help: "Room broadcasts fanned out.",
	})
)

// UserRoom names the private per-user room every session implicitly joins.
func UserRoom(userID string) string { return "user:" + userID }

// ChatRoom names the room for a conversation (canonical direct id or group id).
func ChatRoom(chatID string) string { return "chat:" + chatID }

// Hub is the in-memory connection registry: it tracks which sessions belong
// to which authenticated user and which rooms each session has joined.
//
// Nothing here is persisted. The registry's lifetime is bounded to process
// uptime and is rebuilt from scratch by reconnects after a restart; a
// reconnect storm is a normal condition, not an exceptional one.
type Hub struct {
	log *slog.Logger

	mu     sync.RWMutex
	rooms  map[string]*Room
	byUser map[string]map[string]*Client   // userID -> sessionID -> client
	joined map[string]map[string]struct{}  // sessionID -> room ids
}

// NewHub constructs a Hub instance.
func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:    log,
		rooms:  make(map[string]*Room),
		byUser: make(map[string]map[string]*Client),
		joined: make(map[string]map[string]struct{}),
	}
}

// Admit registers an authenticated session and implicitly joins its private
// per-user room so notification pushes can target "all live connections of
// user X" without enumerating rooms.
func (h *Hub) Admit(client *Client) {
	if h == nil || client == nil || client.SessionID == "" || client.UserID == "" {
		return
	}

	h.mu.Lock()
	sessions := h.byUser[client.UserID]
	if sessions == nil {
		sessions = make(map[string]*Client)
		h.byUser[client.UserID] = sessions
	}
	sessions[client.SessionID] = client
	h.mu.Unlock()

	h.JoinRoom(client, UserRoom(client.UserID))
	wsConnections.Inc()

	h.log.Info("hub.admit", "user_id", client.UserID, "session_id", client.SessionID)
}

// JoinRoom adds the session to a room, creating the room on first join.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	if h == nil || client == nil || roomID == "" {
		return
	}

	h.mu.Lock()
	room := h.rooms[roomID]
	if room == nil {
		room = NewRoom(h.log, roomID)
		h.rooms[roomID] = room
	}
	set := h.joined[client.SessionID]
	if set == nil {
		set = make(map[string]struct{})
		h.joined[client.SessionID] = set
	}
	set[roomID] = struct{}{}
	h.mu.Unlock()

	room.Join(client)
}

// LeaveRoom removes the session from a room.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	if h == nil || client == nil || roomID == "" {
		return
	}

	h.mu.Lock()
	room := h.rooms[roomID]
	if set := h.joined[client.SessionID]; set != nil {
		delete(set, roomID)
	}
	h.mu.Unlock()

	room.Leave(client.SessionID)
}

// Remove purges a session from every room and from its user's set, then
// signals client shutdown. It is safe to call at any time, including
// concurrently with an in-flight broadcast to that session: broadcast to a
// removed client is a no-op.
func (h *Hub) Remove(client *Client) {
	if h == nil || client == nil {
		return
	}

	h.mu.Lock()
	roomIDs := h.joined[client.SessionID]
	delete(h.joined, client.SessionID)

	var rooms []*Room
	for roomID := range roomIDs {
		if room := h.rooms[roomID]; room != nil {
			rooms = append(rooms, room)
		}
	}
	if sessions := h.byUser[client.UserID]; sessions != nil {
		delete(sessions, client.SessionID)
		if len(sessions) == 0 {
			delete(h.byUser, client.UserID)
		}
	}
	h.mu.Unlock()

	// Membership removal happens before client.Close. This ordering avoids
	// race windows where a broadcaster still holds a pointer while the client
	// goroutines are being torn down.
	for _, room := range rooms {
		room.Leave(client.SessionID)
	}
	client.Close()
	wsConnections.Dec()

	h.log.Info("hub.remove", "user_id", client.UserID, "session_id", client.SessionID)
}

// BroadcastRoom fanouts an envelope to every session in a room exactly once.
// An unknown room is a no-op.
func (h *Hub) BroadcastRoom(roomID string, env v1.Envelope) {
	if h == nil || roomID == "" {
		return
	}

	h.mu.RLock()
	room := h.rooms[roomID]
	h.mu.RUnlock()

	if room == nil {
		return
	}
	wsBroadcasts.Inc()
	room.Broadcast(env)
}

// PushUser delivers an envelope to every live session of a user.
// A user with no live session is a silent no-op.
func (h *Hub) PushUser(userID string, env v1.Envelope) {
	h.BroadcastRoom(UserRoom(userID), env)
}

// ConnectedSessions reports the number of live sessions for a user.
func (h *Hub) ConnectedSessions(userID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}
