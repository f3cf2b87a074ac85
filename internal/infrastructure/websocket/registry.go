package websocket

import "sync"

// Registry tracks which users have live connections and which room each
// connection is viewing. It is owned by a Manager instance, never process
// global, so tests can build isolated registries. A user may hold several
// simultaneous connections (multiple devices); each is tracked separately.
//
// State is purely in-memory: on restart clients reconnect, re-announce
// their identity and re-join rooms.
type Registry struct {
	mu          sync.RWMutex
	users       map[string]map[*Client]struct{}
	rooms       map[string]map[*Client]struct{}
	clientRooms map[*Client]map[string]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		users:       make(map[string]map[*Client]struct{}),
		rooms:       make(map[string]map[*Client]struct{}),
		clientRooms: make(map[*Client]map[string]struct{}),
	}
}

// Register associates a connection with its user identity. Anonymous
// connections (empty UserID) are tracked for room fan-out only.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c.UserID != "" {
		if r.users[c.UserID] == nil {
			r.users[c.UserID] = make(map[*Client]struct{})
		}
		r.users[c.UserID][c] = struct{}{}
	}
	if r.clientRooms[c] == nil {
		r.clientRooms[c] = make(map[string]struct{})
	}
}

// JoinRoom records that the connection is actively viewing roomID.
func (r *Registry) JoinRoom(c *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomID] == nil {
		r.rooms[roomID] = make(map[*Client]struct{})
	}
	r.rooms[roomID][c] = struct{}{}

	if r.clientRooms[c] == nil {
		r.clientRooms[c] = make(map[string]struct{})
	}
	r.clientRooms[c][roomID] = struct{}{}
}

// LeaveRoom drops the connection's subscription to roomID.
func (r *Registry) LeaveRoom(c *Client, roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(c, roomID)
}

// Deregister removes every room and user association for a closing
// connection. Safe to call more than once.
func (r *Registry) Deregister(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID := range r.clientRooms[c] {
		r.removeFromRoom(c, roomID)
	}
	delete(r.clientRooms, c)

	if c.UserID != "" {
		if set, ok := r.users[c.UserID]; ok {
			delete(set, c)
			if len(set) == 0 {
				delete(r.users, c.UserID)
			}
		}
	}
}

// RoomClients snapshots the connections subscribed to roomID.
func (r *Registry) RoomClients(roomID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.rooms[roomID]))
	for c := range r.rooms[roomID] {
		clients = append(clients, c)
	}
	return clients
}

// UserClients snapshots every live connection for a user.
func (r *Registry) UserClients(userID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clients := make([]*Client, 0, len(r.users[userID]))
	for c := range r.users[userID] {
		clients = append(clients, c)
	}
	return clients
}

// IsUserInRoom reports whether any of the user's connections is currently
// subscribed to roomID.
func (r *Registry) IsUserInRoom(userID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for c := range r.users[userID] {
		if _, ok := r.clientRooms[c][roomID]; ok {
			return true
		}
	}
	return false
}

// IsConnected reports whether the user has at least one live connection.
func (r *Registry) IsConnected(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users[userID]) > 0
}

// caller must hold r.mu
func (r *Registry) removeFromRoom(c *Client, roomID string) {
	if set, ok := r.rooms[roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(r.rooms, roomID)
		}
	}
	if rooms, ok := r.clientRooms[c]; ok {
		delete(rooms, roomID)
	}
}
