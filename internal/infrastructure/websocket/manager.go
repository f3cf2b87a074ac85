package websocket

import (
	"encoding/json"
	"log"
)

// Manager owns the connection registry and all fan-out. Delivery is
// fire-and-forget per subscriber: a slow client gets dropped, it never
// blocks the room.
type Manager struct {
	registry *Registry

	chats ChatService
	swaps SwapService
}

func NewManager() *Manager {
	return &Manager{
		registry: NewRegistry(),
	}
}

// AttachServices wires the use cases the gateway dispatches to. Called once
// during startup; the services themselves hold the manager for fan-out, so
// construction happens in two steps.
func (m *Manager) AttachServices(chats ChatService, swaps SwapService) {
	m.chats = chats
	m.swaps = swaps
}

// Registry exposes the registry for presence checks by use cases.
func (m *Manager) Registry() *Registry {
	return m.registry
}

func (m *Manager) Register(c *Client) {
	m.registry.Register(c)
	log.Printf("WebSocket: client registered, user=%q", c.UserID)
}

// Deregister is idempotent; the read pump calls it once on transport close.
func (m *Manager) Deregister(c *Client) {
	m.registry.Deregister(c)
	log.Printf("WebSocket: client deregistered, user=%q", c.UserID)
}

// SendToClient queues a message on one connection, dropping the connection
// when its buffer is full. Fan-out runs concurrently from many goroutines,
// so the drop path never closes the send channel; it marks the client dead
// and closes the transport, and the pumps unwind from there.
func (m *Manager) SendToClient(c *Client, msg WireMessage) {
	if c.Dropped() {
		return
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("WebSocket: failed to marshal %s message: %v", msg.Type, err)
		return
	}

	select {
	case c.Send <- payload:
	default:
		log.Printf("WebSocket: send buffer full for user %q, dropping connection", c.UserID)
		m.registry.Deregister(c)
		c.Drop()
	}
}

// SendError emits a scoped error event to one connection.
func (m *Manager) SendError(c *Client, message string) {
	m.SendToClient(c, NewWireMessage(EventError, ErrorPayload{Message: message}))
}

// SendToUser delivers to every live connection of a user (the personal
// channel).
func (m *Manager) SendToUser(userID string, msg WireMessage) {
	for _, c := range m.registry.UserClients(userID) {
		m.SendToClient(c, msg)
	}
}

// RemoveUserFromRoom drops every connection of a user from a room, used
// when the user's membership ends while they are subscribed.
func (m *Manager) RemoveUserFromRoom(userID, roomID string) {
	for _, c := range m.registry.UserClients(userID) {
		m.registry.LeaveRoom(c, roomID)
	}
}

// BroadcastToRoom delivers to every connection subscribed to roomID.
func (m *Manager) BroadcastToRoom(roomID string, msg WireMessage) {
	for _, c := range m.registry.RoomClients(roomID) {
		m.SendToClient(c, msg)
	}
}

// BroadcastNewMessage fans a persisted message out: the full record to every
// connection subscribed to the chat, and a lightweight notifyMessage to each
// member who is connected but not viewing the chat. A member never receives
// both for the same message.
func (m *Manager) BroadcastNewMessage(chatID string, memberIDs []string, record interface{}, notify NotifyMessagePayload) {
	m.BroadcastToRoom(chatID, NewWireMessage(EventNewMessage, record))

	notifyMsg := NewWireMessage(EventNotifyMessage, notify)
	for _, memberID := range memberIDs {
		if memberID == notify.SenderID {
			continue
		}
		if !m.registry.IsConnected(memberID) || m.registry.IsUserInRoom(memberID, chatID) {
			continue
		}
		m.SendToUser(memberID, notifyMsg)
	}
}
