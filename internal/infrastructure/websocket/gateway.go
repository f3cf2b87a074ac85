package websocket

import (
	"context"
	"encoding/json"
	"log"

	"swapspot/pkg/errors"
)

// SendMessageInput carries a sendMessage frame into the chat service.
type SendMessageInput struct {
	ChatID    string
	SenderID  string
	Content   string
	Type      string
	ListingID string
}

// ChatService is the slice of the chat use case the gateway dispatches to.
// The use case broadcasts persisted messages itself so the socket and HTTP
// paths share one delivery pipeline.
type ChatService interface {
	VerifyMembership(ctx context.Context, chatID, userID string) error
	ChatDetails(ctx context.Context, chatID string) (interface{}, error)
	ListUserChats(ctx context.Context, userID string) (interface{}, error)
	SendMessage(ctx context.Context, input SendMessageInput) error
}

// SwapService is the slice of the swap use case reachable over the socket.
type SwapService interface {
	Accept(ctx context.Context, swapID, actorID string) error
	Reject(ctx context.Context, swapID, actorID string) error
}

// HandleClientMessage decodes one inbound frame and dispatches it. Every
// failure is reported back on the same connection as an error event; the
// connection itself stays open.
func (m *Manager) HandleClientMessage(c *Client, raw []byte) {
	var event InboundEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		m.SendError(c, "invalid message format")
		return
	}

	if event.Type == EventPing {
		m.SendToClient(c, NewWireMessage(EventPong, nil))
		return
	}

	// Everything past ping acts on behalf of a user. A connection that
	// never identified itself gets refused, reads included.
	if c.UserID == "" {
		m.SendError(c, "authentication required")
		return
	}

	ctx := context.Background()

	switch event.Type {
	case EventJoinChat:
		m.handleJoinChat(ctx, c, event.Data)
	case EventFetchMessages:
		m.handleFetchMessages(ctx, c, event.Data)
	case EventFetchChats:
		m.handleFetchChats(ctx, c, event.Data)
	case EventSendMessage:
		m.handleSendMessage(ctx, c, event.Data)
	case EventAcceptSwap:
		m.handleSwapAction(ctx, c, event.Data, true)
	case EventDeclineSwap:
		m.handleSwapAction(ctx, c, event.Data, false)
	default:
		log.Printf("WebSocket: unknown event type %q from user %q", event.Type, c.UserID)
		m.SendError(c, "unknown event type: "+event.Type)
	}
}

func (m *Manager) handleJoinChat(ctx context.Context, c *Client, data json.RawMessage) {
	var payload JoinChatPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		m.SendError(c, "invalid joinChat payload")
		return
	}
	if payload.UserID != "" && payload.UserID != c.UserID {
		m.SendError(c, "cannot join a chat as another user")
		return
	}

	if err := m.chats.VerifyMembership(ctx, payload.ChatID, c.UserID); err != nil {
		m.sendServiceError(c, err)
		return
	}

	m.registry.JoinRoom(c, payload.ChatID)
	m.BroadcastToRoom(payload.ChatID, NewWireMessage(EventUserJoined, UserJoinedPayload{
		UserID: c.UserID,
		ChatID: payload.ChatID,
	}))
}

func (m *Manager) handleFetchMessages(ctx context.Context, c *Client, data json.RawMessage) {
	var payload FetchMessagesPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		m.SendError(c, "invalid fetchMessages payload")
		return
	}

	if err := m.chats.VerifyMembership(ctx, payload.ChatID, c.UserID); err != nil {
		m.sendServiceError(c, err)
		return
	}

	details, err := m.chats.ChatDetails(ctx, payload.ChatID)
	if err != nil {
		m.sendServiceError(c, err)
		return
	}
	m.SendToClient(c, NewWireMessage(EventChatDetails, details))
}

func (m *Manager) handleFetchChats(ctx context.Context, c *Client, data json.RawMessage) {
	var payload FetchChatsPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		m.SendError(c, "invalid fetchChats payload")
		return
	}
	if payload.UserID != "" && payload.UserID != c.UserID {
		m.SendError(c, "cannot fetch chats for another user")
		return
	}

	chats, err := m.chats.ListUserChats(ctx, c.UserID)
	if err != nil {
		m.sendServiceError(c, err)
		return
	}
	m.SendToClient(c, NewWireMessage(EventChatList, chats))
}

func (m *Manager) handleSendMessage(ctx context.Context, c *Client, data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ChatID == "" {
		m.SendError(c, "invalid sendMessage payload")
		return
	}
	if payload.SenderID != "" && payload.SenderID != c.UserID {
		m.SendError(c, "cannot send a message as another user")
		return
	}

	err := m.chats.SendMessage(ctx, SendMessageInput{
		ChatID:    payload.ChatID,
		SenderID:  c.UserID,
		Content:   payload.Content,
		Type:      payload.Type,
		ListingID: payload.ListingID,
	})
	if err != nil {
		m.sendServiceError(c, err)
	}
}

func (m *Manager) handleSwapAction(ctx context.Context, c *Client, data json.RawMessage, accept bool) {
	var payload SwapActionPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.SwapID == "" {
		m.SendError(c, "invalid swap payload")
		return
	}
	if payload.UserID != "" && payload.UserID != c.UserID {
		m.SendError(c, "cannot act on a swap as another user")
		return
	}

	var err error
	if accept {
		err = m.swaps.Accept(ctx, payload.SwapID, c.UserID)
	} else {
		err = m.swaps.Reject(ctx, payload.SwapID, c.UserID)
	}
	if err != nil {
		m.sendServiceError(c, err)
	}
}

// sendServiceError surfaces a use case failure as an error event, keeping
// the AppError message when there is one.
func (m *Manager) sendServiceError(c *Client, err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		m.SendError(c, appErr.Message)
		return
	}
	log.Printf("WebSocket: internal error for user %q: %v", c.UserID, err)
	m.SendError(c, "internal server error")
}
