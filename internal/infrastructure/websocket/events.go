package websocket

import (
	"encoding/json"
	"time"
)

// Inbound event types
const (
	EventPing          = "ping"
	EventJoinChat      = "joinChat"
	EventFetchMessages = "fetchMessages"
	EventFetchChats    = "fetchChats"
	EventSendMessage   = "sendMessage"
	EventAcceptSwap    = "acceptSwap"
	EventDeclineSwap   = "declineSwap"
)

// Outbound event types
const (
	EventPong          = "pong"
	EventUserJoined    = "userJoined"
	EventChatDetails   = "chatDetails"
	EventChatList      = "chatList"
	EventNewMessage    = "newMessage"
	EventNotifyMessage = "notifyMessage"
	EventSwapUpdated   = "swapUpdated"
	EventError         = "error"
)

// InboundEvent is the envelope every client frame carries. Data stays raw
// until the per-event handler knows which payload to decode.
type InboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// WireMessage is the outbound envelope.
type WireMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewWireMessage(eventType string, data interface{}) WireMessage {
	return WireMessage{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// Inbound payloads

type JoinChatPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type FetchMessagesPayload struct {
	ChatID string `json:"chatId"`
}

type FetchChatsPayload struct {
	UserID string `json:"userId"`
}

type SendMessagePayload struct {
	ChatID    string `json:"chatId"`
	SenderID  string `json:"senderId"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	ListingID string `json:"listingId,omitempty"`
}

type SwapActionPayload struct {
	SwapID string `json:"swapId"`
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}

// Outbound payloads

type UserJoinedPayload struct {
	UserID string `json:"userId"`
	ChatID string `json:"chatId"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// SwapUpdatedPayload announces a lifecycle transition. Swap carries the
// full record so clients can re-render proposal cards without a refetch.
type SwapUpdatedPayload struct {
	ChatID string      `json:"chatId,omitempty"`
	Swap   interface{} `json:"swap"`
}

// NotifyMessagePayload is the lightweight out-of-room notification pushed
// to a member's personal channel.
type NotifyMessagePayload struct {
	ChatID     string `json:"chatId"`
	MessageID  string `json:"messageId"`
	SenderID   string `json:"senderId"`
	SenderName string `json:"senderName"`
	Type       string `json:"messageType"`
	Preview    string `json:"preview"`
}
