package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"swapspot/internal/domain/entity"
	"swapspot/internal/domain/repository"
	"swapspot/internal/infrastructure/ratelimit"
	"swapspot/internal/infrastructure/websocket"
	"swapspot/pkg/errors"
)

type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	swapRepo    repository.SwapRepository
	listingRepo repository.ListingRepository
	rateLimiter *ratelimit.RateLimiter
	manager     *websocket.Manager
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	swapRepo repository.SwapRepository,
	listingRepo repository.ListingRepository,
	rateLimiter *ratelimit.RateLimiter,
	manager *websocket.Manager,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		swapRepo:    swapRepo,
		listingRepo: listingRepo,
		rateLimiter: rateLimiter,
		manager:     manager,
	}
}

// ChatMemberDetail is a membership record joined with the member's profile.
type ChatMemberDetail struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	JoinedAt    time.Time `json:"joined_at"`
}

// MessageRecord is the wire form of a persisted message: the stored record
// with the sender's display name resolved, so clients render without a
// second lookup.
type MessageRecord struct {
	*entity.Message
	SenderName string `json:"sender_name"`
}

// MessageDetail is a message with its swap embedded when the message is a
// swap proposal. The embed reflects the swap's current status, not the
// status at proposal time.
type MessageDetail struct {
	*entity.Message
	Swap *entity.Swap `json:"swap,omitempty"`
}

// ChatDetailsOutput is the full view of one chat: profile-joined members
// and the message history in creation order.
type ChatDetailsOutput struct {
	Chat     *entity.Chat       `json:"chat"`
	Members  []ChatMemberDetail `json:"members"`
	Messages []MessageDetail    `json:"messages"`
}

// ChatSummary is one row of a user's chat list.
type ChatSummary struct {
	ID            string             `json:"id"`
	IsGroup       bool               `json:"is_group"`
	BuildingID    string             `json:"building_id,omitempty"`
	Members       []ChatMemberDetail `json:"members"`
	LastMessage   string             `json:"last_message,omitempty"`
	LastMessageAt time.Time          `json:"last_message_at"`
}

// StartDirectChat returns the 1-on-1 chat between the two users, creating
// it when none exists. The second return value reports whether the chat is
// new. Concurrent starts for the same pair converge on one chat.
func (uc *ChatUseCase) StartDirectChat(ctx context.Context, userID, otherUserID string) (*entity.Chat, bool, error) {
	if allowed, wait := uc.rateLimiter.Allow(userID, "start_chat"); !allowed {
		return nil, false, errors.TooManyRequests("too many new chats, try again later", wait)
	}

	if otherUserID == "" || otherUserID == userID {
		return nil, false, errors.BadRequest("cannot start a chat with yourself", nil)
	}

	if _, err := uc.userRepo.GetByID(ctx, otherUserID); err != nil {
		return nil, false, err
	}

	existing, err := uc.chatRepo.FindDirectChatByMembers(ctx, userID, otherUserID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, false, err
	}

	now := time.Now()
	chat := &entity.Chat{
		IsGroup: false,
		Members: []entity.ChatMember{
			{UserID: userID, Role: entity.MemberRoleDefault, JoinedAt: now},
			{UserID: otherUserID, Role: entity.MemberRoleDefault, JoinedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, false, err
	}

	log.Printf("Chat: direct chat %s created for %s and %s", chat.ID, userID, otherUserID)
	return chat, true, nil
}

// VerifyMembership fails with FORBIDDEN when userID is not a member of the
// chat, and NOT_FOUND when the chat does not exist.
func (uc *ChatUseCase) VerifyMembership(ctx context.Context, chatID, userID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.HasMember(userID) {
		return errors.Forbidden("you are not a member of this chat", nil)
	}
	return nil
}

// GetChatDetails loads a chat with its members and full message history.
// Membership must already be verified by the caller.
func (uc *ChatUseCase) GetChatDetails(ctx context.Context, chatID string) (*ChatDetailsOutput, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}

	messages, _, err := uc.chatRepo.ListMessages(ctx, chatID, 0, 0)
	if err != nil {
		return nil, err
	}

	details := make([]MessageDetail, 0, len(messages))
	for _, msg := range messages {
		detail := MessageDetail{Message: msg}
		if msg.Type == entity.MessageTypeSwapProposal && msg.SwapID != "" {
			swap, err := uc.swapRepo.GetByID(ctx, msg.SwapID)
			if err != nil {
				log.Printf("Chat: failed to embed swap %s in chat %s: %v", msg.SwapID, chatID, err)
			} else {
				detail.Swap = swap
			}
		}
		details = append(details, detail)
	}

	return &ChatDetailsOutput{
		Chat:     chat,
		Members:  uc.memberDetails(ctx, chat.Members),
		Messages: details,
	}, nil
}

// ListChats returns the user's chats ordered by most recent activity.
func (uc *ChatUseCase) ListChats(ctx context.Context, userID string, page, limit int) ([]*ChatSummary, int64, error) {
	offset := (page - 1) * limit
	chats, total, err := uc.chatRepo.ListByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]*ChatSummary, 0, len(chats))
	for _, chat := range chats {
		summaries = append(summaries, &ChatSummary{
			ID:            chat.ID,
			IsGroup:       chat.IsGroup,
			BuildingID:    chat.BuildingID,
			Members:       uc.memberDetails(ctx, chat.Members),
			LastMessage:   chat.LastMessage,
			LastMessageAt: chat.LastMessageAt,
		})
	}
	return summaries, total, nil
}

// ListChatMessages returns one page of a chat's history for a member.
func (uc *ChatUseCase) ListChatMessages(ctx context.Context, chatID, userID string, page, limit int) ([]*entity.Message, int64, error) {
	if err := uc.VerifyMembership(ctx, chatID, userID); err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	return uc.chatRepo.ListMessages(ctx, chatID, limit, offset)
}

// PostMessage validates, persists, and then broadcasts one message. The
// write always lands before any connection hears about it, so every reader
// of the broadcast can immediately fetch the message by id.
func (uc *ChatUseCase) PostMessage(ctx context.Context, chatID, senderID, content, msgType, listingID string) (*entity.Message, error) {
	if allowed, wait := uc.rateLimiter.Allow(senderID, "send_message"); !allowed {
		return nil, errors.TooManyRequests("sending messages too fast, slow down", wait)
	}

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.HasMember(senderID) {
		return nil, errors.Forbidden("you are not a member of this chat", nil)
	}

	if msgType == "" {
		msgType = entity.MessageTypeText
	}
	if !entity.ValidMessageType(msgType) {
		return nil, errors.BadRequest(fmt.Sprintf("unknown message type: %s", msgType), nil)
	}
	if msgType == entity.MessageTypeSwapProposal {
		// Proposal messages are minted by the swap flow, never sent raw.
		return nil, errors.BadRequest("swap proposals are created through the swap endpoint", nil)
	}
	if msgType == entity.MessageTypeText && content == "" {
		return nil, errors.BadRequest("message content is required", nil)
	}
	if msgType == entity.MessageTypeListingCard {
		if listingID == "" {
			return nil, errors.BadRequest("listing id is required for a listing card", nil)
		}
		if _, err := uc.listingRepo.GetByID(ctx, listingID); err != nil {
			return nil, err
		}
	}

	message := &entity.Message{
		ChatID:    chatID,
		SenderID:  senderID,
		Type:      msgType,
		Content:   content,
		ListingID: listingID,
		CreatedAt: time.Now(),
	}
	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	uc.touchChat(ctx, chat, message)
	uc.broadcastMessage(ctx, chat, message)
	return message, nil
}

// JoinBuildingChat adds the user to a building-wide group chat. Joining a
// chat you already belong to is a no-op.
func (uc *ChatUseCase) JoinBuildingChat(ctx context.Context, chatID, userID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsGroup {
		return nil, errors.BadRequest("only group chats can be joined", nil)
	}
	if chat.HasMember(userID) {
		return chat, nil
	}

	member := entity.ChatMember{UserID: userID, Role: entity.MemberRoleDefault, JoinedAt: time.Now()}
	if err := uc.chatRepo.AddMember(ctx, chatID, member); err != nil {
		return nil, err
	}
	chat.Members = append(chat.Members, member)

	uc.manager.BroadcastToRoom(chatID, websocket.NewWireMessage(websocket.EventUserJoined, websocket.UserJoinedPayload{
		UserID: userID,
		ChatID: chatID,
	}))
	return chat, nil
}

// LeaveBuildingChat removes the user's membership and unsubscribes their
// live connections from the room.
func (uc *ChatUseCase) LeaveBuildingChat(ctx context.Context, chatID, userID string) error {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsGroup {
		return errors.BadRequest("only group chats can be left", nil)
	}
	if !chat.HasMember(userID) {
		return errors.Forbidden("you are not a member of this chat", nil)
	}

	if err := uc.chatRepo.RemoveMember(ctx, chatID, userID); err != nil {
		return err
	}
	uc.manager.RemoveUserFromRoom(userID, chatID)
	return nil
}

// ChatDetails adapts GetChatDetails for the socket gateway.
func (uc *ChatUseCase) ChatDetails(ctx context.Context, chatID string) (interface{}, error) {
	details, err := uc.GetChatDetails(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return details, nil
}

// ListUserChats adapts ListChats for the socket gateway, which has no
// pagination controls.
func (uc *ChatUseCase) ListUserChats(ctx context.Context, userID string) (interface{}, error) {
	summaries, _, err := uc.ListChats(ctx, userID, 1, 100)
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

// SendMessage adapts PostMessage for the socket gateway.
func (uc *ChatUseCase) SendMessage(ctx context.Context, input websocket.SendMessageInput) error {
	_, err := uc.PostMessage(ctx, input.ChatID, input.SenderID, input.Content, input.Type, input.ListingID)
	return err
}

func (uc *ChatUseCase) memberDetails(ctx context.Context, members []entity.ChatMember) []ChatMemberDetail {
	details := make([]ChatMemberDetail, 0, len(members))
	for _, m := range members {
		detail := ChatMemberDetail{
			UserID:      m.UserID,
			DisplayName: "Unknown User",
			Role:        m.Role,
			JoinedAt:    m.JoinedAt,
		}
		if user, err := uc.userRepo.GetByID(ctx, m.UserID); err == nil {
			detail.DisplayName = user.DisplayName
		}
		details = append(details, detail)
	}
	return details
}

// touchChat updates the chat's last-message bookkeeping. Failure is logged
// and swallowed, the message itself is already durable.
func (uc *ChatUseCase) touchChat(ctx context.Context, chat *entity.Chat, message *entity.Message) {
	chat.LastMessage = messagePreview(message)
	chat.LastMessageAt = message.CreatedAt
	chat.UpdatedAt = message.CreatedAt
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		log.Printf("Chat: failed to update last message for chat %s: %v", chat.ID, err)
	}
}

func (uc *ChatUseCase) broadcastMessage(ctx context.Context, chat *entity.Chat, message *entity.Message) {
	senderName := "Unknown User"
	if sender, err := uc.userRepo.GetByID(ctx, message.SenderID); err == nil {
		senderName = sender.DisplayName
	}

	record := MessageRecord{Message: message, SenderName: senderName}
	uc.manager.BroadcastNewMessage(chat.ID, chat.MemberIDs(), record, websocket.NotifyMessagePayload{
		ChatID:     chat.ID,
		MessageID:  message.ID,
		SenderID:   message.SenderID,
		SenderName: senderName,
		Type:       message.Type,
		Preview:    messagePreview(message),
	})
}

func messagePreview(message *entity.Message) string {
	switch message.Type {
	case entity.MessageTypeListingCard:
		return "Shared a listing"
	case entity.MessageTypeSwapProposal:
		return "Proposed a swap"
	}
	// Truncate on rune boundaries; a byte slice could split a multi-byte
	// character and produce an invalid preview.
	runes := []rune(message.Content)
	if len(runes) > 80 {
		return string(runes[:77]) + "..."
	}
	return message.Content
}
