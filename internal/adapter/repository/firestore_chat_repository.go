package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"swapspot/internal/domain/entity"
	"swapspot/internal/domain/repository"
	"swapspot/pkg/errors"
)

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{
		client: client,
	}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}

	now := time.Now()
	chat.CreatedAt = now
	chat.UpdatedAt = now

	// memberIds is a flat index field so membership queries don't have to
	// unpack the embedded member records
	data := chatDoc(chat)

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, data)
	if err != nil {
		return errors.Internal("Failed to create chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection("chats").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Chat", nil)
		}
		return nil, errors.Internal("Failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, errors.Internal("Failed to parse chat data", err)
	}

	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	query := r.client.Collection("chats").Where("memberIds", "array-contains", userID).OrderBy("updatedAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while fetching chats for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch chats", err)
	}

	total := int64(len(allDocs))

	// Pagination applied in-memory; chat counts per user stay small
	start := offset
	end := len(allDocs)
	if limit > 0 {
		end = start + limit
		if end > len(allDocs) {
			end = len(allDocs)
		}
	}
	if start > len(allDocs) {
		start = len(allDocs)
	}

	var chats []*entity.Chat
	for i := start; i < end; i++ {
		var chat entity.Chat
		if err := allDocs[i].DataTo(&chat); err != nil {
			log.Printf("Error parsing chat data for user %s: %v", userID, err)
			continue // Skip bad data instead of failing
		}
		chats = append(chats, &chat)
	}

	return chats, total, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	chat.UpdatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(chat.ID).Set(ctx, chatDoc(chat))
	if err != nil {
		return errors.Internal("Failed to update chat", err)
	}

	return nil
}

func (r *firestoreChatRepository) FindDirectChatByMembers(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	query := r.client.Collection("chats").
		Where("isGroup", "==", false).
		Where("memberIds", "array-contains", userID1)

	iter := query.Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to query direct chats", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			continue // Skip malformed documents
		}

		if len(chat.Members) == 2 && chat.HasMember(userID2) {
			return &chat, nil
		}
	}

	return nil, errors.NotFound("Direct chat", nil)
}

func (r *firestoreChatRepository) AddMember(ctx context.Context, chatID string, member entity.ChatMember) error {
	chat, err := r.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	if chat.HasMember(member.UserID) {
		return nil // Already a member
	}

	chat.Members = append(chat.Members, member)
	return r.Update(ctx, chat)
}

func (r *firestoreChatRepository) RemoveMember(ctx context.Context, chatID, userID string) error {
	chat, err := r.GetByID(ctx, chatID)
	if err != nil {
		return err
	}

	members := chat.Members[:0]
	for _, m := range chat.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	chat.Members = members

	return r.Update(ctx, chat)
}

func (r *firestoreChatRepository) CreateMessage(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}

	message.CreatedAt = time.Now()

	_, err := r.client.Collection("chats").Doc(message.ChatID).Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreChatRepository) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").OrderBy("createdAt", firestore.Asc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		log.Printf("Firestore error while counting messages for chat %s: %v", chatID, err)
		return nil, 0, errors.Internal("Failed to count messages for chat", err)
	}
	total := int64(len(countDocs))

	if offset > 0 {
		query = query.Offset(offset)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("Firestore error while iterating messages for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			log.Printf("Error parsing message data for chat %s: %v", chatID, err)
			return nil, 0, errors.Internal("Failed to parse message data", err)
		}

		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreChatRepository) LatestMessage(ctx context.Context, chatID string) (*entity.Message, error) {
	query := r.client.Collection("chats").Doc(chatID).Collection("messages").
		OrderBy("createdAt", firestore.Desc).Limit(1)

	iter := query.Documents(ctx)
	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Message", nil)
		}
		return nil, errors.Internal("Failed to query latest message", err)
	}

	var message entity.Message
	if err := doc.DataTo(&message); err != nil {
		return nil, errors.Internal("Failed to parse message data", err)
	}

	return &message, nil
}

// chatDoc flattens a chat for storage, adding the memberIds index field.
func chatDoc(chat *entity.Chat) map[string]interface{} {
	return map[string]interface{}{
		"id":            chat.ID,
		"isGroup":       chat.IsGroup,
		"buildingId":    chat.BuildingID,
		"members":       chat.Members,
		"memberIds":     chat.MemberIDs(),
		"lastMessage":   chat.LastMessage,
		"lastMessageAt": chat.LastMessageAt,
		"createdAt":     chat.CreatedAt,
		"updatedAt":     chat.UpdatedAt,
	}
}
