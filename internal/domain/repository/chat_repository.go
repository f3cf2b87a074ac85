package repository

import (
	"context"

	"swapspot/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error)
	Update(ctx context.Context, chat *entity.Chat) error

	// FindDirectChatByMembers returns the 1-on-1 chat holding exactly the
	// given unordered pair, or NOT_FOUND.
	FindDirectChatByMembers(ctx context.Context, userID1, userID2 string) (*entity.Chat, error)

	AddMember(ctx context.Context, chatID string, member entity.ChatMember) error
	RemoveMember(ctx context.Context, chatID, userID string) error

	// Message methods
	CreateMessage(ctx context.Context, message *entity.Message) error
	ListMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error)
	LatestMessage(ctx context.Context, chatID string) (*entity.Message, error)
}
