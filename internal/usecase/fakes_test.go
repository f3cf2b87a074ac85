package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"swapspot/internal/domain/entity"
	"swapspot/internal/domain/repository"
	"swapspot/pkg/errors"
)

// In-memory repositories with the same contract as the Firestore adapters,
// including the compare-and-set semantics of UpdateStatus.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*entity.User)}
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*entity.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: make(map[string]*entity.Listing)}
}

func (r *fakeListingRepo) add(listing *entity.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[listing.ID] = listing
}

func (r *fakeListingRepo) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	listing, ok := r.listings[id]
	if !ok {
		return nil, errors.NotFound("Listing", nil)
	}
	copied := *listing
	return &copied, nil
}

type fakeChatRepo struct {
	mu        sync.Mutex
	chats     map[string]*entity.Chat
	messages  map[string][]*entity.Message
	createErr error
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{
		chats:    make(map[string]*entity.Chat),
		messages: make(map[string][]*entity.Message),
	}
}

func (r *fakeChatRepo) Create(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	copied := *chat
	r.chats[chat.ID] = &copied
	return nil
}

func (r *fakeChatRepo) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[id]
	if !ok {
		return nil, errors.NotFound("Chat", nil)
	}
	copied := *chat
	return &copied, nil
}

func (r *fakeChatRepo) ListByUserID(ctx context.Context, userID string, limit, offset int) ([]*entity.Chat, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Chat
	for _, chat := range r.chats {
		if chat.HasMember(userID) {
			copied := *chat
			result = append(result, &copied)
		}
	}
	return result, int64(len(result)), nil
}

func (r *fakeChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.chats[chat.ID]; !ok {
		return errors.NotFound("Chat", nil)
	}
	copied := *chat
	r.chats[chat.ID] = &copied
	return nil
}

func (r *fakeChatRepo) FindDirectChatByMembers(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, chat := range r.chats {
		if !chat.IsGroup && len(chat.Members) == 2 && chat.HasMember(userID1) && chat.HasMember(userID2) {
			copied := *chat
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Chat", nil)
}

func (r *fakeChatRepo) AddMember(ctx context.Context, chatID string, member entity.ChatMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	chat.Members = append(chat.Members, member)
	return nil
}

func (r *fakeChatRepo) RemoveMember(ctx context.Context, chatID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	chat, ok := r.chats[chatID]
	if !ok {
		return errors.NotFound("Chat", nil)
	}
	members := chat.Members[:0]
	for _, m := range chat.Members {
		if m.UserID != userID {
			members = append(members, m)
		}
	}
	chat.Members = members
	return nil
}

func (r *fakeChatRepo) CreateMessage(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	copied := *message
	r.messages[message.ChatID] = append(r.messages[message.ChatID], &copied)
	return nil
}

func (r *fakeChatRepo) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[chatID]
	result := make([]*entity.Message, 0, len(all))
	for _, msg := range all {
		copied := *msg
		result = append(result, &copied)
	}
	total := int64(len(result))
	if offset > 0 {
		if offset >= len(result) {
			return nil, total, nil
		}
		result = result[offset:]
	}
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, total, nil
}

func (r *fakeChatRepo) LatestMessage(ctx context.Context, chatID string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.messages[chatID]
	if len(all) == 0 {
		return nil, errors.NotFound("Message", nil)
	}
	copied := *all[len(all)-1]
	return &copied, nil
}

type fakeSwapRepo struct {
	mu    sync.Mutex
	swaps map[string]*entity.Swap
}

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{swaps: make(map[string]*entity.Swap)}
}

func (r *fakeSwapRepo) Create(ctx context.Context, swap *entity.Swap) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if swap.ID == "" {
		swap.ID = uuid.New().String()
	}
	copied := *swap
	r.swaps[swap.ID] = &copied
	return nil
}

func (r *fakeSwapRepo) GetByID(ctx context.Context, id string) (*entity.Swap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	swap, ok := r.swaps[id]
	if !ok {
		return nil, errors.NotFound("Swap", nil)
	}
	copied := *swap
	return &copied, nil
}

func (r *fakeSwapRepo) ListByUserID(ctx context.Context, userID, statusFilter string) ([]*entity.Swap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*entity.Swap
	for _, swap := range r.swaps {
		if swap.ProposerID != userID && swap.RecipientID != userID {
			continue
		}
		if statusFilter != "" && swap.Status != statusFilter {
			continue
		}
		copied := *swap
		result = append(result, &copied)
	}
	return result, nil
}

func (r *fakeSwapRepo) FindPendingByListings(ctx context.Context, listingAID, listingBID string) (*entity.Swap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, swap := range r.swaps {
		if swap.Status != entity.SwapStatusPending {
			continue
		}
		samePair := (swap.ListingAID == listingAID && swap.ListingBID == listingBID) ||
			(swap.ListingAID == listingBID && swap.ListingBID == listingAID)
		if samePair {
			copied := *swap
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Swap", nil)
}

func (r *fakeSwapRepo) UpdateStatus(ctx context.Context, id, expected, next string, update repository.StatusUpdate) (*entity.Swap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	swap, ok := r.swaps[id]
	if !ok {
		return nil, errors.NotFound("Swap", nil)
	}
	if swap.Status != expected {
		return nil, &repository.PreconditionError{CurrentStatus: swap.Status}
	}
	swap.Status = next
	if update.ConfirmationCode != nil {
		swap.ConfirmationCode = *update.ConfirmationCode
	}
	if next == entity.SwapStatusCompleted {
		now := time.Now()
		swap.CompletedAt = &now
	}
	swap.UpdatedAt = time.Now()
	copied := *swap
	return &copied, nil
}
