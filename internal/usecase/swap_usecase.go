package usecase

import (
	"context"
	"crypto/rand"
	"log"
	"time"

	"swapspot/internal/domain/entity"
	"swapspot/internal/domain/repository"
	"swapspot/internal/infrastructure/ratelimit"
	"swapspot/internal/infrastructure/websocket"
	"swapspot/pkg/errors"
	"swapspot/pkg/logger"
)

type SwapUseCase struct {
	swapRepo    repository.SwapRepository
	chatRepo    repository.ChatRepository
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	rateLimiter *ratelimit.RateLimiter
	manager     *websocket.Manager
}

func NewSwapUseCase(
	swapRepo repository.SwapRepository,
	chatRepo repository.ChatRepository,
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	rateLimiter *ratelimit.RateLimiter,
	manager *websocket.Manager,
) *SwapUseCase {
	return &SwapUseCase{
		swapRepo:    swapRepo,
		chatRepo:    chatRepo,
		listingRepo: listingRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
		manager:     manager,
	}
}

type ProposeSwapInput struct {
	ListingAID  string
	ListingBID  string
	PartialCash float64
	PickupTime  time.Time
	Note        string
}

type ProposeSwapOutput struct {
	Swap   *entity.Swap `json:"swap"`
	ChatID string       `json:"chat_id"`
}

// Propose creates a pending swap between the proposer's listing and the
// recipient's, anchors it as a swapProposal message in their 1-on-1 chat,
// and returns both ids. The recipient is whoever owns the target listing.
func (uc *SwapUseCase) Propose(ctx context.Context, proposerID string, input ProposeSwapInput) (*ProposeSwapOutput, error) {
	if allowed, wait := uc.rateLimiter.Allow(proposerID, "propose_swap"); !allowed {
		return nil, errors.TooManyRequests("too many swap proposals, try again later", wait)
	}

	if input.ListingAID == "" || input.ListingBID == "" {
		return nil, errors.BadRequest("both listing ids are required", nil)
	}
	if input.ListingAID == input.ListingBID {
		return nil, errors.BadRequest("cannot swap a listing for itself", nil)
	}
	if input.PickupTime.IsZero() {
		return nil, errors.BadRequest("pickup time is required", nil)
	}
	if input.PartialCash < 0 {
		return nil, errors.BadRequest("partial cash cannot be negative", nil)
	}

	offered, err := uc.listingRepo.GetByID(ctx, input.ListingAID)
	if err != nil {
		return nil, err
	}
	wanted, err := uc.listingRepo.GetByID(ctx, input.ListingBID)
	if err != nil {
		return nil, err
	}

	if offered.OwnerID != proposerID {
		return nil, errors.Forbidden("you can only offer your own listing", nil)
	}
	if wanted.OwnerID == proposerID {
		return nil, errors.BadRequest("cannot propose a swap with yourself", nil)
	}

	if existing, err := uc.swapRepo.FindPendingByListings(ctx, input.ListingAID, input.ListingBID); err == nil && existing != nil {
		return nil, errors.Conflict("a pending swap for these listings already exists")
	} else if err != nil && !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	// The chat comes first so a swap never exists without a conversation
	// to anchor its proposal message in.
	chat, err := uc.directChatFor(ctx, proposerID, wanted.OwnerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	swap := &entity.Swap{
		ListingAID:  input.ListingAID,
		ListingBID:  input.ListingBID,
		ProposerID:  proposerID,
		RecipientID: wanted.OwnerID,
		Status:      entity.SwapStatusPending,
		PartialCash: input.PartialCash,
		PickupTime:  input.PickupTime,
		Note:        input.Note,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.swapRepo.Create(ctx, swap); err != nil {
		return nil, err
	}

	message := &entity.Message{
		ChatID:    chat.ID,
		SenderID:  proposerID,
		Type:      entity.MessageTypeSwapProposal,
		SwapID:    swap.ID,
		CreatedAt: time.Now(),
	}
	if err := uc.chatRepo.CreateMessage(ctx, message); err != nil {
		return nil, err
	}

	chat.LastMessage = "Proposed a swap"
	chat.LastMessageAt = message.CreatedAt
	chat.UpdatedAt = message.CreatedAt
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		log.Printf("Swap: failed to update last message for chat %s: %v", chat.ID, err)
	}

	senderName := "Unknown User"
	if sender, err := uc.userRepo.GetByID(ctx, proposerID); err == nil {
		senderName = sender.DisplayName
	}
	record := MessageRecord{Message: message, SenderName: senderName}
	uc.manager.BroadcastNewMessage(chat.ID, chat.MemberIDs(), record, websocket.NotifyMessagePayload{
		ChatID:     chat.ID,
		MessageID:  message.ID,
		SenderID:   proposerID,
		SenderName: senderName,
		Type:       message.Type,
		Preview:    "Proposed a swap",
	})

	log.Printf("Swap: %s proposed swap %s to %s", proposerID, swap.ID, swap.RecipientID)
	return &ProposeSwapOutput{Swap: swap, ChatID: chat.ID}, nil
}

// AcceptSwap moves a pending swap to accepted. Only the recipient may
// accept; a lost race against decline surfaces as an invalid transition.
func (uc *SwapUseCase) AcceptSwap(ctx context.Context, swapID, actorID string) (*entity.Swap, error) {
	return uc.resolvePending(ctx, swapID, actorID, "accept", entity.SwapStatusAccepted)
}

// RejectSwap moves a pending swap to rejected, a terminal state. Only the
// recipient may reject.
func (uc *SwapUseCase) RejectSwap(ctx context.Context, swapID, actorID string) (*entity.Swap, error) {
	return uc.resolvePending(ctx, swapID, actorID, "decline", entity.SwapStatusRejected)
}

func (uc *SwapUseCase) resolvePending(ctx context.Context, swapID, actorID, action, next string) (*entity.Swap, error) {
	swap, err := uc.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.RecipientID != actorID {
		return nil, errors.Forbidden("only the swap recipient can respond to a proposal", nil)
	}

	updated, err := uc.swapRepo.UpdateStatus(ctx, swapID, entity.SwapStatusPending, next, repository.StatusUpdate{})
	if err != nil {
		return nil, uc.mapTransitionError(swapID, action, err)
	}

	log.Printf("Swap: %s %sed swap %s", actorID, action, swapID)
	uc.broadcastSwapUpdated(ctx, updated)
	return updated, nil
}

// GenerateCode mints an 8-character confirmation code and moves the swap
// from accepted to inProgress. The code goes only to the recipient, who
// reveals it to the proposer at the physical handover.
func (uc *SwapUseCase) GenerateCode(ctx context.Context, swapID, actorID string) (*entity.Swap, string, error) {
	swap, err := uc.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, "", err
	}
	if swap.RecipientID != actorID {
		return nil, "", errors.Forbidden("only the swap recipient can generate the code", nil)
	}

	code, err := generateConfirmationCode()
	if err != nil {
		return nil, "", errors.Internal("failed to generate confirmation code", err)
	}

	updated, err := uc.swapRepo.UpdateStatus(ctx, swapID, entity.SwapStatusAccepted, entity.SwapStatusInProgress,
		repository.StatusUpdate{ConfirmationCode: &code})
	if err != nil {
		return nil, "", uc.mapTransitionError(swapID, "start", err)
	}

	log.Printf("Swap: confirmation code generated for swap %s", swapID)
	uc.broadcastSwapUpdated(ctx, updated)
	return updated, code, nil
}

// CompleteSwap finishes an inProgress swap. Only the proposer may complete,
// and only with the exact code the recipient generated. The code is cleared
// on completion so it can never be replayed.
func (uc *SwapUseCase) CompleteSwap(ctx context.Context, swapID, actorID, code string) (*entity.Swap, error) {
	swap, err := uc.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.ProposerID != actorID {
		return nil, errors.Forbidden("only the swap proposer can complete the swap", nil)
	}
	if swap.Status != entity.SwapStatusInProgress {
		return nil, errors.InvalidTransition("complete", swap.Status)
	}
	if code == "" || code != swap.ConfirmationCode {
		return nil, errors.BadRequest("invalid confirmation code", nil)
	}

	cleared := ""
	updated, err := uc.swapRepo.UpdateStatus(ctx, swapID, entity.SwapStatusInProgress, entity.SwapStatusCompleted,
		repository.StatusUpdate{ConfirmationCode: &cleared})
	if err != nil {
		return nil, uc.mapTransitionError(swapID, "complete", err)
	}

	log.Printf("Swap: swap %s completed", swapID)
	uc.broadcastSwapUpdated(ctx, updated)
	return updated, nil
}

// ListForUser returns every swap the user is a party to, optionally
// filtered by status.
func (uc *SwapUseCase) ListForUser(ctx context.Context, userID, statusFilter string) ([]*entity.Swap, error) {
	if statusFilter != "" {
		switch statusFilter {
		case entity.SwapStatusPending, entity.SwapStatusAccepted, entity.SwapStatusRejected,
			entity.SwapStatusInProgress, entity.SwapStatusCompleted:
		default:
			return nil, errors.BadRequest("unknown status filter: "+statusFilter, nil)
		}
	}
	return uc.swapRepo.ListByUserID(ctx, userID, statusFilter)
}

// GetSwap returns a swap visible only to its two parties.
func (uc *SwapUseCase) GetSwap(ctx context.Context, swapID, userID string) (*entity.Swap, error) {
	swap, err := uc.swapRepo.GetByID(ctx, swapID)
	if err != nil {
		return nil, err
	}
	if swap.ProposerID != userID && swap.RecipientID != userID {
		return nil, errors.Forbidden("you are not a party to this swap", nil)
	}
	return swap, nil
}

// Accept adapts AcceptSwap for the socket gateway.
func (uc *SwapUseCase) Accept(ctx context.Context, swapID, actorID string) error {
	_, err := uc.AcceptSwap(ctx, swapID, actorID)
	return err
}

// Reject adapts RejectSwap for the socket gateway.
func (uc *SwapUseCase) Reject(ctx context.Context, swapID, actorID string) error {
	_, err := uc.RejectSwap(ctx, swapID, actorID)
	return err
}

func (uc *SwapUseCase) mapTransitionError(swapID, action string, err error) error {
	if pre, ok := err.(*repository.PreconditionError); ok {
		logger.Warn("Swap %s: %s lost to a concurrent update, status is %s", swapID, action, pre.CurrentStatus)
		return errors.InvalidTransition(action, pre.CurrentStatus)
	}
	logger.LogSwapError(swapID, action, err)
	return err
}

// broadcastSwapUpdated pushes the transition into the parties' shared chat
// room and to the personal channel of any party not currently viewing it.
func (uc *SwapUseCase) broadcastSwapUpdated(ctx context.Context, swap *entity.Swap) {
	chatID := ""
	if chat, err := uc.chatRepo.FindDirectChatByMembers(ctx, swap.ProposerID, swap.RecipientID); err == nil {
		chatID = chat.ID
	}

	msg := websocket.NewWireMessage(websocket.EventSwapUpdated, websocket.SwapUpdatedPayload{
		ChatID: chatID,
		Swap:   swap,
	})
	if chatID != "" {
		uc.manager.BroadcastToRoom(chatID, msg)
	}
	for _, userID := range []string{swap.ProposerID, swap.RecipientID} {
		if chatID != "" && uc.manager.Registry().IsUserInRoom(userID, chatID) {
			continue
		}
		uc.manager.SendToUser(userID, msg)
	}
}

func (uc *SwapUseCase) directChatFor(ctx context.Context, userID1, userID2 string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.FindDirectChatByMembers(ctx, userID1, userID2)
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	now := time.Now()
	chat = &entity.Chat{
		IsGroup: false,
		Members: []entity.ChatMember{
			{UserID: userID1, Role: entity.MemberRoleDefault, JoinedAt: now},
			{UserID: userID2, Role: entity.MemberRoleDefault, JoinedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.chatRepo.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

const confirmationCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const confirmationCodeLength = 8

func generateConfirmationCode() (string, error) {
	buf := make([]byte, confirmationCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := make([]byte, confirmationCodeLength)
	for i, b := range buf {
		code[i] = confirmationCodeAlphabet[int(b)%len(confirmationCodeAlphabet)]
	}
	return string(code), nil
}
