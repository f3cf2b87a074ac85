package usecase

import (
	"context"
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapspot/internal/domain/entity"
	"swapspot/internal/infrastructure/ratelimit"
	"swapspot/internal/infrastructure/websocket"
	"swapspot/pkg/errors"
)

type swapFixture struct {
	uc       *SwapUseCase
	chats    *ChatUseCase
	swapRepo *fakeSwapRepo
	chatRepo *fakeChatRepo
	manager  *websocket.Manager
}

func newSwapFixture(t *testing.T) *swapFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	chatRepo := newFakeChatRepo()
	swapRepo := newFakeSwapRepo()
	listingRepo := newFakeListingRepo()
	limiter := ratelimit.NewRateLimiter()
	manager := websocket.NewManager()

	userRepo.Upsert(context.Background(), &entity.User{ID: "alice", DisplayName: "Alice"})
	userRepo.Upsert(context.Background(), &entity.User{ID: "bob", DisplayName: "Bob"})
	listingRepo.add(&entity.Listing{ID: "bike", OwnerID: "alice", Title: "City bike"})
	listingRepo.add(&entity.Listing{ID: "desk", OwnerID: "bob", Title: "Standing desk"})
	listingRepo.add(&entity.Listing{ID: "lamp", OwnerID: "alice", Title: "Floor lamp"})

	chats := NewChatUseCase(chatRepo, userRepo, swapRepo, listingRepo, limiter, manager)
	uc := NewSwapUseCase(swapRepo, chatRepo, listingRepo, userRepo, limiter, manager)
	manager.AttachServices(chats, uc)

	return &swapFixture{uc: uc, chats: chats, swapRepo: swapRepo, chatRepo: chatRepo, manager: manager}
}

func (f *swapFixture) connect(userID string) *websocket.Client {
	c := &websocket.Client{UserID: userID, Send: make(chan []byte, 16)}
	f.manager.Register(c)
	return c
}

func receivedTypes(t *testing.T, c *websocket.Client) []string {
	t.Helper()
	var types []string
	for {
		select {
		case raw := <-c.Send:
			var msg websocket.WireMessage
			require.NoError(t, json.Unmarshal(raw, &msg))
			types = append(types, msg.Type)
		default:
			return types
		}
	}
}

func (f *swapFixture) propose(t *testing.T) *ProposeSwapOutput {
	t.Helper()
	output, err := f.uc.Propose(context.Background(), "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "desk",
		PickupTime: time.Now().Add(48 * time.Hour),
	})
	require.NoError(t, err)
	return output
}

func TestProposeCreatesPendingSwapAndAnchorMessage(t *testing.T) {
	f := newSwapFixture(t)

	output := f.propose(t)

	assert.Equal(t, entity.SwapStatusPending, output.Swap.Status)
	assert.Equal(t, "alice", output.Swap.ProposerID)
	assert.Equal(t, "bob", output.Swap.RecipientID)
	assert.NotEmpty(t, output.ChatID)

	messages, _, err := f.chatRepo.ListMessages(context.Background(), output.ChatID, 0, 0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, entity.MessageTypeSwapProposal, messages[0].Type)
	assert.Equal(t, output.Swap.ID, messages[0].SwapID)
}

func TestProposeReusesExistingDirectChat(t *testing.T) {
	f := newSwapFixture(t)

	chat, _, err := f.chats.StartDirectChat(context.Background(), "alice", "bob")
	require.NoError(t, err)

	output := f.propose(t)
	assert.Equal(t, chat.ID, output.ChatID)
}

func TestProposeRejectsSelfSwapAndForeignListing(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()

	// Both listings owned by the proposer.
	_, err := f.uc.Propose(ctx, "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "lamp",
		PickupTime: time.Now().Add(time.Hour),
	})
	assert.Error(t, err)

	// Offering someone else's listing.
	_, err = f.uc.Propose(ctx, "bob", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "desk",
		PickupTime: time.Now().Add(time.Hour),
	})
	assert.Error(t, err)

	// Same listing on both sides.
	_, err = f.uc.Propose(ctx, "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "bike",
		PickupTime: time.Now().Add(time.Hour),
	})
	assert.Error(t, err)

	// Missing pickup time.
	_, err = f.uc.Propose(ctx, "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "desk",
	})
	assert.Error(t, err)
}

func TestProposeDuplicatePendingPairConflicts(t *testing.T) {
	f := newSwapFixture(t)

	f.propose(t)

	_, err := f.uc.Propose(context.Background(), "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "desk",
		PickupTime: time.Now().Add(time.Hour),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONFLICT")
}

func TestProposeLeavesNoSwapWhenChatCreationFails(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()

	f.chatRepo.createErr = errors.Internal("chat store unavailable", nil)

	_, err := f.uc.Propose(ctx, "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "desk",
		PickupTime: time.Now().Add(time.Hour),
	})
	require.Error(t, err)

	// No dangling pending swap may block the pair once the store recovers.
	_, err = f.swapRepo.FindPendingByListings(ctx, "bike", "desk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NOT_FOUND")

	f.chatRepo.createErr = nil
	output, err := f.uc.Propose(ctx, "alice", ProposeSwapInput{
		ListingAID: "bike",
		ListingBID: "desk",
		PickupTime: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusPending, output.Swap.Status)
}

func TestOnlyRecipientResolvesProposal(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	_, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "alice")
	assert.Contains(t, err.Error(), "FORBIDDEN")

	swap, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusAccepted, swap.Status)
}

func TestRejectIsTerminal(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	swap, err := f.uc.RejectSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusRejected, swap.Status)

	_, err = f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_TRANSITION")
	assert.Contains(t, err.Error(), "rejected")
}

func TestConcurrentAcceptAndDeclineOneWins(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	var wg sync.WaitGroup
	results := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
		results <- err
	}()
	go func() {
		defer wg.Done()
		_, err := f.uc.RejectSwap(ctx, output.Swap.ID, "bob")
		results <- err
	}()
	wg.Wait()
	close(results)

	var failures int
	for err := range results {
		if err != nil {
			failures++
			assert.Contains(t, err.Error(), "INVALID_TRANSITION")
		}
	}
	assert.Equal(t, 1, failures)

	swap, err := f.uc.GetSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	assert.Contains(t, []string{entity.SwapStatusAccepted, entity.SwapStatusRejected}, swap.Status)
}

func TestGenerateCodeRequiresAcceptedStatus(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	_, _, err := f.uc.GenerateCode(ctx, output.Swap.ID, "bob")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_TRANSITION")
}

func TestGenerateCodeFormatAndVisibility(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	_, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)

	_, _, err = f.uc.GenerateCode(ctx, output.Swap.ID, "alice")
	assert.Contains(t, err.Error(), "FORBIDDEN")

	swap, code, err := f.uc.GenerateCode(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusInProgress, swap.Status)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{8}$`), code)
}

func TestCompleteRequiresProposerAndExactCode(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	_, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	_, code, err := f.uc.GenerateCode(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)

	_, err = f.uc.CompleteSwap(ctx, output.Swap.ID, "bob", code)
	assert.Contains(t, err.Error(), "FORBIDDEN")

	_, err = f.uc.CompleteSwap(ctx, output.Swap.ID, "alice", "WRONGC0D")
	assert.Contains(t, err.Error(), "BAD_REQUEST")

	swap, err := f.uc.CompleteSwap(ctx, output.Swap.ID, "alice", code)
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusCompleted, swap.Status)
	assert.Empty(t, swap.ConfirmationCode)
	require.NotNil(t, swap.CompletedAt)

	// The code cannot be replayed.
	_, err = f.uc.CompleteSwap(ctx, output.Swap.ID, "alice", code)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INVALID_TRANSITION")
}

func TestFullSwapLifecycle(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()

	output := f.propose(t)
	assert.Equal(t, entity.SwapStatusPending, output.Swap.Status)

	accepted, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusAccepted, accepted.Status)

	inProgress, code, err := f.uc.GenerateCode(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusInProgress, inProgress.Status)

	completed, err := f.uc.CompleteSwap(ctx, output.Swap.ID, "alice", code)
	require.NoError(t, err)
	assert.Equal(t, entity.SwapStatusCompleted, completed.Status)

	// Completed swaps stay visible to both parties.
	mine, err := f.uc.ListForUser(ctx, "alice", entity.SwapStatusCompleted)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	theirs, err := f.uc.ListForUser(ctx, "bob", "")
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestSwapUpdatedReachesBothParties(t *testing.T) {
	f := newSwapFixture(t)
	ctx := context.Background()
	output := f.propose(t)

	proposer := f.connect("alice")
	recipient := f.connect("bob")
	f.manager.Registry().JoinRoom(proposer, output.ChatID)

	_, err := f.uc.AcceptSwap(ctx, output.Swap.ID, "bob")
	require.NoError(t, err)

	// In-room connection hears the room broadcast; the recipient, not
	// viewing the chat, gets it on the personal channel. Exactly once each.
	assert.Equal(t, []string{websocket.EventSwapUpdated}, receivedTypes(t, proposer))
	assert.Equal(t, []string{websocket.EventSwapUpdated}, receivedTypes(t, recipient))
}

func TestListForUserRejectsUnknownStatus(t *testing.T) {
	f := newSwapFixture(t)
	_, err := f.uc.ListForUser(context.Background(), "alice", "archived")
	assert.Error(t, err)
}

func TestGetSwapHiddenFromThirdParties(t *testing.T) {
	f := newSwapFixture(t)
	output := f.propose(t)

	_, err := f.uc.GetSwap(context.Background(), output.Swap.ID, "mallory")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FORBIDDEN")
}

func TestConfirmationCodeGenerator(t *testing.T) {
	seen := make(map[string]struct{})
	pattern := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	for i := 0; i < 100; i++ {
		code, err := generateConfirmationCode()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	// 100 draws from a 36^8 space should never collide.
	assert.Len(t, seen, 100)
}
