package usecase

import (
	"context"
	"log"
	"time"

	"swapspot/internal/domain/entity"
	"swapspot/internal/domain/repository"
	"swapspot/internal/infrastructure/firebase"
	"swapspot/pkg/errors"
)

type UserUseCase struct {
	userRepo   repository.UserRepository
	authClient *firebase.AuthClient
}

func NewUserUseCase(userRepo repository.UserRepository, authClient *firebase.AuthClient) *UserUseCase {
	return &UserUseCase{
		userRepo:   userRepo,
		authClient: authClient,
	}
}

// EnsureUser guarantees a local profile mirror exists for an authenticated
// uid, pulling the profile from the auth provider on first sight. Called on
// every authenticated request, so the local hit is the hot path.
func (uc *UserUseCase) EnsureUser(ctx context.Context, uid string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, uid)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	resolved, err := uc.authClient.ResolveUser(ctx, uid)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user = &entity.User{
		ID:          uid,
		DisplayName: resolved.DisplayName,
		Email:       resolved.Email,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.userRepo.Upsert(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("User: profile mirror created for %s", uid)
	return user, nil
}

// GetUser returns a user's public profile.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, id)
}
