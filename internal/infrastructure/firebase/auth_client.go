package firebase

import (
	"context"

	"firebase.google.com/go/v4/auth"

	"swapspot/pkg/errors"
)

// ResolvedUser is the identity-provider view of a user.
type ResolvedUser struct {
	ID          string
	DisplayName string
	Email       string
}

type AuthClient struct {
	client *auth.Client
}

func NewAuthClient(client *auth.Client) *AuthClient {
	return &AuthClient{
		client: client,
	}
}

func (f *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	result, err := f.client.VerifyIDToken(ctx, token)
	if err != nil {
		return "", err
	}

	return result.UID, nil
}

// ResolveUser fetches the authoritative identity record; used to backfill
// the local user mirror on first sight.
func (f *AuthClient) ResolveUser(ctx context.Context, uid string) (*ResolvedUser, error) {
	record, err := f.client.GetUser(ctx, uid)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to resolve user", err)
	}

	name := record.DisplayName
	if name == "" {
		name = "Unknown User"
	}

	return &ResolvedUser{
		ID:          record.UID,
		DisplayName: name,
		Email:       record.Email,
	}, nil
}
