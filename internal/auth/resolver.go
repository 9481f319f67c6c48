package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/taskhub/internal/domain/user"
)

type TokenVerifier interface {
	Verify(token string) (TokenIdentity, error)
}

type IdentityFinder interface {
	GetByID(ctx context.Context, id int64) (user.User, error)
}

// Resolver turns a bearer token into a Principal.
type Resolver struct {
	tokens TokenVerifier
	users  IdentityFinder
}

func NewResolver(tokens TokenVerifier, users IdentityFinder) *Resolver {
	return &Resolver{tokens: tokens, users: users}
}

// Resolve returns ErrUnauthenticated for any token problem and for unknown or
// inactive identities, without saying which. Store failures, including a
// cancelled or expired ctx, are ErrUnavailable.
func (r *Resolver) Resolve(ctx context.Context, token string) (Principal, error) {
	ti, err := r.tokens.Verify(token)
	if err != nil {
		return Principal{}, ErrUnauthenticated
	}

	if err := ctx.Err(); err != nil {
		return Principal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	u, err := r.users.GetByID(ctx, ti.UserID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !u.IsActive {
		return Principal{}, ErrUnauthenticated
	}

	// the stored role wins over the token claim, so a demotion applies at once
	return Principal{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
	}, nil
}
