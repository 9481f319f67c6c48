package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRoleNotSeeded      = errors.New("role reference data missing")
)

type IdentityStore interface {
	IdentityFinder
	GetByEmail(ctx context.Context, email string) (user.User, error)
	Create(ctx context.Context, nu user.NewUser) (user.User, error)
	FindRoleByName(ctx context.Context, name string) (user.RoleRecord, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service implements registration and login.
type Service struct {
	users  IdentityStore
	hasher PasswordHasher
	tokens *Manager

	// compared against on unknown emails so both paths cost a bcrypt check
	dummyHash string
}

func NewService(users IdentityStore, hasher PasswordHasher, tokens *Manager) (*Service, error) {
	dummy, err := hasher.Hash("dummy-password-for-timing")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}

	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		dummyHash: dummy,
	}, nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an identity with the baseline role. A missing baseline
// role row is a seeding bug and fails the call instead of defaulting.
func (s *Service) Register(ctx context.Context, email, password string) (user.User, error) {
	email = NormalizeEmail(email)

	if err := security.CheckPasswordPolicy(password); err != nil {
		return user.User{}, err
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return user.User{}, user.ErrEmailAlreadyUsed
	case !errors.Is(err, user.ErrUserNotFound):
		return user.User{}, fmt.Errorf("%w: lookup email: %v", ErrUnavailable, err)
	}

	role, err := s.users.FindRoleByName(ctx, string(user.RoleUser))
	if err != nil {
		if errors.Is(err, user.ErrRoleNotFound) {
			return user.User{}, fmt.Errorf("%w: %s", ErrRoleNotSeeded, user.RoleUser)
		}
		return user.User{}, fmt.Errorf("%w: lookup role: %v", ErrUnavailable, err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return user.User{}, fmt.Errorf("hash password: %w", err)
	}

	// the store enforces uniqueness too; a concurrent insert surfaces as ErrEmailAlreadyUsed
	u, err := s.users.Create(ctx, user.NewUser{
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailAlreadyUsed) {
			return user.User{}, err
		}
		return user.User{}, fmt.Errorf("%w: create user: %v", ErrUnavailable, err)
	}

	return u, nil
}

// Login checks credentials and issues an access token carrying the current role.
func (s *Service) Login(ctx context.Context, email, password string) (Token, error) {
	u, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			return Token{}, ErrInvalidCredentials
		}
		return Token{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if !s.hasher.Verify(password, u.PasswordHash) || !u.IsActive {
		return Token{}, ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccess(u.ID, u.Role)
	if err != nil {
		return Token{}, fmt.Errorf("issue token: %w", err)
	}

	return Token{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}
