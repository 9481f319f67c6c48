package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Verification failures. Callers outside this package only ever see them
// collapsed into ErrUnauthenticated.
var (
	ErrMalformed        = errors.New("token malformed")
	ErrInvalidSignature = errors.New("token signature invalid")
	ErrExpired          = errors.New("token expired")
	ErrInvalidTTL       = errors.New("token ttl must be positive")
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIdentity is what a verified token asserts.
type TokenIdentity struct {
	UserID    int64
	Role      user.Role
	ExpiresAt time.Time
}

type Manager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

type Option func(*Manager)

// WithClock replaces time.Now for issuance and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

func NewManager(secret string, accessTTL time.Duration, opts ...Option) *Manager {
	m := &Manager{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *Manager) AccessTTL() time.Duration {
	return m.accessTTL
}

func (m *Manager) IssueAccess(userID int64, role user.Role) (string, error) {
	return m.Issue(userID, role, m.accessTTL)
}

// Issue signs {sub, role, exp} with HS256. exp is now+ttl in epoch seconds.
func (m *Manager) Issue(userID int64, role user.Role, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}

	if _, err := user.ParseRole(string(role)); err != nil {
		return "", err
	}

	now := m.now().UTC()
	sub := strconv.FormatInt(userID, 10)

	claims := Claims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Verify checks signature, algorithm and expiry. Expiry is exclusive: a token
// is rejected at its exp instant.
func (m *Manager) Verify(tokenStr string) (TokenIdentity, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (interface{}, error) {
		// Enforce HMAC; WithValidMethods narrows it to HS256
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(func() time.Time { return m.now().UTC() }),
	)

	if err != nil {
		return TokenIdentity{}, classifyParseError(err)
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return TokenIdentity{}, fmt.Errorf("%w: missing sub", ErrMalformed)
	}

	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return TokenIdentity{}, fmt.Errorf("%w: sub is not an id", ErrMalformed)
	}

	role, err := user.ParseRole(claims.Role)
	if err != nil {
		return TokenIdentity{}, fmt.Errorf("%w: role %q", ErrMalformed, claims.Role)
	}

	return TokenIdentity{
		UserID:    userID,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", ErrExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}
