package security

import "golang.org/x/crypto/bcrypt"

// Hasher hashes and checks passwords with bcrypt. The salt and cost are
// embedded in every hash, so Verify works across cost changes.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher with the given bcrypt cost. Out of range values
// fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash password hashes a plain text password with bcrypt.
func (h *Hasher) Hash(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)

	if err != nil {
		return "", err
	}

	return string(hash), nil
}

// Verify compares a bcrypt hash with a plaintext password. A malformed hash
// is a mismatch, not an error.
func (h *Hasher) Verify(plain, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))

	return err == nil
}
