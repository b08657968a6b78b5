package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt ignores everything past 72 bytes, so longer secrets are refused.
const maxLength = 72

var (
	ErrEmpty    = errors.New("password cannot be empty")
	ErrTooLong  = errors.New("password exceeds 72 bytes")
	ErrMismatch = errors.New("password does not match")
)

func Hash(plain string) (string, error) {
	switch {
	case plain == "":
		return "", ErrEmpty
	case len(plain) > maxLength:
		return "", ErrTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hashed), nil
}

// Verify returns ErrMismatch for a wrong or empty password, and a wrapped
// error only when the stored hash itself is unusable.
func Verify(plain, hashed string) error {
	if plain == "" {
		return ErrMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrMismatch
	default:
		return fmt.Errorf("failed to verify password: %w", err)
	}
}

// NeedsRehash reports whether a stored hash was produced with a weaker cost
// than the current default.
func NeedsRehash(hashed string) bool {
	cost, err := bcrypt.Cost([]byte(hashed))

	return err != nil || cost < bcrypt.DefaultCost
}
