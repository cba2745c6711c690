// Package security holds the password hashing strategies. Each stored
// credential is tagged with the name of the strategy that produced it so
// older hashes stay verifiable after the default changes.
package security

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

// SaltBytes is the raw salt length before base64 encoding.
const SaltBytes = 32

var (
	ErrUnknownAlgorithm = errors.New("unknown password hash algorithm")
	ErrEmptyPassword    = errors.New("password cannot be empty")
	ErrInvalidSalt      = errors.New("invalid password salt encoding")
	ErrInvalidHash      = errors.New("invalid password hash encoding")
)

// Strategy is one password hashing algorithm.
type Strategy interface {
	// Name is the identifier stored alongside every credential it produces.
	Name() string

	// Hash derives the encoded hash of password under salt.
	Hash(password, salt string) (string, error)

	// Verify reports whether password matches encodedHash under salt.
	// A mismatch is (false, nil); a malformed hash or salt is an error.
	Verify(password, encodedHash, salt string) (bool, error)

	// GenerateSalt returns a fresh random salt.
	GenerateSalt() (string, error)
}

// GenerateSalt reads SaltBytes from crypto/rand and base64 encodes them.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)

	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	return base64.StdEncoding.EncodeToString(b), nil
}

func decodeSalt(salt string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(salt)
	if err != nil || len(raw) == 0 {
		return nil, ErrInvalidSalt
	}
	return raw, nil
}
