package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const AlgorithmBcrypt = "bcrypt"

// BcryptStrategy runs bcrypt over base64(HMAC-SHA256(salt, password)). The
// pre-hash binds the stored salt into the hash and keeps the input under
// bcrypt's 72 byte limit.
type BcryptStrategy struct {
	cost int
}

func NewBcrypt(cost int) *BcryptStrategy {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptStrategy{cost: cost}
}

func (s *BcryptStrategy) Name() string { return AlgorithmBcrypt }

func (s *BcryptStrategy) GenerateSalt() (string, error) { return GenerateSalt() }

func (s *BcryptStrategy) Hash(password, salt string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	pre, err := prehash(password, salt)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword(pre, s.cost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func (s *BcryptStrategy) Verify(password, encodedHash, salt string) (bool, error) {
	pre, err := prehash(password, salt)
	if err != nil {
		return false, err
	}

	// CompareHashAndPassword compares in constant time.
	err = bcrypt.CompareHashAndPassword([]byte(encodedHash), pre)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	return false, ErrInvalidHash
}

func prehash(password, salt string) ([]byte, error) {
	rawSalt, err := decodeSalt(salt)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, rawSalt)
	mac.Write([]byte(password))

	out := make([]byte, base64.StdEncoding.EncodedLen(sha256.Size))
	base64.StdEncoding.Encode(out, mac.Sum(nil))

	return out, nil
}
