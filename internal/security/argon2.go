package security

import (
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const AlgorithmArgon2id = "argon2id"

type Argon2Params struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// Stored parameters above these are refused rather than computed, so a
// tampered hash row cannot make a login allocate or spin without bound.
const (
	MaxArgon2Memory = 1 << 20 // KiB, 1 GiB
	MaxArgon2Time   = 16
)

// OWASP-recommended argon2id parameters.
var DefaultArgon2Params = Argon2Params{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
}

type Argon2idStrategy struct {
	params Argon2Params
}

func NewArgon2id(params Argon2Params) *Argon2idStrategy {
	if params.Time == 0 {
		params.Time = DefaultArgon2Params.Time
	}
	if params.Memory == 0 {
		params.Memory = DefaultArgon2Params.Memory
	}
	if params.Threads == 0 {
		params.Threads = DefaultArgon2Params.Threads
	}
	if params.KeyLen == 0 {
		params.KeyLen = DefaultArgon2Params.KeyLen
	}
	return &Argon2idStrategy{params: params}
}

func (s *Argon2idStrategy) Name() string { return AlgorithmArgon2id }

func (s *Argon2idStrategy) GenerateSalt() (string, error) { return GenerateSalt() }

// Hash encodes the cost parameters in front of the key so a later change of
// DefaultArgon2Params does not break existing hashes:
//
//	m=65536,t=1,p=4$<base64 key>
func (s *Argon2idStrategy) Hash(password, salt string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	rawSalt, err := decodeSalt(salt)
	if err != nil {
		return "", err
	}

	p := s.params
	key := argon2.IDKey([]byte(password), rawSalt, p.Time, p.Memory, p.Threads, p.KeyLen)

	return fmt.Sprintf("m=%d,t=%d,p=%d$%s",
		p.Memory, p.Time, p.Threads,
		base64.StdEncoding.EncodeToString(key),
	), nil
}

func (s *Argon2idStrategy) Verify(password, encodedHash, salt string) (bool, error) {
	rawSalt, err := decodeSalt(salt)
	if err != nil {
		return false, err
	}

	paramPart, keyPart, ok := strings.Cut(encodedHash, "$")
	if !ok {
		return false, ErrInvalidHash
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(paramPart, "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidHash, err)
	}

	if threads == 0 || threads > 255 ||
		time == 0 || time > MaxArgon2Time ||
		memory == 0 || memory > MaxArgon2Memory {
		return false, fmt.Errorf("%w: cost parameters out of range", ErrInvalidHash)
	}

	expected, err := base64.StdEncoding.DecodeString(keyPart)
	if err != nil || len(expected) == 0 || len(expected) > 1024 {
		return false, ErrInvalidHash
	}

	computed := argon2.IDKey([]byte(password), rawSalt, time, memory, uint8(threads), uint32(len(expected)))

	return subtle.ConstantTimeCompare(computed, expected) == 1, nil
}
