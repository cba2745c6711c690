package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/geocoder89/socialhub/internal/session"
)

const (
	SessionHandleBytes = 32 // 64 hex chars
	DefaultIdleTimeout = 4 * time.Hour
)

type sessionRecord struct {
	UserID    string    `json:"userId"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionManager keeps the identity server-side. The client only ever holds
// the random handle; the store is keyed by its SHA-256.
type SessionManager struct {
	store session.Store
	idle  time.Duration
}

func NewSessionManager(store session.Store, idle time.Duration) *SessionManager {
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	return &SessionManager{store: store, idle: idle}
}

func (m *SessionManager) IdleTimeout() time.Duration {
	return m.idle
}

func (m *SessionManager) Issue(ctx context.Context, id account.Identity) (string, error) {
	buf := make([]byte, SessionHandleBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session handle: %w", err)
	}
	handle := hex.EncodeToString(buf)

	b, err := json.Marshal(sessionRecord{
		UserID:    id.UserID,
		Role:      string(id.Role),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	if err := m.store.Set(ctx, HashSessionHandle(handle), b, m.idle); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return handle, nil
}

// Resolve returns the identity bound to handle and slides its idle window.
func (m *SessionManager) Resolve(ctx context.Context, handle string) (account.Identity, error) {
	if len(handle) != hex.EncodedLen(SessionHandleBytes) {
		return account.Identity{}, ErrUnauthenticated
	}

	key := HashSessionHandle(handle)

	b, err := m.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return account.Identity{}, ErrUnauthenticated
		}
		return account.Identity{}, fmt.Errorf("load session: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return account.Identity{}, ErrUnauthenticated
	}

	role := account.Role(rec.Role)
	if rec.UserID == "" || !role.IsValid() {
		return account.Identity{}, ErrUnauthenticated
	}

	if err := m.store.Touch(ctx, key, m.idle); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return account.Identity{}, ErrUnauthenticated
		}
		return account.Identity{}, fmt.Errorf("touch session: %w", err)
	}

	return account.Identity{UserID: rec.UserID, Role: role}, nil
}

func (m *SessionManager) Revoke(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	return m.store.Delete(ctx, HashSessionHandle(handle))
}

func HashSessionHandle(handle string) string {
	h := sha256.Sum256([]byte(handle))
	return hex.EncodeToString(h[:])
}
