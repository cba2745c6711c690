package account

import (
	"errors"
	"strings"
	"time"
)

// Storage-level outcomes shared by every directory implementation.
var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email already in use")
	ErrCredentialNotFound = errors.New("credential not found")
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAdmin:
		return true
	default:
		return false
	}
}

type Account struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatarUrl"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsAdmin mirrors the flag the frontend reads.
func (a Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Credential is the stored password-verification material for one account.
// It is never serialized to clients.
type Credential struct {
	UserID    string
	Hash      string
	Salt      string
	Algorithm string
	UpdatedAt time.Time
}

// Identity is the minimal claim set carried per request.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

func IdentityOf(a Account) Identity {
	return Identity{UserID: a.ID, Role: a.Role}
}

// Changes holds the mutable profile fields; nil means unchanged.
type Changes struct {
	FullName *string
	Email    *string
}

// NormalizeEmail is the canonical form used for lookups and uniqueness.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Overview is the public directory projection (no email, no role).
type Overview struct {
	ID        string  `json:"id"`
	FullName  string  `json:"fullName"`
	AvatarURL *string `json:"avatarUrl"`
}

func (a Account) Overview() Overview {
	return Overview{ID: a.ID, FullName: a.FullName, AvatarURL: a.AvatarURL}
}

// Detail is the self/admin projection.
type Detail struct {
	ID        string  `json:"id"`
	FullName  string  `json:"fullName"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatarUrl"`
	IsAdmin   bool    `json:"isAdmin"`
}

func (a Account) Detail() Detail {
	return Detail{
		ID:        a.ID,
		FullName:  a.FullName,
		Email:     a.Email,
		AvatarURL: a.AvatarURL,
		IsAdmin:   a.IsAdmin(),
	}
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Cursor is a keyset position in the (created_at, id) ordering.
type Cursor struct {
	CreatedAt time.Time `json:"createdAt"`
	ID        string    `json:"id"`
}

type ListFilter struct {
	Limit int
	After *Cursor
}

func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	return f
}
