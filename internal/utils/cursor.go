package utils

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/geocoder89/socialhub/internal/domain/account"
)

var ErrInvalidCursor = errors.New("invalid cursor")

// EncodeAccountCursor renders a keyset position as an opaque URL-safe token.
func EncodeAccountCursor(c account.Cursor) (string, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeAccountCursor(cursor string) (account.Cursor, error) {
	if cursor == "" {
		return account.Cursor{}, ErrInvalidCursor
	}

	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return account.Cursor{}, ErrInvalidCursor
	}

	var c account.Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return account.Cursor{}, ErrInvalidCursor
	}
	if c.ID == "" || c.CreatedAt.IsZero() {
		return account.Cursor{}, ErrInvalidCursor
	}
	return c, nil
}
