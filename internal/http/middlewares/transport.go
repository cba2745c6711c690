package middlewares

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/geocoder89/socialhub/internal/auth"
	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/gin-gonic/gin"
)

const SessionCookieName = "sid"

// Grant is what a login hands back besides the account itself. Token is empty
// for cookie-bound sessions.
type Grant struct {
	Token     string     `json:"token,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Transport carries the session identity between client and server. Exactly
// one transport is active per deployment and it never reads the other's
// credential.
type Transport interface {
	Name() string
	// Authenticate returns auth.ErrUnauthenticated for a missing or invalid
	// credential. Any other error is a server-side failure.
	Authenticate(c *gin.Context) (account.Identity, error)
	Issue(c *gin.Context, id account.Identity) (Grant, error)
	Revoke(c *gin.Context) error
}

type TokenIssuer interface {
	Issue(id account.Identity) (string, time.Time, error)
	Verify(token string) (account.Identity, error)
}

type BearerTransport struct {
	tokens TokenIssuer
}

func NewBearerTransport(tokens TokenIssuer) *BearerTransport {
	return &BearerTransport{tokens: tokens}
}

func (t *BearerTransport) Name() string { return "token" }

func (t *BearerTransport) Authenticate(c *gin.Context) (account.Identity, error) {
	authHeader := c.GetHeader("Authorization")

	scheme, raw, ok := strings.Cut(authHeader, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return account.Identity{}, auth.ErrUnauthenticated
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		return account.Identity{}, auth.ErrUnauthenticated
	}

	return t.tokens.Verify(raw)
}

func (t *BearerTransport) Issue(_ *gin.Context, id account.Identity) (Grant, error) {
	token, expiresAt, err := t.tokens.Issue(id)
	if err != nil {
		return Grant{}, err
	}
	return Grant{Token: token, ExpiresAt: &expiresAt}, nil
}

// Revoke is a no-op: a signed token stays valid until it expires.
func (t *BearerTransport) Revoke(*gin.Context) error {
	return nil
}

type SessionIssuer interface {
	Issue(ctx context.Context, id account.Identity) (string, error)
	Resolve(ctx context.Context, handle string) (account.Identity, error)
	Revoke(ctx context.Context, handle string) error
}

type SessionTransport struct {
	sessions SessionIssuer
	secure   bool
}

func NewSessionTransport(sessions SessionIssuer, secure bool) *SessionTransport {
	return &SessionTransport{sessions: sessions, secure: secure}
}

func (t *SessionTransport) Name() string { return "session" }

func (t *SessionTransport) Authenticate(c *gin.Context) (account.Identity, error) {
	handle, err := c.Cookie(SessionCookieName)
	if err != nil || handle == "" {
		return account.Identity{}, auth.ErrUnauthenticated
	}

	return t.sessions.Resolve(c.Request.Context(), handle)
}

func (t *SessionTransport) Issue(c *gin.Context, id account.Identity) (Grant, error) {
	// drop whatever session the client arrived with
	if old, err := c.Cookie(SessionCookieName); err == nil && old != "" {
		_ = t.sessions.Revoke(c.Request.Context(), old)
	}

	handle, err := t.sessions.Issue(c.Request.Context(), id)
	if err != nil {
		return Grant{}, err
	}

	t.setCookie(c, handle, 0)
	return Grant{}, nil
}

func (t *SessionTransport) Revoke(c *gin.Context) error {
	handle, err := c.Cookie(SessionCookieName)

	t.setCookie(c, "", -1)

	if err != nil || handle == "" {
		return nil
	}

	if err := t.sessions.Revoke(c.Request.Context(), handle); err != nil && !errors.Is(err, auth.ErrUnauthenticated) {
		return err
	}
	return nil
}

// maxAge 0 makes it a browser-session cookie; the idle timeout is enforced
// server-side.
func (t *SessionTransport) setCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookieName, value, maxAge, "/", "", t.secure, true)
}
