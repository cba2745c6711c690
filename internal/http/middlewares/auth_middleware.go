package middlewares

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/socialhub/internal/actorctx"
	"github.com/geocoder89/socialhub/internal/auth"
	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/gin-gonic/gin"
)

// CredentialObserver counts gate outcomes per transport.
type CredentialObserver interface {
	ObserveCredential(transport, event string)
}

type AuthMiddleware struct {
	transport Transport
	obs       CredentialObserver
}

func NewAuthMiddleware(transport Transport, obs CredentialObserver) *AuthMiddleware {
	return &AuthMiddleware{transport: transport, obs: obs}
}

func (m *AuthMiddleware) Transport() Transport {
	return m.transport
}

func (m *AuthMiddleware) observe(event string) {
	if m.obs != nil {
		m.obs.ObserveCredential(m.transport.Name(), event)
	}
}

// RequireAuth rejects the request unless the active transport yields a valid
// identity. The message is the same whatever the cause.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := m.transport.Authenticate(c)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthenticated) {
				m.observe("rejected")
				abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			slog.Default().ErrorContext(c.Request.Context(), "credential lookup failed",
				"transport", m.transport.Name(), "err", err, "request_id", requestID(c))
			abortWithError(c, http.StatusInternalServerError, "internal_error", "Something went wrong")
			return
		}

		c.Set(ctxIdentityKey, id)
		c.Request = c.Request.WithContext(actorctx.WithIdentity(c.Request.Context(), id))

		c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(required account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFromContext(c)

		if !ok {
			abortWithError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}
		if id.Role != required {
			abortWithError(c, http.StatusForbidden, "forbidden", "Insufficient role")
			return
		}
		c.Next()
	}
}
