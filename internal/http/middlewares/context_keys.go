package middlewares

import (
	"github.com/geocoder89/socialhub/internal/domain/account"
	"github.com/gin-gonic/gin"
)

const (
	CtxRequestID   = "request_id"
	ctxIdentityKey = "auth.identity"
)

// IdentityFromContext returns the identity RequireAuth stored for this request.
func IdentityFromContext(c *gin.Context) (account.Identity, bool) {
	v, ok := c.Get(ctxIdentityKey)
	if !ok {
		return account.Identity{}, false
	}
	id, ok := v.(account.Identity)
	return id, ok && id.UserID != ""
}

func UserIDFromContext(c *gin.Context) (string, bool) {
	id, ok := IdentityFromContext(c)
	return id.UserID, ok
}

func requestID(c *gin.Context) string {
	if v, ok := c.Get(CtxRequestID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func abortWithError(c *gin.Context, status int, code, message string) {
	body := gin.H{
		"code":    code,
		"message": message,
	}
	if id := requestID(c); id != "" {
		body["requestId"] = id
	}

	c.AbortWithStatusJSON(status, gin.H{"error": body})
}
