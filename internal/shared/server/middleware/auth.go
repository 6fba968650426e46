package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"filevault/internal/shared/auth"
	"filevault/internal/shared/server/respond"
)

const (
	subjectKey  = "subject"
	identityKey = "identity"
)

// TokenValidator verifies bearer credentials.
type TokenValidator interface {
	Validate(credential string) (auth.Identity, error)
}

// Auth validates the bearer token and stores the caller identity in context.
// Every request without a valid token is rejected; there is no anonymous access.
func Auth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}

		id, err := v.Validate(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "token is invalid or expired", nil)
			return
		}

		c.Set(subjectKey, id.Subject)
		c.Set(identityKey, id)
		c.Next()
	}
}

// AdminValidator verifies that a bearer credential belongs to the administrator.
type AdminValidator interface {
	RequireAdmin(credential string) (auth.Identity, error)
}

// RequireAdmin re-checks the bearer token against v and rejects everyone but the administrator.
// A nil v denies every request.
func RequireAdmin(v AdminValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if v == nil {
			respond.Error(c, http.StatusForbidden, "forbidden", "not authorized", nil)
			return
		}
		token, err := auth.BearerToken(c.GetHeader("Authorization"))
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "missing or invalid token", nil)
			return
		}
		id, err := v.RequireAdmin(token)
		switch {
		case errors.Is(err, auth.ErrForbidden):
			respond.Error(c, http.StatusForbidden, "forbidden", "not authorized", nil)
			return
		case err != nil:
			respond.Error(c, http.StatusUnauthorized, "unauthorized", "token is invalid or expired", nil)
			return
		}
		c.Set(subjectKey, id.Subject)
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFromContext fetches the identity set by the auth middleware.
func IdentityFromContext(c *gin.Context) (auth.Identity, bool) {
	if c == nil {
		return auth.Identity{}, false
	}
	val, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := val.(auth.Identity)
	return id, ok
}

// SubjectFromContext fetches the caller subject set by the auth middleware.
func SubjectFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(subjectKey)
}
