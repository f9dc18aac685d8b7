package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"vineyard-api/internal/api/auth"
	"vineyard-api/internal/api/httpx"
	"vineyard-api/internal/apperr"
	"vineyard-api/internal/domain/users"
)

const identityKey = "identity"

// TokenVerifier turns a bearer token into claims.
type TokenVerifier interface {
	Verify(raw string) (auth.Claims, error)
}

// AuthMiddleware requires a valid bearer token and stores the caller's
// claims and identity on the context.
func AuthMiddleware(tokens TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Header("WWW-Authenticate", "Bearer")
			httpx.Unauthorized(c, "Authorization header missing")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if tokenString == authHeader || tokenString == "" {
			c.Header("WWW-Authenticate", "Bearer")
			httpx.Unauthorized(c, "Bearer token malformed")
			return
		}

		claims, err := tokens.Verify(tokenString)
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			httpx.Unauthorized(c, "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set(identityKey, claims.Identity())
		c.Next()
	}
}

// AccountLookup loads the account a token was issued to.
type AccountLookup interface {
	Get(ctx context.Context, tx *gorm.DB, id uint) (*users.User, error)
}

// RequireActiveUser runs after AuthMiddleware. Tokens outlive account
// changes, so the account is reloaded on every request: a deleted account
// gets 401 and a deactivated one 403.
func RequireActiveUser(accounts AccountLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := accounts.Get(c.Request.Context(), nil, Identity(c).UserID)
		switch {
		case apperr.Is(err, apperr.KindNotFound):
			c.Header("WWW-Authenticate", "Bearer")
			httpx.Unauthorized(c, "User no longer exists")
			return
		case err != nil:
			httpx.Error(c, err)
			return
		case !u.IsActive:
			httpx.Forbidden(c, "Inactive user")
			return
		}
		c.Next()
	}
}

func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get("role")
		if !exists {
			httpx.Unauthorized(c, "Role not found in token")
			return
		}
		if value != role {
			httpx.Forbidden(c, "The user doesn't have enough privileges")
			return
		}
		c.Next()
	}
}

// Identity returns the caller resolved by AuthMiddleware.
func Identity(c *gin.Context) users.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(users.Identity); ok {
			return id
		}
	}
	return users.Identity{}
}
