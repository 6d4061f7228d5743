package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ggonzalesd/UniTable/shared/apperrors"
	"github.com/ggonzalesd/UniTable/shared/models"
	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	userIDKey = "userId"
	emailKey  = "email"
)

// TokenVerifier checks bearer tokens and extracts their subject.
type TokenVerifier interface {
	ValidateToken(token string) bool
	SubjectFromToken(token string) (string, error)
}

// IdentityResolver maps a token subject to the stored user.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, email string) (*models.Identity, error)
}

// AuthMiddleware accepts a request only when it carries a valid bearer token
// whose subject is a registered user. The user's id and email are stored in
// the gin context.
func AuthMiddleware(tokens TokenVerifier, identities IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithError(c, http.StatusUnauthorized, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		tokenString := parts[1]
		if !tokens.ValidateToken(tokenString) {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}
		email, err := tokens.SubjectFromToken(tokenString)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		// A token can outlive the account it was issued for.
		identity, err := identities.ResolveIdentity(c.Request.Context(), email)
		if err != nil {
			if apperrors.KindOf(err) == apperrors.KindNotFound {
				RespondWithError(c, http.StatusUnauthorized, "User no longer exists")
			} else {
				RespondWithAppError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(userIDKey, identity.UserID)
		c.Set(emailKey, identity.Email)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok && id != ""
}

func GetEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(emailKey)
	if !exists {
		return "", false
	}
	s, ok := email.(string)
	return s, ok
}
