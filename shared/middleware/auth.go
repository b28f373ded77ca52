package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const usernameKey = "username"

// ValidateFunc checks a raw bearer token and returns its subject.
type ValidateFunc func(tokenString string) (string, error)

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware rejects requests without a token that validate accepts and
// stores the token subject in the context.
func AuthMiddleware(validate ValidateFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			RespondWithError(c, http.StatusUnauthorized, "Missing Authorization Header")
			c.Abort()
			return
		}

		tokenString, ok := BearerToken(c)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, "Invalid authorization header format")
			c.Abort()
			return
		}

		username, err := validate(tokenString)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(usernameKey, username)
		c.Next()
	}
}

func GetUsername(c *gin.Context) (string, bool) {
	username, exists := c.Get(usernameKey)
	if !exists {
		return "", false
	}
	s, ok := username.(string)
	return s, ok
}
