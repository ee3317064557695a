package auth

import (
	"errors"
	"net/http"
	"strings"

	"chatapp/backend/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
)

// TokenParser validates access tokens.
type TokenParser interface {
	ParseAccessToken(token string) (*jwt.Claims, error)
}

var errNoToken = errors.New("authorization token required")

// AuthMiddleware rejects requests without a valid bearer token. A missing or
// malformed header is answered with 401, an invalid or expired token with 403.
// On success the caller's ID and username are stored in the context.
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if !authenticate(c, tokens, tokenString) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}

// StreamAuthMiddleware is AuthMiddleware for endpoints opened by browsers that
// cannot set headers (WebSocket, EventSource). The token may also be passed as
// the "token" query parameter.
func StreamAuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		if !authenticate(c, tokens, tokenString) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Next()
	}
}

// TokenFromRequest returns the bearer token from the Authorization header, or
// from the "token" query parameter when the header is absent.
func TokenFromRequest(c *gin.Context) (string, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		return bearerToken(header)
	}
	if token := c.Query("token"); token != "" {
		return token, nil
	}
	return "", errNoToken
}

// UserID returns the authenticated user's ID. It must only be called behind
// AuthMiddleware or StreamAuthMiddleware.
func UserID(c *gin.Context) uint {
	return c.GetUint(ContextUserID)
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("authorization header must be in the form 'Bearer <token>'")
	}
	return parts[1], nil
}

func authenticate(c *gin.Context, tokens TokenParser, tokenString string) bool {
	claims, err := tokens.ParseAccessToken(tokenString)
	if err != nil {
		return false
	}
	userID, err := claims.UserID()
	if err != nil {
		return false
	}
	c.Set(ContextUserID, userID)
	c.Set(ContextUsername, claims.Username)
	return true
}
