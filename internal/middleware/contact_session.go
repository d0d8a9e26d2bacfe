package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tsukikage-sato/contact-web/pkg/jwt"
)

const (
	// SessionCookieName is the name of the contact session cookie
	SessionCookieName = "contact_session"

	// SessionContextKey is the key used to store the session ID in context
	SessionContextKey = "contact_session_id"
)

var ErrSessionNotFound = errors.New("session not found in context")

// ContactSessionMiddleware attaches a contact session ID to every request.
// A missing, expired or forged cookie is replaced with a fresh session.
func ContactSessionMiddleware(tokenManager *jwt.TokenManager, cookieDomain string, cookieSecure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cookie, err := c.Cookie(SessionCookieName); err == nil {
			claims, err := tokenManager.ValidateToken(cookie)
			if err == nil {
				c.Set(SessionContextKey, claims.SessionID)
				c.Next()
				return
			}
			_ = c.Error(fmt.Errorf("invalid session token: %w", err)) //nolint:errcheck
		}

		sessionID := uuid.NewString()
		token, err := tokenManager.GenerateToken(sessionID)
		if err != nil {
			_ = c.Error(err) //nolint:errcheck
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		SetSessionCookie(c, token, int(tokenManager.GetExpirationTime().Seconds()), cookieDomain, cookieSecure)
		c.Set(SessionContextKey, sessionID)
		c.Next()
	}
}

// GetSessionID extracts the session ID from context
func GetSessionID(c *gin.Context) (string, error) {
	val, exists := c.Get(SessionContextKey)
	if !exists {
		return "", ErrSessionNotFound
	}

	sessionID, ok := val.(string)
	if !ok || sessionID == "" {
		return "", ErrSessionNotFound
	}

	return sessionID, nil
}

// SetSessionCookie sets the contact session cookie
func SetSessionCookie(c *gin.Context, token string, ttlSeconds int, domain string, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookieName,
		token,
		ttlSeconds,
		"/",
		domain,
		secure,
		true, // HttpOnly
	)
}
