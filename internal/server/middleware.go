package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/bartrekker/admin-api/internal/auth"
	"github.com/bartrekker/admin-api/internal/session"
)

const (
	bearerPrefix = "Bearer "

	identityContextKey = "identity"
)

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrNoSession         = errors.New("no authenticated session")
	ErrSessionExpired    = errors.New("session expired")
)

func setIdentity(c *gin.Context, user *auth.Identity) {
	c.Set(identityContextKey, user)
}

// GetIdentity returns the authenticated administrator for this request
func GetIdentity(c *gin.Context) (*auth.Identity, bool) {
	v, exists := c.Get(identityContextKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*auth.Identity)
	return user, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}
	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}
	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// SessionAuthMiddleware validates the bearer token and requires the session
// store to hold a live, unexpired session for the same administrator. Each
// accepted request touches the store's activity clock.
func SessionAuthMiddleware(store *session.Store, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		if store.SessionExpired() {
			respondWithError(c, log, http.StatusUnauthorized, ErrSessionExpired, "Session expired")
			return
		}

		user := store.User()
		if user == nil || !store.IsAuthenticated() {
			respondWithError(c, log, http.StatusUnauthorized, ErrNoSession, "Not logged in")
			return
		}
		if user.ID != claims.UserID {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Token does not match session")
			return
		}

		store.Touch()
		setIdentity(c, user)

		c.Next()
	}
}
