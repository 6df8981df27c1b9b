package security

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"user_backend/internal/feature/users/domain/entity"
	"user_backend/internal/feature/users/usecase"
)

// ContextUsername is the gin context key holding the authenticated username.
const ContextUsername = "username"

// Authenticator verifies HTTP Basic credentials against the user store.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*entity.User, error)
}

// BasicAuth returns a Gin middleware that lets public paths through and
// requires valid HTTP Basic credentials everywhere else.
func BasicAuth(policy *Policy, auth Authenticator, realm string) gin.HandlerFunc {
	challenge := fmt.Sprintf("Basic realm=%q", realm)

	return func(c *gin.Context) {
		if policy.IsPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		username, password, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), username, password)
		if err != nil {
			if errors.Is(err, usecase.ErrInvalidCredentials) {
				log.Warn().Str("username", username).Str("remote_addr", c.ClientIP()).Msg("basic auth rejected")
				c.Header("WWW-Authenticate", challenge)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			log.Error().Err(err).Str("remote_addr", c.ClientIP()).Msg("basic auth lookup failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(ContextUsername, user.Username)
		c.Next()
	}
}
