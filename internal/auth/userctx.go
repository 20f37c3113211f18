package auth

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
)

// UserEnsurer mirrors users.Repository so the middleware does not import it.
type UserEnsurer interface {
	EnsureUser(ctx context.Context, uid, email string) error
}

// WithUser upserts the caller's user document after token verification.
// Failures are logged but never block the request.
func WithUser(repo UserEnsurer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid, ok := UID(c); ok {
			email, _ := c.Get(CtxUserEmail)
			emailStr, _ := email.(string)
			if err := repo.EnsureUser(c.Request.Context(), uid, emailStr); err != nil {
				log.Printf("[auth] ensure user %s: %v", uid, err)
			}
		}
		c.Next()
	}
}
