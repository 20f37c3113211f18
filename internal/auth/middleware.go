package auth

import (
	"net/http"
	"strings"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"
)

// Middleware verifies the Bearer ID token on every request and stores the
// caller's UID and email in the gin context.
func Middleware(client *firebaseauth.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractToken(c.GetHeader("Authorization"))
		if err != "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": err})
			return
		}

		decoded, verr := client.VerifyIDToken(c.Request.Context(), token)
		if verr != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid or expired token"})
			return
		}

		c.Set(CtxFirebaseUID, decoded.UID)
		if email, ok := decoded.Claims["email"].(string); ok {
			c.Set(CtxUserEmail, email)
		}
		c.Next()
	}
}

func extractToken(header string) (string, string) {
	if header == "" {
		return "", "missing Authorization header"
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", "Authorization header must be 'Bearer <token>'"
	}
	return parts[1], ""
}
