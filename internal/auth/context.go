package auth

import "github.com/gin-gonic/gin"

// Context keys populated by the Firebase middleware.
const (
	CtxFirebaseUID = "firebase_uid"
	CtxUserEmail   = "user_email"
)

// UID returns the Firebase UID of the authenticated caller, if any.
func UID(c *gin.Context) (string, bool) {
	v, ok := c.Get(CtxFirebaseUID)
	if !ok {
		return "", false
	}
	uid, ok := v.(string)
	return uid, ok && uid != ""
}
