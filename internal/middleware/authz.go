package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRoles allows the request through only when the authenticated
// account holds one of the given roles. Must run after Gate.
func RequireRoles(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		account := CurrentAccount(c)
		if account == nil {
			abortAuth(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
			return
		}
		if !allowed[account.Role] {
			abortAuth(c, http.StatusForbidden, "you do not have permission to perform this action")
			return
		}
		c.Next()
	}
}
