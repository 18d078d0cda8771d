package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"iconbuzzer/internal/models"
	"iconbuzzer/internal/services"
	"iconbuzzer/internal/token"
)

const (
	accountKey = "account"
	claimsKey  = "claims"
)

// Gate authenticates every request on the protected surface. The
// bearer token comes from the Authorization header or, failing that,
// the jwt cookie.
func Gate(auth services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			abortAuth(c, http.StatusUnauthorized, "you are not logged in, please log in to get access")
			return
		}

		account, claims, err := auth.VerifyToken(raw)
		if err != nil {
			status, msg := gateError(err)
			abortAuth(c, status, msg)
			return
		}

		c.Set(accountKey, account)
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie("jwt"); err == nil {
		return cookie
	}
	return ""
}

func gateError(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrSessionSuperseded):
		return http.StatusUnauthorized, "session expired, you logged in from another place"
	case errors.Is(err, services.ErrAccountDeactivated):
		return http.StatusForbidden, "your account has been deactivated"
	case errors.Is(err, services.ErrEmailNotVerified):
		return http.StatusUnauthorized, "please verify your email address"
	case errors.Is(err, services.ErrAccountLocked):
		return http.StatusUnauthorized, "account temporarily locked, try again later"
	case errors.Is(err, services.ErrPasswordChanged):
		return http.StatusUnauthorized, "password was recently changed, please log in again"
	case errors.Is(err, token.ErrInvalidToken):
		return http.StatusUnauthorized, "invalid or expired token"
	default:
		return http.StatusInternalServerError, "authentication failed"
	}
}

func abortAuth(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"status":  status,
		"message": message,
	})
}

// CurrentAccount returns the authenticated account set by Gate.
func CurrentAccount(c *gin.Context) *models.Account {
	v, ok := c.Get(accountKey)
	if !ok {
		return nil
	}
	account, _ := v.(*models.Account)
	return account
}
