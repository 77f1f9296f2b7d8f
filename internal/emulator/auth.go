package emulator

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// RequireBasicAuth rejects requests whose basic credentials do not match
// username and the bcrypt hash of the password.
func RequireBasicAuth(username string, passwordHash []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			c.Header("WWW-Authenticate", `Basic realm="midonet-api"`)
			respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
		passErr := bcrypt.CompareHashAndPassword(passwordHash, []byte(pass))
		if !userOK || passErr != nil {
			GetLogger(c).Warn("Authentication failed")
			c.Header("WWW-Authenticate", `Basic realm="midonet-api"`)
			respondError(c, http.StatusUnauthorized, "unauthorized", "Invalid credentials")
			return
		}

		c.Next()
	}
}
