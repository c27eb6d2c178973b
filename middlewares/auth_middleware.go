package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/utils"
)

// Context keys
const (
	ContextCustomerID   = "customerID"
	ContextRole         = "role"
	ContextTableSession = "tableSession"
)

// Identity membaca token dari header Authorization atau cookie access_token.
// Tidak pernah menolak request; token yang tidak valid dianggap anonim.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.Next()
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			utils.InfoLogger.WithError(err).Debug("Ignoring invalid access token")
			c.Next()
			return
		}

		c.Set(ContextCustomerID, claims.Subject)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(utils.AccessTokenCookie); err == nil {
		return cookie
	}
	return ""
}

// AuthMiddleware menolak request API tanpa identitas yang valid.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CustomerID(c); !ok {
			utils.AbortWithError(c, http.StatusUnauthorized, errors.New("Invalid or expired token"))
			return
		}
		c.Next()
	}
}

// CustomerID id pengguna yang login, jika ada.
func CustomerID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextCustomerID)
	return id, id != ""
}
