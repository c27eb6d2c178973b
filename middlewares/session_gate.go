package middlewares

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/utils"
)

type SessionResolver interface {
	ResolveActive(ctx context.Context, id string) (*models.TableSession, error)
}

const customerArea = "/menu"

var publicPrefixes = []string{
	"/login",
	"/auth",
	"/contact",
	"/orders_tracking",
	"/main",
	"/scan_qrcode",
	"/error",
	"/ping",
}

// TableSessionGate berjalan sekali per request sebelum handler.
// Satu-satunya efek samping: menghapus cookie sesi yang sudah tidak valid.
func TableSessionGate(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		sessionID, _ := c.Cookie(utils.SessionCookie)

		switch {
		case path == "/":
			if sessionID != "" {
				if _, err := sessions.ResolveActive(c.Request.Context(), sessionID); err == nil {
					redirect(c, "/main")
					return
				}
			}

		case strings.HasPrefix(path, customerArea):
			if sessionID == "" {
				redirect(c, "/")
				return
			}
			session, err := sessions.ResolveActive(c.Request.Context(), sessionID)
			if err != nil {
				utils.InfoLogger.WithError(err).WithField("path", path).Info("Rejecting stale table session")
				utils.ClearSessionCookie(c)
				redirect(c, "/")
				return
			}
			c.Set(ContextTableSession, session)

		case isPublic(path):

		default:
			if _, ok := CustomerID(c); !ok {
				redirect(c, "/auth/login")
				return
			}
		}

		c.Next()
	}
}

func isPublic(path string) bool {
	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusFound, location)
	c.Abort()
}

// TableSession sesi yang sudah divalidasi gate, jika ada.
func TableSession(c *gin.Context) (*models.TableSession, bool) {
	v, ok := c.Get(ContextTableSession)
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.TableSession)
	return session, ok
}
