package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/middlewares"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/utils"
)

// gateSessionContext memakai sesi yang sudah divalidasi gate, atau nilai cookie apa adanya
// supaya service yang memutuskan.
func gateSessionContext(c *gin.Context) services.SessionContext {
	var sc services.SessionContext
	if session, ok := middlewares.TableSession(c); ok {
		sc.SessionID = session.ID
		sc.TableID = session.TableID
	} else if id, err := c.Cookie(utils.SessionCookie); err == nil {
		sc.SessionID = id
	}
	if customerID, ok := middlewares.CustomerID(c); ok {
		sc.CustomerID = &customerID
	}
	return sc
}
