package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/utils"
)

const recommendedLimit = 6

type TableController struct {
	Sessions     *services.SessionService
	Menu         *services.MenuService
	CookieSecure bool
}

func NewTableController(sessions *services.SessionService, menu *services.MenuService, cookieSecure bool) *TableController {
	return &TableController{Sessions: sessions, Menu: menu, CookieSecure: cookieSecure}
}

// Landing -> halaman awal untuk pengunjung tanpa sesi
func (tc *TableController) Landing(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Scan the QR code on your table to start ordering", nil)
}

// ScanQRCode -> GET /scan_qrcode?t=<token>
func (tc *TableController) ScanQRCode(c *gin.Context) {
	token := c.Query("t")
	if token == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	session, err := tc.Sessions.Redeem(c.Request.Context(), token)
	if err != nil {
		utils.InfoLogger.WithError(err).Info("QR code redemption rejected")
		c.Redirect(http.StatusFound, "/error/expired")
		return
	}

	tc.setSessionCookie(c, session)
	c.Redirect(http.StatusFound, "/main")
}

// StartSession -> POST /main/session, tombol "เริ่มสั่งอาหาร"
func (tc *TableController) StartSession(c *gin.Context) {
	var req struct {
		TableID uint `form:"table_id" json:"table_id" binding:"required"`
	}
	if err := c.ShouldBind(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := tc.Sessions.StartByTable(c.Request.Context(), req.TableID)
	if err != nil {
		if errors.Is(err, services.ErrTableNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.ErrorLogger.WithError(err).WithField("table_id", req.TableID).Error("Failed to start table session")
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to create session"))
		return
	}

	tc.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, "/menu")
}

// MainPage -> GET /main, kartu meja + menu rekomendasi
func (tc *TableController) MainPage(c *gin.Context) {
	sessionID, err := c.Cookie(utils.SessionCookie)
	if err != nil || sessionID == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	session, err := tc.Sessions.Resolve(c.Request.Context(), sessionID)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error fetching table session")
		c.Redirect(http.StatusFound, "/")
		return
	}

	recommended, err := tc.Menu.Recommended(c.Request.Context(), recommendedLimit)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error fetching recommended menu")
		recommended = []models.MenuItem{}
	}

	utils.RespondJSON(c, http.StatusOK, "Table info", gin.H{
		"table_id":    session.TableID,
		"label":       tc.Sessions.TableLabel(session.TableID),
		"is_takeout":  tc.Sessions.IsTakeout(session.TableID),
		"recommended": recommended,
	})
}

// ExpireSession -> POST /admin/sessions/:id/expire, staff menutup meja
func (tc *TableController) ExpireSession(c *gin.Context) {
	id := c.Param("id")
	if err := tc.Sessions.Expire(c.Request.Context(), id); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			utils.RespondError(c, http.StatusNotFound, err)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session expired", gin.H{"id": id})
}

// ErrorPage -> /error/:reason
func (tc *TableController) ErrorPage(c *gin.Context) {
	message := "Something went wrong"
	if c.Param("reason") == "expired" {
		message = "This QR code has expired or is invalid. Please ask staff for a new one."
	}
	utils.RespondJSON(c, http.StatusOK, message, gin.H{"reason": c.Param("reason")})
}

func (tc *TableController) setSessionCookie(c *gin.Context, session *models.TableSession) {
	utils.SetSessionCookie(c, session.ID, tc.Sessions.TTL, tc.CookieSecure)

	utils.InfoLogger.WithFields(logrus.Fields{
		"table_id":   session.TableID,
		"session_id": session.ID,
	}).Info("Session cookie issued")
}
