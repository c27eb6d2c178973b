package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/middlewares"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/utils"
)

type MenuController struct {
	Menu *services.MenuService
}

func NewMenuController(menu *services.MenuService) *MenuController {
	return &MenuController{Menu: menu}
}

// GetMenu -> GET /menu?category=
func (mc *MenuController) GetMenu(c *gin.Context) {
	items, err := mc.Menu.ListMenu(c.Request.Context(), c.Query("category"))
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var tableID uint
	if session, ok := middlewares.TableSession(c); ok {
		tableID = session.TableID
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", gin.H{
		"table_id": tableID,
		"items":    items,
	})
}
