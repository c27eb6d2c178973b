package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/cart"
	"github.com/yeremiapane/qr-ordering/middlewares"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/utils"
)

type OrderController struct {
	Orders   *services.OrderService
	Query    *services.OrderQuery
	Sessions *services.SessionService
}

func NewOrderController(orders *services.OrderService, query *services.OrderQuery, sessions *services.SessionService) *OrderController {
	return &OrderController{Orders: orders, Query: query, Sessions: sessions}
}

// CreateOrder -> POST /menu/orders, kirim isi keranjang ke dapur
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var req struct {
		Items []cart.Item `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, services.OrderResult{Success: false, Message: "Invalid request body"})
		return
	}

	result := oc.Orders.CreateOrder(c.Request.Context(), gateSessionContext(c), req.Items)
	c.JSON(statusForResult(result), result)
}

func statusForResult(r services.OrderResult) int {
	if r.Success {
		return http.StatusCreated
	}
	switch r.Message {
	case services.MsgNoSession, services.MsgInvalidSession:
		return http.StatusUnauthorized
	case services.MsgEmptyCart, services.MsgInvalidQuantity, services.MsgInvalidPrice, services.MsgItemsUnavailable:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetTracking -> GET /orders_tracking, order terbaru meja (atau customer)
func (oc *OrderController) GetTracking(c *gin.Context) {
	sc := oc.trackingContext(c)

	order, err := oc.Query.CurrentOrder(c.Request.Context(), sc)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error fetching order for tracking")
		utils.RespondJSON(c, http.StatusOK, "No order found", nil)
		return
	}
	if order == nil {
		utils.RespondJSON(c, http.StatusOK, "No order found", nil)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Current order", services.NewTrackedOrder(order))
}

// trackingContext: /orders_tracking tidak melewati gate, sesi dibaca sendiri.
// Hanya status yang dicek, bukan expiry.
func (oc *OrderController) trackingContext(c *gin.Context) services.SessionContext {
	var sc services.SessionContext
	if id, err := c.Cookie(utils.SessionCookie); err == nil && id != "" {
		session, err := oc.Sessions.Resolve(c.Request.Context(), id)
		if err == nil && session.Status == models.SessionStatusActive {
			sc.SessionID = session.ID
			sc.TableID = session.TableID
		}
	}
	if customerID, ok := middlewares.CustomerID(c); ok {
		sc.CustomerID = &customerID
	}
	return sc
}

// GetHistory -> GET /orders_history
func (oc *OrderController) GetHistory(c *gin.Context) {
	customerID, ok := middlewares.CustomerID(c)
	if !ok {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	orders, err := oc.Query.History(c.Request.Context(), customerID)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Error fetching orders")
		utils.RespondError(c, http.StatusInternalServerError, errors.New("Error loading orders"))
		return
	}

	tracked := make([]*services.TrackedOrder, 0, len(orders))
	for i := range orders {
		tracked = append(tracked, services.NewTrackedOrder(&orders[i]))
	}
	utils.RespondJSON(c, http.StatusOK, "Order history", tracked)
}

// UpdateOrderStatus -> PATCH /admin/orders/:id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), uint(id), body.Status)
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

// MarkOrderPaid -> PATCH /admin/orders/:id/payment
func (oc *OrderController) MarkOrderPaid(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}

	order, err := oc.Orders.MarkPaid(c.Request.Context(), uint(id))
	if err != nil {
		respondOrderError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order marked as paid", order)
}

func respondOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrInvalidTransition):
		utils.RespondError(c, http.StatusConflict, err)
	default:
		utils.ErrorLogger.WithError(err).Error("Order update failed")
		utils.RespondError(c, http.StatusInternalServerError, errors.New("failed to update order"))
	}
}
