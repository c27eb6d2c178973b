package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
)

const (
	EventSnapshot = "snapshot"
	EventError    = "error"

	wsWriteTimeout = 5 * time.Second
)

type wsMessage struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Refetched bool        `json:"refetched,omitempty"`
	Message   string      `json:"message,omitempty"`
}

type TrackingController struct {
	Hub      *tracking.Hub
	Query    *services.OrderQuery
	Orders   *OrderController
	upgrader websocket.Upgrader
}

func NewTrackingController(hub *tracking.Hub, orders *OrderController, allowedOrigin string) *TrackingController {
	return &TrackingController{
		Hub:    hub,
		Query:  orders.Query,
		Orders: orders,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return checkOrigin(r, allowedOrigin)
			},
		},
	}
}

func checkOrigin(r *http.Request, allowed string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == allowed || allowed == "*" {
		return true
	}
	u, err := url.Parse(origin)
	return err == nil && u.Host == r.Host
}

// HandleWebSocket -> GET /orders_tracking/ws?order_id=N
// Client boleh mengirim {"order_id": M} untuk berpindah order.
func (tc *TrackingController) HandleWebSocket(c *gin.Context) {
	sc := tc.Orders.trackingContext(c)

	orderID, err := strconv.ParseUint(c.Query("order_id"), 10, 64)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid order id"))
		return
	}
	if err := tc.authorize(c.Request.Context(), uint(orderID), sc); err != nil {
		respondTrackingError(c, err)
		return
	}

	ws, err := tc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("Websocket upgrade failed")
		return
	}
	defer ws.Close()

	var writeMu sync.Mutex
	write := func(msg wsMessage) {
		writeMu.Lock()
		defer writeMu.Unlock()
		ws.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := ws.WriteJSON(msg); err != nil {
			utils.ErrorLogger.WithError(err).Debug("Websocket write failed")
		}
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	viewer := tracking.NewViewer(tc.Hub, tc.Query, func(s tracking.Snapshot) {
		write(wsMessage{Event: EventSnapshot, Data: services.NewTrackedOrder(s.Order), Refetched: s.Refetched})
	})
	defer viewer.Stop()
	viewer.Watch(ctx, uint(orderID))

	for {
		var req struct {
			OrderID uint `json:"order_id"`
		}
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		if err := tc.authorize(ctx, req.OrderID, sc); err != nil {
			write(wsMessage{Event: EventError, Message: err.Error()})
			continue
		}
		viewer.Watch(ctx, req.OrderID)
	}
}

func (tc *TrackingController) authorize(ctx context.Context, orderID uint, sc services.SessionContext) error {
	order, err := tc.Query.FetchOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !services.CanView(order, sc) {
		return services.ErrForbiddenOrder
	}
	return nil
}

func respondTrackingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrForbiddenOrder):
		utils.RespondError(c, http.StatusForbidden, err)
	default:
		utils.RespondError(c, http.StatusInternalServerError, err)
	}
}
