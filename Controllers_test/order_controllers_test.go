package Controllers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/services"
)

func orderPayload(items ...map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"items": items}
}

func line(id uint, price float64, qty int) map[string]interface{} {
	return map[string]interface{}{"id": id, "name": "item", "price": price, "quantity": qty}
}

func placeOrder(t *testing.T, app *testApp, session *models.TableSession, items ...map[string]interface{}) string {
	t.Helper()
	w := app.do(t, http.MethodPost, "/menu/orders", orderPayload(items...), withSession(session.ID))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decodeResponse(t, w)
	require.Equal(t, true, resp["success"])
	return resp["orderId"].(string)
}

func TestCreateOrderAndReuse(t *testing.T) {
	app := setupApp(t)
	menu := seedMenu(t, app.DB)
	session := app.startSession(t, 2)

	first := placeOrder(t, app, session, line(menu[0].ID, 100, 2))
	assert.True(t, strings.HasPrefix(first, "OR-"))
	assert.Len(t, first, len("OR-DDMMYY-0001"))

	w := app.do(t, http.MethodPost, "/menu/orders", orderPayload(line(menu[1].ID, 50, 1)), withSession(session.ID))
	require.Equal(t, http.StatusCreated, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, services.MsgOrderPlaced, resp["message"])
	assert.Equal(t, first, resp["orderId"])

	var order models.Order
	require.NoError(t, app.DB.Where("order_id = ?", first).First(&order).Error)
	assert.True(t, order.TotalAmount.Equal(decimal.NewFromInt(250)), order.TotalAmount.String())
}

func TestCreateOrderValidation(t *testing.T) {
	app := setupApp(t)
	session := app.startSession(t, 2)

	w := app.do(t, http.MethodPost, "/menu/orders", orderPayload(), withSession(session.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, services.MsgEmptyCart, resp["message"])
	assert.NotContains(t, resp, "orderId")

	w = app.do(t, http.MethodPost, "/menu/orders", orderPayload(line(1, 10, -1)), withSession(session.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPost, "/menu/orders", orderPayload(line(1, -10, 1)), withSession(session.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, services.MsgInvalidPrice, decodeResponse(t, w)["message"])

	req, _ := http.NewRequest(http.MethodPost, "/menu/orders", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	withSession(session.ID)(req)
	w = serve(app, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStaffUpdatesOrderStatus(t *testing.T) {
	app := setupApp(t)
	session := app.startSession(t, 3)
	ref := placeOrder(t, app, session, line(1, 100, 1))

	var order models.Order
	require.NoError(t, app.DB.Where("order_id = ?", ref).First(&order).Error)
	path := fmt.Sprintf("/admin/orders/%d/status", order.ID)
	chef := withToken(t, "chef-1", "chef")

	w := app.do(t, http.MethodPatch, path, map[string]string{"status": "cooking"}, chef)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(t, http.MethodPatch, path, map[string]string{"status": "pending"}, chef)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(t, http.MethodPatch, "/admin/orders/999/status", map[string]string{"status": "cooking"}, chef)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(t, http.MethodPatch, "/admin/orders/abc/status", map[string]string{"status": "cooking"}, chef)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodPatch, fmt.Sprintf("/admin/orders/%d/payment", order.ID), nil, withToken(t, "staff-1", "staff"))
	require.Equal(t, http.StatusOK, w.Code)

	// order lunas tidak dipakai ulang
	next := placeOrder(t, app, session, line(1, 100, 1))
	assert.NotEqual(t, ref, next)
}

func TestGetTracking(t *testing.T) {
	app := setupApp(t)
	session := app.startSession(t, 4)
	ref := placeOrder(t, app, session, line(1, 1000, 1), line(2, 250.5, 1))

	w := app.do(t, http.MethodGet, "/orders_tracking", nil, withSession(session.ID))
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	order := data["order"].(map[string]interface{})
	assert.Equal(t, ref, order["order_id"])
	assert.Equal(t, float64(0), data["step"])
	assert.Equal(t, "1,250.50 ฿", data["total_display"])
	assert.Len(t, order["order_items"], 2)

	w = app.do(t, http.MethodGet, "/orders_tracking", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decodeResponse(t, w)["data"])
}

func TestOrderHistory(t *testing.T) {
	app := setupApp(t)
	session := app.startSession(t, 5)
	customer := withToken(t, "user-77", "customer")

	w := app.do(t, http.MethodPost, "/menu/orders", orderPayload(line(1, 10, 1)), withSession(session.ID), customer)
	require.Equal(t, http.StatusCreated, w.Code)

	w = app.do(t, http.MethodGet, "/orders_history", nil, customer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w)["data"], 1)

	w = app.do(t, http.MethodGet, "/orders_history", nil, withToken(t, "someone-else", "customer"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeResponse(t, w)["data"])
}

func TestTrackingWebSocket(t *testing.T) {
	app := setupApp(t)
	session := app.startSession(t, 6)
	ref := placeOrder(t, app, session, line(1, 100, 1))

	var order models.Order
	require.NoError(t, app.DB.Where("order_id = ?", ref).First(&order).Error)

	monitor := services.NewChangeMonitor(app.DB, app.Hub, 20*time.Millisecond)
	monitor.Start()
	defer monitor.Stop()

	srv := httptest.NewServer(app.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/orders_tracking/ws?order_id=%d", order.ID)
	header := http.Header{}
	header.Add("Cookie", "table_session_id="+session.ID)

	// meja lain tidak boleh mengikuti order ini
	other := app.startSession(t, 7)
	badHeader := http.Header{}
	badHeader.Add("Cookie", "table_session_id="+other.ID)
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, badHeader)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	defer conn.Close()

	readStep := func() (int, bool) {
		var msg struct {
			Event     string `json:"event"`
			Refetched bool   `json:"refetched"`
			Data      struct {
				Step int `json:"step"`
			} `json:"data"`
		}
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		require.NoError(t, conn.ReadJSON(&msg))
		require.Equal(t, "snapshot", msg.Event)
		return msg.Data.Step, msg.Refetched
	}

	step, refetched := readStep()
	assert.Equal(t, 0, step)
	assert.True(t, refetched)

	_, err = app.Orders.UpdateStatus(context.Background(), order.ID, models.OrderStatusCooking)
	require.NoError(t, err)

	// patch lalu refetch; tunggu sampai snapshot refetch menunjukkan langkah 1
	for {
		step, refetched = readStep()
		if refetched && step == 1 {
			break
		}
	}
}
