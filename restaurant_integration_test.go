package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/qr-ordering/cart"
	"github.com/yeremiapane/qr-ordering/database"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/router"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type integrationEnv struct {
	db       *gorm.DB
	router   *gin.Engine
	sessions *services.SessionService
	hub      *tracking.Hub
}

// TestEndToEndIntegration menguji flow utama pelanggan:
// 1. Scan QR meja takeout -> cookie + /main
// 2. Halaman main menampilkan label takeout
// 3. Isi keranjang lalu submit order
// 4. Submit kedua masuk ke order yang sama
// 5. Dapur mengubah status -> tracking ikut berubah
func TestEndToEndIntegration(t *testing.T) {
	env := setupIntegration(t)

	// 0. QR meja 9 sudah dicetak (sesi + token)
	printed, err := env.sessions.StartByTable(context.Background(), 9)
	require.NoError(t, err)

	// 1. Scan
	cookie := scanQRCodeTest(t, env, printed.Token)

	// 2. Main page
	mainPageTest(t, env, cookie)

	// 3. Keranjang + order pertama
	menu := seedIntegrationMenu(t, env.db)
	basket := cart.New()
	basket.Add(cart.Item{ID: menu[0].ID, Name: menu[0].Name, Price: menu[0].Price, Quantity: 1})
	basket.Add(cart.Item{ID: menu[1].ID, Name: menu[1].Name, Price: menu[1].Price, Quantity: 1})
	basket.Add(cart.Item{ID: menu[0].ID, Name: menu[0].Name, Price: menu[0].Price, Quantity: 1})
	require.Equal(t, "250", basket.Total().String())
	orderRef := submitOrderTest(t, env, cookie, basket.Items())

	// 4. Order kedua dipakai ulang
	extra := cart.New(cart.Item{ID: menu[1].ID, Name: menu[1].Name, Price: menu[1].Price, Quantity: 2})
	assert.Equal(t, orderRef, submitOrderTest(t, env, cookie, extra.Items()))

	// 5. Dapur + tracking
	kitchenAndTrackingTest(t, env, cookie, orderRef)
}

func setupIntegration(t *testing.T) *integrationEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedTables(db, 9))

	sessions := services.NewSessionService(db, 2*time.Hour, nil)
	sessions.TakeoutTableID = 9
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	hub := tracking.NewHub()

	r := router.SetupRouter(router.Deps{
		Sessions:   sessions,
		Orders:     services.NewOrderService(db, services.NewOrderIDGenerator(loc)),
		Query:      services.NewOrderQuery(db),
		Menu:       services.NewMenuService(db),
		Tracking:   hub,
		CORSOrigin: "http://localhost:3000",
	})
	return &integrationEnv{db: db, router: r, sessions: sessions, hub: hub}
}

func seedIntegrationMenu(t *testing.T, db *gorm.DB) []models.MenuItem {
	items := []models.MenuItem{
		{Name: "Khao Man Gai", Price: mustDecimal(t, "100"), Category: "main", IsAvailable: true},
		{Name: "Cha Yen", Price: mustDecimal(t, "50"), Category: "drink", IsAvailable: true},
	}
	require.NoError(t, db.Create(&items).Error)
	return items
}

func scanQRCodeTest(t *testing.T, env *integrationEnv, token string) *http.Cookie {
	req, _ := http.NewRequest(http.MethodGet, "/scan_qrcode?t="+token, nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	require.Equal(t, "/main", w.Header().Get("Location"))
	for _, c := range w.Result().Cookies() {
		if c.Name == utils.SessionCookie {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func mainPageTest(t *testing.T, env *integrationEnv, cookie *http.Cookie) {
	req, _ := http.NewRequest(http.MethodGet, "/main", nil)
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			TableID uint   `json:"table_id"`
			Label   string `json:"label"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(9), resp.Data.TableID)
	assert.Equal(t, "สั่งกลับบ้าน", resp.Data.Label)
}

func submitOrderTest(t *testing.T, env *integrationEnv, cookie *http.Cookie, items []cart.Item) string {
	body, err := json.Marshal(map[string]interface{}{"items": items})
	require.NoError(t, err)

	req, _ := http.NewRequest(http.MethodPost, "/menu/orders", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(cookie)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var result services.OrderResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.True(t, result.Success)
	assert.Equal(t, "Order placed successfully!", result.Message)
	return result.OrderID
}

func kitchenAndTrackingTest(t *testing.T, env *integrationEnv, cookie *http.Cookie, orderRef string) {
	var order models.Order
	require.NoError(t, env.db.Where("order_id = ?", orderRef).First(&order).Error)
	// 2x100 + 50 lalu 2x50
	assert.True(t, order.TotalAmount.Equal(mustDecimal(t, "350")), order.TotalAmount.String())

	monitor := services.NewChangeMonitor(env.db, env.hub, 20*time.Millisecond)
	monitor.Start()
	defer monitor.Stop()

	steps := make(chan int, 32)
	viewer := tracking.NewViewer(env.hub, services.NewOrderQuery(env.db), func(s tracking.Snapshot) {
		if !s.Refetched {
			return
		}
		select {
		case steps <- s.Step:
		default:
		}
	})
	viewer.Watch(context.Background(), order.ID)
	defer viewer.Stop()
	assert.Equal(t, 0, waitStep(t, steps, 0))

	token, err := utils.GenerateToken("chef-1", "chef", time.Hour)
	require.NoError(t, err)
	body := bytes.NewBufferString(`{"status":"cooking"}`)
	req, _ := http.NewRequest(http.MethodPatch, "/admin/orders/"+uintString(order.ID)+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, 1, waitStep(t, steps, 1))

	req, _ = http.NewRequest(http.MethodGet, "/orders_tracking", nil)
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data services.TrackedOrder `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.Step)
	assert.Equal(t, "350.00 ฿", resp.Data.TotalDisplay)
	assert.Len(t, resp.Data.Order.Items, 3)
}

func waitStep(t *testing.T, steps <-chan int, want int) int {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case step := <-steps:
			if step == want {
				return step
			}
		case <-timeout:
			t.Fatalf("viewer never reached step %d", want)
			return -1
		}
	}
}

func uintString(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
