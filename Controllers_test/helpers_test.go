package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/qr-ordering/database"
	"github.com/yeremiapane/qr-ordering/models"
	"github.com/yeremiapane/qr-ordering/router"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/tracking"
	"github.com/yeremiapane/qr-ordering/utils"
)

type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Sessions *services.SessionService
	Orders   *services.OrderService
	Hub      *tracking.Hub
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
	return db
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	sessions := services.NewSessionService(db, 2*time.Hour, nil)
	sessions.TakeoutTableID = 9
	loc, err := time.LoadLocation("Asia/Bangkok")
	require.NoError(t, err)
	orders := services.NewOrderService(db, services.NewOrderIDGenerator(loc))
	hub := tracking.NewHub()

	r := router.SetupRouter(router.Deps{
		Sessions:   sessions,
		Orders:     orders,
		Query:      services.NewOrderQuery(db),
		Menu:       services.NewMenuService(db),
		Tracking:   hub,
		CORSOrigin: "http://localhost:3000",
	})
	return &testApp{DB: db, Router: r, Sessions: sessions, Orders: orders, Hub: hub}
}

func (a *testApp) startSession(t *testing.T, tableID uint) *models.TableSession {
	t.Helper()
	session, err := a.Sessions.StartByTable(context.Background(), tableID)
	require.NoError(t, err)
	return session
}

type requestOption func(*http.Request)

func withSession(id string) requestOption {
	return func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: utils.SessionCookie, Value: id})
	}
}

func withToken(t *testing.T, subject, role string) requestOption {
	token, err := utils.GenerateToken(subject, role, time.Hour)
	require.NoError(t, err)
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, opts ...requestOption) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, opt := range opts {
		opt(req)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func seedMenu(t *testing.T, db *gorm.DB) []models.MenuItem {
	t.Helper()
	items := []models.MenuItem{
		{Name: "Pad Thai", Price: decimal.NewFromInt(100), Category: "main", IsAvailable: true, IsRecommended: true},
		{Name: "Thai Tea", Price: decimal.NewFromInt(50), Category: "drink", IsAvailable: true},
	}
	require.NoError(t, db.Create(&items).Error)
	return items
}

func serve(app *testApp, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, req)
	return w
}
