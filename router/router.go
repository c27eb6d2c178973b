package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/qr-ordering/controllers"
	"github.com/yeremiapane/qr-ordering/kds"
	"github.com/yeremiapane/qr-ordering/middlewares"
	"github.com/yeremiapane/qr-ordering/services"
	"github.com/yeremiapane/qr-ordering/tracking"
)

// Deps berisi semua komponen yang dirakit di main.
type Deps struct {
	Sessions *services.SessionService
	Orders   *services.OrderService
	Query    *services.OrderQuery
	Menu     *services.MenuService
	Tracking *tracking.Hub
	KDS      *kds.Hub

	CORSOrigin   string
	CookieSecure bool
	RateLimit    *middlewares.RateLimiter
	StrictLimit  *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders(d.CookieSecure))
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigin))
	if d.RateLimit != nil {
		r.Use(d.RateLimit.RateLimit())
	}
	r.Use(middlewares.Identity())
	r.Use(middlewares.TableSessionGate(d.Sessions))

	strict := func(c *gin.Context) { c.Next() }
	if d.StrictLimit != nil {
		strict = d.StrictLimit.RateLimit()
	}

	tableCtrl := controllers.NewTableController(d.Sessions, d.Menu, d.CookieSecure)
	menuCtrl := controllers.NewMenuController(d.Menu)
	orderCtrl := controllers.NewOrderController(d.Orders, d.Query, d.Sessions)
	trackingCtrl := controllers.NewTrackingController(d.Tracking, orderCtrl, d.CORSOrigin)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/", tableCtrl.Landing)
	r.GET("/scan_qrcode", strict, tableCtrl.ScanQRCode)
	r.GET("/error/:reason", tableCtrl.ErrorPage)

	mainPage := r.Group("/main")
	{
		mainPage.GET("", tableCtrl.MainPage)
		mainPage.POST("/session", tableCtrl.StartSession)
	}

	// Customer area, sesi sudah divalidasi gate
	menu := r.Group("/menu")
	{
		menu.GET("", menuCtrl.GetMenu)
		menu.POST("/orders", strict, orderCtrl.CreateOrder)
	}

	r.GET("/orders_tracking", orderCtrl.GetTracking)
	r.GET("/orders_tracking/ws", trackingCtrl.HandleWebSocket)
	r.GET("/orders_history", orderCtrl.GetHistory)

	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())
	{
		staff := admin.Group("")
		staff.Use(middlewares.RoleCheck("staff", "chef"))
		{
			staff.PATCH("/orders/:id/status", orderCtrl.UpdateOrderStatus)
			staff.PATCH("/orders/:id/payment", orderCtrl.MarkOrderPaid)
			staff.POST("/sessions/:id/expire", tableCtrl.ExpireSession)
		}

		if d.KDS != nil {
			kdsCtrl := controllers.NewKDSController(d.KDS, d.CORSOrigin)
			admin.GET("/kds/ws", middlewares.RoleCheck("chef", "staff"), kdsCtrl.KDSHandler)
		}
	}

	return r
}
