package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmer-market/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted on the engine.
type Handlers struct {
	Webhook     *handlers.WebhookHandler
	Marketplace *handlers.MarketplaceHandler
	Farm        *handlers.FarmHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	api := r.Group("/api")

	if m := h.Marketplace; m != nil {
		api.POST("/users", m.CreateUser)
		api.GET("/users/:id", m.GetUser)

		api.GET("/vegetables", m.ListVegetables)
		api.POST("/vegetables", m.CreateVegetable)
		api.GET("/vegetables/:id", m.GetVegetable)
		api.PUT("/vegetables/:id", m.UpdateVegetable)
		api.DELETE("/vegetables/:id", m.DeleteVegetable)

		api.GET("/cart/:user_id", m.GetCart)
		api.DELETE("/cart/:user_id", m.ClearCart)
		api.POST("/cart/:user_id/items", m.AddCartItem)
		api.PUT("/cart/:user_id/items/:vegetable_id", m.UpdateCartItem)
		api.DELETE("/cart/:user_id/items/:vegetable_id", m.RemoveCartItem)

		api.POST("/orders", m.Checkout)
		api.GET("/orders", m.ListOrders)
		api.GET("/orders/:id", m.GetOrder)
		api.PATCH("/orders/:id/status", m.UpdateOrderStatus)

		api.POST("/prebookings", m.CreatePreBooking)
		api.GET("/prebookings", m.ListPreBookings)
		api.PATCH("/prebookings/:id/status", m.UpdatePreBookingStatus)
	}

	if f := h.Farm; f != nil {
		api.GET("/trees", f.ListTreeTypes)
		api.POST("/trees", f.CreateTreeType)

		layouts := api.Group("/farm-layouts")
		layouts.GET("", f.ActiveLayout)
		layouts.GET("/:id", f.GetLayout)
		layouts.PUT("/:id", f.UpdateLayout)
		layouts.POST("/:id/expand", f.ExpandLayout)
		layouts.GET("/:id/export", f.ExportLayout)
		layouts.GET("/:id/blocks/:block/cells", f.BlockCells)
		layouts.GET("/:id/positions", f.ListPositions)
		layouts.POST("/:id/positions", f.PlaceTree)
		layouts.GET("/:id/positions/at", f.TreeAt)
		layouts.GET("/:id/node-types", f.ListNodeTypes)
		layouts.PUT("/:id/node-types", f.SetNodeType)

		positions := api.Group("/tree-positions")
		positions.PATCH("/:id", f.UpdatePosition)
		positions.DELETE("/:id", f.RemovePosition)
		positions.PUT("/:id/gps", f.AttachGPS)
		positions.GET("/:id/care", f.CareHistory)
		positions.POST("/:id/care", f.RecordCare)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
