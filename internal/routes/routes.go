package routes

import (
	"aurave_storefront/internal/handlers"
	"aurave_storefront/internal/logger"
	"aurave_storefront/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/redis/go-redis/v9"
)

type Deps struct {
	Handler        *handlers.Handler
	Sessions       sessions.Store
	Redis          *redis.Client // nil : pas de rate limit
	CartRateLimit  int
	AllowedOrigins []string
	Log            *logger.Logger
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = d.AllowedOrigins
	corsCfg.AllowCredentials = true
	if len(corsCfg.AllowOrigins) == 0 {
		corsCfg.AllowOrigins = nil
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	}
	r.Use(cors.New(corsCfg))

	h := d.Handler
	limit := middleware.CartRateLimit(d.Redis, d.CartRateLimit)

	api := r.Group("/api", middleware.Session(d.Sessions, d.Log))
	{
		c := api.Group("/cart")
		c.GET("", h.GetCart)
		c.GET("/fragment", h.GetCartFragment)
		c.POST("/add", limit, h.AddToCart)
		c.POST("/:index/increment", limit, h.IncrementItem)
		c.POST("/:index/decrement", limit, h.DecrementItem)
		c.DELETE("/:index", h.RemoveFromCart)
		c.DELETE("", h.ClearCart)
		c.POST("/items/:id/increment", limit, h.IncrementItemByID)
		c.POST("/items/:id/decrement", limit, h.DecrementItemByID)
		c.DELETE("/items/:id", h.RemoveItemByID)
		c.GET("/order", h.OrderCart)
		c.GET("/order/qr", h.OrderCartQR)

		qv := api.Group("/quickview")
		qv.GET("", h.GetQuickView)
		qv.POST("", h.OpenQuickView)
		qv.DELETE("", h.DiscardQuickView)
		qv.POST("/size", h.SelectSize)
		qv.POST("/quantity/increase", h.IncreaseQuantity)
		qv.POST("/quantity/decrease", h.DecreaseQuantity)
		qv.POST("/commit", limit, h.CommitQuickView)
		qv.GET("/order", h.OrderQuickView)
	}

	r.GET("/ws/cart", middleware.Session(d.Sessions, d.Log), h.CartWebSocket)
}
