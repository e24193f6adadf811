package router

import (
	"github.com/nwca-cart/internal/config"
	"github.com/nwca-cart/internal/http/handlers"
	"github.com/nwca-cart/internal/logger"
	"github.com/nwca-cart/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the cart facade routes.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	cartHandler := handlers.New(c)

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		cart := apiV1.Group("/cart")
		{
			cart.POST("/initialize", cartHandler.InitializeCart)
			cart.GET("", cartHandler.GetCart)
			cart.GET("/summary", cartHandler.GetSummary)
			cart.POST("/items", cartHandler.AddToCart)
			cart.PUT("/items/:id/sizes/:size", cartHandler.UpdateQuantity)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
			cart.POST("/save-for-later", cartHandler.SaveForLater)
			cart.POST("/clear", cartHandler.ClearCart)
			cart.POST("/submit-quote", cartHandler.SubmitQuoteRequest)
			cart.POST("/sync", cartHandler.SyncWithServer)
			cart.POST("/recalculate", cartHandler.RecalculatePrices)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
