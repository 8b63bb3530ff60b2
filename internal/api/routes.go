package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/codyseavey/berit/internal/api/handlers"
	"github.com/codyseavey/berit/internal/cardindex"
	"github.com/codyseavey/berit/internal/commands"
	"github.com/codyseavey/berit/internal/services"
)

func SetupRouter(dispatcher *commands.Dispatcher, index *cardindex.Index, matcher *cardindex.Matcher, selector *cardindex.Selector, statsService *services.LookupStatsService, allowedOrigins []string) *gin.Engine {
	router := gin.Default()
	router.Use(metricsMiddleware())

	// CORS configuration
	config := cors.DefaultConfig()
	if len(allowedOrigins) > 0 {
		config.AllowOrigins = allowedOrigins
	} else {
		config.AllowAllOrigins = true
	}
	config.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	// Initialize handlers
	queryHandler := handlers.NewQueryHandler(dispatcher)
	cardHandler := handlers.NewCardHandler(index, matcher, selector)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/query", queryHandler.Query)

		cards := api.Group("/cards")
		{
			cards.GET("/resolve", cardHandler.Resolve)
			cards.GET("/random", cardHandler.Random)
		}

		api.GET("/index/status", cardHandler.Status)

		// Lookup stats are only served when a database is configured
		if statsService != nil {
			statsHandler := handlers.NewStatsHandler(statsService)
			api.GET("/stats/lookups", statsHandler.GetLookups)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "cards": index.Len()})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
