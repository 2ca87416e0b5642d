package server

import (
	"buyme/internal/alerts"
	"buyme/internal/auction"
	"buyme/internal/catalog"
	auctionhandler "buyme/services/auction/handler"
	cataloghandler "buyme/services/catalog/handler"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(engine *auction.Engine, catalogSvc *catalog.Service, alertSvc *alerts.Service) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := auctionhandler.NewAuctionHandler(engine, engine.Lifecycle())
	catalogHandler := cataloghandler.NewCatalogHandler(catalogSvc)
	alertHandler := cataloghandler.NewAlertHandler(alertSvc)

	users := router.Group("/users")
	{
		users.POST("", catalogHandler.CreateUserHandler)
		users.GET("", catalogHandler.ListUsersHandler)
		users.GET("/:user_id/alerts", alertHandler.ListAlertsHandler)
	}

	categories := router.Group("/categories")
	{
		categories.POST("", catalogHandler.CreateCategoryHandler)
		categories.GET("", catalogHandler.ListCategoriesHandler)
	}

	items := router.Group("/items")
	{
		items.POST("", catalogHandler.CreateItemHandler)
		items.GET("", catalogHandler.ListItemsHandler)
	}

	auctions := router.Group("/auctions")
	{
		auctions.POST("", catalogHandler.OpenAuctionHandler)
		auctions.GET("", catalogHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", catalogHandler.GetAuctionHandler)
		auctions.POST("/:auction_id/bids", auctionHandler.PlaceBidHandler)
		auctions.GET("/:auction_id/bids", auctionHandler.ListBidsHandler)
		auctions.GET("/:auction_id/top", auctionHandler.GetTopBidHandler)
		auctions.POST("/:auction_id/close", auctionHandler.CloseAuctionHandler)
	}

	alertsGroup := router.Group("/alerts")
	{
		alertsGroup.POST("", alertHandler.CreateAlertHandler)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/sweep", auctionHandler.SweepHandler)
		admin.POST("/alerts/run", alertHandler.RunAlertsHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	return router
}
