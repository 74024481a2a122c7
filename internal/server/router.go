package server

import (
	"auction-engine/internal/broadcast"
	handler "auction-engine/services/auction/handler"

	"github.com/gin-gonic/gin"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.AuctionServiceInterface, hub *broadcast.Hub, jwtSecret []byte) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	auctionHandler := handler.NewAuctionHandler(service)
	auth := AuthMiddleware(jwtSecret)

	auctions := router.Group("/auctions")
	{
		auctions.GET("", auctionHandler.ListAuctionsHandler)
		auctions.GET("/:auction_id", auctionHandler.GetAuctionHandler)
		auctions.GET("/:auction_id/minimum-bid", auctionHandler.MinimumBidHandler)

		auctions.POST("", auth, auctionHandler.CreateAuctionHandler)
		auctions.POST("/:auction_id/bid", auth, auctionHandler.PlaceBidHandler)
		auctions.POST("/:auction_id/restart", auth, auctionHandler.RestartAuctionHandler)
		auctions.POST("/:auction_id/cancel", auth, auctionHandler.CancelAuctionHandler)
	}

	if hub != nil {
		ws := router.Group("/ws")
		{
			ws.GET("", SubscribeHandler(hub))
			ws.GET("/auctions/:auction_id", SubscribeHandler(hub))
		}
	}

	return router
}
