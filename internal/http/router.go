package http

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/quantumauth-io/nft-checkout/internal/metrics"
)

func NewRouter(h *Handler, m *metrics.Collector, allowOrigins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog(), limitBody(MaxRequestBytes))

	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
	}))

	api := r.Group(APIPrefix)
	{
		api.GET("/health", h.Health)

		api.GET("/bag", h.GetBag)
		api.POST("/bag/assets", h.AddAssets)
		api.DELETE("/bag/assets", h.RemoveAssets)
		api.POST("/bag/clear", h.ClearBag)
		api.POST("/bag/unavailable/seen", h.MarkUnavailableSeen)

		api.POST("/checkout", h.Checkout)
		api.POST("/checkout/review", h.ReviewAsset)
		api.POST("/checkout/confirm", h.Confirm)

		api.POST("/pool/price", h.PoolPrice)

		api.POST("/listings", h.CreateListings)
		api.POST("/listings/fees", h.ListingFees)
	}

	if m != nil {
		r.GET(MetricsPath, gin.WrapH(m.Handler()))
	}

	return r
}
