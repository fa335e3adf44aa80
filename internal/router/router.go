package router

import (
	"github.com/blues/gfs/internal/event"
	"github.com/blues/gfs/internal/handler"
	"github.com/blues/gfs/internal/logic"
	"github.com/gin-gonic/gin"
)

func Setup(campaignLogic *logic.CampaignLogic, recordLogic *logic.RecordLogic, eventStore *event.Store) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "goal-funding-service",
		})
	})

	campaignHandler := handler.NewCampaignHandler(campaignLogic)
	recordHandler := handler.NewRecordHandler(recordLogic, eventStore)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", recordHandler.GetCampaigns)
			campaigns.GET("/:id", recordHandler.GetCampaign)
			campaigns.GET("/:id/stats", recordHandler.GetCampaignStats)

			campaigns.PUT("/:id/metadata", campaignHandler.UpdateMetadata)
			campaigns.PUT("/:id/goal", campaignHandler.UpdateGoal)
			campaigns.POST("/:id/pause", campaignHandler.Pause)
			campaigns.POST("/:id/unpause", campaignHandler.Unpause)
			campaigns.POST("/:id/cancel", campaignHandler.Cancel)
			campaigns.POST("/:id/finalize", campaignHandler.Finalize)
			campaigns.POST("/:id/grant", campaignHandler.GrantCap)

			campaigns.POST("/:id/contributions", campaignHandler.Contribute)
			campaigns.GET("/:id/contributions", recordHandler.GetContributions)
			campaigns.GET("/:id/contributions/stats", recordHandler.GetContributionStats)

			campaigns.POST("/:id/withdrawals", campaignHandler.Withdraw)
			campaigns.GET("/:id/withdrawals", recordHandler.GetWithdrawals)

			campaigns.POST("/:id/refunds", campaignHandler.Refund)
			campaigns.GET("/:id/refunds", recordHandler.GetRefunds)
			campaigns.GET("/:id/refunds/stats", recordHandler.GetRefundStats)
			campaigns.POST("/:id/refunds/batch", campaignHandler.RefundBatch)
			campaigns.POST("/:id/refunds/emergency", campaignHandler.EmergencyRefund)

			campaigns.GET("/:id/events", recordHandler.GetCampaignEvents)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
