package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cashday-ledger/internal/api_gateway/handler"
	"github.com/cashday-ledger/internal/api_gateway/middleware"
	"github.com/gin-gonic/gin"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	transactionHandler *handler.TransactionHandler,
	summaryHandler *handler.SummaryHandler,
	registerHandler *handler.RegisterHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	v1 := r.Group("/api/v1")
	{
		businesses := v1.Group("/businesses/:id")
		{
			businesses.POST("/transactions", transactionHandler.Create)
			businesses.DELETE("/transactions/:txId", transactionHandler.Delete)

			businesses.GET("/days/:day", summaryHandler.GetDay)
			businesses.POST("/days/:day/recompute", summaryHandler.Recompute)
			businesses.GET("/streak", summaryHandler.GetStreak)

			// Register automation
			businesses.POST("/lazy-close", registerHandler.LazyClose)
			businesses.POST("/auto-open", registerHandler.AutoOpen)
		}

		scheduler := v1.Group("/scheduler")
		{
			scheduler.POST("/run", registerHandler.RunScheduler)
			scheduler.GET("/runs", registerHandler.RecentRuns)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
