package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zenithmed/procureflow/internal/repository"
	"go.uber.org/zap"
)

// Handlers groups the route handlers the router mounts. Extract is optional;
// when nil the endpoint is not registered.
type Handlers struct {
	Requisitions  *RequisitionHandler
	Payments      *PaymentHandler
	Notifications *NotificationHandler
	Export        *ExportHandler
	Extract       *ExtractHandler
}

// NewRouter builds the HTTP router. Every /api/v1 route requires a resolved
// identity.
func NewRouter(h Handlers, profiles *repository.ProfileRepository, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "procureflow",
			"time":    time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api/v1")
	api.Use(IdentityMiddleware(profiles))
	{
		api.POST("/requisitions", h.Requisitions.Create)
		api.GET("/requisitions", h.Requisitions.List)
		api.GET("/requisitions/:id", h.Requisitions.Get)
		api.POST("/requisitions/:id/approve", h.Requisitions.Approve)
		api.POST("/requisitions/:id/query", h.Requisitions.Query)
		api.POST("/requisitions/:id/reject", h.Requisitions.Reject)
		api.POST("/requisitions/:id/price", h.Requisitions.Price)
		api.POST("/requisitions/:id/resubmit", h.Requisitions.Resubmit)
		api.POST("/requisitions/:id/messages", h.Requisitions.AddMessage)
		api.GET("/requisitions/:id/messages", h.Requisitions.ListMessages)

		api.POST("/requisitions/:id/payments", h.Payments.Add)
		api.GET("/requisitions/:id/payments", h.Payments.List)
		api.POST("/requisitions/:id/mark-paid", h.Payments.MarkPaid)
		api.GET("/payments/proof", h.Payments.Proof)

		api.GET("/requisitions/:id/export", h.Export.Export)

		api.GET("/notifications", h.Notifications.List)
		api.POST("/notifications/:id/read", h.Notifications.MarkRead)
		api.POST("/notifications/read-all", h.Notifications.MarkAllRead)

		if h.Extract != nil {
			api.POST("/quotes/extract", h.Extract.Extract)
		}
	}

	return router
}
