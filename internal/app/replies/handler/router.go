package handler

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"replyflow/pkg/logger"
	"replyflow/pkg/metrics"
)

// SetupRoutes собирает маршруты сервиса
//
// Webhook намеренно без аутентификации: платформа подписывает доставку
// на уровне подписки очереди. Внутренний триггер защищен shared secret'ом,
// пользовательские действия - JWT
func SetupRoutes(
	webhookHandler *WebhookHandler,
	processHandler *ProcessHandler,
	reviewHandler *ReviewHandler,
	businessHandler *BusinessHandler,
	authMiddleware *AuthMiddleware,
	internalMiddleware *InternalAuthMiddleware,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(logger.GinLoggerMiddleware())
	router.Use(metrics.GinPrometheusMiddleware("replyflow"))
	router.Use(cors.Default())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "replyflow",
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.POST("/webhooks/reviews", webhookHandler.HandleReviewNotification)

	internal := router.Group("/internal")
	internal.Use(internalMiddleware.Authenticate())
	{
		internal.POST("/process", processHandler.TriggerProcessing)
	}

	reviews := router.Group("/reviews")
	reviews.Use(authMiddleware.Authenticate())
	{
		reviews.GET("/business/:business_id", reviewHandler.GetReviewsByBusiness)
		reviews.POST("/:review_id/reject", reviewHandler.RejectReview)
		reviews.POST("/:review_id/reply", reviewHandler.PublishReply)
		reviews.POST("/:review_id/regenerate", reviewHandler.RegenerateReview)
	}

	businesses := router.Group("/businesses")
	businesses.Use(authMiddleware.Authenticate())
	{
		businesses.POST("/", businessHandler.ConnectBusiness)
		businesses.GET("/locations/:account_id", businessHandler.ListLocations)
	}

	return router
}
