package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter wires the payment API. An empty webhookSecret disables signature
// verification (sandbox mode).
func NewRouter(h *Handler, webhookSecret string, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/health", h.Health)

	api := r.Group("/api/payment")
	{
		api.POST("", h.Create)
		api.GET("", h.Filter)
		api.GET("/:id", h.FindById)
		api.PUT("/:id", h.Update)
	}

	webhook := api.Group("/webhook")
	if webhookSecret != "" {
		webhook.Use(WebhookSignature(webhookSecret, logger))
	}
	webhook.POST("", h.Webhook)

	return r
}
