package main

import (
	"context"

	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/api"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/config"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/messaging"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/store"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/tasks"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/internal/webhook"
	"github.com/gotonitindua/sardaarji-whatsapp-webhook/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	if err := logger.Init(cfg.LogPath); err != nil {
		panic(err)
	}
	defer logger.Sync()

	st, err := store.Open(context.Background(), cfg)
	if err != nil {
		logger.Fatal("failed to open store", zap.String("backend", cfg.StoreBackend), zap.Error(err))
	}
	defer st.Close()

	runner := tasks.NewRunner(cfg.Workers, cfg.QueueSize)
	defer runner.Close()

	// Keep the interface nil when outbound is unconfigured; a typed nil
	// pointer would pass the handler's nil check.
	var sender api.MessageSender
	if s, err := messaging.NewSender(cfg); err != nil {
		logger.Warn("outbound sending disabled", zap.Error(err))
	} else {
		sender = s
	}

	webhookHandler := webhook.NewHandler(cfg, st, runner)
	adminHandler := api.NewAdminHandler(st, sender, runner)

	r := gin.Default()

	// CORS Middleware
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// Webhook Routes
	r.GET("/", webhookHandler.HandleHealth)
	twilioGroup := r.Group("/twilio", webhookHandler.ValidateSignature)
	{
		twilioGroup.POST("/inbound", webhookHandler.HandleInbound)
		twilioGroup.POST("/status", webhookHandler.HandleStatus)
	}

	// Admin API Routes
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/customers", adminHandler.GetCustomers)
		apiGroup.GET("/messages", adminHandler.GetMessages)
		apiGroup.POST("/send", adminHandler.SendMessage)
	}

	logger.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("backend", cfg.StoreBackend))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("failed to run server", zap.Error(err))
	}
}
