package main

import (
	"context"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messaging-service/internal/config"
	"messaging-service/internal/db"
	"messaging-service/internal/handlers"
	"messaging-service/internal/middleware"
	"messaging-service/internal/observability"
	"messaging-service/internal/rabbitmq"
	"messaging-service/internal/repositories"
	"messaging-service/internal/service"
	"messaging-service/internal/storage"
	"messaging-service/internal/telemetry"
	"messaging-service/internal/ws"
)

const serviceName = "messaging-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(ctx)

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	audit := telemetry.NewAuditEmitter(publisher, "audit.messaging", serviceName, cfg.Environment)

	attachments, err := storage.NewDiskStore(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		log.Fatalf("failed to init attachment store: %v", err)
	}

	channelRepo := repositories.NewChannelRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	hub := ws.NewHub()
	svc := service.New(channelRepo, messageRepo, hub)

	messageHandler := handlers.NewMessageHandler(svc, attachments, audit)
	typing := ws.NewTypingDebouncer(ws.DefaultTypingWindow)
	channelWS := ws.NewChannelWSHandler(hub, svc, typing, audit, cfg.JWTSecret)

	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)

	router.POST("/channels/:channel_id/messages", authMiddleware, messageHandler.SendMessage)
	router.POST("/channels/:channel_id/messages/file", authMiddleware, messageHandler.SendAttachment)
	router.GET("/channels/:channel_id/messages", authMiddleware, messageHandler.ListMessages)
	router.GET("/channels/:channel_id/messages/search", authMiddleware, messageHandler.SearchMessages)
	router.PUT("/channels/:channel_id/messages/:message_id", authMiddleware, messageHandler.EditMessage)
	router.DELETE("/channels/:channel_id/messages/:message_id", authMiddleware, messageHandler.DeleteMessage)
	router.POST("/channels/:channel_id/read", authMiddleware, messageHandler.MarkRead)
	router.GET("/channels/:channel_id/unread", authMiddleware, messageHandler.UnreadCount)

	router.GET("/ws", channelWS.Handle)

	router.Static("/uploads/messages", attachments.Dir())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, cfg.DebugRoutes)

	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
