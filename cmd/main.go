package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"streambet/internal/amm"
	"streambet/internal/auth"
	"streambet/internal/config"
	"streambet/internal/database"
	"streambet/internal/handlers"
	"streambet/internal/pubsub"
	"streambet/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Connect the fan-out publisher. One handle for the whole process,
	// injected into the notification service.
	publisher, err := pubsub.NewRedisPublisher(context.Background(), pubsub.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer publisher.Close()

	// Market-maker engine client
	engine := amm.NewClient(cfg.AMM.BaseURL, cfg.AMM.Timeout)

	// Initialize services
	db := database.GetDB()
	userService := services.NewUserService(db)
	eventService := services.NewEventService(db)
	notificationService := services.NewNotificationService(db, publisher)
	betService := services.NewBetService(db, engine, userService, notificationService)
	settlementService := services.NewSettlementService(db, engine, userService, betService, notificationService)

	// Initialize handlers
	eventHandler := handlers.NewEventHandler(eventService, notificationService)
	betHandler := handlers.NewBetHandler(betService, settlementService)
	webhookHandler := handlers.NewWebhookHandler(eventService)

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Webhook routes (public, upstream callbacks)
	router.POST("/webhooks/stream", webhookHandler.HandleStreamCallback)

	// Event routes (protected)
	events := router.Group("/events")
	events.Use(auth.AuthMiddleware())
	{
		events.GET("/get/:id", eventHandler.GetEvent)
		events.GET("/list", eventHandler.ListEvents)
		events.POST("/create", eventHandler.CreateEvent)
		events.GET("/chat-messages/:id", eventHandler.GetChatMessages)
		events.POST("/chat-messages", eventHandler.PostChatMessage)

		events.POST("/bet/create", betHandler.CreateBet)
		events.POST("/bet/:id/place", betHandler.PlaceBet)
		events.POST("/bet/:id/pullout", betHandler.PullOutBet)
		events.GET("/bet/:id/payout", betHandler.PayoutBet)
		events.POST("/bet/:id/outcomes/buy", betHandler.CalculateBuyOutcome)
		events.POST("/bet/:id/outcomes/sell", betHandler.CalculateSellOutcome)
		events.GET("/bet/:id/history", betHandler.BetHistory)

		events.POST("/bet/:id/resolve", betHandler.ResolveBet)
		events.POST("/bet/:id/cancel", betHandler.CancelBet)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
