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
	"github.com/joho/godotenv"

	"github.com/velarchat/velar/internal/api"
	"github.com/velarchat/velar/internal/auth"
	"github.com/velarchat/velar/internal/config"
	"github.com/velarchat/velar/internal/relay"
	"github.com/velarchat/velar/internal/store"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.NewStore(store.BackendType(cfg.StoreBackend), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize %s store: %v", cfg.StoreBackend, err)
	}
	defer st.Close()
	log.Printf("Using %s store", cfg.StoreBackend)

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret))

	hub := relay.NewHub(st)
	gate := relay.NewGate(hub, tokens, st, cfg.AllowedOrigins)

	router := gin.Default()

	corsOrigins := cfg.AllowedOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authHandler := api.NewAuthHandler(st, tokens)
	userHandler := api.NewUserHandler(st)
	contactHandler := api.NewContactHandler(st)
	messageHandler := api.NewMessageHandler(st)

	// Public routes
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/login", authHandler.Login)

	// Realtime relay. The gate authenticates the handshake itself from
	// the token and claimed user id query parameters, so this route
	// does not go through the header-based middleware.
	router.GET("/api/ws", gate.HandleConnection)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Protected routes
	authorized := router.Group("/api")
	authorized.Use(api.AuthMiddleware(tokens))
	{
		authorized.GET("/auth/me", authHandler.GetMe)

		authorized.GET("/users", userHandler.ListUsers)
		authorized.GET("/users/:userID", userHandler.GetUser)
		authorized.PUT("/users/me/key", userHandler.UploadKey)

		authorized.GET("/contacts", contactHandler.ListContacts)
		authorized.POST("/contacts", contactHandler.AddContact)

		authorized.GET("/messages/conversation/:userID", messageHandler.GetConversation)

		// Admin moderation
		admin := authorized.Group("/")
		admin.Use(api.RequireAdmin(st))
		{
			admin.PATCH("/users/:userID", userHandler.UpdateUser)
			admin.DELETE("/users/:userID", userHandler.BanUser)
		}
	}

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
