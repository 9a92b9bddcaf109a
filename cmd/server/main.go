package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askhub-io/backend/internal/auth"
	"github.com/askhub-io/backend/internal/cache"
	"github.com/askhub-io/backend/internal/database"
	"github.com/askhub-io/backend/internal/handlers"
	"github.com/askhub-io/backend/internal/logger"
	"github.com/askhub-io/backend/internal/metrics"
	"github.com/askhub-io/backend/internal/middleware"
	"github.com/askhub-io/backend/internal/notify"
	"github.com/askhub-io/backend/internal/voting"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		// .env is optional; system environment is enough in production
	}

	// Initialize structured logging
	logLevel := getEnvOrDefault("LOG_LEVEL", "info")
	logFile := getEnvOrDefault("LOG_FILE", "logs/askhub.log")
	if err := logger.Initialize(logLevel, logFile); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Close()

	logger.InfoWithFields("=== AskHub server starting ===")

	// Initialize database
	if err := database.Initialize(); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	// Initialize Prometheus metrics
	metrics.Initialize()

	// Redis backs distributed rate limiting; the server runs without it
	redisHost := getEnvOrDefault("REDIS_HOST", "localhost")
	redisPort := getEnvOrDefault("REDIS_PORT", "6379")
	if _, err := cache.NewRedisClient(redisHost, redisPort, os.Getenv("REDIS_PASSWORD")); err != nil {
		logger.WarnWithFields("Redis unavailable, falling back to in-memory rate limiting", err)
	}

	// Initialize auth service
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		logger.Fatalf("JWT_SECRET environment variable is required")
	}
	authService := auth.NewService(jwtSecret)

	// Response cache for question and community listings
	responseCache := cache.NewTTLCache(60*time.Second, 30*time.Second)
	defer responseCache.Stop()

	votingService := voting.NewService(database.DB)
	notifier := notify.NewNotifier(database.DB)

	h := handlers.NewHandlers(authService, votingService, notifier, responseCache)

	// Setup Gin router
	if os.Getenv("ENVIRONMENT") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// CORS middleware
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{getEnvOrDefault("CORS_ORIGIN", "*")}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(config))

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		status := "ok"
		code := http.StatusOK
		if err := database.Health(); err != nil {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"service":   "askhub-backend",
		})
	})

	// Prometheus scrape endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := r.Group("/api")
	api.Use(middleware.RateLimitSmartDefault())
	{
		// Authentication routes
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimitSmartAuth(), h.Register)
			authGroup.POST("/login", middleware.RateLimitSmartAuth(), h.Login)
			authGroup.GET("/me", middleware.RequireAuth(authService), h.Me)
		}

		// Question routes; reads are public, writes need auth
		questions := api.Group("/questions")
		{
			questions.GET("", h.ListQuestions)
			questions.GET("/search", h.SearchQuestions)
			questions.GET("/:id", h.GetQuestion)

			authed := questions.Group("")
			authed.Use(middleware.RequireAuth(authService), middleware.RateLimitSmartWrite())
			authed.POST("", h.CreateQuestion)
			authed.PUT("/:id", h.UpdateQuestion)
			authed.DELETE("/:id", h.DeleteQuestion)
			authed.POST("/:id/answers", h.CreateAnswer)
		}

		// Answer routes
		answers := api.Group("/answers")
		{
			answers.Use(middleware.RequireAuth(authService), middleware.RateLimitSmartWrite())
			answers.PUT("/:id", h.UpdateAnswer)
			answers.DELETE("/:id", h.DeleteAnswer)
			answers.POST("/:id/accept", h.AcceptAnswer)
		}

		// Vote routes
		votes := api.Group("/votes")
		{
			votes.Use(middleware.RequireAuth(authService), middleware.RateLimitSmartWrite())
			votes.POST("", h.ToggleVote)
		}

		// Comment routes
		comments := api.Group("/comments")
		{
			comments.GET("", h.ListComments)

			authed := comments.Group("")
			authed.Use(middleware.RequireAuth(authService), middleware.RateLimitSmartWrite())
			authed.POST("", h.CreateComment)
			authed.PUT("/:id", h.UpdateComment)
			authed.DELETE("/:id", h.DeleteComment)
		}

		// Community routes
		communities := api.Group("/communities")
		{
			communities.GET("", h.ListCommunities)
			communities.GET("/:id", h.GetCommunity)
			communities.GET("/:id/members", h.ListCommunityMembers)

			authed := communities.Group("")
			authed.Use(middleware.RequireAuth(authService), middleware.RateLimitSmartWrite())
			authed.POST("", h.CreateCommunity)
			authed.POST("/:id/join", h.JoinCommunity)
			authed.POST("/:id/leave", h.LeaveCommunity)
		}

		// Notification routes
		notifications := api.Group("/notifications")
		{
			notifications.Use(middleware.RequireAuth(authService))
			notifications.GET("", h.GetNotifications)
			notifications.GET("/counts", h.GetNotificationCounts)
			notifications.POST("/read", h.MarkNotificationsRead)
		}

		// User routes
		users := api.Group("/users")
		{
			users.GET("/:id", h.GetUserProfile)
			users.GET("/:id/questions", h.GetUserQuestions)
			users.GET("/:id/answers", h.GetUserAnswers)
			users.PUT("/me", middleware.RequireAuth(authService), h.UpdateProfile)
		}

		// Report routes
		reports := api.Group("/reports")
		{
			reports.Use(middleware.RequireAuth(authService), middleware.RateLimitSmartWrite())
			reports.POST("", h.CreateReport)
		}

		// Admin moderation routes
		admin := api.Group("/admin")
		{
			admin.Use(middleware.RequireAuth(authService), middleware.RequireAdmin())
			admin.GET("/reports", h.AdminListReports)
			admin.POST("/reports/:id/resolve", h.AdminResolveReport)
			admin.POST("/users/:id/ban", h.AdminBanUser)
			admin.POST("/users/:id/unban", h.AdminUnbanUser)
			admin.DELETE("/questions/:id", h.AdminDeleteQuestion)
			admin.DELETE("/answers/:id", h.AdminDeleteAnswer)
		}
	}

	// Server configuration
	port := getEnvOrDefault("PORT", "8787")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("AskHub backend listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoWithFields("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.FatalWithFields("Server forced to shutdown", err)
	}

	logger.InfoWithFields("Server exited")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
