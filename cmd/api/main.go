package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Tracksy-dev/passer/pkg/config"
	"github.com/Tracksy-dev/passer/pkg/db"
	"github.com/Tracksy-dev/passer/pkg/handlers"
	"github.com/Tracksy-dev/passer/pkg/middleware"
	"github.com/Tracksy-dev/passer/pkg/services"
	"github.com/Tracksy-dev/passer/pkg/storage"
	cors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetOutput(gin.DefaultWriter)
	log.SetLevel(log.InfoLevel)
	log.SetFormatter(&log.JSONFormatter{})
	log.Info("Starting Passer API...")

	cfg := config.LoadConfig()

	if err := db.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to apply database schema: %v", err)
	}

	store, err := storage.NewLocalStorage(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	tokens := services.NewTokenService(cfg.JwtSecret)
	apiHandlers := handlers.NewHandlers(cfg, store, tokens)

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", handlers.HealthCheck)
	router.POST("/api/reel-jobs/render-callback", apiHandlers.HandleRenderCallback)
	router.GET("/media/:bucket/*path", apiHandlers.ServeMedia)

	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", apiHandlers.RegisterUser)
		authRoutes.POST("/login", apiHandlers.LoginUser)
		authRoutes.POST("/password-reset", apiHandlers.RequestPasswordReset)
		authRoutes.POST("/password-reset/confirm", apiHandlers.ConfirmPasswordReset)
	}

	protectedRoutes := router.Group("/api")
	protectedRoutes.Use(middleware.AuthMiddleware(tokens))
	{
		protectedRoutes.GET("/profile", apiHandlers.GetProfile)
		protectedRoutes.PUT("/profile", apiHandlers.UpdateProfile)
		protectedRoutes.PUT("/profile/avatar", apiHandlers.UpdateAvatar)
		protectedRoutes.PUT("/password", apiHandlers.UpdatePassword)
		protectedRoutes.DELETE("/account", apiHandlers.DeleteAccount)

		protectedRoutes.GET("/feed", apiHandlers.GetFeed)

		matchRoutes := protectedRoutes.Group("/matches")
		{
			matchRoutes.POST("", apiHandlers.CreateMatch)
			matchRoutes.GET("", apiHandlers.GetUserMatches)
			matchRoutes.GET("/:id", apiHandlers.GetMatchByID)
			matchRoutes.DELETE("/:id", apiHandlers.DeleteMatch)

			matchRoutes.GET("/:id/points", apiHandlers.GetMatchPoints)
			matchRoutes.POST("/:id/points", apiHandlers.MarkPoint)
			matchRoutes.PATCH("/:id/points/offsets", apiHandlers.ApplyPointOffsets)

			matchRoutes.POST("/:id/reel-jobs", apiHandlers.CreateReelJob)
			matchRoutes.GET("/:id/reel-jobs", apiHandlers.GetMatchReelJobs)
			matchRoutes.GET("/:id/reel-jobs/watch", apiHandlers.WatchMatchReelJobs)
		}

		protectedRoutes.DELETE("/points/:id", apiHandlers.DeletePoint)
		protectedRoutes.DELETE("/reel-jobs/:id", apiHandlers.DeleteReelJob)
		protectedRoutes.PATCH("/reel-jobs/:id/visibility", apiHandlers.ToggleReelVisibility)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Infof("Server listening on %s:%s", cfg.Host, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited gracefully.")
}
