package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elevatr/internal/config"
	"elevatr/internal/database"
	"elevatr/internal/handlers"
	"elevatr/internal/middleware"
	"elevatr/internal/realtime"
	"elevatr/internal/services"
	"elevatr/pkg/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

var serverStartTime = time.Now()

func main() {
	cfg := config.Load()
	setupLogging(cfg)

	logrus.Info("Connecting to MongoDB...")
	db, err := database.NewMongoDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logrus.Errorf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.CreateIndexes(indexCtx); err != nil {
		logrus.Warnf("Failed to create some indexes: %v", err)
	}
	cancel()

	jwtManager := auth.NewJWTManager(
		cfg.JWTSecret,
		time.Duration(cfg.JWTExpiration)*time.Hour,
	)

	hub := realtime.NewHub()
	go hub.Run()
	defer hub.Shutdown()

	userCollection := db.Database.Collection("users")
	jobCollection := db.Database.Collection("jobs")
	applicationCollection := db.Database.Collection("applications")
	projectCollection := db.Database.Collection("projects")
	notificationCollection := db.Database.Collection("notifications")

	notificationStore := services.NewMongoNotificationStore(notificationCollection)
	notificationService := services.NewNotificationService(notificationStore, hub, userCollection)
	aiService := services.NewAIService(cfg)

	authHandler := handlers.NewAuthHandler(userCollection, jwtManager)
	usersHandler := handlers.NewUsersHandler(userCollection, notificationService)
	jobsHandler := handlers.NewJobsHandler(jobCollection, notificationService)
	applicationsHandler := handlers.NewApplicationsHandler(applicationCollection, jobCollection, userCollection, notificationService)
	projectsHandler := handlers.NewProjectsHandler(projectCollection, userCollection, notificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationStore, userCollection)
	aiHandler := handlers.NewAIHandler(aiService)
	wsHandler := handlers.NewWebSocketHandler(hub, jwtManager)

	router := setupRouter(cfg, hub, jwtManager,
		authHandler, usersHandler, jobsHandler, applicationsHandler,
		projectsHandler, notificationHandler, aiHandler, wsHandler)

	srv := &http.Server{
		Addr:           fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   15 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("Elevatr API running on http://%s:%s", cfg.Host, cfg.Port)
		logrus.Infof("WebSocket endpoint: ws://%s:%s/ws", cfg.Host, cfg.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	} else {
		logrus.Info("Server gracefully stopped")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		gin.SetMode(gin.DebugMode)
		logrus.SetLevel(logrus.DebugLevel)
	}
}

func setupRouter(
	cfg *config.Config,
	hub *realtime.Hub,
	jwtManager *auth.JWTManager,
	authHandler *handlers.AuthHandler,
	usersHandler *handlers.UsersHandler,
	jobsHandler *handlers.JobsHandler,
	applicationsHandler *handlers.ApplicationsHandler,
	projectsHandler *handlers.ProjectsHandler,
	notificationHandler *handlers.NotificationHandler,
	aiHandler *handlers.AIHandler,
	wsHandler *handlers.WebSocketHandler,
) *gin.Engine {
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.RateLimitEnabled {
		router.Use(middleware.RateLimit(cfg.RateLimitRequests, time.Duration(cfg.RateLimitWindow)*time.Second))
	}

	// Real-time delivery channel; must be registered before the API groups
	router.GET("/ws", wsHandler.HandleWebSocket)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now().Format(time.RFC3339),
			"uptime":    time.Since(serverStartTime).String(),
			"stats": gin.H{
				"websocket_connections": hub.ConnectionsCount(),
			},
		})
	})

	api := router.Group("/api")
	{
		authRoutes := api.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.GET("/me", middleware.AuthMiddleware(jwtManager), authHandler.Me)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(jwtManager))
		{
			protected.GET("/users", usersHandler.GetMembers)
			protected.GET("/users/:id", usersHandler.GetProfile)
			protected.PUT("/users/me", usersHandler.UpdateProfile)
			protected.POST("/users/:id/follow", usersHandler.ToggleFollow)

			protected.GET("/jobs", jobsHandler.GetJobs)
			protected.GET("/jobs/mine", middleware.RequireRole("recruiter"), jobsHandler.GetMyJobs)
			protected.GET("/jobs/:id", jobsHandler.GetJob)
			protected.POST("/jobs", middleware.RequireRole("recruiter"), jobsHandler.CreateJob)
			protected.PUT("/jobs/:id", middleware.RequireRole("recruiter"), jobsHandler.UpdateJob)
			protected.DELETE("/jobs/:id", middleware.RequireRole("recruiter"), jobsHandler.DeleteJob)

			protected.POST("/jobs/:id/apply", middleware.RequireAnyRole("student"), applicationsHandler.Apply)
			protected.GET("/jobs/:id/applications", middleware.RequireRole("recruiter"), applicationsHandler.GetJobApplications)
			protected.GET("/applications/mine", applicationsHandler.GetMyApplications)
			protected.GET("/applications/:id", applicationsHandler.GetApplication)
			protected.PUT("/applications/:id/status", middleware.RequireRole("recruiter"), applicationsHandler.UpdateStatus)
			protected.POST("/applications/:id/withdraw", middleware.RequireAnyRole("student"), applicationsHandler.Withdraw)

			protected.GET("/projects", projectsHandler.GetProjects)
			protected.GET("/projects/mine", projectsHandler.GetMyProjects)
			protected.GET("/projects/:id", projectsHandler.GetProject)
			protected.POST("/projects", projectsHandler.CreateProject)
			protected.PUT("/projects/:id", projectsHandler.UpdateProject)
			protected.DELETE("/projects/:id", projectsHandler.DeleteProject)
			protected.POST("/projects/:id/like", projectsHandler.ToggleLike)
			protected.POST("/projects/:id/comments", projectsHandler.AddComment)

			protected.GET("/notifications", notificationHandler.GetNotifications)
			protected.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
			protected.PUT("/notifications/:id/read", notificationHandler.MarkAsRead)
			protected.PUT("/notifications/read-all", notificationHandler.MarkAllAsRead)
			protected.DELETE("/notifications/:id", notificationHandler.DeleteNotification)

			protected.POST("/ai/analyze-resume", aiHandler.AnalyzeResume)
			protected.POST("/ai/interview-questions", aiHandler.InterviewQuestions)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Endpoint not found",
			"path":  c.Request.URL.Path,
		})
	})

	return router
}
