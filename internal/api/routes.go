package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"eventy/internal/api/middleware"
	"eventy/internal/auth"
	"eventy/internal/config"
	"eventy/internal/metrics"
	"eventy/internal/storage"
	"eventy/internal/templates"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	repo := templates.NewGormRepository(db)

	authHandler := NewAuthHandler(db, authService, redisClient, logger,
		cfg.Auth.LoginRateLimitPerHour, cfg.Auth.LoginLockThreshold, cfg.Auth.LoginLockTTL, cfg.Auth.CookieDomain)
	eventHandler := NewEventHandler(db)
	templateHandler := NewTemplateHandler(db, repo, storageClient)
	attendeeHandler := NewAttendeeHandler(db)
	agendaHandler := NewAgendaHandler(db)
	printHandler := NewPrintHandler(db, repo, asynqClient, storageClient, cfg.Worker.MaxAttendees)
	assetHandler := NewAssetHandler(db, storageClient, logger, redisClient,
		cfg.Upload.ClamdAddr, cfg.Upload.MaxBytes, cfg.Upload.MaxAssetsPerUser, cfg.Upload.MaxUploadsPerDay)
	printDataHandler := NewPrintDataHandler(db, repo, storageClient)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins)
	authMiddleware := middleware.AuthMiddleware(authService)

	router.Use(middleware.CorrelationIDMiddleware())
	router.Use(middleware.SlogLoggerMiddleware(logger))
	router.Use(metrics.GinMiddleware())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		eventGroup := v1.Group("/events")
		eventGroup.Use(authMiddleware)
		{
			eventGroup.POST("", eventHandler.CreateEvent)
			eventGroup.GET("", eventHandler.ListEvents)
			eventGroup.GET("/:id", eventHandler.GetEvent)
			eventGroup.PUT("/:id", eventHandler.UpdateEvent)
			eventGroup.DELETE("/:id", eventHandler.DeleteEvent)

			eventGroup.GET("/:id/templates", templateHandler.ListTemplates)
			eventGroup.PUT("/:id/templates", templateHandler.SaveTemplates)
			eventGroup.POST("/:id/templates/:templateID/activate", templateHandler.SetActiveTemplate)
			eventGroup.POST("/:id/templates/review", templateHandler.ReviewTemplate)

			eventGroup.POST("/:id/attendees", attendeeHandler.CreateAttendee)
			eventGroup.GET("/:id/attendees", attendeeHandler.ListAttendees)
			eventGroup.PUT("/:id/attendees/:attendeeID", attendeeHandler.UpdateAttendee)
			eventGroup.DELETE("/:id/attendees/:attendeeID", attendeeHandler.DeleteAttendee)

			eventGroup.POST("/:id/agenda", agendaHandler.CreateSession)
			eventGroup.GET("/:id/agenda", agendaHandler.ListSessions)
			eventGroup.PUT("/:id/agenda/:sessionID", agendaHandler.UpdateSession)
			eventGroup.DELETE("/:id/agenda/:sessionID", agendaHandler.DeleteSession)

			eventGroup.POST("/:id/badges/print", printHandler.PrintBadges)
			eventGroup.POST("/:id/badges/export", printHandler.ExportBadges)
			eventGroup.GET("/:id/badges/jobs/:jobID", printHandler.GetJob)
			eventGroup.GET("/:id/badges/jobs/:jobID/download-link", printHandler.GetDownloadLink)
		}

		assetGroup := v1.Group("/assets")
		assetGroup.Use(authMiddleware)
		{
			assetGroup.POST("/upload", assetHandler.UploadAsset)
			assetGroup.GET("", assetHandler.ListAssets)
			assetGroup.GET("/view", assetHandler.GetAssetURL)
			assetGroup.DELETE("", assetHandler.DeleteAsset)
		}
	}

	internal := router.Group("/internal")
	internal.Use(middleware.InternalSecretMiddleware(cfg.API.InternalSecret))
	{
		internal.GET("/print-jobs/:jobID/data", printDataHandler.GetPrintData)
	}
}
