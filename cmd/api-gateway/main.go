package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/elitheslime01/gymmate-2024/api/swagger"
	"github.com/elitheslime01/gymmate-2024/internal/handler"
	"github.com/elitheslime01/gymmate-2024/internal/middleware"
	"github.com/elitheslime01/gymmate-2024/internal/repository"
	"github.com/elitheslime01/gymmate-2024/internal/service"
	"github.com/elitheslime01/gymmate-2024/pkg/cache"
	"github.com/elitheslime01/gymmate-2024/pkg/config"
	"github.com/elitheslime01/gymmate-2024/pkg/database"
	"github.com/elitheslime01/gymmate-2024/pkg/jobs"
	"github.com/elitheslime01/gymmate-2024/pkg/logger"
	corsmiddleware "github.com/elitheslime01/gymmate-2024/pkg/middleware/cors"
	reqidmiddleware "github.com/elitheslime01/gymmate-2024/pkg/middleware/requestid"
)

// @title GymMate API
// @version 1.0.0
// @description Gym time-slot queueing and booking allocation
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		}
	}

	validate := validator.New()
	policy := service.NewPriorityPolicy(cfg.Allocation)
	metricsSvc := service.NewMetricsService()

	// Repositories.
	queueRepo := repository.NewQueueRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	statusRepo := repository.NewAllocationStatusRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	// Services.
	notificationSvc := service.NewNotificationService(statusRepo, notificationRepo, nil, validate, logr)
	outcomeQueue := jobs.NewQueue("notifications", notificationSvc.ProcessOutcome, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		BufferSize: cfg.Notifications.BufferSize,
		MaxRetries: cfg.Notifications.MaxRetries,
		RetryDelay: cfg.Notifications.RetryDelay,
		Logger:     logr,
	})
	notificationSvc.SetDispatcher(outcomeQueue)

	allocationSvc := service.NewAllocationService(queueRepo, scheduleRepo, bookingRepo, studentRepo, db, notificationSvc, cacheSvc, policy, metricsSvc, logr)
	queueSvc := service.NewQueueService(queueRepo, studentRepo, receiptRepo, scheduleRepo, bookingRepo, notificationSvc, policy, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, db, policy, validate, logr)
	scheduleSvc := service.NewScheduleService(scheduleRepo, cacheSvc, cfg.Cache.TTL, validate, logr)
	bookingSvc := service.NewBookingService(bookingRepo, studentSvc, validate, logr)
	receiptSvc := service.NewReceiptService(receiptRepo, studentRepo, validate, logr)
	authSvc := service.NewAuthService(adminRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	queueHandler := handler.NewQueueHandler(queueSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc, notificationSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	receiptHandler := handler.NewReceiptHandler(receiptSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		api.POST("/queues", queueHandler.Enqueue)
		api.GET("/allocations/status/:studentId", allocationHandler.Status)
		api.GET("/allocations/history/:studentId", allocationHandler.History)
		api.POST("/allocations/notify", allocationHandler.Notify)

		api.GET("/schedules", scheduleHandler.List)
		api.GET("/schedules/:date", scheduleHandler.GetByDate)

		api.GET("/bookings", bookingHandler.ListByDate)
		api.GET("/bookings/:id", bookingHandler.Get)
		api.GET("/students/:id/bookings", bookingHandler.CurrentForStudent)

		api.GET("/students/:id/notifications", notificationHandler.ListByStudent)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)

		admin := api.Group("", middleware.JWT(authSvc))
		{
			admin.POST("/auth/register", authHandler.Register)
			admin.GET("/auth/me", authHandler.Me)

			admin.POST("/allocations/run", allocationHandler.Run)

			admin.POST("/schedules", scheduleHandler.Create)
			admin.PUT("/schedules/slots/:slotId", scheduleHandler.UpdateSlot)
			admin.DELETE("/schedules/:id", scheduleHandler.Delete)

			admin.GET("/students", studentHandler.List)
			admin.GET("/students/:id", studentHandler.Get)
			admin.POST("/students", studentHandler.Create)
			admin.PUT("/students/:id", studentHandler.Update)
			admin.POST("/students/:id/events", studentHandler.RecordEvent)

			admin.PUT("/booking-entries/:entryId/status", bookingHandler.UpdateEntryStatus)
			admin.POST("/booking-entries/:entryId/checkout", bookingHandler.CheckOut)
			admin.GET("/exports/bookings", bookingHandler.Export)

			admin.GET("/receipts/:id", receiptHandler.Get)
			admin.POST("/receipts", receiptHandler.Issue)
			admin.GET("/students/:id/receipts", receiptHandler.ListByStudent)

			admin.GET("/metrics/snapshot", metricsHandler.Snapshot)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	outcomeQueue.Start(ctx)
	defer outcomeQueue.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
