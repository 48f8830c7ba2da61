package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"bookadmin/internal/config"
	"bookadmin/internal/database"
	"bookadmin/internal/middleware"
	"bookadmin/internal/modules/appointment"
	"bookadmin/internal/modules/catalog"
	"bookadmin/internal/modules/live"
	"bookadmin/internal/modules/schedule"
	jwtsvc "bookadmin/internal/pkg/jwt"
	"bookadmin/internal/repository"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := newLogger(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("database connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	orgRepo := repository.NewOrganizationRepository(db)
	serviceRepo := repository.NewServiceRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)

	var fanout live.Fanout
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		fanout = live.NewRedisFanout(rdb, logger)
		logger.Info("event fanout enabled", zap.String("redis", cfg.RedisAddr))
	}
	hub := live.NewHub(fanout, logger)
	defer hub.Close()

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	catalogService := catalog.NewService(serviceRepo, orgRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	scheduleService := schedule.NewService(serviceRepo, slotRepo, apptRepo, logger)
	scheduleHandler := schedule.NewHandler(scheduleService)

	apptService := appointment.NewService(apptRepo, slotRepo, orgRepo, hub, logger)
	apptHandler := appointment.NewHandler(apptService)

	if cfg.AppEnv != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.CORS(), middleware.RequestLogger(logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", live.ServeWS(hub, j, logger))

	// public carries the read surface plus the client-facing booking entry
	// point; everything mutating the catalog or lifecycle sits behind auth.
	v1 := r.Group("/api/v1")
	admin := v1.Group("/")
	admin.Use(middleware.Auth(j))

	catalogHandler.RegisterRoutes(v1, admin)
	scheduleHandler.RegisterRoutes(v1, admin)
	apptHandler.RegisterRoutes(v1, admin)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
