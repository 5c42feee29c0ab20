package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-seat-booking/internal/api/handler"
	"github.com/sanosuguru/go-seat-booking/internal/api/middleware"
	"github.com/sanosuguru/go-seat-booking/internal/api/router"
	"github.com/sanosuguru/go-seat-booking/internal/application"
	"github.com/sanosuguru/go-seat-booking/internal/config"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/notification"
	"github.com/sanosuguru/go-seat-booking/internal/infrastructure/postgres"
	redisinfra "github.com/sanosuguru/go-seat-booking/internal/infrastructure/redis"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/logger"
	"github.com/sanosuguru/go-seat-booking/internal/pkg/metrics"
	"github.com/sanosuguru/go-seat-booking/internal/worker"
)

const seatCacheTTL = 30 * time.Second

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logger.Warn(".env の読み込みに失敗しました", zap.Error(err))
	}
	cfg := config.Load()
	logger.Init(cfg.Env)
	defer logger.Sync()

	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("JWT_SECRET が設定されていません")
	}

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベースに接続できません", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.RunMigrations(db.DB, cfg.Database.MigrationsPath); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis（任意）。未接続ならキャッシュと回収リースなしで動く
	var (
		redisClient *goredis.Client
		seatCache   application.SeatCache
		leases      *redisinfra.LeaseManager
	)
	if rc, err := redisinfra.NewClient(&cfg.Redis); err != nil {
		logger.Warn("Redisに接続できません。キャッシュを無効にして起動します", zap.Error(err))
	} else {
		redisClient = rc
		defer redisClient.Close()
		seatCache = redisinfra.NewSeatCache(redisClient, seatCacheTTL)
		leases = redisinfra.NewLeaseManager(redisClient)
	}

	// 返金通知（RabbitMQ 未設定・未接続ならログ出力）
	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.Notification.RabbitMQURL != "" {
		rn, err := notification.NewRabbitMQNotifier(cfg.Notification.RabbitMQURL, cfg.Notification.RefundQueue)
		if err != nil {
			logger.Warn("RabbitMQに接続できません。返金通知はログに出力します", zap.Error(err))
		} else {
			defer rn.Close()
			notifier = rn
		}
	}

	m := metrics.New()
	opts := []application.Option{
		application.WithHoldDuration(cfg.Booking.HoldDuration),
		application.WithMetrics(m),
		application.WithRefundRecipient(cfg.Notification.RefundRecipient),
		application.WithRefundTimeout(cfg.Notification.PublishTimeout),
	}

	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)

	eventService := application.NewEventService(eventRepo)
	seatService := application.NewSeatService(txManager, seatRepo, eventRepo, seatCache, opts...)
	reservationService := application.NewReservationService(txManager, seatRepo, seatCache, opts...)
	bookingService := application.NewBookingService(txManager, bookingRepo, seatRepo, notifier, seatCache, opts...)

	checks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisinfra.Ping(ctx, redisClient) }
	}

	e := router.New(router.Services{
		Events:       eventService,
		Seats:        seatService,
		Reservations: reservationService,
		Bookings:     bookingService,
	}, router.Options{
		JWTSecret:    cfg.Auth.JWTSecret,
		Metrics:      m,
		MetricsAuth:  middleware.LoadMetricsConfig(),
		HealthChecks: checks,
	})
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	// 期限切れ仮押さえの回収
	workerOpts := []worker.Option{worker.WithMetrics(m)}
	if leases != nil {
		workerOpts = append(workerOpts, worker.WithLease(leases, cfg.Booking.ReclaimLockTTL))
	}
	reclaimer := worker.NewExpiredHoldReclaimer(reservationService, cfg.Booking.ReclaimInterval, workerOpts...)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reclaimer.Start(ctx)

	go func() {
		logger.Info("サーバーを起動します", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Env))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("サーバーシャットダウンエラー", zap.Error(err))
	}
	reclaimer.Stop()

	logger.Info("サーバーが正常にシャットダウンしました")
}
