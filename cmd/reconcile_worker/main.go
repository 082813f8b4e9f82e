package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	memberrepo "realtime_chat_service/internal/member/repository"
	relationapp "realtime_chat_service/internal/relation/app"
	relationrepo "realtime_chat_service/internal/relation/repository"
	"realtime_chat_service/pkg/config"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ReconcileWorker, config.EnvConfig.ReconcileWorkerLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.ReconcileWorker](config.EnvConfig.ReconcileWorker, config.EnvConfig.ReconcileWorkerYAMLPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pgConn := database.Connection{
		ConnectStr:    database.PostgresDSN(cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database),
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}
	pool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries", zap.Error(err))
	}
	defer pool.Close()

	gormDB, err := database.NewPGConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}
	journal := relationrepo.NewReconcileRepo(gormDB)
	if err := journal.AutoMigrate(); err != nil {
		logger.Log.Fatal("reconcile journal migrate", zap.Error(err))
	}

	var locker relationrepo.PairLocker
	if cfg.Redis.Addr != "" {
		redisClient, err := database.NewRedisStandalone(cfg.Redis.Addr, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal("connect redis", zap.Error(err))
		}
		defer redisClient.Close()
		locker = relationrepo.NewRedisPairLocker(redisClient, cfg.Redis.LockTTL)
	} else {
		masterName, sentinel := config.GetRedisSetting()
		redisClient, err := database.NewRedisClient(masterName, sentinel, cfg.Redis.RedisDB)
		if err != nil {
			logger.Log.Fatal("connect redis sentinel", zap.Error(err))
		}
		defer redisClient.Close()
		locker = relationrepo.NewRedisPairLocker(redisClient, cfg.Redis.LockTTL)
	}

	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    cfg.RabbitMQ.URL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("rabbitmq connect", zap.Error(err))
	}
	defer rabbitConn.Close()

	// publish 與 consume 使用不同 channel
	pubCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("rabbitmq channel", zap.Error(err))
	}
	defer pubCh.Close()
	queue, err := relationrepo.NewRabbitReconcileQueue(database.NewRabbitRepository(pubCh), cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Log.Fatal("declare reconcile queue", zap.Error(err))
	}

	consumeCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("rabbitmq channel", zap.Error(err))
	}
	defer consumeCh.Close()
	if err := consumeCh.Qos(1, 0, false); err != nil {
		logger.Log.Fatal("rabbitmq qos", zap.Error(err))
	}

	memberRepo := memberrepo.NewMemberRepository(pool)
	relationUC := relationapp.NewRelationUseCase(memberRepo, locker, journal, queue, nil, nil)
	worker := relationapp.NewReconcileWorker(relationUC, journal, queue, cfg.MaxAttempts)

	if cfg.MetricsPort != "" {
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
		go func() {
			if err := app.Listen(":" + cfg.MetricsPort); err != nil {
				logger.Log.Error("metrics server stopped", zap.Error(err))
			}
		}()
		defer app.Shutdown()
	}

	sweepInterval, sweepAfter := cfg.SweepInterval, cfg.SweepAfter
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	if sweepAfter <= 0 {
		sweepAfter = 5 * time.Minute
	}
	go worker.RunSweeper(ctx, sweepInterval, sweepAfter)

	logger.Log.Info("reconcile worker started",
		zap.String("queue", cfg.RabbitMQ.Queue),
		zap.Int("maxAttempts", cfg.MaxAttempts))
	if err := worker.StartConsumer(ctx, consumeCh, cfg.RabbitMQ.Queue); err != nil {
		logger.Log.Fatal("start consumer", zap.Error(err))
	}
	logger.Log.Info("reconcile worker stopped")
}
