package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "realtime_chat_service/cmd/chat_service/docs" // 引入生成的 Swagger 文档
	"realtime_chat_service/internal/api/router"
	chatapp "realtime_chat_service/internal/chat/app"
	chatrepo "realtime_chat_service/internal/chat/repository"
	memberapp "realtime_chat_service/internal/member/app"
	memberrepo "realtime_chat_service/internal/member/repository"
	realtimeapp "realtime_chat_service/internal/realtime/app"
	realtimerepo "realtime_chat_service/internal/realtime/repository"
	relationapp "realtime_chat_service/internal/relation/app"
	relationrepo "realtime_chat_service/internal/relation/repository"
	"realtime_chat_service/pkg/config"
	"realtime_chat_service/pkg/database"
	"realtime_chat_service/pkg/logger"
	testtool "realtime_chat_service/pkg/test_tool"
	"realtime_chat_service/pkg/token"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	defer logger.Log.Sync()
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)

	// 非 production 開啟 pprof
	testtool.StartPprof("127.0.0.1:6060")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. PostgreSQL (member + friends)
	pgDSN := database.PostgresDSN(cfg.PostgreSQL.Host, cfg.PostgreSQL.Port, cfg.PostgreSQL.User, cfg.PostgreSQL.Password, cfg.PostgreSQL.Database)
	pgConn := database.Connection{
		ConnectStr:    pgDSN,
		RetryCount:    cfg.PostgreSQL.RetryCount,
		RetryInterval: time.Duration(cfg.PostgreSQL.RetryInterval),
	}
	pool, err := database.NewDatabaseConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to connect to postgreSQL database after retries",
			zap.String("host", cfg.PostgreSQL.Host), zap.Error(err))
	}
	defer pool.Close()

	memberRepo := memberrepo.NewMemberRepository(pool)
	if err := memberRepo.Migrate(ctx); err != nil {
		logger.Log.Fatal("member migrate", zap.Error(err))
	}

	// 2. gorm (reconcile journal, 與 member 共用同一個 db)
	gormDB, err := database.NewPGConnection(pgConn)
	if err != nil {
		logger.Log.Fatal("Unable to open gorm connection", zap.Error(err))
	}
	journal := relationrepo.NewReconcileRepo(gormDB)
	if err := journal.AutoMigrate(); err != nil {
		logger.Log.Fatal("reconcile journal migrate", zap.Error(err))
	}

	// 3. Mongo (messages + groups)
	uri := fmt.Sprintf("mongodb://%s:%s@%s:%d", cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal("Unable to connect to mongoDB database after retries",
			zap.String("host", cfg.MongoSQL.Host), zap.Error(err))
	}
	defer mongo.Close(context.Background())

	msgRepo := chatrepo.NewMongoMessageRepository(mongo.Database)
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("message indexes", zap.Error(err))
	}
	groupRepo := chatrepo.NewMongoGroupRepository(mongo.Database)

	// 4. Redis (pair lock + hub relay)
	redisClient, err := newRedis(cfg.Redis)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 5. RabbitMQ (reconcile queue)
	rabbitConn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    cfg.RabbitMQ.URL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("rabbitmq connect", zap.Error(err))
	}
	defer rabbitConn.Close()
	rabbitCh, err := database.GetRabbitMQChannelWithRetry(rabbitConn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		logger.Log.Fatal("rabbitmq channel", zap.Error(err))
	}
	defer rabbitCh.Close()
	queue, err := relationrepo.NewRabbitReconcileQueue(database.NewRabbitRepository(rabbitCh), cfg.RabbitMQ.Queue)
	if err != nil {
		logger.Log.Fatal("declare reconcile queue", zap.Error(err))
	}

	// 6. Kafka (relation event stream), 沒設定 broker 時不啟用
	var events relationrepo.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 && cfg.Kafka.Brokers[0] != "" {
		writer, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
			Brokers:       cfg.Kafka.Brokers,
			Topic:         cfg.Kafka.Topic,
			RetryCount:    cfg.Kafka.RetryCount,
			RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
		})
		if err != nil {
			logger.Log.Fatal("kafka writer", zap.Error(err))
		}
		defer writer.Close()
		events = relationrepo.NewKafkaEventStream(writer)
	}

	// 7. Hub + relay
	var hub *realtimeapp.Hub
	if cfg.Hub.RelayChannel != "" {
		relay := realtimerepo.NewRedisRelay(redisClient, cfg.Hub.RelayChannel, cfg.NodeID)
		hub = realtimeapp.NewHub(relay)
		go func() {
			if err := relay.Run(ctx, hub.DeliverLocal); err != nil {
				logger.Log.Error("hub relay stopped", zap.Error(err))
			}
		}()
		logger.Log.Info("hub relay enabled", zap.String("channel", cfg.Hub.RelayChannel), zap.String("node", relay.NodeID()))
	} else {
		hub = realtimeapp.NewHub(nil)
	}
	notifier := realtimeapp.NewEventNotifier(hub)

	// 8. UseCases
	verifier := token.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer)
	locker := relationrepo.NewRedisPairLocker(redisClient, cfg.Redis.LockTTL)
	relationUC := relationapp.NewRelationUseCase(memberRepo, locker, journal, queue, events, notifier)
	dispatchUC := chatapp.NewDispatchUseCase(msgRepo, groupRepo, memberRepo, notifier)
	chatUC := chatapp.NewChatUseCase(msgRepo, groupRepo, memberRepo)
	memberUC := memberapp.NewMemberUseCase(memberRepo, verifier, nil)

	// 9. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	router.RegisterRoutes(ctx, r, verifier, router.Handlers{
		Member:   memberapp.NewMemberHandler(memberUC),
		Relation: relationapp.NewRelationHandler(relationUC),
		Chat:     chatapp.NewChatHandler(dispatchUC, chatUC),
		Websocket: realtimeapp.NewWebsocketHandler(hub, dispatchUC, notifier, realtimeapp.WebsocketConfig{
			SendBuffer:   cfg.Hub.SendBuffer,
			PingInterval: cfg.Hub.PingInterval,
			WriteTimeout: cfg.Hub.WriteTimeout,
		}),
	})

	go func() {
		<-ctx.Done()
		logger.Log.Info("chat service shutting down")
		if err := r.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("fiber shutdown", zap.Error(err))
		}
	}()

	port := ":" + cfg.Port
	logger.Log.Info("Chat Service listening", zap.String("port", port))
	if err := r.Listen(port); err != nil {
		logger.Log.Fatal("Failed to start Fiber", zap.Error(err))
	}
}

// newRedis addr 有值時用單機, 否則走 sentinel
func newRedis(c config.RedisConfig) (*redis.Client, error) {
	if c.Addr != "" {
		return database.NewRedisStandalone(c.Addr, c.RedisDB)
	}
	masterName, sentinel := config.GetRedisSetting()
	return database.NewRedisClient(masterName, sentinel, c.RedisDB)
}
