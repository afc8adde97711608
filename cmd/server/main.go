package main

import (
	"context"
	"log"

	goRedis "github.com/redis/go-redis/v9"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/taskshare/api/handler"
	"github.com/fastygo/taskshare/internal/config"
	"github.com/fastygo/taskshare/internal/infrastructure/buffer"
	"github.com/fastygo/taskshare/internal/infrastructure/monitor"
	redisInfra "github.com/fastygo/taskshare/internal/infrastructure/redis"
	"github.com/fastygo/taskshare/internal/middleware"
	"github.com/fastygo/taskshare/internal/router"
	"github.com/fastygo/taskshare/internal/services"
	"github.com/fastygo/taskshare/internal/services/lifecycle"
	"github.com/fastygo/taskshare/internal/services/realtime"
	"github.com/fastygo/taskshare/pkg/httpcontext"
	"github.com/fastygo/taskshare/pkg/jwtauth"
	"github.com/fastygo/taskshare/pkg/logger"
	"github.com/fastygo/taskshare/usecase"
	analyticsUC "github.com/fastygo/taskshare/usecase/analytics"
	authUC "github.com/fastygo/taskshare/usecase/auth"
	notificationUC "github.com/fastygo/taskshare/usecase/notification"
	profileUC "github.com/fastygo/taskshare/usecase/profile"
	taskUC "github.com/fastygo/taskshare/usecase/task"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		Encoding:   cfg.Logger.Encoding,
		File:       cfg.Logger.File,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	manager.Listen(cancel)

	store, err := openStorage(appCtx, cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("storage initialisation failed", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}
	manager.Register("database", store.close)

	var redisClient *goRedis.Client
	var redisPinger monitor.Pinger
	if cfg.Redis.URL != "" {
		redisClient, err = redisInfra.NewClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("redis connection failed", zap.Error(err))
		}
		redisPinger = monitor.PingFunc(func(ctx context.Context) error {
			return redisInfra.Ping(ctx, redisClient)
		})
		manager.Register("redis", func(ctx context.Context) error {
			return redisClient.Close()
		})
	}

	var bufferStore *buffer.Store
	if cfg.Buffer.Enabled {
		bufferStore, err = buffer.Open(cfg.Buffer.Path, buffer.DefaultBucket)
		if err != nil {
			zapLogger.Fatal("failed to open outbox", zap.Error(err))
		}
		manager.Register("buffer", func(ctx context.Context) error {
			return bufferStore.Close()
		})
	}

	deps := monitor.Deps{Driver: cfg.Database.Driver, Database: store.pinger, Redis: redisPinger}
	if bufferStore != nil {
		deps.Buffer = bufferStore
	}
	mon := monitor.New(deps, cfg.Context.MonitorInterval, zapLogger)
	mon.Start()
	manager.Register("monitor", func(ctx context.Context) error {
		mon.Stop()
		return nil
	})

	hub := realtime.NewHub(cfg.Realtime.SendQueue, zapLogger)
	manager.Register("realtime", hub.Close)

	var broadcaster usecase.Broadcaster = hub
	if cfg.Realtime.Backend == config.RealtimeRedis {
		fanout := redisInfra.NewBroadcaster(redisClient, cfg.Realtime.Channel, hub, zapLogger)
		broadcaster = fanout
		manager.Go(appCtx, "realtime_subscriber", fanout.Run)
	}

	dispatcher := usecase.NewDispatcher()

	var outbox usecase.OperationBuffer
	if bufferStore != nil {
		processor := services.NewBufferProcessor(
			bufferStore,
			mon,
			dispatcher,
			zapLogger,
			services.ProcessorConfig{
				Interval:   cfg.Buffer.SyncInterval,
				BatchSize:  cfg.Buffer.BatchSize,
				MaxRetries: cfg.Buffer.MaxRetry,
				Retention:  cfg.Buffer.Retention(),
			},
		)
		processor.Start()
		manager.Register("buffer_processor", func(ctx context.Context) error {
			processor.Stop(ctx)
			return nil
		})
		outbox = services.NewBufferBridge(processor)
	}

	tokens := jwtauth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL)

	notificationUseCase := notificationUC.New(store.notifications, broadcaster, outbox, zapLogger)
	notificationUseCase.RegisterReplay(dispatcher)

	authUseCase := authUC.New(store.users, tokens, zapLogger)
	profileUseCase := profileUC.New(store.users, zapLogger)
	taskUseCase := taskUC.New(store.tasks, store.participants, store.users, notificationUseCase, zapLogger)
	analyticsUseCase := analyticsUC.New(store.tasks, store.participants, zapLogger)

	ctxAdapter := httpcontext.NewAdapter(cfg.Context.RequestTimeout)

	handlers := router.Handlers{
		Auth:         apiHandler.NewAuthHandler(authUseCase, ctxAdapter, zapLogger),
		Profile:      apiHandler.NewProfileHandler(profileUseCase, ctxAdapter, zapLogger),
		Task:         apiHandler.NewTaskHandler(taskUseCase, ctxAdapter, zapLogger),
		Notification: apiHandler.NewNotificationHandler(notificationUseCase, ctxAdapter, zapLogger),
		Analytics:    apiHandler.NewAnalyticsHandler(analyticsUseCase, ctxAdapter, zapLogger),
		Health:       apiHandler.NewHealthHandler(mon, ctxAdapter, zapLogger),
		Live: apiHandler.NewLiveHandler(hub, tokens, notificationUseCase,
			cfg.CORS.AllowedOrigin, cfg.Realtime.WriteTimeout, ctxAdapter, zapLogger),
	}

	authMiddleware := middleware.JWTAuth(tokens, zapLogger)
	r := router.New(handlers, authMiddleware)

	server := &fasthttp.Server{
		Handler: router.Wrap(r.Handler,
			middleware.AccessLog(zapLogger),
			middleware.CORS(cfg.CORS.AllowedOrigin),
		),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
		Concurrency:  cfg.HTTP.MaxConn,
		Name:         cfg.AppName,
	}

	go func() {
		zapLogger.Info("server started",
			zap.String("address", cfg.Address()),
			zap.String("driver", cfg.Database.Driver),
			zap.String("realtime", cfg.Realtime.Backend),
		)
		if err := server.ListenAndServe(cfg.Address()); err != nil {
			zapLogger.Fatal("server crashed", zap.Error(err))
		}
	}()

	manager.Register("http_server", func(ctx context.Context) error {
		return server.ShutdownWithContext(ctx)
	})

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}
