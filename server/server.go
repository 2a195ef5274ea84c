package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SplitTrackFM/arkiv"
	"SplitTrackFM/cache"
	"SplitTrackFM/config"
	"SplitTrackFM/core/chain"
	"SplitTrackFM/core/notify"
	"SplitTrackFM/core/song"
	"SplitTrackFM/db"
	"SplitTrackFM/logger"
	"SplitTrackFM/repository"
	"SplitTrackFM/storage"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Start initializes and starts the HTTP server.
func Start() {
	cfg := config.Load()

	logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	// 设置服务器超时
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 180 * time.Second, // 链上确认最长要等两分钟
		IdleTimeout:  120 * time.Second,
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startCancel()

	// 存储网络客户端：未配置端点时退化为内存演示模式
	var store arkiv.MetadataStore
	var entities arkiv.EntityCreator
	if err := cfg.ValidateStore(); err != nil {
		logger.Warn("存储网络未配置，使用内存演示模式", logger.ErrorField(err))
		mem := arkiv.NewMemStore()
		store, entities = mem, mem
	} else {
		client, err := arkiv.NewClient(startCtx, cfg.ArkivRPCURL, cfg.ArkivPrivateKey)
		if err != nil {
			logger.Fatal("Failed to connect to the metadata store", logger.ErrorField(err))
		}
		defer client.Close()
		store, entities = client, client
	}

	// 链上工厂：配置缺失时服务仍然启动，创建接口返回配置错误
	var creator song.SongCreator
	if err := cfg.ValidateSigning(); err != nil {
		logger.Warn("链配置缺失，歌曲创建接口不可用", logger.ErrorField(err))
	} else {
		factory, err := chain.NewFactory(startCtx, cfg.ChainRPCURL, cfg.FactoryAddress, cfg.PrivateKey, cfg.ChainID)
		if err != nil {
			logger.Fatal("Failed to connect to the chain RPC", logger.ErrorField(err))
		}
		defer factory.Close()
		creator = factory
	}

	// 本地登记表，连不上时降级运行（登记表不是事实来源）
	var registry repository.SongRepository
	if err := db.ConnectDB(cfg); err != nil {
		logger.Warn("Failed to connect to database, running without the local registry", logger.ErrorField(err))
	} else {
		defer db.DB.Close()
		if err := db.InitDB(); err != nil {
			logger.Fatal("Failed to initialize database", logger.ErrorField(err))
		}
		registry = repository.NewMySQLSongRepository()
	}

	// Redis缓存，连不上时直接回源存储网络
	var songCache *cache.SongCache
	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Warn("Failed to connect to Redis, running without the metadata cache", logger.ErrorField(err))
	} else {
		defer cache.CloseRedis()
		songCache = cache.NewSongCache(cache.RedisClient)
		logger.Info("Successfully connected to Redis")
	}

	// MinIO媒体存储，未配置时上传接口返回503
	minioReady := false
	if cfg.MinioEndpoint != "" {
		if err := storage.InitMinio(cfg); err != nil {
			logger.Warn("Failed to initialize MinIO, media uploads disabled", logger.ErrorField(err))
		} else {
			minioReady = true
		}
	}

	notifier := notify.NewFromConfig(cfg)
	svc := song.NewService(store, creator, registry, songCache, notifier, cfg.ChainID)

	songHandler := NewSongHandler(svc, entities)
	uploadHandler := NewUploadHandler(cfg, minioReady)

	// 使用 gorilla/mux 创建路由器
	router := mux.NewRouter()

	// 添加 CORS 中间件
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// 请求ID与访问日志
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			w.Header().Set("X-Request-Id", requestID)

			start := time.Now()
			next.ServeHTTP(w, r)

			logger.Debug("request handled",
				logger.String("requestId", requestID),
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Duration("elapsed", time.Since(start)))
		})
	})

	// 歌曲相关的API端点
	router.HandleFunc("/api/songs", songHandler.CreateSongHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/songs", songHandler.ListSongsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/songs/artist/{artistName}", songHandler.SongsByArtistHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/metadata/{entityKey}", songHandler.MetadataHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/collaborators/{entityKey}", songHandler.CollaboratorsHandler).Methods(http.MethodGet)

	// 媒体上传
	router.HandleFunc("/api/upload/cover", uploadHandler.UploadCoverHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/upload/audio", uploadHandler.UploadAudioHandler).Methods(http.MethodPost)

	// Legacy通用实体创建透传
	router.HandleFunc("/create-entity", songHandler.CreateEntityHandler).Methods(http.MethodPost)

	// 健康检查
	router.HandleFunc("/health", songHandler.HealthHandler).Methods(http.MethodGet)

	server.Handler = router

	// 创建一个通道来接收操作系统信号
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// 在goroutine中启动服务器
	go func() {
		logger.Info("SplitTrack FM API starting", logger.String("addr", server.Addr))

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	// 等待中断信号
	<-stop
	logger.Info("Shutting down server...")

	// 创建一个5秒超时的上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭服务器
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
