package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pathway-gateway/core"
	"pathway-gateway/core/adapter"
	"pathway-gateway/core/cache"
	"pathway-gateway/core/failover"
	"pathway-gateway/models"
)

func main() {
	encryptKey := flag.String("encrypt-key", "", "encrypt an API key with KEY_ENCRYPTION_SECRET, print the enc: value and exit (\"-\" reads from stdin)")
	flag.Parse()

	// 创建日志器
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	gin.SetMode(gin.ReleaseMode)

	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Infof("No %s file loaded (%v), using process environment", envFile, err)
	}

	settings, err := core.LoadSettings(os.LookupEnv)
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	if *encryptKey != "" {
		if err := encryptAPIKey(settings.KeyEncryptionSecret, *encryptKey, os.Stdin, os.Stdout); err != nil {
			log.Fatal("Failed to encrypt key: ", err)
		}
		return
	}

	closeLog, err := setupLogging(log, settings)
	if err != nil {
		log.Fatal("Failed to set up logging: ", err)
	}
	defer closeLog()

	// 初始化数据库
	db, err := initDatabase(settings.DBPath, log)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resultCache, closeCache, err := newResultCache(settings, db, reg)
	if err != nil {
		log.Fatal("Failed to initialize cache: ", err)
	}
	defer closeCache()

	secrets, err := core.NewSecretProvider(settings.KeyEncryptionSecret)
	if err != nil {
		log.Fatal("Invalid KEY_ENCRYPTION_SECRET: ", err)
	}

	youtubePool := core.LoadKeyPool(os.LookupEnv, core.YouTubeKeySource, secrets, log)
	geminiPool := core.LoadKeyPool(os.LookupEnv, core.GeminiKeySource, secrets, log)

	promObserver, err := core.NewPrometheusObserver(reg)
	if err != nil {
		log.Fatal("Failed to register metrics: ", err)
	}
	recorder := core.NewAttemptRecorder(db, log, settings.AttemptLogKeep)
	defer recorder.Close()
	observers := []failover.Observer{failover.NewLogObserver(log), promObserver, recorder}

	youtubeStrategy, _ := failover.StrategyByName(settings.YouTubeStrategy, &failover.RoundRobinStrategy{})
	geminiStrategy, _ := failover.StrategyByName(settings.GeminiStrategy, failover.NewShuffleStrategy(nil))

	httpClient := adapter.NewHTTPClient()
	videos := core.NewVideoSearchService(
		resultCache,
		adapter.NewYouTubeClient(settings.YouTubeBaseURL, httpClient, settings.UpstreamTimeout),
		failover.New(youtubePool, youtubeStrategy, adapter.ClassifyYouTube, observers...),
		log,
	)
	content := core.NewContentService(
		adapter.NewGeminiClient(settings.GeminiBaseURL, httpClient, settings.UpstreamTimeout),
		failover.New(geminiPool, geminiStrategy, adapter.ClassifyGemini, observers...),
		settings.GeminiModel,
		log,
	)

	roadmaps := core.NewRoadmapService(content, log)

	var limiter *IPRateLimiter
	if settings.RateLimitRPS > 0 {
		limiter = NewIPRateLimiter(rate.Limit(settings.RateLimitRPS), settings.RateLimitBurst)
		defer limiter.Stop()
	}

	engine := newEngine(&server{
		videos:       videos,
		content:      content,
		roadmaps:     roadmaps,
		pools:        []*failover.KeyPool{youtubePool, geminiPool},
		cacheBackend: settings.CacheBackend,
		gatherer:     reg,
		limiter:      limiter,
		log:          log,
	})

	// 创建HTTP服务器
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", settings.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof("Starting Pathway Gateway on port %d (cache: %s)", settings.Port, settings.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server: ", err)
		}
	}()

	// 等待中断信号以优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: ", err)
	}
	log.Info("Server exited")
}

// setupLogging 设置日志级别，LOG_FILE 非空时同时写入轮转文件
func setupLogging(log *logrus.Logger, s *core.Settings) (func(), error) {
	level, err := logrus.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	if s.LogFile == "" {
		return func() {}, nil
	}
	rotator, err := core.NewLogRotator(s.LogFile, s.LogMaxSizeMB)
	if err != nil {
		return nil, err
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
	return func() {
		log.SetOutput(os.Stdout)
		rotator.Close()
	}, nil
}

// initDatabase 初始化数据库
func initDatabase(path string, log *logrus.Logger) (*gorm.DB, error) {
	// 只记录错误，不打印 SQL 语句
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.Infof("Database initialized successfully (%s)", path)
	return db, nil
}

// newResultCache 按 CACHE_BACKEND 构造缓存并挂上命中率指标
func newResultCache(s *core.Settings, db *gorm.DB, reg prometheus.Registerer) (core.ResultCache, func(), error) {
	var (
		base    core.ResultCache
		closeFn = func() {}
	)
	switch s.CacheBackend {
	case core.CacheBackendRedis:
		cli := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := cli.Ping(ctx).Err(); err != nil {
			cli.Close()
			return nil, nil, fmt.Errorf("redis ping %s: %w", s.RedisAddr, err)
		}
		base = cache.NewRedisCache(cli)
		closeFn = func() { cli.Close() }
	case core.CacheBackendMemory:
		base = cache.NewMemoryCache()
	default:
		base = cache.NewGormCache(db)
	}

	instrumented, err := core.NewInstrumentedCache(base, reg)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return instrumented, closeFn, nil
}
