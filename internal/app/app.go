package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"interview_prep_backend/internal/config"
	"interview_prep_backend/internal/controller"
	"interview_prep_backend/internal/repository"
	"interview_prep_backend/internal/service"
	"interview_prep_backend/internal/util"
	"interview_prep_backend/pkg/configwatcher"
	"interview_prep_backend/pkg/database"
	"interview_prep_backend/pkg/logger"
	"interview_prep_backend/pkg/monitoring"
	"interview_prep_backend/pkg/security"
	"interview_prep_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	ConfigDir       string
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	limiter         *security.RateLimiter
	configCallbacks []func(*config.Config)
}

type repositories struct {
	usage        repository.UsageStore
	subscription *repository.SubscriptionRepository
	result       *repository.QuestionResultRepository
	difficulty   *repository.DifficultyRepository
	session      *repository.SessionRepository
}

type services struct {
	storage      *service.StorageService
	subscription *service.SubscriptionService
	quota        *service.QuotaService
	difficulty   *service.DifficultyService
	session      *service.SessionService
	prompt       *service.PromptService
	report       *service.ReportService
}

type controllers struct {
	usage        *controller.UsageController
	subscription *controller.SubscriptionController
	difficulty   *controller.DifficultyController
	session      *controller.SessionController
	prompt       *controller.PromptController
	health       *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client, cfg *config.Config) (*repositories, error) {
	repos := &repositories{
		subscription: repository.NewSubscriptionRepository(db),
		result:       repository.NewQuestionResultRepository(db),
		difficulty:   repository.NewDifficultyRepository(db),
		session:      repository.NewSessionRepository(db),
	}

	switch cfg.Quota.Store {
	case util.QuotaStoreRedis:
		if rdb == nil {
			return nil, errors.New("quota store is redis but redis is not available")
		}
		loc, err := cfg.Quota.Location()
		if err != nil {
			return nil, err
		}
		repos.usage = repository.NewRedisUsageStore(rdb, cfg.Quota.RedisRetentionDays, loc)
	default:
		repos.usage = repository.NewUsageRepository(db)
	}
	return repos, nil
}

func (a *App) initServices(repos *repositories, cfg *config.Config) (*services, error) {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.subscription = service.NewSubscriptionService(repos.subscription, cfg.Subscription)

	quota, err := service.NewQuotaService(repos.usage, s.subscription, cfg.Quota)
	if err != nil {
		return nil, err
	}
	s.quota = quota
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.quota.SetLimits(newCfg.Quota)
	})

	s.difficulty = service.NewDifficultyService(repos.result, repos.difficulty)
	s.session = service.NewSessionService(repos.session, s.difficulty)
	s.report = service.NewReportService(s.session, s.storage)

	generator, err := service.NewGenerator(cfg.AI)
	if err != nil {
		return nil, err
	}
	if cfg.AI.Mock() {
		logger.Log.Warn("AI api_key not configured, using mock generator")
	}
	s.prompt = service.NewPromptService(s.quota, s.difficulty, generator)

	return s, nil
}

func (a *App) initControllers(s *services) *controllers {
	return &controllers{
		usage:        controller.NewUsageController(s.quota),
		subscription: controller.NewSubscriptionController(s.subscription),
		difficulty:   controller.NewDifficultyController(s.difficulty),
		session:      controller.NewSessionController(s.session, s.report),
		prompt:       controller.NewPromptController(s.prompt),
		health:       controller.NewHealthController(a.DB, a.Redis),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	if cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.WindowMinutes > 0 {
		a.limiter = security.NewRateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute)
		router.Use(a.limiter.Middleware())
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 用已建立的连接组装应用，rdb 可以为 nil
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*App, error) {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos, err := app.initRepositories(db, rdb, cfg)
	if err != nil {
		return nil, err
	}
	services, err := app.initServices(repos, cfg)
	if err != nil {
		return nil, err
	}
	app.services = services
	controllers := app.initControllers(services)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.Use(gin.Recovery())
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app, nil
}

// NewApp 初始化日志和外部连接；MigrateOnly 时只完成迁移
func NewApp(cfg *config.Config, configDir string) (*App, error) {
	logger.InitLogger(cfg)
	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		return nil, err
	}
	if cfg.MigrateOnly {
		return &App{Config: cfg, ConfigDir: configDir, DB: db}, nil
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		if cfg.Quota.Store == util.QuotaStoreRedis {
			return nil, err
		}
		logger.Log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		rdb = nil
	}

	app, err := New(cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	app.ConfigDir = configDir

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			return nil, err
		}
		app.tracer = tp
	}

	return app, nil
}

// Close 停止应用内部的后台任务，不关闭外部连接
func (a *App) Close() {
	if a.limiter != nil {
		a.limiter.Stop()
	}
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.ConfigDir != "" {
		go func() {
			err := configwatcher.WatchConfig(ctx, a.ConfigDir, func(newCfg *config.Config) {
				for _, cb := range a.configCallbacks {
					cb(newCfg)
				}
			})
			if err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	<-ctx.Done()
	logger.Log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close()
	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Log.Info("Server exiting")
	logger.Log.Sync()
}
