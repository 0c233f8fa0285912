package app

import (
	"context"
	"log"
	"mentorhub_backend/internal/config"
	"mentorhub_backend/internal/controller"
	"mentorhub_backend/internal/repository"
	"mentorhub_backend/internal/service"
	"mentorhub_backend/pkg/database"
	"mentorhub_backend/pkg/logger"
	"mentorhub_backend/pkg/monitoring"
	"mentorhub_backend/pkg/security"
	"mentorhub_backend/pkg/tracing"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	limiter         *security.RateLimiter
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	career     *repository.CareerRepository
	project    *repository.ProjectRepository
	submission *repository.SubmissionRepository
}

type services struct {
	settings    *service.Settings
	projector   *service.Projector
	reviews     *service.ReviewService
	analytics   *service.AnalyticsService
	submissions *service.SubmissionService
}

type controllers struct {
	submission *controller.SubmissionController
	analytics  *controller.AnalyticsController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置文件变更后通知各组件
func (a *App) ApplyConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, cfg *config.Config) *repositories {
	timeout := cfg.Database.QueryTimeout
	return &repositories{
		user:       repository.NewUserRepository(db, timeout),
		career:     repository.NewCareerRepository(db, timeout),
		project:    repository.NewProjectRepository(db, timeout),
		submission: repository.NewSubmissionRepository(db, timeout),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.settings = service.NewSettings(cfg.Review)
	cache := service.NewSummaryCache(rdb, cfg.Review.WorkloadCacheTTL)

	s.projector = service.NewProjector(repos.user, repos.career, repos.project)
	s.reviews = service.NewReviewService(repos.submission, repos.user, repos.career, s.projector, cache, s.settings)
	s.analytics = service.NewAnalyticsService(repos.submission, repos.user, cache)
	s.submissions = service.NewSubmissionService(repos.submission, s.analytics, s.projector, s.settings)

	// 审核参数支持热更新
	a.RegisterConfigCallback(func(newCfg *config.Config) {
		s.settings.Update(newCfg.Review)
		logger.Log.Info("review settings reloaded",
			zap.Int("maxPageSize", newCfg.Review.MaxPageSize),
			zap.Int("maxWriteAttempts", newCfg.Review.MaxWriteAttempts))
	})

	return s
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		submission: controller.NewSubmissionController(s.reviews, s.submissions),
		analytics:  controller.NewAnalyticsController(s.analytics),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS))
	router.Use(security.Secure())
	if a.limiter = security.NewRateLimiter(cfg.RateLimit); a.limiter != nil {
		router.Use(a.limiter.Middleware())
	}

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// New 基于已建立的连接组装应用，不负责初始化基础设施
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client) *App {
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db, cfg)
	app.services = app.initServices(repos, cfg, rdb)
	controllers := app.initControllers(app.services, db, rdb)

	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Server.Mode == "debug" {
		router.Use(gin.Logger())
	}
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, repos, cfg)

	return app
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	if cfg.MigrateOnly {
		return &App{Config: cfg, DB: db}
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Enabled {
		tp, err = tracing.InitTracer("mentorhub-review-engine", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app := New(cfg, db, rdb)
	app.tracer = tp
	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	a.limiter.Stop()
	if a.Redis != nil {
		_ = a.Redis.Close()
	}

	log.Println("Server exiting")
}
