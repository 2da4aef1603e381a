package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/learnhub-api/internal/config"
	"github.com/yourusername/learnhub-api/internal/handler"
	"github.com/yourusername/learnhub-api/internal/middleware"
	"github.com/yourusername/learnhub-api/internal/pkg/logger"
	pgRepo "github.com/yourusername/learnhub-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/learnhub-api/internal/repository/redis"
	"github.com/yourusername/learnhub-api/internal/service"
	"github.com/yourusername/learnhub-api/internal/service/quizengine"
	"github.com/yourusername/learnhub-api/pkg/auth"
	"github.com/yourusername/learnhub-api/pkg/database"
)

func main() {
	log := logger.Component("main")

	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Infof("loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load config")
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	gin.SetMode(cfg.Server.Mode)
	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database, !isProduction)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}

	// Применяем миграции
	if cfg.Database.AutoMigrate {
		if err := database.MigrateDB(db, cfg.Database.MigrationsPath); err != nil {
			log.WithError(err).Fatal("failed to migrate database")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}
	log.Info("successfully connected to Redis")

	// Инициализируем репозитории
	store := pgRepo.NewTxManager(db)
	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize CacheRepo")
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize JWTService")
	}

	// Движок и сервисы
	engine := quizengine.NewEngine(store, quizengine.Config{
		MaxLength:     cfg.Quiz.MaxLength,
		DefaultLength: cfg.Quiz.DefaultLength,
		TitleMaxLen:   cfg.Quiz.TitleMaxLen,
	}, nil)
	quizService := service.NewQuizService(engine, store.Users())
	userService := service.NewUserService(store.Users(), pgRepo.NewProgressRepo(db))
	exerciseService := service.NewExerciseService(store.Exercises(), cacheRepo, time.Duration(cfg.Redis.TagsCacheTTL)*time.Second)

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production не доверяем прокси-заголовкам, в development доверяем localhost
	var trustedProxies []string
	if !isProduction {
		trustedProxies = []string{"127.0.0.1", "::1"}
	}

	router, err := handler.NewRouter(handler.RouterConfig{
		QuizHandler:     handler.NewQuizHandler(quizService),
		ExerciseHandler: handler.NewExerciseHandler(exerciseService),
		UserHandler:     handler.NewUserHandler(userService),
		Auth:            middleware.NewAuthMiddleware(jwtService),
		RateLimiter:     middleware.NewRateLimiter(redisClient),
		QuizStartLimit:  middleware.QuizStartRateLimitConfig(cfg.RateLimit.QuizStartMax, cfg.RateLimit.QuizStartWindowDuration()),
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		TrustedProxies:  trustedProxies,
	})
	if err != nil {
		log.WithError(err).Fatal("failed to build router")
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Infof("starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("failed to start server")
			cancel()
		}
	}()

	// Ждём SIGINT/SIGTERM или падения сервера
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("shutting down server...")

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server forced to shutdown")
	}

	if err := redisClient.Close(); err != nil {
		log.WithError(err).Warn("error closing Redis client")
	}
	if sqlDB, err := database.GetSQLDB(db); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.WithError(err).Warn("error closing database")
		}
	}

	log.Info("server exited properly")
}
