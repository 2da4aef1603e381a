package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/learnhub-api/internal/middleware"
)

// RouterConfig содержит зависимости маршрутизатора
type RouterConfig struct {
	QuizHandler     *QuizHandler
	ExerciseHandler *ExerciseHandler
	UserHandler     *UserHandler
	Auth            *middleware.AuthMiddleware
	RateLimiter     *middleware.RateLimiter // nil - без ограничения частоты стартов
	QuizStartLimit  middleware.RateLimitConfig
	AllowedOrigins  []string
	TrustedProxies  []string
}

// NewRouter настраивает маршруты API
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger())

	// В production не доверяем прокси-заголовкам, если список пуст
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}

	if len(cfg.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.Use(cfg.Auth.RequireAuth())
	{
		api.GET("/tags", cfg.ExerciseHandler.ListTags)

		exercises := api.Group("/exercises")
		{
			exercises.GET("", cfg.ExerciseHandler.ListExercises)
			exercises.POST("", cfg.Auth.SuperuserOnly(), cfg.ExerciseHandler.CreateExercise)

			exerciseWithID := exercises.Group("/:id", middleware.ExtractUUIDParam("id", "exerciseID"))
			{
				exerciseWithID.GET("", cfg.ExerciseHandler.GetExercise)
				exerciseWithID.PUT("", cfg.Auth.SuperuserOnly(), cfg.ExerciseHandler.UpdateExercise)
				exerciseWithID.DELETE("", cfg.Auth.SuperuserOnly(), cfg.ExerciseHandler.DeleteExercise)
			}
		}

		api.GET("/users/me", cfg.UserHandler.GetMe)
		users := api.Group("/users/:user_id", middleware.ExtractUUIDParam("user_id", "userID"))
		{
			users.GET("/progress", cfg.UserHandler.GetProgress)
			users.GET("/quizzes", cfg.QuizHandler.ListUserQuizzes)
			users.POST("/quizzes", cfg.QuizHandler.CreateQuiz)
		}

		quizzes := api.Group("/quizzes")
		{
			start := []gin.HandlerFunc{}
			if cfg.RateLimiter != nil {
				start = append(start, cfg.RateLimiter.Limit(cfg.QuizStartLimit))
			}
			quizzes.POST("/start", append(start, cfg.QuizHandler.StartQuiz)...)
			quizzes.GET("/active", cfg.QuizHandler.GetActiveQuiz)
			quizzes.POST("/deactivate", cfg.QuizHandler.DeactivateQuiz)

			quizWithID := quizzes.Group("/:id", middleware.ExtractUUIDParam("id", "quizID"))
			{
				quizWithID.GET("", cfg.QuizHandler.GetQuiz)
				quizWithID.PATCH("", cfg.QuizHandler.UpdateQuiz)
				quizWithID.DELETE("", cfg.QuizHandler.DeleteQuiz)
				quizWithID.POST("/activate", cfg.QuizHandler.ActivateQuiz)
				quizWithID.PUT("/save", cfg.QuizHandler.SaveQuiz)
				quizWithID.POST("/submit", cfg.QuizHandler.SubmitQuiz)
				quizWithID.GET("/report", cfg.QuizHandler.ExportReport)
			}
		}
	}

	return router, nil
}
