package config

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/yourusername/learnhub-api/internal/pkg/logger"
)

// Config хранит все настройки приложения
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Quiz      QuizConfig
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Log       LogConfig
	CORS      CORSConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	Mode         string // debug | release | test
	ReadTimeout  int    `mapstructure:"read_timeout"`  // секунды
	WriteTimeout int    `mapstructure:"write_timeout"` // секунды
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int  `mapstructure:"max_open_conns"`
	MaxIdleConns int  `mapstructure:"max_idle_conns"`
	AutoMigrate  bool `mapstructure:"auto_migrate"`

	// MigrationsPath: источник миграций для golang-migrate
	MigrationsPath string `mapstructure:"migrations_path"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: Режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: Список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: Имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`

	MaxRetries      int `mapstructure:"max_retries"`
	MinRetryBackoff int `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int `mapstructure:"max_retry_backoff"` // мс

	// TagsCacheTTL: время жизни кеша каталога тегов (секунды)
	TagsCacheTTL int `mapstructure:"tags_cache_ttl"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	Issuer        string `mapstructure:"issuer"`
	ExpirationHrs int    `mapstructure:"expiration_hrs"`
}

// QuizConfig содержит ограничения движка викторин
type QuizConfig struct {
	MaxLength     int `mapstructure:"max_length"`
	DefaultLength int `mapstructure:"default_length"`
	TitleMaxLen   int `mapstructure:"title_max_len"`
}

// RateLimitConfig содержит лимиты запросов
type RateLimitConfig struct {
	QuizStartMax    int `mapstructure:"quiz_start_max"`
	QuizStartWindow int `mapstructure:"quiz_start_window"` // секунды
}

// LogConfig содержит настройки логирования
type LogConfig struct {
	Level  string
	Format string // text | json
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// QuizStartWindowDuration возвращает окно лимита старта викторин
func (r RateLimitConfig) QuizStartWindowDuration() time.Duration {
	return time.Duration(r.QuizStartWindow) * time.Second
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.mode", "debug")
	vip.SetDefault("server.read_timeout", 15)
	vip.SetDefault("server.write_timeout", 15)

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("database.auto_migrate", true)
	vip.SetDefault("database.migrations_path", "file://migrations")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")
	vip.SetDefault("redis.tags_cache_ttl", 300)

	vip.SetDefault("jwt.issuer", "learnhub-api")
	vip.SetDefault("jwt.expiration_hrs", 24)

	vip.SetDefault("quiz.max_length", 500)
	vip.SetDefault("quiz.default_length", 5)
	vip.SetDefault("quiz.title_max_len", 255)

	vip.SetDefault("rate_limit.quiz_start_max", 10)
	vip.SetDefault("rate_limit.quiz_start_window", 60)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "text")
}

// Load загружает конфигурацию из файла и переменных окружения
func Load(configPath string) (*Config, error) {
	vip := viper.New() // Используем новый экземпляр Viper, чтобы избежать глобального состояния
	log := logger.Component("config")

	setDefaults(vip)

	// Привязываем переменные окружения ЯВНО
	envBindings := map[string]string{
		"server.port":               "SERVER_PORT",
		"server.mode":               "GIN_MODE",
		"database.host":             "DATABASE_HOST",
		"database.port":             "DATABASE_PORT",
		"database.user":             "DATABASE_USER",
		"database.password":         "DATABASE_PASSWORD",
		"database.dbname":           "DATABASE_DBNAME",
		"database.sslmode":          "DATABASE_SSLMODE",
		"database.auto_migrate":     "DATABASE_AUTO_MIGRATE",
		"redis.mode":                "REDIS_MODE",
		"redis.addrs":               "REDIS_ADDRS",
		"redis.addr":                "REDIS_ADDR",
		"redis.password":            "REDIS_PASSWORD",
		"redis.db":                  "REDIS_DB",
		"redis.master_name":         "REDIS_MASTER_NAME",
		"jwt.secret":                "JWT_SECRET",
		"jwt.expiration_hrs":        "JWT_EXPIRATION_HRS",
		"quiz.max_length":           "QUIZ_MAX_LENGTH",
		"rate_limit.quiz_start_max": "RATE_LIMIT_QUIZ_START_MAX",
		"log.level":                 "LOG_LEVEL",
		"log.format":                "LOG_FORMAT",
		"cors.allowed_origins":      "CORS_ALLOWED_ORIGINS",
	}
	for key, env := range envBindings {
		if err := vip.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	// Файл конфигурации не обязателен, т.к. есть BindEnv
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			log.WithError(err).Warnf("config file %q not read, using env and defaults", configPath)
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Server.Mode != "release" {
		log.WithFields(logrus.Fields{
			"db_host":    cfg.Database.Host,
			"db_name":    cfg.Database.DBName,
			"redis_mode": cfg.Redis.Mode,
			"redis_addr": cfg.Redis.Addr,
			"port":       cfg.Server.Port,
			"quiz_max":   cfg.Quiz.MaxLength,
		}).Debug("configuration loaded")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required in config (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete in config (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if c.Quiz.MaxLength <= 0 {
		return fmt.Errorf("quiz.max_length must be positive, got %d", c.Quiz.MaxLength)
	}
	if c.Quiz.DefaultLength < 0 || c.Quiz.DefaultLength > c.Quiz.MaxLength {
		return fmt.Errorf("quiz.default_length must be within [0, %d], got %d", c.Quiz.MaxLength, c.Quiz.DefaultLength)
	}
	return nil
}
