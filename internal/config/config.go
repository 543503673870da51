package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Repository RepositoryConfig `mapstructure:"repository"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Mailer     MailerConfig     `mapstructure:"mailer"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	Host               string   `mapstructure:"host"`
	Port               string   `mapstructure:"port"`
	CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConnections int           `mapstructure:"max_connections"`
	MinConnections int           `mapstructure:"min_connections"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	Migrate        bool          `mapstructure:"migrate"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type"` // "postgres" или "inmemory"
}

type CacheConfig struct {
	Backend    string        `mapstructure:"backend"` // "redis" или "memory"
	Addr       string        `mapstructure:"addr"`
	Password   string        `mapstructure:"password"`
	DB         int           `mapstructure:"db"`
	VisibleTTL time.Duration `mapstructure:"visible_ttl"`
}

type MailerConfig struct {
	Backend  string        `mapstructure:"backend"` // "smtp" или "fake"
	Host     string        `mapstructure:"host"`
	Port     int           `mapstructure:"port"`
	From     string        `mapstructure:"from"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type SchedulerConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Interval      time.Duration `mapstructure:"interval"`
	Lookahead     time.Duration `mapstructure:"lookahead"`
	MaxAttempts   int           `mapstructure:"max_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MarkerEnabled bool          `mapstructure:"marker_enabled"`
	MarkerTTL     time.Duration `mapstructure:"marker_ttl"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
}

// AuthConfig хранит таблицу токен -> идентификатор пользователя
type AuthConfig struct {
	Tokens map[string]string `mapstructure:"tokens"`
}

type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load читает config.yml, поверх него переменные окружения с
// префиксом TASKSHARE (точки секций заменяются подчёркиванием).
// Отсутствие файла не ошибка: значений по умолчанию достаточно
// для запуска с inmemory-хранилищем.
func Load() (*Config, error) {
	vp := viper.New()
	vp.SetConfigName("config")
	vp.SetConfigType("yml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("./configs")

	vp.SetEnvPrefix("TASKSHARE")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение config.yml: %w", err)
		}
	}

	var cfg Config
	if err := vp.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	return &cfg, nil
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault("server.host", "0.0.0.0")
	vp.SetDefault("server.port", "8080")
	vp.SetDefault("server.cors_allowed_origins", []string{"*"})

	vp.SetDefault("database.max_connections", 10)
	vp.SetDefault("database.min_connections", 2)
	vp.SetDefault("database.idle_timeout", "5m")
	vp.SetDefault("database.migrate", true)

	vp.SetDefault("repository.type", "inmemory")

	vp.SetDefault("cache.backend", "memory")
	vp.SetDefault("cache.addr", "localhost:6379")
	vp.SetDefault("cache.db", 0)
	vp.SetDefault("cache.visible_ttl", "1m")

	vp.SetDefault("mailer.backend", "fake")
	vp.SetDefault("mailer.port", 587)
	vp.SetDefault("mailer.from", "noreply@taskshare.local")
	vp.SetDefault("mailer.timeout", "10s")

	vp.SetDefault("scheduler.enabled", true)
	vp.SetDefault("scheduler.interval", "1h")
	vp.SetDefault("scheduler.lookahead", "24h")
	vp.SetDefault("scheduler.max_attempts", 3)
	vp.SetDefault("scheduler.retry_delay", "5m")
	vp.SetDefault("scheduler.marker_enabled", true)
	vp.SetDefault("scheduler.marker_ttl", "24h")
	vp.SetDefault("scheduler.lock_ttl", "15m")

	vp.SetDefault("logging.development", false)
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}
