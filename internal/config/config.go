package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Lifecycle  LifecycleConfig
	Notifier   NotifierConfig
	Payment    PaymentConfig
	Validation ValidationConfig
	Log        LogConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int // секунды
	WriteTimeout int // секунды
	Mode         string
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig содержит унифицированные настройки подключения к Redis.
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	Mode            string   `mapstructure:"mode"`
	Addrs           []string `mapstructure:"addrs"`
	Addr            string   `mapstructure:"addr"`
	Password        string   `mapstructure:"password"`
	DB              int      `mapstructure:"db"`
	MasterName      string   `mapstructure:"master_name"`
	MaxRetries      int      `mapstructure:"max_retries"`
	MinRetryBackoff int      `mapstructure:"min_retry_backoff"` // мс
	MaxRetryBackoff int      `mapstructure:"max_retry_backoff"` // мс
	KeyPrefix       string   `mapstructure:"key_prefix"`
}

// JWTConfig содержит настройки JWT
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// LifecycleConfig содержит настройки ежедневного прохода
type LifecycleConfig struct {
	CronSpec     string        `mapstructure:"cron_spec"`
	Timezone     string        `mapstructure:"timezone"`
	RunLockTTL   time.Duration `mapstructure:"run_lock_ttl"`
	PoolCacheTTL time.Duration `mapstructure:"pool_cache_ttl"`
	Enabled      bool          `mapstructure:"enabled"`
}

// NotifierConfig содержит настройки очереди достижений
type NotifierConfig struct {
	Workers   int           `mapstructure:"workers"`
	QueueSize int           `mapstructure:"queue_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// PaymentConfig настройки симулированного платёжного шлюза
type PaymentConfig struct {
	ChargeSuccessRate float64 `mapstructure:"charge_success_rate"`
	PayoutSuccessRate float64 `mapstructure:"payout_success_rate"`
	Seed              int64   `mapstructure:"seed"`
}

// ValidationConfig настройки симулированной проверки изображений
type ValidationConfig struct {
	AcceptRate float64 `mapstructure:"accept_rate"`
	Seed       int64   `mapstructure:"seed"`
}

// LogConfig настройки логирования
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// PostgresConnectionString формирует строку подключения к PostgreSQL
func (d *DatabaseConfig) PostgresConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// PostgresURL формирует URL подключения для golang-migrate
func (d *DatabaseConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode)
}

// Location возвращает зону, в которой считаются календарные дни
func (l *LifecycleConfig) Location() (*time.Location, error) {
	return time.LoadLocation(l.Timezone)
}

// IsDebug сообщает, запущен ли сервер в режиме отладки
func (c *Config) IsDebug() bool {
	return c.Server.Mode == "debug"
}

func setDefaults(vip *viper.Viper) {
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readTimeout", 10)
	vip.SetDefault("server.writeTimeout", 30)
	vip.SetDefault("server.mode", "release")

	vip.SetDefault("database.port", "5432")
	vip.SetDefault("database.sslmode", "disable")

	vip.SetDefault("redis.mode", "single")
	vip.SetDefault("redis.addr", "localhost:6379")
	vip.SetDefault("redis.key_prefix", "habitleague")

	vip.SetDefault("jwt.expirationHrs", 72)

	vip.SetDefault("lifecycle.cron_spec", "0 5 0 * * *")
	vip.SetDefault("lifecycle.timezone", "America/Mexico_City")
	vip.SetDefault("lifecycle.run_lock_ttl", 30*time.Minute)
	vip.SetDefault("lifecycle.pool_cache_ttl", time.Minute)
	vip.SetDefault("lifecycle.enabled", true)

	vip.SetDefault("notifier.workers", 4)
	vip.SetDefault("notifier.queue_size", 1024)
	vip.SetDefault("notifier.timeout", 5*time.Second)

	vip.SetDefault("payment.charge_success_rate", 0.95)
	vip.SetDefault("payment.payout_success_rate", 1.0)

	vip.SetDefault("validation.accept_rate", 0.9)

	vip.SetDefault("log.level", "info")
	vip.SetDefault("log.format", "json")
}

func bindEnv(vip *viper.Viper) {
	// Явная привязка переменных окружения
	bindings := map[string]string{
		"server.port": "SERVER_PORT",
		"server.mode": "GIN_MODE",

		"database.host":     "DATABASE_HOST",
		"database.port":     "DATABASE_PORT",
		"database.user":     "DATABASE_USER",
		"database.password": "DATABASE_PASSWORD",
		"database.dbname":   "DATABASE_DBNAME",
		"database.sslmode":  "DATABASE_SSLMODE",

		"redis.mode":        "REDIS_MODE",
		"redis.addrs":       "REDIS_ADDRS",
		"redis.addr":        "REDIS_ADDR",
		"redis.password":    "REDIS_PASSWORD",
		"redis.db":          "REDIS_DB",
		"redis.master_name": "REDIS_MASTER_NAME",

		"jwt.secret":        "JWT_SECRET",
		"jwt.expirationHrs": "JWT_EXPIRATIONHRS",

		"lifecycle.cron_spec": "LIFECYCLE_CRON_SPEC",
		"lifecycle.timezone":  "LIFECYCLE_TIMEZONE",
		"lifecycle.enabled":   "LIFECYCLE_ENABLED",

		"payment.charge_success_rate": "PAYMENT_CHARGE_SUCCESS_RATE",
		"payment.payout_success_rate": "PAYMENT_PAYOUT_SUCCESS_RATE",
		"validation.accept_rate":      "VALIDATION_ACCEPT_RATE",

		"log.level":  "LOG_LEVEL",
		"log.format": "LOG_FORMAT",
	}
	for key, env := range bindings {
		_ = vip.BindEnv(key, env)
	}
}

// Load загружает конфигурацию из файла и переменных окружения.
// Отсутствующий файл не является ошибкой.
func Load(configPath string) (*Config, error) {
	vip := viper.New()
	setDefaults(vip)
	bindEnv(vip)

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || os.IsNotExist(err) {
				logrus.WithField("path", configPath).Info("[Config] Файл конфигурации не найден, используются переменные окружения")
			} else {
				logrus.WithError(err).WithField("path", configPath).Warn("[Config] Не удалось прочитать файл конфигурации")
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// REDIS_ADDRS приходит строкой через запятую
	if len(cfg.Redis.Addrs) == 1 && strings.Contains(cfg.Redis.Addrs[0], ",") {
		cfg.Redis.Addrs = strings.Split(cfg.Redis.Addrs[0], ",")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate проверяет обязательные параметры
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt secret is required (check JWT_SECRET env var)")
	}
	if c.Database.Host == "" || c.Database.DBName == "" || c.Database.User == "" {
		return fmt.Errorf("database configuration (host, dbname, user) is incomplete (check DATABASE_HOST, DATABASE_DBNAME, DATABASE_USER env vars)")
	}
	if !c.IsDebug() && c.Database.Password == "" {
		return fmt.Errorf("database password is required outside debug mode (check DATABASE_PASSWORD env var)")
	}
	if _, err := c.Lifecycle.Location(); err != nil {
		return fmt.Errorf("invalid lifecycle timezone %q: %w", c.Lifecycle.Timezone, err)
	}
	if _, err := ParseCronSpec(c.Lifecycle.CronSpec); err != nil {
		return fmt.Errorf("invalid lifecycle cron spec %q: %w", c.Lifecycle.CronSpec, err)
	}
	if c.Payment.ChargeSuccessRate < 0 || c.Payment.ChargeSuccessRate > 1 ||
		c.Payment.PayoutSuccessRate < 0 || c.Payment.PayoutSuccessRate > 1 {
		return fmt.Errorf("payment success rates must be within [0, 1]")
	}
	if c.Validation.AcceptRate < 0 || c.Validation.AcceptRate > 1 {
		return fmt.Errorf("validation accept rate must be within [0, 1]")
	}
	return nil
}

// ParseCronSpec разбирает расписание с секундами, как его понимает планировщик
func ParseCronSpec(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(spec)
}
