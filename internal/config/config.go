package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Scoring  ScoringConfig
	Quota    QuotaConfig
	Schedule ScheduleConfig
	LLM      LLMConfig
	Scraper  ScraperConfig
	Notify   NotifyConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout        time.Duration
	PoolMaxConns          int32
	PoolMinConns          int32
	PoolMaxConnLifetime   time.Duration
	PoolMaxConnIdleTime   time.Duration
	PoolHealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

type ScoringConfig struct {
	BatchSize      int
	BatchDelay     time.Duration
	HighScoreFloor int
}

type QuotaConfig struct {
	DailyLimit   int
	MonthlyLimit int
}

type ScheduleConfig struct {
	// ReferenceTimezone is the IANA zone all recurring schedules are
	// interpreted in, independent of server locale.
	ReferenceTimezone string
	SweepInterval     time.Duration
}

type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

type ScraperConfig struct {
	BaseURL       string
	InternalToken string
}

type NotifyConfig struct {
	WebhookURL    string
	InternalToken string
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key string) string {
		return strings.TrimSpace(os.Getenv(key))
	}
	optInt := func(key string, def int) int {
		v := opt(key)
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			missing = append(missing, key+" (not an integer)")
			return def
		}
		return n
	}
	optDuration := func(key string, def time.Duration) time.Duration {
		v := opt(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			missing = append(missing, key+" (not a duration)")
			return def
		}
		return d
	}
	optDefault := func(key, def string) string {
		if v := opt(key); v != "" {
			return v
		}
		return def
	}

	cfg.App = AppConfig{
		AppName:     req("APP_NAME"),
		Environment: req("APP_ENV"),
		HTTPPort:    req("HTTP_PORT"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:     opt("DB_HOST"),
		DBPort:     opt("DB_PORT"),
		DBName:     opt("DB_NAME"),
		DBUser:     opt("DB_USER"),
		DBPassword: opt("DB_PASSWORD"),
		DBSSLMode:  opt("DB_SSL_MODE"),

		ConnectTimeout:        optDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
		PoolMaxConns:          int32(optInt("DB_POOL_MAX_CONNS", 0)),
		PoolMinConns:          int32(optInt("DB_POOL_MIN_CONNS", 0)),
		PoolMaxConnLifetime:   optDuration("DB_POOL_MAX_CONN_LIFETIME", 0),
		PoolMaxConnIdleTime:   optDuration("DB_POOL_MAX_CONN_IDLE_TIME", 0),
		PoolHealthCheckPeriod: optDuration("DB_POOL_HEALTH_CHECK_PERIOD", 0),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST"),
		Port:     opt("REDIS_PORT"),
		Password: opt("REDIS_PASSWORD"),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:  req("JWT_ACCESS_SECRET"),
		RefreshSecret: req("JWT_REFRESH_SECRET"),
		AccessExpiry:  optDuration("JWT_ACCESS_EXPIRY", 15*time.Minute),
		RefreshExpiry: optDuration("JWT_REFRESH_EXPIRY", 7*24*time.Hour),
	}

	cfg.Scoring = ScoringConfig{
		BatchSize:      optInt("SCORING_BATCH_SIZE", 5),
		BatchDelay:     optDuration("SCORING_BATCH_DELAY", 2*time.Second),
		HighScoreFloor: optInt("HIGH_SCORE_FLOOR", 7),
	}

	cfg.Quota = QuotaConfig{
		DailyLimit:   optInt("QUOTA_DAILY_LIMIT", 100),
		MonthlyLimit: optInt("QUOTA_MONTHLY_LIMIT", 1000),
	}

	cfg.Schedule = ScheduleConfig{
		ReferenceTimezone: optDefault("REFERENCE_TIMEZONE", "America/New_York"),
		SweepInterval:     optDuration("SCHEDULE_SWEEP_INTERVAL", 5*time.Minute),
	}

	cfg.LLM = LLMConfig{
		BaseURL: req("LLM_BASE_URL"),
		APIKey:  req("LLM_API_KEY"),
		Model:   opt("LLM_MODEL"),
	}

	cfg.Scraper = ScraperConfig{
		BaseURL:       opt("SCRAPER_BASE_URL"),
		InternalToken: opt("INTERNAL_TOKEN"),
	}

	cfg.Notify = NotifyConfig{
		WebhookURL:    opt("NOTIFY_WEBHOOK_URL"),
		InternalToken: opt("INTERNAL_TOKEN"),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}
