package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "GemWallet"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 24 * time.Hour
	defaultRetryBaseDelay  = 300 * time.Millisecond
	defaultMaxAttempts     = 3
	defaultLoginPerMinute  = 5
	defaultTransferTopic   = "wallet.transfers"
	devJWTSecret           = "dev-secret"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	retryBaseDelayEnvVar   = "TRANSFER_RETRY_BASE_DELAY"
	maxAttemptsEnvVar      = "TRANSFER_MAX_ATTEMPTS"
	retryJitterEnvVar      = "TRANSFER_RETRY_JITTER"
	accessTokenTTLEnvVar   = "ACCESS_TOKEN_TTL"
	refreshTokenTTLEnvVar  = "REFRESH_TOKEN_TTL"
	loginPerMinuteEnvVar   = "LOGIN_ATTEMPTS_PER_MINUTE"
)

// Transfer holds the lock-contention retry settings of the transfer protocol.
type Transfer struct {
	RetryBaseDelay time.Duration
	MaxAttempts    int
	RetryJitter    bool
}

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName                string
	AppEnv                 string
	Port                   string
	LogLevel               string
	DatabaseURL            string
	RedisURL               string
	ShutdownPeriod         time.Duration
	IdempotencyTTL         time.Duration
	JWTSecret              string
	AccessTokenTTL         time.Duration
	RefreshTokenTTL        time.Duration
	LoginAttemptsPerMinute int
	KafkaBrokers           []string
	KafkaTransferTopic     string
	Transfer               Transfer
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:            getEnv("APP_NAME", defaultAppName),
		AppEnv:             strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:               getEnv("PORT", defaultPort),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		RedisURL:           os.Getenv("REDIS_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		KafkaBrokers:       splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTransferTopic: getEnv("KAFKA_TRANSFER_TOPIC", defaultTransferTopic),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationFromEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationFromEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = durationFromEnv("", accessTokenTTLEnvVar, defaultAccessTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationFromEnv("", refreshTokenTTLEnvVar, defaultRefreshTokenTTL); err != nil {
		return Config{}, err
	}
	if cfg.Transfer.RetryBaseDelay, err = durationFromEnv("", retryBaseDelayEnvVar, defaultRetryBaseDelay); err != nil {
		return Config{}, err
	}
	if cfg.Transfer.MaxAttempts, err = intFromEnv(maxAttemptsEnvVar, defaultMaxAttempts); err != nil {
		return Config{}, err
	}
	if cfg.Transfer.MaxAttempts < 1 {
		return Config{}, fmt.Errorf("%s must be at least 1", maxAttemptsEnvVar)
	}
	if cfg.LoginAttemptsPerMinute, err = intFromEnv(loginPerMinuteEnvVar, defaultLoginPerMinute); err != nil {
		return Config{}, err
	}
	if v := os.Getenv(retryJitterEnvVar); v != "" {
		jitter, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", retryJitterEnvVar, err)
		}
		cfg.Transfer.RetryJitter = jitter
	}

	if cfg.IsDevelopment() {
		if cfg.JWTSecret == "" {
			cfg.JWTSecret = devJWTSecret
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}

	return cfg, nil
}

// IsDevelopment reports whether the service may run without Postgres and Redis.
func (c Config) IsDevelopment() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationFromEnv prefers a whole-seconds variable, then a Go duration string.
func durationFromEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
