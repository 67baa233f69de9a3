package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type AuthConfig struct {
	JWTSecret   string
	TokenExpiry time.Duration
}

// ThrottleTier configures one throttle guard instance. FreeRetries failures
// are allowed before lockouts start; waits double per extra failure from
// MinWait up to MaxWait; records age out after Lifetime.
type ThrottleTier struct {
	FreeRetries int
	MinWait     time.Duration
	MaxWait     time.Duration
	Lifetime    time.Duration
}

type ThrottleConfig struct {
	Login           ThrottleTier
	Register        ThrottleTier
	RedisURL        string // empty means single-instance in-memory ledger
	FailOpen        bool   // ledger store errors on check pass the request through
	OpTimeout       time.Duration
	CleanupInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "bankgate"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
		},
		Auth: AuthConfig{
			JWTSecret:   jwtSecret,
			TokenExpiry: getEnvAsDuration("TOKEN_EXPIRY", 2*time.Hour),
		},
		Throttle: ThrottleConfig{
			Login: ThrottleTier{
				FreeRetries: getEnvAsInt("LOGIN_FREE_RETRIES", 5),
				MinWait:     getEnvAsDuration("LOGIN_MIN_WAIT", 5*time.Minute),
				MaxWait:     getEnvAsDuration("LOGIN_MAX_WAIT", 1*time.Hour),
				Lifetime:    getEnvAsDuration("LOGIN_ATTEMPT_LIFETIME", 24*time.Hour),
			},
			Register: ThrottleTier{
				FreeRetries: getEnvAsInt("REGISTER_FREE_RETRIES", 3),
				MinWait:     getEnvAsDuration("REGISTER_MIN_WAIT", 10*time.Minute),
				MaxWait:     getEnvAsDuration("REGISTER_MAX_WAIT", 24*time.Hour),
				Lifetime:    getEnvAsDuration("REGISTER_ATTEMPT_LIFETIME", 7*24*time.Hour),
			},
			RedisURL:        getEnv("REDIS_URL", ""),
			FailOpen:        getEnvAsBool("THROTTLE_FAIL_OPEN", false),
			OpTimeout:       getEnvAsDuration("LEDGER_OP_TIMEOUT", 2*time.Second),
			CleanupInterval: getEnvAsDuration("LEDGER_CLEANUP_INTERVAL", 15*time.Minute),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if err := validateThrottleTier("login", cfg.Throttle.Login); err != nil {
		return nil, err
	}
	if err := validateThrottleTier("register", cfg.Throttle.Register); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for the signing secret
func validateJWTSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // 256 bits
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example", "devsecret",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func validateThrottleTier(name string, tier ThrottleTier) error {
	if tier.FreeRetries < 0 {
		return fmt.Errorf("%s throttle: free retries cannot be negative", name)
	}
	if tier.MinWait <= 0 || tier.MaxWait < tier.MinWait {
		return fmt.Errorf("%s throttle: wait bounds invalid (min=%s max=%s)", name, tier.MinWait, tier.MaxWait)
	}
	if tier.Lifetime < tier.MaxWait {
		return fmt.Errorf("%s throttle: attempt lifetime %s shorter than max wait %s", name, tier.Lifetime, tier.MaxWait)
	}
	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		originsStr := getEnv("ALLOWED_ORIGINS", "")
		if originsStr == "" {
			return []string{} // Default to no origins in production
		}
		origins := strings.Split(originsStr, ",")
		for i, origin := range origins {
			origins[i] = strings.TrimSpace(origin)
		}
		return origins
	}

	// Development: allow localhost variants
	return []string{
		"http://localhost:3000",
		"http://localhost:5173", // Vite default
		"http://localhost:8080",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:8080",
	}
}
