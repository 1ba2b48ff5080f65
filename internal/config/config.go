package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"wordreminder/internal/logger"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port                string
	AllowedOrigins      string
	DisableRegistration bool

	DBPath          string
	DBEncryptionKey string
	RunMigrations   bool

	EnableWorkers     bool
	SchedulerInterval time.Duration
	DispatchWorkers   int

	Auth     AuthConfig
	Push     PushConfig
	RedisURL string
	AMQPURL  string

	LogLevel  string
	LogFormat string
	LogFile   string
}

type AuthConfig struct {
	JWTSecret           string
	RefreshSecret       string
	CookieSecure        bool
	AccessTokenMinutes  int
	RefreshTokenDays    int
	RememberRefreshDays int
}

type PushConfig struct {
	VAPIDPublicKey          string
	VAPIDPrivateKey         string
	VAPIDSubject            string
	FirebaseCredentialsFile string
}

// WebPushConfigured reports whether all VAPID settings are present.
func (p PushConfig) WebPushConfigured() bool {
	return p.VAPIDPublicKey != "" && p.VAPIDPrivateKey != "" && p.VAPIDSubject != ""
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file found")
	}

	secret := getEnv("JWT_SECRET", "")
	refresh := getEnv("JWT_REFRESH_SECRET", "")
	if refresh == "" && secret != "" {
		refresh = secret + "-refresh"
	}

	return &Config{
		Port:                getEnv("PORT", "3000"),
		AllowedOrigins:      normalizeOrigins(getEnv("ALLOWED_ORIGINS", "")),
		DisableRegistration: getEnvAsBool("DISABLE_REGISTRATION", false),

		DBPath:          getEnv("DB_PATH", "./data/wordreminder.db"),
		DBEncryptionKey: getEnv("DB_ENCRYPTION_KEY", ""),
		RunMigrations:   getEnvAsBool("RUN_MIGRATIONS", false),

		EnableWorkers:     getEnvAsBool("ENABLE_WORKERS", true),
		SchedulerInterval: getEnvAsDuration("SCHEDULER_INTERVAL", time.Minute),
		DispatchWorkers:   getEnvAsInt("DISPATCH_WORKERS", 4),

		Auth: AuthConfig{
			JWTSecret:           secret,
			RefreshSecret:       refresh,
			CookieSecure:        getEnvAsBool("COOKIE_SECURE", true),
			AccessTokenMinutes:  getEnvAsInt("ACCESS_TOKEN_MINUTES", 15),
			RefreshTokenDays:    getEnvAsInt("REFRESH_TOKEN_DAYS", 7),
			RememberRefreshDays: getEnvAsInt("REMEMBER_REFRESH_DAYS", 30),
		},
		Push: PushConfig{
			VAPIDPublicKey:          getEnv("VAPID_PUBLIC_KEY", ""),
			VAPIDPrivateKey:         getEnv("VAPID_PRIVATE_KEY", ""),
			VAPIDSubject:            getEnv("VAPID_SUBJECT", ""),
			FirebaseCredentialsFile: getEnv("FIREBASE_CREDENTIALS_FILE", ""),
		},
		RedisURL: getEnv("REDIS_URL", ""),
		AMQPURL:  getEnv("RABBITMQ_URL", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogFile:   getEnv("LOG_FILE", ""),
	}, nil
}

// normalizeOrigins trims whitespace around comma-separated entries and falls
// back to the local dev origins.
func normalizeOrigins(raw string) string {
	origins := strings.TrimSpace(raw)
	if origins == "" {
		return "http://localhost:80,http://localhost:5173"
	}
	if origins == "*" {
		return origins
	}
	parts := strings.Split(origins, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil && n > 0 {
			return n
		}
		logger.Warn("invalid integer in environment; using default", "key", key, "default", defaultValue)
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
		logger.Warn("invalid boolean in environment; using default", "key", key, "default", defaultValue)
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		logger.Warn("invalid duration in environment; using default", "key", key, "default", defaultValue)
	}
	return defaultValue
}
