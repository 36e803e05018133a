package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port int
	Host string

	// Storage
	StorageBackend string
	StorageKey     string
	DatabasePath   string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	// Identity
	IdentityURL     string
	IdentityTimeout time.Duration // 0 leaves the request unbounded

	// Rate Limiting
	CommentRateLimit  int // per window
	IdentityRateLimit int // per window
	RateLimitWindow   time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:              getEnvInt("PORT", 8080),
		Host:              getEnv("HOST", "0.0.0.0"),
		StorageBackend:    getEnv("STORAGE_BACKEND", "sqlite"),
		StorageKey:        getEnv("STORAGE_KEY", "comments"),
		DatabasePath:      getEnv("DATABASE_PATH", "commentwall.db"),
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		IdentityURL:       getEnv("IDENTITY_URL", "https://randomuser.me/api/"),
		IdentityTimeout:   getEnvDuration("IDENTITY_TIMEOUT", 0),
		CommentRateLimit:  getEnvInt("COMMENT_RATE_LIMIT", 60),
		IdentityRateLimit: getEnvInt("IDENTITY_RATE_LIMIT", 120),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_WINDOW", time.Hour),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
