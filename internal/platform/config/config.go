package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv  string
	APIPort string

	JWTKey     []byte
	JWTExp     time.Duration
	BcryptCost int

	// DBDriver selects the user store: "postgres" or "memory". The memory
	// store exists for local development and tests only.
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string
	DBConnStr  string
	// DBTimeout bounds every credential-store call.
	DBTimeout time.Duration

	// RateLimitStore selects the governor backend: "memory" or "redis".
	RateLimitStore string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	AllowedOrigins []string
}

func (c *Config) IsProduction() bool { return c.AppEnv == "production" }

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		APIPort:        getEnv("API_PORT", "8080"),
		JWTKey:         []byte(getEnv("JWT_SECRET", "defaultsecret")),
		JWTExp:         time.Duration(getEnvAsInt("JWT_EXPIRATION_DAYS", 7)) * 24 * time.Hour,
		BcryptCost:     getEnvAsInt("BCRYPT_COST", 10),
		DBDriver:       getEnv("DB_DRIVER", "postgres"),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "5432"),
		DBUser:         getEnv("DB_USER", "user"),
		DBPassword:     getEnv("DB_PASSWORD", "password"),
		DBName:         getEnv("DB_NAME", "auth_api_db"),
		DBSslMode:      getEnv("DB_SSLMODE", "disable"),
		DBTimeout:      time.Duration(getEnvAsInt("DB_TIMEOUT_SECONDS", 5)) * time.Second,
		RateLimitStore: getEnv("RATE_LIMIT_STORE", "memory"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvAsInt("REDIS_DB", 0),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	cfg.DBConnStr = "host=" + cfg.DBHost +
		" port=" + cfg.DBPort +
		" user=" + cfg.DBUser +
		" password=" + cfg.DBPassword +
		" dbname=" + cfg.DBName +
		" sslmode=" + cfg.DBSslMode

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
