package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBUrl         string
	RedisURL      string
	RedisPassword string

	JWTSecret       string
	PaystackSecret  string
	PaystackBaseURL string

	// withdrawal policy
	WithdrawalMinAmount     int64 // Naira
	WithdrawalCooldownDays  int
	WithdrawalUnlockOnError bool

	WorkerConcurrency int

	Port           string
	Host           string
	Env            string
	AllowedOrigins []string
}

func LoadConfig() Config {
	godotenv.Load()

	return Config{
		DBUrl:         getEnv("DATABASE_URL"),
		RedisURL:      getEnv("REDIS_URL"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		JWTSecret:       getEnv("JWT_SECRET"),
		PaystackSecret:  getEnv("PAYSTACK_SECRET"),
		PaystackBaseURL: getEnvDefault("PAYSTACK_BASE_URL", "https://api.paystack.co"),

		WithdrawalMinAmount:     getEnvInt("WITHDRAWAL_MIN_AMOUNT", 100),
		WithdrawalCooldownDays:  int(getEnvInt("WITHDRAWAL_COOLDOWN_DAYS", 14)),
		WithdrawalUnlockOnError: getEnvBool("WITHDRAWAL_UNLOCK_ON_ERROR", true),

		WorkerConcurrency: int(getEnvInt("WORKER_CONCURRENCY", 4)),

		Port:           getEnv("PORT"),
		Host:           getEnv("HOST"),
		Env:            getEnv("ENV"),
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS"), ","),
	}
}

func getEnv(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	panic(fmt.Sprintf("%s is required", key))
}

func getEnvDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		panic(fmt.Sprintf("%s must be a valid integer", key))
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		panic(fmt.Sprintf("%s must be true or false", key))
	}
	return parsed
}
