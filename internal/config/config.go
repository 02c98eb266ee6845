package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable the server reads at startup. Values come from
// the environment, with a .env file loaded first when present.
type Config struct {
	Port      string
	JWTSecret string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Rating engine parameters.
	Beta          float64
	QuestionSigma float64
	SigmaFloor    float64

	// Topic accuracy aggregation.
	AttemptWindowSize int
	AccuracyWeight    float64
	SnapshotInterval  time.Duration

	// AI feedback.
	MockFeedback   bool
	AnthropicModel string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("WARN: could not load .env: %v", err)
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		JWTSecret: getEnv("JWT_SECRET", "dev-secret-change-me"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "quizpeak"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		Beta:          getFloat("BETA", 200),
		QuestionSigma: getFloat("QUESTION_SIGMA", 300),
		SigmaFloor:    getFloat("SIGMA_FLOOR", 25),

		AttemptWindowSize: getInt("ATTEMPT_WINDOW_SIZE", 10),
		AccuracyWeight:    getFloat("ACCURACY_WEIGHT", 1.2),
		SnapshotInterval:  getDuration("SNAPSHOT_INTERVAL", 10*time.Second),

		MockFeedback:   getEnv("MOCK_FEEDBACK", "false") == "true",
		AnthropicModel: getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("WARN: invalid %s=%q, using %v", key, v, fallback)
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("WARN: invalid %s=%q, using %v", key, v, fallback)
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("WARN: invalid %s=%q, using %v", key, v, fallback)
	}
	return fallback
}
