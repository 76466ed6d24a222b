package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr    string
	Port          string
	DatabasePath  string
	DatabaseURL   string
	SessionSecret string
	GinMode       string
	DefaultUserID string
	CORSOrigin    string

	ModelDir          string
	ModelWatch        bool
	ModelRetrainEvery int
	ModelTrainTimeout time.Duration

	LogLevel  string
	LogFormat string
}

const (
	defaultPort         = "8080"
	defaultDatabasePath = "wellness.db"
	defaultModelDir     = "ml_models_saved"
	defaultUserID       = "default_user"
	defaultTrainTimeout = 2 * time.Minute
)

// Load 先尝试加载当前目录的 .env，再从环境变量读取应用配置，并为缺失项提供默认值。
// 已存在的环境变量不会被 .env 覆盖。
func Load() AppConfig {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	return FromEnv()
}

// FromEnv 只读取环境变量。
func FromEnv() AppConfig {
	port := envString("PORT", defaultPort)

	return AppConfig{
		ListenAddr:    envString("LISTEN_ADDR", fmt.Sprintf(":%s", port)),
		Port:          port,
		DatabasePath:  envString("DATABASE_PATH", defaultDatabasePath),
		DatabaseURL:   envString("DATABASE_URL", ""),
		SessionSecret: envString("SESSION_SECRET", "wellnesslog-dev-secret"),
		GinMode:       envString("GIN_MODE", "release"),
		DefaultUserID: envString("DEFAULT_USER_ID", defaultUserID),
		CORSOrigin:    envString("CORS_ALLOW_ORIGIN", "*"),

		ModelDir:          envString("MODEL_DIR", defaultModelDir),
		ModelWatch:        envBool("MODEL_WATCH", false),
		ModelRetrainEvery: envInt("MODEL_RETRAIN_EVERY", 0),
		ModelTrainTimeout: envDuration("MODEL_TRAIN_TIMEOUT", defaultTrainTimeout),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "console"),
	}
}

func envString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envInt(key string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

// envDuration 接受 time.ParseDuration 格式，也接受纯数字秒数。
func envDuration(key string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
