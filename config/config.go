package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port              int
	DataDir           string
	StorageDir        string
	TempDir           string
	AuthSecret        string
	AdminPasswordHash string
	CheckInterval     time.Duration
	MaxVideoSize      int64
	MaxAudioSize      int64
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("PORT", "8550"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	checkSeconds, err := strconv.Atoi(getEnv("CHECK_INTERVAL_SECONDS", "30"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHECK_INTERVAL_SECONDS: %w", err)
	}

	maxVideoGB, err := strconv.ParseInt(getEnv("MAX_VIDEO_SIZE_GB", "10"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_VIDEO_SIZE_GB: %w", err)
	}

	maxAudioGB, err := strconv.ParseInt(getEnv("MAX_AUDIO_SIZE_GB", "1"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_AUDIO_SIZE_GB: %w", err)
	}

	authSecret := os.Getenv("AUTH_SECRET")
	if authSecret == "" {
		return nil, fmt.Errorf("AUTH_SECRET is required")
	}

	passwordHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if passwordHash == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is required")
	}

	storageDir := getEnv("STORAGE_DIR", "/storage")

	return &Config{
		Port:              port,
		DataDir:           getEnv("DATA_DIR", "/data"),
		StorageDir:        storageDir,
		TempDir:           getEnv("TEMP_DIR", storageDir+"/temp"),
		AuthSecret:        authSecret,
		AdminPasswordHash: passwordHash,
		CheckInterval:     time.Duration(checkSeconds) * time.Second,
		MaxVideoSize:      maxVideoGB << 30,
		MaxAudioSize:      maxAudioGB << 30,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
