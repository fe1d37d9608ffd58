package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

func Load() (*config, error) {
	// a missing .env is fine, real deployments set the variables
	// directly
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &config{
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Telegram: TelegramConfig{
			Token:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			ChatID: EnvtoInt64(os.Getenv("TELEGRAM_CHAT_ID")),
		},
		Runner: RunnerConfig{
			OutDir:      getOutDir(),
			Workers:     EnvtoInt(os.Getenv("SWEEP_WORKERS")),
			MetricsAddr: os.Getenv("METRICS_ADDR"),
		},
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

// helper env(string) to int64, telegram chat ids overflow int32
func EnvtoInt64(s string) int64 {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return i
}

// helper to get the artifacts root
func getOutDir() string {
	dir := os.Getenv("OUT_DIR")
	if dir == "" {
		return "runs" // Default run root if none specified
	}
	return dir
}
