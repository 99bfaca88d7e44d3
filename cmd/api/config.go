package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"orderdesk/pkg/logger"
)

const (
	defaultAddr            = "localhost:8000"
	defaultShutdownTimeout = 10 * time.Second
)

type config struct {
	Addr            string
	LogLevel        logger.Level
	OtelHost        string
	OtelProbability float64
	ShutdownTimeout time.Duration
}

// loadConfig reads an optional .env file and then the process environment.
// Variables already set in the environment win over the file.
func loadConfig() (config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := config{
		Addr:            envOr("API_ADDR", defaultAddr),
		OtelHost:        os.Getenv("OTEL_HOST"),
		OtelProbability: 1.0,
		ShutdownTimeout: defaultShutdownTimeout,
	}

	level, err := logger.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		return config{}, err
	}
	cfg.LogLevel = level

	if v := os.Getenv("OTEL_PROBABILITY"); v != "" {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil || p < 0 || p > 1 {
			return config{}, fmt.Errorf("OTEL_PROBABILITY must be a number in [0,1], got %q", v)
		}
		cfg.OtelProbability = p
	}

	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
