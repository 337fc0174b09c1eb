package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port       string
	GRPCPort   string
	LogLevel   string
	LogPretty  bool
	RunTimeout time.Duration
	Seed       uint64
	HasSeed    bool
	Origins    []string
}

func getenv(k, d string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func getenvBool(k string, d bool) bool {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return d
}

func loadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		Port:       getenv("PORT", "5000"),
		GRPCPort:   getenv("GRPC_PORT", "5001"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogPretty:  getenvBool("LOG_PRETTY", false),
		RunTimeout: time.Duration(getenvInt("RUN_TIMEOUT_MS", 30000)) * time.Millisecond,
		Origins:    strings.Split(getenv("CORS_ORIGINS", "*"), ","),
	}
	if v := strings.TrimSpace(os.Getenv("NSGA_SEED")); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Seed, cfg.HasSeed = n, true
		}
	}
	return cfg
}
