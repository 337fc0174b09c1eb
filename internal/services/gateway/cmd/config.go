package main

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/LeonardoBeccarini/water_allocation/internal/model"
)

type Config struct {
	Port      string
	LogLevel  string
	LogPretty bool
	Origins   []string
	TimeoutMs int

	// Optimizer (optional: empty URL means fallback only)
	OptimizerURL     string
	OptimizerGRPC    string // host:port of the gRPC health endpoint, preferred over HTTP probing
	OptimizerTimeout time.Duration
	ProbeTimeout     time.Duration
	CBFails          int
	CBOpenMs         int
	CBIntervalMs     int

	// MQTT (optional)
	MQTTHost     string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	ClientID     string
	TopicPrefix  string
	DedupTTL     time.Duration

	// Influx (optional)
	InfluxURL    string
	InfluxToken  string
	InfluxOrg    string
	InfluxBucket string
	TelemetryWin time.Duration
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

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func loadConfig() Config {
	_ = godotenv.Load()

	return Config{
		Port:      getenv("PORT", "5009"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogPretty: getenvBool("LOG_PRETTY", false),
		Origins:   strings.Split(getenv("CORS_ORIGINS", "*"), ","),
		TimeoutMs: getenvInt("TIMEOUT_MS", 15000),

		OptimizerURL:     getenv("OPTIMIZER_URL", ""),
		OptimizerGRPC:    getenv("OPTIMIZER_GRPC_ADDR", ""),
		OptimizerTimeout: ms(getenvInt("OPTIMIZER_TIMEOUT_MS", 10000)),
		ProbeTimeout:     ms(getenvInt("PROBE_TIMEOUT_MS", 1000)),
		CBFails:          getenvInt("CB_FAILS", 3),
		CBOpenMs:         getenvInt("CB_OPEN_MS", 15000),
		CBIntervalMs:     getenvInt("CB_INTERVAL_MS", 60000),

		MQTTHost:     getenv("RABBITMQ_HOST", ""),
		MQTTPort:     getenvInt("RABBITMQ_PORT", 1883),
		MQTTUser:     getenv("RABBITMQ_USER", "guest"),
		MQTTPassword: getenv("RABBITMQ_PASSWORD", "guest"),
		ClientID:     getenv("HOSTNAME", "planner-gateway"),
		TopicPrefix:  getenv("DECISION_TOPIC_PREFIX", model.DecisionTopicPrefix),
		DedupTTL:     ms(getenvInt("DEDUP_TTL_MS", 10*60*1000)),

		InfluxURL:    getenv("INFLUX_URL", ""),
		InfluxToken:  getenv("INFLUX_TOKEN", ""),
		InfluxOrg:    getenv("INFLUX_ORG", "sdcc"),
		InfluxBucket: getenv("INFLUX_BUCKET", "agri"),
		TelemetryWin: ms(getenvInt("TELEMETRY_WINDOW_MS", 24*60*60*1000)),
	}
}
