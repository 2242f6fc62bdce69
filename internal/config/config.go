package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath    string
	OutputDir string

	BackendURL          string
	BackendTimeoutMs    int
	BackendRateLimitRPS int
	BackendMaxAttempts  int

	ImageIndexPath       string
	ImageIndexURL        string
	ImageBaseURL         string
	UseBackendImageIndex bool
	MetadataPath         string
	BanksPath            string

	ValveSchemes []string

	RefreshIntervalSec int
	LogLevel           string
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:    getEnv("DB_PATH", filepath.Join(cwd, "data", "valves.db")),
		OutputDir: getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),

		BackendURL:          getEnv("VALVE_BACKEND_URL", "http://localhost:8000"),
		BackendTimeoutMs:    getEnvInt("VALVE_BACKEND_TIMEOUT_MS", 10000),
		BackendRateLimitRPS: getEnvInt("VALVE_BACKEND_RATE_LIMIT_RPS", 10),
		BackendMaxAttempts:  getEnvInt("VALVE_BACKEND_MAX_ATTEMPTS", 3),

		ImageIndexPath:       getEnv("IMAGE_INDEX_PATH", filepath.Join(cwd, "web", "STATIC", "IMG", "card-photos", "index.json")),
		ImageIndexURL:        getEnv("IMAGE_INDEX_URL", ""),
		ImageBaseURL:         getEnv("IMAGE_BASE_URL", "STATIC/IMG/card-photos/"),
		UseBackendImageIndex: getEnvBool("USE_BACKEND_IMAGE_INDEX", false),
		MetadataPath:         getEnv("METADATA_PATH", filepath.Join(cwd, "web", "valvulas.json")),
		BanksPath:            getEnv("BANKS_PATH", filepath.Join(cwd, "web", "STATIC", "IMG", "card-photos", "banks.json")),

		ValveSchemes: getEnvList("VALVE_SCHEMES", []string{"valve"}),

		RefreshIntervalSec: getEnvInt("REFRESH_INTERVAL_SEC", 60),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value := strings.TrimSpace(getEnv(key, ""))
	if value == "" {
		return fallback
	}
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
