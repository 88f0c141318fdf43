package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the process-level knobs for the edge controller. The values
// that actually drive operation (train assignment, broker address) come from
// the registry at runtime; these only bootstrap the process.
type Config struct {
	// Config file locations
	ServiceConfigPath string
	CachedConfigPath  string

	// Registry client tuning. Host/port override the service config file
	// when set.
	RegistryHost       string
	RegistryPort       int
	RegistryTimeout    time.Duration
	RegistryMaxRetries int
	RegistryRetryDelay time.Duration

	// Heartbeat loop
	HeartbeatInterval time.Duration

	// MQTT
	MQTTClientID string

	// Local control API
	HTTPBind string

	// Speed ramp duration
	RampDuration time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		ServiceConfigPath: getEnv("SERVICE_CONFIG_PATH", "./edge-controller.conf"),
		CachedConfigPath:  getEnv("CACHED_CONFIG_PATH", "./edge-controller.yaml"),

		RegistryHost:       getEnv("REGISTRY_HOST", ""),
		RegistryPort:       getEnvInt("REGISTRY_PORT", 0),
		RegistryTimeout:    getEnvDuration("REGISTRY_TIMEOUT", 5*time.Second),
		RegistryMaxRetries: getEnvInt("REGISTRY_MAX_RETRIES", 5),
		RegistryRetryDelay: getEnvDuration("REGISTRY_RETRY_DELAY", 2*time.Second),

		HeartbeatInterval: getEnvDuration("HEARTBEAT_INTERVAL", 30*time.Second),

		MQTTClientID: getEnv("MQTT_CLIENT_ID", "train-controller"),

		HTTPBind: getEnv("HTTP_BIND", ":8080"),

		RampDuration: getEnvDuration("RAMP_DURATION", 3*time.Second),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as int, using default: %v", key, err)
		return defaultValue
	}
	return intValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Warning: failed to parse %s as duration, using default: %v", key, err)
		return defaultValue
	}
	return d
}
