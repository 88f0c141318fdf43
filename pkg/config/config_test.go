package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServiceConfigPath != "./edge-controller.conf" {
		t.Fatalf("unexpected service config path %q", cfg.ServiceConfigPath)
	}
	if cfg.RegistryMaxRetries != 5 {
		t.Fatalf("unexpected max retries %d", cfg.RegistryMaxRetries)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Fatalf("unexpected heartbeat interval %s", cfg.HeartbeatInterval)
	}
	if cfg.RampDuration != 3*time.Second {
		t.Fatalf("unexpected ramp duration %s", cfg.RampDuration)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REGISTRY_HOST", "central-api")
	t.Setenv("REGISTRY_PORT", "9000")
	t.Setenv("HEARTBEAT_INTERVAL", "10s")
	t.Setenv("RAMP_DURATION", "500ms")

	cfg := Load()

	if cfg.RegistryHost != "central-api" || cfg.RegistryPort != 9000 {
		t.Fatalf("unexpected registry override %s:%d", cfg.RegistryHost, cfg.RegistryPort)
	}
	if cfg.HeartbeatInterval != 10*time.Second {
		t.Fatalf("unexpected heartbeat interval %s", cfg.HeartbeatInterval)
	}
	if cfg.RampDuration != 500*time.Millisecond {
		t.Fatalf("unexpected ramp duration %s", cfg.RampDuration)
	}
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("REGISTRY_PORT", "not-a-port")
	t.Setenv("HEARTBEAT_INTERVAL", "soon")

	cfg := Load()

	if cfg.RegistryPort != 0 {
		t.Fatalf("expected default port for bad value, got %d", cfg.RegistryPort)
	}
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Fatalf("expected default interval for bad value, got %s", cfg.HeartbeatInterval)
	}
}
