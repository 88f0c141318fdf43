package provision

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"train-controller/internal/models"
)

// Store handles the two local config artifacts: the static service config
// (edge-controller.conf) and the cached runtime config (edge-controller.yaml).
// It performs file I/O only; all network traffic belongs to the registry client.
type Store struct {
	configPath string
	cachedPath string
}

// NewStore creates a store for the given file paths. Neither file has to
// exist yet; existence is checked on load.
func NewStore(configPath, cachedPath string) *Store {
	return &Store{configPath: configPath, cachedPath: cachedPath}
}

// LoadServiceConfig reads the static service configuration. A missing or
// unparseable file is an error: the controller cannot start without knowing
// where the registry is.
func (s *Store) LoadServiceConfig() (*models.ServiceConfig, error) {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read service config %s: %w", s.configPath, err)
	}

	var cfg models.ServiceConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in service config %s: %w", s.configPath, err)
	}
	if cfg.RegistryHost == "" {
		return nil, fmt.Errorf("service config %s is missing registry_host", s.configPath)
	}

	return &cfg, nil
}

// LoadCachedRuntimeConfig reads the last-known-good runtime config. A missing
// cache is a valid state (first boot) and returns nil; an unreadable or
// corrupt cache is logged and also returns nil rather than failing startup.
func (s *Store) LoadCachedRuntimeConfig() *models.RuntimeConfig {
	data, err := os.ReadFile(s.cachedPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("Store: no cached runtime config at %s", s.cachedPath)
		} else {
			log.Printf("Store: failed to read cached runtime config: %v", err)
		}
		return nil
	}

	var cfg models.RuntimeConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Printf("Store: invalid YAML in cached runtime config: %v", err)
		return nil
	}

	return &cfg
}

// SaveRuntimeConfig persists a runtime config to the cache file, creating
// parent directories as needed. The write goes through a temp file and a
// rename so a crash mid-write never leaves a truncated cache behind.
func (s *Store) SaveRuntimeConfig(cfg *models.RuntimeConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal runtime config: %w", err)
	}

	dir := filepath.Dir(s.cachedPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".runtime-config-*")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write runtime config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp config file: %w", err)
	}
	if err := os.Rename(tmpName, s.cachedPath); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace cached config: %w", err)
	}

	log.Printf("Store: saved runtime config to %s", s.cachedPath)
	return nil
}
