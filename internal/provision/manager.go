package provision

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"train-controller/internal/models"
)

// ErrConfiguration marks failures that make startup impossible: missing
// service config, unreachable registry with no cache, failed registration.
var ErrConfiguration = errors.New("configuration error")

// RegistryAPI is the slice of the registry client the manager depends on.
type RegistryAPI interface {
	Probe(ctx context.Context) bool
	ControllerExists(ctx context.Context, id string) bool
	Register(ctx context.Context) (string, error)
	DownloadRuntimeConfig(ctx context.Context, id string) (*models.RuntimeConfig, error)
}

// RegistryFactory builds a registry client once the service config (and with
// it the registry address) is known.
type RegistryFactory func(host string, port int) RegistryAPI

// Manager orchestrates configuration initialization: loading the service
// config, probing the registry and either refreshing an existing controller
// identity or registering a new one, with the disk cache as offline fallback.
//
// State machine:
//
//	START -> SERVICE_LOADED -> {OFFLINE_FALLBACK | ONLINE}
//	ONLINE -> {REFRESH_EXISTING | REGISTER_NEW} -> READY | FAILED
type Manager struct {
	store       *Store
	newRegistry RegistryFactory

	// Optional env overrides for the registry address.
	registryHost string
	registryPort int

	controllerUUID string
}

// NewManager creates a configuration manager. registryHost/registryPort,
// when non-empty, override the values loaded from the service config file.
func NewManager(store *Store, factory RegistryFactory, registryHost string, registryPort int) *Manager {
	return &Manager{
		store:        store,
		newRegistry:  factory,
		registryHost: registryHost,
		registryPort: registryPort,
	}
}

// ControllerUUID returns the identity established during Initialize. It is
// set even when the controller is still waiting for a train assignment.
func (m *Manager) ControllerUUID() string {
	return m.controllerUUID
}

// Initialize loads both configs, meant to run exactly once per process start.
// The returned runtime config is nil when the controller is registered but
// not yet assigned a train; that is a valid degraded state, not an error.
func (m *Manager) Initialize(ctx context.Context) (*models.ServiceConfig, *models.RuntimeConfig, error) {
	service, err := m.store.LoadServiceConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if m.registryHost != "" {
		service.RegistryHost = m.registryHost
	}
	if m.registryPort != 0 {
		service.RegistryPort = m.registryPort
	}

	registry := m.newRegistry(service.RegistryHost, service.RegistryPort)

	if !registry.Probe(ctx) {
		log.Printf("Manager: registry not accessible, attempting cached config fallback")
		return m.offlineFallback(service)
	}

	cached := m.store.LoadCachedRuntimeConfig()
	if cached != nil && validUUID(cached.UUID) {
		return m.refreshExisting(ctx, registry, service, cached)
	}

	return m.registerNew(ctx, registry, service)
}

// offlineFallback serves the cached runtime config when the registry is
// unreachable. With no cache there is no identity to run with, which is fatal.
func (m *Manager) offlineFallback(service *models.ServiceConfig) (*models.ServiceConfig, *models.RuntimeConfig, error) {
	cached := m.store.LoadCachedRuntimeConfig()
	if cached == nil {
		return nil, nil, fmt.Errorf("%w: registry not accessible and no cached runtime config exists", ErrConfiguration)
	}

	log.Printf("Manager: registry unavailable, using cached runtime config (may be stale)")
	m.controllerUUID = cached.UUID
	cached.ApplyTopicDefaults()
	return service, cached, nil
}

// refreshExisting refreshes the config of a previously registered controller.
// A UUID the registry no longer recognizes (e.g. after a registry reset) is
// treated as a brand-new controller instead of an error.
func (m *Manager) refreshExisting(ctx context.Context, registry RegistryAPI, service *models.ServiceConfig, cached *models.RuntimeConfig) (*models.ServiceConfig, *models.RuntimeConfig, error) {
	log.Printf("Manager: found cached config with uuid %s", cached.UUID)

	if !registry.ControllerExists(ctx, cached.UUID) {
		log.Printf("Manager: uuid %s not recognized by registry, re-registering as new controller", cached.UUID)
		return m.registerNew(ctx, registry, service)
	}
	m.controllerUUID = cached.UUID

	fresh, err := registry.DownloadRuntimeConfig(ctx, cached.UUID)
	if err != nil {
		log.Printf("Manager: runtime config download failed: %v", err)
	}
	if fresh != nil {
		fresh.ApplyTopicDefaults()
		if err := m.store.SaveRuntimeConfig(fresh); err != nil {
			// Failed persist is not fatal; the fresh config still drives this run.
			log.Printf("Manager: failed to save fresh runtime config: %v", err)
		}
		log.Printf("Manager: runtime config updated from registry")
		return service, fresh, nil
	}

	// Download failed or train not assigned yet. The disk cache is the
	// authoritative fallback, but only when it is complete enough to run on.
	if cached.Complete() {
		log.Printf("Manager: using cached runtime config (download failed)")
		cached.ApplyTopicDefaults()
		return service, cached, nil
	}

	log.Printf("Manager: cached config incomplete, running without train assignment")
	return service, nil, nil
}

// registerNew registers this controller with the registry and downloads its
// runtime config if a train has already been assigned.
func (m *Manager) registerNew(ctx context.Context, registry RegistryAPI, service *models.ServiceConfig) (*models.ServiceConfig, *models.RuntimeConfig, error) {
	log.Printf("Manager: no usable cached uuid, registering with registry")

	id, err := registry.Register(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	m.controllerUUID = id
	log.Printf("Manager: registered with uuid %s", id)

	fresh, err := registry.DownloadRuntimeConfig(ctx, id)
	if err != nil {
		log.Printf("Manager: runtime config download failed: %v", err)
	}
	if fresh != nil {
		fresh.ApplyTopicDefaults()
		if err := m.store.SaveRuntimeConfig(fresh); err != nil {
			log.Printf("Manager: failed to save runtime config: %v", err)
		}
		log.Printf("Manager: downloaded runtime config after registration")
		return service, fresh, nil
	}

	log.Printf("Manager: registered but no runtime config available yet, waiting for train assignment")
	return service, nil, nil
}

func validUUID(id string) bool {
	return id != "" && uuid.Validate(id) == nil
}
