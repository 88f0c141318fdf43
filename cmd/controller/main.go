package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"train-controller/internal/api"
	"train-controller/internal/controller"
	"train-controller/internal/models"
	"train-controller/internal/motor"
	"train-controller/internal/mqtt"
	"train-controller/internal/provision"
	"train-controller/internal/registry"
	"train-controller/pkg/config"
)

const version = "1.2.0"

func main() {
	log.Printf("Starting Train Edge Controller v%s...", version)

	// Load process configuration
	cfg := config.Load()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// === Configuration initialization ===
	// Load the service config, talk to the registry (or fall back to the
	// cached config) and come out with an identity plus, if a train has been
	// assigned, a runtime config.
	log.Println("Initializing configuration...")

	store := provision.NewStore(cfg.ServiceConfigPath, cfg.CachedConfigPath)
	manager := provision.NewManager(store, func(host string, port int) provision.RegistryAPI {
		return registry.NewClient(registry.ClientConfig{
			Host:       host,
			Port:       port,
			Timeout:    cfg.RegistryTimeout,
			MaxRetries: cfg.RegistryMaxRetries,
			RetryDelay: cfg.RegistryRetryDelay,
		})
	}, cfg.RegistryHost, cfg.RegistryPort)

	service, runtime, err := manager.Initialize(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	// === Motor and command executor ===
	driver := motor.NewSimDriver()

	executorCfg := controller.Config{RampDuration: cfg.RampDuration}
	if runtime != nil {
		executorCfg.TrainID = runtime.TrainID
	}
	executor := controller.NewExecutor(driver, executorCfg)

	// Start the ramp loop
	go executor.Run(ctx)

	// === Message channel ===
	// Only possible with a runtime config; without a train assignment the
	// controller idles on the local API until restarted with one.
	var channel *mqtt.Channel
	if runtime != nil {
		log.Println("Connecting to MQTT broker...")
		channel = mqtt.NewChannel(mqtt.ChannelConfig{
			BrokerHost:    runtime.Broker.Host,
			BrokerPort:    runtime.Broker.Port,
			Username:      runtime.Broker.Username,
			Password:      runtime.Broker.Password,
			ClientID:      cfg.MQTTClientID + "-" + runtime.TrainID,
			StatusTopic:   runtime.StatusTopic,
			CommandsTopic: runtime.CommandsTopic,
			CentralAPIURL: service.BaseURL(),
			OnCommand:     executor.Execute,
		})
		executor.SetPublisher(channel)

		if err := channel.Start(); err != nil {
			log.Fatalf("Failed to connect to MQTT broker: %v", err)
		}
	} else {
		log.Println("No train assigned yet; MQTT channel disabled, local API only")
	}

	// === Heartbeat loop ===
	go heartbeatLoop(ctx, manager, service, runtime, cfg)

	// === Local control API ===
	apiServer := api.NewServer(executor)
	httpServer := &http.Server{
		Addr:    cfg.HTTPBind,
		Handler: apiServer.Router(),
	}
	go func() {
		log.Printf("Local control API listening on %s", cfg.HTTPBind)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Local control API failed: %v", err)
		}
	}()

	// === Log startup info ===
	log.Println("=== Train Edge Controller is running ===")
	log.Printf("Controller uuid: %s", manager.ControllerUUID())
	if runtime != nil {
		log.Printf("Train:          %s", runtime.TrainID)
		log.Printf("Broker:         %s:%d", runtime.Broker.Host, runtime.Broker.Port)
		log.Printf("Status topic:   %s", runtime.StatusTopic)
		log.Printf("Commands topic: %s", runtime.CommandsTopic)
	}
	log.Println("Press Ctrl+C to exit...")

	// === Wait for interrupt signal ===
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// === Graceful shutdown ===
	log.Println("Shutdown signal received, stopping...")
	cancel()

	if channel != nil {
		channel.Stop()
	}
	if err := driver.Stop(); err != nil {
		log.Printf("Failed to stop motor: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("Local control API shutdown: %v", err)
	}

	log.Println("Shutdown complete. Goodbye!")
}

// heartbeatLoop posts periodic telemetry to the registry. Failures are
// logged by the client and otherwise ignored; the loop never stops trying.
func heartbeatLoop(ctx context.Context, manager *provision.Manager, service *models.ServiceConfig, runtime *models.RuntimeConfig, cfg *config.Config) {
	id := manager.ControllerUUID()
	if id == "" {
		log.Println("Heartbeat: no controller uuid, loop disabled")
		return
	}

	client := registry.NewClient(registry.ClientConfig{
		Host:       service.RegistryHost,
		Port:       service.RegistryPort,
		Timeout:    cfg.RegistryTimeout,
		MaxRetries: cfg.RegistryMaxRetries,
		RetryDelay: cfg.RegistryRetryDelay,
	})

	ticker := time.NewTicker(cfg.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Heartbeat: shutting down...")
			return
		case <-ticker.C:
			hb := registry.BuildHeartbeat(version, runtime)
			client.SendHeartbeat(ctx, id, hb)
		}
	}
}
