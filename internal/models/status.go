package models

import "time"

// Position values reported in status updates.
const (
	PositionUnknown = "unknown"
	PositionStarted = "started"
	PositionStopped = "stopped"
)

// StatusSnapshot is the last known state of the train, published to the
// status topic after every command and on each ramp step. The command
// executor is its only writer; the message channel just transports it.
type StatusSnapshot struct {
	TrainID   string    `json:"train_id"`
	Speed     int       `json:"speed"`
	Direction Direction `json:"direction"`
	Voltage   float64   `json:"voltage"`
	Current   float64   `json:"current"`
	Position  string    `json:"position"`
	Timestamp time.Time `json:"timestamp"`
}

// Heartbeat is the periodic telemetry payload sent to the registry.
// All fields are optional; only populated fields go over the wire.
type Heartbeat struct {
	ConfigHash     string `json:"config_hash,omitempty"`
	Version        string `json:"version,omitempty"`
	Platform       string `json:"platform,omitempty"`
	RuntimeVersion string `json:"runtime_version,omitempty"`
	MemoryMB       int    `json:"memory_mb,omitempty"`
	CPUCount       int    `json:"cpu_count,omitempty"`
}
