package registry

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"runtime"

	"train-controller/internal/models"
)

// BuildHeartbeat gathers the telemetry fields for a heartbeat: software
// version, platform, CPU count and a hash of the active runtime config so
// the registry can detect controllers running a stale assignment.
func BuildHeartbeat(version string, cfg *models.RuntimeConfig) models.Heartbeat {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	hb := models.Heartbeat{
		Version:        version,
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
		RuntimeVersion: runtime.Version(),
		CPUCount:       runtime.NumCPU(),
		MemoryMB:       int(mem.Sys / (1 << 20)),
	}
	if cfg != nil {
		hb.ConfigHash = configHash(cfg)
	}
	return hb
}

func configHash(cfg *models.RuntimeConfig) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
