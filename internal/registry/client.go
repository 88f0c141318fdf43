package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"time"

	"train-controller/internal/models"
)

// ErrRegistrationFailed marks a failed registration attempt. Without a uuid
// nothing else can proceed, so callers treat this as terminal.
var ErrRegistrationFailed = errors.New("registration failed")

// ClientConfig holds registry client configuration.
type ClientConfig struct {
	Host       string
	Port       int
	Timeout    time.Duration // per-call timeout, defaults to 5s
	MaxRetries int           // probe attempts, defaults to 5
	RetryDelay time.Duration // fixed delay between probe attempts, defaults to 2s
}

// Client is a stateless HTTP client for the central registry. It handles
// health probes, registration, runtime config download and heartbeats; the
// config state machine on top of it lives in the provision package.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries int
	retryDelay time.Duration
}

// registrationResponse is the body returned by POST /api/controllers/register.
type registrationResponse struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// NewClient creates a registry client. The constructor performs no network
// operations; call Probe to verify the registry is reachable.
func NewClient(cfg ClientConfig) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	return &Client{
		baseURL:    fmt.Sprintf("http://%s:%d", cfg.Host, cfg.Port),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}
}

// Probe checks whether the registry answers its ping endpoint, retrying up
// to MaxRetries times with a fixed delay between attempts. It never returns
// an error; all transport failures are logged and collapse to false.
func (c *Client) Probe(ctx context.Context) bool {
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		ok, err := c.ping(ctx, c.baseURL+"/api/ping")
		if ok {
			log.Printf("Registry: accessible at %s", c.baseURL)
			return true
		}
		if err != nil {
			log.Printf("Registry: not accessible (attempt %d/%d): %v", attempt, c.maxRetries, err)
		}

		if attempt < c.maxRetries {
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				return false
			}
		}
	}
	return false
}

// ControllerExists checks whether the registry still recognizes a controller
// uuid. Single attempt; every failure mode collapses to false.
func (c *Client) ControllerExists(ctx context.Context, id string) bool {
	ok, err := c.ping(ctx, fmt.Sprintf("%s/api/controllers/%s/ping", c.baseURL, id))
	if err != nil {
		log.Printf("Registry: controller existence check failed: %v", err)
	}
	return ok
}

func (c *Client) ping(ctx context.Context, url string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}

// Register registers this controller with the registry, sending the local
// hostname and a resolvable IP address, and returns the assigned uuid.
func (c *Client) Register(ctx context.Context) (string, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	address := resolveAddress(hostname)

	payload, err := json.Marshal(map[string]string{"name": hostname, "address": address})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/controllers/register", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: registry returned status %d", ErrRegistrationFailed, resp.StatusCode)
	}

	var reg registrationResponse
	if err := json.NewDecoder(resp.Body).Decode(&reg); err != nil {
		return "", fmt.Errorf("%w: invalid response body: %v", ErrRegistrationFailed, err)
	}
	if reg.UUID == "" {
		return "", fmt.Errorf("%w: response missing uuid", ErrRegistrationFailed)
	}

	log.Printf("Registry: registered controller name=%s address=%s uuid=%s status=%s",
		hostname, address, reg.UUID, reg.Status)
	return reg.UUID, nil
}

// DownloadRuntimeConfig fetches the runtime config for a controller. A 404
// is a valid "registered but not assigned yet" result and returns (nil, nil);
// any other non-2xx status or a malformed body is a soft failure.
func (c *Client) DownloadRuntimeConfig(ctx context.Context, id string) (*models.RuntimeConfig, error) {
	url := fmt.Sprintf("%s/api/controllers/%s/config", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("config download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		log.Printf("Registry: no runtime config available for uuid %s", id)
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("config download failed: registry returned status %d", resp.StatusCode)
	}

	var cfg models.RuntimeConfig
	if err := json.NewDecoder(resp.Body).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config download failed: invalid response body: %w", err)
	}

	// The config endpoint does not echo the uuid; keep it with the config so
	// the cached copy carries the controller identity.
	cfg.UUID = id

	log.Printf("Registry: downloaded runtime config for uuid %s (train %s)", id, cfg.TrainID)
	return &cfg, nil
}

// SendHeartbeat posts periodic telemetry for a controller. Fire-and-forget:
// every failure mode returns false and is swallowed.
func (c *Client) SendHeartbeat(ctx context.Context, id string, hb models.Heartbeat) bool {
	payload, err := json.Marshal(hb)
	if err != nil {
		log.Printf("Registry: failed to marshal heartbeat: %v", err)
		return false
	}

	url := fmt.Sprintf("%s/api/controllers/%s/heartbeat", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("Registry: heartbeat failed: %v", err)
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Registry: heartbeat rejected with status %d", resp.StatusCode)
		return false
	}
	return true
}

// resolveAddress returns an IPv4 address for the local hostname, or "unknown"
// when resolution fails (matches what the registry expects for unresolvable
// hosts).
func resolveAddress(hostname string) string {
	addrs, err := net.LookupIP(hostname)
	if err != nil {
		return "unknown"
	}
	for _, addr := range addrs {
		if v4 := addr.To4(); v4 != nil && !v4.IsLoopback() {
			return v4.String()
		}
	}
	for _, addr := range addrs {
		if v4 := addr.To4(); v4 != nil {
			return v4.String()
		}
	}
	return "unknown"
}
