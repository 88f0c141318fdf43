package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"train-controller/internal/controller"
	"train-controller/internal/models"
	"train-controller/internal/motor"
)

func newTestServer(t *testing.T) (*httptest.Server, *motor.SimDriver) {
	t.Helper()
	driver := motor.NewSimDriver()
	exec := controller.NewExecutor(driver, controller.Config{TrainID: "train-1"})
	server := httptest.NewServer(NewServer(exec).Router())
	t.Cleanup(server.Close)
	return server, driver
}

func TestCommandStart(t *testing.T) {
	server, driver := newTestServer(t)

	resp, err := http.Post(server.URL+"/command", "application/json",
		strings.NewReader(`{"action":"start","speed":70}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["status"] != "train started" {
		t.Fatalf("unexpected status message %q", body["status"])
	}
	if driver.Speed() != 70 {
		t.Fatalf("expected motor at 70, got %d", driver.Speed())
	}
}

func TestCommandRejectsBadJSON(t *testing.T) {
	server, driver := newTestServer(t)

	resp, err := http.Post(server.URL+"/command", "application/json",
		strings.NewReader(`{"action":"start"`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if driver.Speed() != 0 {
		t.Fatalf("bad command must not touch the motor, speed=%d", driver.Speed())
	}
}

func TestCommandRejectsBadDirection(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/command", "application/json",
		strings.NewReader(`{"action":"setDirection","direction":"sideways"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	server, driver := newTestServer(t)

	if err := driver.Start(60, models.DirectionReverse); err != nil {
		t.Fatalf("start driver: %v", err)
	}

	resp, err := http.Get(server.URL + "/status")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var snap models.StatusSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.TrainID != "train-1" || snap.Speed != 60 || snap.Direction != models.DirectionReverse {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/status", "application/json", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
