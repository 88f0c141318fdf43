package models

import (
	"testing"
)

func TestParseCommandStart(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"start","speed":70,"direction":"forward"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Action != ActionStart {
		t.Fatalf("expected start, got %q", cmd.Action)
	}
	if cmd.Speed == nil || *cmd.Speed != 70 {
		t.Fatalf("expected speed 70, got %v", cmd.Speed)
	}
	if cmd.Direction == nil || *cmd.Direction != DirectionForward {
		t.Fatalf("expected forward, got %v", cmd.Direction)
	}
}

func TestParseCommandBareSpeedIsSetSpeed(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"speed":30}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Action != ActionSetSpeed {
		t.Fatalf("expected bare speed to normalize to setSpeed, got %q", cmd.Action)
	}
	if cmd.Speed == nil || *cmd.Speed != 30 {
		t.Fatalf("expected speed 30, got %v", cmd.Speed)
	}
}

func TestParseCommandDirectionEncodings(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Direction
	}{
		{"string forward", `{"action":"setDirection","direction":"forward"}`, DirectionForward},
		{"string backward", `{"action":"setDirection","direction":"backward"}`, DirectionReverse},
		{"string reverse", `{"action":"setDirection","direction":"reverse"}`, DirectionReverse},
		{"numeric one", `{"action":"setDirection","direction":1}`, DirectionForward},
		{"numeric zero", `{"action":"setDirection","direction":0}`, DirectionReverse},
		{"string one", `{"action":"setDirection","direction":"1"}`, DirectionForward},
		{"string zero", `{"action":"setDirection","direction":"0"}`, DirectionReverse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand([]byte(tt.payload))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Direction == nil || *cmd.Direction != tt.want {
				t.Fatalf("expected direction %q, got %v", tt.want, cmd.Direction)
			}
		})
	}
}

func TestParseCommandRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"malformed json", `{"action":"start"`},
		{"json array", `[1,2,3]`},
		{"bare string", `"start"`},
		{"unknown direction string", `{"action":"setDirection","direction":"up"}`},
		{"unknown direction number", `{"action":"setDirection","direction":5}`},
		{"direction wrong type", `{"action":"setDirection","direction":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseCommand([]byte(tt.payload)); err == nil {
				t.Fatalf("expected error for %s", tt.payload)
			}
		})
	}
}

func TestParseCommandKeepsUnknownAction(t *testing.T) {
	cmd, err := ParseCommand([]byte(`{"action":"selfDestruct"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Action != Action("selfDestruct") {
		t.Fatalf("expected unknown action preserved, got %q", cmd.Action)
	}
}

func TestClampSpeed(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-10, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		if got := ClampSpeed(tt.in); got != tt.want {
			t.Errorf("ClampSpeed(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
