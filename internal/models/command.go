package models

import (
	"encoding/json"
	"fmt"
)

// Direction of motor rotation.
type Direction string

const (
	DirectionForward Direction = "forward"
	DirectionReverse Direction = "reverse"
)

// Action identifies what a command asks the controller to do.
type Action string

const (
	ActionStart        Action = "start"
	ActionStop         Action = "stop"
	ActionSetSpeed     Action = "setSpeed"
	ActionSetDirection Action = "setDirection"
)

// Command is a validated train control command. A bare {"speed": N} payload
// is normalized to a setSpeed command; unrecognized actions are preserved so
// the executor can log them.
type Command struct {
	Action    Action
	Speed     *int
	Direction *Direction
}

// rawCommand mirrors the wire format. Direction is left untyped because
// senders use both strings ("forward"/"backward") and legacy 1/0 numbers.
type rawCommand struct {
	Action    string      `json:"action"`
	Speed     *int        `json:"speed"`
	Direction interface{} `json:"direction"`
}

// ParseCommand decodes and normalizes a command payload. It returns an error
// for malformed JSON, non-object payloads and unusable direction values;
// unknown actions parse successfully and are routed to a warning downstream.
func ParseCommand(payload []byte) (Command, error) {
	var raw rawCommand
	if err := json.Unmarshal(payload, &raw); err != nil {
		return Command{}, fmt.Errorf("invalid command payload: %w", err)
	}

	cmd := Command{Action: Action(raw.Action), Speed: raw.Speed}

	if raw.Direction != nil {
		dir, err := parseDirection(raw.Direction)
		if err != nil {
			return Command{}, err
		}
		cmd.Direction = &dir
	}

	// Speed-only payloads are a documented shorthand for setSpeed.
	if cmd.Action == "" && cmd.Speed != nil {
		cmd.Action = ActionSetSpeed
	}

	return cmd, nil
}

// parseDirection accepts "forward", "backward", "reverse" and the legacy
// numeric encoding (1=forward, 0=reverse).
func parseDirection(v interface{}) (Direction, error) {
	switch d := v.(type) {
	case string:
		switch d {
		case "forward", "1":
			return DirectionForward, nil
		case "backward", "reverse", "0":
			return DirectionReverse, nil
		}
		return "", fmt.Errorf("invalid direction %q", d)
	case float64:
		if d == 1 {
			return DirectionForward, nil
		}
		if d == 0 {
			return DirectionReverse, nil
		}
		return "", fmt.Errorf("invalid direction %v", d)
	default:
		return "", fmt.Errorf("invalid direction type %T", v)
	}
}

// ClampSpeed bounds a requested speed to the 0-100 range the hardware accepts.
func ClampSpeed(speed int) int {
	if speed < 0 {
		return 0
	}
	if speed > 100 {
		return 100
	}
	return speed
}
