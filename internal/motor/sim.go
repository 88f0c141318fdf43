package motor

import (
	"log"
	"sync"

	"train-controller/internal/models"
)

// Supply voltage of the motor HAT power rail.
const supplyVoltage = 12.0

// SimDriver is a motor driver backed by no hardware at all. It tracks the
// commanded state and derives plausible electrical readings from it, so the
// full command path can run on a development machine without a HAT attached.
type SimDriver struct {
	mu        sync.Mutex
	speed     int
	direction models.Direction
}

// NewSimDriver returns a stopped, forward-facing simulated motor.
func NewSimDriver() *SimDriver {
	return &SimDriver{direction: models.DirectionForward}
}

func (d *SimDriver) Start(speed int, direction models.Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = models.ClampSpeed(speed)
	d.direction = direction
	log.Printf("Motor: started at speed=%d direction=%s", d.speed, d.direction)
	return nil
}

func (d *SimDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = 0
	log.Printf("Motor: stopped")
	return nil
}

func (d *SimDriver) SetSpeed(speed int) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.speed = models.ClampSpeed(speed)
	return nil
}

func (d *SimDriver) SetDirection(direction models.Direction) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.direction = direction
	log.Printf("Motor: direction set to %s", direction)
	return nil
}

func (d *SimDriver) Speed() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.speed
}

func (d *SimDriver) Direction() models.Direction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.direction
}

// Voltage reports the rail voltage with a small sag under load.
func (d *SimDriver) Voltage() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return supplyVoltage - 0.018*float64(d.speed)
}

// Current reports the simulated motor draw: a small idle draw when running,
// rising with speed, zero when stopped.
func (d *SimDriver) Current() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.speed == 0 {
		return 0
	}
	return 0.2 + 0.012*float64(d.speed)
}
