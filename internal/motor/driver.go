package motor

import "train-controller/internal/models"

// Driver is the hardware abstraction for a train motor. Exactly one driver
// instance is constructed at startup and injected into the command executor,
// which is its only writer. The underlying bus protocol (I2C/GPIO) is a
// driver implementation detail.
type Driver interface {
	// Start runs the motor at the given speed and direction.
	Start(speed int, direction models.Direction) error
	// Stop lets the motor coast to a stop. Direction state is kept.
	Stop() error
	// SetSpeed changes the speed in the current direction.
	SetSpeed(speed int) error
	// SetDirection changes the rotation direction at the current speed.
	SetDirection(direction models.Direction) error

	// Current-state accessors.
	Speed() int
	Direction() models.Direction
	Voltage() float64
	Current() float64
}
