package controller

import (
	"context"
	"log"
	"sync"
	"time"

	"train-controller/internal/models"
	"train-controller/internal/motor"
)

// defaultRampDuration is the wall-clock time a speed transition takes,
// regardless of how far it travels.
const defaultRampDuration = 3 * time.Second

// defaultStartSpeed is used when a start command carries no speed.
const defaultStartSpeed = 50

// StatusPublisher publishes snapshots outward. Satisfied by mqtt.Channel.
type StatusPublisher interface {
	PublishStatus(models.StatusSnapshot) error
}

// Config holds executor configuration.
type Config struct {
	TrainID      string
	RampDuration time.Duration // defaults to 3s
}

// request is one unit of work for the ramp goroutine: a new ramp target or
// a stop. Stops travel through the same channel as targets so every motor
// speed write happens on that one goroutine; a cancelled ramp can never
// re-apply a stale step after the motor was stopped.
type request struct {
	stop   bool
	target int
}

// Executor maps validated commands to driver calls and publishes the
// resulting status. Speed changes go through a ramp: a bounded-duration,
// steppable transition owned by a dedicated goroutine (Run), so a long ramp
// never blocks inbound message delivery. At most one ramp is active; a new
// request preempts the previous ramp between steps (last write wins, no
// queueing).
type Executor struct {
	driver       motor.Driver
	trainID      string
	rampDuration time.Duration

	// reqCh carries ramp targets and stops to the ramp goroutine.
	reqCh chan request

	mu       sync.Mutex
	pub      StatusPublisher
	position string
}

// NewExecutor creates a command executor for a single injected driver.
// Call SetPublisher before the first command and run the ramp goroutine
// with `go e.Run(ctx)`; setSpeed and stop commands are applied by that
// goroutine.
func NewExecutor(driver motor.Driver, cfg Config) *Executor {
	if cfg.RampDuration <= 0 {
		cfg.RampDuration = defaultRampDuration
	}
	return &Executor{
		driver:       driver,
		trainID:      cfg.TrainID,
		rampDuration: cfg.RampDuration,
		reqCh:        make(chan request, 1),
		position:     models.PositionUnknown,
	}
}

// SetPublisher wires the outbound status publisher. A nil publisher is
// allowed (no train assignment yet); statuses are then skipped.
func (e *Executor) SetPublisher(pub StatusPublisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pub = pub
}

// Execute routes one command. It is safe to call from the broker callback
// goroutine: it never blocks on the ramp goroutine, and driver errors are
// logged and never escape, so a bad command cannot take down the pub/sub
// session.
func (e *Executor) Execute(cmd models.Command) {
	switch cmd.Action {
	case models.ActionStart:
		speed := defaultStartSpeed
		if cmd.Speed != nil {
			speed = models.ClampSpeed(*cmd.Speed)
		}
		direction := models.DirectionForward
		if cmd.Direction != nil {
			direction = *cmd.Direction
		}
		if err := e.driver.Start(speed, direction); err != nil {
			log.Printf("Executor: start failed: %v", err)
			return
		}
		e.setPosition(models.PositionStarted)
		e.publish()

	case models.ActionStop:
		e.submit(request{stop: true})

	case models.ActionSetSpeed:
		if cmd.Speed == nil {
			log.Printf("Executor: setSpeed command without speed, ignoring")
			return
		}
		if cmd.Direction != nil {
			if err := e.driver.SetDirection(*cmd.Direction); err != nil {
				log.Printf("Executor: set direction failed: %v", err)
				return
			}
		}
		e.submit(request{target: models.ClampSpeed(*cmd.Speed)})

	case models.ActionSetDirection:
		if cmd.Direction == nil {
			log.Printf("Executor: setDirection command without direction, ignoring")
			return
		}
		if err := e.driver.SetDirection(*cmd.Direction); err != nil {
			log.Printf("Executor: set direction failed: %v", err)
			return
		}
		e.publish()

	default:
		log.Printf("Executor: unknown command action %q, ignoring", cmd.Action)
	}
}

// submit hands a request to the ramp goroutine without ever blocking the
// caller. A request still sitting in the buffer is stale by definition
// (last write wins) and is discarded to make room.
func (e *Executor) submit(req request) {
	for {
		select {
		case e.reqCh <- req:
			return
		default:
		}
		select {
		case <-e.reqCh:
		default:
		}
	}
}

// Run owns the motor speed. It consumes requests from the command path and
// executes one at a time; a request arriving mid-ramp preempts the current
// ramp at the next step boundary.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-e.reqCh:
			for {
				if req.stop {
					e.applyStop()
					break
				}
				next, preempted := e.ramp(ctx, req.target)
				if !preempted {
					break
				}
				req = next
			}
		}
	}
}

// Snapshot returns the current train state as seen by the driver.
func (e *Executor) Snapshot() models.StatusSnapshot {
	e.mu.Lock()
	position := e.position
	e.mu.Unlock()

	return models.StatusSnapshot{
		TrainID:   e.trainID,
		Speed:     e.driver.Speed(),
		Direction: e.driver.Direction(),
		Voltage:   e.driver.Voltage(),
		Current:   e.driver.Current(),
		Position:  position,
		Timestamp: time.Now().UTC(),
	}
}

// ramp moves the motor from its current speed to target in unit steps spread
// over the ramp duration, publishing a status on every step. It returns the
// replacement request when a newer request preempted this ramp.
func (e *Executor) ramp(ctx context.Context, target int) (next request, preempted bool) {
	current := e.driver.Speed()
	if target == current {
		return request{}, false
	}

	steps := target - current
	stepDir := 1
	if steps < 0 {
		steps = -steps
		stepDir = -1
	}
	delay := e.rampDuration / time.Duration(steps)

	log.Printf("Executor: ramping speed %d -> %d over %s (%d steps)", current, target, e.rampDuration, steps)

	for i := 1; i <= steps; i++ {
		speed := current + i*stepDir
		if err := e.driver.SetSpeed(speed); err != nil {
			log.Printf("Executor: ramp step failed: %v", err)
			e.publish()
			return request{}, false
		}
		e.publish()

		if i == steps {
			break
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case replacement := <-e.reqCh:
			timer.Stop()
			if replacement.stop {
				log.Printf("Executor: ramp to %d cancelled at speed %d", target, speed)
			} else {
				log.Printf("Executor: ramp to %d preempted at speed %d", target, speed)
			}
			e.publish()
			return replacement, true
		case <-ctx.Done():
			timer.Stop()
			e.publish()
			return request{}, false
		}
	}

	log.Printf("Executor: ramp completed, speed=%d", target)
	return request{}, false
}

// applyStop runs on the ramp goroutine, after any in-flight step has
// finished, so no cancelled ramp step can land after the motor stops.
func (e *Executor) applyStop() {
	if err := e.driver.Stop(); err != nil {
		log.Printf("Executor: stop failed: %v", err)
		return
	}
	e.setPosition(models.PositionStopped)
	e.publish()
}

func (e *Executor) setPosition(position string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.position = position
}

// publish sends the current snapshot out. Publish failures inside the
// command path are logged, not propagated; the session must keep serving
// subsequent commands.
func (e *Executor) publish() {
	e.mu.Lock()
	pub := e.pub
	e.mu.Unlock()
	if pub == nil {
		return
	}
	if err := pub.PublishStatus(e.Snapshot()); err != nil {
		log.Printf("Executor: status publish failed: %v", err)
	}
}
