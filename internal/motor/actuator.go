package motor

import (
	"errors"
	"fmt"
	"sync"

	"motord/internal/logger"
	"motord/internal/pwm"
)

// Observer is told about every state the actuator wrote successfully.
type Observer interface {
	MotorApplied(s State)
}

// Actuator turns motor states into channel writes.
//
// Apply writes the direction channel first and the speed channel second. The
// two writes are not atomic: for a moment the motor driver sees the new
// direction with the old speed. A failed direction write skips the speed
// write; a failed speed write is not rolled back.
type Actuator struct {
	mu        sync.Mutex
	log       logger.Logger
	driver    pwm.Driver
	registry  *Registry
	polarity  Polarity
	observers []Observer
}

// NewActuator does not take ownership of driver; the caller closes it.
func NewActuator(log logger.Logger, driver pwm.Driver, registry *Registry, polarity Polarity) *Actuator {
	return &Actuator{
		log:      log,
		driver:   driver,
		registry: registry,
		polarity: polarity,
	}
}

// Observe registers o. Call before the actuator is used.
func (a *Actuator) Observe(o Observer) {
	a.observers = append(a.observers, o)
}

func (a *Actuator) Apply(s State) error {
	pair, ok := a.registry.Lookup(s.Motor)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownMotor, s.Motor)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.driver.SetDutyCycle(pair.Direction, a.polarity.Value(s.Direction)); err != nil {
		return fmt.Errorf("motor %d direction channel %d: %w", s.Motor, pair.Direction, err)
	}
	if err := a.driver.SetDutyCycle(pair.Speed, uint16(s.Speed)); err != nil {
		return fmt.Errorf("motor %d speed channel %d: %w", s.Motor, pair.Speed, err)
	}

	a.log.Module("actuator").Debugf("motor %d set %s at %d", s.Motor, s.Direction, s.Speed)
	for _, o := range a.observers {
		o.MotorApplied(s)
	}
	return nil
}

// StopAll writes speed 0 to every motor, leaving direction channels alone.
// It keeps going after a failure and returns all errors joined.
func (a *Actuator) StopAll() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, id := range a.registry.IDs() {
		pair, _ := a.registry.Lookup(id)
		if err := a.driver.SetDutyCycle(pair.Speed, 0); err != nil {
			errs = append(errs, fmt.Errorf("motor %d speed channel %d: %w", id, pair.Speed, err))
		}
	}
	if len(errs) == 0 {
		a.log.Module("actuator").Info("all motors stopped")
	}
	return errors.Join(errs...)
}
