// Package pwm holds the duty-cycle drivers a motor actuator writes through.
//
// Every driver takes 16-bit duty-cycle values (0 = always low, 0xFFFF =
// always high) and converts them to whatever resolution its hardware has.
package pwm

import (
	"errors"
	"fmt"
)

// MaxDuty is the largest duty-cycle value a channel accepts.
const MaxDuty = 0xFFFF

var (
	ErrChannelRange = errors.New("pwm channel out of range")
	ErrClosed       = errors.New("pwm driver closed")
)

// Driver sets duty cycles on the channels of a single PWM peripheral.
// Initialisation (bus setup, frequency) happens when the driver is created.
type Driver interface {
	// SetDutyCycle writes value to channel. Writes are not read back.
	SetDutyCycle(channel uint8, value uint16) error
	// Channels returns the number of addressable channels, numbered from 0.
	Channels() int
	// Close releases the underlying bus or port.
	Close() error
}

func checkChannel(channel uint8, channels int) error {
	if int(channel) >= channels {
		return fmt.Errorf("%w: %d (have %d)", ErrChannelRange, channel, channels)
	}
	return nil
}
