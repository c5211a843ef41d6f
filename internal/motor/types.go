package motor

import "fmt"

// ID identifies a motor in the registry.
type ID int

// Direction of rotation. Stopping is speed 0 in either direction.
type Direction uint8

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection accepts the lower-case names "forward" and "backward".
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "forward":
		return Forward, true
	case "backward":
		return Backward, true
	}
	return 0, false
}

// Speed is the duty cycle written to a motor's speed channel.
type Speed uint16

const MaxSpeed Speed = 0xFFFF

// Clamp forces v into [0, MaxSpeed].
func Clamp(v int64) Speed {
	if v < 0 {
		return 0
	}
	if v > int64(MaxSpeed) {
		return MaxSpeed
	}
	return Speed(v)
}

// ChannelPair is the two PWM lines wired to one motor driver.
type ChannelPair struct {
	Speed     uint8
	Direction uint8
}

// Polarity holds the duty cycle written to a direction channel for each direction.
type Polarity struct {
	Forward  uint16
	Backward uint16
}

// DefaultPolarity drives the direction line high for forward and low for backward.
var DefaultPolarity = Polarity{Forward: 0xFFFF, Backward: 0}

func (p Polarity) Value(d Direction) uint16 {
	if d == Backward {
		return p.Backward
	}
	return p.Forward
}

// State is a requested motor setting.
type State struct {
	Motor     ID
	Direction Direction
	Speed     Speed
}
