// Package command parses the motord wire protocol.
//
// A request is either the literal "ping" or "<motor_id>,<direction>,<speed>".
package command

import (
	"fmt"

	"motord/internal/motor"
)

// PingToken is the liveness probe. It is matched case-sensitively.
const PingToken = "ping"

// Command is a parsed request: Ping or SetMotor.
type Command interface {
	command()
}

// Ping asks for a "pong" reply.
type Ping struct{}

// SetMotor sets one motor's direction and speed. Speed is already clamped.
type SetMotor struct {
	Motor     motor.ID
	Direction motor.Direction
	Speed     motor.Speed
}

func (Ping) command()     {}
func (SetMotor) command() {}

func (c SetMotor) State() motor.State {
	return motor.State{Motor: c.Motor, Direction: c.Direction, Speed: c.Speed}
}

// Reply lines.
const Pong = "pong"

func OK(c SetMotor) string {
	return fmt.Sprintf("OK: motor=%d, dir=%s, speed=%d", c.Motor, c.Direction, c.Speed)
}

func Error(err error) string {
	return "ERROR: " + err.Error()
}
