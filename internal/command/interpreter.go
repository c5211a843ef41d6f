package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"motord/internal/motor"
)

// Reason classifies a rejected request.
type Reason int

const (
	ReasonFormat Reason = iota + 1
	ReasonParse
	ReasonDirection
	ReasonMotorID
)

func (r Reason) String() string {
	switch r {
	case ReasonFormat:
		return "format"
	case ReasonParse:
		return "parse"
	case ReasonDirection:
		return "direction"
	case ReasonMotorID:
		return "motor_id"
	default:
		return fmt.Sprintf("Reason(%d)", int(r))
	}
}

// Rejection is the error Interpret returns for an invalid request.
type Rejection struct {
	Reason Reason
	msg    string
}

func (r *Rejection) Error() string {
	return r.msg
}

func reject(reason Reason, format string, args ...interface{}) *Rejection {
	return &Rejection{Reason: reason, msg: fmt.Sprintf(format, args...)}
}

// Interpreter validates requests against a motor registry.
type Interpreter struct {
	registry *motor.Registry
}

func NewInterpreter(registry *motor.Registry) *Interpreter {
	return &Interpreter{registry: registry}
}

// Interpret parses raw. Checks run in a fixed order: field count, numbers,
// direction, motor id. Speed is clamped, never rejected. A non-nil error is
// always a *Rejection.
func (i *Interpreter) Interpret(raw string) (Command, error) {
	text := strings.TrimSpace(raw)
	if text == PingToken {
		return Ping{}, nil
	}

	parts := strings.Split(text, ",")
	if len(parts) != 3 {
		return nil, reject(ReasonFormat, "invalid command format (expected motor_id,direction,speed or 'ping')")
	}

	id, idErr := parseInt(parts[0])
	direction := strings.ToLower(parts[1])
	speed, speedErr := parseInt(parts[2])
	if idErr != nil || speedErr != nil {
		return nil, reject(ReasonParse, "could not parse numbers")
	}

	dir, ok := motor.ParseDirection(direction)
	if !ok {
		return nil, reject(ReasonDirection, "direction must be forward or backward")
	}

	if id.saturated || !i.registry.Contains(motor.ID(id.v)) {
		return nil, reject(ReasonMotorID, "motor_id must be in %s, got %s", i.registry, id)
	}

	return SetMotor{
		Motor:     motor.ID(id.v),
		Direction: dir,
		Speed:     motor.Clamp(speed.v),
	}, nil
}

type parsedInt struct {
	v         int64
	text      string
	saturated bool
}

// String prints the integer the client sent, without a plus sign or leading
// zeros, even when it does not fit in int64.
func (p parsedInt) String() string {
	if !p.saturated {
		return strconv.FormatInt(p.v, 10)
	}
	sign := ""
	digits := p.text
	switch {
	case strings.HasPrefix(digits, "-"):
		sign, digits = "-", digits[1:]
	case strings.HasPrefix(digits, "+"):
		digits = digits[1:]
	}
	return sign + strings.TrimLeft(digits, "0")
}

// parseInt reads a decimal integer with optional sign and surrounding
// whitespace. Values beyond int64 saturate instead of failing.
func parseInt(s string) (parsedInt, error) {
	text := strings.TrimSpace(s)
	v, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return parsedInt{v: v, text: text, saturated: true}, nil
		}
		return parsedInt{}, err
	}
	if int64(int(v)) != v {
		return parsedInt{v: v, text: text, saturated: true}, nil
	}
	return parsedInt{v: v, text: text}, nil
}
