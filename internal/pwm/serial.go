package pwm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

// ErrDeviceRejected is returned when a serial PWM board answers a write with ERR.
var ErrDeviceRejected = errors.New("pwm board rejected write")

// Serial drives a PWM board attached over a serial line. Each write is one
// ASCII line "S <channel> <value>\n" answered by "OK" or "ERR <reason>".
type Serial struct {
	mu       sync.Mutex
	port     io.ReadWriteCloser
	r        *bufio.Reader
	channels int
	closed   bool
}

// OpenSerial opens device at baud. A zero readTimeout blocks forever waiting
// for the board's answer.
func OpenSerial(device string, baud int, readTimeout time.Duration, channels int) (*Serial, error) {
	port, err := serial.OpenPort(&serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	return NewSerial(port, channels), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.ReadWriteCloser, channels int) *Serial {
	if channels <= 0 {
		channels = 16
	}
	return &Serial{port: port, r: bufio.NewReader(port), channels: channels}
}

func (s *Serial) SetDutyCycle(channel uint8, value uint16) error {
	if err := checkChannel(channel, s.channels); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if _, err := fmt.Fprintf(s.port, "S %d %d\n", channel, value); err != nil {
		return fmt.Errorf("serial write: %w", err)
	}

	line, err := s.r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("serial read: %w", err)
	}
	line = strings.TrimSpace(line)
	switch {
	case line == "OK":
		return nil
	case strings.HasPrefix(line, "ERR"):
		return fmt.Errorf("%w: %s", ErrDeviceRejected, strings.TrimSpace(strings.TrimPrefix(line, "ERR")))
	default:
		return fmt.Errorf("%w: unexpected reply %q", ErrDeviceRejected, line)
	}
}

func (s *Serial) Channels() int {
	return s.channels
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.port.Close()
}
