package pwm

import "sync"

// Write is one duty-cycle write seen by the simulator.
type Write struct {
	Channel uint8
	Value   uint16
}

// Sim is an in-memory driver for hosts without PWM hardware.
type Sim struct {
	mu     sync.Mutex
	values []uint16
	writes []Write
	closed bool
}

// NewSim returns a simulator with the given number of channels, all at 0.
func NewSim(channels int) *Sim {
	if channels <= 0 {
		channels = 16
	}
	return &Sim{values: make([]uint16, channels)}
}

func (s *Sim) SetDutyCycle(channel uint8, value uint16) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if err := checkChannel(channel, len(s.values)); err != nil {
		return err
	}
	s.values[channel] = value
	s.writes = append(s.writes, Write{Channel: channel, Value: value})
	return nil
}

func (s *Sim) Channels() int {
	return len(s.values)
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Value returns the last value written to channel.
func (s *Sim) Value(channel uint8) uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[channel]
}

// Writes returns every write in the order it happened.
func (s *Sim) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}
