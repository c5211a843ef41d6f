package pwm

import (
	"fmt"
	"io"
	"sync"
	"time"

	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/pca9685"
)

const (
	pca9685Channels = 16

	// Bit 4 of LEDn_ON_H / LEDn_OFF_H forces the output fully on / off.
	pcaFullBit = 0x1000
)

// PCA9685 drives the 16 channels of an NXP PCA9685 over I2C.
// 16-bit duty cycles are reduced to the chip's 12 bits; 0 and 0xFFFF use the
// full-off and full-on bits so direction lines are steady.
type PCA9685 struct {
	mu     sync.Mutex
	bus    drivers.I2C
	addr   uint8
	buf    [5]byte
	closed bool
}

// NewPCA9685 checks the chip answers at addr, enables register
// auto-increment, turns every output off and sets the PWM frequency.
func NewPCA9685(bus drivers.I2C, addr uint8, frequency uint) (*PCA9685, error) {
	dev := pca9685.New(bus, addr)
	if err := dev.IsConnected(); err != nil {
		return nil, fmt.Errorf("pca9685 at 0x%02x: %w", addr, err)
	}

	var period uint64
	if frequency > 0 {
		period = uint64(time.Second) / uint64(frequency)
	}
	if err := dev.Configure(pca9685.PWMConfig{Period: period}); err != nil {
		return nil, fmt.Errorf("pca9685 at 0x%02x: configure %d Hz: %w", addr, frequency, err)
	}

	return &PCA9685{bus: bus, addr: addr}, nil
}

// OpenPCA9685 opens the Linux i2c-dev node at path and configures the chip on it.
func OpenPCA9685(path string, addr uint8, frequency uint) (*PCA9685, error) {
	bus, err := OpenI2C(path)
	if err != nil {
		return nil, err
	}
	d, err := NewPCA9685(bus, addr, frequency)
	if err != nil {
		bus.Close()
		return nil, err
	}
	return d, nil
}

func (d *PCA9685) SetDutyCycle(channel uint8, value uint16) error {
	if err := checkChannel(channel, pca9685Channels); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	on, off := pcaCounts(value)
	onL, _, _, _ := pca9685.LED(channel)
	d.buf[0] = onL
	d.buf[1] = byte(on)
	d.buf[2] = byte(on >> 8)
	d.buf[3] = byte(off)
	d.buf[4] = byte(off >> 8)
	if err := d.bus.Tx(uint16(d.addr), d.buf[:], nil); err != nil {
		return fmt.Errorf("pca9685 channel %d: %w", channel, err)
	}
	return nil
}

// pcaCounts maps a 16-bit duty cycle to the ON/OFF register counts.
func pcaCounts(value uint16) (on, off uint16) {
	switch value {
	case MaxDuty:
		return pcaFullBit, 0
	case 0:
		return 0, pcaFullBit
	default:
		return 0, value >> 4
	}
}

func (d *PCA9685) Channels() int {
	return pca9685Channels
}

func (d *PCA9685) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true
	if c, ok := d.bus.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
