//go:build !linux

package pwm

import "errors"

var errNoI2CDev = errors.New("i2c-dev buses are only available on linux")

// I2CBus is unavailable off Linux.
type I2CBus struct{}

func OpenI2C(string) (*I2CBus, error) {
	return nil, errNoI2CDev
}

func (*I2CBus) Tx(uint16, []byte, []byte) error {
	return errNoI2CDev
}

func (*I2CBus) Close() error {
	return nil
}
