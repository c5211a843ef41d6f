//go:build linux

package pwm

import (
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// ioctl request that selects the target address on an i2c-dev node.
const i2cSlave = 0x0703

// I2CBus is a tinygo drivers.I2C backed by a Linux /dev/i2c-N node.
type I2CBus struct {
	mu   sync.Mutex
	f    *os.File
	addr int
}

// OpenI2C opens an i2c-dev character device such as /dev/i2c-1.
func OpenI2C(path string) (*I2CBus, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus: %w", err)
	}
	return &I2CBus{f: f, addr: -1}, nil
}

// Tx writes w and then reads len(r) bytes from the device at addr.
func (b *I2CBus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if int(addr) != b.addr {
		if err := unix.IoctlSetInt(int(b.f.Fd()), i2cSlave, int(addr)); err != nil {
			return fmt.Errorf("i2c select 0x%02x: %w", addr, err)
		}
		b.addr = int(addr)
	}
	if len(w) > 0 {
		if _, err := b.f.Write(w); err != nil {
			return fmt.Errorf("i2c write 0x%02x: %w", addr, err)
		}
	}
	if len(r) > 0 {
		if _, err := io.ReadFull(b.f, r); err != nil {
			return fmt.Errorf("i2c read 0x%02x: %w", addr, err)
		}
	}
	return nil
}

func (b *I2CBus) Close() error {
	return b.f.Close()
}
