package pwm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"

	"github.com/Haba1234/go-artnet"

	"motord/internal/logger"
)

const (
	// Each channel takes a coarse and a fine DMX slot.
	artnetChannels = 512 / 2

	artnetMaxFPS = 40
)

// dmxSender is the part of the art-net controller the driver uses.
type dmxSender interface {
	SendDMXToAddress(dmx [512]byte, address artnet.Address)
	Stop()
}

// ArtNet drives 16-bit dimmer channels of one DMX universe on an Art-Net node.
// Channel c is sent on slots 2c (high byte) and 2c+1 (low byte).
//
// Writes are fire-and-forget: the controller drops a frame when no node has
// been discovered at the address and reports nothing back, so a nil error
// from SetDutyCycle does not confirm the node received it.
type ArtNet struct {
	mu      sync.Mutex
	log     logger.Logger
	sender  dmxSender
	address artnet.Address
	dmx     [512]byte
	closed  bool
}

// OpenArtNet starts an art-net controller bound to ip, or to the first local
// address inside network when ip is empty.
func OpenArtNet(log logger.Logger, ip, network string, universe uint16) (*ArtNet, error) {
	var addr net.IP
	if ip != "" {
		addr = net.ParseIP(ip)
		if addr == nil {
			return nil, fmt.Errorf("art-net: bad ip %q", ip)
		}
	} else {
		found, err := FindArtNetIP(network)
		if err != nil {
			return nil, fmt.Errorf("failed to find the art-net IP: %w", err)
		}
		if len(found) == 0 {
			return nil, errors.New("failed to find the art-net IP: No interface found")
		}
		addr = found
	}

	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve hostname: %w", err)
	}
	host = strings.ToLower(strings.Split(host, ".")[0])
	log.Module("art-net").Infof("Using ArtNet IP %s and hostname %s", addr.String(), host)

	senderLevel := "info"
	if log.GetLevel() == "debug" {
		senderLevel = "debug"
	}
	sender := artnet.NewController(host, addr, artnet.NewDefaultLogger(senderLevel), artnet.MaxFPS(artnetMaxFPS))
	if err := sender.Start(); err != nil {
		return nil, fmt.Errorf("failed to start Controller: %w", err)
	}

	return newArtNet(log, sender, universe), nil
}

func newArtNet(log logger.Logger, sender dmxSender, universe uint16) *ArtNet {
	return &ArtNet{
		log:     log,
		sender:  sender,
		address: universeToAddress(universe),
	}
}

func (a *ArtNet) SetDutyCycle(channel uint8, value uint16) error {
	if err := checkChannel(channel, artnetChannels); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return ErrClosed
	}
	slot := int(channel) * 2
	binary.BigEndian.PutUint16(a.dmx[slot:slot+2], value)
	a.log.Module("art-net").Debugf("DMX. Отправка в контроллер по адресу %s", a.address.String())
	a.sender.SendDMXToAddress(a.dmx, a.address)
	return nil
}

func (a *ArtNet) Channels() int {
	return artnetChannels
}

func (a *ArtNet) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.closed {
		a.closed = true
		a.sender.Stop()
	}
	return nil
}

// universeToAddress converts a dmx universe to art-net address
// universe: старший байт - Net, младший байт - SubUni.
func universeToAddress(universe uint16) artnet.Address {
	v := make([]uint8, 2)
	binary.BigEndian.PutUint16(v, universe)

	return artnet.Address{
		Net:    v[0],
		SubUni: v[1],
	}
}
