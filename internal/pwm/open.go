package pwm

import (
	"fmt"

	"motord/internal/config"
	"motord/internal/logger"
)

// Open creates and initialises the driver selected by cfg.Driver.
func Open(log logger.Logger, cfg config.PWMConf) (Driver, error) {
	log.Module("pwm").Infof("opening %s driver", cfg.Driver)

	var (
		d   Driver
		err error
	)
	switch cfg.Driver {
	case config.DriverPCA9685:
		var pca *PCA9685
		if pca, err = OpenPCA9685(cfg.PCA9685.Bus, cfg.PCA9685.Address, cfg.Frequency); err == nil {
			d = pca
		}
	case config.DriverSerial:
		var s *Serial
		if s, err = OpenSerial(cfg.Serial.Device, cfg.Serial.Baud, cfg.Serial.ReadTimeout.Duration, cfg.Serial.Channels); err == nil {
			d = s
		}
	case config.DriverArtNet:
		var a *ArtNet
		if a, err = OpenArtNet(log, cfg.ArtNet.IP, cfg.ArtNet.Network, cfg.ArtNet.Universe); err == nil {
			d = a
		}
	case config.DriverSim:
		d = NewSim(cfg.Sim.Channels)
	default:
		err = fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("pwm %s: %w", cfg.Driver, err)
	}
	return d, nil
}
