package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// Поддерживаемые драйверы PWM.
const (
	DriverPCA9685 = "pca9685"
	DriverSerial  = "serial"
	DriverArtNet  = "artnet"
	DriverSim     = "sim"
)

var (
	ErrUnknownDriver  = errors.New("unknown pwm driver")
	ErrInvalidMotor   = errors.New("invalid motor definition")
	ErrChannelOverlap = errors.New("motor channels overlap")
)

// Config структура конфигурации.
type Config struct {
	Logger   LogConf      // Logger - конфигурация регистратора.
	Server   ServerConf   // Server - конфигурация TCP сервера команд.
	PWM      PWMConf      // PWM - конфигурация драйвера PWM.
	Polarity PolarityConf // Polarity - значения канала направления.
	Motors   []MotorConf  `toml:"motors"` // Motors - таблица моторов.
	MQTT     MQTTConf     // MQTT - конфигурация MQTT клиента.
}

// LogConf структура конфигурации.
type LogConf struct {
	Level  string `toml:"log-level" env:"MOTORD_LOG_LEVEL"`   // Level - уровень логирования.
	Format string `toml:"log-format" env:"MOTORD_LOG_FORMAT"` // Format - text или json.
}

// ServerConf структура конфигурации.
type ServerConf struct {
	Listen         string   `toml:"listen" env:"MOTORD_LISTEN"`                     // Listen - адрес host:port.
	ReadBuffer     int      `toml:"read-buffer" env:"MOTORD_READ_BUFFER"`           // ReadBuffer - максимальный размер команды.
	ReadTimeout    Duration `toml:"read-timeout" env:"MOTORD_READ_TIMEOUT"`         // ReadTimeout - 0 без таймаута.
	StopOnShutdown bool     `toml:"stop-on-shutdown" env:"MOTORD_STOP_ON_SHUTDOWN"` // StopOnShutdown - остановить моторы при выходе.
}

// PWMConf структура конфигурации.
type PWMConf struct {
	Driver    string      `toml:"driver" env:"MOTORD_PWM_DRIVER"`       // Driver - pca9685, serial, artnet или sim.
	Frequency uint        `toml:"frequency" env:"MOTORD_PWM_FREQUENCY"` // Frequency - частота PWM в Гц.
	PCA9685   PCA9685Conf `toml:"pca9685"`
	Serial    SerialConf  `toml:"serial"`
	ArtNet    ArtNetConf  `toml:"artnet"`
	Sim       SimConf     `toml:"sim"`
}

type PCA9685Conf struct {
	Bus     string `toml:"bus" env:"MOTORD_I2C_BUS"`
	Address uint8  `toml:"address"`
}

type SerialConf struct {
	Device      string   `toml:"device" env:"MOTORD_SERIAL_DEVICE"`
	Baud        int      `toml:"baud" env:"MOTORD_SERIAL_BAUD"`
	ReadTimeout Duration `toml:"read-timeout"`
	Channels    int      `toml:"channels"`
}

type ArtNetConf struct {
	IP       string `toml:"ip" env:"MOTORD_ARTNET_IP"`
	Network  string `toml:"network"` // Network - CIDR для поиска интерфейса, если IP не задан.
	Universe uint16 `toml:"universe"`
}

type SimConf struct {
	Channels int `toml:"channels"`
}

// PolarityConf структура конфигурации.
type PolarityConf struct {
	Forward  uint16 `toml:"forward"`
	Backward uint16 `toml:"backward"`
}

// MotorConf структура конфигурации.
type MotorConf struct {
	ID               int   `toml:"id"`
	SpeedChannel     uint8 `toml:"speed-channel"`
	DirectionChannel uint8 `toml:"direction-channel"`
}

// MQTTConf структура конфигурации.
type MQTTConf struct {
	Enabled     bool   `toml:"enabled" env:"MOTORD_MQTT_ENABLED"`
	ClientID    string `toml:"clientID"`                        // ClientID - имя клиента.
	Host        string `toml:"server" env:"MOTORD_MQTT_SERVER"` // Host - адрес MQTT сервера.
	Port        string `toml:"port" env:"MOTORD_MQTT_PORT"`     // Port - порт MQTT сервера.
	User        string `toml:"user" env:"MOTORD_MQTT_USER"`     // User - логин для подключения к MQTT серверу.
	Password    string `toml:"password" env:"MOTORD_MQTT_PASSWORD"`
	Qos         byte   `toml:"qos"`          // Qos - качество обслуживания.
	TopicPrefix string `toml:"topic-prefix"` // TopicPrefix - корень топиков.
}

// Duration is a time.Duration decoded from strings like "1.5s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the reference deployment: PCA9685 at 100 Hz, four motors on
// channel pairs (0,1)..(6,7), command port 12345.
func Default() Config {
	return Config{
		Logger: LogConf{Level: "info", Format: "text"},
		Server: ServerConf{
			Listen:         "0.0.0.0:12345",
			ReadBuffer:     1024,
			StopOnShutdown: true,
		},
		PWM: PWMConf{
			Driver:    DriverPCA9685,
			Frequency: 100,
			PCA9685:   PCA9685Conf{Bus: "/dev/i2c-1", Address: 0x40},
			Serial:    SerialConf{Device: "/dev/ttyACM0", Baud: 115200, Channels: 16},
			ArtNet:    ArtNetConf{Network: "192.168.6.0/24"},
			Sim:       SimConf{Channels: 16},
		},
		Polarity: PolarityConf{Forward: 0xFFFF, Backward: 0},
		Motors: []MotorConf{
			{ID: 1, SpeedChannel: 0, DirectionChannel: 1},
			{ID: 2, SpeedChannel: 2, DirectionChannel: 3},
			{ID: 3, SpeedChannel: 4, DirectionChannel: 5},
			{ID: 4, SpeedChannel: 6, DirectionChannel: 7},
		},
		MQTT: MQTTConf{
			ClientID:    "motord",
			Port:        "1883",
			TopicPrefix: "motord",
		},
	}
}

// NewConfig конструктор.
// Порядок: значения по умолчанию, файл TOML, .env, переменные окружения MOTORD_*.
func NewConfig(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		// Таблица моторов из файла заменяет таблицу по умолчанию целиком.
		defaults := cfg.Motors
		cfg.Motors = nil
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return &cfg, err
		}
		if !md.IsDefined("motors") {
			cfg.Motors = defaults
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &cfg, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return &cfg, err
	}

	return &cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	for _, section := range []interface{}{
		&c.Logger, &c.Server, &c.PWM, &c.PWM.PCA9685, &c.PWM.Serial, &c.PWM.ArtNet, &c.MQTT,
	} {
		if err := env.Parse(section); err != nil {
			return fmt.Errorf("environment: %w", err)
		}
	}
	return nil
}

// Validate checks the motor table and driver selection.
func (c *Config) Validate() error {
	switch c.PWM.Driver {
	case DriverPCA9685, DriverSerial, DriverArtNet, DriverSim:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, c.PWM.Driver)
	}

	if c.Server.ReadBuffer <= 0 {
		return fmt.Errorf("server read-buffer must be positive, got %d", c.Server.ReadBuffer)
	}

	if len(c.Motors) == 0 {
		return fmt.Errorf("%w: no motors configured", ErrInvalidMotor)
	}

	ids := map[int]bool{}
	owner := map[uint8]int{}
	for _, m := range c.Motors {
		if m.ID <= 0 {
			return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidMotor, m.ID)
		}
		if ids[m.ID] {
			return fmt.Errorf("%w: duplicate id %d", ErrInvalidMotor, m.ID)
		}
		ids[m.ID] = true

		if m.SpeedChannel == m.DirectionChannel {
			return fmt.Errorf("%w: motor %d uses channel %d twice", ErrChannelOverlap, m.ID, m.SpeedChannel)
		}
		for _, ch := range []uint8{m.SpeedChannel, m.DirectionChannel} {
			if other, ok := owner[ch]; ok {
				return fmt.Errorf("%w: channel %d used by motors %d and %d", ErrChannelOverlap, ch, other, m.ID)
			}
			owner[ch] = m.ID
		}
	}
	return nil
}

// MotorIDs returns the configured ids in ascending order.
func (c *Config) MotorIDs() []int {
	out := make([]int, 0, len(c.Motors))
	for _, m := range c.Motors {
		out = append(out, m.ID)
	}
	sort.Ints(out)
	return out
}
