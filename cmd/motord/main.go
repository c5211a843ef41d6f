package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tebeka/atexit"

	"motord/internal/command"
	"motord/internal/config"
	"motord/internal/logger"
	"motord/internal/motor"
	"motord/internal/pwm"
	"motord/internal/server"
	"motord/internal/telemetry"
)

var configFile string

func init() {
	flag.StringVar(&configFile, "config", "configs/motord.toml", "Path to configuration file")
}

func main() {
	flag.Parse()
	cfg, err := config.NewConfig(configFile)
	if err != nil {
		fmt.Printf("configuration file read error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logger)
	if err != nil {
		fmt.Printf("failed to create a logger: %v\n", err)
		os.Exit(1)
	}
	log.Module("logger").Debug("newLogger created ok")

	driver, err := pwm.Open(log, cfg.PWM)
	if err != nil {
		log.Module("pwm").Errorf("failed to open pwm driver: %v", err)
		atexit.Exit(1)
	}
	atexit.Register(func() {
		if err := driver.Close(); err != nil {
			log.Module("pwm").Errorf("failed to close pwm driver: %v", err)
		}
	})

	registry := ConvertMotors(cfg.Motors)
	if err := registry.CheckChannels(driver.Channels()); err != nil {
		log.Module("motor").Errorf("motor table does not fit the %s driver: %v", cfg.PWM.Driver, err)
		atexit.Exit(1)
	}

	act := motor.NewActuator(log, driver, registry, motor.Polarity{
		Forward:  cfg.Polarity.Forward,
		Backward: cfg.Polarity.Backward,
	})
	log.Module("motor").Debugf("motors %s ready", registry)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	var pub *telemetry.Publisher
	if cfg.MQTT.Enabled {
		pub = telemetry.NewPublisher(log, ConvertConfigMQTT(cfg.MQTT))
		if err := pub.Start(ctx); err != nil {
			log.Module("mqtt").Error("failed to start MQTT service: ", err.Error())
			pub = nil
		} else {
			act.Observe(pub)
		}
	}

	srv := server.New(log, server.Conf{
		Listen:      cfg.Server.Listen,
		ReadBuffer:  cfg.Server.ReadBuffer,
		ReadTimeout: cfg.Server.ReadTimeout.Duration,
	}, command.NewInterpreter(registry), act)

	if err := srv.Listen(); err != nil {
		log.Module("server").Errorf("failed to start command server: %v", err)
		shutdown(log, cfg, act, pub)
		atexit.Exit(1)
	}
	atexit.Register(func() { srv.Close() })

	code := 0
	if err := srv.Serve(ctx); err != nil {
		log.Module("server").Errorf("command server stopped: %v", err)
		code = 1
	}

	cancel()
	shutdown(log, cfg, act, pub)
	log.Info("shutdown complete")
	atexit.Exit(code)
}

// shutdown stops the motors and telemetry before the exit handlers release
// the listener and the driver.
func shutdown(log *logger.Log, cfg *config.Config, act *motor.Actuator, pub *telemetry.Publisher) {
	if cfg.Server.StopOnShutdown {
		if err := act.StopAll(); err != nil {
			log.Module("motor").Errorf("failed to stop motors: %v", err)
		}
	}
	if pub != nil {
		if err := pub.Stop(); err != nil {
			log.Module("mqtt").Error("failed to stop MQTT service: ", err.Error())
		}
	}
}

// ConvertMotors строит реестр моторов из конфигурации.
func ConvertMotors(motors []config.MotorConf) *motor.Registry {
	pairs := make(map[motor.ID]motor.ChannelPair, len(motors))
	for _, m := range motors {
		pairs[motor.ID(m.ID)] = motor.ChannelPair{
			Speed:     m.SpeedChannel,
			Direction: m.DirectionChannel,
		}
	}
	return motor.NewRegistry(pairs)
}

// ConvertConfigMQTT преобразует структуры.
func ConvertConfigMQTT(cfg config.MQTTConf) telemetry.MQTTConf {
	return telemetry.MQTTConf{
		ClientID:    cfg.ClientID,
		Schema:      "tcp",
		Host:        cfg.Host,
		Port:        cfg.Port,
		User:        cfg.User,
		Password:    cfg.Password,
		Qos:         cfg.Qos,
		TopicPrefix: cfg.TopicPrefix,
	}
}
