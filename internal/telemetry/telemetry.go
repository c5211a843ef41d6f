// Package telemetry publishes applied motor states to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"motord/internal/logger"
	"motord/internal/motor"
)

// Publisher is a motor.Observer that mirrors every applied state to MQTT.
// Publishing is fire-and-forget: a slow or absent broker never delays or
// fails a motor command.
type Publisher struct {
	ctx    context.Context
	log    logger.Logger
	cfg    MQTTConf
	client mqtt.Client
	opts   *mqtt.ClientOptions
	now    func() time.Time
}

// NewPublisher конструктор.
func NewPublisher(log logger.Logger, cfg MQTTConf) *Publisher {
	if cfg.Schema == "" {
		cfg.Schema = "tcp"
	}
	return &Publisher{
		log: log,
		cfg: cfg,
		now: time.Now,
	}
}

// Start begins connecting to the broker in the background and returns
// without waiting for it. The online status is announced once connected.
func (p *Publisher) Start(ctx context.Context) error {
	p.ctx = ctx

	p.opts = mqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%s", p.cfg.Schema, p.cfg.Host, p.cfg.Port)).
		SetUsername(p.cfg.User).
		SetPassword(p.cfg.Password).
		SetOnConnectHandler(p.connectHandler).
		SetConnectionLostHandler(p.connectLostHandler).
		SetClientID(p.cfg.ClientID).
		SetWill(StatusTopic(p.cfg.TopicPrefix), statusOffline, p.cfg.Qos, true).
		SetOrderMatters(false).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetMaxReconnectInterval(5 * time.Second).
		SetKeepAlive(30 * time.Second)

	p.client = mqtt.NewClient(p.opts)

	// С ConnectRetry токен завершается только после подключения к брокеру,
	// поэтому ожидание идет в фоне и не задерживает запуск сервера.
	token := p.client.Connect()
	go func() {
		select {
		case <-token.Done():
			if err := token.Error(); err != nil {
				p.log.Module("mqtt").Errorf("connect: %v", err)
				return
			}
			p.log.Module("mqtt").Infof("Status: %v", p.client.IsConnected())
		case <-p.ctx.Done():
		}
	}()
	return nil
}

// Stop announces the server offline and disconnects.
func (p *Publisher) Stop() error {
	if p.client == nil || !p.client.IsConnected() {
		return nil
	}
	token := p.client.Publish(StatusTopic(p.cfg.TopicPrefix), p.cfg.Qos, true, statusOffline)
	token.WaitTimeout(500 * time.Millisecond)
	p.client.Disconnect(500)
	return token.Error()
}

func (p *Publisher) connectHandler(c mqtt.Client) {
	p.log.Module("mqtt").Info("client connected to server")
	c.Publish(StatusTopic(p.cfg.TopicPrefix), p.cfg.Qos, true, statusOnline)
}

func (p *Publisher) connectLostHandler(_ mqtt.Client, err error) {
	p.log.Module("mqtt").Errorf("server connect lost: %v", err)
}

// MotorApplied publishes s retained on the motor's state topic.
func (p *Publisher) MotorApplied(s motor.State) {
	if p.client == nil {
		return
	}
	topic := StateTopic(p.cfg.TopicPrefix, s.Motor)
	msg, err := json.Marshal(p.payload(s))
	if err != nil {
		p.log.Module("mqtt").Errorf("state payload: %v", err)
		return
	}

	token := p.client.Publish(topic, p.cfg.Qos, true, msg)
	go func() {
		select {
		case <-p.ctx.Done():
			return
		case <-token.Done():
			if token.Error() != nil {
				p.log.Module("mqtt").Errorf("error publish topic %s. %v", topic, token.Error())
				return
			}
		}
		p.log.Module("mqtt").Debugf("topic %s published", topic)
	}()
}

func (p *Publisher) payload(s motor.State) StatePayload {
	return StatePayload{
		Motor:     int(s.Motor),
		Direction: s.Direction.String(),
		Speed:     uint16(s.Speed),
		Time:      p.now().UTC(),
	}
}

// StateTopic returns <prefix>/motor/<id>/state.
func StateTopic(prefix string, id motor.ID) string {
	return fmt.Sprintf("%s/motor/%d/state", prefix, id)
}

// StatusTopic returns <prefix>/status.
func StatusTopic(prefix string) string {
	return prefix + "/status"
}
