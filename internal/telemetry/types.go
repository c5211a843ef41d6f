package telemetry

import "time"

type MQTTConf struct {
	ClientID    string // ClientID - уникальное имя клиента для брокеров.
	Schema      string // Schema - тип подключения.
	Host        string // Host - адрес MQTT сервера.
	Port        string // Port - порт MQTT сервера.
	User        string // User - логин для подключения к MQTT серверу.
	Password    string // Password - пароль для подключения к MQTT серверу.
	Qos         byte   // Qos - качество обслуживания.
	TopicPrefix string // TopicPrefix - корень топиков.
}

// StatePayload is published retained on <prefix>/motor/<id>/state.
type StatePayload struct {
	Motor     int       `json:"motor"`
	Direction string    `json:"direction"`
	Speed     uint16    `json:"speed"`
	Time      time.Time `json:"time"`
}

const (
	statusOnline  = "online"
	statusOffline = "offline"
)
