// Package bridge republishes camera state from the bus to an MQTT broker.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"tofcam-go/bus"
	"tofcam-go/errcode"
	"tofcam-go/services/config"
)

// Publisher is the part of mqtt.Client the bridge uses.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

var _ Publisher = mqtt.Client(nil)

// StatePattern selects what is forwarded.
var StatePattern = bus.T("camera", "+", "state", "#")

const publishTimeout = 2 * time.Second

type Bridge struct {
	pub    Publisher
	prefix string
	qos    byte
	log    *slog.Logger

	published atomic.Uint64
	failed    atomic.Uint64
}

func New(pub Publisher, cfg config.MQTT, log *slog.Logger) *Bridge {
	if log == nil {
		log = slog.Default()
	}
	prefix := cfg.TopicPrefix
	if prefix == "" {
		prefix = config.DefaultTopicPrefix
	}
	return &Bridge{pub: pub, prefix: prefix, qos: cfg.QoS, log: log}
}

// Dial connects a paho client. Reconnects are left to the client.
func Dial(cfg config.MQTT, log *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(10 * time.Second)
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		log.Warn("bridge: mqtt connection lost", "broker", cfg.Broker, "err", err)
	}
	c := mqtt.NewClient(opts)
	tok := c.Connect()
	if !tok.WaitTimeout(5 * time.Second) {
		return nil, errcode.New(errcode.Timeout, "mqtt_connect", cfg.Broker, nil)
	}
	if err := tok.Error(); err != nil {
		return nil, errcode.New(errcode.Error, "mqtt_connect", cfg.Broker, err)
	}
	log.Info("bridge: mqtt connected", "broker", cfg.Broker, "client_id", cfg.ClientID)
	return c, nil
}

// Run forwards state messages until ctx ends.
func (b *Bridge) Run(ctx context.Context, conn *bus.Connection) {
	sub := conn.Subscribe(StatePattern)
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-sub.Channel():
			if !ok {
				return
			}
			if err := b.forward(m); err != nil {
				b.failed.Add(1)
				b.log.Error("bridge: publish failed", "topic", strings.Join(m.Topic, "/"), "err", err)
				continue
			}
			b.published.Add(1)
		}
	}
}

// RemoteTopic maps a bus topic to its MQTT name.
func (b *Bridge) RemoteTopic(t bus.Topic) string {
	return b.prefix + "/" + strings.Join(t, "/")
}

func (b *Bridge) forward(m *bus.Message) error {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return errcode.New(errcode.InvalidPayload, "bridge_publish", "encode", err)
	}
	tok := b.pub.Publish(b.RemoteTopic(m.Topic), b.qos, m.Retained, payload)
	if !tok.WaitTimeout(publishTimeout) {
		return errcode.New(errcode.Timeout, "bridge_publish", "no ack", nil)
	}
	if err := tok.Error(); err != nil {
		return errcode.New(errcode.Error, "bridge_publish", "", err)
	}
	return nil
}

// Stats returns forwarded and failed message counts.
func (b *Bridge) Stats() (published, failed uint64) {
	return b.published.Load(), b.failed.Load()
}
