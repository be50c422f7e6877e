package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

const publishTimeout = 5 * time.Second

// Publisher pushes fetched responses to <prefix>/<EndpointName>.
type Publisher struct {
	client paho.Client
	logger *slog.Logger
	prefix string
	retain bool
}

func New(host string, port int16, clientId, username, password, prefix string, retain bool) *Publisher {
	logger := slog.Default().With("module", "mqtt")
	opts := paho.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", host, port))
	opts.SetClientID(clientId)
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetAutoReconnect(true)
	opts.OnConnect = func(client paho.Client) {
		logger.Info("MQTT connected", slog.String("broker", host))
	}
	opts.OnConnectionLost = func(client paho.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	pahoLogger := logger.With("component", "paho")
	paho.CRITICAL = newPahoLogger(pahoLogger, slog.LevelError)
	paho.ERROR = newPahoLogger(pahoLogger, slog.LevelError)
	paho.WARN = newPahoLogger(pahoLogger, slog.LevelWarn)

	return NewWithClient(paho.NewClient(opts), logger, prefix, retain)
}

func NewWithClient(client paho.Client, logger *slog.Logger, prefix string, retain bool) *Publisher {
	return &Publisher{client: client, logger: logger, prefix: prefix, retain: retain}
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timeout when connecting to MQTT broker")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("error when connecting to MQTT broker: %w", err)
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting MQTT client")
	p.client.Disconnect(250)
}

func (p *Publisher) Topic(endpoint string) string {
	if p.prefix == "" {
		return endpoint
	}
	return p.prefix + "/" + endpoint
}

func (p *Publisher) Publish(ctx context.Context, endpoint string, payload []byte) error {
	topic := p.Topic(endpoint)
	token := p.client.Publish(topic, 0, p.retain, payload)

	timer := time.NewTimer(publishTimeout)
	defer timer.Stop()

	select {
	case <-token.Done():
	case <-timer.C:
		return fmt.Errorf("timeout when publishing to %s", topic)
	case <-ctx.Done():
		return fmt.Errorf("publishing to %s: %w", topic, ctx.Err())
	}

	if err := token.Error(); err != nil {
		return fmt.Errorf("error when publishing to %s: %w", topic, err)
	}

	p.logger.Debug("published response", slog.String("topic", topic), slog.Int("bytes", len(payload)))
	return nil
}
