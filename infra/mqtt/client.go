package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	coremon "github.com/kilianp07/evdash/core/monitoring"
	coremqtt "github.com/kilianp07/evdash/core/mqtt"
	"github.com/kilianp07/evdash/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker           string          `json:"broker"`
	ClientIDPrefix   string          `json:"client_id_prefix"`
	Username         string          `json:"username"`
	Password         string          `json:"password"`
	UseTLS           bool            `json:"use_tls"`
	ClientCert       string          `json:"client_cert"`
	ClientKey        string          `json:"client_key"`
	CABundle         string          `json:"ca_bundle"`
	AuthMethod       string          `json:"auth_method"`
	KeepAliveSeconds int             `json:"keep_alive_seconds"`
	ReconnectMS      int             `json:"reconnect_ms"`
	ConnectRetry     bool            `json:"connect_retry"`
	QoS              map[string]byte `json:"qos"`
	LWTTopic         string          `json:"lwt_topic"`
	LWTPayload       string          `json:"lwt_payload"`
	LWTQoS           byte            `json:"lwt_qos"`
	LWTRetain        bool            `json:"lwt_retain"`
	MaxRetries       int             `json:"max_retries"`
	BackoffMS        int             `json:"backoff_ms"`
	TLSConfig        *tls.Config     `json:"-"`
}

// SetDefaults applies the dashboard connection defaults.
func (c *Config) SetDefaults() {
	if c.Broker == "" {
		c.Broker = "ws://127.0.0.1:9001"
	}
	if c.ClientIDPrefix == "" {
		c.ClientIDPrefix = "evdash"
	}
	if c.KeepAliveSeconds <= 0 {
		c.KeepAliveSeconds = 20
	}
	if c.ReconnectMS <= 0 {
		c.ReconnectMS = 1000
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("unknown auth_method %s", c.AuthMethod)
	}
	return nil
}

func (c Config) qos(kind string) byte {
	if q, ok := c.QoS[kind]; ok {
		return q
	}
	return 0
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

const (
	quiesceMS        = 250
	unsubscribeWait  = 2 * time.Second
	connectQueueWait = 10 * time.Second
)

// Session is a paho connection subscribed to a single wildcard topic. Inbound
// messages are delivered to the handler one at a time in arrival order.
type Session struct {
	cli      pahoClient
	clientID string
	topic    string
	subQoS   byte
	pubQoS   byte
	handler  coremqtt.Handler
	logger   logger.Logger

	maxRetries int
	backoff    time.Duration

	closeOnce sync.Once
}

var _ coremqtt.Session = (*Session)(nil)

// NewSession connects to the broker and subscribes to topic on every
// successful connect, including automatic reconnects. An empty topic gives a
// publish-only session.
func NewSession(cfg Config, topic string, handler coremqtt.Handler) (*Session, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	clientID := NewClientID(cfg.ClientIDPrefix)
	opts, err := NewClientOptions(cfg, clientID)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_session")
	s := &Session{
		clientID:   clientID,
		topic:      topic,
		subQoS:     cfg.qos("telemetry"),
		pubQoS:     cfg.qos("command"),
		handler:    handler,
		logger:     log,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected as %s", clientID)
		s.subscribe(c)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
		coremon.CaptureException(err, map[string]string{"module": "mqtt", "event": "connection_lost"})
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}

	c := newMQTTClient(opts)
	s.cli = c
	token := c.Connect()
	if cfg.ConnectRetry {
		// paho keeps retrying in the background; do not block start-up on it
		if token.WaitTimeout(connectQueueWait) && token.Error() != nil {
			return nil, token.Error()
		}
		return s, nil
	}
	if token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	return s, nil
}

// NewClientID returns "<prefix>_<8 hex chars>".
func NewClientID(prefix string) string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config, clientID string) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)
	opts.SetOrderMatters(true)
	if cfg.KeepAliveSeconds > 0 {
		opts.SetKeepAlive(time.Duration(cfg.KeepAliveSeconds) * time.Second)
	}
	if cfg.ReconnectMS > 0 {
		opts.SetMaxReconnectInterval(time.Duration(cfg.ReconnectMS) * time.Millisecond)
		opts.SetConnectRetryInterval(time.Duration(cfg.ReconnectMS) * time.Millisecond)
	}
	opts.SetConnectRetry(cfg.ConnectRetry)
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	cfg := &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}
	return cfg, nil
}

// ClientID returns the identifier used for this connection.
func (s *Session) ClientID() string { return s.clientID }

// Topic returns the subscribed wildcard.
func (s *Session) Topic() string { return s.topic }

func (s *Session) subscribe(c paho.Client) {
	if s.topic == "" {
		return
	}
	s.logger.Infof("MQTT subscribe %s", s.topic)
	if token := c.Subscribe(s.topic, s.subQoS, s.onMessage); token.Wait() && token.Error() != nil {
		s.logger.Errorf("subscribe %s: %v", s.topic, token.Error())
		coremon.CaptureException(token.Error(), map[string]string{"module": "mqtt", "topic": s.topic})
	}
}

func (s *Session) onMessage(_ paho.Client, msg paho.Message) {
	if s.handler == nil {
		return
	}
	s.handler(msg.Topic(), string(msg.Payload()))
}

// IsConnected reports whether the transport is up.
func (s *Session) IsConnected() bool {
	return s.cli != nil && s.cli.IsConnected()
}

// Publish sends payload to topic, retrying with exponential backoff until the
// retry budget or the context runs out.
func (s *Session) Publish(ctx context.Context, topic, payload string) error {
	if s.cli == nil {
		return coremqtt.ErrNotConnected
	}
	var publishErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		token := s.cli.Publish(topic, s.pubQoS, false, payload)
		publishErr = waitToken(ctx, token)
		if publishErr == nil {
			s.logger.Infof("published %s %s", topic, payload)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt == s.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.backoff * time.Duration(1<<attempt)):
		}
	}
	coremon.CaptureException(publishErr, map[string]string{"module": "mqtt", "topic": topic})
	return publishErr
}

// Close unsubscribes from the wildcard when connected and always disconnects.
// Unsubscribe failures are only logged.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.cli == nil {
			return
		}
		// Disconnect also stops a pending reconnect loop
		if s.topic != "" && s.cli.IsConnected() {
			token := s.cli.Unsubscribe(s.topic)
			if !token.WaitTimeout(unsubscribeWait) {
				s.logger.Warnf("unsubscribe %s timed out", s.topic)
			} else if token.Error() != nil {
				s.logger.Errorf("unsubscribe %s: %v", s.topic, token.Error())
			}
		}
		s.cli.Disconnect(quiesceMS)
		s.logger.Infof("MQTT disconnected")
	})
	return nil
}

func waitToken(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}
