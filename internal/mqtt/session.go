// Package mqtt is the messaging session: one broker connection per wake
// cycle, single-attempt connect and publish. Retry policy lives in the
// controller, not here.
package mqtt

import (
	"context"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/ccarrizosa/EspSensor/internal/devconfig"
	"github.com/ccarrizosa/EspSensor/internal/errors"
	"github.com/ccarrizosa/EspSensor/internal/firmware"
	"github.com/ccarrizosa/EspSensor/internal/logger"
)

const (
	keepAlive      = 30 * time.Second
	pingTimeout    = 10 * time.Second
	publishTimeout = 10 * time.Second
	disconnectMs   = 250

	statusTopicSuffix   = "/status"
	identityTopicSuffix = "/$fw"

	statusOnline  = "online"
	statusOffline = "offline"
)

// EventKind is a connectivity transition reported by the broker link.
type EventKind uint8

const (
	Connected EventKind = iota
	Disconnected
)

type Event struct {
	Kind EventKind
	Err  error
}

// Session wraps a paho client for one wake cycle.
type Session struct {
	client paho.Client
	events chan Event
}

func NewSession() *Session {
	return &Session{
		events: make(chan Event, 4),
	}
}

// Events exposes connectivity transitions for event-driven callers. The
// channel is buffered; stale events are dropped rather than blocking the
// network loop.
func (s *Session) Events() <-chan Event {
	return s.events
}

// Connect performs a single connection attempt against the provisioned
// broker, bounded by timeout. On success it advertises the firmware
// identity and marks the node online, both retained.
func (s *Session) Connect(ctx context.Context, cfg devconfig.Config, timeout time.Duration) error {
	errFactory := errors.New()

	opts := paho.NewClientOptions().
		AddBroker(cfg.BrokerURL()).
		SetClientID(firmware.ClientID()).
		SetUsername(cfg.User).
		SetPassword(cfg.Password).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetConnectTimeout(timeout).
		SetAutoReconnect(false).
		SetConnectRetry(false).
		SetWill(cfg.Topic+statusTopicSuffix, statusOffline, 1, true)

	opts.OnConnect = func(paho.Client) {
		s.emit(Event{Kind: Connected})
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Debug().Err(err).Msg("Broker connection lost")
		s.emit(Event{Kind: Disconnected, Err: err})
	}

	client := paho.NewClient(opts)

	token := client.Connect()
	if !waitToken(ctx, token, timeout) {
		client.Disconnect(disconnectMs)
		return errFactory.New(ErrConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(ErrConnectFailed, err)
	}

	s.client = client
	s.announce(ctx, cfg.Topic)

	return nil
}

// announce publishes the retained identity and online status. Failures are
// logged only; discovery metadata must not fail the cycle.
func (s *Session) announce(ctx context.Context, topic string) {
	if err := s.Publish(ctx, topic+identityTopicSuffix, firmware.Identity(), true); err != nil {
		logger.Warn().Err(err).Msg("Failed to announce firmware identity")
	}
	if err := s.Publish(ctx, topic+statusTopicSuffix, []byte(statusOnline), true); err != nil {
		logger.Warn().Err(err).Msg("Failed to announce online status")
	}
}

// Publish sends one message. Exactly one attempt; the broker either takes
// the whole payload or the call fails.
func (s *Session) Publish(ctx context.Context, topic string, payload []byte, retained bool) error {
	errFactory := errors.New()

	if s.client == nil || !s.client.IsConnected() {
		return errFactory.New(ErrNotConnected)
	}

	token := s.client.Publish(topic, 1, retained, payload)
	if !waitToken(ctx, token, publishTimeout) {
		return errFactory.New(ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return errFactory.Wrap(ErrPublishFailed, err)
	}

	return nil
}

func (s *Session) IsConnected() bool {
	return s.client != nil && s.client.IsConnected()
}

func (s *Session) Disconnect() {
	if s.client == nil {
		return
	}
	if s.client.IsConnected() {
		s.client.Disconnect(disconnectMs)
	}
	s.client = nil
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}

// waitToken waits for token completion bounded by both the timeout and the
// context. Returns false on either bound expiring first.
func waitToken(ctx context.Context, token paho.Token, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-token.Done():
		return true
	case <-timer.C:
		return false
	case <-ctx.Done():
		return false
	}
}
