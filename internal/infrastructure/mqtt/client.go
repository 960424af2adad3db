package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/tradein-core/internal/infrastructure/config"
)

// broker is the part of pahomqtt.Client the trade-in client drives.
type broker interface {
	Connect() pahomqtt.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token
	Subscribe(topic string, qos byte, callback pahomqtt.MessageHandler) pahomqtt.Token
	Unsubscribe(topics ...string) pahomqtt.Token
	Disconnect(quiesce uint)
}

// Client is the service's connection to the trade-in event bus.
//
// It keeps the retained tradein/system/status topic current for this
// client ID and replays its route table whenever paho re-establishes the
// session. All methods are safe for concurrent use.
type Client struct {
	conn   broker
	cfg    config.MQTTConfig
	routes routeTable
	online atomic.Bool

	hookMu sync.RWMutex
	hooks  hooks
}

// hooks are the optional observers of the connection.
type hooks struct {
	onConnect    func()
	onDisconnect func(err error)
	logger       Logger
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers run on paho's goroutines and should return quickly. A returned
// error is logged and does not affect acknowledgment.
type MessageHandler func(topic string, payload []byte) error

// Connect establishes a connection to the MQTT broker.
//
// The broker is told to publish an offline status on tradein/system/status
// if the connection drops unexpectedly; an online status is published
// retained on every (re)connect. Connect fails with ErrConnectionFailed
// when the first attempt does not complete within defaultConnectTimeout.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{cfg: cfg}

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.sessionUp() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.sessionDown(err) })
	opts.SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
		c.warn("mqtt reconnecting", "broker", cfg.Broker.Host)
	})

	c.conn = pahomqtt.NewClient(opts)
	if err := await(c.conn.Connect(), defaultConnectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}

	// sessionUp runs on its own goroutine and can trail Connect.
	c.online.Store(true)
	return c, nil
}

// await waits up to limit for token and wraps a failure or timeout in kind.
func await(token pahomqtt.Token, limit time.Duration, kind error) error {
	if !token.WaitTimeout(limit) {
		return fmt.Errorf("%w: timeout after %v", kind, limit)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	return nil
}

// sessionUp runs after every successful connect. The will may have
// replaced our retained status, and the clean session has dropped every
// subscription, so both are re-sent before observers hear about it.
func (c *Client) sessionUp() {
	c.online.Store(true)

	if err := c.announce(statusOnline, ""); err != nil {
		c.warn("mqtt status publish failed", "error", err)
	}
	for _, r := range c.routes.ordered() {
		token := c.conn.Subscribe(r.filter, r.qos, c.deliver(r.handler))
		if err := await(token, defaultPublishTimeout, ErrSubscribeFailed); err != nil {
			c.warn("mqtt resubscribe failed", "topic", r.filter, "error", err)
		}
	}

	if fn := c.currentHooks().onConnect; fn != nil {
		fn()
	}
}

func (c *Client) sessionDown(err error) {
	c.online.Store(false)

	if fn := c.currentHooks().onDisconnect; fn != nil {
		fn(err)
	}
}

// announce publishes this client's retained status on tradein/system/status.
func (c *Client) announce(status, reason string) error {
	payload := buildStatusPayload(c.cfg.Broker.ClientID, status, reason, time.Now())
	token := c.conn.Publish(Topics{}.SystemStatus(), c.QoS(), true, payload)
	return await(token, defaultPublishTimeout, ErrPublishFailed)
}

// Close publishes a graceful offline status and disconnects, allowing
// in-flight operations a short quiesce period.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}

	if c.IsConnected() {
		// Best effort: the will covers a status that never arrives.
		_ = c.announce(statusOffline, reasonGraceful)
	}

	c.conn.Disconnect(defaultDisconnectQuiesce)
	c.online.Store(false)
	return nil
}

// HealthCheck returns ErrNotConnected when the broker connection is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.online.Load() && c.conn.IsConnected()
}

// SetOnConnect sets a callback invoked after every connect, once the
// status and subscriptions have been restored.
func (c *Client) SetOnConnect(callback func()) {
	c.hookMu.Lock()
	c.hooks.onConnect = callback
	c.hookMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when the connection is lost.
// The error parameter describes why.
func (c *Client) SetOnDisconnect(callback func(err error)) {
	c.hookMu.Lock()
	c.hooks.onDisconnect = callback
	c.hookMu.Unlock()
}

// SetLogger sets a logger for handler errors, panics and reconnects.
func (c *Client) SetLogger(logger Logger) {
	c.hookMu.Lock()
	c.hooks.logger = logger
	c.hookMu.Unlock()
}

func (c *Client) currentHooks() hooks {
	c.hookMu.RLock()
	defer c.hookMu.RUnlock()
	return c.hooks
}

func (c *Client) warn(msg string, args ...any) {
	if logger := c.currentHooks().logger; logger != nil {
		logger.Warn(msg, args...)
	}
}

// deliver adapts handler to paho. Panics are contained and errors logged;
// neither affects acknowledgment.
func (c *Client) deliver(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				if logger := c.currentHooks().logger; logger != nil {
					logger.Error("mqtt handler panic recovered", "topic", msg.Topic(), "panic", r)
				}
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.warn("mqtt handler failed", "topic", msg.Topic(), "error", err)
		}
	}
}
