package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/tradein-core/internal/infrastructure/mqtt"
)

const (
	// commandTimeout bounds the store write behind one alias command.
	commandTimeout = 5 * time.Second

	// DefaultCommandCreatedBy is recorded on aliases whose command omits created_by.
	DefaultCommandCreatedBy = "mqtt"
)

// AliasSaver is satisfied by *resolver.Engine.
type AliasSaver interface {
	SaveAlias(ctx context.Context, text, deviceID, createdBy string) error
}

// Invalidator is satisfied by *catalog.Cache.
type Invalidator interface {
	Invalidate()
}

// AliasCommand is the JSON body of tradein/command/alias.
type AliasCommand struct {
	Alias     string `json:"alias"`
	DeviceID  string `json:"device_id"`
	CreatedBy string `json:"created_by"`
}

// Listener applies bus commands to the alias store and library cache.
type Listener struct {
	bus     Bus
	aliases AliasSaver
	cache   Invalidator
	topics  mqtt.Topics
	logger  Logger

	ctx context.Context
}

// NewListener creates a listener. Start must be called to subscribe.
func NewListener(bus Bus, aliases AliasSaver, cache Invalidator) *Listener {
	return &Listener{
		bus:     bus,
		aliases: aliases,
		cache:   cache,
		logger:  noopLogger{},
		ctx:     context.Background(),
	}
}

// SetLogger sets the logger for the listener.
func (l *Listener) SetLogger(logger Logger) {
	l.logger = logger
}

// Start subscribes to the alias command and catalog change topics.
// Commands handled after ctx is cancelled fail with ctx's error.
func (l *Listener) Start(ctx context.Context) error {
	l.ctx = ctx

	aliasTopic := l.topics.AliasCommand()
	if err := l.bus.Subscribe(aliasTopic, l.bus.QoS(), l.handleAliasCommand); err != nil {
		return fmt.Errorf("subscribe to alias commands: %w", err)
	}
	l.logger.Info("subscribed to alias commands", "topic", aliasTopic)

	catalogTopic := l.topics.CatalogChanged()
	if err := l.bus.Subscribe(catalogTopic, l.bus.QoS(), l.handleCatalogChanged); err != nil {
		return fmt.Errorf("subscribe to catalog changes: %w", err)
	}
	l.logger.Info("subscribed to catalog changes", "topic", catalogTopic)

	return nil
}

func (l *Listener) handleAliasCommand(topic string, payload []byte) error {
	var cmd AliasCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return fmt.Errorf("%w on %s: %w", ErrInvalidCommand, topic, err)
	}
	createdBy := strings.TrimSpace(cmd.CreatedBy)
	if createdBy == "" {
		createdBy = DefaultCommandCreatedBy
	}

	ctx, cancel := context.WithTimeout(l.ctx, commandTimeout)
	defer cancel()

	if err := l.aliases.SaveAlias(ctx, cmd.Alias, cmd.DeviceID, createdBy); err != nil {
		return fmt.Errorf("alias command for %q: %w", cmd.Alias, err)
	}
	return nil
}

func (l *Listener) handleCatalogChanged(_ string, payload []byte) error {
	var evt CatalogChangedEvent
	// The change notice itself is the signal; a malformed body still invalidates.
	_ = json.Unmarshal(payload, &evt) //nolint:errcheck // body is informational

	l.cache.Invalidate()
	l.logger.Info("library cache invalidated", "reason", evt.Reason)
	return nil
}
