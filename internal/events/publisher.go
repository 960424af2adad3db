package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/tradein-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/tradein-core/internal/resolver"
)

// ResolutionEvent is the JSON body of resolution and review messages.
type ResolutionEvent struct {
	Source     resolver.Source      `json:"source"`
	Input      string               `json:"input"`
	Category   string               `json:"category,omitempty"`
	Result     resolver.MatchResult `json:"result"`
	DurationMS float64              `json:"duration_ms"`
	Timestamp  string               `json:"timestamp"`
}

// CatalogChangedEvent is the JSON body of tradein/catalog/changed.
type CatalogChangedEvent struct {
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"`
}

// Publisher implements resolver.EventPublisher over a Bus.
type Publisher struct {
	bus    Bus
	topics mqtt.Topics
}

// NewPublisher creates a publisher on bus.
func NewPublisher(bus Bus) *Publisher {
	return &Publisher{bus: bus}
}

// PublishResolution publishes r on its strategy topic, and on the review
// topic when the result needs a human.
func (p *Publisher) PublishResolution(r resolver.Resolution) error {
	payload, err := json.Marshal(newResolutionEvent(r))
	if err != nil {
		return fmt.Errorf("encoding resolution event: %w", err)
	}

	if err := p.bus.Publish(p.topics.Resolution(string(r.Result.Strategy)), payload, p.bus.QoS(), false); err != nil {
		return fmt.Errorf("publishing resolution: %w", err)
	}
	if r.Result.NeedsReview() {
		if err := p.bus.Publish(p.topics.Review(), payload, p.bus.QoS(), false); err != nil {
			return fmt.Errorf("publishing review: %w", err)
		}
	}
	return nil
}

// PublishCatalogChanged tells every instance to drop its library snapshot.
func (p *Publisher) PublishCatalogChanged(reason string) error {
	payload, err := json.Marshal(CatalogChangedEvent{
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("encoding catalog event: %w", err)
	}
	if err := p.bus.Publish(p.topics.CatalogChanged(), payload, p.bus.QoS(), false); err != nil {
		return fmt.Errorf("publishing catalog change: %w", err)
	}
	return nil
}

func newResolutionEvent(r resolver.Resolution) ResolutionEvent {
	return ResolutionEvent{
		Source:     r.Source,
		Input:      r.Input,
		Category:   r.Category,
		Result:     r.Result,
		DurationMS: float64(r.Duration) / float64(time.Millisecond),
		Timestamp:  r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}
