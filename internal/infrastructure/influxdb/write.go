package influxdb

import (
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	measurementResolutions = "resolutions"
	measurementManifests   = "manifests"
)

// anyCategory tags points for requests that did not narrow by category.
const anyCategory = "any"

// WriteResolutionMetric records one resolution outcome. Tags are low
// cardinality (strategy, confidence, category); the latency is a field.
//
// Example:
//
//	client.WriteResolutionMetric("fuzzy", "medium", "phone", 3*time.Millisecond)
func (c *Client) WriteResolutionMetric(strategy, confidence, category string, d time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(resolutionPoint(strategy, confidence, category, d, time.Now()))
}

// WriteManifestMetric records the summary counts of one manifest import.
func (c *Client) WriteManifestMetric(category string, total, autoPriced, review, manual int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(manifestPoint(category, total, autoPriced, review, manual, time.Now()))
}

func resolutionPoint(strategy, confidence, category string, d time.Duration, at time.Time) *write.Point {
	if strategy == "" {
		strategy = "none"
	}
	return write.NewPoint(
		measurementResolutions,
		map[string]string{
			"strategy":   strategy,
			"confidence": confidence,
			"category":   categoryTag(category),
		},
		map[string]interface{}{
			"duration_ms": float64(d) / float64(time.Millisecond),
			"count":       int64(1),
		},
		at,
	)
}

func manifestPoint(category string, total, autoPriced, review, manual int, at time.Time) *write.Point {
	return write.NewPoint(
		measurementManifests,
		map[string]string{"category": categoryTag(category)},
		map[string]interface{}{
			"rows":        int64(total),
			"auto_priced": int64(autoPriced),
			"review":      int64(review),
			"manual":      int64(manual),
		},
		at,
	)
}

// categoryTag lowercases and trims category so "Phone" and "phone" share
// a series.
func categoryTag(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return anyCategory
	}
	return category
}
