package influxdb

import (
	"context"
	"fmt"
	"time"
)

// ResolutionCounts returns the number of resolutions per strategy over the
// trailing window.
func (c *Client) ResolutionCounts(ctx context.Context, window time.Duration) (map[string]int64, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}

	result, err := c.queryAPI.Query(ctx, resolutionCountsQuery(c.cfg.Bucket, window))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	defer result.Close()

	counts := make(map[string]int64)
	for result.Next() {
		record := result.Record()
		strategy, _ := record.ValueByKey("strategy").(string)
		switch v := record.Value().(type) {
		case int64:
			counts[strategy] += v
		case float64:
			counts[strategy] += int64(v)
		}
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return counts, nil
}

func resolutionCountsQuery(bucket string, window time.Duration) string {
	if window <= 0 {
		window = time.Hour
	}
	return fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%ds)
  |> filter(fn: (r) => r._measurement == %q and r._field == "count")
  |> group(columns: ["strategy"])
  |> sum()`, bucket, int64(window/time.Second), measurementResolutions)
}
