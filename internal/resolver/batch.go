package resolver

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// RowResult is the resolution of one manifest row.
type RowResult struct {
	Row    int         `json:"row"`
	Input  string      `json:"input"`
	Result MatchResult `json:"result"`
}

// Summary counts manifest outcomes.
type Summary struct {
	Total int `json:"total"`

	// AutoPriced rows resolved at high confidence.
	AutoPriced int `json:"auto_priced"`

	// Review rows name a device or a storage choice but need a human check.
	Review int `json:"review"`

	// Manual rows could not be matched.
	Manual int `json:"manual"`

	ByStrategy map[Strategy]int `json:"by_strategy"`
}

// ResolveBatch resolves manifest rows with at most Options.BatchWorkers rows
// in flight. Results are in row order. The first library or alias store
// failure cancels the remaining rows and is returned.
func (e *Engine) ResolveBatch(ctx context.Context, rows []string, category string) ([]RowResult, error) {
	results := make([]RowResult, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.BatchWorkers)

	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.MatchDeviceString(gctx, row, category)
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			results[i] = RowResult{Row: i, Input: row, Result: res}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarise counts the outcomes of a resolved manifest.
func Summarise(rows []RowResult) Summary {
	s := Summary{Total: len(rows), ByStrategy: make(map[Strategy]int)}
	for _, r := range rows {
		s.ByStrategy[r.Result.Strategy]++
		switch {
		case r.Result.NeedsManualSelection:
			s.Manual++
		case r.Result.NeedsReview():
			s.Review++
		default:
			s.AutoPriced++
		}
	}
	return s
}
