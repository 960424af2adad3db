package resolver

import (
	"errors"

	"github.com/nerrad567/tradein-core/internal/catalog"
)

// Confidence grades how far a resolution can be trusted without review.
type Confidence string

// Confidence tiers.
const (
	// ConfidenceHigh is an exact or single unambiguous match.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium is a single fuzzy or token match at or above the
	// medium threshold, or an outcome reached through storage disambiguation.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow is a speculative match or no match at all.
	ConfidenceLow Confidence = "low"
)

// Strategy names the resolution step that produced a MatchResult.
type Strategy string

// Resolution strategies, in the order the engine tries them.
const (
	StrategyAlias        Strategy = "alias"
	StrategyExact        Strategy = "exact"
	StrategyModel        Strategy = "model"
	StrategyFuzzy        Strategy = "fuzzy"
	StrategyExactText    Strategy = "exact_text"
	StrategyTokenOverlap Strategy = "token_overlap"
	StrategyNone         Strategy = "none"
)

// MatchResult is the outcome of a resolution.
//
// Exactly one of three shapes is produced:
//   - resolved: DeviceID set, no selection flags
//   - storage selection: StorageOptions set, NeedsStorageSelection, no DeviceID
//   - manual: NeedsManualSelection, ConfidenceLow, no DeviceID
type MatchResult struct {
	DeviceID              string     `json:"device_id,omitempty"`
	DeviceName            string     `json:"device_name,omitempty"`
	Storage               string     `json:"storage,omitempty"`
	Confidence            Confidence `json:"match_confidence"`
	StorageOptions        []string   `json:"storage_options,omitempty"`
	NeedsStorageSelection bool       `json:"needs_storage_selection"`
	NeedsManualSelection  bool       `json:"needs_manual_selection"`
	Strategy              Strategy   `json:"strategy"`
}

// Resolved reports whether the result names a device.
func (r MatchResult) Resolved() bool {
	return r.DeviceID != ""
}

// NeedsReview reports whether a human has to look at the result before the
// device can be priced automatically.
func (r MatchResult) NeedsReview() bool {
	return !(r.Resolved() && r.Confidence == ConfidenceHigh)
}

var errInconsistentResult = errors.New("resolver: inconsistent match result")

// Validate checks the structural invariants between the result fields.
func (r MatchResult) Validate() error {
	if r.Resolved() && r.NeedsStorageSelection {
		return errInconsistentResult
	}
	if r.StorageOptions != nil && (r.Resolved() || !r.NeedsStorageSelection) {
		return errInconsistentResult
	}
	if r.NeedsManualSelection && r.Resolved() {
		return errInconsistentResult
	}
	return nil
}

func resolvedResult(d catalog.LibraryDevice, confidence Confidence, strategy Strategy) MatchResult {
	return MatchResult{
		DeviceID:   d.ID,
		DeviceName: d.DisplayName(),
		Storage:    d.Storage,
		Confidence: confidence,
		Strategy:   strategy,
	}
}

func storageSelection(d catalog.LibraryDevice, options []string, strategy Strategy) MatchResult {
	return MatchResult{
		DeviceName:            d.DisplayName(),
		Confidence:            ConfidenceMedium,
		StorageOptions:        options,
		NeedsStorageSelection: true,
		Strategy:              strategy,
	}
}

func manualResult(strategy Strategy) MatchResult {
	return MatchResult{
		Confidence:           ConfidenceLow,
		NeedsManualSelection: true,
		Strategy:             strategy,
	}
}
