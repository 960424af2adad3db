package resolver

import (
	"strings"

	"github.com/nerrad567/tradein-core/internal/catalog"
)

// Token overlap thresholds.
const (
	// MinTokenScore is the lowest score a device needs to be considered.
	MinTokenScore = 0.6

	// MediumTokenScore is the lowest score resolved at medium confidence.
	MediumTokenScore = 0.8
)

// ScoreTokens returns the share of distinct input tokens that also appear
// in deviceText. Extra input tokens that match nothing can only lower it.
func ScoreTokens(deviceText, input string) float64 {
	in := tokenSet(input)
	if len(in) == 0 {
		return 0
	}
	return float64(overlap(tokenSet(deviceText), in)) / float64(len(in))
}

func overlap(device, input map[string]struct{}) int {
	n := 0
	for t := range input {
		if _, ok := device[t]; ok {
			n++
		}
	}
	return n
}

// deviceText is the text a device is scored against.
func deviceText(d catalog.LibraryDevice) string {
	return d.Make + " " + d.Model + " " + d.Storage
}

// MatchFreeText resolves an unstructured descriptor against devices, which
// the caller has already filtered.
//
// A whole-string match against "{make} {model} {storage}" or
// "{model} {storage}" resolves at high confidence. Otherwise every device
// is scored with ScoreTokens and those below MinTokenScore are dropped.
// A single best device resolves at medium (or low below MediumTokenScore).
// Best devices that tie and share make and model become a storage choice;
// other ties resolve to the first in library order.
func MatchFreeText(devices []catalog.LibraryDevice, raw string) MatchResult {
	input := strings.Join(tokens(raw), " ")
	if input == "" {
		return manualResult(StrategyNone)
	}

	for _, d := range devices {
		full := strings.Join(tokens(deviceText(d)), " ")
		short := strings.Join(tokens(d.Model+" "+d.Storage), " ")
		if input == full || input == short {
			return resolvedResult(d, ConfidenceHigh, StrategyExactText)
		}
	}

	in := tokenSet(raw)
	// Every device shares the denominator, so hits order like scores.
	bestHits := 0
	var best []catalog.LibraryDevice
	for _, d := range devices {
		hits := overlap(tokenSet(deviceText(d)), in)
		if hits == 0 || float64(hits)/float64(len(in)) < MinTokenScore {
			continue
		}
		switch {
		case hits > bestHits:
			bestHits = hits
			best = append(best[:0], d)
		case hits == bestHits:
			best = append(best, d)
		}
	}
	if len(best) == 0 {
		return manualResult(StrategyTokenOverlap)
	}

	confidence := ConfidenceLow
	if float64(bestHits)/float64(len(in)) >= MediumTokenScore {
		confidence = ConfidenceMedium
	}

	if len(best) > 1 && sameMakeModel(best) {
		if options := distinctStorages(best); len(options) > 1 {
			return storageSelection(best[0], options, StrategyTokenOverlap)
		}
	}
	return resolvedResult(best[0], confidence, StrategyTokenOverlap)
}
