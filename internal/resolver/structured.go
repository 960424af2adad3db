package resolver

import (
	"strings"

	"github.com/nerrad567/tradein-core/internal/catalog"
)

// fuzzyTokenThreshold is the share of input model tokens a device model
// must contain to be a fuzzy candidate.
const fuzzyTokenThreshold = 0.8

// Query is a structured resolution request.
type Query struct {
	Make    string
	Model   string
	Storage string

	// Raw is the descriptor Make and Model were extracted from, if any.
	// It only breaks ties between equally close models.
	Raw string
}

// MatchToLibrary resolves a structured query against devices, which the
// caller has already filtered to the active devices of the wanted category.
//
// Strategies are tried in order and the first that yields candidates wins:
// exact make, model and storage; model-level containment; fuzzy token
// overlap on the model text.
func MatchToLibrary(devices []catalog.LibraryDevice, q Query) MatchResult {
	mk := foldText(q.Make)
	model := foldText(q.Model)
	if mk == "" || model == "" {
		return manualResult(StrategyNone)
	}

	sameMake := make([]catalog.LibraryDevice, 0, len(devices))
	for _, d := range devices {
		if foldText(d.Make) == mk {
			sameMake = append(sameMake, d)
		}
	}

	if q.Storage != "" {
		want := storageKey(q.Storage)
		for _, d := range sameMake {
			if foldText(d.Model) == model && storageKey(d.Storage) == want {
				return resolvedResult(d, ConfidenceHigh, StrategyExact)
			}
		}
	}

	var candidates []catalog.LibraryDevice
	for _, d := range sameMake {
		m := foldText(d.Model)
		if m == model || strings.Contains(m, model) || strings.Contains(model, m) {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) > 0 {
		return disambiguate(candidates, q, ConfidenceHigh, StrategyModel)
	}

	candidates = fuzzyCandidates(sameMake, model)
	if len(candidates) == 0 {
		return manualResult(StrategyFuzzy)
	}
	return disambiguate(candidates, q, ConfidenceMedium, StrategyFuzzy)
}

// fuzzyCandidates keeps devices whose model text contains at least
// fuzzyTokenThreshold of the whitespace/hyphen separated model tokens.
func fuzzyCandidates(devices []catalog.LibraryDevice, model string) []catalog.LibraryDevice {
	toks := strings.FieldsFunc(model, func(r rune) bool { return r == ' ' || r == '-' })
	if len(toks) == 0 {
		return nil
	}

	var out []catalog.LibraryDevice
	for _, d := range devices {
		m := foldText(d.Model)
		hits := 0
		for _, t := range toks {
			if strings.Contains(m, t) {
				hits++
			}
		}
		if float64(hits)/float64(len(toks)) >= fuzzyTokenThreshold {
			out = append(out, d)
		}
	}
	return out
}

// disambiguate narrows several candidates to one device, a storage choice
// or a manual selection. single is the confidence of an unambiguous pick;
// storage-based picks are capped at medium unless single is high and the
// storage matched exactly. A pick whose model lacks some of the query's
// model tokens is capped at medium too.
func disambiguate(candidates []catalog.LibraryDevice, q Query, single Confidence, strategy Strategy) MatchResult {
	pick := func(d catalog.LibraryDevice, confidence Confidence) MatchResult {
		if confidence == ConfidenceHigh && lacksQueryTokens(d, q) {
			confidence = ConfidenceMedium
		}
		return resolvedResult(d, confidence, strategy)
	}

	if len(candidates) == 1 {
		return pick(candidates[0], single)
	}

	closest := closestModels(candidates, q)
	if len(closest) == 1 {
		return pick(closest[0], single)
	}

	if q.Storage != "" {
		want := storageKey(q.Storage)

		var exact []catalog.LibraryDevice
		for _, d := range closest {
			if storageKey(d.Storage) == want {
				exact = append(exact, d)
			}
		}
		if len(exact) == 1 {
			return pick(exact[0], single)
		}

		var partial []catalog.LibraryDevice
		for _, d := range closest {
			have := storageKey(d.Storage)
			if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
				partial = append(partial, d)
			}
		}
		if len(partial) == 1 {
			return resolvedResult(partial[0], ConfidenceMedium, strategy)
		}
	}

	if sameMakeModel(closest) {
		return storageOutcome(closest, strategy)
	}
	return manualResult(strategy)
}

// storageOutcome turns variants of one make+model into a storage choice.
// Variants that do not differ in storage resolve to the first of them.
func storageOutcome(variants []catalog.LibraryDevice, strategy Strategy) MatchResult {
	options := distinctStorages(variants)
	if len(options) < 2 {
		return resolvedResult(variants[0], ConfidenceMedium, strategy)
	}
	return storageSelection(variants[0], options, strategy)
}

// lacksQueryTokens reports whether the query model has tokens that d's
// model does not, as when "iPhone 11 Pro Max" lands on "iPhone 11 Pro".
func lacksQueryTokens(d catalog.LibraryDevice, q Query) bool {
	have := tokenSet(d.Model)
	for t := range tokenSet(q.Model) {
		if _, ok := have[t]; !ok {
			return true
		}
	}
	return false
}

// closestModels returns the candidates whose model is nearest to the query.
// An exact model beats any other; otherwise fewer tokens differing between
// the two models is nearer, then fewer device model tokens absent from the
// raw descriptor.
func closestModels(candidates []catalog.LibraryDevice, q Query) []catalog.LibraryDevice {
	model := foldText(q.Model)
	want := tokenSet(model)
	raw := foldText(q.Raw)

	type rank struct{ inexact, diff, absent int }
	less := func(a, b rank) bool {
		if a.inexact != b.inexact {
			return a.inexact < b.inexact
		}
		if a.diff != b.diff {
			return a.diff < b.diff
		}
		return a.absent < b.absent
	}

	ranks := make([]rank, len(candidates))
	best := -1
	for i, d := range candidates {
		have := tokenSet(d.Model)
		r := rank{diff: symmetricDifference(want, have)}
		if foldText(d.Model) != model {
			r.inexact = 1
		}
		if raw != "" {
			for t := range have {
				if !strings.Contains(raw, t) {
					r.absent++
				}
			}
		}
		ranks[i] = r
		if best < 0 || less(r, ranks[best]) {
			best = i
		}
	}

	var out []catalog.LibraryDevice
	for i, d := range candidates {
		if ranks[i] == ranks[best] {
			out = append(out, d)
		}
	}
	return out
}

func symmetricDifference(a, b map[string]struct{}) int {
	n := 0
	for t := range a {
		if _, ok := b[t]; !ok {
			n++
		}
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			n++
		}
	}
	return n
}

func sameMakeModel(devices []catalog.LibraryDevice) bool {
	first := foldText(devices[0].Make) + "\x00" + foldText(devices[0].Model)
	for _, d := range devices[1:] {
		if foldText(d.Make)+"\x00"+foldText(d.Model) != first {
			return false
		}
	}
	return true
}

// distinctStorages returns the non-empty storages of devices, deduplicated
// by storageKey and sorted by capacity.
func distinctStorages(devices []catalog.LibraryDevice) []string {
	seen := make(map[string]bool, len(devices))
	var out []string
	for _, d := range devices {
		key := storageKey(d.Storage)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, strings.TrimSpace(d.Storage))
	}
	sortStorageOptions(out)
	return out
}
