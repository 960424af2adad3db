// Package resolver maps noisy device descriptors to canonical library
// devices with a graded confidence.
//
// Two entry points exist. MatchToLibrary takes structured make, model and
// storage fields (an IMEI lookup). MatchDeviceString takes a raw string
// (a manifest cell such as "IPH1164G" or "Galaxy S21 Ultra 256GB").
//
// # Pipeline
//
//	raw string
//	    │
//	    ▼
//	┌──────────────┐ hit
//	│  Alias store │────────────────────────────────▶ high
//	└──────────────┘
//	    │ miss
//	    ▼
//	┌──────────────┐ brand + model text ┌──────────────────────┐
//	│  Extractor   │───────────────────▶│  Structured matcher  │── device or
//	└──────────────┘                    │  exact → model →     │   storage choice
//	    │ no brand                      │  fuzzy               │
//	    │◀──────────────────────────────└──────────────────────┘
//	    ▼
//	┌──────────────────────┐
//	│  Free-text matcher   │── exact text → token overlap
//	└──────────────────────┘
//
// The matchers (MatchToLibrary, MatchFreeText, ScoreTokens) are pure
// functions over a device slice so they can be tested without a store.
// Engine adds library and alias I/O, auto-alias write-back, events and
// telemetry.
//
// # Confidence
//
//   - high: exact match, single unambiguous candidate, or alias hit
//   - medium: single fuzzy or token match scoring at least 0.8, or an
//     outcome reached through storage disambiguation
//   - low: a token match below 0.8, or nothing (NeedsManualSelection)
//
// # Brand table
//
// Brand aliases are data. The built-in DefaultBrandRules can be replaced by
// a YAML file loaded with LoadBrandTable:
//
//	brands:
//	  - brand: Apple
//	    aliases: [apple, iphone, ipad, iph, ip]
//	  - brand: Samsung
//	    aliases: [samsung, galaxy]
//
// Earlier brands win when aliases overlap.
package resolver
