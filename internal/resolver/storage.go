package resolver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// storagePattern finds a capacity such as "128GB", "1 TB" or the glued
// "1164G" of a spreadsheet cell. A bare "G" or "T" must touch its digits,
// so "S8 T-Mobile" carries no capacity.
var storagePattern = regexp.MustCompile(`(?i)(\d+)(?:\s*(gb|tb)|(g|t))\b`)

// exactStoragePattern matches a string that is nothing but a capacity.
var exactStoragePattern = regexp.MustCompile(`(?i)^(\d+)(?:\s*(gb|tb)|(g|t))$`)

// Capacities sold in consumer devices. Anything else is treated as model
// text ("5G", "S21").
var (
	knownGB = map[int]bool{8: true, 16: true, 32: true, 64: true, 128: true, 256: true, 512: true, 1024: true, 2048: true}
	knownTB = map[int]bool{1: true, 2: true, 4: true, 8: true}
)

// ExtractStorage removes the first recognisable capacity from input and
// returns its canonical label ("64GB", "1TB") and the remaining text with
// whitespace collapsed.
//
// When the digits run into model digits, as in "IPH1164G", the longest
// trailing run that is a known capacity is taken and the leading digits
// stay in the remainder ("IPH11"). Occurrences that yield no known capacity
// are skipped.
func ExtractStorage(input string) (label, remainder string, ok bool) {
	for _, m := range storagePattern.FindAllStringSubmatchIndex(input, -1) {
		digits := input[m[2]:m[3]]
		unit := storageUnit(input, m)

		for start := 0; start < len(digits); start++ {
			if digits[start] == '0' {
				continue
			}
			l, known := canonicalStorage(digits[start:], unit)
			if !known {
				continue
			}
			rest := input[:m[2]+start] + " " + input[m[1]:]
			return l, collapseSpace(rest), true
		}
	}
	return "", collapseSpace(input), false
}

// canonicalStorage builds the label for a digit run and unit.
// 1024GB and 2048GB are expressed in TB.
func canonicalStorage(digits, unit string) (string, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return "", false
	}
	switch strings.ToLower(unit) {
	case "gb", "g":
		if !knownGB[n] {
			return "", false
		}
		if n >= 1024 {
			return strconv.Itoa(n/1024) + "TB", true
		}
		return strconv.Itoa(n) + "GB", true
	case "tb", "t":
		if !knownTB[n] {
			return "", false
		}
		return strconv.Itoa(n) + "TB", true
	}
	return "", false
}

// parseStorage canonicalises a string that consists only of a capacity.
func parseStorage(s string) (string, bool) {
	m := exactStoragePattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return "", false
	}
	return canonicalStorage(m[1], m[2]+m[3])
}

// storageUnit returns the unit group that took part in a storagePattern
// match: the spaced two-letter form or the glued single letter.
func storageUnit(input string, m []int) string {
	if m[4] >= 0 {
		return input[m[4]:m[5]]
	}
	return input[m[6]:m[7]]
}

// storageKey is the comparison form of a storage value: the canonical label
// when it parses, otherwise the value uppercased with whitespace removed.
func storageKey(s string) string {
	if label, ok := parseStorage(s); ok {
		return label
	}
	return strings.ToUpper(strings.Join(strings.Fields(s), ""))
}

// capacityGB returns the size of a storage value in GB.
func capacityGB(s string) (int, bool) {
	label, ok := parseStorage(s)
	if !ok {
		return 0, false
	}
	n, _ := strconv.Atoi(label[:len(label)-2]) //nolint:errcheck // label is digits plus unit
	if strings.HasSuffix(label, "TB") {
		n *= 1024
	}
	return n, true
}

// sortStorageOptions sorts distinct storage labels by capacity, placing
// values that do not parse last in lexical order.
func sortStorageOptions(options []string) {
	sort.SliceStable(options, func(i, j int) bool {
		a, aok := capacityGB(options[i])
		b, bok := capacityGB(options[j])
		switch {
		case aok && bok:
			return a < b
		case aok != bok:
			return aok
		default:
			return options[i] < options[j]
		}
	})
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
