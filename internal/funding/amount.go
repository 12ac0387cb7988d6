// Package funding parses free-text funding amounts and builds dedupe keys so
// the same round reported by multiple sources collapses into one evidence item.
package funding

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// amountPattern matches a number with optional thousands separators and an
// optional magnitude suffix directly attached or separated by whitespace.
var amountPattern = regexp.MustCompile(`(\d[\d,]*\.?\d*)\s*(thousand|million|billion|trillion|k|m|b|t)?\b`)

// foreignCurrencyPattern catches non-USD amounts so they fail soft to zero
// instead of being mistaken for dollars.
var foreignCurrencyPattern = regexp.MustCompile(`[€£¥₹]|\b(eur|gbp|jpy|cny|inr|chf|krw)\b`)

// Leading qualifiers stripped before parsing so "up to $500M" and "$500M"
// produce the same key.
var leadingQualifiers = []string{
	"up to", "more than", "at least", "approximately", "around",
	"about", "roughly", "nearly", "almost",
}

// suffixMultipliers convert a magnitude suffix to millions of dollars.
var suffixMultipliers = map[string]float64{
	"k": 0.001, "thousand": 0.001,
	"m": 1, "million": 1,
	"b": 1000, "billion": 1000,
	"t": 1e6, "trillion": 1e6,
}

// bareDollarCutoff separates bare numbers that are already expressed in
// millions from raw dollar figures. Anything at or above one million is
// treated as raw dollars.
const bareDollarCutoff = 1_000_000

// ParseAmount converts a free-text currency string to a numeric value in
// millions of USD. Unparsable or non-USD input fails soft to 0.
func ParseAmount(raw string) float64 {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return 0
	}
	if foreignCurrencyPattern.MatchString(s) {
		return 0
	}

	match := amountPattern.FindStringSubmatch(s)
	if match == nil {
		return 0
	}

	numText := strings.ReplaceAll(match[1], ",", "")
	value, err := strconv.ParseFloat(numText, 64)
	if err != nil {
		return 0
	}

	if suffix := match[2]; suffix != "" {
		return value * suffixMultipliers[suffix]
	}

	// Bare number: small values are already in millions, large values are
	// raw dollars.
	if value >= bareDollarCutoff {
		return value / 1e6
	}
	return value
}

// DedupeKey builds a key under which equivalent funding statements collide.
// The company is lowercased and trimmed; leading qualifiers are stripped from
// the amount before parsing. When the amount is unparsable the lowercased raw
// text is used so distinct garbage still gets distinct keys.
func DedupeKey(company, amount string) string {
	name := strings.ToLower(strings.TrimSpace(company))
	amt := strings.ToLower(strings.TrimSpace(amount))
	amt = stripQualifiers(amt)

	if value := ParseAmount(amt); value > 0 {
		return name + "|" + strconv.FormatFloat(value, 'f', -1, 64)
	}
	return name + "|" + amt
}

// stripQualifiers removes leading hedge words, repeatedly, so stacked
// qualifiers ("more than about $1B") also collapse.
func stripQualifiers(amt string) string {
	for {
		stripped := amt
		for _, q := range leadingQualifiers {
			if strings.HasPrefix(stripped, q+" ") {
				stripped = strings.TrimSpace(strings.TrimPrefix(stripped, q))
			}
		}
		if stripped == amt {
			return stripped
		}
		amt = stripped
	}
}

// BucketAmount rounds a value in millions into tiers so near-duplicate
// amounts from different sources coalesce: whole numbers below 10M, nearest
// 5 up to 100M, nearest 25 up to 1B, nearest 250 up to 10B, nearest 1000
// above that.
func BucketAmount(value float64) float64 {
	switch {
	case value < 10:
		return math.Round(value)
	case value < 100:
		return roundToNearest(value, 5)
	case value < 1000:
		return roundToNearest(value, 25)
	case value < 10000:
		return roundToNearest(value, 250)
	default:
		return roundToNearest(value, 1000)
	}
}

func roundToNearest(value, step float64) float64 {
	return math.Round(value/step) * step
}
