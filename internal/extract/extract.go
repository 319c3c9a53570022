// Package extract pulls the asset ticker and signal strength out of raw
// alert text.
package extract

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	// UnknownTicker is returned when no ticker can be resolved. The slash
	// keeps it from ever looking like a tradable symbol.
	UnknownTicker = "N/D"

	// NoStrength is returned when the text carries no strength value.
	NoStrength = "N/A"
)

// tickerPatterns run against the uppercased text, first match wins.
var tickerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z]{3,6}(?:USDT|USD|BRL))\b`),
	regexp.MustCompile(`\b(BTC|ETH|SOL|BNB|XRP|ADA|DOGE|DOT|LTC|AVAX|MATIC|LINK)\b`),
}

var (
	knownBases    = []string{"BTC", "ETH"}
	knownSuffixes = []string{"USDT", "USD", "BRL"}
)

var (
	percentPattern  = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}(?:[.,]\d+)?)\s*%`)
	fractionPattern = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// Ticker returns the first ticker found in text, a ticker synthesized from
// known asset and currency substrings, or UnknownTicker.
func Ticker(text string) string {
	upper := strings.ToUpper(text)
	for _, re := range tickerPatterns {
		if m := re.FindStringSubmatch(upper); m != nil {
			return m[1]
		}
	}
	if t, ok := synthesizeTicker(upper); ok {
		return t
	}
	return UnknownTicker
}

// synthesizeTicker covers shapes the patterns miss, e.g. "XBTCUSDTPERP" or
// "ETH-BRL" glued to other words.
func synthesizeTicker(upper string) (string, bool) {
	for _, base := range knownBases {
		if !strings.Contains(upper, base) {
			continue
		}
		for _, suffix := range knownSuffixes {
			if strings.Contains(upper, suffix) {
				return base + suffix, true
			}
		}
	}
	return "", false
}

// Strength returns "NN%" for a percentage, "n/d (p%)" for a fraction with a
// non-zero denominator, and NoStrength otherwise.
func Strength(text string) string {
	if m := percentPattern.FindStringSubmatch(text); m != nil {
		return m[1] + "%"
	}
	if m := fractionPattern.FindStringSubmatch(text); m != nil {
		if s, ok := fraction(m[1], m[2]); ok {
			return s
		}
	}
	return NoStrength
}

func fraction(numStr, denStr string) (string, bool) {
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return "", false
	}
	den, err := strconv.Atoi(denStr)
	if err != nil || den == 0 || num > math.MaxInt/100 {
		return "", false
	}
	return fmt.Sprintf("%d/%d (%d%%)", num, den, num*100/den), true
}

// IsUnresolved reports whether a value is one of the extractor's placeholders.
func IsUnresolved(v string) bool {
	return v == UnknownTicker || v == NoStrength || v == ""
}
