// Package normalize cleans scraped text and parses locale-formatted numbers.
//
// The upstream site renders numbers with a space as the thousands separator
// and a comma as the decimal separator ("1 234,56"). Malformed values must
// never abort a run, so parsing failures fall back to zero.
package normalize

import (
	"math"
	"strconv"
	"strings"
)

// Clean collapses a multi-line string to its non-blank lines, each trimmed,
// joined by a single newline.
func Clean(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// Lines returns the trimmed, non-blank lines of s in order.
func Lines(s string) []string {
	c := Clean(s)
	if c == "" {
		return nil
	}
	return strings.Split(c, "\n")
}

// ParseNumber converts a scraped value to a float64. It accepts nil, native
// numeric types, and strings using " " as the thousands separator and "," as
// the decimal separator. Any failure returns 0.0 rather than an error: one
// unparseable cell must not take down the pipeline.
func ParseNumber(v any) float64 {
	switch n := v.(type) {
	case nil:
		return 0
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return n
	case float32:
		return ParseNumber(float64(n))
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		return parseNumberString(n)
	default:
		return 0
	}
}

func parseNumberString(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	// Thousands separators: regular and non-breaking spaces.
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	// A single comma is the decimal separator; more than one means garbage.
	if n := strings.Count(s, ","); n == 1 {
		s = strings.Replace(s, ",", ".", 1)
	} else if n > 1 {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
