// Package sizeparse handles the human-readable size literals accepted by the
// CLI's --size-gt/--size-lt flags (§6), and the human-readable rendering
// used by the stats and ls output, built on github.com/dustin/go-humanize
// the way the rest of the pack leans on it for byte-count formatting.
package sizeparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

var units = map[string]int64{
	"B":  1,
	"KB": 1 << 10,
	"MB": 1 << 20,
	"GB": 1 << 30,
	"TB": 1 << 40,
}

// Parse accepts a bare integer (bytes) or a decimal number followed by one
// of B, KB, MB, GB, TB (case-insensitive, optional space before the unit),
// and returns the value in bytes.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size")
	}

	trimmed := strings.TrimRight(s, "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ ")
	unit := strings.ToUpper(strings.TrimSpace(s[len(trimmed):]))
	if unit == "" {
		unit = "B"
	}

	mul, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("unrecognized size unit %q", unit)
	}

	numStr := strings.TrimSpace(trimmed)
	if numStr == "" {
		return 0, fmt.Errorf("missing numeric value in %q", s)
	}

	value, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if value < 0 {
		return 0, fmt.Errorf("negative size %q", s)
	}

	return int64(value * float64(mul)), nil
}

// Bytes renders n using IEC-style binary prefixes, e.g. "4.2 MiB".
func Bytes(n int64) string {
	if n < 0 {
		return "-" + humanize.IBytes(uint64(-n))
	}
	return humanize.IBytes(uint64(n))
}

// Count renders n with thousands separators, e.g. "1,234,567".
func Count(n int) string {
	return humanize.Comma(int64(n))
}
