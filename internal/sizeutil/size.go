// Package sizeutil parses human-readable byte-size strings used in device
// configuration (e.g. segment sizes passed as functional options).
package sizeutil

import (
	"regexp"
	"strconv"
	"strings"
)

var sizePattern = regexp.MustCompile(`^([0-9]+) ?([kKmMgGtTpP])[bB]?$`)

var multipliers = map[byte]uint64{
	'k': 1 << 10,
	'm': 1 << 20,
	'g': 1 << 30,
	't': 1 << 40,
	'p': 1 << 50,
}

// ParseSize parses a size string of the form "<digits> ?[kKmMgGtTpP]B?" into
// a byte count. Unrecognized input (including a bare number with no unit)
// returns 0 rather than an error, matching the grammar's documented
// behavior for "garbage" input.
func ParseSize(s string) uint64 {
	m := sizePattern.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	n, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return 0
	}

	unit := strings.ToLower(m[2])[0]
	mul, ok := multipliers[unit]
	if !ok {
		return 0
	}

	return n * mul
}
