package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// ZoomRange is the span of zoom levels an archive covers. The zero value is
// not valid; use ParseZoomRange or FullRange.
type ZoomRange struct {
	Min  uint8
	Max  uint8
	full bool // archive had no zoom token at all
}

// FullRange covers the whole pyramid the pipeline builds (z0 through z18).
func FullRange() ZoomRange {
	return ZoomRange{Min: 0, Max: 18, full: true}
}

// ParseZoomRange parses a filename zoom token: "z0_10", "z16_20", "z18",
// or "full".
func ParseZoomRange(token string) (ZoomRange, error) {
	if token == "" || token == "full" {
		return FullRange(), nil
	}
	if !strings.HasPrefix(token, "z") {
		return ZoomRange{}, fmt.Errorf("zoom range %q: missing z prefix", token)
	}
	lo, hi, found := strings.Cut(token[1:], "_")
	minZ, err := strconv.ParseUint(lo, 10, 8)
	if err != nil {
		return ZoomRange{}, fmt.Errorf("zoom range %q: %w", token, err)
	}
	maxZ := minZ
	if found {
		maxZ, err = strconv.ParseUint(hi, 10, 8)
		if err != nil {
			return ZoomRange{}, fmt.Errorf("zoom range %q: %w", token, err)
		}
	}
	if maxZ < minZ {
		return ZoomRange{}, fmt.Errorf("zoom range %q: max below min", token)
	}
	return ZoomRange{Min: uint8(minZ), Max: uint8(maxZ)}, nil
}

// IsFull reports whether the archive carried no zoom token.
func (z ZoomRange) IsFull() bool { return z.full }

// Contains reports whether zoom level v falls inside the range.
func (z ZoomRange) Contains(v uint8) bool { return v >= z.Min && v <= z.Max }

// String renders the filename token form.
func (z ZoomRange) String() string {
	if z.full {
		return "full"
	}
	if z.Min == z.Max {
		return fmt.Sprintf("z%d", z.Min)
	}
	return fmt.Sprintf("z%d_%d", z.Min, z.Max)
}

// MergePriority orders archives for combining: full-pyramid archives first,
// then low, middle, high zoom partitions, then anything unrecognized.
// Lower values are processed first and win tile conflicts.
func (z ZoomRange) MergePriority() int {
	switch {
	case z.full:
		return 0
	case z.Min == 0:
		return 1
	case z.Min >= 17:
		return 3
	case z.Min >= 10:
		return 2
	default:
		return 4
	}
}
