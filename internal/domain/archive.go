package domain

import (
	"fmt"
	"strings"
)

// ArchiveName is a parsed PMTiles archive filename. See the package doc for
// the naming scheme.
type ArchiveName struct {
	File    string    // original filename
	Dataset Dataset   // inferred from the filename prefix
	Key     string    // grouping key: FIPS code, REGION_Category, or stem
	Date    string    // YYYYMMDD build date, empty when absent
	Zoom    ZoomRange // full range when the name has no zoom token
}

// ParseArchiveName parses a .pmtiles filename. Files without the extension
// are rejected; unrecognized stems still parse with DatasetNRI-style generic
// handling so the catalog can serve archives the pipeline did not build.
func ParseArchiveName(file string) (ArchiveName, error) {
	stem, ok := strings.CutSuffix(file, ".pmtiles")
	if !ok {
		return ArchiveName{}, fmt.Errorf("%q is not a pmtiles archive", file)
	}
	parts := strings.Split(stem, "_")

	zoom, rest := splitZoomToken(parts)
	name := ArchiveName{File: file, Zoom: zoom}

	switch {
	case rest[0] == "NFHL" && len(rest) >= 2:
		name.Dataset = DatasetFloodzone
		name.Key = rest[1]
		if len(rest) >= 3 && isDate(rest[2]) {
			name.Date = rest[2]
		}
	case rest[0] == "SLOSH" && len(rest) >= 2:
		name.Dataset = DatasetSurge
		name.Key = strings.Join(rest[1:], "_")
	case rest[0] == "NRI":
		name.Dataset = DatasetNRI
		name.Key = strings.Join(rest, "_")
	default:
		name.Key = strings.Join(rest, "_")
		switch {
		case strings.Contains(strings.ToLower(stem), "structure"):
			name.Dataset = DatasetStructures
		case strings.Contains(strings.ToLower(stem), "wildfire"):
			name.Dataset = DatasetWildfire
		}
	}
	if name.Date == "" {
		if d := trailingDate(rest); d != "" {
			name.Date = d
		}
	}
	return name, nil
}

// splitZoomToken strips a trailing zoom token from the underscore-split stem.
// Zoom spans split across two parts ("z0_10" arrives as "z0", "10"), so both
// one- and two-part suffixes are tried.
func splitZoomToken(parts []string) (ZoomRange, []string) {
	if len(parts) >= 3 && isDigits(parts[len(parts)-1]) && isZoomPart(parts[len(parts)-2]) {
		token := parts[len(parts)-2] + "_" + parts[len(parts)-1]
		if z, err := ParseZoomRange(token); err == nil {
			return z, parts[:len(parts)-2]
		}
	}
	if len(parts) >= 2 && isZoomPart(parts[len(parts)-1]) {
		if z, err := ParseZoomRange(parts[len(parts)-1]); err == nil {
			return z, parts[:len(parts)-1]
		}
	}
	return FullRange(), parts
}

// GroupKey identifies archives that partition the same logical layer by zoom.
func (a ArchiveName) GroupKey() string {
	return string(a.Dataset) + "/" + a.Key
}

func (a ArchiveName) String() string { return a.File }

func isZoomPart(s string) bool {
	return len(s) >= 2 && s[0] == 'z' && isDigits(s[1:])
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func isDate(s string) bool { return len(s) == 8 && isDigits(s) }

func trailingDate(parts []string) string {
	for i := len(parts) - 1; i >= 0; i-- {
		if isDate(parts[i]) {
			return parts[i]
		}
	}
	return ""
}
