package domain

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// BoundsE7 is a geographic bounding box in E7-scaled degrees, the encoding
// PMTiles headers use.
type BoundsE7 struct {
	MinLonE7 int32
	MinLatE7 int32
	MaxLonE7 int32
	MaxLatE7 int32
}

// BoundsFromDegrees converts a west/south/east/north box to E7.
func BoundsFromDegrees(west, south, east, north float64) BoundsE7 {
	return BoundsE7{
		MinLonE7: int32(west * 1e7),
		MinLatE7: int32(south * 1e7),
		MaxLonE7: int32(east * 1e7),
		MaxLatE7: int32(north * 1e7),
	}
}

// Degrees returns the box as west, south, east, north.
func (b BoundsE7) Degrees() (west, south, east, north float64) {
	return float64(b.MinLonE7) / 1e7, float64(b.MinLatE7) / 1e7,
		float64(b.MaxLonE7) / 1e7, float64(b.MaxLatE7) / 1e7
}

// Union expands the box to cover o. A zero box is treated as empty.
func (b BoundsE7) Union(o BoundsE7) BoundsE7 {
	if b.IsZero() {
		return o
	}
	if o.IsZero() {
		return b
	}
	return BoundsE7{
		MinLonE7: min(b.MinLonE7, o.MinLonE7),
		MinLatE7: min(b.MinLatE7, o.MinLatE7),
		MaxLonE7: max(b.MaxLonE7, o.MaxLonE7),
		MaxLatE7: max(b.MaxLatE7, o.MaxLatE7),
	}
}

// IsZero reports whether the box has never been set.
func (b BoundsE7) IsZero() bool {
	return b.MinLonE7 == 0 && b.MinLatE7 == 0 && b.MaxLonE7 == 0 && b.MaxLatE7 == 0
}

// IntersectsTile reports whether the web-mercator tile z/x/y overlaps the box.
// Used by the tile server to pick among archives sharing a zoom range.
func (b BoundsE7) IntersectsTile(z uint8, x, y uint32) bool {
	if b.IsZero() {
		return true // unknown bounds never exclude an archive
	}
	tb := maptile.New(x, y, maptile.Zoom(z)).Bound()
	west, south, east, north := b.Degrees()
	ab := orb.Bound{Min: orb.Point{west, south}, Max: orb.Point{east, north}}
	return tb.Min[0] <= ab.Max[0] && tb.Max[0] >= ab.Min[0] &&
		tb.Min[1] <= ab.Max[1] && tb.Max[1] >= ab.Min[1]
}
