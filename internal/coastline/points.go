// Package coastline maintains the shoreline point store and answers
// distance-to-coast queries against it.
package coastline

import (
	"fmt"
	"io"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Point is one shoreline vertex.
type Point struct {
	Lat    float64
	Lng    float64
	Source string
}

// ParsePoints explodes the line features of a shoreline GeoJSON document
// into points tagged with the source filename. Non-line geometries are
// ignored; the medium-resolution shoreline is entirely LineStrings.
func ParsePoints(r io.Reader, source string) ([]Point, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	var points []Point
	for _, feature := range fc.Features {
		switch geom := feature.Geometry.(type) {
		case orb.LineString:
			points = appendLine(points, geom, source)
		case orb.MultiLineString:
			for _, line := range geom {
				points = appendLine(points, line, source)
			}
		}
	}
	return points, nil
}

// ParsePointsFile is ParsePoints over a file path.
func ParsePointsFile(path, source string) ([]Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParsePoints(f, source)
}

func appendLine(points []Point, line orb.LineString, source string) []Point {
	for _, coord := range line {
		points = append(points, Point{Lat: coord.Lat(), Lng: coord.Lon(), Source: source})
	}
	return points
}
