// Package geospatial provides viewport geometry, GeoJSON projection, and the
// map-renderer capability interface for the directory engine.
package geospatial

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
)

// Bounds is a geographic viewport rectangle in WGS84 coordinates.
type Bounds struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// LngLat is a single WGS84 coordinate pair.
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Contains reports whether the point falls within the bounds. All four edges
// are inclusive, so a marker sitting exactly on the viewport edge stays in view.
func (b Bounds) Contains(lng, lat float64) bool {
	return geom.NewBounds(geom.XY).
		Set(b.West, b.South, b.East, b.North).
		OverlapsPoint(geom.XY, geom.Coord{lng, lat})
}

// Center returns the midpoint of the bounds.
func (b Bounds) Center() LngLat {
	return LngLat{Lng: (b.West + b.East) / 2, Lat: (b.South + b.North) / 2}
}

// String formats the bounds as "west,south,east,north", the same shape
// ParseBounds accepts.
func (b Bounds) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.West, b.South, b.East, b.North)
}

// ParseBounds parses a "west,south,east,north" string, as passed in the bbox
// query parameter.
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, eris.Errorf("geospatial: bbox must have 4 parts, got %d", len(parts))
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, eris.Wrapf(err, "geospatial: parse bbox part %q", p)
		}
		vals[i] = v
	}
	return Bounds{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}, nil
}
