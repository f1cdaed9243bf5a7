package geospatial

import (
	"strings"

	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// Marker is a single mappable directory entry, reduced to what the map
// renderer needs to draw and identify it.
type Marker struct {
	Key      string
	Category string
	Lng      float64
	Lat      float64
}

// ClusterOptions is the declarative clustering configuration handed to the
// map renderer. Grouping itself happens renderer-side.
type ClusterOptions struct {
	// MaxZoom is the zoom level above which points are no longer clustered.
	MaxZoom int `json:"max_zoom"`
	// RadiusPx is the pixel radius within which points are grouped.
	RadiusPx int `json:"radius_px"`
	// MinPoints is the minimum group size before a cluster marker replaces
	// individual points.
	MinPoints int `json:"min_points"`
}

// DefaultClusterOptions returns the clustering configuration used by the map view.
func DefaultClusterOptions() ClusterOptions {
	return ClusterOptions{MaxZoom: 14, RadiusPx: 50, MinPoints: 3}
}

// MaxClusterExpansionZoom caps the zoom applied when a cluster marker is
// clicked, so a degenerate cluster (several entries at one address) does not
// zoom in absurdly far.
const MaxClusterExpansionZoom = 17.0

// ClusterTargetZoom returns the zoom to animate to after a cluster click,
// given the renderer's suggested expansion zoom.
func ClusterTargetZoom(suggested float64) float64 {
	if suggested > MaxClusterExpansionZoom {
		return MaxClusterExpansionZoom
	}
	return suggested
}

// Style is the color and icon assigned to a category.
type Style struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// Category styles. Source categories are free-form, so assignment is fuzzy;
// unmatched categories fall through to the neutral style.
var (
	styleLibrary    = Style{Color: "#2a6fdb", Icon: "library"}
	styleFood       = Style{Color: "#1b5bbf", Icon: "grocery"}
	styleGovernment = Style{Color: "#2e8540", Icon: "landmark"}
	styleEducation  = Style{Color: "#d83933", Icon: "school"}
	styleCommunity  = Style{Color: "#2d8c8c", Icon: "people"}
	styleNeutral    = Style{Color: "#40464f", Icon: "pin"}
)

// CategoryStyle maps a free-form category string to its marker style.
// Matching is case-insensitive against a separator-collapsed form of the
// category, rules applied in priority order.
func CategoryStyle(category string) Style {
	norm := normalizeCategory(category)
	switch {
	case strings.Contains(norm, "library"):
		return styleLibrary
	case hasToken(norm, "food"):
		return styleFood
	case strings.Contains(norm, "government"),
		strings.Contains(norm, "city"),
		strings.Contains(norm, "state"):
		return styleGovernment
	case strings.Contains(norm, "education"),
		strings.Contains(norm, "adult"):
		return styleEducation
	case strings.Contains(norm, "community"),
		strings.Contains(norm, "nonprofit"),
		strings.Contains(norm, "organization"):
		return styleCommunity
	default:
		return styleNeutral
	}
}

// normalizeCategory lowercases and collapses the separators seen in source
// data ("Food-Access", "food_access", "Food Access") into single spaces.
func normalizeCategory(category string) string {
	s := strings.ToLower(category)
	s = strings.NewReplacer("-", " ", "_", " ", "/", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// hasToken reports whether word appears as a whole token in the normalized
// string. Used for "food" so that e.g. "Seafood Market" does not match.
func hasToken(norm, word string) bool {
	for _, tok := range strings.Fields(norm) {
		if tok == word {
			return true
		}
	}
	return false
}

// Project converts markers into a GeoJSON FeatureCollection for the
// clustering-capable renderer. Each feature carries the identity key, the
// category, and the category-derived style.
func Project(markers []Marker) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(markers))
	for _, m := range markers {
		style := CategoryStyle(m.Category)
		features = append(features, &geojson.Feature{
			ID:       m.Key,
			Geometry: geom.NewPointFlat(geom.XY, []float64{m.Lng, m.Lat}),
			Properties: map[string]interface{}{
				"key":      m.Key,
				"category": m.Category,
				"color":    style.Color,
				"icon":     style.Icon,
			},
		})
	}
	return &geojson.FeatureCollection{Features: features}
}
