package directory

import (
	"strings"

	"github.com/civic-atlas/atlas-cli/internal/geospatial"
)

// ViewMode selects how results are presented. The viewport restriction only
// applies in map mode.
type ViewMode string

const (
	ModeMap  ViewMode = "map"
	ModeList ViewMode = "list"
)

// ParseViewMode maps a mode string to a ViewMode, defaulting to map.
func ParseViewMode(s string) ViewMode {
	if strings.EqualFold(s, string(ModeList)) {
		return ModeList
	}
	return ModeMap
}

// Query is the full set of user-controlled filter inputs. Text is the applied
// search query, not the live input: search applies on explicit submission, not
// per keystroke.
type Query struct {
	Text   string
	Tags   []string
	Mode   ViewMode
	Bounds *geospatial.Bounds
}

// Filter returns the places passing the text and tag predicates, in source
// order, deduplicated by identity key. Viewport bounds are not applied here;
// see InView.
func Filter(places []Place, text string, tags []string) []Place {
	needle := strings.ToLower(strings.TrimSpace(text))

	var out []Place
	for _, p := range places {
		if needle != "" && !strings.Contains(p.searchText(), needle) {
			continue
		}
		if !hasAllTags(&p, tags) {
			continue
		}
		out = append(out, p)
	}
	return dedupe(out)
}

// InView restricts filtered places to the viewport. In list mode, or before
// the renderer has reported bounds, the restriction is skipped and every
// filtered place is in view. In map mode only mappable places inside the
// closed bounds rectangle qualify.
func InView(filtered []Place, mode ViewMode, bounds *geospatial.Bounds) []Place {
	if mode != ModeMap || bounds == nil {
		return filtered
	}
	var out []Place
	for _, p := range filtered {
		if !p.Mappable() {
			continue
		}
		if bounds.Contains(*p.Longitude, *p.Latitude) {
			out = append(out, p)
		}
	}
	return out
}

// Results applies the whole query: filter, dedupe, viewport restriction.
func Results(places []Place, q Query) (filtered, inView []Place) {
	filtered = Filter(places, q.Text, q.Tags)
	return filtered, InView(filtered, q.Mode, q.Bounds)
}

// hasAllTags implements AND semantics: every selected tag must be present.
// An empty selection matches everything.
func hasAllTags(p *Place, tags []string) bool {
	for _, want := range tags {
		found := false
		for _, have := range p.ServiceTags {
			if have == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// dedupe keeps the first occurrence of each identity key, preserving order.
// Upstream data repeats entries when an office appears under several source
// sheets, and downstream consumers assume each key appears once.
func dedupe(places []Place) []Place {
	if len(places) == 0 {
		return places
	}
	seen := make(map[string]bool, len(places))
	out := make([]Place, 0, len(places))
	for _, p := range places {
		key := p.Key()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
