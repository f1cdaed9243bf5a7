package directory

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// uncategorizedLabel is the implicit bucket for places with an empty category.
const uncategorizedLabel = "Uncategorized"

// TagSummary is one entry of the present-tag vocabulary shown as filter chips.
type TagSummary struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// CategoryCount is one bar of the category chart. Fraction is the bar width
// relative to the largest category in the current set (the max count renders
// at full width).
type CategoryCount struct {
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Fraction float64 `json:"fraction"`
}

// displayCollator orders tag chips by display name, case-insensitively.
var displayCollator = collate.New(language.English, collate.IgnoreCase)

// PresentTags returns the distinct canonical tags present in the in-view
// sequence, sorted by display name. Recomputed on every filter, search, or
// map-movement event.
func PresentTags(inView []Place, canon *Canonicalizer) []TagSummary {
	seen := make(map[string]bool)
	var out []TagSummary
	for _, p := range inView {
		for _, id := range p.ServiceTags {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, TagSummary{ID: id, DisplayName: canon.DisplayName(id)})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if c := displayCollator.CompareString(out[i].DisplayName, out[j].DisplayName); c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// CategoryCounts returns per-category counts for the in-view sequence,
// descending by count. Empty categories fall into the Uncategorized bucket.
// An empty sequence returns no bars.
func CategoryCounts(inView []Place) []CategoryCount {
	counts := make(map[string]int)
	for _, p := range inView {
		cat := p.Category
		if cat == "" {
			cat = uncategorizedLabel
		}
		counts[cat]++
	}

	out := make([]CategoryCount, 0, len(counts))
	max := 0
	for cat, n := range counts {
		out = append(out, CategoryCount{Category: cat, Count: n})
		if n > max {
			max = n
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})
	for i := range out {
		out[i].Fraction = float64(out[i].Count) / float64(max)
	}
	return out
}
