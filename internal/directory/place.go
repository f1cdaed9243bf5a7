// Package directory implements the resource-directory engine: the place and
// taxonomy model, tag canonicalization, filtering, aggregation, and the view
// synchronization state that keeps map, list, and counts consistent.
package directory

import "strings"

// keySep separates identity key components. It does not occur in source data.
const keySep = "|"

// Place is a single directory entry. Field presence is not guaranteed by the
// upstream dataset: absent coordinates mean the entry is list-only, and every
// contact field is optional free text.
type Place struct {
	// UpstreamID is the provider's place identifier. It may be empty and,
	// when present, may be shared by several distinct offices at one site.
	UpstreamID   string `json:"place_id,omitempty" yaml:"place_id"`
	Organization string `json:"organization" yaml:"organization"`
	Office       string `json:"office,omitempty" yaml:"office"`
	Address      string `json:"address,omitempty" yaml:"address"`

	Latitude  *float64 `json:"latitude,omitempty" yaml:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" yaml:"longitude"`

	Phone   string `json:"phone,omitempty" yaml:"phone"`
	Email   string `json:"email,omitempty" yaml:"email"`
	Website string `json:"website,omitempty" yaml:"website"`
	MapLink string `json:"map_link,omitempty" yaml:"map_link"`

	Category string `json:"category,omitempty" yaml:"category"`
	Hours    string `json:"hours,omitempty" yaml:"hours"`
	// PhotoRef is either a direct image URL, a legacy photo-reference
	// token, or empty.
	PhotoRef string `json:"photo_ref,omitempty" yaml:"photo_ref"`

	// ServiceTags holds canonical tag identifiers after canonicalization;
	// raw source data may carry arbitrary display variants here.
	ServiceTags []string `json:"service_tags,omitempty" yaml:"service_tags"`
}

// Mappable reports whether the place can be shown as a map marker.
func (p *Place) Mappable() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// Key returns the stable identity key for the place. Upstream ids are reused
// across distinct offices, so the office (or organization) and address are
// folded in to break ties. The same key is used for deduplication, list
// rendering, and active-place selection, so it must be computed identically
// everywhere.
func (p *Place) Key() string {
	if p.UpstreamID != "" {
		name := p.Office
		if name == "" {
			name = p.Organization
		}
		return p.UpstreamID + keySep + name + keySep + p.Address
	}
	return p.Organization + keySep + p.Office + keySep + p.Address
}

// DisplayName returns the office name, falling back to the organization.
func (p *Place) DisplayName() string {
	if p.Office != "" {
		return p.Office
	}
	return p.Organization
}

// searchText returns the lowercased haystack the text filter matches against.
func (p *Place) searchText() string {
	return strings.ToLower(p.Organization + p.Office)
}

// TagDefinition is one entry in the canonical tag taxonomy.
type TagDefinition struct {
	// ID is the canonical identifier, unique across the taxonomy.
	ID string `json:"id" yaml:"id"`
	// DisplayName is human-readable and not guaranteed unique, but serves
	// as a secondary lookup key during canonicalization.
	DisplayName string `json:"display_name" yaml:"display_name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Keywords    string `json:"keywords,omitempty" yaml:"keywords"`
}
