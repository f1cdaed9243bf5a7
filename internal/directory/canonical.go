package directory

import "strings"

// Canonicalizer maps heterogeneous tag spellings from the places dataset onto
// canonical taxonomy identifiers. The two sources are maintained by hand and
// drift apart, so there is no strict foreign-key relationship to lean on.
// Built once per taxonomy load; read-only afterwards.
type Canonicalizer struct {
	byID      map[string]string // normalized id variant -> canonical id
	byDisplay map[string]string // normalized display variant -> canonical id
	names     map[string]string // canonical id -> display name
}

// NewCanonicalizer builds the lookup tables from the taxonomy. Each canonical
// id is matched by itself and its underscore/space-swapped variant; each
// display name by itself, its underscore/space swap, and a space-to-underscore
// form.
func NewCanonicalizer(tags []TagDefinition) *Canonicalizer {
	c := &Canonicalizer{
		byID:      make(map[string]string, 2*len(tags)),
		byDisplay: make(map[string]string, 3*len(tags)),
		names:     make(map[string]string, len(tags)),
	}
	for _, tag := range tags {
		if tag.ID == "" {
			continue
		}
		c.names[tag.ID] = tag.DisplayName

		id := normalizeTag(tag.ID)
		c.byID[id] = tag.ID
		c.byID[swapUnderscores(id)] = tag.ID

		if tag.DisplayName != "" {
			display := normalizeTag(tag.DisplayName)
			c.byDisplay[display] = tag.ID
			c.byDisplay[swapUnderscores(display)] = tag.ID
			c.byDisplay[strings.ReplaceAll(display, " ", "_")] = tag.ID
		}
	}
	return c
}

// Canonical resolves a raw tag to its canonical identifier. Display-name
// matches take precedence over id matches. Unknown tags are not discarded:
// they fall back to the normalized spelling with spaces as underscores, so a
// taxonomy gap shows up downstream instead of vanishing. Only an empty
// normalized string is dropped (ok is false).
func (c *Canonicalizer) Canonical(raw string) (string, bool) {
	n := normalizeTag(raw)
	if n == "" {
		return "", false
	}
	if id, found := c.byDisplay[n]; found {
		return id, true
	}
	if id, found := c.byID[n]; found {
		return id, true
	}
	return strings.ReplaceAll(n, " ", "_"), true
}

// DisplayName returns the display name for a canonical id, falling back to
// the id itself for tags the taxonomy does not define.
func (c *Canonicalizer) DisplayName(id string) string {
	if name, found := c.names[id]; found && name != "" {
		return name
	}
	return id
}

// Apply returns a copy of places with every tag list rewritten to canonical
// identifiers. Unresolvable-empty tags are dropped; order is preserved.
func (c *Canonicalizer) Apply(places []Place) []Place {
	out := make([]Place, len(places))
	for i, p := range places {
		out[i] = p
		if len(p.ServiceTags) == 0 {
			continue
		}
		tags := make([]string, 0, len(p.ServiceTags))
		for _, raw := range p.ServiceTags {
			if id, ok := c.Canonical(raw); ok {
				tags = append(tags, id)
			}
		}
		out[i].ServiceTags = tags
	}
	return out
}

// tagScrubber removes the invisible characters that sneak into hand-edited
// spreadsheets: zero-width spaces and joiners, BOMs, and non-breaking spaces
// (mapped to regular spaces).
var tagScrubber = strings.NewReplacer(
	"\u00a0", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\ufeff", "",
)

// normalizeTag produces the lookup form of a tag: scrubbed, trimmed,
// lowercased, with internal whitespace runs collapsed to single spaces.
func normalizeTag(s string) string {
	s = tagScrubber.Replace(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// swapUnderscores turns underscores into spaces and vice versa.
func swapUnderscores(s string) string {
	if strings.ContainsRune(s, '_') {
		return strings.ReplaceAll(s, "_", " ")
	}
	return strings.ReplaceAll(s, " ", "_")
}
