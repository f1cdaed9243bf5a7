package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTaxonomy() []TagDefinition {
	return []TagDefinition{
		{ID: "esol_classes", DisplayName: "ESOL Classes"},
		{ID: "food_pantry", DisplayName: "Food Pantry"},
		{ID: "job_search", DisplayName: "Job Search Help"},
	}
}

func TestCanonical_DisplayNameVariants(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	tests := []struct {
		raw  string
		want string
	}{
		{"ESOL Classes", "esol_classes"},
		{"esol classes", "esol_classes"},
		{"esol_classes", "esol_classes"},
		{"ESOL_Classes", "esol_classes"},
		{"  Food   Pantry ", "food_pantry"},
		{"FOOD PANTRY", "food_pantry"},
	}
	for _, tt := range tests {
		got, ok := c.Canonical(tt.raw)
		require.True(t, ok, "raw %q", tt.raw)
		assert.Equal(t, tt.want, got, "raw %q", tt.raw)
	}
}

func TestCanonical_Idempotent(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	for _, id := range []string{"esol_classes", "food_pantry", "job_search"} {
		got, ok := c.Canonical(id)
		require.True(t, ok)
		assert.Equal(t, id, got)

		// Canonicalizing the output again returns it unchanged.
		again, ok := c.Canonical(got)
		require.True(t, ok)
		assert.Equal(t, got, again)
	}
}

func TestCanonical_InvisibleCharacters(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	// Non-breaking space and a zero-width space, as pasted from a spreadsheet.
	got, ok := c.Canonical("ESOL\u00a0Classes\u200b")
	require.True(t, ok)
	assert.Equal(t, "esol_classes", got)

	// BOM-prefixed tag.
	got, ok = c.Canonical("\ufefffood pantry")
	require.True(t, ok)
	assert.Equal(t, "food_pantry", got)
}

func TestCanonical_UnknownFallsBack(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	// Unknown tags are kept in underscore form, not silently dropped.
	got, ok := c.Canonical("Legal Aid")
	require.True(t, ok)
	assert.Equal(t, "legal_aid", got)
}

func TestCanonical_EmptyDropped(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	for _, raw := range []string{"", "   ", "\u200b", "\u00a0"} {
		_, ok := c.Canonical(raw)
		assert.False(t, ok, "raw %q", raw)
	}
}

func TestApply_RewritesTags(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	places := []Place{
		{Organization: "Adult Learning Center", ServiceTags: []string{"ESOL Classes", "", "Job Search Help"}},
		{Organization: "No Tags"},
	}
	out := c.Apply(places)

	require.Len(t, out, 2)
	assert.Equal(t, []string{"esol_classes", "job_search"}, out[0].ServiceTags)
	assert.Empty(t, out[1].ServiceTags)

	// The input collection is untouched.
	assert.Equal(t, []string{"ESOL Classes", "", "Job Search Help"}, places[0].ServiceTags)
}

func TestDisplayName(t *testing.T) {
	c := NewCanonicalizer(testTaxonomy())

	assert.Equal(t, "ESOL Classes", c.DisplayName("esol_classes"))
	// Unknown ids fall back to the id itself.
	assert.Equal(t, "legal_aid", c.DisplayName("legal_aid"))
}
