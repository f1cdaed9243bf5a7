package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresentTags_SortedByDisplayName(t *testing.T) {
	canon := NewCanonicalizer([]TagDefinition{
		{ID: "esol_classes", DisplayName: "ESOL Classes"},
		{ID: "food_pantry", DisplayName: "Food Pantry"},
		{ID: "computer_access", DisplayName: "Computer Access"},
	})

	inView := []Place{
		{Organization: "A", ServiceTags: []string{"food_pantry", "esol_classes"}},
		{Organization: "B", ServiceTags: []string{"computer_access", "food_pantry"}},
	}

	got := PresentTags(inView, canon)
	require.Len(t, got, 3)
	assert.Equal(t, "Computer Access", got[0].DisplayName)
	assert.Equal(t, "ESOL Classes", got[1].DisplayName)
	assert.Equal(t, "Food Pantry", got[2].DisplayName)
}

func TestPresentTags_Distinct(t *testing.T) {
	canon := NewCanonicalizer(nil)
	inView := []Place{
		{Organization: "A", ServiceTags: []string{"a", "a", "b"}},
		{Organization: "B", ServiceTags: []string{"b"}},
	}

	got := PresentTags(inView, canon)
	assert.Len(t, got, 2)
}

func TestPresentTags_CaseInsensitiveOrder(t *testing.T) {
	canon := NewCanonicalizer([]TagDefinition{
		{ID: "apple", DisplayName: "apple services"},
		{ID: "banana", DisplayName: "Banana Services"},
		{ID: "cherry", DisplayName: "CHERRY SERVICES"},
	})
	inView := []Place{{Organization: "X", ServiceTags: []string{"cherry", "apple", "banana"}}}

	got := PresentTags(inView, canon)
	require.Len(t, got, 3)
	assert.Equal(t, "apple", got[0].ID)
	assert.Equal(t, "banana", got[1].ID)
	assert.Equal(t, "cherry", got[2].ID)
}

func TestPresentTags_Empty(t *testing.T) {
	canon := NewCanonicalizer(nil)
	assert.Empty(t, PresentTags(nil, canon))
	assert.Empty(t, PresentTags([]Place{{Organization: "No Tags"}}, canon))
}

func TestCategoryCounts_DescendingWithFractions(t *testing.T) {
	inView := []Place{
		{Category: "Library"}, {Category: "Library"}, {Category: "Library"}, {Category: "Library"},
		{Category: "Education"}, {Category: "Education"},
		{Category: "Food Access"},
	}

	got := CategoryCounts(inView)
	require.Len(t, got, 3)

	assert.Equal(t, CategoryCount{Category: "Library", Count: 4, Fraction: 1.0}, got[0])
	assert.Equal(t, CategoryCount{Category: "Education", Count: 2, Fraction: 0.5}, got[1])
	assert.Equal(t, CategoryCount{Category: "Food Access", Count: 1, Fraction: 0.25}, got[2])
}

func TestCategoryCounts_TiesOrderedByName(t *testing.T) {
	inView := []Place{
		{Category: "Zoo"},
		{Category: "Aquarium"},
	}

	got := CategoryCounts(inView)
	require.Len(t, got, 2)
	assert.Equal(t, "Aquarium", got[0].Category)
	assert.Equal(t, "Zoo", got[1].Category)
}

func TestCategoryCounts_UncategorizedBucket(t *testing.T) {
	inView := []Place{{Category: ""}, {Category: ""}, {Category: "Library"}}

	got := CategoryCounts(inView)
	require.Len(t, got, 2)
	assert.Equal(t, "Uncategorized", got[0].Category)
	assert.Equal(t, 2, got[0].Count)
}

func TestCategoryCounts_Empty(t *testing.T) {
	assert.Empty(t, CategoryCounts(nil))
}
