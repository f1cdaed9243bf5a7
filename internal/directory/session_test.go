package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civic-atlas/atlas-cli/internal/geospatial"
)

func testDataset() *Dataset {
	return &Dataset{
		Places: testPlaces(),
		Canon: NewCanonicalizer([]TagDefinition{
			{ID: "esol_classes", DisplayName: "ESOL Classes"},
			{ID: "food_pantry", DisplayName: "Food Pantry"},
			{ID: "job_search", DisplayName: "Job Search Help"},
			{ID: "computer_access", DisplayName: "Computer Access"},
		}),
	}
}

func newTestSession(t *testing.T) (*Session, *geospatial.FakeRenderer) {
	t.Helper()
	r := geospatial.NewFakeRenderer(geospatial.LngLat{Lng: -71.06, Lat: 42.36}, 13)
	s := NewSession(testDataset(), r, DefaultSessionOptions())
	return s, r
}

func libraryKey() string {
	p := Place{Organization: "Boston Public Library", Office: "Central Branch", Address: "700 Boylston St"}
	return p.Key()
}

func TestSession_SubmitAppliesLiveInput(t *testing.T) {
	s, _ := newTestSession(t)

	s.SetInput("library")
	// Keystrokes alone never refilter.
	assert.Len(t, s.Filtered(), 3)
	assert.Equal(t, "", s.AppliedQuery())

	s.Submit()
	assert.Equal(t, "library", s.AppliedQuery())
	require.Len(t, s.Filtered(), 1)
	assert.Equal(t, "Boston Public Library", s.Filtered()[0].Organization)
}

func TestSession_ClearSearchResetsQueryAndSelection(t *testing.T) {
	s, _ := newTestSession(t)

	s.SetInput("library")
	s.Submit()
	s.Select(s.Filtered()[0].Key())
	require.NotEmpty(t, s.ActiveKey())

	s.ClearSearch()
	assert.Equal(t, "", s.Input())
	assert.Equal(t, "", s.AppliedQuery())
	assert.Empty(t, s.ActiveKey())
	assert.Len(t, s.Filtered(), 3)
}

func TestSession_ToggleTag(t *testing.T) {
	s, _ := newTestSession(t)

	s.ToggleTag("esol_classes")
	assert.Equal(t, []string{"esol_classes"}, s.SelectedTags())
	assert.Len(t, s.Filtered(), 2)

	s.ToggleTag("job_search")
	assert.Len(t, s.Filtered(), 1)

	s.ToggleTag("esol_classes")
	assert.Equal(t, []string{"job_search"}, s.SelectedTags())
}

func TestSession_SelectNeverZoomsOut(t *testing.T) {
	s, r := newTestSession(t)
	r.SetView(geospatial.LngLat{Lng: -71.06, Lat: 42.36}, 17)
	r.SetViewCalls = nil

	key := libraryKey()
	s.Select(key)

	require.Len(t, r.SetViewCalls, 1)
	assert.Equal(t, 17.0, r.SetViewCalls[0].Zoom)
}

func TestSession_SelectZoomsInToFocus(t *testing.T) {
	s, r := newTestSession(t)
	require.Equal(t, 13.0, r.Zoom())

	key := libraryKey()
	s.Select(key)

	require.Len(t, r.SetViewCalls, 1)
	assert.Equal(t, 15.0, r.SetViewCalls[0].Zoom)
	assert.InDelta(t, -71.0781, r.SetViewCalls[0].Center.Lng, 1e-9)
	assert.InDelta(t, 42.3493, r.SetViewCalls[0].Center.Lat, 1e-9)
}

func TestSession_SelectUnknownKeyIsNoOp(t *testing.T) {
	s, r := newTestSession(t)

	s.Select("nope|nope|nope")
	assert.Empty(t, s.ActiveKey())
	assert.Empty(t, r.SetViewCalls)
}

func TestSession_SelectListOnlyPlaceDoesNotMove(t *testing.T) {
	s, r := newTestSession(t)

	p := Place{Organization: "Adult Education Collaborative", Address: "12 School St"}
	key := p.Key()
	s.Select(key)

	assert.Equal(t, key, s.ActiveKey())
	assert.Empty(t, r.SetViewCalls)
	assert.False(t, s.PopupVisible())
}

func TestSession_ModeSwitchPreservesActive(t *testing.T) {
	s, _ := newTestSession(t)

	key := libraryKey()
	s.Select(key)
	assert.True(t, s.PopupVisible())

	s.SetMode(ModeList)
	assert.Equal(t, key, s.ActiveKey())
	assert.False(t, s.PopupVisible())

	s.SetMode(ModeMap)
	assert.Equal(t, key, s.ActiveKey())
	assert.True(t, s.PopupVisible())
}

func TestSession_InViewTracksViewportInMapMode(t *testing.T) {
	s, r := newTestSession(t)

	r.MoveTo(geospatial.Bounds{West: -71.1, South: 42.3, East: -71.0, North: 42.4})
	require.Len(t, s.InView(), 1)
	assert.Equal(t, "Boston Public Library", s.InView()[0].Organization)

	// List mode ignores the viewport entirely.
	s.SetMode(ModeList)
	assert.Len(t, s.InView(), 3)
}

func TestSession_BoundsLastWriteWins(t *testing.T) {
	s, r := newTestSession(t)

	r.MoveTo(geospatial.Bounds{West: -71.1, South: 42.3, East: -71.0, North: 42.4})
	r.MoveTo(geospatial.Bounds{West: -71.2, South: 42.45, East: -71.0, North: 42.55})

	require.NotNil(t, s.Bounds())
	assert.Equal(t, 42.45, s.Bounds().South)
	require.Len(t, s.InView(), 1)
	assert.Equal(t, "Community Center", s.InView()[0].Organization)
}

func TestSession_DerivationsAgree(t *testing.T) {
	s, r := newTestSession(t)
	r.MoveTo(geospatial.Bounds{West: -71.1, South: 42.3, East: -71.0, North: 42.4})

	inView := s.InView()
	tags := s.PresentTags()
	counts := s.CategoryCounts()

	// Tag chips and category bars always describe exactly the in-view set.
	require.Len(t, inView, 1)
	require.Len(t, tags, 3)
	assert.Equal(t, "Computer Access", tags[0].DisplayName)
	require.Len(t, counts, 1)
	assert.Equal(t, "Library", counts[0].Category)

	// Markers cover the full filtered set, not just the viewport.
	assert.Len(t, s.Markers(), 2)
}

func TestSession_MemoizationIsStable(t *testing.T) {
	s, _ := newTestSession(t)

	first := s.Filtered()
	second := s.Filtered()
	assert.Same(t, &first[0], &second[0], "same backing array until inputs change")

	s.ToggleTag("esol_classes")
	assert.Len(t, s.Filtered(), 2)
}

func TestSession_ClusterClickCapsZoom(t *testing.T) {
	s, r := newTestSession(t)
	r.ExpansionZooms = map[int]float64{1: 12.5, 2: 22}

	s.ClusterClick(1, geospatial.LngLat{Lng: -71.05, Lat: 42.35})
	require.Len(t, r.SetViewCalls, 1)
	assert.Equal(t, 12.5, r.SetViewCalls[0].Zoom)

	s.ClusterClick(2, geospatial.LngLat{Lng: -71.05, Lat: 42.35})
	require.Len(t, r.SetViewCalls, 2)
	assert.Equal(t, geospatial.MaxClusterExpansionZoom, r.SetViewCalls[1].Zoom)
}

func TestSession_PopupCorrectionAfterTwoFrames(t *testing.T) {
	s, r := newTestSession(t)

	// Popup clips 30px past the right edge and 20px past the bottom.
	s.SetPopupMeasurer(func() (geospatial.Rect, geospatial.Rect, bool) {
		popup := geospatial.Rect{Left: 700, Top: 500, Right: 830, Bottom: 620}
		container := geospatial.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600}
		return popup, container, true
	})

	key := libraryKey()
	s.Select(key)

	s.Frame()
	assert.Empty(t, r.PanByCalls, "no measurement before the settle frames elapse")

	s.Frame()
	require.Len(t, r.PanByCalls, 1)
	// Popup must move by (-42, -32); the map pans the opposite way.
	assert.Equal(t, [2]float64{42, 32}, r.PanByCalls[0])

	// The correction runs at most once per activation.
	s.Frame()
	assert.Len(t, r.PanByCalls, 1)
}

func TestSession_PopupCorrectionSkippedWhenInside(t *testing.T) {
	s, r := newTestSession(t)

	s.SetPopupMeasurer(func() (geospatial.Rect, geospatial.Rect, bool) {
		popup := geospatial.Rect{Left: 100, Top: 100, Right: 300, Bottom: 250}
		container := geospatial.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600}
		return popup, container, true
	})

	key := libraryKey()
	s.Select(key)
	s.Frame()
	s.Frame()

	assert.Empty(t, r.PanByCalls)
}

func TestSession_PopupCorrectionCancelledByDeselect(t *testing.T) {
	s, r := newTestSession(t)

	s.SetPopupMeasurer(func() (geospatial.Rect, geospatial.Rect, bool) {
		return geospatial.Rect{Left: 790, Top: 0, Right: 900, Bottom: 100},
			geospatial.Rect{Left: 0, Top: 0, Right: 800, Bottom: 600}, true
	})

	key := libraryKey()
	s.Select(key)
	s.Frame()
	s.Deselect()
	s.Frame()

	assert.Empty(t, r.PanByCalls)
}

func TestSession_HeadlessWithoutRenderer(t *testing.T) {
	s := NewSession(testDataset(), nil, DefaultSessionOptions())

	key := libraryKey()
	s.Select(key)
	assert.Equal(t, key, s.ActiveKey())
	s.Frame()
	s.ClusterClick(1, geospatial.LngLat{})
	assert.Len(t, s.Filtered(), 3)
}

func TestMarkers_SkipsListOnly(t *testing.T) {
	got := Markers(testPlaces())
	require.Len(t, got, 2)
	assert.Equal(t, "Library", got[0].Category)
	assert.Equal(t, -71.0781, got[0].Lng)
}
