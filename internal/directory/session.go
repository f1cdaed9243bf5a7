package directory

import (
	"go.uber.org/zap"

	"github.com/civic-atlas/atlas-cli/internal/geospatial"
)

// SessionOptions tunes view-synchronization behavior.
type SessionOptions struct {
	// FocusZoom is the minimum zoom applied when centering on a selected
	// place. The view never zooms out if it is already closer.
	FocusZoom float64
	// PopupInsetPx is the padding kept between a corrected popup and the
	// map container edges.
	PopupInsetPx float64
}

// DefaultSessionOptions returns the zoom and popup tuning used by the app.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{FocusZoom: 15, PopupInsetPx: 12}
}

// PopupMeasurer reports the on-screen rects of the popup and the map
// container once the popup has painted. ok is false while no popup is
// rendered or layout is not measurable yet.
type PopupMeasurer func() (popup, container geospatial.Rect, ok bool)

// Session owns all user-controlled view state for one browsing session and
// derives every dependent view from it. It is designed for a single
// cooperative event loop: all methods must be called from one goroutine, and
// every derivation is a pure recomputation over the immutable dataset,
// memoized on a revision counter so map markers, list, and counts can never
// disagree.
type Session struct {
	places []Place
	canon  *Canonicalizer
	opts   SessionOptions

	renderer geospatial.Renderer
	measure  PopupMeasurer

	liveText    string
	appliedText string
	selected    []string
	mode        ViewMode
	bounds      *geospatial.Bounds
	activeKey   string

	popupFramesLeft int
	popupCorrected  bool

	rev  uint64
	memo sessionMemo
}

type sessionMemo struct {
	rev      uint64
	valid    bool
	filtered []Place
	inView   []Place
}

// NewSession creates a Session over an already-canonicalized dataset. The
// renderer may be nil for headless use (list-only clients, tests of pure
// filtering).
func NewSession(dataset *Dataset, renderer geospatial.Renderer, opts SessionOptions) *Session {
	s := &Session{
		places:   dataset.Places,
		canon:    dataset.Canon,
		mode:     ModeMap,
		renderer: renderer,
		opts:     opts,
	}
	if renderer != nil {
		renderer.OnViewChanged(s.setBounds)
		if b, ok := renderer.Bounds(); ok {
			s.bounds = &b
		}
	}
	return s
}

// SetPopupMeasurer registers the layout-measurement hook used by popup
// clipping correction.
func (s *Session) SetPopupMeasurer(m PopupMeasurer) { s.measure = m }

func (s *Session) bump() {
	s.rev++
	s.memo.valid = false
}

// SetInput updates the live search box text. The applied query is untouched
// until Submit: keystrokes alone never refilter.
func (s *Session) SetInput(text string) { s.liveText = text }

// Input returns the live search box text.
func (s *Session) Input() string { return s.liveText }

// Submit applies the live input as the active search query.
func (s *Session) Submit() {
	s.appliedText = s.liveText
	s.bump()
}

// ClearSearch resets both the live and applied query and deselects the
// active place.
func (s *Session) ClearSearch() {
	s.liveText = ""
	s.appliedText = ""
	s.Deselect()
	s.bump()
}

// AppliedQuery returns the search text currently filtering results.
func (s *Session) AppliedQuery() string { return s.appliedText }

// ToggleTag adds the tag to the selection, or removes it if present.
func (s *Session) ToggleTag(id string) {
	for i, t := range s.selected {
		if t == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			s.bump()
			return
		}
	}
	s.selected = append(s.selected, id)
	s.bump()
}

// SelectedTags returns the active tag filter.
func (s *Session) SelectedTags() []string { return s.selected }

// SetMode switches between map and list presentation. The active place is
// preserved; the popup simply is not rendered outside map mode.
func (s *Session) SetMode(mode ViewMode) {
	if s.mode == mode {
		return
	}
	s.mode = mode
	s.bump()
}

// Mode returns the current view mode.
func (s *Session) Mode() ViewMode { return s.mode }

// setBounds records the settled viewport. Updates are last-write-wins;
// intermediate values during a rapid gesture may be dropped by the renderer.
func (s *Session) setBounds(b geospatial.Bounds) {
	s.bounds = &b
	s.bump()
}

// Bounds returns the last known viewport bounds, nil before the first settle.
func (s *Session) Bounds() *geospatial.Bounds { return s.bounds }

// Select makes the keyed place active. For a mappable place in a renderer-
// backed session the view animates to it, never zooming out, and popup
// clipping correction is scheduled. Selecting an unknown key is a no-op.
func (s *Session) Select(key string) {
	p := s.lookup(key)
	if p == nil {
		zap.L().Warn("directory: select unknown place", zap.String("key", key))
		return
	}
	s.activeKey = key
	s.popupCorrected = false
	s.popupFramesLeft = 0

	if p.Mappable() && s.renderer != nil {
		zoom := s.renderer.Zoom()
		if zoom < s.opts.FocusZoom {
			zoom = s.opts.FocusZoom
		}
		s.renderer.SetView(geospatial.LngLat{Lng: *p.Longitude, Lat: *p.Latitude}, zoom)
		if s.mode == ModeMap {
			s.popupFramesLeft = geospatial.PopupSettleFrames
		}
	}
	s.bump()
}

// Deselect clears the active place (popup close, explicit deselect).
func (s *Session) Deselect() {
	s.activeKey = ""
	s.popupFramesLeft = 0
	s.bump()
}

// ActiveKey returns the identity key of the active place, or "".
func (s *Session) ActiveKey() string { return s.activeKey }

// Active returns the active place, or nil.
func (s *Session) Active() *Place { return s.lookup(s.activeKey) }

// PopupVisible reports whether the popup should render: an active mappable
// place, in map mode only.
func (s *Session) PopupVisible() bool {
	p := s.Active()
	return p != nil && p.Mappable() && s.mode == ModeMap
}

// ClusterClick handles a click on a renderer-side cluster marker: animate to
// the cluster center at the renderer's expansion zoom, capped so a degenerate
// cluster does not pin the view at maximum zoom.
func (s *Session) ClusterClick(clusterID int, center geospatial.LngLat) {
	if s.renderer == nil {
		return
	}
	zoom, err := s.renderer.ClusterExpansionZoom(clusterID)
	if err != nil {
		zap.L().Warn("directory: cluster expansion zoom", zap.Int("cluster", clusterID), zap.Error(err))
		return
	}
	s.renderer.SetView(center, geospatial.ClusterTargetZoom(zoom))
}

// Frame advances the popup-correction countdown by one rendering frame. Two
// frames after a popup opens its final layout is measured and, if it clips
// the container, the map pans just enough to reveal it. Runs at most once per
// activation.
func (s *Session) Frame() {
	if s.popupFramesLeft == 0 {
		return
	}
	s.popupFramesLeft--
	if s.popupFramesLeft > 0 || s.popupCorrected {
		return
	}
	if s.measure == nil || s.renderer == nil || !s.PopupVisible() {
		return
	}
	popup, container, ok := s.measure()
	if !ok {
		return
	}
	dx, dy := geospatial.PopupPan(popup, container, s.opts.PopupInsetPx)
	if dx != 0 || dy != 0 {
		// The popup needs to move by (dx, dy); the map pans the opposite way.
		s.renderer.PanBy(-dx, -dy)
	}
	s.popupCorrected = true
}

// Filtered returns the deduplicated text+tag filter results in source order.
func (s *Session) Filtered() []Place {
	s.derive()
	return s.memo.filtered
}

// InView returns the filtered results restricted to the viewport when in map
// mode; in list mode it equals Filtered.
func (s *Session) InView() []Place {
	s.derive()
	return s.memo.inView
}

// PresentTags returns the tag vocabulary of the in-view places.
func (s *Session) PresentTags() []TagSummary {
	return PresentTags(s.InView(), s.canon)
}

// CategoryCounts returns the category chart data for the in-view places.
func (s *Session) CategoryCounts() []CategoryCount {
	return CategoryCounts(s.InView())
}

// Markers projects the filtered (not viewport-restricted) mappable places
// into renderer markers; the renderer clusters them itself, so it needs the
// full filtered set regardless of the current viewport.
func (s *Session) Markers() []geospatial.Marker {
	return Markers(s.Filtered())
}

// derive recomputes the memoized sequences when any declared input changed.
func (s *Session) derive() {
	if s.memo.valid && s.memo.rev == s.rev {
		return
	}
	q := Query{Text: s.appliedText, Tags: s.selected, Mode: s.mode, Bounds: s.bounds}
	s.memo.filtered, s.memo.inView = Results(s.places, q)
	s.memo.rev = s.rev
	s.memo.valid = true
}

func (s *Session) lookup(key string) *Place {
	if key == "" {
		return nil
	}
	for i := range s.places {
		if s.places[i].Key() == key {
			return &s.places[i]
		}
	}
	return nil
}

// Markers converts mappable places into renderer markers.
func Markers(places []Place) []geospatial.Marker {
	var out []geospatial.Marker
	for _, p := range places {
		if !p.Mappable() {
			continue
		}
		out = append(out, geospatial.Marker{
			Key:      p.Key(),
			Category: p.Category,
			Lng:      *p.Longitude,
			Lat:      *p.Latitude,
		})
	}
	return out
}
