package geospatial

// Renderer is the narrow capability interface the directory engine needs from
// a map surface. Keeping it this small lets the filter/sync logic run and be
// tested without a real map.
type Renderer interface {
	// SetView animates the view to center at the given zoom.
	SetView(center LngLat, zoom float64)

	// Zoom returns the current zoom level.
	Zoom() float64

	// Bounds returns the current viewport bounds. ok is false before the
	// first render settles.
	Bounds() (Bounds, bool)

	// OnViewChanged registers a callback invoked after every completed
	// pan/zoom. Updates are last-write-wins; intermediate bounds during a
	// rapid gesture may be skipped.
	OnViewChanged(fn func(Bounds))

	// ClusterExpansionZoom returns the zoom at which the given cluster
	// marker splits apart.
	ClusterExpansionZoom(clusterID int) (float64, error)

	// PanBy animates the view by a pixel offset.
	PanBy(dxPx, dyPx float64)
}

// FakeRenderer is an in-memory Renderer for tests and headless runs. It
// records commands and lets the caller drive viewport changes.
type FakeRenderer struct {
	center LngLat
	zoom   float64
	bounds *Bounds
	onView []func(Bounds)

	// ExpansionZooms maps cluster id to the zoom reported by
	// ClusterExpansionZoom. Missing ids report zoom 0.
	ExpansionZooms map[int]float64

	// SetViewCalls and PanByCalls record every command issued.
	SetViewCalls []ViewCommand
	PanByCalls   [][2]float64
}

// ViewCommand records a single SetView invocation.
type ViewCommand struct {
	Center LngLat
	Zoom   float64
}

// NewFakeRenderer creates a FakeRenderer at the given starting view.
func NewFakeRenderer(center LngLat, zoom float64) *FakeRenderer {
	return &FakeRenderer{center: center, zoom: zoom}
}

func (f *FakeRenderer) SetView(center LngLat, zoom float64) {
	f.center = center
	f.zoom = zoom
	f.SetViewCalls = append(f.SetViewCalls, ViewCommand{Center: center, Zoom: zoom})
}

func (f *FakeRenderer) Zoom() float64 { return f.zoom }

func (f *FakeRenderer) Center() LngLat { return f.center }

func (f *FakeRenderer) Bounds() (Bounds, bool) {
	if f.bounds == nil {
		return Bounds{}, false
	}
	return *f.bounds, true
}

func (f *FakeRenderer) OnViewChanged(fn func(Bounds)) {
	f.onView = append(f.onView, fn)
}

func (f *FakeRenderer) ClusterExpansionZoom(clusterID int) (float64, error) {
	return f.ExpansionZooms[clusterID], nil
}

func (f *FakeRenderer) PanBy(dxPx, dyPx float64) {
	f.PanByCalls = append(f.PanByCalls, [2]float64{dxPx, dyPx})
}

// MoveTo simulates the user finishing a pan/zoom: the viewport settles on the
// given bounds and registered callbacks fire.
func (f *FakeRenderer) MoveTo(b Bounds) {
	f.bounds = &b
	f.center = b.Center()
	for _, fn := range f.onView {
		fn(b)
	}
}
