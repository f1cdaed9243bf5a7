package directory

import (
	"context"

	"go.uber.org/zap"
)

// LayoutOptions holds the breakpoint and sidebar sizing rules.
type LayoutOptions struct {
	// MobileBreakpointPx classifies viewports narrower than this as mobile.
	MobileBreakpointPx float64
	SidebarMinPx       float64
	SidebarMaxPx       float64
	SidebarDefaultPx   float64
}

// DefaultLayoutOptions returns the standard breakpoint and sidebar range.
func DefaultLayoutOptions() LayoutOptions {
	return LayoutOptions{
		MobileBreakpointPx: 768,
		SidebarMinPx:       280,
		SidebarMaxPx:       560,
		SidebarDefaultPx:   360,
	}
}

// SidebarWidthPref is the preference key under which the sidebar width is
// persisted. The only piece of UI state that outlives the session.
const SidebarWidthPref = "sidebar_width"

// PreferenceStore persists named numeric UI preferences across sessions.
type PreferenceStore interface {
	GetPreference(ctx context.Context, name string) (value float64, found bool, err error)
	SetPreference(ctx context.Context, name string, value float64) error
}

// Layout tracks responsive layout state: mobile/desktop classification,
// sidebar drawer visibility, legend default, and the draggable sidebar width.
// Like Session it belongs to a single event loop.
type Layout struct {
	opts  LayoutOptions
	prefs PreferenceStore

	viewportW    float64
	mobile       bool
	sidebarOpen  bool
	legendOpen   bool
	sidebarWidth float64

	dragging       bool
	dragStartX     float64
	dragStartWidth float64
}

// NewLayout creates a Layout for the given viewport width, restoring the
// persisted sidebar width. A persisted value outside the configured range, or
// none at all, falls back to the default.
func NewLayout(ctx context.Context, viewportWidth float64, prefs PreferenceStore, opts LayoutOptions) *Layout {
	l := &Layout{
		opts:         opts,
		prefs:        prefs,
		sidebarWidth: opts.SidebarDefaultPx,
	}
	if prefs != nil {
		w, found, err := prefs.GetPreference(ctx, SidebarWidthPref)
		if err != nil {
			zap.L().Warn("layout: read sidebar preference", zap.Error(err))
		} else if found && w >= opts.SidebarMinPx && w <= opts.SidebarMaxPx {
			l.sidebarWidth = w
		}
	}
	l.viewportW = viewportWidth
	l.mobile = viewportWidth < opts.MobileBreakpointPx
	l.applyClassDefaults()
	return l
}

// applyClassDefaults resets the per-class defaults: drawer closed and legend
// collapsed on mobile, both open on desktop.
func (l *Layout) applyClassDefaults() {
	l.sidebarOpen = !l.mobile
	l.legendOpen = !l.mobile
}

// Resize updates the viewport width. Crossing the breakpoint re-evaluates the
// sidebar and legend defaults; resizes within a class leave user toggles alone.
func (l *Layout) Resize(viewportWidth float64) {
	l.viewportW = viewportWidth
	mobile := viewportWidth < l.opts.MobileBreakpointPx
	if mobile != l.mobile {
		l.mobile = mobile
		l.applyClassDefaults()
	}
}

// Mobile reports the current viewport classification.
func (l *Layout) Mobile() bool { return l.mobile }

// SidebarOpen reports whether the sidebar drawer is visible.
func (l *Layout) SidebarOpen() bool { return l.sidebarOpen }

// LegendOpen reports whether the legend panel is expanded.
func (l *Layout) LegendOpen() bool { return l.legendOpen }

// SidebarWidth returns the current sidebar width in pixels.
func (l *Layout) SidebarWidth() float64 { return l.sidebarWidth }

// ToggleSidebar flips the drawer.
func (l *Layout) ToggleSidebar() { l.sidebarOpen = !l.sidebarOpen }

// ToggleLegend flips the legend panel.
func (l *Layout) ToggleLegend() { l.legendOpen = !l.legendOpen }

// StartDrag begins a sidebar resize from the given pointer x. Resizing is a
// desktop-only affordance; on mobile the drawer is full-bleed.
func (l *Layout) StartDrag(x float64) {
	if l.mobile {
		return
	}
	l.dragging = true
	l.dragStartX = x
	l.dragStartWidth = l.sidebarWidth
}

// Drag updates the width from the horizontal delta since StartDrag, clamped
// to the configured range.
func (l *Layout) Drag(x float64) {
	if !l.dragging {
		return
	}
	l.sidebarWidth = l.clamp(l.dragStartWidth + (x - l.dragStartX))
}

// EndDrag finishes the resize and persists the final width.
func (l *Layout) EndDrag(ctx context.Context) {
	if !l.dragging {
		return
	}
	l.dragging = false
	if l.prefs == nil {
		return
	}
	if err := l.prefs.SetPreference(ctx, SidebarWidthPref, l.sidebarWidth); err != nil {
		zap.L().Warn("layout: persist sidebar width", zap.Error(err))
	}
}

// Dragging reports whether a resize is in progress.
func (l *Layout) Dragging() bool { return l.dragging }

func (l *Layout) clamp(w float64) float64 {
	if w < l.opts.SidebarMinPx {
		return l.opts.SidebarMinPx
	}
	if w > l.opts.SidebarMaxPx {
		return l.opts.SidebarMaxPx
	}
	return w
}
