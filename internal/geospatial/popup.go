package geospatial

// Rect is an on-screen bounding box in pixels, as reported by the rendering
// surface for the popup and its containing map element.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Width returns the horizontal extent of the rect.
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns the vertical extent of the rect.
func (r Rect) Height() float64 { return r.Bottom - r.Top }

// PopupSettleFrames is the number of rendering frames to wait after a popup
// opens before measuring it. Measuring earlier risks reading a pre-paint
// layout, e.g. while the popup image is still loading.
const PopupSettleFrames = 2

// MaxPopupPanPx clamps the correction pan. Transient layout states can report
// a wildly misplaced popup; the clamp keeps a bad measurement from flinging
// the map across town.
const MaxPopupPanPx = 240.0

// PopupPan computes the minimal pixel offset that moves the popup fully
// inside the container, keeping at least inset pixels of padding from each
// edge. The returned (dx, dy) is the offset to apply to the popup; the map
// pans by the negation. When the popup is larger than the container the left
// and top edges win, so the popup's header stays reachable. Both components
// are clamped to MaxPopupPanPx.
func PopupPan(popup, container Rect, inset float64) (dx, dy float64) {
	if popup.Right > container.Right-inset {
		dx = (container.Right - inset) - popup.Right
	}
	if popup.Left+dx < container.Left+inset {
		dx = (container.Left + inset) - popup.Left
	}

	if popup.Bottom > container.Bottom-inset {
		dy = (container.Bottom - inset) - popup.Bottom
	}
	if popup.Top+dy < container.Top+inset {
		dy = (container.Top + inset) - popup.Top
	}

	return clampMagnitude(dx, MaxPopupPanPx), clampMagnitude(dy, MaxPopupPanPx)
}

func clampMagnitude(v, max float64) float64 {
	if v > max {
		return max
	}
	if v < -max {
		return -max
	}
	return v
}
