package service

// Bounds is the pixel bounding box of the floor canvas a gesture runs
// against.
type Bounds struct {
	Width  float64
	Height float64
}

// MinTableSize is the hard floor for resize gestures, in pixels per
// axis. Prevents degenerate tables that can no longer be grabbed.
const MinTableSize = 60.0

// PixelToPercent converts a pixel position to the persisted
// percentage-of-canvas coordinates. Percentages are carried as float64
// end-to-end; no rounding anywhere, so the round-trip with
// PercentToPixel is exact to float64 tolerance.
func PixelToPercent(px, py float64, c Bounds) (xPercent, yPercent float64) {
	return px / c.Width * 100, py / c.Height * 100
}

// PercentToPixel converts persisted percentage coordinates back to
// pixels for a given canvas.
func PercentToPixel(xPercent, yPercent float64, c Bounds) (px, py float64) {
	return xPercent / 100 * c.Width, yPercent / 100 * c.Height
}

// ClampToCanvas keeps an element of the given pixel size fully inside
// the canvas: each axis is clamped to [0, canvasDim-elementDim].
func ClampToCanvas(px, py, elemW, elemH float64, c Bounds) (float64, float64) {
	px = clamp(px, 0, c.Width-elemW)
	py = clamp(py, 0, c.Height-elemH)
	return px, py
}

// ResizeFromDelta applies a resize gesture's pixel deltas to the
// geometry captured at gesture start, flooring both axes at
// MinTableSize. Resize never touches position.
func ResizeFromDelta(initialW, initialH, deltaX, deltaY float64) (width, height float64) {
	width = initialW + deltaX
	if width < MinTableSize {
		width = MinTableSize
	}
	height = initialH + deltaY
	if height < MinTableSize {
		height = MinTableSize
	}
	return width, height
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		// Element larger than the canvas; pin to origin.
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
