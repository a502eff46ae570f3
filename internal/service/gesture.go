package service

// GestureMode distinguishes the two drag gestures.
type GestureMode string

const (
	GestureMove   GestureMode = "move"
	GestureResize GestureMode = "resize"
)

// GestureState is the record of one in-flight pointer gesture. The
// controller holds a single slot of it: only one gesture can exist at a
// time, since a pointer-down on a new target while another gesture is
// active is unreachable with a single pointer.
//
// A move gesture captures the container bounds and the pointer-to-
// element offset; a resize gesture captures only the starting pointer
// and the initial size (resize is bounds-independent).
type GestureState struct {
	ActiveID string
	Mode     GestureMode

	// Pointer position at gesture start, in canvas pixels.
	StartX float64
	StartY float64

	// Geometry of the target at gesture start.
	InitialX float64 // percent
	InitialY float64 // percent
	InitialW float64 // pixels
	InitialH float64 // pixels

	// Move only.
	Container Bounds
	OffsetX   float64
	OffsetY   float64
}

// Active reports whether a gesture is in flight.
func (g GestureState) Active() bool {
	return g.ActiveID != ""
}
