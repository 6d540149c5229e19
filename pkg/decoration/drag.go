package decoration

// DragSession is an in-progress drag of a single decoration. It captures
// the decoration's position and the pointer position at pointer-down; every
// move is applied relative to those.
type DragSession struct {
	TargetID string
	StartX   float64
	StartY   float64
	PointerX float64
	PointerY float64
}

// BeginDrag starts a drag of d from canvas point (px, py).
func BeginDrag(d Decoration, px, py float64) DragSession {
	return DragSession{
		TargetID: d.ID,
		StartX:   d.X,
		StartY:   d.Y,
		PointerX: px,
		PointerY: py,
	}
}

// Move returns the target's normalized position for a pointer at (px, py).
// The pixel delta is divided by the canvas size so drag speed follows
// canvas pixels, and each axis is clamped to [0, 1].
func (s DragSession) Move(px, py, canvasW, canvasH float64) (float64, float64) {
	x, y := s.StartX, s.StartY
	if canvasW > 0 {
		x += (px - s.PointerX) / canvasW
	}
	if canvasH > 0 {
		y += (py - s.PointerY) / canvasH
	}
	return Clamp01(x), Clamp01(y)
}
