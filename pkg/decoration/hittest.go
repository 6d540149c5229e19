package decoration

import "math"

// Contains reports whether canvas point (px, py) lies inside d's rotated
// square on a canvasW x canvasH canvas. The point is moved into the
// decoration's local frame and rotated by -Rotation, which turns the test
// into an axis-aligned box check.
func Contains(d Decoration, px, py, canvasW, canvasH float64) bool {
	cx, cy := d.Center(canvasW, canvasH)
	dx, dy := px-cx, py-cy

	sin, cos := math.Sincos(-d.Radians())
	lx := dx*cos - dy*sin
	ly := dx*sin + dy*cos

	half := d.Size() / 2
	return lx >= -half && lx <= half && ly >= -half && ly <= half
}

// HitTest returns the ID of the topmost decoration containing (px, py).
// Decorations are checked from the end of the list, so only one is ever hit
// even when squares overlap.
func HitTest(list []Decoration, px, py, canvasW, canvasH float64) (string, bool) {
	for i := len(list) - 1; i >= 0; i-- {
		if Contains(list[i], px, py, canvasW, canvasH) {
			return list[i].ID, true
		}
	}
	return "", false
}

// Corners returns the four corners of d's rotated square in canvas pixels,
// clockwise from the top-left.
func Corners(d Decoration, canvasW, canvasH float64) [4][2]float64 {
	cx, cy := d.Center(canvasW, canvasH)
	half := d.Size() / 2
	sin, cos := math.Sincos(d.Radians())

	local := [4][2]float64{{-half, -half}, {half, -half}, {half, half}, {-half, half}}
	var out [4][2]float64
	for i, p := range local {
		out[i] = [2]float64{
			cx + p[0]*cos - p[1]*sin,
			cy + p[0]*sin + p[1]*cos,
		}
	}
	return out
}
