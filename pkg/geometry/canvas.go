package geometry

// MaxCanvasDimension caps either side of the working canvas.
const MaxCanvasDimension = 2048

// FitCanvas applies the canvas sizing policy. When either side of w x h
// exceeds limit, both sides scale by min(limit/w, limit/h) and are floored.
// Otherwise the size is returned unchanged. A limit <= 0 means
// MaxCanvasDimension. Non-positive inputs return 0, 0.
func FitCanvas(w, h, limit int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if limit <= 0 {
		limit = MaxCanvasDimension
	}
	if w <= limit && h <= limit {
		return w, h
	}
	// Integer math keeps the longer side at exactly limit.
	longest := int64(max(w, h))
	fw := max(int(int64(w)*int64(limit)/longest), 1)
	fh := max(int(int64(h)*int64(limit)/longest), 1)
	return fw, fh
}

// MinDimension returns the shorter side, falling back to fallback when the
// canvas has no size yet.
func MinDimension(w, h int, fallback float64) float64 {
	m := min(w, h)
	if m <= 0 {
		return fallback
	}
	return float64(m)
}
