package geometry

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Edges is a per-side value in CSS order: top, right, bottom, left.
type Edges struct {
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
}

// Uniform returns Edges with v on every side.
func Uniform(v float64) Edges {
	return Edges{Top: v, Right: v, Bottom: v, Left: v}
}

// Array returns the edges as [top, right, bottom, left].
func (e Edges) Array() [4]float64 {
	return [4]float64{e.Top, e.Right, e.Bottom, e.Left}
}

// Max returns the largest of the four values.
func (e Edges) Max() float64 {
	return math.Max(math.Max(e.Top, e.Right), math.Max(e.Bottom, e.Left))
}

// IsZero reports whether all four values are zero.
func (e Edges) IsZero() bool {
	return e == Edges{}
}

// String renders e as a 4-value shorthand.
func (e Edges) String() string {
	return fmt.Sprintf("%g %g %g %g", e.Top, e.Right, e.Bottom, e.Left)
}

func edgesFromArray(a [4]float64) Edges {
	return Edges{Top: a[0], Right: a[1], Bottom: a[2], Left: a[3]}
}

// leadingNumber matches the numeric prefix of a token, so "12px" reads as 12.
var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// parseToken reads one shorthand value. Anything unreadable is 0 and
// negative values clamp to 0.
func parseToken(tok string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(tok))
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return sanitize(v)
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// expand applies CSS shorthand expansion to 1..4 values.
func expand(vals []float64) Edges {
	switch len(vals) {
	case 0:
		return Edges{}
	case 1:
		return Uniform(vals[0])
	case 2:
		return Edges{Top: vals[0], Right: vals[1], Bottom: vals[0], Left: vals[1]}
	case 3:
		return Edges{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[1]}
	default:
		return Edges{Top: vals[0], Right: vals[1], Bottom: vals[2], Left: vals[3]}
	}
}

// ParseShorthand expands a CSS-style shorthand into explicit edges.
//
// raw may be a space-separated string, any Go number, a json.Number, a
// []float64, a []int or a []any holding numbers or numeric strings. Values
// past the fourth are ignored. Unsupported types yield zero edges.
func ParseShorthand(raw any) Edges {
	switch v := raw.(type) {
	case nil:
		return Edges{}
	case string:
		fields := strings.Fields(v)
		vals := make([]float64, 0, len(fields))
		for _, f := range fields {
			vals = append(vals, parseToken(f))
		}
		return expand(vals)
	case json.Number:
		return ParseShorthand(v.String())
	case float64:
		return Uniform(sanitize(v))
	case float32:
		return Uniform(sanitize(float64(v)))
	case int:
		return Uniform(sanitize(float64(v)))
	case int64:
		return Uniform(sanitize(float64(v)))
	case []float64:
		vals := make([]float64, len(v))
		for i, f := range v {
			vals[i] = sanitize(f)
		}
		return expand(vals)
	case []int:
		vals := make([]float64, len(v))
		for i, n := range v {
			vals[i] = sanitize(float64(n))
		}
		return expand(vals)
	case []any:
		vals := make([]float64, 0, len(v))
		for _, item := range v {
			vals = append(vals, scalar(item))
		}
		return expand(vals)
	case Edges:
		return v
	default:
		return Edges{}
	}
}

// scalar reads a single array element.
func scalar(v any) float64 {
	switch n := v.(type) {
	case float64:
		return sanitize(n)
	case int64:
		return sanitize(float64(n))
	case int:
		return sanitize(float64(n))
	case json.Number:
		return parseToken(n.String())
	case string:
		return parseToken(n)
	default:
		return 0
	}
}

// Shorthand is an Edges value that decodes from any shorthand form found in
// asset settings files. Decoding never fails; malformed input becomes zero
// edges and Set stays false.
type Shorthand struct {
	Edges
	// Set reports whether a usable value was present in the source document.
	Set bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Shorthand) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil || raw == nil {
		*s = Shorthand{}
		return nil
	}
	if arr, ok := raw.([]any); ok && len(arr) == 0 {
		*s = Shorthand{}
		return nil
	}
	*s = Shorthand{Edges: ParseShorthand(raw), Set: true}
	return nil
}

// MarshalJSON writes the shorthand in its 4-value string form, or null
// when unset.
func (s Shorthand) MarshalJSON() ([]byte, error) {
	if !s.Set {
		return []byte("null"), nil
	}
	return json.Marshal(s.Edges.String())
}

// UnmarshalTOML implements toml.Unmarshaler.
func (s *Shorthand) UnmarshalTOML(v any) error {
	if v == nil {
		*s = Shorthand{}
		return nil
	}
	*s = Shorthand{Edges: ParseShorthand(v), Set: true}
	return nil
}

// Or returns the shorthand's edges, or the parsed fallback when unset.
func (s Shorthand) Or(fallback string) Edges {
	if s.Set {
		return s.Edges
	}
	return ParseShorthand(fallback)
}
