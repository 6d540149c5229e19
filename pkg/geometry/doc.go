// Package geometry holds the pure math behind frame compositing: parsing of
// CSS-style edge shorthands, the border layout calculator and the canvas
// sizing policy.
//
// # Shorthand
//
// Border assets describe per-edge values the way CSS border shorthands do:
//
//	"10"          -> top=10 right=10 bottom=10 left=10
//	"10 20"       -> top=10 right=20 bottom=10 left=20
//	"1 2 3"       -> top=1  right=2  bottom=3  left=2
//	"1 2 3 4"     -> top=1  right=2  bottom=3  left=4
//
// [ParseShorthand] never fails. Tokens that are not numbers become 0, so a
// malformed settings file degrades to a zero-width edge instead of an error.
//
// # Layout
//
// [ComputeLayout] derives the final edge widths, outsets and inward padding
// for a canvas. Border thickness is a ratio of the canvas' shorter side; each
// edge keeps the proportions the border asset declares:
//
//	thickness = min(W, H) * ratio
//	final[i]  = thickness * base[i] / max(base..., 1)
//	outset[i] = final[i] * outsetBase[i] / base[i]    (0 when base[i] == 0)
//	padding[i] = max(final[i] - outset[i], 0)
//
// All functions in this package are pure and safe for concurrent use.
// Degenerate inputs clamp to zero rather than returning errors.
package geometry
