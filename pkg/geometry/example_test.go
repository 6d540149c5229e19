package geometry_test

import (
	"fmt"

	"github.com/catxpapa/catxframeup/pkg/geometry"
)

func ExampleFitCanvas() {
	// A 4000x3000 photo exceeds the canvas limit and scales down.
	w, h := geometry.FitCanvas(4000, 3000, 0)
	fmt.Println(w, h)

	// Small photos are kept as they are.
	w, h = geometry.FitCanvas(800, 600, 0)
	fmt.Println(w, h)
	// Output:
	// 2048 1536
	// 800 600
}

func ExampleParseShorthand() {
	fmt.Println(geometry.ParseShorthand("10 20"))
	fmt.Println(geometry.ParseShorthand("12px 4 8"))
	fmt.Println(geometry.ParseShorthand(30))
	// Output:
	// 10 20 10 20
	// 12 4 8 4
	// 30 30 30 30
}

func ExampleComputeLayout() {
	// A 1000x800 canvas with a border at 10% of the shorter side. The
	// border asset has 40px edges, 10px of which hang outside the photo.
	l := geometry.ComputeLayout(1000, 800, 0.1, geometry.Uniform(40), geometry.Uniform(10))
	fmt.Println("widths: ", l.Widths)
	fmt.Println("outsets:", l.Outsets)
	fmt.Println("padding:", l.Padding)
	fmt.Printf("photo:   %+v\n", l.PhotoRect(1000, 800))
	// Output:
	// widths:  80 80 80 80
	// outsets: 20 20 20 20
	// padding: 60 60 60 60
	// photo:   {X:60 Y:60 W:880 H:680}
}
