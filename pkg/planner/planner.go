// Package planner computes the destination geometry for a rotation:
// the axis-aligned bounding box of the rotated source rectangle and the
// pivot the rotation turns about. The same angle convention as the
// rotation engine applies: positive angles are counter-clockwise as the
// image is displayed (y grows downward).
package planner

import (
	"math"

	"github.com/menta2k/raster-rotate/pkg/types"
)

// RotatePoint rotates (x, y) about (cx, cy) by angleDegrees,
// counter-clockwise in display orientation.
func RotatePoint(x, y, cx, cy, angleDegrees float64) (float64, float64) {
	sin, cos := SinCos(angleDegrees)
	dx, dy := x-cx, y-cy
	return cx + cos*dx + sin*dy, cy - sin*dx + cos*dy
}

// SinCos returns the sine and cosine of an angle in degrees. Quarter
// turns are returned exactly so that floor/ceil on rotated corners does
// not pick up floating-point noise.
func SinCos(angleDegrees float64) (sin, cos float64) {
	a := math.Mod(angleDegrees, 360)
	if a < 0 {
		a += 360
	}
	switch a {
	case 0:
		return 0, 1
	case 90:
		return 1, 0
	case 180:
		return 0, -1
	case 270:
		return -1, 0
	}
	return math.Sincos(a * math.Pi / 180)
}

// BoundingBox returns the minimal axis-aligned rectangle containing the
// width x height source rectangle rotated by angleDegrees about its
// exact geometric center. X and Y are the floor of the min corner in
// source coordinates; Width and Height extend the box to the ceil of
// the max corner, so every rotated corner lies inside it.
func BoundingBox(width, height int, angleDegrees float64) types.Rect {
	return cornerBounds(width, height, float64(width)/2, float64(height)/2, angleDegrees)
}

// Pivot returns the default rotation pivot: the geometric center of the
// source rectangle, floor-divided to integer pixel coordinates.
func Pivot(width, height int) types.Point {
	return types.Point{X: width / 2, Y: height / 2}
}

// Plan ties a bounding box to the pivot it was computed about, so the
// box and the sampled content cannot disagree.
type Plan struct {
	// Bounds is the destination box. X and Y are its min corner in
	// rotated source space and become the engine's offset; Width and
	// Height size the destination buffer.
	Bounds types.Rect
	// Pivot is the integer rotation pivot.
	Pivot types.Point
}

// New computes the destination geometry for rotating a width x height
// source by angleDegrees about its default pivot. Unlike BoundingBox,
// the corners are rotated about the integer pivot actually used by the
// engine, so content stays inside the box for odd dimensions too.
func New(width, height int, angleDegrees float64) Plan {
	pivot := Pivot(width, height)
	return Plan{
		Bounds: cornerBounds(width, height, float64(pivot.X), float64(pivot.Y), angleDegrees),
		Pivot:  pivot,
	}
}

// Spec returns the rotation spec for executing the plan with the
// destination anchored at the bounding box min corner.
func (p Plan) Spec(angleDegrees float64) types.RotationSpec {
	return types.RotationSpec{
		AngleDegrees: angleDegrees,
		Pivot:        p.Pivot,
		Offset:       types.Point{X: p.Bounds.X, Y: p.Bounds.Y},
	}
}

// Approx45 is the fixed 1.5x bounding box shortcut for the 45 degree
// case. It is an approximation kept as an optional fast path; the
// corner-rotation method in BoundingBox is the reference behavior.
// sqrt(2) would be exact for a square, 1.5 simply never clips.
func Approx45(width, height int) types.Rect {
	return types.Rect{
		Width:  width * 3 / 2,
		Height: height * 3 / 2,
	}
}

func cornerBounds(width, height int, cx, cy, angleDegrees float64) types.Rect {
	w, h := float64(width), float64(height)
	xs := [4]float64{0, w, 0, w}
	ys := [4]float64{0, 0, h, h}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i < 4; i++ {
		x, y := RotatePoint(xs[i], ys[i], cx, cy, angleDegrees)
		minX = math.Min(minX, x)
		maxX = math.Max(maxX, x)
		minY = math.Min(minY, y)
		maxY = math.Max(maxY, y)
	}
	// Size from the integer anchor, not from the float extent:
	// floor(min)+ceil(max-min) can stop short of max, clipping a
	// sub-pixel sliver along the far edge.
	x := int(math.Floor(minX))
	y := int(math.Floor(minY))
	return types.Rect{
		X:      x,
		Y:      y,
		Width:  int(math.Ceil(maxX)) - x,
		Height: int(math.Ceil(maxY)) - y,
	}
}
