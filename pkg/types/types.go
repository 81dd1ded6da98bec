package types

import "fmt"

// Location identifies the memory domain that holds a buffer's pixels.
type Location int

const (
	// Host is ordinary process memory.
	Host Location = iota
	// Device is accelerator memory with its own pitch alignment rules.
	Device
)

// String returns a human-readable name for the location.
func (l Location) String() string {
	switch l {
	case Host:
		return "host"
	case Device:
		return "device"
	default:
		return fmt.Sprintf("location(%d)", int(l))
	}
}

// Point is a pixel coordinate.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is a rectangular pixel region. X and Y locate the top-left corner
// and may be negative when the rectangle lives in rotated source space.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains reports whether the pixel at p lies inside the rectangle.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// In reports whether the whole rectangle lies inside outer.
func (r Rect) In(outer Rect) bool {
	if r.Empty() {
		return false
	}
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.X+r.Width <= outer.X+outer.Width &&
		r.Y+r.Height <= outer.Y+outer.Height
}

// RotationSpec describes one rotation pass. Positive angles rotate
// counter-clockwise as the image is displayed (y grows downward).
// Pivot is the source-image point held fixed by the rotation. Offset is
// the rotated-space coordinate of the destination region's top-left
// corner; a planner.Plan supplies the bounding box min corner here so
// the rotated content lands at the destination origin.
type RotationSpec struct {
	AngleDegrees float64 `json:"angle_degrees"`
	Pivot        Point   `json:"pivot"`
	Offset       Point   `json:"offset"`
}
