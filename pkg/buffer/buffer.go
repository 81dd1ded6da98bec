// Package buffer implements the pitch-aware 8-bit single-channel pixel
// buffer shared by the codec, the transform planner and the rotation
// engine. A buffer lives either in host memory or in an accelerator
// memory domain; the two never alias, content moves between them only
// through an explicit row-by-row copy.
package buffer

import (
	"errors"
	"fmt"
	"image"

	"github.com/menta2k/raster-rotate/pkg/types"
)

var (
	// ErrAllocation indicates a buffer could not be sized or backed.
	ErrAllocation = errors.New("buffer allocation failed")
	// ErrTransfer indicates a host/device copy could not be performed.
	ErrTransfer = errors.New("buffer transfer failed")
)

// Allocator reserves storage in an external memory domain.
// device.Device implements it.
type Allocator interface {
	// AlignPitch returns the row pitch in bytes for a logical width.
	// The result is always >= width.
	AlignPitch(width int) int

	// Reserve obtains size bytes from the domain. The returned release
	// function gives the reservation back; calling it more than once is
	// a no-op.
	Reserve(size int64) ([]byte, func(), error)
}

// Buffer is a 2D 8-bit single-channel pixel buffer. Rows are pitch bytes
// apart in storage; pitch may exceed width to satisfy alignment rules of
// the owning memory domain. The pixel at (x, y) lives at offset
// y*pitch + x.
type Buffer struct {
	width    int
	height   int
	pitch    int
	location types.Location
	data     []byte
	release  func()
}

// NewHost allocates a host-resident buffer. Host buffers are tightly
// packed: pitch equals width. Pixels start zeroed.
func NewHost(width, height int) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrAllocation, width, height)
	}
	return &Buffer{
		width:    width,
		height:   height,
		pitch:    width,
		location: types.Host,
		data:     make([]byte, width*height),
	}, nil
}

// NewDevice allocates a device-resident buffer from alloc. The pitch is
// chosen by the allocator and may exceed width; callers must never
// assume pitch == width. Pixels start zeroed.
func NewDevice(width, height int, alloc Allocator) (*Buffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrAllocation, width, height)
	}
	if alloc == nil {
		return nil, fmt.Errorf("%w: nil allocator", ErrAllocation)
	}
	pitch := alloc.AlignPitch(width)
	if pitch < width {
		return nil, fmt.Errorf("%w: allocator returned pitch %d < width %d", ErrAllocation, pitch, width)
	}
	data, release, err := alloc.Reserve(int64(pitch) * int64(height))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAllocation, err)
	}
	return &Buffer{
		width:    width,
		height:   height,
		pitch:    pitch,
		location: types.Device,
		data:     data,
		release:  release,
	}, nil
}

// Width returns the logical width in pixels.
func (b *Buffer) Width() int { return b.width }

// Height returns the height in pixels.
func (b *Buffer) Height() int { return b.height }

// Pitch returns the row stride in bytes.
func (b *Buffer) Pitch() int { return b.pitch }

// Location reports which memory domain holds the pixels.
func (b *Buffer) Location() types.Location { return b.location }

// Bounds returns the buffer extent as a rectangle anchored at (0, 0).
func (b *Buffer) Bounds() types.Rect {
	return types.Rect{Width: b.width, Height: b.height}
}

// Data returns the raw pitched storage. The slice is only valid until
// Close; it must not escape the buffer's lifetime.
func (b *Buffer) Data() []byte { return b.data }

// Row returns the logical pixels of row y, excluding pitch padding.
func (b *Buffer) Row(y int) []byte {
	off := y * b.pitch
	return b.data[off : off+b.width]
}

// At returns the pixel at (x, y). The caller is responsible for bounds.
func (b *Buffer) At(x, y int) uint8 {
	return b.data[y*b.pitch+x]
}

// Set writes the pixel at (x, y). The caller is responsible for bounds.
func (b *Buffer) Set(x, y int, v uint8) {
	b.data[y*b.pitch+x] = v
}

// Fill sets every logical pixel to v. Pitch padding is left untouched.
func (b *Buffer) Fill(v uint8) {
	for y := 0; y < b.height; y++ {
		row := b.Row(y)
		for x := range row {
			row[x] = v
		}
	}
}

// CopyTo copies the logical pixel content into dst, row by row,
// respecting each buffer's own pitch. Source and destination must have
// identical logical dimensions. Works in any direction between host and
// device buffers; content is bit-identical after a round trip.
func (b *Buffer) CopyTo(dst *Buffer) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrTransfer)
	}
	if b.data == nil || dst.data == nil {
		return fmt.Errorf("%w: buffer released", ErrTransfer)
	}
	if b.width != dst.width || b.height != dst.height {
		return fmt.Errorf("%w: dimension mismatch %dx%d -> %dx%d",
			ErrTransfer, b.width, b.height, dst.width, dst.height)
	}
	for y := 0; y < b.height; y++ {
		copy(dst.Row(y), b.Row(y))
	}
	return nil
}

// Close releases the buffer's storage back to its memory domain.
// Closing twice is a no-op. Host buffers simply drop their slice.
func (b *Buffer) Close() {
	if b.data == nil {
		return
	}
	b.data = nil
	if b.release != nil {
		b.release()
		b.release = nil
	}
}

// ToImage copies the logical pixels into a tightly packed image.Gray.
func (b *Buffer) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.width, b.height))
	for y := 0; y < b.height; y++ {
		copy(img.Pix[y*img.Stride:y*img.Stride+b.width], b.Row(y))
	}
	return img
}

// FromImage creates a host buffer holding a copy of img's pixels.
func FromImage(img *image.Gray) (*Buffer, error) {
	bounds := img.Bounds()
	b, err := NewHost(bounds.Dx(), bounds.Dy())
	if err != nil {
		return nil, err
	}
	for y := 0; y < b.height; y++ {
		off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		copy(b.Row(y), img.Pix[off:])
	}
	return b, nil
}
