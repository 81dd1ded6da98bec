package buffer

import (
	"errors"
	"testing"

	"github.com/menta2k/raster-rotate/pkg/types"
)

// stubAllocator pads pitch to a fixed alignment and counts releases.
type stubAllocator struct {
	alignment int
	released  int
	fail      bool
}

func (a *stubAllocator) AlignPitch(width int) int {
	if a.alignment <= 1 {
		return width
	}
	return (width + a.alignment - 1) / a.alignment * a.alignment
}

func (a *stubAllocator) Reserve(size int64) ([]byte, func(), error) {
	if a.fail {
		return nil, nil, errors.New("arena exhausted")
	}
	return make([]byte, size), func() { a.released++ }, nil
}

func TestNewHost(t *testing.T) {
	b, err := NewHost(7, 3)
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	defer b.Close()

	if b.Width() != 7 || b.Height() != 3 {
		t.Errorf("Expected 7x3, got %dx%d", b.Width(), b.Height())
	}

	if b.Pitch() != 7 {
		t.Errorf("Host buffer should be tightly packed, pitch = %d", b.Pitch())
	}

	if b.Location() != types.Host {
		t.Errorf("Expected host location, got %v", b.Location())
	}

	for y := 0; y < 3; y++ {
		for _, v := range b.Row(y) {
			if v != 0 {
				t.Fatal("New buffer should be zero-initialized")
			}
		}
	}
}

func TestNewHostInvalidDimensions(t *testing.T) {
	tests := []struct {
		width, height int
	}{
		{0, 10},
		{10, 0},
		{-1, 10},
		{10, -1},
	}

	for _, test := range tests {
		_, err := NewHost(test.width, test.height)
		if !errors.Is(err, ErrAllocation) {
			t.Errorf("NewHost(%d, %d): expected ErrAllocation, got %v",
				test.width, test.height, err)
		}
	}
}

func TestNewDevicePitch(t *testing.T) {
	alloc := &stubAllocator{alignment: 64}

	b, err := NewDevice(100, 10, alloc)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer b.Close()

	if b.Pitch() != 128 {
		t.Errorf("Expected pitch 128 for width 100 at alignment 64, got %d", b.Pitch())
	}

	if b.Location() != types.Device {
		t.Errorf("Expected device location, got %v", b.Location())
	}

	if len(b.Data()) != 128*10 {
		t.Errorf("Expected %d bytes of storage, got %d", 128*10, len(b.Data()))
	}
}

func TestNewDeviceAllocationFailure(t *testing.T) {
	alloc := &stubAllocator{alignment: 64, fail: true}

	_, err := NewDevice(100, 10, alloc)
	if !errors.Is(err, ErrAllocation) {
		t.Errorf("Expected ErrAllocation, got %v", err)
	}
}

func TestSetAtRespectsPitch(t *testing.T) {
	alloc := &stubAllocator{alignment: 16}
	b, err := NewDevice(10, 4, alloc)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer b.Close()

	b.Set(9, 3, 42)
	if b.At(9, 3) != 42 {
		t.Error("At should read back what Set wrote")
	}

	if b.Data()[3*16+9] != 42 {
		t.Error("Pixel (9,3) should live at offset y*pitch+x")
	}
}

func TestCopyRoundTrip(t *testing.T) {
	host, err := NewHost(33, 9)
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	defer host.Close()

	for y := 0; y < host.Height(); y++ {
		row := host.Row(y)
		for x := range row {
			row[x] = uint8((y*31 + x*7) % 256)
		}
	}

	alloc := &stubAllocator{alignment: 64}
	dev, err := NewDevice(33, 9, alloc)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer dev.Close()

	back, err := NewHost(33, 9)
	if err != nil {
		t.Fatalf("NewHost failed: %v", err)
	}
	defer back.Close()

	if err := host.CopyTo(dev); err != nil {
		t.Fatalf("host->device copy failed: %v", err)
	}
	if err := dev.CopyTo(back); err != nil {
		t.Fatalf("device->host copy failed: %v", err)
	}

	for y := 0; y < host.Height(); y++ {
		for x := 0; x < host.Width(); x++ {
			if host.At(x, y) != back.At(x, y) {
				t.Fatalf("Round trip changed pixel (%d,%d): %d != %d",
					x, y, host.At(x, y), back.At(x, y))
			}
		}
	}
}

func TestCopyToDimensionMismatch(t *testing.T) {
	a, _ := NewHost(4, 4)
	defer a.Close()
	b, _ := NewHost(4, 5)
	defer b.Close()

	if err := a.CopyTo(b); !errors.Is(err, ErrTransfer) {
		t.Errorf("Expected ErrTransfer for dimension mismatch, got %v", err)
	}
}

func TestCopyToReleasedBuffer(t *testing.T) {
	a, _ := NewHost(4, 4)
	b, _ := NewHost(4, 4)
	b.Close()

	if err := a.CopyTo(b); !errors.Is(err, ErrTransfer) {
		t.Errorf("Expected ErrTransfer for released destination, got %v", err)
	}
	a.Close()
}

func TestCloseReleasesOnce(t *testing.T) {
	alloc := &stubAllocator{alignment: 32}
	b, err := NewDevice(8, 8, alloc)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}

	b.Close()
	b.Close()

	if alloc.released != 1 {
		t.Errorf("Expected exactly one release, got %d", alloc.released)
	}
}

func TestFill(t *testing.T) {
	alloc := &stubAllocator{alignment: 16}
	b, err := NewDevice(5, 3, alloc)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer b.Close()

	b.Fill(9)
	for y := 0; y < 3; y++ {
		for x := 0; x < 5; x++ {
			if b.At(x, y) != 9 {
				t.Fatalf("Pixel (%d,%d) not filled", x, y)
			}
		}
	}

	// Padding bytes stay untouched
	if b.Data()[5] != 0 {
		t.Error("Fill should not write into pitch padding")
	}
}

func TestImageInterop(t *testing.T) {
	alloc := &stubAllocator{alignment: 32}
	b, err := NewDevice(6, 4, alloc)
	if err != nil {
		t.Fatalf("NewDevice failed: %v", err)
	}
	defer b.Close()

	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			b.Set(x, y, uint8(y*6+x))
		}
	}

	img := b.ToImage()
	if img.Bounds().Dx() != 6 || img.Bounds().Dy() != 4 {
		t.Fatalf("Unexpected image bounds: %v", img.Bounds())
	}

	back, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage failed: %v", err)
	}
	defer back.Close()

	for y := 0; y < 4; y++ {
		for x := 0; x < 6; x++ {
			if back.At(x, y) != b.At(x, y) {
				t.Fatalf("Interop changed pixel (%d,%d)", x, y)
			}
		}
	}
}
