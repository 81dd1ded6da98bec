// Package device models the accelerator memory domain the rotation
// pipeline stages its buffers through: a capability probe, pitch
// alignment rules and a bounded allocation arena with exclusive
// ownership per reservation. The probe/allocator boundary is what a
// real GPU backend would implement instead.
package device

import (
	"errors"
	"fmt"
	"sync"
)

// Library version triple reported by Info. Diagnostic only; callers
// must not change behavior based on it.
const (
	VersionMajor = 1
	VersionMinor = 2
	VersionBuild = 0
)

var (
	// ErrNoDevice indicates the capability probe failed.
	ErrNoDevice = errors.New("no usable device")
	// ErrOutOfMemory indicates the device arena is exhausted.
	ErrOutOfMemory = errors.New("device out of memory")
	// ErrClosed indicates the device has been shut down.
	ErrClosed = errors.New("device closed")
)

// Config describes the device to open.
type Config struct {
	// Name identifies the device in diagnostics.
	Name string
	// PitchAlignment is the row alignment in bytes. Must be a power of
	// two. Buffer pitches are rounded up to a multiple of it.
	PitchAlignment int
	// Capacity is the total device memory in bytes.
	Capacity int64
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Name:           "hostsim",
		PitchAlignment: 64,
		Capacity:       256 << 20,
	}
}

// Info is the capability report returned by a probe.
type Info struct {
	Name           string
	Version        [3]int
	PitchAlignment int
	Capacity       int64
	Free           int64
}

// Device is an exclusive, bounded memory domain for device-resident
// buffers. All methods are safe for concurrent use.
type Device struct {
	name      string
	alignment int
	capacity  int64

	mu     sync.Mutex
	used   int64
	closed bool
}

// Open probes and opens a device. It fails with ErrNoDevice if the
// configuration describes a device that cannot work: non-power-of-two
// alignment or no memory.
func Open(cfg Config) (*Device, error) {
	if cfg.Name == "" {
		cfg.Name = DefaultConfig().Name
	}
	if cfg.PitchAlignment <= 0 || cfg.PitchAlignment&(cfg.PitchAlignment-1) != 0 {
		return nil, fmt.Errorf("%w: pitch alignment %d is not a power of two", ErrNoDevice, cfg.PitchAlignment)
	}
	if cfg.Capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrNoDevice, cfg.Capacity)
	}
	return &Device{
		name:      cfg.Name,
		alignment: cfg.PitchAlignment,
		capacity:  cfg.Capacity,
	}, nil
}

// Info returns the capability report for diagnostic printing.
func (d *Device) Info() Info {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Info{
		Name:           d.name,
		Version:        [3]int{VersionMajor, VersionMinor, VersionBuild},
		PitchAlignment: d.alignment,
		Capacity:       d.capacity,
		Free:           d.capacity - d.used,
	}
}

// AlignPitch rounds a logical row width up to the device alignment.
func (d *Device) AlignPitch(width int) int {
	a := d.alignment
	return (width + a - 1) &^ (a - 1)
}

// Reserve obtains size bytes of device memory. The release function
// returns the reservation to the arena; releasing twice is a no-op.
// Nothing is held back on failure.
func (d *Device) Reserve(size int64) ([]byte, func(), error) {
	if size <= 0 {
		return nil, nil, fmt.Errorf("invalid reservation size %d", size)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, nil, ErrClosed
	}
	if d.used+size > d.capacity {
		return nil, nil, fmt.Errorf("%w: want %d bytes, %d free", ErrOutOfMemory, size, d.capacity-d.used)
	}
	d.used += size

	var once sync.Once
	release := func() {
		once.Do(func() {
			d.mu.Lock()
			d.used -= size
			d.mu.Unlock()
		})
	}
	return make([]byte, size), release, nil
}

// Close shuts the device down. Outstanding reservations may still be
// released afterwards; new reservations fail with ErrClosed.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	d.closed = true
	return nil
}
