// Package rasterrotate rotates single-channel 8-bit raster images.
//
// The package stages pixel data through an accelerator-style pitched
// memory domain, computes the bounding box of the rotated content and
// resamples it with nearest-neighbor interpolation, reading and writing
// binary graymap (PGM "P5") files.
//
// Basic usage:
//
//	package main
//
//	import (
//		"log"
//
//		rasterrotate "github.com/menta2k/raster-rotate"
//	)
//
//	func main() {
//		rot, err := rasterrotate.New()
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer rot.Close()
//
//		if _, err := rot.ProcessFile("in.pgm", "out.pgm", 45); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// The package consists of five main components:
//
// 1. Buffer (pkg/buffer): pitch-aware host/device pixel buffers
// 2. Codec (pkg/codec): binary graymap reading and writing
// 3. Planner (pkg/planner): rotated bounding box and pivot computation
// 4. Rotate (pkg/rotate): the nearest-neighbor rotation engine
// 5. Pipeline (pkg/pipeline): the load -> rotate -> save orchestration
//
// Positive angles rotate counter-clockwise as the image is displayed.
// Destination pixels with no source under them are written as 0.
package rasterrotate

import (
	"github.com/menta2k/raster-rotate/pkg/buffer"
	"github.com/menta2k/raster-rotate/pkg/codec"
	"github.com/menta2k/raster-rotate/pkg/device"
	"github.com/menta2k/raster-rotate/pkg/pipeline"
	"github.com/menta2k/raster-rotate/pkg/planner"
	"github.com/menta2k/raster-rotate/pkg/rotate"
	"github.com/menta2k/raster-rotate/pkg/types"
)

// Version of the raster rotation library
const Version = "1.0.0"

// Rotator provides a high-level interface for rotating raster images
type Rotator struct {
	dev  *device.Device
	pipe *pipeline.Pipeline
}

// New creates a new Rotator with the default device configuration
func New() (*Rotator, error) {
	return NewWithConfig(device.DefaultConfig(), 0)
}

// NewWithConfig creates a new Rotator against a specific device
// configuration. workers limits the engine's parallelism; 0 means all
// CPUs.
func NewWithConfig(cfg device.Config, workers int) (*Rotator, error) {
	dev, err := device.Open(cfg)
	if err != nil {
		return nil, err
	}
	engine := rotate.New()
	if workers > 0 {
		engine = rotate.NewWithWorkers(workers)
	}
	return &Rotator{
		dev:  dev,
		pipe: pipeline.NewWithEngine(dev, engine),
	}, nil
}

// Close releases the underlying device.
func (r *Rotator) Close() error {
	return r.dev.Close()
}

// DeviceInfo returns the capability report of the underlying device
func (r *Rotator) DeviceInfo() device.Info {
	return r.dev.Info()
}

// LoadImage loads a binary graymap from file into a host buffer
func (r *Rotator) LoadImage(path string) (*buffer.Buffer, error) {
	return codec.Load(path)
}

// SaveImage saves a buffer as a binary graymap file
func (r *Rotator) SaveImage(path string, b *buffer.Buffer) error {
	return codec.Save(path, b)
}

// Rotate rotates a host buffer by angleDegrees about its center and
// returns a new host buffer sized to the rotated bounding box
func (r *Rotator) Rotate(b *buffer.Buffer, angleDegrees float64) (*buffer.Buffer, error) {
	dst, _, err := r.pipe.Rotate(b, angleDegrees)
	return dst, err
}

// BoundingBox returns the destination box for rotating a width x height
// image by angleDegrees about its center
func (r *Rotator) BoundingBox(width, height int, angleDegrees float64) types.Rect {
	return planner.BoundingBox(width, height, angleDegrees)
}

// ProcessFile is a convenience function that loads, rotates, and saves
// an image in one call
func (r *Rotator) ProcessFile(inPath, outPath string, angleDegrees float64) (*pipeline.Result, error) {
	return r.pipe.Run(inPath, outPath, angleDegrees)
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
