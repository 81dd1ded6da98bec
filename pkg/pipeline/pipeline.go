// Package pipeline orchestrates one rotation invocation: load the
// input graymap, stage it into device memory, plan the destination
// geometry, run the rotation engine, copy the result back to the host
// and save it. Any error aborts the whole invocation; there is no
// partial-success mode.
package pipeline

import (
	"fmt"

	"github.com/menta2k/raster-rotate/pkg/buffer"
	"github.com/menta2k/raster-rotate/pkg/codec"
	"github.com/menta2k/raster-rotate/pkg/device"
	"github.com/menta2k/raster-rotate/pkg/planner"
	"github.com/menta2k/raster-rotate/pkg/rotate"
	"github.com/menta2k/raster-rotate/pkg/types"
)

// Pipeline runs rotation invocations against one opened device.
type Pipeline struct {
	dev    *device.Device
	engine *rotate.Engine
}

// New creates a pipeline using the default rotation engine.
func New(dev *device.Device) *Pipeline {
	return NewWithEngine(dev, rotate.New())
}

// NewWithEngine creates a pipeline with a specific engine, e.g. one
// with a fixed worker count.
func NewWithEngine(dev *device.Device, engine *rotate.Engine) *Pipeline {
	return &Pipeline{dev: dev, engine: engine}
}

// Result reports the geometry of a completed invocation.
type Result struct {
	InputSize  types.Rect   `json:"input_size"`
	OutputSize types.Rect   `json:"output_size"`
	Angle      float64      `json:"angle"`
	Plan       planner.Plan `json:"plan"`
}

// Run executes the full load -> rotate -> save sequence. On success the
// output file is fully written (the codec renames it into place); on
// failure no output file is left in an indeterminate state.
func (p *Pipeline) Run(inPath, outPath string, angleDegrees float64) (*Result, error) {
	host, err := codec.Load(inPath)
	if err != nil {
		return nil, err
	}
	defer host.Close()

	dst, res, err := p.Rotate(host, angleDegrees)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	if err := codec.Save(outPath, dst); err != nil {
		return nil, err
	}
	return res, nil
}

// Rotate stages a host buffer through the device, rotates it by
// angleDegrees about its center and returns a new host buffer sized to
// the rotated bounding box. The input buffer is not modified.
func (p *Pipeline) Rotate(host *buffer.Buffer, angleDegrees float64) (*buffer.Buffer, *Result, error) {
	w, h := host.Width(), host.Height()

	devSrc, err := buffer.NewDevice(w, h, p.dev)
	if err != nil {
		return nil, nil, fmt.Errorf("source upload: %w", err)
	}
	defer devSrc.Close()
	if err := host.CopyTo(devSrc); err != nil {
		return nil, nil, fmt.Errorf("source upload: %w", err)
	}

	plan := planner.New(w, h, angleDegrees)

	devDst, err := buffer.NewDevice(plan.Bounds.Width, plan.Bounds.Height, p.dev)
	if err != nil {
		return nil, nil, fmt.Errorf("destination: %w", err)
	}
	defer devDst.Close()

	err = p.engine.Rotate(devSrc, devSrc.Bounds(), devDst, devDst.Bounds(), plan.Spec(angleDegrees))
	if err != nil {
		return nil, nil, err
	}

	hostDst, err := buffer.NewHost(plan.Bounds.Width, plan.Bounds.Height)
	if err != nil {
		return nil, nil, fmt.Errorf("readback: %w", err)
	}
	if err := devDst.CopyTo(hostDst); err != nil {
		hostDst.Close()
		return nil, nil, fmt.Errorf("readback: %w", err)
	}

	return hostDst, &Result{
		InputSize:  host.Bounds(),
		OutputSize: hostDst.Bounds(),
		Angle:      angleDegrees,
		Plan:       plan,
	}, nil
}

// Checkerboard builds the classic fallback test pattern used when no
// input image is available: alternating 255 and 64 squares.
func Checkerboard(width, height, check int) (*buffer.Buffer, error) {
	if check <= 0 {
		check = 32
	}
	b, err := buffer.NewHost(width, height)
	if err != nil {
		return nil, err
	}
	for y := 0; y < height; y++ {
		row := b.Row(y)
		for x := 0; x < width; x++ {
			if ((x/check)+(y/check))%2 == 0 {
				row[x] = 255
			} else {
				row[x] = 64
			}
		}
	}
	return b, nil
}
