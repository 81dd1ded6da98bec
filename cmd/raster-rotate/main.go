package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"

	rasterrotate "github.com/menta2k/raster-rotate"
	"github.com/menta2k/raster-rotate/internal/config"
	"github.com/menta2k/raster-rotate/internal/utils"
	"github.com/menta2k/raster-rotate/pkg/buffer"
	"github.com/menta2k/raster-rotate/pkg/device"
	"github.com/menta2k/raster-rotate/pkg/pipeline"
)

func main() {
	var in, out, cfgPath string
	var angle float64
	var workers int
	var pattern bool

	flag.StringVar(&in, "in", "", "input graymap path (binary PGM)")
	flag.StringVar(&out, "out", "", "output graymap path (default: <input>_rotated.pgm)")
	flag.Float64Var(&angle, "angle", 45, "rotation angle in degrees, counter-clockwise")
	flag.StringVar(&cfgPath, "config", "", "configuration file (JSON)")
	flag.IntVar(&workers, "workers", 0, "rotation worker goroutines, 0 = all CPUs")
	flag.BoolVar(&pattern, "pattern", false, "fall back to a 512x512 checkerboard if the input cannot be read")

	flag.Parse()
	if in == "" && !pattern {
		log.Fatalf("usage: %s -in input.pgm [-out output.pgm] [-angle degrees] [-workers n] [-pattern]",
			filepath.Base(os.Args[0]))
	}

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.LoadFromFile(cfgPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if workers == 0 {
		workers = cfg.Rotate.Workers
	}
	if !isFlagSet("angle") {
		angle = cfg.Rotate.DefaultAngle
	}

	rot, err := rasterrotate.NewWithConfig(device.Config{
		Name:           cfg.Device.Name,
		PitchAlignment: cfg.Device.PitchAlignment,
		Capacity:       cfg.Device.CapacityMB << 20,
	}, workers)
	if err != nil {
		log.Fatalf("device probe failed: %v", err)
	}
	defer rot.Close()

	info := rot.DeviceInfo()
	log.Printf("raster-rotate %s", rasterrotate.GetVersion())
	log.Printf("device %s (library %d.%d.%d)", info.Name, info.Version[0], info.Version[1], info.Version[2])
	log.Printf("  pitch alignment: %d bytes", info.PitchAlignment)
	log.Printf("  memory: %s free of %s", utils.FormatByteSize(info.Free), utils.FormatByteSize(info.Capacity))

	src, err := loadInput(rot, in, pattern)
	if err != nil {
		log.Fatal(err)
	}
	defer src.Close()
	log.Printf("loaded image: %dx%d", src.Width(), src.Height())

	if out == "" {
		base := in
		if base == "" {
			base = "pattern.pgm"
		}
		if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
			log.Fatal(err)
		}
		out = utils.GenerateOutputFilename(base, cfg.Output.OutputDir, cfg.Output.Prefix, cfg.Output.Suffix)
	}

	log.Printf("rotating image by %.1f degrees...", angle)
	dst, err := rot.Rotate(src, angle)
	if err != nil {
		log.Fatal(err)
	}
	defer dst.Close()
	log.Printf("rotated size: %dx%d", dst.Width(), dst.Height())

	if err := rot.SaveImage(out, dst); err != nil {
		log.Fatal(err)
	}
	log.Printf("wrote %s", out)
}

// loadInput loads the input file, or builds the checkerboard fallback
// pattern when that is allowed and the file cannot be read.
func loadInput(rot *rasterrotate.Rotator, in string, pattern bool) (*buffer.Buffer, error) {
	if in != "" && (utils.FileExists(in) || !pattern) {
		src, err := rot.LoadImage(in)
		if err == nil {
			return src, nil
		}
		if !pattern {
			return nil, err
		}
		log.Printf("failed to load %s (%v), using test pattern instead", in, err)
	}
	return pipeline.Checkerboard(512, 512, 32)
}

// isFlagSet reports whether a flag was given explicitly on the command
// line, as opposed to holding its default.
func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
