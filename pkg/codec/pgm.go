// Package codec reads and writes binary graymap (PGM "P5") files. The
// format is the pipeline's only external interface: an ASCII header
// with optional '#' comment lines, then width*height raw 8-bit samples
// in row-major order, tightly packed. Only maxval 255 is accepted.
package codec

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/menta2k/raster-rotate/pkg/buffer"
)

var (
	// ErrFormat indicates a malformed input file.
	ErrFormat = errors.New("malformed graymap")
	// ErrIO indicates the file could not be opened, read or written.
	ErrIO = errors.New("graymap i/o failed")
)

const magic = "P5"

// Load parses a binary graymap file into a host-resident buffer. The
// returned buffer is tightly packed (pitch == width); pitch relaxation
// happens only in later allocation steps, never here.
func Load(path string) (*buffer.Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer f.Close()
	b, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Decode parses a binary graymap from r. See Load.
func Decode(r io.Reader) (*buffer.Buffer, error) {
	br := bufio.NewReader(r)

	tok, err := nextToken(br)
	if err != nil {
		return nil, fmt.Errorf("%w: missing magic token", ErrFormat)
	}
	if tok != magic {
		return nil, fmt.Errorf("%w: magic token %q, want %q", ErrFormat, tok, magic)
	}

	width, err := nextInt(br, "width")
	if err != nil {
		return nil, err
	}
	height, err := nextInt(br, "height")
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: invalid dimensions %dx%d", ErrFormat, width, height)
	}
	maxval, err := nextInt(br, "maxval")
	if err != nil {
		return nil, err
	}
	// Only 8-bit full-range samples are supported. Other maxvals are
	// rejected rather than rescaled.
	if maxval != 255 {
		return nil, fmt.Errorf("%w: unsupported maxval %d, want 255", ErrFormat, maxval)
	}

	b, err := buffer.NewHost(width, height)
	if err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(br, b.Data()); err != nil {
		return nil, fmt.Errorf("%w: short pixel data, want %d bytes: %v", ErrFormat, width*height, err)
	}
	return b, nil
}

// Save writes the buffer as a binary graymap. Output rows are always
// tightly packed regardless of the buffer's pitch. The file is written
// to a temporary path in the same directory and renamed into place, so
// a failed save never leaves a partial file behind.
func Save(path string, b *buffer.Buffer) error {
	if b == nil || b.Data() == nil {
		return fmt.Errorf("%w: no buffer to save", ErrIO)
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := Encode(tmp, b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// Encode writes the buffer as a binary graymap to w. See Save.
func Encode(w io.Writer, b *buffer.Buffer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%s\n%d %d\n255\n", magic, b.Width(), b.Height()); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	for y := 0; y < b.Height(); y++ {
		if _, err := bw.Write(b.Row(y)); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return nil
}

// nextToken returns the next whitespace-delimited header token,
// skipping comment lines that start with '#'.
func nextToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		c, err := r.ReadByte()
		if err != nil {
			if len(tok) > 0 {
				return string(tok), nil
			}
			return "", err
		}
		switch {
		case c == '#' && len(tok) == 0:
			if _, err := r.ReadString('\n'); err != nil {
				return "", err
			}
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, c)
		}
	}
}

func nextInt(r *bufio.Reader, field string) (int, error) {
	tok, err := nextToken(r)
	if err != nil {
		return 0, fmt.Errorf("%w: missing %s", ErrFormat, field)
	}
	n, err := strconv.Atoi(tok)
	if err != nil {
		return 0, fmt.Errorf("%w: bad %s %q", ErrFormat, field, tok)
	}
	return n, nil
}
