package confidence

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
)

const (
	DefaultDevice = "/dev/video0"
	DefaultMin    = 7.0
	DefaultMax    = 10.0
)

// Device gates sampling on opening a V4L2 camera node. Frames are never read;
// samples are drawn uniformly from [Min, Max).
type Device struct {
	Path string
	Min  float64
	Max  float64
	// Float64 draws from [0,1). Nil uses math/rand/v2.
	Float64 func() float64
}

// Acquire opens the device node for the lifetime of the returned handle.
func (d Device) Acquire(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := strings.TrimSpace(d.Path)
	if path == "" {
		path = DefaultDevice
	}

	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: open camera %s: %w", ErrUnavailable, path, err)
	}

	lo, hi := d.Min, d.Max
	if hi <= lo {
		lo, hi = DefaultMin, DefaultMax
	}
	draw := d.Float64
	if draw == nil {
		draw = rand.Float64
	}
	return &deviceHandle{file: f, lo: lo, hi: hi, draw: draw}, nil
}

type deviceHandle struct {
	file *os.File
	lo   float64
	hi   float64
	draw func() float64
}

func (h *deviceHandle) Sample() float64 {
	return h.lo + h.draw()*(h.hi-h.lo)
}

func (h *deviceHandle) Close() error {
	return h.file.Close()
}
