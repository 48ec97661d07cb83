// Package confidence samples a periodic advisory confidence score from a
// camera-gated source.
package confidence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/clock"
)

// DefaultPeriod is the interval between samples.
const DefaultPeriod = 2 * time.Second

// ErrUnavailable reports that the source could not be acquired.
var ErrUnavailable = errors.New("confidence source unavailable")

// Handle is an acquired source. Close releases the underlying device.
type Handle interface {
	Sample() float64
	Close() error
}

// Source acquires exclusive access to a sample producer.
type Source interface {
	Acquire(ctx context.Context) (Handle, error)
}

type Options struct {
	Period   time.Duration
	Clock    clock.Clock
	Logger   *slog.Logger
	OnSample func(value float64)
}

// Sampler owns at most one Handle and reads it once per period.
type Sampler struct {
	source Source
	opts   Options

	mu         sync.Mutex
	handle     Handle
	timer      clock.Timer
	generation uint64
	latest     float64
	hasSample  bool
	err        error
}

// NewSampler wraps source. A nil source is permanently unavailable.
func NewSampler(source Source, opts Options) *Sampler {
	if opts.Period <= 0 {
		opts.Period = DefaultPeriod
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	return &Sampler{source: source, opts: opts}
}

// Start acquires the source and begins sampling. Acquisition failure leaves
// the sampler unavailable; the error is also kept for Err.
func (s *Sampler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.handle != nil {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	if s.source == nil {
		s.setErr(ErrUnavailable)
		return ErrUnavailable
	}

	handle, err := s.source.Acquire(ctx)
	if err != nil {
		if !errors.Is(err, ErrUnavailable) {
			err = fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		s.setErr(err)
		if s.opts.Logger != nil {
			s.opts.Logger.Warn("confidence source unavailable", "error", err.Error())
		}
		return err
	}

	s.mu.Lock()
	if s.handle != nil {
		s.mu.Unlock()
		_ = handle.Close()
		return nil
	}
	s.handle = handle
	s.err = nil
	s.generation++
	s.scheduleLocked(s.generation)
	s.mu.Unlock()
	return nil
}

// Stop halts sampling and releases the handle. It is safe to call repeatedly.
func (s *Sampler) Stop() {
	s.mu.Lock()
	s.generation++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	handle := s.handle
	s.handle = nil
	s.mu.Unlock()

	if handle == nil {
		return
	}
	if err := handle.Close(); err != nil && s.opts.Logger != nil {
		s.opts.Logger.Debug("release confidence source", "error", err.Error())
	}
}

// Latest returns the most recent sample, if any.
func (s *Sampler) Latest() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.hasSample
}

// Available reports whether the source is currently acquired.
func (s *Sampler) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

func (s *Sampler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Sampler) scheduleLocked(generation uint64) {
	s.timer = s.opts.Clock.AfterFunc(s.opts.Period, func() {
		s.tick(generation)
	})
}

func (s *Sampler) tick(generation uint64) {
	s.mu.Lock()
	if generation != s.generation || s.handle == nil {
		s.mu.Unlock()
		return
	}
	value := s.handle.Sample()
	s.latest, s.hasSample = value, true
	s.scheduleLocked(generation)
	onSample := s.opts.OnSample
	s.mu.Unlock()

	if onSample != nil {
		onSample(value)
	}
}

func (s *Sampler) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
