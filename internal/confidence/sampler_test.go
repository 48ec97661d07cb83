package confidence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/clock"
)

type countingSource struct {
	acquired atomic.Int32
	released atomic.Int32
	fail     error
	value    float64
}

func (s *countingSource) Acquire(context.Context) (Handle, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	s.acquired.Add(1)
	return &countingHandle{source: s}, nil
}

type countingHandle struct {
	source *countingSource
	closed atomic.Bool
}

func (h *countingHandle) Sample() float64 { return h.source.value }

func (h *countingHandle) Close() error {
	if h.closed.CompareAndSwap(false, true) {
		h.source.released.Add(1)
	}
	return nil
}

func TestSamplerEmitsOncePerPeriod(t *testing.T) {
	source := &countingSource{value: 8.25}
	mc := clock.NewManual(time.Unix(0, 0))
	var samples atomic.Int32
	sampler := NewSampler(source, Options{Clock: mc, OnSample: func(float64) { samples.Add(1) }})

	require.NoError(t, sampler.Start(context.Background()))
	require.True(t, sampler.Available())

	_, ok := sampler.Latest()
	require.False(t, ok)

	mc.Advance(DefaultPeriod - time.Millisecond)
	require.Zero(t, samples.Load())

	mc.Advance(time.Millisecond)
	value, ok := sampler.Latest()
	require.True(t, ok)
	require.Equal(t, 8.25, value)

	mc.Advance(3 * DefaultPeriod)
	require.Equal(t, int32(4), samples.Load())

	sampler.Stop()
	mc.Advance(10 * DefaultPeriod)
	require.Equal(t, int32(4), samples.Load())
	require.Zero(t, mc.Pending())
}

func TestSamplerAcquireFailureIsUnavailable(t *testing.T) {
	source := &countingSource{fail: errors.New("permission denied")}
	sampler := NewSampler(source, Options{Clock: clock.NewManual(time.Unix(0, 0))})

	err := sampler.Start(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.False(t, sampler.Available())
	require.ErrorIs(t, sampler.Err(), ErrUnavailable)

	_, ok := sampler.Latest()
	require.False(t, ok)
	require.NotPanics(t, sampler.Stop)
}

func TestSamplerNilSource(t *testing.T) {
	sampler := NewSampler(nil, Options{})
	require.ErrorIs(t, sampler.Start(context.Background()), ErrUnavailable)
	require.False(t, sampler.Available())
}

func TestSamplerAcquireReleaseBalancedAcrossSessions(t *testing.T) {
	source := &countingSource{value: 9}
	mc := clock.NewManual(time.Unix(0, 0))

	for range 5 {
		sampler := NewSampler(source, Options{Clock: mc})
		require.NoError(t, sampler.Start(context.Background()))
		require.NoError(t, sampler.Start(context.Background()))
		mc.Advance(DefaultPeriod)
		sampler.Stop()
		sampler.Stop()
	}

	require.Equal(t, int32(5), source.acquired.Load())
	require.Equal(t, source.acquired.Load(), source.released.Load())
}

func TestSamplerRestartAfterStop(t *testing.T) {
	source := &countingSource{value: 7.5}
	mc := clock.NewManual(time.Unix(0, 0))
	sampler := NewSampler(source, Options{Clock: mc})

	require.NoError(t, sampler.Start(context.Background()))
	sampler.Stop()
	require.False(t, sampler.Available())

	require.NoError(t, sampler.Start(context.Background()))
	mc.Advance(DefaultPeriod)
	value, ok := sampler.Latest()
	require.True(t, ok)
	require.Equal(t, 7.5, value)
	require.Equal(t, 1, mc.Pending())

	sampler.Stop()
	require.Equal(t, int32(2), source.released.Load())
}

func TestDeviceSamplesWithinRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	draws := []float64{0, 0.5, 0.999}
	i := 0
	device := Device{Path: path, Float64: func() float64 {
		v := draws[i%len(draws)]
		i++
		return v
	}}

	handle, err := device.Acquire(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7.0, handle.Sample())
	require.Equal(t, 8.5, handle.Sample())
	require.InDelta(t, 9.997, handle.Sample(), 1e-9)
	require.NoError(t, handle.Close())
}

func TestDeviceRandomDrawsStayBounded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "video0")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	handle, err := Device{Path: path, Min: 7, Max: 10}.Acquire(context.Background())
	require.NoError(t, err)
	defer handle.Close()

	for range 200 {
		v := handle.Sample()
		require.GreaterOrEqual(t, v, 7.0)
		require.Less(t, v, 10.0)
	}
}

func TestDeviceMissingIsUnavailable(t *testing.T) {
	_, err := Device{Path: filepath.Join(t.TempDir(), "missing")}.Acquire(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	require.ErrorIs(t, err, os.ErrNotExist)
}
