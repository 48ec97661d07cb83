package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/jfreymuth/pulse"
)

// Play renders mono s16 samples at rate through the default sink and blocks
// until they finish. Cancelling ctx ends playback early and returns ctx.Err().
func Play(ctx context.Context, samples []int16, rate int, mediaName string) error {
	if len(samples) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	client, err := newClient("audio-speakers")
	if err != nil {
		return err
	}
	defer client.Close()

	source := &sampleSource{ctx: ctx, samples: samples}
	stream, err := client.NewPlayback(
		pulse.Int16Reader(source.read),
		pulse.PlaybackMono,
		pulse.PlaybackSampleRate(rate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName(mediaName),
	)
	if err != nil {
		return fmt.Errorf("create pulse playback stream: %w", err)
	}
	defer stream.Close()

	stream.Start()
	stream.Drain()
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := stream.Error(); err != nil {
		return fmt.Errorf("play pulse stream: %w", err)
	}
	return nil
}

// sampleSource feeds Pulse from memory and ends early once ctx is done.
type sampleSource struct {
	ctx     context.Context
	mu      sync.Mutex
	samples []int16
	cursor  int
}

func (s *sampleSource) read(buf []int16) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil || s.cursor >= len(s.samples) {
		return 0, pulse.EndOfData
	}
	n := copy(buf, s.samples[s.cursor:])
	s.cursor += n
	if s.cursor >= len(s.samples) {
		return n, pulse.EndOfData
	}
	return n, nil
}

// DecodePCM16 converts little-endian s16 bytes to samples scaled by volume.
// A trailing odd byte is dropped.
func DecodePCM16(data []byte, volume float64) []int16 {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(data[2*i:]))
		if volume != 1 {
			scaled := math.Round(float64(v) * volume)
			v = int16(max(math.MinInt16, min(math.MaxInt16, scaled)))
		}
		samples[i] = v
	}
	return samples
}
