package playback

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/clock"
)

type fakeSynth struct {
	mu        sync.Mutex
	spoken    []Utterance
	failures  int
	active    atomic.Int32
	maxActive atomic.Int32
	started   chan string
	release   chan struct{}
	voices    []Voice
	voiceErr  error
}

func newFakeSynth() *fakeSynth {
	return &fakeSynth{
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (s *fakeSynth) Voices(context.Context) ([]Voice, error) {
	return s.voices, s.voiceErr
}

func (s *fakeSynth) Speak(ctx context.Context, u Utterance) error {
	n := s.active.Add(1)
	defer s.active.Add(-1)
	for {
		peak := s.maxActive.Load()
		if n <= peak || s.maxActive.CompareAndSwap(peak, n) {
			break
		}
	}

	s.mu.Lock()
	s.spoken = append(s.spoken, u)
	fail := s.failures > 0
	if fail {
		s.failures--
	}
	s.mu.Unlock()

	s.started <- u.Text
	if fail {
		return errors.New("audio device busy")
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.release:
		return nil
	}
}

func (s *fakeSynth) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spoken)
}

func waitStarted(t *testing.T, s *fakeSynth) string {
	t.Helper()
	select {
	case text := <-s.started:
		return text
	case <-time.After(2 * time.Second):
		t.Fatal("utterance did not start")
		return ""
	}
}

type signalCounter struct {
	starts   atomic.Int32
	ends     atomic.Int32
	overlap  atomic.Bool
	speaking atomic.Int32
}

func (c *signalCounter) options(opts Options) Options {
	opts.OnStart = func() {
		c.starts.Add(1)
		if c.speaking.Add(1) > 1 {
			c.overlap.Store(true)
		}
	}
	opts.OnEnd = func() {
		c.ends.Add(1)
		c.speaking.Add(-1)
	}
	return opts
}

func TestEnablingSpeaksCurrentPrompt(t *testing.T) {
	synth := newFakeSynth()
	synth.voices = []Voice{{ID: "v1", Locale: "en-US", Gender: "female"}}
	ctrl := NewController(synth, Options{})
	defer ctrl.Close()

	ctrl.SetPrompt("Tell me about yourself.")
	require.Zero(t, synth.count())

	ctrl.SetEnabled(true)
	require.Equal(t, "Tell me about yourself.", waitStarted(t, synth))
	require.Eventually(t, ctrl.Speaking, time.Second, 5*time.Millisecond)

	synth.mu.Lock()
	u := synth.spoken[0]
	synth.mu.Unlock()
	require.Equal(t, 0.95, u.Rate)
	require.Equal(t, 1.05, u.Pitch)
	require.Equal(t, 1.0, u.Volume)
	require.NotNil(t, u.Voice)
	require.Equal(t, "v1", u.Voice.ID)

	synth.release <- struct{}{}
	require.Eventually(t, func() bool { return ctrl.Phase() == PhaseIdle }, time.Second, 5*time.Millisecond)
}

func TestPromptChangeCancelsPreviousUtterance(t *testing.T) {
	synth := newFakeSynth()
	var signals signalCounter
	ctrl := NewController(synth, signals.options(Options{}))
	defer ctrl.Close()

	ctrl.SetEnabled(true)
	ctrl.SetPrompt("first")
	waitStarted(t, synth)

	ctrl.SetPrompt("second")
	require.Equal(t, "second", waitStarted(t, synth))

	require.Equal(t, int32(1), synth.maxActive.Load())
	require.False(t, signals.overlap.Load())
	require.Equal(t, int32(2), signals.starts.Load())
	require.Equal(t, int32(1), signals.ends.Load())
}

func TestSamePromptDoesNotReplay(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, Options{})
	defer ctrl.Close()

	ctrl.SetEnabled(true)
	ctrl.SetPrompt("again")
	waitStarted(t, synth)
	ctrl.SetPrompt("again")

	require.Equal(t, 1, synth.count())
}

func TestDisableCancelsImmediatelyAndDoesNotResume(t *testing.T) {
	synth := newFakeSynth()
	var signals signalCounter
	ctrl := NewController(synth, signals.options(Options{}))
	defer ctrl.Close()

	ctrl.SetPrompt("question")
	ctrl.SetEnabled(true)
	waitStarted(t, synth)

	ctrl.SetEnabled(false)
	require.Equal(t, PhaseIdle, ctrl.Phase())
	require.Equal(t, int32(0), synth.active.Load())
	require.Equal(t, int32(1), signals.ends.Load())

	ctrl.SetPrompt("next question")
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, synth.count())
}

func TestRetriesOnceAfterError(t *testing.T) {
	synth := newFakeSynth()
	synth.failures = 2
	mc := clock.NewManual(time.Unix(0, 0))
	ctrl := NewController(synth, Options{Clock: mc})
	defer ctrl.Close()

	ctrl.SetPrompt("retry me")
	ctrl.SetEnabled(true)
	waitStarted(t, synth)

	require.Eventually(t, func() bool { return mc.Pending() == 1 }, time.Second, time.Millisecond)
	mc.Advance(time.Second)
	waitStarted(t, synth)

	require.Eventually(t, func() bool { return ctrl.Phase() == PhaseIdle }, time.Second, time.Millisecond)
	mc.Advance(time.Minute)
	require.Equal(t, 2, synth.count())
}

func TestPrepareDelayRunsBeforeSpeaking(t *testing.T) {
	synth := newFakeSynth()
	mc := clock.NewManual(time.Unix(0, 0))
	ctrl := NewController(synth, Options{Clock: mc, PrepareDelay: DefaultPrepareDelay})
	defer ctrl.Close()

	ctrl.SetPrompt("hold on")
	ctrl.SetEnabled(true)
	require.Equal(t, PhasePreparing, ctrl.Phase())
	require.Eventually(t, func() bool { return mc.Pending() == 1 }, time.Second, time.Millisecond)
	require.Zero(t, synth.count())

	mc.Advance(DefaultPrepareDelay)
	waitStarted(t, synth)
}

func TestDisableDuringPrepareSkipsUtterance(t *testing.T) {
	synth := newFakeSynth()
	mc := clock.NewManual(time.Unix(0, 0))
	ctrl := NewController(synth, Options{Clock: mc, PrepareDelay: DefaultPrepareDelay})
	defer ctrl.Close()

	ctrl.SetPrompt("never spoken")
	ctrl.SetEnabled(true)
	ctrl.SetEnabled(false)

	mc.Advance(time.Second)
	require.Zero(t, synth.count())
}

func TestVoiceListingFailureUsesDefaultVoice(t *testing.T) {
	synth := newFakeSynth()
	synth.voiceErr = errors.New("voices unavailable")
	ctrl := NewController(synth, Options{})
	defer ctrl.Close()

	ctrl.SetPrompt("default voice")
	ctrl.SetEnabled(true)
	waitStarted(t, synth)

	synth.mu.Lock()
	defer synth.mu.Unlock()
	require.Nil(t, synth.spoken[0].Voice)
}

func TestNilSynthesizerIsInert(t *testing.T) {
	ctrl := NewController(nil, Options{})
	require.False(t, ctrl.Available())
	ctrl.SetPrompt("nothing")
	ctrl.SetEnabled(true)
	require.Equal(t, PhaseIdle, ctrl.Phase())
	ctrl.Close()
}

func TestCloseStopsEverything(t *testing.T) {
	synth := newFakeSynth()
	ctrl := NewController(synth, Options{})

	ctrl.SetPrompt("closing")
	ctrl.SetEnabled(true)
	waitStarted(t, synth)

	ctrl.Close()
	require.Zero(t, synth.active.Load())
	require.False(t, ctrl.Enabled())

	ctrl.SetEnabled(true)
	require.False(t, ctrl.Enabled())
}
