// Package playback speaks question prompts through a text-to-speech engine,
// keeping at most one utterance in flight.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/clock"
)

const (
	DefaultPrepareDelay = 500 * time.Millisecond
	DefaultRetryDelay   = time.Second

	DefaultRate   = 0.95
	DefaultPitch  = 1.05
	DefaultVolume = 1.0
)

// Utterance is one speak request.
type Utterance struct {
	Text   string
	Voice  *Voice
	Rate   float64
	Pitch  float64
	Volume float64
}

// Synthesizer is the text-to-speech capability. Speak blocks until playback
// finishes and returns promptly once ctx is cancelled.
type Synthesizer interface {
	Voices(ctx context.Context) ([]Voice, error)
	Speak(ctx context.Context, u Utterance) error
}

// Phase is the playback lifecycle of the current prompt.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePreparing Phase = "preparing"
	PhaseSpeaking  Phase = "speaking"
)

// Options configures a Controller.
type Options struct {
	// PrepareDelay is the settle before each utterance; zero speaks at once.
	PrepareDelay time.Duration
	RetryDelay   time.Duration
	Preference   Preference
	Clock        clock.Clock
	Logger       *slog.Logger
	// OnStart and OnEnd bracket each utterance. They run on the playback
	// goroutine and must not call SetEnabled, SetPrompt, Cancel or Close.
	OnStart func()
	OnEnd   func()
}

// Controller plays the current prompt whenever voice is enabled.
type Controller struct {
	synth Synthesizer
	opts  Options

	// ops serializes SetEnabled, SetPrompt and Close, which wait for the
	// previous utterance goroutine to exit.
	ops sync.Mutex

	mu      sync.Mutex
	enabled bool
	prompt  string
	phase   Phase
	cancel  context.CancelFunc
	done    chan struct{}
	voices  []Voice
	loaded  bool
	closed  bool
}

// NewController wraps synth. A nil synth makes every operation inert.
func NewController(synth Synthesizer, opts Options) *Controller {
	if opts.PrepareDelay < 0 {
		opts.PrepareDelay = 0
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Preference == (Preference{}) {
		opts.Preference = DefaultPreference()
	}
	return &Controller{synth: synth, opts: opts, phase: PhaseIdle}
}

// Available reports whether a synthesizer is configured.
func (c *Controller) Available() bool {
	return c.synth != nil
}

// SetEnabled toggles voice output. Enabling speaks the current prompt;
// disabling cancels any utterance immediately.
func (c *Controller) SetEnabled(enabled bool) {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if c.enabled == enabled || c.closed {
		c.mu.Unlock()
		return
	}
	c.enabled = enabled
	prompt := c.prompt
	c.mu.Unlock()

	c.halt()
	if enabled && prompt != "" {
		c.launch(prompt)
	}
}

// SetPrompt changes the prompt, speaking it when enabled.
func (c *Controller) SetPrompt(text string) {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if c.prompt == text || c.closed {
		c.mu.Unlock()
		return
	}
	c.prompt = text
	enabled := c.enabled
	c.mu.Unlock()

	if !enabled {
		return
	}
	c.halt()
	if text != "" {
		c.launch(text)
	}
}

// Cancel stops the current utterance without changing the enabled flag.
func (c *Controller) Cancel() {
	c.ops.Lock()
	defer c.ops.Unlock()
	c.halt()
}

// Close cancels playback permanently.
func (c *Controller) Close() {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	c.closed = true
	c.enabled = false
	c.mu.Unlock()
	c.halt()
}

func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// halt cancels the active utterance and waits for its goroutine to exit.
// Caller holds ops.
func (c *Controller) halt() {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.cancel, c.done = nil, nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// launch starts a new utterance goroutine. Caller holds ops and has halted
// the previous one.
func (c *Controller) launch(text string) {
	if c.synth == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	c.mu.Lock()
	c.cancel, c.done = cancel, done
	c.phase = PhasePreparing
	c.mu.Unlock()

	go c.run(ctx, text, done)
}

func (c *Controller) run(ctx context.Context, text string, done chan struct{}) {
	defer close(done)
	defer c.setPhase(PhaseIdle)

	for attempt := 0; ; attempt++ {
		c.setPhase(PhasePreparing)
		if err := clock.Sleep(ctx, c.opts.Clock, c.opts.PrepareDelay); err != nil {
			return
		}

		utterance := Utterance{
			Text:   text,
			Voice:  c.voice(ctx),
			Rate:   DefaultRate,
			Pitch:  DefaultPitch,
			Volume: DefaultVolume,
		}
		if ctx.Err() != nil {
			return
		}

		c.setPhase(PhaseSpeaking)
		c.notify(c.opts.OnStart)
		err := c.synth.Speak(ctx, utterance)
		c.setPhase(PhaseIdle)
		c.notify(c.opts.OnEnd)

		if err == nil || ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return
		}
		if c.opts.Logger != nil {
			c.opts.Logger.Warn("speech playback failed", "attempt", attempt+1, "error", err.Error())
		}
		if attempt >= 1 || !c.Enabled() {
			return
		}
		if err := clock.Sleep(ctx, c.opts.Clock, c.opts.RetryDelay); err != nil {
			return
		}
	}
}

func (c *Controller) voice(ctx context.Context) *Voice {
	c.mu.Lock()
	if c.loaded {
		voices := c.voices
		c.mu.Unlock()
		return SelectVoice(voices, c.opts.Preference)
	}
	c.mu.Unlock()

	voices, err := c.synth.Voices(ctx)
	if err != nil {
		if c.opts.Logger != nil && ctx.Err() == nil {
			c.opts.Logger.Debug("voice listing failed; using default voice", "error", err.Error())
		}
		return nil
	}

	c.mu.Lock()
	c.voices, c.loaded = voices, true
	c.mu.Unlock()
	return SelectVoice(voices, c.opts.Preference)
}

func (c *Controller) setPhase(phase Phase) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()
}

func (c *Controller) notify(fn func()) {
	if fn != nil {
		fn()
	}
}
