package recognition

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/clock"
)

// Status is the adapter's externally visible condition.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusListening Status = "listening"
	StatusRetrying  Status = "retrying"
	StatusError     Status = "error"
)

const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = time.Second
	DefaultMaxDelay   = 10 * time.Second
)

// Observer receives adapter events. Callbacks run on engine or timer
// goroutines and never while the adapter lock is held. Start, Stop, Consume
// and ResetTranscript do not report their own state changes.
//
// TranscriptChanged carries the transcript revision the text was read at.
// A value older than the revision returned by the latest Consume still
// contains consumed text and must be dropped.
type Observer interface {
	TranscriptChanged(text string, revision uint64)
	StatusChanged(status Status, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are ignored.
type ObserverFuncs struct {
	OnTranscript func(text string, revision uint64)
	OnStatus     func(status Status, err error)
}

func (o ObserverFuncs) TranscriptChanged(text string, revision uint64) {
	if o.OnTranscript != nil {
		o.OnTranscript(text, revision)
	}
}

func (o ObserverFuncs) StatusChanged(status Status, err error) {
	if o.OnStatus != nil {
		o.OnStatus(status, err)
	}
}

// Options configures an Adapter.
type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Clock      clock.Clock
	Logger     *slog.Logger
}

// Adapter owns at most one engine stream and the live transcript of the
// current listening session.
type Adapter struct {
	engine   Engine
	opts     Options
	observer Observer

	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	stream     Stream
	listening  bool
	status     Status
	err        error
	retries    int
	retryTimer clock.Timer
	segments   segments
	revision   uint64
	closed     bool
}

// NewAdapter wraps engine. A nil engine yields an unsupported adapter.
func NewAdapter(engine Engine, observer Observer, opts Options) *Adapter {
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if observer == nil {
		observer = ObserverFuncs{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Adapter{
		engine:   engine,
		opts:     opts,
		observer: observer,
		ctx:      ctx,
		cancel:   cancel,
		status:   StatusIdle,
	}
}

// Supported reports whether the engine is usable in this environment.
func (a *Adapter) Supported() bool {
	return a.engine != nil && a.engine.Supported()
}

// Start begins continuous listening. An unsupported engine moves the
// adapter into StatusError instead of failing.
func (a *Adapter) Start() {
	if !a.Supported() {
		a.mu.Lock()
		a.status = StatusError
		a.err = ErrUnsupported
		a.listening = false
		a.mu.Unlock()
		return
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.stopStreamLocked()
	a.retries = 0
	a.err = nil
	a.listening = true
	a.status = StatusListening
	a.segments.clear()
	a.revision++
	generation := a.generation
	a.mu.Unlock()

	a.open(generation, false)
}

// Stop ends listening and cancels any pending retry. The live transcript is
// left intact for the caller to flush.
func (a *Adapter) Stop() {
	a.mu.Lock()
	stream := a.stopStreamLocked()
	a.listening = false
	a.retries = 0
	if a.status != StatusError {
		a.status = StatusIdle
	}
	a.mu.Unlock()

	closeStream(stream, a.opts.Logger)
}

// Close stops listening permanently.
func (a *Adapter) Close() {
	a.Stop()
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.cancel()
}

// ResetTranscript clears the live value without touching listening state.
func (a *Adapter) ResetTranscript() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments.consume(a.segments.live())
	a.revision++
}

// Consume drops committed from the front of the live value. It returns the
// new transcript revision and whatever live text committed did not cover.
func (a *Adapter) Consume(committed string) (uint64, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.segments.consume(committed)
	a.revision++
	return a.revision, a.segments.live()
}

// Revision identifies the current live value; Consume, ResetTranscript and
// Start advance it.
func (a *Adapter) Revision() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.revision
}

func (a *Adapter) Transcript() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.segments.live()
}

func (a *Adapter) Listening() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.listening
}

func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Err returns the error behind StatusRetrying or StatusError.
func (a *Adapter) Err() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.err
}

// RetryDelay is the backoff before retry attempt n (zero based).
func RetryDelay(n int, base time.Duration, ceiling time.Duration) time.Duration {
	delay := base
	for i := 0; i < n && delay < ceiling; i++ {
		delay *= 2
	}
	return min(delay, ceiling)
}

func (a *Adapter) open(generation uint64, notify bool) {
	stream, err := a.engine.Open(a.ctx, &sink{adapter: a, generation: generation})

	a.mu.Lock()
	if generation != a.generation || a.closed {
		a.mu.Unlock()
		if stream != nil {
			closeStream(stream, a.opts.Logger)
		}
		return
	}
	if err != nil {
		a.mu.Unlock()
		a.fail(generation, fmt.Errorf("open recognition stream: %w", err), notify)
		return
	}
	a.stream = stream
	a.status = StatusListening
	a.err = nil
	a.mu.Unlock()

	if notify {
		a.observer.StatusChanged(StatusListening, nil)
	}
}

// fail handles an error for generation. notify is false when the failure is
// reported to a caller of Start.
func (a *Adapter) fail(generation uint64, err error, notify bool) {
	a.mu.Lock()
	if generation != a.generation {
		a.mu.Unlock()
		return
	}
	stream := a.stopStreamLocked()
	next := a.generation

	var status Status
	if IsRecoverable(err) && a.retries < a.opts.MaxRetries {
		delay := RetryDelay(a.retries, a.opts.BaseDelay, a.opts.MaxDelay)
		a.retries++
		a.status = StatusRetrying
		a.err = err
		status = StatusRetrying
		a.logWarn("recognition retry scheduled", "attempt", a.retries, "delay_ms", delay.Milliseconds(), "error", err.Error())
		a.retryTimer = a.opts.Clock.AfterFunc(delay, func() {
			a.mu.Lock()
			if next != a.generation || a.closed {
				a.mu.Unlock()
				return
			}
			a.retryTimer = nil
			a.mu.Unlock()
			a.open(next, true)
		})
	} else {
		if IsRecoverable(err) {
			err = fmt.Errorf("giving up after %d retries: %w", a.retries, err)
		}
		a.status = StatusError
		a.err = err
		a.listening = false
		status = StatusError
		a.logWarn("recognition stopped", "error", err.Error())
	}
	a.mu.Unlock()

	closeStream(stream, a.opts.Logger)
	if notify {
		a.observer.StatusChanged(status, err)
	}
}

func (a *Adapter) handleResult(generation uint64, result Result) {
	a.mu.Lock()
	if generation != a.generation {
		a.mu.Unlock()
		return
	}
	// A delivered result proves the connection works.
	a.retries = 0
	before := a.segments.live()
	a.segments.record(result)
	live := a.segments.live()
	revision := a.revision
	a.mu.Unlock()

	if live != before {
		a.observer.TranscriptChanged(live, revision)
	}
}

// stopStreamLocked invalidates the current generation and detaches its stream
// and retry timer. The caller closes the returned stream outside the lock.
func (a *Adapter) stopStreamLocked() Stream {
	a.generation++
	if a.retryTimer != nil {
		a.retryTimer.Stop()
		a.retryTimer = nil
	}
	stream := a.stream
	a.stream = nil
	return stream
}

func (a *Adapter) logWarn(msg string, args ...any) {
	if a.opts.Logger != nil {
		a.opts.Logger.Warn(msg, args...)
	}
}

func closeStream(stream Stream, logger *slog.Logger) {
	if stream == nil {
		return
	}
	if err := stream.Close(); err != nil && logger != nil && !errors.Is(err, context.Canceled) {
		logger.Debug("close recognition stream", "error", err.Error())
	}
}

type sink struct {
	adapter    *Adapter
	generation uint64
}

func (s *sink) Result(result Result) {
	s.adapter.handleResult(s.generation, result)
}

func (s *sink) Error(err error) {
	if err == nil {
		return
	}
	s.adapter.fail(s.generation, err, true)
}
