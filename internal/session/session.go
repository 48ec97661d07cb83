// Package session coordinates one mock interview: the question cursor, the
// answer draft, and the speech, voice and camera capabilities around them.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rbright/rehearse/internal/clock"
	"github.com/rbright/rehearse/internal/confidence"
	"github.com/rbright/rehearse/internal/feedback"
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/playback"
	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/recognition"
	"github.com/rbright/rehearse/internal/transcript"
)

// DefaultSettle is the no-input window between an answer and the next question.
const DefaultSettle = time.Second

// ErrEnded is returned by Result when the interview was abandoned.
var ErrEnded = errors.New("interview ended before completion")

// Indicator is the session-facing subset of indicator behavior.
type Indicator interface {
	ShowQuestion(ctx context.Context, index int, total int)
	ShowListening(context.Context)
	ShowError(context.Context, string)
	CueSubmit(context.Context)
	CueSkip(context.Context)
	CueComplete(context.Context)
	Hide(context.Context)
}

// noopIndicator preserves session flow when no indicator is wired.
type noopIndicator struct{}

func (noopIndicator) ShowQuestion(context.Context, int, int) {}
func (noopIndicator) ShowListening(context.Context)          {}
func (noopIndicator) ShowError(context.Context, string)      {}
func (noopIndicator) CueSubmit(context.Context)              {}
func (noopIndicator) CueSkip(context.Context)                {}
func (noopIndicator) CueComplete(context.Context)            {}
func (noopIndicator) Hide(context.Context)                   {}

// Completion receives the finished interview. It must not call back into the
// Controller's mutating operations.
type Completion func(Interview)

// Capabilities are the platform engines a session drives. Any of them may be
// nil; the matching feature is then inert.
type Capabilities struct {
	Recognition recognition.Engine
	Synthesizer playback.Synthesizer
	Camera      confidence.Source
}

// Options configures a Controller. Zero values fall back to defaults.
type Options struct {
	Settle      time.Duration
	Debounce    time.Duration
	Voice       bool
	Camera      bool
	Recognition recognition.Options
	Playback    playback.Options
	Confidence  confidence.Options
	Scorer      feedback.Scorer
	Indicator   Indicator
	Completion  Completion
	Clock       clock.Clock
	Logger      *slog.Logger
	NewID       func() string
	// OnChange runs after any visible state change, outside the controller
	// locks. It may call Snapshot.
	OnChange func()
}

// Controller orchestrates one interview from the first question to the report.
type Controller struct {
	kind      question.Type
	questions []question.Question
	opts      Options
	indicator Indicator

	recognizer *recognition.Adapter
	voice      *playback.Controller
	sampler    *confidence.Sampler
	draft      *transcript.Accumulator

	// ops serializes user actions and the settle callback; component calls
	// happen under ops but never under mu.
	ops sync.Mutex

	mu        sync.Mutex
	state     fsm.State
	index     int
	epoch     uint64
	answers   []Answer
	recording bool
	started   bool
	startedAt time.Time
	notice    string
	result    *Interview
	settle    clock.Timer

	done     chan struct{}
	doneOnce sync.Once
}

// NewController validates questions and wires the capability components.
func NewController(kind question.Type, questions []question.Question, caps Capabilities, opts Options) (*Controller, error) {
	if err := question.Validate(questions); err != nil {
		return nil, err
	}
	for _, q := range questions {
		if q.Type != kind {
			return nil, fmt.Errorf("question %s has type %s, want %s", q.ID, q.Type, kind)
		}
	}

	if opts.Settle < 0 {
		opts.Settle = 0
	} else if opts.Settle == 0 {
		opts.Settle = DefaultSettle
	}
	if opts.Debounce <= 0 {
		opts.Debounce = transcript.DefaultDebounce
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Scorer == nil {
		opts.Scorer = feedback.RandomScorer()
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	indicator := opts.Indicator
	if indicator == nil {
		indicator = noopIndicator{}
	}

	c := &Controller{
		kind:      kind,
		questions: append([]question.Question(nil), questions...),
		opts:      opts,
		indicator: indicator,
		state:     fsm.StatePresenting,
		done:      make(chan struct{}),
	}

	recOpts := opts.Recognition
	recOpts.Clock = opts.Clock
	recOpts.Logger = opts.Logger
	c.recognizer = recognition.NewAdapter(caps.Recognition, recognition.ObserverFuncs{
		OnTranscript: c.transcriptChanged,
		OnStatus:     c.recognitionStatusChanged,
	}, recOpts)

	// Committed speech is consumed from the recognizer in the same step, so
	// neither a later result nor a stale delivery can merge it twice.
	c.draft = transcript.NewAccumulator(
		transcript.WithClock(opts.Clock),
		transcript.WithDebounce(opts.Debounce),
		transcript.WithConsumer(c.recognizer.Consume),
		transcript.OnCommit(c.fragmentCommitted),
	)

	playOpts := opts.Playback
	playOpts.Clock = opts.Clock
	playOpts.Logger = opts.Logger
	playOpts.OnStart = c.changed
	playOpts.OnEnd = c.changed
	c.voice = playback.NewController(caps.Synthesizer, playOpts)

	sampleOpts := opts.Confidence
	sampleOpts.Clock = opts.Clock
	sampleOpts.Logger = opts.Logger
	sampleOpts.OnSample = func(float64) { c.changed() }
	c.sampler = confidence.NewSampler(caps.Camera, sampleOpts)

	return c, nil
}

// Begin presents the first question. Capability failures become notices.
func (c *Controller) Begin(ctx context.Context) {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if c.started || c.state == fsm.StateCompleted {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.startedAt = c.opts.Clock.Now()
	first := c.questions[0]
	c.mu.Unlock()

	if c.opts.Camera {
		if err := c.sampler.Start(ctx); err != nil {
			c.setNotice("Camera unavailable; confidence will be estimated")
		}
	}
	if !c.recognizer.Supported() {
		c.setNotice("Speech recognition unavailable; type your answers")
	}

	c.voice.SetEnabled(c.opts.Voice && c.voice.Available())
	c.voice.SetPrompt(first.Text)
	c.indicator.ShowQuestion(ctx, 0, len(c.questions))
	c.logInfo("session started", "type", string(c.kind), "questions", len(c.questions))
	c.changed()
}

// TypeAnswer replaces the answer draft with typed text.
func (c *Controller) TypeAnswer(text string) bool {
	return c.edit(func() { c.draft.SetText(text) })
}

// AppendAnswer adds typed text to the end of the answer draft.
func (c *Controller) AppendAnswer(text string) bool {
	return c.edit(func() { c.draft.Append(text) })
}

func (c *Controller) edit(apply func()) bool {
	c.ops.Lock()
	defer c.ops.Unlock()

	if !c.input() {
		return false
	}
	apply()
	c.changed()
	return true
}

// ToggleRecording starts or stops listening for the current question.
func (c *Controller) ToggleRecording(ctx context.Context) bool {
	c.mu.Lock()
	enable := !c.recording
	c.mu.Unlock()
	return c.SetRecording(ctx, enable)
}

// SetRecording moves listening to enable. It reports whether the recognizer
// is listening afterwards.
func (c *Controller) SetRecording(ctx context.Context, enable bool) bool {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	accepting := fsm.AcceptsInput(c.state)
	recording := c.recording
	c.mu.Unlock()
	if !accepting || recording == enable {
		return recording
	}

	if !enable {
		c.stopListening()
		c.changed()
		return false
	}

	if !c.recognizer.Supported() {
		c.setNotice("Speech recognition unavailable; type your answers")
		c.changed()
		return false
	}
	// Marked before Start so fragments delivered while the stream opens count.
	c.mu.Lock()
	c.recording = true
	c.mu.Unlock()

	c.recognizer.Start()
	if c.recognizer.Status() == recognition.StatusError {
		c.mu.Lock()
		c.recording = false
		c.notice = recognitionNotice(c.recognizer.Err())
		c.mu.Unlock()
		c.indicator.ShowError(ctx, "Microphone unavailable")
		c.changed()
		return false
	}

	c.setNotice("")
	c.input()
	c.indicator.ShowListening(ctx)
	c.changed()
	return true
}

// ToggleVoice flips prompt playback.
func (c *Controller) ToggleVoice() bool {
	return c.SetVoice(!c.voice.Enabled())
}

// SetVoice enables or disables prompt playback. Disabling cancels the
// current utterance immediately.
func (c *Controller) SetVoice(enable bool) bool {
	c.ops.Lock()
	defer c.ops.Unlock()

	if !c.voice.Available() {
		return false
	}
	c.voice.SetEnabled(enable)
	c.changed()
	return c.voice.Enabled()
}

// Submit records the draft as the answer. A blank draft is rejected and
// reported as false; nothing else changes.
func (c *Controller) Submit(ctx context.Context) bool {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if !fsm.AcceptsInput(c.state) {
		c.mu.Unlock()
		return false
	}
	q := c.questions[c.index]
	c.mu.Unlock()

	if strings.TrimSpace(c.draft.Flush()) == "" {
		return false
	}
	c.stopListening()
	text := strings.TrimSpace(c.draft.Draft().Committed)

	sample, ok := c.sampler.Latest()
	answer := Answer{
		QuestionID: q.ID,
		Text:       text,
		Feedback:   feedback.Generate(c.opts.Scorer, sample, ok),
	}
	c.leave(answer, fsm.EventSubmit)
	c.indicator.CueSubmit(ctx)
	return true
}

// Skip records the fixed skipped answer for the current question.
func (c *Controller) Skip(ctx context.Context) bool {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if !fsm.AcceptsInput(c.state) {
		c.mu.Unlock()
		return false
	}
	q := c.questions[c.index]
	c.mu.Unlock()

	c.stopListening()
	answer := Answer{
		QuestionID: q.ID,
		Text:       SkippedText,
		Skipped:    true,
		Feedback:   feedback.Skipped(),
	}
	c.leave(answer, fsm.EventSkip)
	c.indicator.CueSkip(ctx)
	return true
}

// End abandons the interview, releasing every capability. No Interview is
// produced.
func (c *Controller) End() {
	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if c.state == fsm.StateCompleted {
		c.mu.Unlock()
		return
	}
	c.epoch++
	if c.settle != nil {
		c.settle.Stop()
		c.settle = nil
	}
	c.state, _ = fsm.Transition(c.state, fsm.EventEnd)
	c.recording = false
	c.mu.Unlock()

	c.teardown()
	c.logInfo("session ended", "type", string(c.kind))
	c.finish()
	c.changed()
}

// Done is closed once the interview completes or ends.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Result returns the finished interview, or ErrEnded when it was abandoned.
func (c *Controller) Result() (Interview, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.result == nil {
		if c.state == fsm.StateCompleted {
			return Interview{}, ErrEnded
		}
		return Interview{}, fmt.Errorf("interview still in progress (%s)", c.state)
	}
	return *c.result, nil
}

// leave appends answer, moves to transitioning and arms the settle timer.
// Caller holds ops and has stopped listening.
func (c *Controller) leave(answer Answer, event fsm.Event) {
	c.voice.Cancel()

	c.mu.Lock()
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.mu.Unlock()
		c.logWarn("leave question", "error", err.Error())
		return
	}
	c.state = next
	c.answers = append(c.answers, answer)
	c.epoch++
	epoch := c.epoch
	c.settle = c.opts.Clock.AfterFunc(c.opts.Settle, func() {
		c.advance(epoch)
	})
	c.mu.Unlock()

	c.changed()
}

// advance runs when the settle window for epoch expires.
func (c *Controller) advance(epoch uint64) {
	ctx := context.Background()

	c.ops.Lock()
	defer c.ops.Unlock()

	c.mu.Lock()
	if epoch != c.epoch || c.state != fsm.StateTransitioning {
		c.mu.Unlock()
		return
	}
	c.settle = nil
	last := c.index+1 >= len(c.questions)
	c.mu.Unlock()

	c.draft.Reset()
	c.recognizer.ResetTranscript()

	if last {
		c.complete(ctx)
		return
	}

	c.mu.Lock()
	c.state, _ = fsm.Transition(c.state, fsm.EventAdvance)
	c.index++
	index := c.index
	q := c.questions[index]
	c.mu.Unlock()

	c.voice.SetPrompt(q.Text)
	c.indicator.ShowQuestion(ctx, index, len(c.questions))
	c.changed()
}

func (c *Controller) complete(ctx context.Context) {
	c.mu.Lock()
	c.state, _ = fsm.Transition(c.state, fsm.EventComplete)
	interview := Interview{
		ID:        c.opts.NewID(),
		Type:      c.kind,
		Questions: append([]question.Question(nil), c.questions...),
		Answers:   append([]Answer(nil), c.answers...),
		Date:      c.opts.Clock.Now(),
	}
	c.result = &interview
	startedAt := c.startedAt
	c.mu.Unlock()

	c.teardown()
	c.indicator.CueComplete(ctx)

	answered, skipped := interview.Counts()
	c.logInfo("session complete",
		"id", interview.ID,
		"type", string(interview.Type),
		"answered", answered,
		"skipped", skipped,
		"score", interview.Score(),
		"duration_ms", interview.Date.Sub(startedAt).Milliseconds(),
	)

	c.changed()
	if c.opts.Completion != nil {
		c.opts.Completion(interview)
	}
	c.finish()
}

// stopListening stops the recognizer, then flushes, so no fragment arrives
// after the flush. Caller holds ops.
func (c *Controller) stopListening() {
	c.mu.Lock()
	recording := c.recording
	c.recording = false
	c.mu.Unlock()

	if recording {
		c.recognizer.Stop()
	}
	c.draft.Flush()
}

func (c *Controller) teardown() {
	c.recognizer.Close()
	c.voice.Close()
	c.sampler.Stop()
	c.draft.Reset()

	ctx, cancel := context.WithTimeout(context.Background(), 800*time.Millisecond)
	defer cancel()
	c.indicator.Hide(ctx)
}

func (c *Controller) finish() {
	c.doneOnce.Do(func() { close(c.done) })
}

// input records user activity on the current question.
func (c *Controller) input() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !fsm.AcceptsInput(c.state) {
		return false
	}
	c.state, _ = fsm.Transition(c.state, fsm.EventInput)
	return true
}

func (c *Controller) transcriptChanged(text string, revision uint64) {
	c.mu.Lock()
	live := c.recording && fsm.AcceptsInput(c.state)
	c.mu.Unlock()
	if !live {
		return
	}
	c.draft.Observe(text, revision)
	c.changed()
}

func (c *Controller) fragmentCommitted(string) {
	c.changed()
}

func (c *Controller) recognitionStatusChanged(status recognition.Status, err error) {
	switch status {
	case recognition.StatusError:
		c.mu.Lock()
		c.recording = false
		c.notice = recognitionNotice(err)
		c.mu.Unlock()
		c.draft.Flush()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		c.indicator.ShowError(ctx, "Speech recognition stopped")
	case recognition.StatusListening:
		c.setNotice("")
	}
	c.changed()
}

func recognitionNotice(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, recognition.ErrUnsupported):
		return "Speech recognition unavailable; type your answers"
	case errors.Is(err, recognition.ErrNoMicrophone):
		return "Microphone unavailable; type your answers"
	default:
		return "Recording stopped: " + err.Error()
	}
}

func (c *Controller) setNotice(text string) {
	c.mu.Lock()
	c.notice = text
	c.mu.Unlock()
}

func (c *Controller) changed() {
	if c.opts.OnChange != nil {
		c.opts.OnChange()
	}
}

func (c *Controller) logInfo(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Info(msg, args...)
	}
}

func (c *Controller) logWarn(msg string, args ...any) {
	if c.opts.Logger != nil {
		c.opts.Logger.Warn(msg, args...)
	}
}
