package transcript

import (
	"strings"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/clock"
)

// DefaultDebounce is the quiet window before a pending fragment is committed.
const DefaultDebounce = 500 * time.Millisecond

// Draft is the answer being composed for the current question.
// Only Committed is shown to the user or submitted.
type Draft struct {
	Committed string
	Pending   string
}

// Accumulator owns a Draft and commits observed fragments after a debounce.
//
// Every deferred commit carries the epoch it was armed under. Flush, Reset and
// each new Observe advance the epoch, so a timer that fires late is a no-op.
//
// Fragments are stamped with the source revision they were read at. Committing
// hands the fragment to the Consumer in the same critical section, and any
// fragment older than the revision it returns is ignored.
type Accumulator struct {
	mu       sync.Mutex
	clock    clock.Clock
	debounce time.Duration
	draft    Draft
	epoch    uint64
	revision uint64
	timer    clock.Timer
	consumer Consumer
	onCommit func(committed string)
}

// Consumer is told which fragment was committed. It returns the source
// revision from which fragments exclude that text, plus any source text the
// fragment did not cover. It runs under the accumulator lock and must not
// call back into the Accumulator.
type Consumer func(fragment string) (revision uint64, rest string)

type Option func(*Accumulator)

// WithClock overrides the scheduler used for the debounce timer.
func WithClock(c clock.Clock) Option {
	return func(a *Accumulator) {
		if c != nil {
			a.clock = c
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(a *Accumulator) {
		if d > 0 {
			a.debounce = d
		}
	}
}

// WithConsumer registers the source that commits are reported back to.
func WithConsumer(fn Consumer) Option {
	return func(a *Accumulator) {
		a.consumer = fn
	}
}

// OnCommit registers a hook invoked after pending text is merged. It runs
// outside the accumulator lock and may run on a timer goroutine.
func OnCommit(fn func(committed string)) Option {
	return func(a *Accumulator) {
		a.onCommit = fn
	}
}

func NewAccumulator(opts ...Option) *Accumulator {
	a := &Accumulator{
		clock:    clock.Real(),
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Observe replaces the pending fragment and re-arms the debounce timer.
// A fragment read before the last commit's revision is dropped.
func (a *Accumulator) Observe(fragment string, revision uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if revision < a.revision {
		return
	}
	a.revision = revision
	a.disarmLocked()
	a.draft.Pending = fragment
	a.armLocked()
}

// Flush commits any pending fragment now and cancels the debounce timer.
// Calling it again without a new fragment changes nothing.
func (a *Accumulator) Flush() string {
	a.mu.Lock()
	a.disarmLocked()
	changed := false
	for a.commitLocked() {
		changed = true
	}
	committed := a.draft.Committed
	hook := a.onCommit
	a.mu.Unlock()

	if changed && hook != nil {
		hook(committed)
	}
	return committed
}

// SetText replaces the committed text with typed input.
func (a *Accumulator) SetText(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Committed = text
}

// Append adds typed input to the committed text.
func (a *Accumulator) Append(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.draft.Committed = Join(a.draft.Committed, text)
}

// Reset clears the draft and invalidates any armed timer.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disarmLocked()
	a.draft = Draft{}
}

func (a *Accumulator) Draft() Draft {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.draft
}

func (a *Accumulator) commitIf(epoch uint64) {
	a.mu.Lock()
	if epoch != a.epoch {
		a.mu.Unlock()
		return
	}
	a.timer = nil
	a.epoch++
	changed := a.commitLocked()
	committed := a.draft.Committed
	a.armLocked()
	hook := a.onCommit
	a.mu.Unlock()

	if changed && hook != nil {
		hook(committed)
	}
}

// commitLocked merges the pending fragment. Source text the fragment did not
// cover becomes the new pending fragment.
func (a *Accumulator) commitLocked() bool {
	fragment := a.draft.Pending
	a.draft.Pending = ""
	if strings.TrimSpace(fragment) == "" {
		return false
	}
	a.draft.Committed = Join(a.draft.Committed, fragment)
	if a.consumer != nil {
		revision, rest := a.consumer(fragment)
		a.revision = max(a.revision, revision)
		if strings.TrimSpace(rest) != strings.TrimSpace(fragment) {
			a.draft.Pending = rest
		}
	}
	return true
}

func (a *Accumulator) armLocked() {
	if strings.TrimSpace(a.draft.Pending) == "" {
		return
	}
	epoch := a.epoch
	a.timer = a.clock.AfterFunc(a.debounce, func() {
		a.commitIf(epoch)
	})
}

func (a *Accumulator) disarmLocked() {
	a.epoch++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
