package recognition

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/clock"
)

type fakeStream struct {
	closed atomic.Int32
}

func (s *fakeStream) Close() error {
	s.closed.Add(1)
	return nil
}

type fakeEngine struct {
	supported bool

	mu      sync.Mutex
	sinks   []Sink
	streams []*fakeStream
	openErr []error
}

func (e *fakeEngine) Supported() bool { return e.supported }

func (e *fakeEngine) Open(_ context.Context, sink Sink) (Stream, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.openErr) > 0 {
		err := e.openErr[0]
		e.openErr = e.openErr[1:]
		if err != nil {
			return nil, err
		}
	}
	stream := &fakeStream{}
	e.sinks = append(e.sinks, sink)
	e.streams = append(e.streams, stream)
	return stream, nil
}

func (e *fakeEngine) opens() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.sinks)
}

func (e *fakeEngine) sink(i int) Sink {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sinks[i]
}

func (e *fakeEngine) stream(i int) *fakeStream {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.streams[i]
}

type recordingObserver struct {
	mu          sync.Mutex
	transcripts []string
	statuses    []Status
}

func (o *recordingObserver) TranscriptChanged(text string, _ uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcripts = append(o.transcripts, text)
}

func (o *recordingObserver) StatusChanged(status Status, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, status)
}

func (o *recordingObserver) snapshot() ([]string, []Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.transcripts...), append([]Status(nil), o.statuses...)
}

func newTestAdapter(engine Engine) (*Adapter, *recordingObserver, *clock.Manual) {
	mc := clock.NewManual(time.Unix(0, 0))
	obs := &recordingObserver{}
	return NewAdapter(engine, obs, Options{Clock: mc}), obs, mc
}

func networkErr() error {
	return fmt.Errorf("read deepgram socket: %w", ErrNetwork)
}

func TestRetryDelaySequence(t *testing.T) {
	var got []time.Duration
	for n := 0; n < 6; n++ {
		got = append(got, RetryDelay(n, time.Second, 10*time.Second))
	}
	require.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second,
	}, got)

	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i], got[i-1])
	}
}

func TestStartUnsupportedSetsErrorStatus(t *testing.T) {
	adapter, obs, _ := newTestAdapter(&fakeEngine{supported: false})
	require.False(t, adapter.Supported())

	require.NotPanics(t, adapter.Start)
	require.Equal(t, StatusError, adapter.Status())
	require.ErrorIs(t, adapter.Err(), ErrUnsupported)
	require.False(t, adapter.Listening())

	_, statuses := obs.snapshot()
	require.Empty(t, statuses)
}

func TestNilEngineIsUnsupported(t *testing.T) {
	adapter := NewAdapter(nil, nil, Options{})
	require.False(t, adapter.Supported())
	adapter.Start()
	require.ErrorIs(t, adapter.Err(), ErrUnsupported)
}

func TestLiveTranscriptReplacesRatherThanAppends(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, obs, _ := newTestAdapter(engine)

	adapter.Start()
	require.True(t, adapter.Listening())
	require.Equal(t, StatusListening, adapter.Status())

	sink := engine.sink(0)
	sink.Result(Result{Transcript: "I worked"})
	sink.Result(Result{Transcript: "I worked on"})
	sink.Result(Result{Transcript: "I worked on payments", Final: true})
	sink.Result(Result{Transcript: "for two"})

	require.Equal(t, "I worked on payments for two", adapter.Transcript())
	transcripts, _ := obs.snapshot()
	require.Equal(t, []string{
		"I worked",
		"I worked on",
		"I worked on payments",
		"I worked on payments for two",
	}, transcripts)
}

func TestStopKeepsTranscriptAndClosesStream(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Result(Result{Transcript: "keep me", Final: true})
	adapter.Stop()

	require.False(t, adapter.Listening())
	require.Equal(t, StatusIdle, adapter.Status())
	require.Equal(t, "keep me", adapter.Transcript())
	require.Equal(t, int32(1), engine.stream(0).closed.Load())

	// late events from the stopped stream are dropped
	engine.sink(0).Result(Result{Transcript: "ghost", Final: true})
	require.Equal(t, "keep me", adapter.Transcript())
}

func TestResetTranscriptKeepsListening(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Result(Result{Transcript: "first part", Final: true})
	adapter.ResetTranscript()

	require.True(t, adapter.Listening())
	require.Empty(t, adapter.Transcript())

	engine.sink(0).Result(Result{Transcript: "second part", Final: true})
	require.Equal(t, "second part", adapter.Transcript())
}

func TestResetTranscriptDropsConsumedInterimPrefix(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Result(Result{Transcript: "we shipped the"})
	adapter.ResetTranscript()

	engine.sink(0).Result(Result{Transcript: "we shipped the feature on time", Final: true})
	require.Equal(t, "feature on time", adapter.Transcript())

	engine.sink(0).Result(Result{Transcript: "we moved on", Final: true})
	require.Equal(t, "feature on time we moved on", adapter.Transcript())
}

func TestConsumeMatchesPunctuatedFinal(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, obs, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Result(Result{Transcript: "I led a team"})
	revision, rest := adapter.Consume("I led a team")
	require.Empty(t, rest)
	require.Equal(t, revision, adapter.Revision())

	engine.sink(0).Result(Result{Transcript: "I led a Team.", Final: true})
	require.Empty(t, adapter.Transcript())

	engine.sink(0).Result(Result{Transcript: "Then we shipped.", Final: true})
	require.Equal(t, "Then we shipped.", adapter.Transcript())

	transcripts, _ := obs.snapshot()
	require.Equal(t, []string{"I led a team", "Then we shipped."}, transcripts)
}

func TestConsumeReturnsUncommittedTail(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Result(Result{Transcript: "a b"})
	engine.sink(0).Result(Result{Transcript: "a b c"})
	before := adapter.Revision()

	revision, rest := adapter.Consume("a b")
	require.Greater(t, revision, before)
	require.Equal(t, "c", rest)

	engine.sink(0).Result(Result{Transcript: "a b c d"})
	require.Equal(t, "c d", adapter.Transcript())
}

func TestConsumeKeepsEarlierConsumedWords(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Result(Result{Transcript: "we shipped"})
	_, rest := adapter.Consume("we shipped")
	require.Empty(t, rest)

	engine.sink(0).Result(Result{Transcript: "we shipped the feature"})
	require.Equal(t, "the feature", adapter.Transcript())
	_, rest = adapter.Consume("the feature")
	require.Empty(t, rest)

	engine.sink(0).Result(Result{Transcript: "We shipped the feature early.", Final: true})
	require.Equal(t, "early.", adapter.Transcript())
}

func TestNetworkErrorRetriesWithBackoffThenGivesUp(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, obs, mc := newTestAdapter(engine)

	adapter.Start()
	require.Equal(t, 1, engine.opens())

	delays := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for attempt, delay := range delays {
		engine.sink(attempt).Error(networkErr())
		require.Equal(t, StatusRetrying, adapter.Status())
		require.True(t, adapter.Listening())
		require.Equal(t, int32(1), engine.stream(attempt).closed.Load())

		mc.Advance(delay - time.Millisecond)
		require.Equal(t, attempt+1, engine.opens(), "retry fired early")
		mc.Advance(time.Millisecond)
		require.Equal(t, attempt+2, engine.opens())
		require.Equal(t, StatusListening, adapter.Status())
	}

	engine.sink(3).Error(networkErr())
	require.Equal(t, StatusError, adapter.Status())
	require.False(t, adapter.Listening())
	require.ErrorIs(t, adapter.Err(), ErrNetwork)
	require.Contains(t, adapter.Err().Error(), "giving up after 3 retries")

	mc.Advance(time.Minute)
	require.Equal(t, 4, engine.opens())
	require.Zero(t, mc.Pending())

	_, statuses := obs.snapshot()
	require.Equal(t, []Status{
		StatusRetrying, StatusListening,
		StatusRetrying, StatusListening,
		StatusRetrying, StatusListening,
		StatusError,
	}, statuses)
}

func TestOpenNetworkFailuresCountTowardRetries(t *testing.T) {
	engine := &fakeEngine{
		supported: true,
		openErr:   []error{networkErr(), networkErr(), networkErr(), networkErr()},
	}
	adapter, _, mc := newTestAdapter(engine)

	adapter.Start()
	require.Equal(t, StatusRetrying, adapter.Status())

	mc.Advance(time.Second + 2*time.Second + 4*time.Second)
	require.Equal(t, StatusError, adapter.Status())
	require.Zero(t, engine.opens())
	require.Zero(t, mc.Pending())
}

func TestResultResetsRetryBudget(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, mc := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Error(networkErr())
	mc.Advance(time.Second)
	engine.sink(1).Result(Result{Transcript: "back", Final: true})

	engine.sink(1).Error(networkErr())
	mc.Advance(time.Second - time.Millisecond)
	require.Equal(t, 2, engine.opens())
	mc.Advance(time.Millisecond)
	require.Equal(t, 3, engine.opens())
}

func TestNonNetworkErrorIsTerminal(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, mc := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Error(errors.New("not-allowed"))

	require.Equal(t, StatusError, adapter.Status())
	require.False(t, adapter.Listening())
	mc.Advance(time.Minute)
	require.Equal(t, 1, engine.opens())
}

func TestStopCancelsPendingRetry(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, mc := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Error(networkErr())
	require.Equal(t, 1, mc.Pending())

	adapter.Stop()
	require.Zero(t, mc.Pending())
	require.Equal(t, StatusIdle, adapter.Status())

	mc.Advance(time.Minute)
	require.Equal(t, 1, engine.opens())
}

func TestStartAfterErrorClearsIt(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	engine.sink(0).Error(errors.New("aborted"))
	require.Equal(t, StatusError, adapter.Status())

	adapter.Start()
	require.Equal(t, StatusListening, adapter.Status())
	require.NoError(t, adapter.Err())
}

func TestRestartClosesPreviousStream(t *testing.T) {
	engine := &fakeEngine{supported: true}
	adapter, _, _ := newTestAdapter(engine)

	adapter.Start()
	adapter.Start()
	require.Equal(t, int32(1), engine.stream(0).closed.Load())
	require.Zero(t, engine.stream(1).closed.Load())

	adapter.Close()
	require.Equal(t, int32(1), engine.stream(1).closed.Load())

	adapter.Start()
	require.Equal(t, 2, engine.opens())
}
