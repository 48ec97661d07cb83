package session

import (
	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/playback"
	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/recognition"
)

// View is a point-in-time copy of what the interview screen shows.
type View struct {
	State    fsm.State
	Index    int
	Total    int
	Question question.Question
	Category question.Category

	// Answer is the committed draft; transcription still settling is only
	// reflected by Pending.
	Answer  string
	Pending bool

	Recording            bool
	RecognitionSupported bool
	RecognitionStatus    recognition.Status
	RecognitionErr       error

	VoiceAvailable bool
	VoiceEnabled   bool
	VoicePhase     playback.Phase

	Confidence    float64
	HasConfidence bool
	CameraOn      bool

	Answered int
	Notice   string
}

// Snapshot returns the current view state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	view := View{
		State:     c.state,
		Index:     c.index,
		Total:     len(c.questions),
		Question:  c.questions[c.index],
		Category:  question.Describe(c.kind),
		Recording: c.recording,
		Answered:  len(c.answers),
		Notice:    c.notice,
	}
	c.mu.Unlock()

	draft := c.draft.Draft()
	view.Answer = draft.Committed
	view.Pending = draft.Pending != ""

	view.RecognitionSupported = c.recognizer.Supported()
	view.RecognitionStatus = c.recognizer.Status()
	view.RecognitionErr = c.recognizer.Err()

	view.VoiceAvailable = c.voice.Available()
	view.VoiceEnabled = c.voice.Enabled()
	view.VoicePhase = c.voice.Phase()

	view.Confidence, view.HasConfidence = c.sampler.Latest()
	view.CameraOn = c.sampler.Available()
	return view
}

// StatusLine summarizes capture and playback activity for a one-line display.
func (v View) StatusLine() string {
	switch {
	case v.State == fsm.StateTransitioning:
		return "Saving answer…"
	case v.State == fsm.StateCompleted:
		return "Interview finished"
	case v.RecognitionStatus == recognition.StatusRetrying:
		return "Connection lost, retrying…"
	case v.Recording && v.Pending:
		return "Transcribing…"
	case v.Recording:
		return "Listening…"
	case v.VoicePhase == playback.PhasePreparing:
		return "Preparing…"
	case v.VoicePhase == playback.PhaseSpeaking:
		return "Speaking…"
	default:
		return "Ready"
	}
}
