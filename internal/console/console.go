// Package console drives a session from a line-oriented terminal.
//
// Plain lines are appended to the answer draft; lines starting with "/" are
// commands. Output is plain text, one event per line.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/session"
)

// Session is the controller surface the console drives.
type Session interface {
	AppendAnswer(text string) bool
	TypeAnswer(text string) bool
	ToggleRecording(ctx context.Context) bool
	ToggleVoice() bool
	Submit(ctx context.Context) bool
	Skip(ctx context.Context) bool
	End()
	Snapshot() session.View
	Done() <-chan struct{}
}

// Console renders session changes and dispatches typed commands.
type Console struct {
	out io.Writer

	mu         sync.Mutex
	session    Session
	lastIndex  int
	lastStatus string
	lastNotice string
	lastDraft  string
}

func New(out io.Writer) *Console {
	return &Console{out: out, lastIndex: -1}
}

// Attach binds the session. Refresh is a no-op until then, so Refresh can be
// handed to the session as its change hook before the session exists.
func (c *Console) Attach(s Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// Refresh prints whatever changed since the last render.
func (c *Console) Refresh() {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return
	}

	view := s.Snapshot()

	c.mu.Lock()
	defer c.mu.Unlock()

	if view.State != fsm.StateCompleted && view.State != fsm.StateTransitioning && view.Index != c.lastIndex {
		c.lastIndex = view.Index
		c.lastDraft = ""
		c.printQuestion(view)
	}

	if status := view.StatusLine(); status != c.lastStatus {
		c.lastStatus = status
		fmt.Fprintf(c.out, "[%s]\n", status)
	}

	if view.Notice != c.lastNotice {
		c.lastNotice = view.Notice
		if view.Notice != "" {
			fmt.Fprintf(c.out, "! %s\n", view.Notice)
		}
	}

	if view.Recording && view.Answer != c.lastDraft {
		c.lastDraft = view.Answer
		if view.Answer != "" {
			fmt.Fprintf(c.out, "> %s\n", view.Answer)
		}
	}
}

func (c *Console) printQuestion(view session.View) {
	fmt.Fprintf(c.out, "\nQuestion %d of %d", view.Index+1, view.Total)
	if view.Category.Title != "" {
		fmt.Fprintf(c.out, " (%s)", view.Category.Title)
	}
	fmt.Fprintf(c.out, "\n%s\n", view.Question.Text)
	if view.Question.Tip != "" {
		fmt.Fprintf(c.out, "Tip: %s\n", view.Question.Tip)
	}
}

// Run reads commands from in until the session finishes or ctx is done.
// End of input does not end the session; it can still be driven remotely.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	if s == nil {
		return errors.New("console has no session attached")
	}

	stop := make(chan struct{})
	defer close(stop)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-stop:
				return
			}
		}
		readErr <- scanner.Err()
	}()

	c.Refresh()
	c.println(HelpText)

	for {
		select {
		case <-ctx.Done():
			s.End()
			return ctx.Err()
		case <-s.Done():
			return nil
		case err := <-readErr:
			readErr = nil
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
		case line := <-lines:
			c.dispatch(ctx, s, line)
		}
	}
}

// HelpText lists the console commands.
const HelpText = "Type your answer, then /submit. Commands: /record /voice /skip /clear /status /end /help"

func (c *Console) dispatch(ctx context.Context, s Session, line string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return
	}
	if !strings.HasPrefix(trimmed, "/") {
		if !s.AppendAnswer(trimmed) {
			c.println("not accepting answers right now")
		}
		return
	}

	switch strings.ToLower(trimmed) {
	case "/submit":
		if !s.Submit(ctx) {
			c.println("answer is empty")
		}
	case "/skip":
		if !s.Skip(ctx) {
			c.println("cannot skip right now")
		}
	case "/record":
		on := s.ToggleRecording(ctx)
		view := s.Snapshot()
		switch {
		case !view.RecognitionSupported:
			c.println("recording unavailable")
		case !on && !fsm.AcceptsInput(view.State):
			c.println("not accepting answers right now")
		default:
			c.println("recording " + onOff(on, true))
		}
	case "/voice":
		on := s.ToggleVoice()
		if !s.Snapshot().VoiceAvailable {
			c.println("voice unavailable")
			break
		}
		c.println("voice " + onOff(on, true))
	case "/clear":
		s.TypeAnswer("")
	case "/status":
		c.printStatus(s.Snapshot())
	case "/end":
		s.End()
	case "/help":
		c.println(HelpText)
	default:
		c.println("unknown command: " + trimmed)
	}
}

func (c *Console) printStatus(view session.View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fmt.Fprintf(c.out, "Question %d of %d, %d answered, %s\n", view.Index+1, view.Total, view.Answered, view.StatusLine())
	fmt.Fprintf(c.out, "Draft: %s\n", view.Answer)
	fmt.Fprintf(c.out, "Recording: %s  Voice: %s  Camera: %s\n",
		onOff(view.Recording, view.RecognitionSupported),
		onOff(view.VoiceEnabled, view.VoiceAvailable),
		onOff(view.CameraOn, view.CameraOn),
	)
	if view.HasConfidence {
		fmt.Fprintf(c.out, "Confidence: %.1f\n", view.Confidence)
	}
}

func (c *Console) println(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, text)
}

func onOff(on bool, available bool) string {
	switch {
	case !available:
		return "unavailable"
	case on:
		return "on"
	default:
		return "off"
	}
}
