package session

import (
	"context"
	"fmt"

	"github.com/rbright/rehearse/internal/fsm"
	"github.com/rbright/rehearse/internal/ipc"
)

// Handle serves IPC commands for the running interview.
func (c *Controller) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Command {
	case ipc.CommandStatus:
		return c.respond(true, "status", "")
	case ipc.CommandRecord:
		enable := !c.Snapshot().Recording
		if req.Enable != nil {
			enable = *req.Enable
		}
		if !c.accepting() {
			return c.refuse("record")
		}
		if got := c.SetRecording(ctx, enable); got != enable {
			return c.respond(false, "", "recording unavailable")
		}
		if enable {
			return c.respond(true, "recording started", "")
		}
		return c.respond(true, "recording stopped", "")
	case ipc.CommandSubmit:
		if !c.accepting() {
			return c.refuse("submit")
		}
		if !c.Submit(ctx) {
			return c.respond(false, "", "answer is empty")
		}
		return c.respond(true, "answer submitted", "")
	case ipc.CommandSkip:
		if !c.Skip(ctx) {
			return c.refuse("skip")
		}
		return c.respond(true, "question skipped", "")
	case ipc.CommandVoice:
		if !c.voice.Available() {
			return c.respond(false, "", "voice unavailable")
		}
		enable := !c.voice.Enabled()
		if req.Enable != nil {
			enable = *req.Enable
		}
		if c.SetVoice(enable) {
			return c.respond(true, "voice on", "")
		}
		return c.respond(true, "voice off", "")
	case ipc.CommandEnd:
		c.End()
		return c.respond(true, "interview ended", "")
	default:
		return c.respond(false, "", fmt.Sprintf("unknown command: %s", req.Command))
	}
}

func (c *Controller) accepting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fsm.AcceptsInput(c.state)
}

func (c *Controller) refuse(command string) ipc.Response {
	return c.respond(false, "", fmt.Sprintf("cannot %s from state %s", command, c.Snapshot().State))
}

func (c *Controller) respond(ok bool, message string, errText string) ipc.Response {
	view := c.Snapshot()
	return ipc.Response{
		OK:         ok,
		State:      string(view.State),
		Question:   view.Index + 1,
		Total:      view.Total,
		Transcript: view.Answer,
		Message:    message,
		Error:      errText,
	}
}
