package ipc

import (
	"errors"
	"fmt"
)

// Commands accepted by a running interview.
const (
	CommandStatus = "status"
	CommandRecord = "record"
	CommandSubmit = "submit"
	CommandSkip   = "skip"
	CommandVoice  = "voice"
	CommandEnd    = "end"
)

// Request is one newline-delimited JSON command.
type Request struct {
	Command string `json:"command"`
	// Enable carries the desired state for toggle commands (record, voice).
	Enable *bool `json:"enable,omitempty"`
}

// Response reports the interview state after a command is applied.
type Response struct {
	OK         bool   `json:"ok"`
	State      string `json:"state,omitempty"`
	Question   int    `json:"question,omitempty"`
	Total      int    `json:"total,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Message    string `json:"message,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Validate rejects unknown commands and toggle state on non-toggle commands.
func (r Request) Validate() error {
	switch r.Command {
	case CommandRecord, CommandVoice:
		return nil
	case CommandStatus, CommandSubmit, CommandSkip, CommandEnd:
		if r.Enable != nil {
			return fmt.Errorf("%s does not take an on/off state", r.Command)
		}
		return nil
	case "":
		return errors.New("missing command")
	default:
		return fmt.Errorf("unknown command: %s", r.Command)
	}
}
