// Package cli parses rehearse's command line.
package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rbright/rehearse/internal/question"
)

type Command string

const (
	CommandPractice   Command = "practice"
	CommandCategories Command = "categories"
	CommandDashboard  Command = "dashboard"
	CommandDevices    Command = "devices"
	CommandDoctor     Command = "doctor"
	CommandVersion    Command = "version"
	CommandHelp       Command = "help"

	CommandStatus Command = "status"
	CommandRecord Command = "record"
	CommandSubmit Command = "submit"
	CommandSkip   Command = "skip"
	CommandVoice  Command = "voice"
	CommandEnd    Command = "end"
)

var validCommands = map[Command]struct{}{
	CommandPractice:   {},
	CommandCategories: {},
	CommandDashboard:  {},
	CommandDevices:    {},
	CommandDoctor:     {},
	CommandVersion:    {},
	CommandHelp:       {},
	CommandStatus:     {},
	CommandRecord:     {},
	CommandSubmit:     {},
	CommandSkip:       {},
	CommandVoice:      {},
	CommandEnd:        {},
}

// Remote reports whether cmd is forwarded to a running interview.
func (cmd Command) Remote() bool {
	switch cmd {
	case CommandStatus, CommandRecord, CommandSubmit, CommandSkip, CommandVoice, CommandEnd:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Debug      bool
	ShowHelp   bool

	// Category, QuestionsPath and ReportPath are set for practice.
	Category      question.Type
	QuestionsPath string
	ReportPath    string

	// Enable is the explicit on/off argument of record and voice; nil toggles.
	Enable *bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--debug":
			parsed.Debug = true
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			if err := parseCommandArgs(&parsed, args[i+1:]); err != nil {
				return Parsed{}, err
			}
			return parsed, nil
		}
	}

	return parsed, nil
}

func parseCommandArgs(parsed *Parsed, rest []string) error {
	switch parsed.Command {
	case CommandPractice:
		return parsePractice(parsed, rest)
	case CommandRecord, CommandVoice:
		if len(rest) == 0 {
			return nil
		}
		if len(rest) > 1 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		enable, err := parseSwitch(rest[0])
		if err != nil {
			return err
		}
		parsed.Enable = &enable
		return nil
	default:
		if len(rest) > 0 {
			return fmt.Errorf("unexpected arguments after command %q", parsed.Command)
		}
		return nil
	}
}

func parsePractice(parsed *Parsed, rest []string) error {
	var category string
	for i := 0; i < len(rest); i++ {
		arg := rest[i]
		switch {
		case arg == "--questions":
			i++
			if i >= len(rest) {
				return errors.New("--questions requires a path")
			}
			parsed.QuestionsPath = rest[i]
		case arg == "--report":
			i++
			if i >= len(rest) {
				return errors.New("--report requires a path")
			}
			parsed.ReportPath = rest[i]
		case strings.HasPrefix(arg, "-"):
			return fmt.Errorf("unknown practice flag: %s", arg)
		case category != "":
			return fmt.Errorf("unexpected argument %q after category %q", arg, category)
		default:
			category = arg
		}
	}

	if category == "" {
		if parsed.QuestionsPath == "" {
			return errors.New("practice requires a category")
		}
		category = string(question.TypeCustom)
	}

	kind, err := question.ParseType(category)
	if err != nil {
		return err
	}
	switch {
	case kind == question.TypeCustom && parsed.QuestionsPath == "":
		return errors.New("custom practice requires --questions FILE")
	case kind != question.TypeCustom && parsed.QuestionsPath != "":
		return fmt.Errorf("--questions only applies to custom practice, not %s", kind)
	}
	parsed.Category = kind
	return nil
}

func parseSwitch(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", raw)
	}
}

func HelpText(binaryName string) string {
	categories := make([]string, 0, len(question.Types()))
	for _, t := range question.Types() {
		categories = append(categories, string(t))
	}

	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--debug] <command>

Commands:
  practice CATEGORY   Start an interview (%[2]s)
  practice custom --questions FILE
                      Start an interview from a YAML question set
  practice ... --report FILE
                      Also write the final report to FILE
  categories          List interview categories with tips
  dashboard           Show practice progress
  devices             List available input devices
  doctor              Run configuration and environment checks
  version             Print version information
  help                Show this help

Remote control of a running interview:
  status              Print the current question and state
  record [on|off]     Toggle speech capture
  submit              Submit the current answer
  skip                Skip the current question
  voice [on|off]      Toggle spoken questions
  end                 Abandon the interview

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/rehearse/config.jsonc)
  --debug         Log at debug level
  -h, --help      Show help
  --version       Show version
`, binaryName, strings.Join(categories, ", "))
}
