package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/cli"
	"github.com/rbright/rehearse/internal/confidence"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/console"
	"github.com/rbright/rehearse/internal/deepgram"
	"github.com/rbright/rehearse/internal/elevenlabs"
	"github.com/rbright/rehearse/internal/indicator"
	"github.com/rbright/rehearse/internal/ipc"
	"github.com/rbright/rehearse/internal/output"
	"github.com/rbright/rehearse/internal/playback"
	"github.com/rbright/rehearse/internal/question"
	"github.com/rbright/rehearse/internal/recognition"
	"github.com/rbright/rehearse/internal/report"
	"github.com/rbright/rehearse/internal/session"
	"github.com/rbright/rehearse/internal/version"
)

func (r Runner) commandPractice(ctx context.Context, parsed cli.Parsed, cfg config.Config, secrets config.Secrets, logger *slog.Logger) int {
	questions, title, err := loadQuestions(parsed)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, socketPath, err := acquireControl(ctx, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	if listener != nil {
		defer func() {
			_ = listener.Close()
			_ = os.Remove(socketPath)
		}()
	}

	desktop := indicator.NewDesktop(cfg.Indicator, logger)
	defer desktop.Wait()

	screen := console.New(r.Stdout)
	results := make(chan session.Interview, 1)

	controller, err := session.NewController(parsed.Category, questions, buildCapabilities(cfg, secrets, logger), session.Options{
		Settle:      cfg.Timing.Settle(),
		Debounce:    cfg.Timing.Debounce(),
		Voice:       cfg.Voice.Enable,
		Camera:      cfg.Camera.Enable,
		Recognition: recognitionOptions(cfg.Recognition),
		Playback:    playbackOptions(cfg.Voice),
		Confidence:  confidence.Options{Period: cfg.Camera.Period()},
		Indicator:   desktop,
		Completion:  func(in session.Interview) { results <- in },
		Logger:      logger,
		OnChange:    screen.Refresh,
	})
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	screen.Attach(controller)

	r.printIntro(parsed.Category, title, len(questions))

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	if listener != nil {
		go func() {
			serverErrCh <- ipc.Serve(serverCtx, listener, controller, ipc.WithLogger(logger))
		}()
	} else {
		serverErrCh <- nil
	}

	controller.Begin(ctx)
	runErr := screen.Run(ctx, r.stdin())

	serverCancel()
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		fmt.Fprintf(r.Stderr, "error: %v\n", runErr)
		return 1
	}

	var interview session.Interview
	select {
	case interview = <-results:
	default:
		fmt.Fprintln(r.Stdout, "interview ended")
		return 0
	}

	return r.deliverReport(ctx, parsed, cfg, interview, logger)
}

func (r Runner) deliverReport(ctx context.Context, parsed cli.Parsed, cfg config.Config, interview session.Interview, logger *slog.Logger) int {
	text := report.Interview(interview)
	fmt.Fprint(r.Stdout, "\n"+text)

	exporter := output.NewExporter(cfg.Report, logger)
	code := 0
	if parsed.ReportPath != "" {
		if err := exporter.WriteFile(parsed.ReportPath, text); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			code = 1
		} else {
			fmt.Fprintf(r.Stdout, "report saved to %s\n", parsed.ReportPath)
		}
	}
	if cfg.Report.Clipboard {
		if err := exporter.Copy(ctx, text); err != nil {
			fmt.Fprintf(r.Stderr, "error: %v\n", err)
			code = 1
		} else {
			fmt.Fprintln(r.Stdout, "report copied to clipboard")
		}
	}
	return code
}

func (r Runner) printIntro(kind question.Type, title string, count int) {
	category := question.Describe(kind)
	if title == "" {
		title = category.Title
	}
	fmt.Fprintf(r.Stdout, "%s (%d questions)\n%s\n", title, count, category.Description)
	for _, tip := range category.Tips {
		fmt.Fprintf(r.Stdout, "  - %s\n", tip)
	}
	fmt.Fprintln(r.Stdout)
}

func (r Runner) stdin() io.Reader {
	if r.Stdin == nil {
		return strings.NewReader("")
	}
	return r.Stdin
}

func loadQuestions(parsed cli.Parsed) ([]question.Question, string, error) {
	if parsed.Category == question.TypeCustom {
		return question.LoadFile(parsed.QuestionsPath)
	}
	return question.Defaults(parsed.Category), "", nil
}

// acquireControl claims the remote-control socket. Without XDG_RUNTIME_DIR the
// interview still runs, only remote control is unavailable.
func acquireControl(ctx context.Context, logger *slog.Logger) (net.Listener, string, error) {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		logger.Warn("remote control disabled", "error", err.Error())
		return nil, "", nil
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			return nil, "", fmt.Errorf("%w; finish it or run `rehearse end`", err)
		}
		return nil, "", err
	}
	return listener, socketPath, nil
}

// buildCapabilities constructs the speech, voice and camera engines named by
// config. A missing API key leaves the engine present but unsupported.
func buildCapabilities(cfg config.Config, secrets config.Secrets, logger *slog.Logger) session.Capabilities {
	var caps session.Capabilities

	if cfg.Recognition.Provider == config.ProviderDeepgram {
		caps.Recognition = deepgram.New(deepgram.Config{
			APIKey:     secrets.DeepgramAPIKey,
			Endpoint:   cfg.Recognition.Endpoint,
			Language:   cfg.Recognition.Language,
			Model:      cfg.Recognition.Model,
			SampleRate: cfg.Recognition.SampleRate,
			Input:      cfg.Audio.Input,
			Fallback:   cfg.Audio.Fallback,
			UserAgent:  version.UserAgent(),
			Logger:     logger,
		})
	}

	if cfg.Voice.Provider == config.ProviderElevenLabs && secrets.ElevenLabsAPIKey != "" {
		caps.Synthesizer = elevenlabs.NewClient(elevenlabs.Config{
			APIKey:    secrets.ElevenLabsAPIKey,
			VoiceID:   cfg.Voice.VoiceID,
			Model:     cfg.Voice.Model,
			UserAgent: version.UserAgent(),
		})
	}

	if cfg.Camera.Enable {
		caps.Camera = confidence.Device{Path: cfg.Camera.Device, Min: cfg.Camera.Min, Max: cfg.Camera.Max}
	}

	return caps
}

func recognitionOptions(cfg config.RecognitionConfig) recognition.Options {
	return recognition.Options{
		MaxRetries: cfg.Retry.MaxAttempts,
		BaseDelay:  cfg.Retry.Base(),
		MaxDelay:   cfg.Retry.Cap(),
	}
}

func playbackOptions(cfg config.VoiceConfig) playback.Options {
	return playback.Options{
		PrepareDelay: cfg.Prepare(),
		RetryDelay:   cfg.RetryDelay(),
		Preference: playback.Preference{
			Name:   cfg.PreferName,
			Locale: cfg.Locale,
			Gender: cfg.Gender,
		},
	}
}
