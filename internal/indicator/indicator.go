// Package indicator surfaces interview progress as desktop notifications and audio cues.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rbright/rehearse/internal/audio"
	"github.com/rbright/rehearse/internal/config"
)

// Notifier is the session-facing indicator contract.
type Notifier interface {
	ShowQuestion(ctx context.Context, index int, total int)
	ShowListening(context.Context)
	ShowError(context.Context, string)
	CueSubmit(context.Context)
	CueSkip(context.Context)
	CueComplete(context.Context)
	Hide(context.Context)
}

// Desktop routes indicator output through freedesktop notifications and
// renders cues on the default Pulse sink.
type Desktop struct {
	cfg      config.IndicatorConfig
	logger   *slog.Logger
	messages messages
	play     func(ctx context.Context, samples []int16, rate int, mediaName string) error

	mu             sync.Mutex
	notificationID uint32
	soundMu        sync.Mutex
	cues           sync.WaitGroup
}

// NewDesktop creates an indicator from config.
func NewDesktop(cfg config.IndicatorConfig, logger *slog.Logger) *Desktop {
	return &Desktop{
		cfg:      cfg,
		logger:   logger,
		messages: indicatorMessagesFromEnv(),
		play:     audio.Play,
	}
}

// ShowQuestion announces which question is on screen.
func (d *Desktop) ShowQuestion(ctx context.Context, index int, total int) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, 0, d.messages.question(index, total))
	})
}

// ShowListening signals the microphone is open and emits the start cue.
func (d *Desktop) ShowListening(ctx context.Context) {
	d.playCue(cueStart)
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, 0, d.messages.listening)
	})
}

// ShowError displays an error-state message.
func (d *Desktop) ShowError(ctx context.Context, text string) {
	if !d.cfg.Enable {
		return
	}
	if text == "" {
		text = d.messages.errorText
	}
	timeout := d.cfg.ErrorTimeoutMS
	if timeout <= 0 {
		timeout = 1200
	}
	d.run(ctx, func(ctx context.Context) error {
		return d.notify(ctx, timeout, text)
	})
}

// CueSubmit emits the answer-accepted cue.
func (d *Desktop) CueSubmit(context.Context) {
	d.playCue(cueSubmit)
}

// CueSkip emits the skipped-question cue.
func (d *Desktop) CueSkip(context.Context) {
	d.playCue(cueSkip)
}

// CueComplete emits the interview-finished cue.
func (d *Desktop) CueComplete(context.Context) {
	d.playCue(cueComplete)
}

// Hide dismisses the active notification.
func (d *Desktop) Hide(ctx context.Context) {
	if !d.cfg.Enable {
		return
	}
	d.run(ctx, d.dismiss)
}

// Wait blocks until queued cues finish playing.
func (d *Desktop) Wait() {
	d.cues.Wait()
}

// notify sends a replaceable notification and stores its ID.
func (d *Desktop) notify(ctx context.Context, timeoutMS int, text string) error {
	d.mu.Lock()
	replaceID := d.notificationID
	d.mu.Unlock()

	appName := strings.TrimSpace(d.cfg.DesktopAppName)
	if appName == "" {
		appName = "rehearse"
	}

	id, err := desktopNotify(ctx, appName, replaceID, text, timeoutMS)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.notificationID = id
	d.mu.Unlock()
	return nil
}

// dismiss closes the current notification ID when present.
func (d *Desktop) dismiss(ctx context.Context) error {
	d.mu.Lock()
	id := d.notificationID
	d.notificationID = 0
	d.mu.Unlock()

	if id == 0 {
		return nil
	}
	return desktopDismiss(ctx, id)
}

// run executes an indicator operation with a bounded timeout.
func (d *Desktop) run(ctx context.Context, fn func(context.Context) error) {
	runCtx, cancel := context.WithTimeout(ctx, 400*time.Millisecond)
	defer cancel()
	if err := fn(runCtx); err != nil {
		d.log("indicator dispatch failed", err)
	}
}

// playCue serializes cue playback and emits audio asynchronously.
func (d *Desktop) playCue(kind cueKind) {
	if !d.cfg.SoundEnable {
		return
	}
	samples := cueSamples(kind)
	if len(samples) == 0 {
		return
	}
	d.cues.Add(1)
	go func() {
		defer d.cues.Done()
		d.soundMu.Lock()
		defer d.soundMu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := d.play(ctx, samples, cueSampleRate, "rehearse cue"); err != nil {
			d.log("indicator audio cue failed", err)
		}
	}()
}

// log emits debug-only indicator failures to the runtime logger.
func (d *Desktop) log(message string, err error) {
	if d.logger == nil || err == nil {
		return
	}
	d.logger.Debug(message, "error", err.Error())
}
