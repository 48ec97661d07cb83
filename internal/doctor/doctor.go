// Package doctor runs readiness diagnostics for config, credentials, tools,
// microphone, camera, and the speech APIs.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/audio"
	"github.com/rbright/rehearse/internal/confidence"
	"github.com/rbright/rehearse/internal/config"
	"github.com/rbright/rehearse/internal/elevenlabs"
	"github.com/rbright/rehearse/internal/playback"
)

const probeTimeout = 3 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// voiceLister is the part of a synthesizer doctor can probe without speaking.
type voiceLister interface {
	Voices(ctx context.Context) ([]playback.Voice, error)
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded, secrets config.Secrets) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	if cfg.Recognition.Provider == config.ProviderDeepgram {
		checks = append(checks, checkSecret(config.EnvDeepgramAPIKey, secrets.DeepgramAPIKey, "speech recognition"))
		checks = append(checks, checkAudioSelection(ctx, cfg))
	}

	if cfg.Voice.Enable && cfg.Voice.Provider == config.ProviderElevenLabs {
		key := checkSecret(config.EnvElevenLabsAPIKey, secrets.ElevenLabsAPIKey, "spoken questions")
		checks = append(checks, key)
		if key.Pass {
			client := elevenlabs.NewClient(elevenlabs.Config{APIKey: secrets.ElevenLabsAPIKey, Timeout: probeTimeout})
			checks = append(checks, checkVoices(ctx, client, cfg.Voice))
		}
	}

	if cfg.Camera.Enable {
		checks = append(checks, checkCamera(ctx, cfg.Camera))
	}

	if cfg.Indicator.Enable {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}

	if cfg.Report.Clipboard {
		checks = append(checks, checkCommand(cfg.Report.ClipboardCmd.Argv, "clipboard_cmd"))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	if !loaded.Exists {
		return Check{Name: "config", Pass: true, Message: fmt.Sprintf("using defaults (%q not found)", loaded.Path)}
	}
	return Check{Name: "config", Pass: true, Message: fmt.Sprintf("loaded %q", loaded.Path)}
}

// checkSecret validates that an API key is present without echoing it.
func checkSecret(name string, value string, feature string) Check {
	if strings.TrimSpace(value) == "" {
		return Check{Name: name, Pass: false, Message: fmt.Sprintf("not set; %s disabled", feature)}
	}
	return Check{Name: name, Pass: true, Message: fmt.Sprintf("set (%d chars)", len(value))}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.Config) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkCamera opens and releases the camera the confidence sampler gates on.
func checkCamera(ctx context.Context, cfg config.CameraConfig) Check {
	handle, err := confidence.Device{Path: cfg.Device, Min: cfg.Min, Max: cfg.Max}.Acquire(ctx)
	if err != nil {
		return Check{Name: "camera", Pass: false, Message: err.Error()}
	}
	_ = handle.Close()
	return Check{Name: "camera", Pass: true, Message: fmt.Sprintf("opened %s", cfg.Device)}
}

// checkVoices lists synthesizer voices and reports which one the preference
// ladder would pick.
func checkVoices(ctx context.Context, lister voiceLister, cfg config.VoiceConfig) Check {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	voices, err := lister.Voices(ctx)
	if err != nil {
		return Check{Name: "voice.api", Pass: false, Message: err.Error()}
	}
	if strings.TrimSpace(cfg.VoiceID) != "" {
		return Check{Name: "voice.api", Pass: true, Message: fmt.Sprintf("%d voices; pinned voice %s", len(voices), cfg.VoiceID)}
	}

	pick := playback.SelectVoice(voices, playback.Preference{
		Locale: cfg.Locale,
		Gender: cfg.Gender,
		Name:   cfg.PreferName,
	})
	if pick == nil {
		return Check{Name: "voice.api", Pass: true, Message: fmt.Sprintf("%d voices; using provider default", len(voices))}
	}
	return Check{Name: "voice.api", Pass: true, Message: fmt.Sprintf("%d voices; selected %q", len(voices), pick.Name)}
}
