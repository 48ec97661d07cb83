package config

import (
	"fmt"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	switch cfg.Recognition.Provider {
	case ProviderDeepgram, ProviderNone:
	default:
		return nil, fmt.Errorf("recognition.provider must be one of: deepgram, none")
	}
	if strings.TrimSpace(cfg.Recognition.Language) == "" {
		return nil, fmt.Errorf("recognition.language must not be empty")
	}
	if cfg.Recognition.SampleRate <= 0 {
		return nil, fmt.Errorf("recognition.sample_rate must be > 0")
	}
	retry := cfg.Recognition.Retry
	if retry.MaxAttempts < 0 {
		return nil, fmt.Errorf("recognition.retry.max_attempts must be >= 0")
	}
	if retry.BaseMS <= 0 {
		return nil, fmt.Errorf("recognition.retry.base_ms must be > 0")
	}
	if retry.CapMS < retry.BaseMS {
		return nil, fmt.Errorf("recognition.retry.cap_ms must be >= recognition.retry.base_ms")
	}

	switch cfg.Voice.Provider {
	case ProviderElevenLabs, ProviderNone:
	default:
		return nil, fmt.Errorf("voice.provider must be one of: elevenlabs, none")
	}
	switch cfg.Voice.Gender {
	case "", "female", "male":
	default:
		return nil, fmt.Errorf("voice.gender must be one of: female, male")
	}
	if cfg.Voice.PrepareMS < 0 {
		return nil, fmt.Errorf("voice.prepare_ms must be >= 0")
	}
	if cfg.Voice.RetryDelayMS < 0 {
		return nil, fmt.Errorf("voice.retry_delay_ms must be >= 0")
	}

	if cfg.Camera.Enable && strings.TrimSpace(cfg.Camera.Device) == "" {
		return nil, fmt.Errorf("camera.device must not be empty when camera.enable=true")
	}
	if cfg.Camera.PeriodMS <= 0 {
		return nil, fmt.Errorf("camera.period_ms must be > 0")
	}
	if cfg.Camera.Min >= cfg.Camera.Max {
		return nil, fmt.Errorf("camera.min must be < camera.max")
	}
	if cfg.Camera.Min < 0 || cfg.Camera.Max > 10 {
		warnings = append(warnings, Warning{Message: fmt.Sprintf("camera range [%g, %g) falls outside the 0-10 score scale", cfg.Camera.Min, cfg.Camera.Max)})
	}

	if cfg.Timing.DebounceMS <= 0 {
		return nil, fmt.Errorf("timing.debounce_ms must be > 0")
	}
	if cfg.Timing.SettleMS < 0 {
		return nil, fmt.Errorf("timing.settle_ms must be >= 0")
	}

	if cfg.Indicator.Enable && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.enable=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Report.Clipboard && len(cfg.Report.ClipboardCmd.Argv) == 0 {
		return nil, fmt.Errorf("report.clipboard_cmd must not be empty when report.clipboard=true")
	}

	return warnings, nil
}
