package config

import (
	"fmt"
	"strings"
)

// filePayload mirrors config.jsonc; nil fields keep the base value.
type filePayload struct {
	Audio *struct {
		Input    *string `json:"input"`
		Fallback *string `json:"fallback"`
	} `json:"audio"`
	Recognition *struct {
		Provider   *string `json:"provider"`
		Language   *string `json:"language"`
		Model      *string `json:"model"`
		Endpoint   *string `json:"endpoint"`
		SampleRate *int    `json:"sample_rate"`
		Retry      *struct {
			MaxAttempts *int `json:"max_attempts"`
			BaseMS      *int `json:"base_ms"`
			CapMS       *int `json:"cap_ms"`
		} `json:"retry"`
	} `json:"recognition"`
	Voice *struct {
		Enable       *bool   `json:"enable"`
		Provider     *string `json:"provider"`
		VoiceID      *string `json:"voice_id"`
		Model        *string `json:"model"`
		Locale       *string `json:"locale"`
		Gender       *string `json:"gender"`
		PreferName   *string `json:"prefer_name"`
		PrepareMS    *int    `json:"prepare_ms"`
		RetryDelayMS *int    `json:"retry_delay_ms"`
	} `json:"voice"`
	Camera *struct {
		Enable   *bool    `json:"enable"`
		Device   *string  `json:"device"`
		PeriodMS *int     `json:"period_ms"`
		Min      *float64 `json:"min"`
		Max      *float64 `json:"max"`
	} `json:"camera"`
	Timing *struct {
		DebounceMS *int `json:"debounce_ms"`
		SettleMS   *int `json:"settle_ms"`
	} `json:"timing"`
	Indicator *struct {
		Enable         *bool   `json:"enable"`
		SoundEnable    *bool   `json:"sound_enable"`
		DesktopAppName *string `json:"desktop_app_name"`
		ErrorTimeoutMS *int    `json:"error_timeout_ms"`
	} `json:"indicator"`
	Report *struct {
		Clipboard    *bool   `json:"clipboard"`
		ClipboardCmd *string `json:"clipboard_cmd"`
	} `json:"report"`
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (p filePayload) applyTo(cfg *Config) ([]Warning, error) {
	var warnings []Warning

	if a := p.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if r := p.Recognition; r != nil {
		if r.Provider != nil {
			cfg.Recognition.Provider = strings.ToLower(strings.TrimSpace(*r.Provider))
		}
		setString(&cfg.Recognition.Language, r.Language)
		setString(&cfg.Recognition.Model, r.Model)
		setString(&cfg.Recognition.Endpoint, r.Endpoint)
		set(&cfg.Recognition.SampleRate, r.SampleRate)
		if retry := r.Retry; retry != nil {
			set(&cfg.Recognition.Retry.MaxAttempts, retry.MaxAttempts)
			set(&cfg.Recognition.Retry.BaseMS, retry.BaseMS)
			set(&cfg.Recognition.Retry.CapMS, retry.CapMS)
		}
	}

	if v := p.Voice; v != nil {
		set(&cfg.Voice.Enable, v.Enable)
		if v.Provider != nil {
			cfg.Voice.Provider = strings.ToLower(strings.TrimSpace(*v.Provider))
		}
		setString(&cfg.Voice.VoiceID, v.VoiceID)
		setString(&cfg.Voice.Model, v.Model)
		setString(&cfg.Voice.Locale, v.Locale)
		if v.Gender != nil {
			cfg.Voice.Gender = strings.ToLower(strings.TrimSpace(*v.Gender))
		}
		setString(&cfg.Voice.PreferName, v.PreferName)
		set(&cfg.Voice.PrepareMS, v.PrepareMS)
		set(&cfg.Voice.RetryDelayMS, v.RetryDelayMS)
	}

	if c := p.Camera; c != nil {
		set(&cfg.Camera.Enable, c.Enable)
		setString(&cfg.Camera.Device, c.Device)
		set(&cfg.Camera.PeriodMS, c.PeriodMS)
		set(&cfg.Camera.Min, c.Min)
		set(&cfg.Camera.Max, c.Max)
	}

	if t := p.Timing; t != nil {
		set(&cfg.Timing.DebounceMS, t.DebounceMS)
		set(&cfg.Timing.SettleMS, t.SettleMS)
	}

	if i := p.Indicator; i != nil {
		set(&cfg.Indicator.Enable, i.Enable)
		set(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		set(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if r := p.Report; r != nil {
		set(&cfg.Report.Clipboard, r.Clipboard)
		if r.ClipboardCmd != nil {
			raw := strings.TrimSpace(*r.ClipboardCmd)
			argv, err := parseArgv(raw)
			if err != nil {
				return nil, fmt.Errorf("report.clipboard_cmd: %w", err)
			}
			if raw != "" && len(argv) == 0 {
				warnings = append(warnings, Warning{Message: "report.clipboard_cmd is commented out; clipboard copy disabled"})
			}
			cfg.Report.ClipboardCmd = CommandConfig{Raw: raw, Argv: argv}
		}
	}

	return warnings, nil
}
