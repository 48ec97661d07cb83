// Package config resolves, parses, validates, and defaults rehearse configuration.
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Audio       AudioConfig
	Recognition RecognitionConfig
	Voice       VoiceConfig
	Camera      CameraConfig
	Timing      TimingConfig
	Indicator   IndicatorConfig
	Report      ReportConfig
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// RecognitionConfig controls the streaming speech-to-text engine.
type RecognitionConfig struct {
	Provider   string
	Language   string
	Model      string
	Endpoint   string
	SampleRate int
	Retry      RetryConfig
}

// RetryConfig bounds network retries; delays double from BaseMS up to CapMS.
type RetryConfig struct {
	MaxAttempts int
	BaseMS      int
	CapMS       int
}

// VoiceConfig controls prompt playback.
type VoiceConfig struct {
	Enable       bool
	Provider     string
	VoiceID      string
	Model        string
	Locale       string
	Gender       string
	PreferName   string
	PrepareMS    int
	RetryDelayMS int
}

// CameraConfig controls the confidence sampler.
type CameraConfig struct {
	Enable   bool
	Device   string
	PeriodMS int
	Min      float64
	Max      float64
}

// TimingConfig holds the answer debounce and question settle windows.
type TimingConfig struct {
	DebounceMS int
	SettleMS   int
}

// IndicatorConfig controls desktop notifications and audio cues.
type IndicatorConfig struct {
	Enable         bool
	SoundEnable    bool
	DesktopAppName string
	ErrorTimeoutMS int
}

// ReportConfig controls what happens with the final report.
type ReportConfig struct {
	Clipboard    bool
	ClipboardCmd CommandConfig
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func (r RetryConfig) Base() time.Duration { return ms(r.BaseMS) }
func (r RetryConfig) Cap() time.Duration  { return ms(r.CapMS) }

func (v VoiceConfig) Prepare() time.Duration    { return ms(v.PrepareMS) }
func (v VoiceConfig) RetryDelay() time.Duration { return ms(v.RetryDelayMS) }

func (c CameraConfig) Period() time.Duration { return ms(c.PeriodMS) }

func (t TimingConfig) Debounce() time.Duration { return ms(t.DebounceMS) }
func (t TimingConfig) Settle() time.Duration   { return ms(t.SettleMS) }
