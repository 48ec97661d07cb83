package config

const (
	ProviderDeepgram   = "deepgram"
	ProviderElevenLabs = "elevenlabs"
	ProviderNone       = "none"
)

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	clipboard := "wl-copy"

	return Config{
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Recognition: RecognitionConfig{
			Provider:   ProviderDeepgram,
			Language:   "en-US",
			SampleRate: 16000,
			Retry: RetryConfig{
				MaxAttempts: 3,
				BaseMS:      1000,
				CapMS:       10000,
			},
		},
		Voice: VoiceConfig{
			Enable:       true,
			Provider:     ProviderElevenLabs,
			Locale:       "en-US",
			Gender:       "female",
			PrepareMS:    500,
			RetryDelayMS: 1000,
		},
		Camera: CameraConfig{
			Enable:   true,
			Device:   "/dev/video0",
			PeriodMS: 2000,
			Min:      7,
			Max:      10,
		},
		Timing: TimingConfig{
			DebounceMS: 500,
			SettleMS:   1000,
		},
		Indicator: IndicatorConfig{
			Enable:         true,
			SoundEnable:    true,
			DesktopAppName: "rehearse",
			ErrorTimeoutMS: 1600,
		},
		Report: ReportConfig{
			Clipboard:    false,
			ClipboardCmd: CommandConfig{Raw: clipboard, Argv: mustParseArgv(clipboard)},
		},
	}
}
