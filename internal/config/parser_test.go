package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsDefaults(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseJSONCOverlaysBase(t *testing.T) {
	content := `
// rehearse config
{
  "recognition": {
    "provider": "Deepgram",
    "model": "nova-2", /* pinned */
    "retry": { "max_attempts": 5, "cap_ms": 8000, },
  },
  "voice": {
    "enable": false,
    "gender": "MALE",
    "prefer_name": "Adam",
  },
  "camera": { "min": 6.5, "max": 9 },
  "timing": { "debounce_ms": 750 },
  "report": { "clipboard": true, "clipboard_cmd": "xclip -selection clipboard" },
}
`
	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, ProviderDeepgram, cfg.Recognition.Provider)
	require.Equal(t, "nova-2", cfg.Recognition.Model)
	require.Equal(t, 5, cfg.Recognition.Retry.MaxAttempts)
	require.Equal(t, time.Second, cfg.Recognition.Retry.Base())
	require.Equal(t, 8*time.Second, cfg.Recognition.Retry.Cap())

	require.False(t, cfg.Voice.Enable)
	require.Equal(t, "male", cfg.Voice.Gender)
	require.Equal(t, "Adam", cfg.Voice.PreferName)
	require.Equal(t, "en-US", cfg.Voice.Locale)

	require.Equal(t, 6.5, cfg.Camera.Min)
	require.Equal(t, 9.0, cfg.Camera.Max)
	require.Equal(t, 750*time.Millisecond, cfg.Timing.Debounce())
	require.Equal(t, time.Second, cfg.Timing.Settle())

	require.True(t, cfg.Report.Clipboard)
	require.Equal(t, []string{"xclip", "-selection", "clipboard"}, cfg.Report.ClipboardCmd.Argv)
}

func TestParseKeepsCommentMarkersInsideStrings(t *testing.T) {
	content := `{"recognition": {"endpoint": "wss://example.test/v1/listen?a=1//2"}}`
	cfg, _, err := Parse(content, Default())
	require.NoError(t, err)
	require.Equal(t, "wss://example.test/v1/listen?a=1//2", cfg.Recognition.Endpoint)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, _, err := Parse(`{"riva": {"grpc": "x"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseRejectsMultipleValues(t *testing.T) {
	_, _, err := Parse(`{} {}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestParseReportsLineForTypeErrors(t *testing.T) {
	content := "{\n  \"timing\": {\n    \"debounce_ms\": \"fast\"\n  }\n}"
	_, _, err := Parse(content, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseRejectsUnterminatedBlockComment(t *testing.T) {
	_, _, err := Parse(`{ /* oops }`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unterminated block comment")
}

func TestParseWarnsOnCommentedClipboardCommand(t *testing.T) {
	cfg, warnings, err := Parse(`{"report": {"clipboard_cmd": "# wl-copy"}}`, Default())
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "commented out")
	require.Empty(t, cfg.Report.ClipboardCmd.Argv)
}

func TestNormalizeJSONCPreservesOffsets(t *testing.T) {
	in := "{\"a\": 1, // note\n}"
	out, err := normalizeJSONC(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))
	require.Equal(t, "{\"a\": 1"+strings.Repeat(" ", 9)+"\n}", out)
}
