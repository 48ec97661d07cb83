package output

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/rehearse/internal/config"
	"github.com/stretchr/testify/require"
)

func TestRunCommandWithInputWritesStdin(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	outputPath := filepath.Join(t.TempDir(), "stdin.txt")

	err := runCommandWithInput(context.Background(), []string{scriptPath, outputPath}, "hello from rehearse")
	require.NoError(t, err)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, "hello from rehearse", string(data))
}

func TestRunCommandWithInputRejectsEmptyArgv(t *testing.T) {
	err := runCommandWithInput(context.Background(), nil, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "argv cannot be empty")
}

func TestRunCommandWithInputSurfacesExitFailure(t *testing.T) {
	err := runCommandWithInput(context.Background(), []string{"false"}, "payload")
	require.Error(t, err)
	require.Contains(t, err.Error(), "wait for false")
}

func TestExporterCopyWritesClipboard(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	cfg := config.Default().Report
	cfg.Clipboard = true
	cfg.ClipboardCmd = config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}

	err := NewExporter(cfg, nil).Copy(context.Background(), "Overall score: 8.0")
	require.NoError(t, err)

	data, err := os.ReadFile(clipboardPath)
	require.NoError(t, err)
	require.Equal(t, "Overall score: 8.0", string(data))
}

func TestExporterCopyDisabled(t *testing.T) {
	err := NewExporter(config.Default().Report, nil).Copy(context.Background(), "report")
	require.ErrorIs(t, err, ErrClipboardDisabled)
}

func TestExporterCopySkipsBlankReport(t *testing.T) {
	scriptPath := writeStdinCaptureScript(t)
	clipboardPath := filepath.Join(t.TempDir(), "clipboard.txt")

	cfg := config.Default().Report
	cfg.Clipboard = true
	cfg.ClipboardCmd = config.CommandConfig{Argv: []string{scriptPath, clipboardPath}}

	require.NoError(t, NewExporter(cfg, nil).Copy(context.Background(), "  "))
	_, err := os.Stat(clipboardPath)
	require.True(t, os.IsNotExist(err))
}

func TestExporterWriteFileCreatesParents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "run.txt")

	require.NoError(t, NewExporter(config.Default().Report, nil).WriteFile(path, "report body"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "report body", string(data))
}

func TestExporterWriteFileRejectsEmptyPath(t *testing.T) {
	err := NewExporter(config.Default().Report, nil).WriteFile(" ", "report")
	require.Error(t, err)
}

func writeStdinCaptureScript(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.sh")
	script := "#!/usr/bin/env bash\nset -euo pipefail\ncat > \"$1\"\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}
