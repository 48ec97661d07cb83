// Package output delivers the finished interview report (clipboard and file).
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/config"
)

// ErrClipboardDisabled is returned by Copy when report.clipboard is off.
var ErrClipboardDisabled = errors.New("clipboard export is disabled")

// Exporter applies report delivery side effects.
type Exporter struct {
	config config.ReportConfig
	logger *slog.Logger
}

// NewExporter constructs a report exporter from runtime config.
func NewExporter(cfg config.ReportConfig, logger *slog.Logger) *Exporter {
	return &Exporter{config: cfg, logger: logger}
}

// Copy pipes the rendered report into the configured clipboard command.
func (e *Exporter) Copy(ctx context.Context, report string) error {
	if !e.config.Clipboard {
		return ErrClipboardDisabled
	}
	if strings.TrimSpace(report) == "" {
		return nil
	}

	clipboardCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := runCommandWithInput(clipboardCtx, e.config.ClipboardCmd.Argv, report); err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}
	e.log("report copied to clipboard", "bytes", len(report))
	return nil
}

// WriteFile saves the rendered report, creating parent directories.
func (e *Exporter) WriteFile(path string, report string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("report path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report %q: %w", path, err)
	}
	e.log("report written", "path", path)
	return nil
}

// runCommandWithInput executes argv and optionally writes input to stdin.
func runCommandWithInput(ctx context.Context, argv []string, input string) error {
	if len(argv) == 0 {
		return fmt.Errorf("command argv cannot be empty")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin for %s: %w", argv[0], err)
	}

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	if input != "" {
		if _, err := stdin.Write([]byte(input)); err != nil {
			_ = stdin.Close()
			_ = cmd.Wait()
			return fmt.Errorf("write stdin for %s: %w", argv[0], err)
		}
	}
	_ = stdin.Close()

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait for %s: %w", argv[0], err)
	}
	return nil
}

func (e *Exporter) log(message string, args ...any) {
	if e.logger == nil {
		return
	}
	e.logger.Info(message, args...)
}
