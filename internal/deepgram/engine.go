// Package deepgram streams microphone audio to Deepgram's live transcription
// websocket API.
package deepgram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rbright/rehearse/internal/audio"
	"github.com/rbright/rehearse/internal/recognition"
)

const (
	DefaultEndpoint       = "wss://api.deepgram.com/v1/listen"
	defaultUtteranceEndMS = 1000
	defaultDialTimeout    = 10 * time.Second
)

// Config holds Deepgram connection settings.
type Config struct {
	APIKey         string
	Endpoint       string
	Language       string
	Model          string
	SampleRate     int
	UtteranceEndMS int
	DialTimeout    time.Duration
	UserAgent      string

	// Input and Fallback select the capture device (see audio.SelectDevice).
	Input    string
	Fallback string

	Logger *slog.Logger
}

// pcmSource is the microphone feed for one stream.
type pcmSource interface {
	Chunks() <-chan []byte
	Stop() error
}

// Engine implements recognition.Engine.
type Engine struct {
	cfg Config

	selectDevice func(ctx context.Context, input string, fallback string) (audio.Selection, error)
	startCapture func(ctx context.Context, device audio.Device) (pcmSource, error)
}

// New returns an engine reading the default Pulse capture device.
func New(cfg Config) *Engine {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audio.CaptureSampleRate
	}
	if cfg.UtteranceEndMS <= 0 {
		cfg.UtteranceEndMS = defaultUtteranceEndMS
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = defaultDialTimeout
	}
	return &Engine{
		cfg:          cfg,
		selectDevice: audio.SelectDevice,
		startCapture: func(ctx context.Context, device audio.Device) (pcmSource, error) {
			return audio.StartCapture(ctx, device)
		},
	}
}

// Supported reports whether an API key is configured.
func (e *Engine) Supported() bool {
	return strings.TrimSpace(e.cfg.APIKey) != ""
}

// Open selects the microphone, connects the websocket and starts streaming.
func (e *Engine) Open(ctx context.Context, sink recognition.Sink) (recognition.Stream, error) {
	selection, err := e.selectDevice(ctx, e.cfg.Input, e.cfg.Fallback)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", recognition.ErrNoMicrophone, err)
	}
	if selection.Warning != "" && e.cfg.Logger != nil {
		e.cfg.Logger.Warn("audio device fallback", "warning", selection.Warning)
	}

	target, err := e.listenURL()
	if err != nil {
		return nil, err
	}

	dialCtx, cancel := context.WithTimeout(ctx, e.cfg.DialTimeout)
	defer cancel()

	header := http.Header{}
	header.Set("Authorization", "Token "+e.cfg.APIKey)
	if e.cfg.UserAgent != "" {
		header.Set("User-Agent", e.cfg.UserAgent)
	}
	dialer := websocket.Dialer{HandshakeTimeout: e.cfg.DialTimeout}

	conn, resp, err := dialer.DialContext(dialCtx, target, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, classifyDial(resp, err)
	}

	capture, err := e.startCapture(ctx, selection.Device)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: start capture: %w", recognition.ErrNoMicrophone, err)
	}

	s := newStream(conn, capture, sink, e.cfg.Logger)
	go s.readLoop()
	go s.pumpAudio()

	if e.cfg.Logger != nil {
		e.cfg.Logger.Info("deepgram stream opened", "device", selection.Device.ID)
	}
	return s, nil
}

func (e *Engine) listenURL() (string, error) {
	u, err := url.Parse(e.cfg.Endpoint)
	if err != nil {
		return "", fmt.Errorf("parse deepgram endpoint %q: %w", e.cfg.Endpoint, err)
	}

	q := u.Query()
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(e.cfg.SampleRate))
	q.Set("channels", "1")
	q.Set("punctuate", "true")
	q.Set("interim_results", "true")
	q.Set("utterance_end_ms", strconv.Itoa(e.cfg.UtteranceEndMS))
	if lang := strings.TrimSpace(e.cfg.Language); lang != "" {
		q.Set("language", lang)
	}
	if model := strings.TrimSpace(e.cfg.Model); model != "" {
		q.Set("model", model)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func classifyDial(resp *http.Response, err error) error {
	if resp != nil {
		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("deepgram rejected credentials (HTTP %d)", resp.StatusCode)
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return fmt.Errorf("deepgram handshake failed (HTTP %d): %w", resp.StatusCode, err)
		}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: dial deepgram: %w", recognition.ErrNetwork, err)
}
