// Package elevenlabs synthesizes question prompts with the ElevenLabs REST API
// and plays them through Pulse.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rbright/rehearse/internal/audio"
	"github.com/rbright/rehearse/internal/playback"
)

const (
	DefaultBaseURL = "https://api.elevenlabs.io/v1"
	// DefaultVoiceID is "Rachel".
	DefaultVoiceID = "21m00Tcm4TlvDq8ikWAM"
	DefaultModel   = "eleven_turbo_v2_5"

	sampleRate = 22050
	minSpeed   = 0.7
	maxSpeed   = 1.2
)

type Config struct {
	APIKey string
	// VoiceID pins a voice; empty lets the playback preference ladder choose.
	VoiceID string
	Model   string
	BaseURL string
	Timeout time.Duration
	// UserAgent is sent on every request when set.
	UserAgent string
}

// Client implements playback.Synthesizer.
type Client struct {
	cfg        Config
	httpClient *http.Client
	player     func(ctx context.Context, samples []int16, rate int, mediaName string) error
}

func NewClient(cfg Config) *Client {
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		player:     audio.Play,
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Speed           float64 `json:"speed"`
}

type voicesResponse struct {
	Voices []struct {
		VoiceID string            `json:"voice_id"`
		Name    string            `json:"name"`
		Labels  map[string]string `json:"labels"`
	} `json:"voices"`
}

// Voices lists the account's voices with locale derived from the accent label.
func (c *Client) Voices(ctx context.Context) ([]playback.Voice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/voices", nil)
	if err != nil {
		return nil, fmt.Errorf("create voices request: %w", err)
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var decoded voicesResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode voices: %w", err)
	}

	voices := make([]playback.Voice, 0, len(decoded.Voices))
	for _, v := range decoded.Voices {
		voices = append(voices, playback.Voice{
			ID:     v.VoiceID,
			Name:   v.Name,
			Locale: accentLocale(v.Labels["accent"]),
			Gender: v.Labels["gender"],
		})
	}
	return voices, nil
}

// Speak synthesizes u as 22.05kHz PCM and plays it, returning when playback
// ends or ctx is cancelled.
func (c *Client) Speak(ctx context.Context, u playback.Utterance) error {
	voiceID := strings.TrimSpace(c.cfg.VoiceID)
	if voiceID == "" && u.Voice != nil {
		voiceID = u.Voice.ID
	}
	if voiceID == "" {
		voiceID = DefaultVoiceID
	}

	payload, err := json.Marshal(ttsRequest{
		Text:    u.Text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           clampSpeed(u.Rate),
		},
	})
	if err != nil {
		return fmt.Errorf("marshal tts request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/text-to-speech/%s?output_format=pcm_%d", c.cfg.BaseURL, url.PathEscape(voiceID), sampleRate)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", c.cfg.APIKey)

	pcm, err := c.do(req)
	if err != nil {
		return err
	}

	volume := u.Volume
	if volume <= 0 {
		volume = playback.DefaultVolume
	}
	return c.player(ctx, audio.DecodePCM16(pcm, volume), sampleRate, "rehearse prompt")
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read elevenlabs response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("elevenlabs API error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func clampSpeed(rate float64) float64 {
	if rate <= 0 {
		return 1
	}
	return max(minSpeed, min(maxSpeed, rate))
}

func accentLocale(accent string) string {
	switch strings.ToLower(strings.TrimSpace(accent)) {
	case "american":
		return "en-US"
	case "british":
		return "en-GB"
	case "australian":
		return "en-AU"
	case "irish":
		return "en-IE"
	case "indian":
		return "en-IN"
	default:
		return "en"
	}
}
