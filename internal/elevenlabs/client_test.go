package elevenlabs

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/rehearse/internal/playback"
)

type played struct {
	samples []int16
	rate    int
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]played) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	var calls []played
	client := NewClient(Config{APIKey: "xi-secret", BaseURL: server.URL})
	client.player = func(_ context.Context, samples []int16, rate int, _ string) error {
		calls = append(calls, played{samples: samples, rate: rate})
		return nil
	}
	return client, &calls
}

func TestVoicesMapsLabels(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/voices", r.URL.Path)
		require.Equal(t, "xi-secret", r.Header.Get("xi-api-key"))
		_, _ = w.Write([]byte(`{"voices":[
			{"voice_id":"r1","name":"Rachel","labels":{"accent":"american","gender":"female"}},
			{"voice_id":"g1","name":"George","labels":{"accent":"British","gender":"male"}},
			{"voice_id":"x1","name":"Nova","labels":{}}
		]}`))
	})

	voices, err := client.Voices(context.Background())
	require.NoError(t, err)
	require.Equal(t, []playback.Voice{
		{ID: "r1", Name: "Rachel", Locale: "en-US", Gender: "female"},
		{ID: "g1", Name: "George", Locale: "en-GB", Gender: "male"},
		{ID: "x1", Name: "Nova", Locale: "en"},
	}, voices)
}

func TestVoicesAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
	})

	_, err := client.Voices(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "elevenlabs API error 401")
}

func TestSpeakPostsRequestAndPlaysPCM(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/text-to-speech/r1", r.URL.Path)
		require.Equal(t, "pcm_22050", r.URL.Query().Get("output_format"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body ttsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "Why this role?", body.Text)
		require.Equal(t, DefaultModel, body.ModelID)
		require.Equal(t, 0.95, body.VoiceSettings.Speed)

		_, _ = w.Write([]byte{0x10, 0x00, 0xf0, 0xff})
	})

	err := client.Speak(context.Background(), playback.Utterance{
		Text:   "Why this role?",
		Voice:  &playback.Voice{ID: "r1"},
		Rate:   playback.DefaultRate,
		Volume: 1,
	})
	require.NoError(t, err)
	require.Len(t, *calls, 1)
	require.Equal(t, []int16{16, -16}, (*calls)[0].samples)
	require.Equal(t, 22050, (*calls)[0].rate)
}

func TestSpeakPinnedVoiceWins(t *testing.T) {
	var path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	})
	client.cfg.VoiceID = "pinned"

	require.NoError(t, client.Speak(context.Background(), playback.Utterance{Text: "hi", Voice: &playback.Voice{ID: "other"}}))
	require.Equal(t, "/text-to-speech/pinned", path)
}

func TestSpeakDefaultVoice(t *testing.T) {
	var path string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
	})

	require.NoError(t, client.Speak(context.Background(), playback.Utterance{Text: "hi"}))
	require.Equal(t, "/text-to-speech/"+DefaultVoiceID, path)
}

func TestSpeakAPIErrorDoesNotPlay(t *testing.T) {
	client, calls := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	err := client.Speak(context.Background(), playback.Utterance{Text: "hi"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "429")
	require.Empty(t, *calls)
}

func TestSpeakHonoursCancelledContext(t *testing.T) {
	client, calls := newTestClient(t, func(http.ResponseWriter, *http.Request) {})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := client.Speak(ctx, playback.Utterance{Text: "hi"})
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, *calls)
}

func TestClampSpeed(t *testing.T) {
	require.Equal(t, 1.0, clampSpeed(0))
	require.Equal(t, 0.7, clampSpeed(0.2))
	require.Equal(t, 1.2, clampSpeed(3))
	require.Equal(t, 0.95, clampSpeed(0.95))
}

func TestRequestsCarryUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`{"voices":[]}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL, UserAgent: "rehearse/1.0.0"})
	_, err := client.Voices(context.Background())
	require.NoError(t, err)
	require.Equal(t, "rehearse/1.0.0", agent)
}
