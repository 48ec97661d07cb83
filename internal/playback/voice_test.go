package playback

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectVoiceLadder(t *testing.T) {
	pref := Preference{Name: "Google", Locale: "en-US", Gender: "female"}

	voices := []Voice{
		{ID: "gb", Name: "Daniel", Locale: "en-GB", Gender: "male"},
		{ID: "us-m", Name: "Alex", Locale: "en-US", Gender: "male"},
		{ID: "us-f", Name: "Samantha", Locale: "en_US", Gender: "Female"},
		{ID: "g-us", Name: "Google US English", Locale: "en-US", Gender: "male"},
		{ID: "g-us-f", Name: "Google US English Female", Locale: "en-US", Gender: "female"},
	}

	tests := []struct {
		name   string
		voices []Voice
		want   string
	}{
		{name: "name locale gender", voices: voices, want: "g-us-f"},
		{name: "name locale", voices: voices[:4], want: "g-us"},
		{name: "locale gender", voices: voices[:3], want: "us-f"},
		{name: "locale", voices: voices[:2], want: "us-m"},
		{name: "language family", voices: voices[:1], want: "gb"},
		{name: "first voice", voices: []Voice{{ID: "de", Locale: "de-DE"}, {ID: "fr", Locale: "fr-FR"}}, want: "de"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectVoice(tc.voices, pref)
			require.NotNil(t, got)
			require.Equal(t, tc.want, got.ID)
		})
	}
}

func TestSelectVoiceEmptyIsNotAnError(t *testing.T) {
	require.Nil(t, SelectVoice(nil, DefaultPreference()))
}

func TestSelectVoiceDefaultPreferenceSkipsNameRungs(t *testing.T) {
	voices := []Voice{
		{ID: "a", Name: "Google US", Locale: "en-US", Gender: "male"},
		{ID: "b", Name: "Rachel", Locale: "en-US", Gender: "female"},
	}
	require.Equal(t, "b", SelectVoice(voices, DefaultPreference()).ID)
}
