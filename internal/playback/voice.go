package playback

import "strings"

// Voice is one synthesizer voice.
type Voice struct {
	ID     string
	Name   string
	Locale string
	Gender string
}

// Preference drives SelectVoice.
type Preference struct {
	Name   string
	Locale string
	Gender string
}

// DefaultPreference favors a US English female voice.
func DefaultPreference() Preference {
	return Preference{Locale: "en-US", Gender: "female"}
}

// SelectVoice walks the preference ladder from most to least specific and
// returns nil only when voices is empty.
func SelectVoice(voices []Voice, pref Preference) *Voice {
	if len(voices) == 0 {
		return nil
	}

	named := func(v Voice) bool {
		return pref.Name != "" && strings.Contains(strings.ToLower(v.Name), strings.ToLower(pref.Name))
	}
	locale := func(v Voice) bool {
		return pref.Locale != "" && normalizeLocale(v.Locale) == normalizeLocale(pref.Locale)
	}
	gender := func(v Voice) bool {
		return pref.Gender != "" && strings.EqualFold(v.Gender, pref.Gender)
	}
	family := func(v Voice) bool {
		want := language(pref.Locale)
		return want != "" && language(v.Locale) == want
	}

	ladder := []func(Voice) bool{
		func(v Voice) bool { return named(v) && locale(v) && gender(v) },
		func(v Voice) bool { return named(v) && locale(v) },
		func(v Voice) bool { return locale(v) && gender(v) },
		locale,
		family,
	}
	for _, match := range ladder {
		for i := range voices {
			if match(voices[i]) {
				return &voices[i]
			}
		}
	}
	return &voices[0]
}

func normalizeLocale(raw string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(raw), "_", "-"))
}

func language(locale string) string {
	lang, _, _ := strings.Cut(normalizeLocale(locale), "-")
	return lang
}
