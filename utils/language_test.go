package utils

import "testing"

func TestDetectLanguageFromName(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		want string
	}{
		{"https://cdn.example.com/clips/hindi_speaker_03.wav", LanguageHindi},
		{"recordings/hi_sample.mp3", LanguageHindi},
		{"voice_hi.flac", LanguageHindi},
		{"https://cdn.example.com/clips/english_call.wav", LanguageEnglish},
		{"en_greeting.ogg", LanguageEnglish},
		{"podcast_en.m4a", LanguageEnglish},
		{"HINDI_UPPER.WAV", LanguageHindi},
		{"https://cdn.example.com/clips/a81f2c.wav", LanguageUnknown},
		{"", LanguageUnknown},
	}

	for _, tc := range cases {
		if got := DetectLanguageFromName(tc.name); got != tc.want {
			t.Errorf("DetectLanguageFromName(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
