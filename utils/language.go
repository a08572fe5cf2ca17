package utils

import "strings"

// Language labels reported alongside a detection verdict. Detection is a
// lightweight heuristic, not a transcription pass.
const (
	LanguageHindi   = "Hindi"
	LanguageEnglish = "English"
	LanguageUnknown = "Unknown"
)

var (
	hindiNameHints   = []string{"hindi", "hi_", "_hi", "hin"}
	englishNameHints = []string{"english", "en_", "_en", "eng"}
)

// DetectLanguageFromName guesses the spoken language from an audio file
// name or URL. Inline uploads carry no name, so they stay Unknown.
func DetectLanguageFromName(name string) string {
	lower := strings.ToLower(name)
	for _, hint := range hindiNameHints {
		if strings.Contains(lower, hint) {
			return LanguageHindi
		}
	}
	for _, hint := range englishNameHints {
		if strings.Contains(lower, hint) {
			return LanguageEnglish
		}
	}
	return LanguageUnknown
}
