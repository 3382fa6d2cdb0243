package content

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

func NewLanguageDetector() lingua.LanguageDetector {
	return lingua.NewLanguageDetectorBuilder().
		FromLanguages(lingua.AllLanguages()...).
		WithMinimumRelativeDistance(0.25).
		Build()
}

// Add helper function to map lingua languages to ISO codes
func linguaToISO(lang lingua.Language, languages map[lingua.Language]string) string {
	if code, ok := languages[lang]; ok {
		return code
	}
	return ""
}

func getSupportedLanguages() map[lingua.Language]string {
	languages := make(map[lingua.Language]string)

	// Map all lingua languages to their ISO 639-1 codes
	for _, lang := range lingua.AllLanguages() {
		isoCode := strings.ToLower(lang.IsoCode639_1().String())
		languages[lang] = isoCode
	}

	return languages
}

// detectLanguage returns the ISO 639-1 code of the text's language,
// or empty when detection is not confident enough
func detectLanguage(detector lingua.LanguageDetector, supported map[lingua.Language]string, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	lang, ok := detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return linguaToISO(lang, supported)
}
