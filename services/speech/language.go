package speech

import "unicode"

const (
	LangEnglish = "en"
	LangArabic  = "ar"
)

// DetectLanguage compares Arabic-script letters against ASCII letters.
func DetectLanguage(text string) string {
	arabic, latin := 0, 0
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}
	if arabic > latin {
		return LangArabic
	}
	return LangEnglish
}

// Voice picks the Twilio <Say> voice and language for a detected language.
func Voice(lang string) (voice, language string) {
	if lang == LangArabic {
		return "Polly.Zeina", "arb"
	}
	return "alice", "en-US"
}
