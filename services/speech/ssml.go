package speech

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

var punctuationFixes = strings.NewReplacer("...", ".", "!!", "!", "??", "?")

var sentenceBreaks = strings.NewReplacer(
	". ", ". <break time='0.5s'/> ",
	"? ", "? <break time='0.5s'/> ",
	"! ", "! <break time='0.5s'/> ",
)

// PrepareForTTS cleans reply text for speech synthesis. Pauses are added
// after sentences, and text mixing Arabic and English is split into
// <lang> segments.
func PrepareForTTS(text string) string {
	cleaned := punctuationFixes.Replace(strings.TrimSpace(text))

	if hasNonASCII(cleaned) {
		return mixedLanguageSSML(splitByScript(cleaned))
	}

	withBreaks := sentenceBreaks.Replace(cleaned)
	if strings.Contains(withBreaks, "<break") {
		return "<speak>" + withBreaks + "</speak>"
	}
	return withBreaks
}

func hasNonASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return true
		}
	}
	return false
}

type segment struct {
	lang string
	text string
}

// splitByScript groups runs of ASCII and non-ASCII letters.
func splitByScript(text string) []segment {
	var (
		segments []segment
		current  strings.Builder
		lang     = LangEnglish
	)
	flush := func() {
		if t := strings.TrimSpace(current.String()); t != "" {
			segments = append(segments, segment{lang: lang, text: t})
		}
		current.Reset()
	}

	for _, r := range text {
		runeLang := LangEnglish
		switch {
		case r >= utf8.RuneSelf:
			runeLang = LangArabic
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			// Spaces and punctuation stay with the surrounding run.
			runeLang = lang
		}
		if runeLang != lang && current.Len() > 0 {
			flush()
		}
		lang = runeLang
		current.WriteRune(r)
	}
	flush()
	return segments
}

func mixedLanguageSSML(segments []segment) string {
	var b strings.Builder
	b.WriteString("<speak>")
	for _, seg := range segments {
		tag := "en-US"
		if seg.lang == LangArabic {
			tag = "ar"
		}
		b.WriteString(`<lang xml:lang="` + tag + `">` + escapeXML(seg.text) + `</lang>`)
		b.WriteString(`<break time="0.3s"/>`)
	}
	b.WriteString("</speak>")
	return b.String()
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}

// Spoken is one run of reply text in a single language.
type Spoken struct {
	Text string
	Lang string
}

// SplitForSpeech cleans text and splits it into single-language runs, for
// voices that only speak one language each.
func SplitForSpeech(text string) []Spoken {
	cleaned := punctuationFixes.Replace(strings.TrimSpace(text))
	if !hasNonASCII(cleaned) {
		if cleaned == "" {
			return nil
		}
		return []Spoken{{Text: cleaned, Lang: LangEnglish}}
	}
	segments := splitByScript(cleaned)
	out := make([]Spoken, 0, len(segments))
	for _, seg := range segments {
		out = append(out, Spoken{Text: seg.text, Lang: seg.lang})
	}
	return out
}
