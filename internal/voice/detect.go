package voice

import "unicode"

// scriptLanguages maps Unicode scripts to language codes. Marathi shares
// Devanagari with Hindi and cannot be told apart by script alone, so
// Devanagari resolves to Hindi as the more widely used default.
var scriptLanguages = map[*unicode.RangeTable]string{
	unicode.Devanagari: "hi-IN",
	unicode.Bengali:    "bn-IN",
	unicode.Telugu:     "te-IN",
	unicode.Tamil:      "ta-IN",
	unicode.Gujarati:   "gu-IN",
	unicode.Kannada:    "kn-IN",
	unicode.Malayalam:  "ml-IN",
	unicode.Gurmukhi:   "pa-IN",
}

// DetectLanguage guesses the language of the text by counting letters per
// script. Latin text and anything unrecognized fall back to the given
// default code.
func DetectLanguage(text, fallback string) string {
	scores := make(map[string]int)
	latin := 0

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		if unicode.Is(unicode.Latin, r) {
			latin++
			continue
		}
		for table, code := range scriptLanguages {
			if unicode.Is(table, r) {
				scores[code]++
				break
			}
		}
	}

	best, bestScore := "", 0
	for code, n := range scores {
		if n > bestScore {
			best, bestScore = code, n
		}
	}

	if bestScore > 0 && bestScore >= latin {
		return best
	}
	if latin > 0 {
		return "en-IN"
	}
	return fallback
}
