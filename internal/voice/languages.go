// Package voice provides speech-to-text and text-to-speech for the
// supported Indian languages, plus lightweight language detection for
// routing voice interactions.
package voice

// Language is a supported voice language.
type Language struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// languages lists every supported language in display order.
var languages = []Language{
	{Code: "hi-IN", Name: "Hindi", NativeName: "हिन्दी"},
	{Code: "bn-IN", Name: "Bengali", NativeName: "বাংলা"},
	{Code: "te-IN", Name: "Telugu", NativeName: "తెలుగు"},
	{Code: "ta-IN", Name: "Tamil", NativeName: "தமிழ்"},
	{Code: "mr-IN", Name: "Marathi", NativeName: "मराठी"},
	{Code: "gu-IN", Name: "Gujarati", NativeName: "ગુજરાતી"},
	{Code: "kn-IN", Name: "Kannada", NativeName: "ಕನ್ನಡ"},
	{Code: "ml-IN", Name: "Malayalam", NativeName: "മലയാളം"},
	{Code: "pa-IN", Name: "Punjabi", NativeName: "ਪੰਜਾਬੀ"},
	{Code: "en-IN", Name: "English", NativeName: "English"},
}

// Languages returns the supported languages.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// IsSupported reports whether the code is a supported language.
func IsSupported(code string) bool {
	for _, l := range languages {
		if l.Code == code {
			return true
		}
	}
	return false
}

// LanguageName returns the English name for a language code, or the code
// itself when unknown.
func LanguageName(code string) string {
	for _, l := range languages {
		if l.Code == code {
			return l.Name
		}
	}
	return code
}
