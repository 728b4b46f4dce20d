package voice

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "hindi", text: "नमस्ते, आप कैसे हैं", want: "hi-IN"},
		{name: "bengali", text: "নমস্কার, আপনি কেমন আছেন", want: "bn-IN"},
		{name: "telugu", text: "నమస్కారం, మీరు ఎలా ఉన్నారు", want: "te-IN"},
		{name: "tamil", text: "வணக்கம், எப்படி இருக்கிறீர்கள்", want: "ta-IN"},
		{name: "gujarati", text: "નમસ્તે, તમે કેમ છો", want: "gu-IN"},
		{name: "kannada", text: "ನಮಸ್ಕಾರ, ಹೇಗಿದ್ದೀರ", want: "kn-IN"},
		{name: "malayalam", text: "നമസ്കാരം, സുഖമാണോ", want: "ml-IN"},
		{name: "punjabi", text: "ਸਤ ਸ੍ਰੀ ਅਕਾਲ ਜੀ", want: "pa-IN"},
		{name: "english", text: "hello, how are you feeling today", want: "en-IN"},
		{name: "mixed favors majority script", text: "ok नमस्ते आप कैसे हैं मैं ठीक हूं", want: "hi-IN"},
		{name: "empty falls back", text: "", want: "hi-IN"},
		{name: "digits only fall back", text: "108 102", want: "hi-IN"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, DetectLanguage(tt.text, "hi-IN"))
		})
	}
}

func TestLanguages(t *testing.T) {
	t.Parallel()

	langs := Languages()
	assert.Len(t, langs, 10)
	assert.Equal(t, "hi-IN", langs[0].Code)

	// Mutating the returned slice must not affect later calls.
	langs[0].Code = "xx-XX"
	assert.Equal(t, "hi-IN", Languages()[0].Code)
}

func TestIsSupported(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSupported("ta-IN"))
	assert.True(t, IsSupported("en-IN"))
	assert.False(t, IsSupported("fr-FR"))
	assert.False(t, IsSupported(""))
}

func TestLanguageName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Bengali", LanguageName("bn-IN"))
	assert.Equal(t, "xx-XX", LanguageName("xx-XX"))
}
