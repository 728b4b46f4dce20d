package voice

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHTTPTranscriber(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/inference", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "hi-IN", r.FormValue("language"))

		file, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		audio, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake-wav-bytes", string(audio))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"मुझे बुखार है"}`))
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, testLogger())
	text, err := tr.Transcribe(context.Background(), strings.NewReader("fake-wav-bytes"), "hi-IN")
	require.NoError(t, err)
	assert.Equal(t, "मुझे बुखार है", text)
}

func TestHTTPTranscriberUnavailable(t *testing.T) {
	t.Parallel()

	tr := NewHTTPTranscriber("", testLogger())
	_, err := tr.Transcribe(context.Background(), strings.NewReader("x"), "hi-IN")
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestHTTPTranscriberRejectsUnknownLanguage(t *testing.T) {
	t.Parallel()

	tr := NewHTTPTranscriber("http://localhost:1", testLogger())
	_, err := tr.Transcribe(context.Background(), strings.NewReader("x"), "fr-FR")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestHTTPTranscriberServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tr := NewHTTPTranscriber(srv.URL, testLogger())
	_, err := tr.Transcribe(context.Background(), strings.NewReader("x"), "hi-IN")
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestHTTPSynthesizer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/synthesize", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"text":"hello","language":"en-IN","gender":"female"}`, string(body))

		w.Header().Set("Content-Type", "audio/wav")
		w.Write([]byte("RIFF....WAVE"))
	}))
	defer srv.Close()

	sy := NewHTTPSynthesizer(srv.URL, "female", testLogger())
	audio, err := sy.Synthesize(context.Background(), "hello", "en-IN")
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFF....WAVE"), audio)
}

func TestHTTPSynthesizerUnavailable(t *testing.T) {
	t.Parallel()

	sy := NewHTTPSynthesizer("", "female", testLogger())
	_, err := sy.Synthesize(context.Background(), "hello", "en-IN")
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}
