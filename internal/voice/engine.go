package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"time"
)

var (
	// ErrEngineUnavailable indicates no speech engine is configured.
	ErrEngineUnavailable = errors.New("speech engine unavailable")
	// ErrUnsupportedLanguage indicates a language code outside the
	// supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

const (
	engineTimeout     = 45 * time.Second
	engineDialTimeout = 5 * time.Second
	// maxTranscriptBytes caps the transcription response size.
	maxTranscriptBytes = 256 * 1024
	// maxAudioBytes caps synthesized audio read into memory.
	maxAudioBytes = 8 << 20
)

// Transcriber converts recorded speech to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, language string) (string, error)
}

// Synthesizer converts text to spoken audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

func newEngineClient() *http.Client {
	return &http.Client{
		Timeout: engineTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   engineDialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// HTTPTranscriber sends audio to a whisper.cpp-style /inference endpoint.
type HTTPTranscriber struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPTranscriber creates a transcriber for the given server. An empty
// baseURL yields a transcriber whose calls return ErrEngineUnavailable.
func NewHTTPTranscriber(baseURL string, logger *slog.Logger) *HTTPTranscriber {
	return &HTTPTranscriber{
		baseURL:    baseURL,
		httpClient: newEngineClient(),
		logger:     logger.With("component", "voice.transcriber"),
	}
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the audio as multipart form data and returns the
// recognized text.
func (t *HTTPTranscriber) Transcribe(ctx context.Context, audio io.Reader, language string) (string, error) {
	if t.baseURL == "" {
		return "", ErrEngineUnavailable
	}
	if !IsSupported(language) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("copy audio: %w", err)
	}
	if err := mw.WriteField("language", language); err != nil {
		return "", fmt.Errorf("write language field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := t.httpClient.Do(req)
	if err != nil {
		t.logger.Warn("transcription request failed", "error", err)
		return "", ErrEngineUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		t.logger.Warn("transcription server error", "http_status", resp.StatusCode)
		return "", ErrEngineUnavailable
	}

	var parsed transcriptionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxTranscriptBytes)).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode transcription response: %w", err)
	}
	return parsed.Text, nil
}

// HTTPSynthesizer sends text to a TTS server and returns WAV audio.
type HTTPSynthesizer struct {
	baseURL    string
	gender     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPSynthesizer creates a synthesizer for the given server. An empty
// baseURL yields a synthesizer whose calls return ErrEngineUnavailable.
func NewHTTPSynthesizer(baseURL, gender string, logger *slog.Logger) *HTTPSynthesizer {
	return &HTTPSynthesizer{
		baseURL:    baseURL,
		gender:     gender,
		httpClient: newEngineClient(),
		logger:     logger.With("component", "voice.synthesizer"),
	}
}

type synthesisRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Gender   string `json:"gender,omitempty"`
}

// Synthesize returns spoken audio for the text.
func (s *HTTPSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, ErrEngineUnavailable
	}
	if !IsSupported(language) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, language)
	}

	body, err := json.Marshal(synthesisRequest{Text: text, Language: language, Gender: s.gender})
	if err != nil {
		return nil, fmt.Errorf("marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/synthesize", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("synthesis request failed", "error", err)
		return nil, ErrEngineUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		s.logger.Warn("synthesis server error", "http_status", resp.StatusCode)
		return nil, ErrEngineUnavailable
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read synthesized audio: %w", err)
	}
	return audio, nil
}
