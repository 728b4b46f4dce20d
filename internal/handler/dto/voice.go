package dto

// TranscriptionResponse is the result of speech-to-text.
type TranscriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// SynthesizeRequest represents the request body for text-to-speech.
type SynthesizeRequest struct {
	Text     string `json:"text" validate:"required,max=2000"`
	Language string `json:"language,omitempty" validate:"omitempty,max=8"`
}

// DetectLanguageRequest represents the request body for language detection.
type DetectLanguageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// DetectLanguageResponse carries the detected language code and name.
type DetectLanguageResponse struct {
	Language string `json:"language"`
	Name     string `json:"name"`
}

// LanguageResponse describes a supported language.
type LanguageResponse struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
}

// SetLanguageRequest represents the request body for setting a voice language preference.
type SetLanguageRequest struct {
	Language string `json:"language" validate:"required,max=8"`
}

// ConversationRequest represents one voice conversation turn.
type ConversationRequest struct {
	PatientID string `json:"patient_id" validate:"required"`
	Utterance string `json:"utterance" validate:"required,max=2000"`
	Language  string `json:"language,omitempty" validate:"omitempty,max=8"`
}

// ConversationResponse is the assistant's reply for a conversation turn.
type ConversationResponse struct {
	Assessment *AssessmentResponse `json:"assessment"`
	Reply      string              `json:"reply"`
	ReplyAudio []byte              `json:"reply_audio,omitempty"`
	Language   string              `json:"language"`
}
