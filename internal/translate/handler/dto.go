package handler

import "github.com/voicetyped/voxlate/internal/language"

// Response statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// Failure reasons reported alongside StatusError.
const (
	ReasonRetriesExhausted = "retries_exhausted"
	ReasonNonRetryable     = "non_retryable"
	ReasonCancelled        = "cancelled"
)

const (
	msgSuccess    = "Translation successful!"
	msgEmptyInput = "Please enter some text to translate."
	msgFailed     = "Translation failed. Please try again or check server logs."

	failedPlaceholder = "Translation failed."
)

// TranslateRequest is the request body for a translation.
type TranslateRequest struct {
	Text        string `json:"text"`
	SrcLang     string `json:"src_lang"`
	DestLang    string `json:"dest_lang"`
	SpeakOutput bool   `json:"speak_output"`
	SlowSpeech  bool   `json:"slow_speech"`
}

// TranslateResponse is the result of one translation request.
type TranslateResponse struct {
	OriginalText        string  `json:"original_text"`
	TranslatedText      string  `json:"translated_text"`
	AudioURL            *string `json:"audio_url"`
	SrcLangName         string  `json:"src_lang_name"`
	DestLangName        string  `json:"dest_lang_name"`
	DetectedSrcLangCode *string `json:"detected_src_lang_code"`
	Status              string  `json:"status"`
	Message             string  `json:"message"`
	Reason              string  `json:"reason,omitempty"`
}

// ListLanguagesRequest is empty; the catalog is static.
type ListLanguagesRequest struct{}

// ListLanguagesResponse lists the catalog sorted by display name.
type ListLanguagesResponse struct {
	Languages []language.Language `json:"languages"`
}

// ListVoicesRequest optionally filters voices by language.
type ListVoicesRequest struct {
	Language string `json:"language,omitempty"`
}

// VoiceInfo describes one synthesis voice.
type VoiceInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Language string `json:"language"`
}

// ModelInfo describes one synthesis model.
type ModelInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Default     bool   `json:"default"`
}

// ListVoicesResponse lists what the speech backend can synthesize with.
// Both lists are empty when speech output is not configured.
type ListVoicesResponse struct {
	Voices []VoiceInfo `json:"voices"`
	Models []ModelInfo `json:"models"`
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status  string           `json:"status"`
	Breaker string           `json:"breaker,omitempty"`
	Events  map[string]int64 `json:"events,omitempty"`
	Dropped int64            `json:"dropped_events"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
