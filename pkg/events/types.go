package events

import (
	"encoding/json"
	"time"
)

// EventType identifies the kind of event flowing through the system.
type EventType string

const (
	TranslationCompleted EventType = "translation.completed"
	TranslationFailed    EventType = "translation.failed"
	UtteranceCompleted   EventType = "utterance.completed"
	UtteranceDropped     EventType = "utterance.dropped"
)

// Envelope is the standard event wrapper published to the event bus.
type Envelope struct {
	ID        string            `json:"id"`
	Type      EventType         `json:"type"`
	Source    string            `json:"source"`
	SessionID string            `json:"session_id"`
	Timestamp time.Time         `json:"timestamp"`
	Data      json.RawMessage   `json:"data"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// TranslationData is the payload for translation.completed events.
type TranslationData struct {
	SourceLanguage   string `json:"source_language"`
	TargetLanguage   string `json:"target_language"`
	DetectedLanguage string `json:"detected_language,omitempty"`
	Characters       int    `json:"characters"`
	AudioKey         string `json:"audio_key,omitempty"`
	AudioError       string `json:"audio_error,omitempty"`
}

// TranslationFailedData is the payload for translation.failed events.
type TranslationFailedData struct {
	SourceLanguage string `json:"source_language"`
	TargetLanguage string `json:"target_language"`
	Reason         string `json:"reason"`
	Error          string `json:"error"`
}

// UtteranceData is the payload for utterance.completed and
// utterance.dropped events.
type UtteranceData struct {
	Outcome        string   `json:"outcome"`
	States         []string `json:"states"`
	SourceLanguage string   `json:"source_language"`
	TargetLanguage string   `json:"target_language"`
	Transcript     string   `json:"transcript,omitempty"`
	Translation    string   `json:"translation,omitempty"`
	DurationMs     int64    `json:"duration_ms"`
	Error          string   `json:"error,omitempty"`
}
