package engine

import "context"

// AutoDetect asks a translation backend to detect the source language.
const AutoDetect = "auto"

// MTResult is a machine translation result. DetectedSource is empty unless
// the backend reported the language it detected.
type MTResult struct {
	Text           string
	DetectedSource string
}

// MTEngine translates text between languages.
type MTEngine interface {
	Translate(ctx context.Context, text, source, target string) (MTResult, error)
	Close() error
}
