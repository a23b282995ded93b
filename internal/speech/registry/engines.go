package registry

import "github.com/voicetyped/voxlate/internal/speech/engine"

// Global registries. Backends add themselves from init().
var (
	ASR = New[engine.ASREngine]()
	TTS = New[engine.TTSEngine]()
	MT  = New[engine.MTEngine]()
)
