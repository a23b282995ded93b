package audio

import (
	"encoding/binary"
	"math"
)

// VADConfig holds voice activity detection parameters.
type VADConfig struct {
	EnergyThreshold float64 // RMS energy threshold for speech
	SpeechMinDurMs  int     // Minimum duration to confirm speech start
	SilenceMinDurMs int     // Minimum duration to confirm speech end
	SampleRate      int     // Audio sample rate in Hz
	FrameSizeMs     int     // Frame size in milliseconds
}

// DefaultVADConfig returns sensible defaults for 16kHz audio.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		EnergyThreshold: 500,
		SpeechMinDurMs:  200,
		SilenceMinDurMs: 700,
		SampleRate:      CaptureSampleRate,
		FrameSizeMs:     30,
	}
}

// FrameBytes is the size of one 16-bit mono frame.
func (c VADConfig) FrameBytes() int {
	return c.SampleRate * c.FrameSizeMs / 1000 * 2
}

// VAD performs energy-based voice activity detection on PCM audio.
type VAD struct {
	config        VADConfig
	isSpeaking    bool
	speechFrames  int
	silenceFrames int
}

// NewVAD creates a new voice activity detector.
func NewVAD(cfg VADConfig) *VAD {
	return &VAD{config: cfg}
}

// VADEvent indicates a speech boundary.
type VADEvent int

const (
	VADNone VADEvent = iota
	VADSpeechStart
	VADSpeechEnd
)

// ProcessFrame analyzes a frame of 16-bit PCM audio and returns a VAD event.
func (v *VAD) ProcessFrame(pcm []byte) VADEvent {
	if rmsEnergy(pcm) >= v.config.EnergyThreshold {
		v.silenceFrames = 0
		v.speechFrames++
		if !v.isSpeaking && v.speechFrames*v.config.FrameSizeMs >= v.config.SpeechMinDurMs {
			v.isSpeaking = true
			return VADSpeechStart
		}
		return VADNone
	}

	v.speechFrames = 0
	v.silenceFrames++
	if v.isSpeaking && v.silenceFrames*v.config.FrameSizeMs >= v.config.SilenceMinDurMs {
		v.isSpeaking = false
		return VADSpeechEnd
	}
	return VADNone
}

// IsSpeaking returns whether speech is currently detected.
func (v *VAD) IsSpeaking() bool {
	return v.isSpeaking
}

// Reset clears the VAD state.
func (v *VAD) Reset() {
	v.isSpeaking = false
	v.speechFrames = 0
	v.silenceFrames = 0
}

// rmsEnergy computes the root-mean-square energy of 16-bit signed PCM audio.
func rmsEnergy(pcm []byte) float64 {
	numSamples := len(pcm) / 2
	if numSamples == 0 {
		return 0
	}

	var sumSquares float64
	for i := range numSamples {
		sample := int16(binary.LittleEndian.Uint16(pcm[i*2:]))
		sumSquares += float64(sample) * float64(sample)
	}

	return math.Sqrt(sumSquares / float64(numSamples))
}
