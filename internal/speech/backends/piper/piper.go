package piper

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/voicetyped/voxlate/internal/speech/engine"
	"github.com/voicetyped/voxlate/internal/speech/registry"
)

const slowLengthScale = "1.5"

func init() {
	registry.TTS.Register("piper", func(config map[string]string) (engine.TTSEngine, error) {
		binaryPath := config["piper_binary_path"]
		if binaryPath == "" {
			binaryPath = "piper"
		}
		modelPath := config["piper_model_path"]
		if modelPath == "" {
			modelPath = "./models/en_US-amy-medium.onnx"
		}
		rate := 22050
		if v := config["piper_sample_rate"]; v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("piper_sample_rate: %w", err)
			}
			rate = n
		}
		p := NewPiperTTS(binaryPath, modelPath, rate)
		p.modelsDir = config["piper_models_dir"]
		return p, nil
	})
}

// PiperTTS implements TTSEngine using the Piper TTS binary.
type PiperTTS struct {
	binaryPath string
	modelPath  string
	modelsDir  string
	sampleRate int
}

// NewPiperTTS creates a new Piper TTS engine.
func NewPiperTTS(binaryPath, modelPath string, sampleRate int) *PiperTTS {
	return &PiperTTS{
		binaryPath: binaryPath,
		modelPath:  modelPath,
		sampleRate: sampleRate,
	}
}

// Synthesize generates raw mono PCM at the model's sample rate.
func (p *PiperTTS) Synthesize(ctx context.Context, text, language string, slow bool) (engine.Audio, error) {
	args := []string{"--model", p.modelFor(language), "--output-raw"}
	if slow {
		args = append(args, "--length_scale", slowLengthScale)
	}
	cmd := exec.CommandContext(ctx, p.binaryPath, args...)

	cmd.Stdin = bytes.NewBufferString(text)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return engine.Audio{}, fmt.Errorf("piper TTS: %w: %s", err, stderr.String())
	}

	return engine.Audio{Data: stdout.Bytes(), Format: engine.FormatPCM, SampleRate: p.sampleRate}, nil
}

// modelFor picks the first model in modelsDir whose file name starts with
// the language code, falling back to the configured model.
func (p *PiperTTS) modelFor(language string) string {
	if p.modelsDir == "" || language == "" {
		return p.modelPath
	}
	matches, err := filepath.Glob(filepath.Join(p.modelsDir, language+"_*.onnx"))
	if err != nil || len(matches) == 0 {
		return p.modelPath
	}
	return matches[0]
}

// Voices returns available TTS voices.
func (p *PiperTTS) Voices() []engine.Voice {
	return []engine.Voice{
		{
			ID:       "default",
			Name:     "Default",
			Language: "en",
		},
	}
}

// Models returns available Piper models.
func (p *PiperTTS) Models() []engine.ModelInfo {
	return []engine.ModelInfo{
		{ID: filepath.Base(p.modelPath), DisplayName: filepath.Base(p.modelPath), IsDefault: true},
	}
}

// Close releases TTS resources.
func (p *PiperTTS) Close() error {
	return nil
}
