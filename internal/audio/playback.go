package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/voicetyped/voxlate/internal/speech/engine"
)

// Default player commands. {rate} and {channels} are substituted for raw PCM.
const (
	DefaultPCMPlayerCommand     = "aplay -q -t raw -f S16_LE -c {channels} -r {rate}"
	DefaultEncodedPlayerCommand = "ffplay -nodisp -autoexit -loglevel quiet -i -"
)

// Player plays clips synchronously by piping them into an external process.
// WAV clips are unwrapped and played as raw PCM; other encoded formats go to
// EncodedCommand.
type Player struct {
	PCMCommand     string
	EncodedCommand string
}

// NewPlayer returns a player with the default commands filled in for empty
// arguments.
func NewPlayer(pcmCommand, encodedCommand string) *Player {
	if pcmCommand == "" {
		pcmCommand = DefaultPCMPlayerCommand
	}
	if encodedCommand == "" {
		encodedCommand = DefaultEncodedPlayerCommand
	}
	return &Player{PCMCommand: pcmCommand, EncodedCommand: encodedCommand}
}

// Play blocks until the clip has finished playing or ctx is cancelled.
func (p *Player) Play(ctx context.Context, clip engine.Audio) error {
	if clip.Empty() {
		return errors.New("play: empty clip")
	}

	data, rate, channels := clip.Data, clip.SampleRate, 1
	template := p.PCMCommand
	switch clip.Format {
	case engine.FormatPCM:
	case engine.FormatWAV:
		pcm, info, err := DecodeWAV(clip.Data)
		if err != nil {
			return fmt.Errorf("play: %w", err)
		}
		data, rate, channels = pcm, info.SampleRate, info.Channels
	default:
		template = p.EncodedCommand
	}
	if rate <= 0 {
		rate = CaptureSampleRate
	}

	args := expandCommand(template, rate, channels)
	if len(args) == 0 {
		return fmt.Errorf("play: no player configured for %s", clip.Format)
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdin = bytes.NewReader(data)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("play %s: %w: %s", clip.Format, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func expandCommand(template string, rate, channels int) []string {
	r := strings.NewReplacer("{rate}", strconv.Itoa(rate), "{channels}", strconv.Itoa(channels))
	return strings.Fields(r.Replace(template))
}
