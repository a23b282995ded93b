package audio

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrListenTimeout means no speech started within the listen timeout.
var ErrListenTimeout = errors.New("listen timed out waiting for speech")

// DefaultRecorderCommand records 16 kHz S16LE mono PCM to stdout.
const DefaultRecorderCommand = "arecord -q -t raw -f S16_LE -c 1 -r 16000"

// extra frames kept ahead of the VAD's speech confirmation so word onsets
// are not clipped.
const preRollPadFrames = 5

// Listener cuts a continuous PCM stream into single utterances using the
// energy VAD. Durations are measured in audio time, with wall-clock
// backstops so a stalled source cannot block Listen past its limits.
type Listener struct {
	mu  sync.Mutex
	src io.Reader
	cfg VADConfig

	start   sync.Once
	stop    chan struct{}
	stopped sync.Once
	reads   chan frameRead
	readErr error
}

type frameRead struct {
	data []byte
	err  error
}

// NewListener creates a listener reading 16-bit mono PCM from src.
func NewListener(src io.Reader, cfg VADConfig) *Listener {
	return &Listener{
		src:   src,
		cfg:   cfg,
		stop:  make(chan struct{}),
		reads: make(chan frameRead),
	}
}

// readLoop moves frames from src onto l.reads until src fails or Stop is
// called. The terminal error is kept in l.readErr before l.reads closes.
func (l *Listener) readLoop() {
	defer close(l.reads)
	for {
		buf := make([]byte, l.cfg.FrameBytes())
		if _, err := io.ReadFull(l.src, buf); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				err = io.EOF
			}
			l.readErr = err
			return
		}
		select {
		case l.reads <- frameRead{data: buf}:
		case <-l.stop:
			l.readErr = io.EOF
			return
		}
	}
}

// Stop releases the background reader once it returns from its current
// read. Closing src is what unblocks a read in progress.
func (l *Listener) Stop() {
	l.stopped.Do(func() { close(l.stop) })
}

// Listen blocks until one phrase has been captured. It returns
// ErrListenTimeout when no speech starts within timeout, and cuts the phrase
// at phraseLimit. Zero durations disable the respective limit.
func (l *Listener) Listen(ctx context.Context, timeout, phraseLimit time.Duration) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start.Do(func() { go l.readLoop() })

	vad := NewVAD(l.cfg)
	frameDur := time.Duration(l.cfg.FrameSizeMs) * time.Millisecond
	preRoll := l.cfg.SpeechMinDurMs/l.cfg.FrameSizeMs + preRollPadFrames

	var waitDeadline, phraseDeadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		waitDeadline = timer.C
	}

	var (
		waited, spoken time.Duration
		pending        [][]byte
		utterance      []byte
		speaking       bool
	)

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var (
			fr frameRead
			ok bool
		)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-waitDeadline:
			return nil, ErrListenTimeout
		case <-phraseDeadline:
			return utterance, nil
		case fr, ok = <-l.reads:
		}

		if !ok {
			if speaking && len(utterance) > 0 {
				return utterance, nil
			}
			return nil, fmt.Errorf("read capture: %w", l.readErr)
		}
		event := vad.ProcessFrame(fr.data)

		if !speaking {
			pending = append(pending, fr.data)
			if len(pending) > preRoll {
				pending = pending[1:]
			}
			if event == VADSpeechStart {
				speaking = true
				waitDeadline = nil
				if phraseLimit > 0 {
					timer := time.NewTimer(phraseLimit)
					defer timer.Stop()
					phraseDeadline = timer.C
				}
				for _, f := range pending {
					utterance = append(utterance, f...)
				}
				spoken = time.Duration(len(pending)) * frameDur
				pending = nil
				continue
			}
			waited += frameDur
			if timeout > 0 && waited >= timeout {
				return nil, ErrListenTimeout
			}
			continue
		}

		utterance = append(utterance, fr.data...)
		spoken += frameDur
		if event == VADSpeechEnd || (phraseLimit > 0 && spoken >= phraseLimit) {
			return utterance, nil
		}
	}
}

// Recorder runs an external capture process and listens on its stdout.
type Recorder struct {
	*Listener
	cmd *exec.Cmd
}

// StartRecorder launches command (split on whitespace). The process is
// killed when ctx is cancelled or Close is called.
func StartRecorder(ctx context.Context, command string, cfg VADConfig) (*Recorder, error) {
	args := strings.Fields(command)
	if len(args) == 0 {
		return nil, fmt.Errorf("recorder command is empty")
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recorder stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recorder %q: %w", args[0], err)
	}

	return &Recorder{
		Listener: NewListener(bufio.NewReaderSize(stdout, cfg.FrameBytes()*8), cfg),
		cmd:      cmd,
	}, nil
}

// Close stops the capture process.
func (r *Recorder) Close() error {
	r.Listener.Stop()
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	err := r.cmd.Wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}
