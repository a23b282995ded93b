package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CaptureSampleRate is the rate of captured PCM and of recognizer input.
const CaptureSampleRate = 16000

// WAVInfo describes the PCM stream inside a WAV container.
type WAVInfo struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

var errNotWAV = errors.New("not a RIFF/WAVE stream")

// EncodeWAV wraps 16-bit mono little-endian PCM in a canonical 44-byte header.
func EncodeWAV(pcm []byte, sampleRate int) []byte {
	if sampleRate <= 0 {
		sampleRate = CaptureSampleRate
	}
	out := make([]byte, 44+len(pcm))
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+len(pcm)))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)                   // fmt chunk size
	binary.LittleEndian.PutUint16(out[20:], 1)                    // PCM
	binary.LittleEndian.PutUint16(out[22:], 1)                    // mono
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))   // sample rate
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*2)) // byte rate
	binary.LittleEndian.PutUint16(out[32:], 2)                    // block align
	binary.LittleEndian.PutUint16(out[34:], 16)                   // bits per sample
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(len(pcm)))
	copy(out[44:], pcm)
	return out
}

// DecodeWAV returns the PCM payload of a WAV container. Chunks other than
// fmt and data are skipped.
func DecodeWAV(data []byte) ([]byte, WAVInfo, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, WAVInfo{}, errNotWAV
	}

	var info WAVInfo
	off := 12
	for off+8 <= len(data) {
		id := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4 : off+8]))
		body := off + 8
		end := body + size
		if end > len(data) || size < 0 {
			// Streamed WAVs may carry a bogus data size; take what is there.
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return nil, WAVInfo{}, fmt.Errorf("wav: short fmt chunk")
			}
			if format := binary.LittleEndian.Uint16(data[body:]); format != 1 {
				return nil, WAVInfo{}, fmt.Errorf("wav: unsupported format %d", format)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2:]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4:]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14:]))
		case "data":
			if info.SampleRate == 0 {
				return nil, WAVInfo{}, fmt.Errorf("wav: data before fmt chunk")
			}
			return data[body:end], info, nil
		}

		// Chunks are word aligned.
		off = end + size%2
	}
	return nil, WAVInfo{}, fmt.Errorf("wav: no data chunk")
}
