package gemini

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
)

// Audio format of the Gemini TTS PCM payload.
const (
	wavChannels    = 1
	wavSampleRate  = 24000
	wavSampleWidth = 2 // bytes per sample, 16-bit PCM
)

// SampleRate returns the WAV sample rate for a playback speed factor.
// Speed is clamped to 0.5–2.0; anything non-positive means normal speed.
func SampleRate(speed float64) int {
	if speed <= 0 {
		speed = 1.0
	}
	if speed < 0.5 {
		speed = 0.5
	}
	if speed > 2.0 {
		speed = 2.0
	}
	return int(wavSampleRate * speed)
}

// WriteWAV writes raw little-endian 16-bit mono PCM to path as a WAV file,
// creating parent directories as needed.
func WriteWAV(path string, pcm []byte, sampleRate int) error {
	if sampleRate <= 0 {
		sampleRate = wavSampleRate
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	header := encodeWAVHeader(len(pcm), sampleRate)

	buf := make([]byte, 0, len(header)+len(pcm))
	buf = append(buf, header...)
	buf = append(buf, pcm...)

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("write wav file: %w", err)
	}
	return nil
}

// encodeWAVHeader builds the 44-byte RIFF/WAVE header for a PCM chunk.
func encodeWAVHeader(dataLen, sampleRate int) []byte {
	byteRate := sampleRate * wavChannels * wavSampleWidth
	blockAlign := wavChannels * wavSampleWidth

	var b bytes.Buffer
	b.WriteString("RIFF")
	binary.Write(&b, binary.LittleEndian, uint32(36+dataLen)) //nolint:errcheck
	b.WriteString("WAVE")

	b.WriteString("fmt ")
	binary.Write(&b, binary.LittleEndian, uint32(16))                //nolint:errcheck
	binary.Write(&b, binary.LittleEndian, uint16(1))                 //nolint:errcheck // PCM
	binary.Write(&b, binary.LittleEndian, uint16(wavChannels))       //nolint:errcheck
	binary.Write(&b, binary.LittleEndian, uint32(sampleRate))        //nolint:errcheck
	binary.Write(&b, binary.LittleEndian, uint32(byteRate))          //nolint:errcheck
	binary.Write(&b, binary.LittleEndian, uint16(blockAlign))        //nolint:errcheck
	binary.Write(&b, binary.LittleEndian, uint16(wavSampleWidth*8))  //nolint:errcheck

	b.WriteString("data")
	binary.Write(&b, binary.LittleEndian, uint32(dataLen)) //nolint:errcheck

	return b.Bytes()
}
