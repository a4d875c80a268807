package audio

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/tosone/minimp3"
	wav "github.com/youpy/go-wav"
)

// DecodeSamples turns an encoded audio payload into mono float32 samples and
// reports the source sample rate. The MIME type is used as a hint; when it is
// absent or unknown the payload header is sniffed.
func DecodeSamples(data []byte, mimeType string) ([]float32, int, error) {
	if len(data) == 0 {
		return nil, 0, fmt.Errorf("empty audio payload")
	}

	switch detectFormat(data, mimeType) {
	case "wav":
		return decodeWAV(data)
	case "mp3":
		return decodeMP3(data)
	default:
		samples, rate, err := decodeWAV(data)
		if err != nil {
			return decodeMP3(data)
		}
		return samples, rate, nil
	}
}

func detectFormat(data []byte, mimeType string) string {
	mime := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mime, "mpeg") || strings.Contains(mime, "mp3"):
		return "mp3"
	case strings.Contains(mime, "wav"):
		return "wav"
	}

	if len(data) >= 4 && bytes.Equal(data[:4], []byte("RIFF")) {
		return "wav"
	}
	if len(data) >= 3 && bytes.Equal(data[:3], []byte("ID3")) {
		return "mp3"
	}
	if len(data) >= 2 && data[0] == 0xFF && (data[1]&0xE0) == 0xE0 {
		return "mp3"
	}
	return "unknown"
}

func decodeMP3(data []byte) ([]float32, int, error) {
	decoder, pcm, err := minimp3.DecodeFull(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode mp3: %w", err)
	}
	defer decoder.Close()

	channels := decoder.Channels
	if channels <= 0 {
		channels = 1
	}

	frames := len(pcm) / 2 / channels
	samples := make([]float32, 0, frames)
	for i := 0; i < frames; i++ {
		var mixed float32
		for ch := 0; ch < channels; ch++ {
			offset := (i*channels + ch) * 2
			raw := int16(pcm[offset]) | int16(pcm[offset+1])<<8
			mixed += float32(raw) / 32768.0
		}
		samples = append(samples, clamp(mixed/float32(channels)))
	}

	return samples, decoder.SampleRate, nil
}

func decodeWAV(data []byte) ([]float32, int, error) {
	reader := wav.NewReader(bytes.NewReader(data))
	format, err := reader.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read wav format: %w", err)
	}

	scale := sampleScale(int(format.BitsPerSample))
	channels := int(format.NumChannels)
	if channels <= 0 {
		channels = 1
	}

	var samples []float32
	for {
		chunk, err := reader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read wav samples: %w", err)
		}

		for _, sample := range chunk {
			var mixed float32
			for ch := 0; ch < channels; ch++ {
				mixed += float32(reader.IntValue(sample, uint(ch))) / scale
			}
			samples = append(samples, clamp(mixed/float32(channels)))
		}
	}

	return samples, int(format.SampleRate), nil
}

func sampleScale(bitsPerSample int) float32 {
	switch bitsPerSample {
	case 8:
		return 128.0
	case 24:
		return 8388608.0
	case 32:
		return 2147483648.0
	default: // 16-bit and unknown depths
		return 32768.0
	}
}

func clamp(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}
