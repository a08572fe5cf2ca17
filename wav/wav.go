package wav

// WAV Container Handling
//
// Minimal RIFF/WAVE reader and writer for 16-bit PCM audio. The detection
// pipeline consumes mono or multi-channel PCM; anything that is not already
// a 16-bit PCM WAV is first converted through ffmpeg (see ffmpeg.go).

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// WavInfo describes a decoded WAV container.
type WavInfo struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	Data          []byte  // raw PCM payload
	Duration      float64 // seconds
}

// ReadWavInfo parses a WAV file from disk.
func ReadWavInfo(filename string) (*WavInfo, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav file: %w", err)
	}
	return DecodeWavBytes(data)
}

// DecodeWavBytes parses an in-memory WAV container.
func DecodeWavBytes(data []byte) (*WavInfo, error) {
	if len(data) < 12 {
		return nil, errors.New("invalid wav: file too small")
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, errors.New("invalid wav: missing RIFF/WAVE header")
	}

	info := &WavInfo{}
	var haveFmt, haveData bool

	// Walk the chunk list; ignore everything except "fmt " and "data".
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, errors.New("invalid wav: fmt chunk too small")
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			if audioFormat != 1 {
				return nil, fmt.Errorf("unsupported wav encoding: format %d (expected PCM)", audioFormat)
			}
			info.Channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			info.BitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			haveFmt = true
		case "data":
			info.Data = data[body : body+chunkSize]
			haveData = true
		}

		// Chunks are word aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt || !haveData {
		return nil, errors.New("invalid wav: missing fmt or data chunk")
	}
	if info.Channels <= 0 || info.SampleRate <= 0 {
		return nil, errors.New("invalid wav: bad fmt parameters")
	}
	if info.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported wav encoding: %d bits per sample (expected 16)", info.BitsPerSample)
	}

	bytesPerSecond := info.SampleRate * info.Channels * info.BitsPerSample / 8
	if bytesPerSecond > 0 {
		info.Duration = float64(len(info.Data)) / float64(bytesPerSecond)
	}

	return info, nil
}

// WavBytesToSamples converts 16-bit little-endian PCM bytes into float64
// samples in [-1, 1]. Multi-channel input stays interleaved.
func WavBytesToSamples(data []byte) ([]float64, error) {
	if len(data) == 0 {
		return nil, errors.New("no pcm data")
	}
	if len(data)%2 != 0 {
		return nil, errors.New("pcm data length is not sample aligned")
	}

	samples := make([]float64, len(data)/2)
	for i := range samples {
		raw := int16(binary.LittleEndian.Uint16(data[i*2 : i*2+2]))
		samples[i] = float64(raw) / 32768.0
	}
	return samples, nil
}

// SamplesToWavBytes converts float64 samples in [-1, 1] into 16-bit PCM bytes.
func SamplesToWavBytes(samples []float64) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		if s > 1.0 {
			s = 1.0
		} else if s < -1.0 {
			s = -1.0
		}
		binary.LittleEndian.PutUint16(data[i*2:i*2+2], uint16(int16(s*32767.0)))
	}
	return data
}

// EncodeWavBytes builds a complete WAV container around raw PCM data.
func EncodeWavBytes(pcm []byte, sampleRate, channels, bitsPerSample int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 || bitsPerSample <= 0 {
		return nil, errors.New("invalid wav parameters")
	}

	var buf bytes.Buffer
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(len(pcm)))
	buf.Write(pcm)

	return buf.Bytes(), nil
}

// WriteWavFile writes raw PCM data to disk as a WAV file.
func WriteWavFile(filename string, pcm []byte, sampleRate, channels, bitsPerSample int) error {
	encoded, err := EncodeWavBytes(pcm, sampleRate, channels, bitsPerSample)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, encoded, 0644); err != nil {
		return fmt.Errorf("failed to write wav file: %w", err)
	}
	return nil
}
