// Package audio decodes recordings and derives acoustic voice descriptors.
package audio

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// TargetSampleRate is the rate every recording is resampled to before analysis.
const TargetSampleRate = 22050

// ErrUnsupportedFormat is returned for WAV files that are not integer PCM.
var ErrUnsupportedFormat = errors.New("unsupported wav format")

const (
	wavFormatPCM   = 1
	wavFormatFloat = 3
)

// Signal is a mono waveform with samples in [-1, 1].
type Signal struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the length in seconds.
func (s Signal) Duration() float64 {
	if s.SampleRate == 0 {
		return 0
	}
	return float64(len(s.Samples)) / float64(s.SampleRate)
}

// ReadWAV decodes a PCM WAV file and mixes it down to mono.
func ReadWAV(path string) (Signal, error) {
	file, err := os.Open(path)
	if err != nil {
		return Signal{}, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only audio.
			_ = cerr
		}
	}()

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		return Signal{}, fmt.Errorf("%s: %w: not a wav file", path, ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat == wavFormatFloat {
		return Signal{}, fmt.Errorf("%s: %w: IEEE float samples, convert to integer PCM", path, ErrUnsupportedFormat)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return Signal{}, fmt.Errorf("%s: %w: audio format %d", path, ErrUnsupportedFormat, dec.WavAudioFormat)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return Signal{}, fmt.Errorf("decode %s: %w", path, err)
	}
	channels := int(dec.NumChans)
	if buf.Format != nil && buf.Format.NumChannels > 0 {
		channels = buf.Format.NumChannels
	}
	if channels < 1 {
		return Signal{}, fmt.Errorf("%s: %w: no channels", path, ErrUnsupportedFormat)
	}
	bitDepth := int(dec.BitDepth)
	if buf.SourceBitDepth > 0 {
		bitDepth = buf.SourceBitDepth
	}
	samples, err := mixDown(buf.Data, channels, bitDepth)
	if err != nil {
		return Signal{}, fmt.Errorf("%s: %w", path, err)
	}
	return Signal{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// mixDown normalises interleaved integer PCM and averages the channels.
func mixDown(data []int, channels, bitDepth int) ([]float64, error) {
	var offset, scale float64
	switch bitDepth {
	case 8:
		offset, scale = 128, 128
	case 16, 24, 32:
		scale = float64(int64(1) << (bitDepth - 1))
	default:
		return nil, fmt.Errorf("%w: %d-bit samples", ErrUnsupportedFormat, bitDepth)
	}
	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += (float64(data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out, nil
}

// Load reads a WAV file and resamples it to TargetSampleRate.
func Load(path string) (Signal, error) {
	sig, err := ReadWAV(path)
	if err != nil {
		return Signal{}, err
	}
	return Resample(sig, TargetSampleRate), nil
}
