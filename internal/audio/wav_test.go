package audio

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, data []int, sampleRate, bitDepth, channels int) {
	t.Helper()
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(file, sampleRate, bitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: channels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
}

func sineInts(freq float64, sampleRate, n int, amplitude float64) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(math.Round(amplitude * 32767 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))))
	}
	return out
}

func TestReadWAVMixesStereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWAV(t, path, []int{16384, 0, -16384, -16384, 32767, 32767}, 8000, 16, 2)

	sig, err := ReadWAV(path)
	if err != nil {
		t.Fatalf("ReadWAV failed: %v", err)
	}
	if sig.SampleRate != 8000 || len(sig.Samples) != 3 {
		t.Fatalf("unexpected signal: rate %d len %d", sig.SampleRate, len(sig.Samples))
	}
	want := []float64{0.25, -0.5, 32767.0 / 32768.0}
	for i, w := range want {
		if math.Abs(sig.Samples[i]-w) > 1e-9 {
			t.Fatalf("sample %d: expected %v, got %v", i, w, sig.Samples[i])
		}
	}
}

func TestLoadResamplesToTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	writeTestWAV(t, path, sineInts(440, 44100, 4410, 0.5), 44100, 16, 1)

	sig, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sig.SampleRate != TargetSampleRate {
		t.Fatalf("expected %d Hz, got %d", TargetSampleRate, sig.SampleRate)
	}
	if len(sig.Samples) != 2205 {
		t.Fatalf("expected 2205 samples, got %d", len(sig.Samples))
	}
}

func TestReadWAVRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.wav")
	if err := os.WriteFile(path, []byte("definitely not riff data"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := ReadWAV(path); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadWAVRejectsFloatSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "float.wav")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	enc := wav.NewEncoder(file, 8000, 32, 1, wavFormatFloat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, 800),
		SourceBitDepth: 32,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}

	_, err = ReadWAV(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
	if !strings.Contains(err.Error(), "IEEE float") {
		t.Fatalf("expected float format in error, got %v", err)
	}
}

func TestMixDownEightBitIsUnsigned(t *testing.T) {
	out, err := mixDown([]int{128, 0, 255}, 1, 8)
	if err != nil {
		t.Fatalf("mixDown failed: %v", err)
	}
	if out[0] != 0 || out[1] != -1 || math.Abs(out[2]-127.0/128.0) > 1e-12 {
		t.Fatalf("unexpected 8-bit normalisation: %v", out)
	}
	if _, err := mixDown([]int{1}, 1, 12); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat for 12-bit, got %v", err)
	}
}

func TestResamplePreservesTone(t *testing.T) {
	const inRate, outRate = 44100, 22050
	in := make([]float64, inRate/4)
	for i := range in {
		in[i] = math.Sin(2 * math.Pi * 500 * float64(i) / inRate)
	}
	out := Resample(Signal{Samples: in, SampleRate: inRate}, outRate)
	for k := 200; k < len(out.Samples)-200; k++ {
		want := math.Sin(2 * math.Pi * 500 * float64(k) / outRate)
		if math.Abs(out.Samples[k]-want) > 0.02 {
			t.Fatalf("sample %d: expected %v, got %v", k, want, out.Samples[k])
		}
	}
}
