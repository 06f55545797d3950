package audio

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/parkinsight/internal/model"
)

var (
	// ErrNoVoicedFrames is returned when pitch tracking finds no voiced frame,
	// which includes silent recordings.
	ErrNoVoicedFrames = errors.New("no voiced frames")
	// ErrTooFewVoicedFrames is returned when fifth-order differences are undefined.
	ErrTooFewVoicedFrames = errors.New("too few voiced frames")
	// ErrDegenerateEnergy is returned when a ratio of energies or amplitudes is undefined.
	ErrDegenerateEnergy = errors.New("degenerate signal energy")
)

// minVoicedFrames is the shortest voiced track with a fifth-order difference.
const minVoicedFrames = 6

// ExtractFile loads a WAV recording and extracts its voice features.
func ExtractFile(path string) (model.VoiceFeatures, error) {
	sig, err := Load(path)
	if err != nil {
		return model.VoiceFeatures{}, err
	}
	return Extract(sig)
}

// Extract derives the twenty acoustic descriptors of a recording.
func Extract(sig Signal) (model.VoiceFeatures, error) {
	if sig.SampleRate <= 0 || len(sig.Samples) == 0 {
		return model.VoiceFeatures{}, fmt.Errorf("extract: empty signal")
	}
	cfg := DefaultPitchConfig()
	cfg.SampleRate = sig.SampleRate
	pitch, err := TrackPitch(sig.Samples, cfg)
	if err != nil {
		return model.VoiceFeatures{}, fmt.Errorf("extract: %w", err)
	}
	return featuresFromPitch(sig, pitch)
}

func featuresFromPitch(sig Signal, pitch Pitch) (model.VoiceFeatures, error) {
	var f model.VoiceFeatures
	f0 := pitch.VoicedF0()
	if len(f0) == 0 {
		return f, ErrNoVoicedFrames
	}
	if len(f0) < minVoicedFrames {
		return f, fmt.Errorf("%w: %d of %d needed", ErrTooFewVoicedFrames, len(f0), minVoicedFrames)
	}
	samples := sig.Samples

	meanF0 := stat.Mean(f0, nil)
	f.Fo = meanF0
	f.Fhi = floats.Max(f0)
	f.Flo = floats.Min(f0)

	df0 := diff(f0, 1)
	absDF0 := absAll(df0)
	f.JitterAbs = stat.Mean(absDF0, nil)
	f.JitterPercent = f.JitterAbs / meanF0 * 100

	peaks := FindPeaks(samples, 0)
	if len(peaks) == 0 {
		return f, fmt.Errorf("%w: no positive peaks", ErrDegenerateEnergy)
	}
	peakPos := make([]float64, len(peaks))
	for i, p := range peaks {
		peakPos[i] = float64(p)
	}
	norm := float64(len(peaks)) * sig.Duration()
	f.RAP = floats.Sum(absAll(diff(peakPos, 1))) / norm
	f.PPQ = floats.Sum(absAll(diff(peakPos, 2))) / norm
	f.DDP = f.JitterAbs * 3

	amplitude := downsampleAmplitude(samples, len(f0))
	dAmp := diff(amplitude, 1)
	f.Shimmer = stat.Mean(absAll(dAmp), nil)
	if f.Shimmer == 0 {
		return f, fmt.Errorf("%w: constant amplitude", ErrDegenerateEnergy)
	}
	f.ShimmerDB = 20 * math.Abs(math.Log10(f.Shimmer))
	f.APQ3 = stat.Mean(absAll(diff(amplitude, 3)), nil)
	f.APQ5 = stat.Mean(absAll(diff(amplitude, 5)), nil)
	combined := make([]float64, len(dAmp))
	for i := range dAmp {
		combined[i] = math.Sqrt(dAmp[i]*dAmp[i] + df0[i]*df0[i])
	}
	f.APQ = stat.Mean(combined, nil)
	f.DDA = f.JitterAbs + f.Shimmer

	harmonic, noise := splitEnergy(samples)
	if noise == 0 || harmonic == 0 {
		return f, fmt.Errorf("%w: harmonic %g noise %g", ErrDegenerateEnergy, harmonic, noise)
	}
	f.HNR = harmonic / noise
	f.NHR = 1 / f.HNR

	dfa, err := DFA(samples)
	if err != nil {
		return f, err
	}
	f.DFA = dfa

	_, variance := stat.PopMeanVariance(f0, nil)
	f.Spread1 = math.Sqrt(variance)
	f.Spread2 = variance
	f.PPE = stat.Mean(pitch.VoicedProb, nil)
	return f, nil
}

// downsampleAmplitude takes every k-th absolute sample so the result has n values.
func downsampleAmplitude(samples []float64, n int) []float64 {
	step := len(samples) / n
	if step < 1 {
		step = 1
	}
	out := make([]float64, 0, n)
	for i := 0; i < len(samples) && len(out) < n; i += step {
		out = append(out, math.Abs(samples[i]))
	}
	return out
}

// splitEnergy sums squared samples above and at-or-below the signal mean.
func splitEnergy(samples []float64) (above, below float64) {
	mean := stat.Mean(samples, nil)
	for _, v := range samples {
		if v > mean {
			above += v * v
		} else {
			below += v * v
		}
	}
	return above, below
}

// diff applies the first difference order times.
func diff(x []float64, order int) []float64 {
	out := append([]float64(nil), x...)
	for k := 0; k < order; k++ {
		if len(out) < 2 {
			return nil
		}
		for i := 0; i < len(out)-1; i++ {
			out[i] = out[i+1] - out[i]
		}
		out = out[:len(out)-1]
	}
	return out
}

func absAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = math.Abs(v)
	}
	return out
}
