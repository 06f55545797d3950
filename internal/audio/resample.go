package audio

import "math"

// resampleZeroCrossings is the sinc half-width in zero crossings.
const resampleZeroCrossings = 32

// Resample converts the signal to rate with Hann-windowed sinc interpolation.
// The cutoff follows the lower of the two Nyquist frequencies.
func Resample(sig Signal, rate int) Signal {
	if sig.SampleRate == rate || sig.SampleRate <= 0 || len(sig.Samples) == 0 {
		return Signal{Samples: append([]float64(nil), sig.Samples...), SampleRate: rate}
	}
	ratio := float64(rate) / float64(sig.SampleRate)
	cutoff := math.Min(1, ratio)
	half := float64(resampleZeroCrossings) / cutoff
	n := len(sig.Samples)
	outLen := int(math.Ceil(float64(n) * ratio))
	out := make([]float64, outLen)
	for k := range out {
		t := float64(k) / ratio
		lo := int(math.Ceil(t - half))
		hi := int(math.Floor(t + half))
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		sum := 0.0
		for i := lo; i <= hi; i++ {
			d := t - float64(i)
			w := 0.5 * (1 + math.Cos(math.Pi*d/half))
			sum += sig.Samples[i] * cutoff * sinc(cutoff*d) * w
		}
		out[k] = sum
	}
	return Signal{Samples: out, SampleRate: rate}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}
