package audio

import (
	"errors"
	"math"
	"testing"
)

func TestExtractSilenceFailsExplicitly(t *testing.T) {
	_, err := Extract(Signal{Samples: make([]float64, TargetSampleRate), SampleRate: TargetSampleRate})
	if !errors.Is(err, ErrNoVoicedFrames) {
		t.Fatalf("expected ErrNoVoicedFrames, got %v", err)
	}
}

func TestExtractSustainedVowel(t *testing.T) {
	samples := sine(180, 1.5, 0.4)
	for i := range samples {
		samples[i] *= 1 + 0.1*math.Sin(2*math.Pi*3*float64(i)/TargetSampleRate)
	}
	f, err := Extract(Signal{Samples: samples, SampleRate: TargetSampleRate})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if math.Abs(f.Fo-180)/180 > 0.03 {
		t.Fatalf("expected Fo near 180 Hz, got %v", f.Fo)
	}
	if f.Flo > f.Fo || f.Fhi < f.Fo {
		t.Fatalf("expected Flo <= Fo <= Fhi, got %v %v %v", f.Flo, f.Fo, f.Fhi)
	}
	if math.Abs(f.NHR*f.HNR-1) > 1e-12 {
		t.Fatalf("expected NHR = 1/HNR, got %v and %v", f.NHR, f.HNR)
	}
	if math.Abs(f.Spread1*f.Spread1-f.Spread2) > 1e-9 {
		t.Fatalf("expected Spread2 = Spread1^2, got %v and %v", f.Spread1, f.Spread2)
	}
	if math.Abs(f.DDP-3*f.JitterAbs) > 1e-12 {
		t.Fatalf("expected DDP = 3 * jitter, got %v", f.DDP)
	}
	if f.PPE <= 0 || f.PPE > 1 {
		t.Fatalf("expected PPE in (0, 1], got %v", f.PPE)
	}
	if len(f.Vector()) != 20 {
		t.Fatalf("expected 20 features")
	}
}

func TestFeaturesFromPitchFormulas(t *testing.T) {
	samples := make([]float64, 60)
	for i := range samples {
		samples[i] = math.Sin(2*math.Pi*float64(i)/7 + 0.3)
	}
	f0 := []float64{100, 110, 100, 120, 100, 110}
	pitch := Pitch{
		F0:         append([]float64{math.NaN()}, f0...),
		Voiced:     []bool{false, true, true, true, true, true, true},
		VoicedProb: []float64{0.3, 1, 1, 1, 1, 1, 1},
	}
	f, err := featuresFromPitch(Signal{Samples: samples, SampleRate: 20}, pitch)
	if err != nil {
		t.Fatalf("featuresFromPitch failed: %v", err)
	}
	approx := func(got, want float64) bool { return math.Abs(got-want) < 1e-9 }
	if !approx(f.Fo, 640.0/6.0) || f.Fhi != 120 || f.Flo != 100 {
		t.Fatalf("unexpected pitch stats %v %v %v", f.Fo, f.Fhi, f.Flo)
	}
	if !approx(f.JitterAbs, 14) || !approx(f.JitterPercent, 14/(640.0/6.0)*100) {
		t.Fatalf("unexpected jitter %v %v", f.JitterAbs, f.JitterPercent)
	}
	if !approx(f.DDA, f.JitterAbs+f.Shimmer) {
		t.Fatalf("expected DDA = jitter + shimmer")
	}
	if !approx(f.ShimmerDB, 20*math.Abs(math.Log10(f.Shimmer))) {
		t.Fatalf("unexpected dB shimmer %v", f.ShimmerDB)
	}
	if !approx(f.PPE, 6.3/7) {
		t.Fatalf("expected PPE over all frames, got %v", f.PPE)
	}
	if f.RAP <= 0 {
		t.Fatalf("expected positive RAP, got %v", f.RAP)
	}
}

func TestFeaturesFromPitchTooFewVoiced(t *testing.T) {
	pitch := Pitch{
		F0:         []float64{100, 101, 102},
		Voiced:     []bool{true, true, true},
		VoicedProb: []float64{1, 1, 1},
	}
	_, err := featuresFromPitch(Signal{Samples: []float64{0, 1, 0, -1}, SampleRate: 4}, pitch)
	if !errors.Is(err, ErrTooFewVoicedFrames) {
		t.Fatalf("expected ErrTooFewVoicedFrames, got %v", err)
	}
}

func TestDownsampleAmplitude(t *testing.T) {
	got := downsampleAmplitude([]float64{-1, 2, -3, 4, -5, 6, -7}, 3)
	want := []float64{1, 3, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
