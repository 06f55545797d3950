package audio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat/distuv"
)

// PitchConfig holds the probabilistic YIN parameters.
type PitchConfig struct {
	FMin              float64
	FMax              float64
	SampleRate        int
	FrameLength       int
	WinLength         int
	HopLength         int
	Thresholds        int
	BetaA, BetaB      float64
	Boltzmann         float64
	Resolution        float64
	MaxTransitionRate float64
	SwitchProb        float64
	NoTroughProb      float64
}

// DefaultPitchConfig tracks 75-600 Hz at 22.05 kHz with 2048-sample frames.
func DefaultPitchConfig() PitchConfig {
	return PitchConfig{
		FMin:              75,
		FMax:              600,
		SampleRate:        TargetSampleRate,
		FrameLength:       2048,
		WinLength:         1024,
		HopLength:         512,
		Thresholds:        100,
		BetaA:             2,
		BetaB:             18,
		Boltzmann:         2,
		Resolution:        0.1,
		MaxTransitionRate: 35.92,
		SwitchProb:        0.01,
		NoTroughProb:      0.01,
	}
}

// Pitch is a frame-wise fundamental frequency track.
type Pitch struct {
	// F0 is NaN for unvoiced frames.
	F0         []float64
	Voiced     []bool
	VoicedProb []float64
}

// VoicedF0 returns the frequencies of voiced frames in order.
func (p Pitch) VoicedF0() []float64 {
	out := make([]float64, 0, len(p.F0))
	for i, f := range p.F0 {
		if p.Voiced[i] && !math.IsNaN(f) {
			out = append(out, f)
		}
	}
	return out
}

// tiny is the smallest positive normal float64.
const tiny = 2.2250738585072014e-308

type pyinTracker struct {
	cfg         PitchConfig
	minPeriod   int
	maxPeriod   int
	thresholds  []float64
	betaProbs   []float64
	binsPerSemi int
	pitchBins   int
	fft         *fourier.FFT
	frameCoeffs []complex128
	revCoeffs   []complex128
	rev         []float64
	corr        []float64
	logTrans    [][]float64
}

func newPyinTracker(cfg PitchConfig) (*pyinTracker, error) {
	if cfg.FMin <= 0 || cfg.FMax <= cfg.FMin {
		return nil, fmt.Errorf("pitch range must satisfy 0 < fmin < fmax, got %v-%v", cfg.FMin, cfg.FMax)
	}
	if cfg.WinLength <= 0 || cfg.WinLength >= cfg.FrameLength || cfg.HopLength <= 0 {
		return nil, fmt.Errorf("invalid framing %d/%d/%d", cfg.FrameLength, cfg.WinLength, cfg.HopLength)
	}
	sr := float64(cfg.SampleRate)
	t := &pyinTracker{cfg: cfg}
	t.minPeriod = int(math.Floor(sr / cfg.FMax))
	if t.minPeriod < 1 {
		t.minPeriod = 1
	}
	t.maxPeriod = int(math.Ceil(sr / cfg.FMin))
	if limit := cfg.FrameLength - cfg.WinLength - 1; t.maxPeriod > limit {
		t.maxPeriod = limit
	}
	if t.maxPeriod <= t.minPeriod+1 {
		return nil, fmt.Errorf("pitch range %v-%v Hz leaves no periods to search", cfg.FMin, cfg.FMax)
	}

	t.thresholds = make([]float64, cfg.Thresholds+1)
	for i := range t.thresholds {
		t.thresholds[i] = float64(i) / float64(cfg.Thresholds)
	}
	beta := distuv.Beta{Alpha: cfg.BetaA, Beta: cfg.BetaB}
	t.betaProbs = make([]float64, cfg.Thresholds)
	prev := beta.CDF(t.thresholds[0])
	for i := 1; i < len(t.thresholds); i++ {
		cur := beta.CDF(t.thresholds[i])
		t.betaProbs[i-1] = cur - prev
		prev = cur
	}

	t.binsPerSemi = int(math.Ceil(1 / cfg.Resolution))
	t.pitchBins = int(math.Floor(float64(12*t.binsPerSemi)*math.Log2(cfg.FMax/cfg.FMin))) + 1

	t.fft = fourier.NewFFT(cfg.FrameLength)
	t.frameCoeffs = make([]complex128, cfg.FrameLength/2+1)
	t.revCoeffs = make([]complex128, cfg.FrameLength/2+1)
	t.rev = make([]float64, cfg.FrameLength)
	t.corr = make([]float64, cfg.FrameLength)
	t.logTrans = t.transitionLog()
	return t, nil
}

// TrackPitch estimates the fundamental frequency of every frame.
func TrackPitch(samples []float64, cfg PitchConfig) (Pitch, error) {
	t, err := newPyinTracker(cfg)
	if err != nil {
		return Pitch{}, err
	}
	frames := t.frames(samples)
	if len(frames) == 0 {
		return Pitch{}, fmt.Errorf("signal too short for pitch tracking")
	}

	nStates := 2 * t.pitchBins
	obs := make([][]float64, len(frames))
	voicedProb := make([]float64, len(frames))
	for i, frame := range frames {
		cmnd := t.cumulativeMeanNormalizedDifference(frame)
		shifts := parabolicShifts(cmnd)
		obs[i], voicedProb[i] = t.observation(cmnd, shifts, nStates)
	}

	prior := make([]float64, nStates)
	for s := t.pitchBins; s < nStates; s++ {
		prior[s] = 1 / float64(t.pitchBins)
	}
	states := viterbi(obs, t.logTrans, prior)

	pitch := Pitch{
		F0:         make([]float64, len(frames)),
		Voiced:     make([]bool, len(frames)),
		VoicedProb: voicedProb,
	}
	for i, s := range states {
		if s < t.pitchBins {
			pitch.Voiced[i] = true
			pitch.F0[i] = cfg.FMin * math.Pow(2, float64(s)/float64(12*t.binsPerSemi))
		} else {
			pitch.F0[i] = math.NaN()
		}
	}
	return pitch, nil
}

// frames slices the zero-padded, centred signal into overlapping frames.
func (t *pyinTracker) frames(samples []float64) [][]float64 {
	pad := t.cfg.FrameLength / 2
	padded := make([]float64, len(samples)+2*pad)
	copy(padded[pad:], samples)
	if len(padded) < t.cfg.FrameLength {
		return nil
	}
	count := 1 + (len(padded)-t.cfg.FrameLength)/t.cfg.HopLength
	out := make([][]float64, count)
	for i := range out {
		start := i * t.cfg.HopLength
		out[i] = padded[start : start+t.cfg.FrameLength]
	}
	return out
}

// cumulativeMeanNormalizedDifference returns d'(tau) for tau in [minPeriod, maxPeriod].
func (t *pyinTracker) cumulativeMeanNormalizedDifference(frame []float64) []float64 {
	n := t.cfg.FrameLength
	w := t.cfg.WinLength

	for k := range t.rev {
		t.rev[k] = 0
	}
	for k := 0; k < w; k++ {
		t.rev[k] = frame[w-k]
	}
	t.fft.Coefficients(t.frameCoeffs, frame)
	t.fft.Coefficients(t.revCoeffs, t.rev)
	for k := range t.frameCoeffs {
		t.frameCoeffs[k] *= t.revCoeffs[k]
	}
	t.fft.Sequence(t.corr, t.frameCoeffs)
	lags := n - w
	acf := make([]float64, lags)
	for tau := 0; tau < lags; tau++ {
		v := t.corr[w+tau] / float64(n)
		if math.Abs(v) < 1e-6 {
			v = 0
		}
		acf[tau] = v
	}

	cum := make([]float64, n)
	running := 0.0
	for i, v := range frame {
		running += v * v
		cum[i] = running
	}
	energy := make([]float64, lags)
	for tau := 0; tau < lags; tau++ {
		v := cum[w+tau] - cum[tau]
		if math.Abs(v) < 1e-6 {
			v = 0
		}
		energy[tau] = v
	}

	maxP := t.maxPeriod
	diff := make([]float64, maxP+1)
	for tau := 0; tau <= maxP; tau++ {
		diff[tau] = energy[0] + energy[tau] - 2*acf[tau]
	}
	out := make([]float64, maxP-t.minPeriod+1)
	sum := 0.0
	for tau := 1; tau <= maxP; tau++ {
		sum += diff[tau]
		if tau >= t.minPeriod {
			mean := sum / float64(tau)
			out[tau-t.minPeriod] = diff[tau] / (mean + tiny)
		}
	}
	return out
}

// parabolicShifts refines each lag by fitting a parabola through its neighbours.
func parabolicShifts(x []float64) []float64 {
	shifts := make([]float64, len(x))
	for i := 1; i < len(x)-1; i++ {
		a := x[i+1] + x[i-1] - 2*x[i]
		b := (x[i+1] - x[i-1]) / 2
		if math.Abs(b) >= math.Abs(a) {
			shifts[i] = 0
		} else {
			shifts[i] = -b / a
		}
	}
	return shifts
}

// troughs marks local minima; the first lag counts when it is below the second.
func troughs(x []float64) []int {
	var out []int
	n := len(x)
	for i := 0; i < n; i++ {
		var is bool
		switch {
		case i == 0:
			is = n > 1 && x[0] < x[1]
		case i == n-1:
			is = x[i] < x[i-1]
		default:
			is = x[i] < x[i-1] && x[i] <= x[i+1]
		}
		if is {
			out = append(out, i)
		}
	}
	return out
}

// boltzmannPMF is the truncated discrete exponential distribution on [0, n).
func boltzmannPMF(k int, lambda float64, n int) float64 {
	if k < 0 || k >= n {
		return 0
	}
	return (1 - math.Exp(-lambda)) * math.Exp(-lambda*float64(k)) / (1 - math.Exp(-lambda*float64(n)))
}

// observation builds the emission probabilities of one frame over voiced and
// unvoiced pitch states and returns them with the voicing probability.
func (t *pyinTracker) observation(cmnd, shifts []float64, nStates int) ([]float64, float64) {
	obs := make([]float64, nStates)
	idx := troughs(cmnd)
	if len(idx) > 0 {
		probs := make([]float64, len(idx))
		nThr := len(t.betaProbs)
		below := make([]int, nThr)
		for k := 0; k < nThr; k++ {
			thr := t.thresholds[k+1]
			for _, ti := range idx {
				if cmnd[ti] < thr {
					below[k]++
				}
			}
		}
		for k := 0; k < nThr; k++ {
			if below[k] == 0 {
				continue
			}
			thr := t.thresholds[k+1]
			pos := 0
			for m, ti := range idx {
				if cmnd[ti] < thr {
					probs[m] += boltzmannPMF(pos, t.cfg.Boltzmann, below[k]) * t.betaProbs[k]
					pos++
				}
			}
		}

		globalMin := 0
		for m, ti := range idx {
			if cmnd[ti] < cmnd[idx[globalMin]] {
				globalMin = m
			}
		}
		minHeight := cmnd[idx[globalMin]]
		missing := 0.0
		for k := 0; k < nThr; k++ {
			if !(minHeight < t.thresholds[k+1]) {
				missing += t.betaProbs[k]
			}
		}
		probs[globalMin] += t.cfg.NoTroughProb * missing

		sr := float64(t.cfg.SampleRate)
		for m, ti := range idx {
			if probs[m] == 0 {
				continue
			}
			period := float64(t.minPeriod+ti) + shifts[ti]
			f0 := sr / period
			bin := math.RoundToEven(float64(12*t.binsPerSemi) * math.Log2(f0/t.cfg.FMin))
			if bin < 0 {
				bin = 0
			}
			if bin > float64(t.pitchBins) {
				bin = float64(t.pitchBins)
			}
			obs[int(bin)] = probs[m]
		}
	}

	voiced := 0.0
	for s := 0; s < t.pitchBins; s++ {
		voiced += obs[s]
	}
	voiced = math.Max(0, math.Min(1, voiced))
	unvoiced := (1 - voiced) / float64(t.pitchBins)
	for s := t.pitchBins; s < nStates; s++ {
		obs[s] = unvoiced
	}
	return obs, voiced
}

// transitionLog builds the log transition matrix: a triangular local band
// within each voicing block, scaled by the voicing switch probabilities.
func (t *pyinTracker) transitionLog() [][]float64 {
	bins := t.pitchBins
	hop := float64(t.cfg.HopLength)
	maxSemitones := int(math.RoundToEven(t.cfg.MaxTransitionRate * 12 * hop / float64(t.cfg.SampleRate)))
	width := maxSemitones*t.binsPerSemi + 1
	halfWidth := width / 2
	peak := float64((width + 1) / 2)

	local := make([][]float64, bins)
	for i := range local {
		row := make([]float64, bins)
		sum := 0.0
		for j := i - halfWidth; j <= i+halfWidth; j++ {
			if j < 0 || j >= bins {
				continue
			}
			d := j - i
			if d < 0 {
				d = -d
			}
			row[j] = (peak - float64(d)) / peak
			sum += row[j]
		}
		for j := range row {
			row[j] /= sum
		}
		local[i] = row
	}

	stay := 1 - t.cfg.SwitchProb
	n := 2 * bins
	out := make([][]float64, n)
	for a := 0; a < n; a++ {
		row := make([]float64, n)
		for b := 0; b < n; b++ {
			scale := t.cfg.SwitchProb
			if (a < bins) == (b < bins) {
				scale = stay
			}
			row[b] = math.Log(scale*local[a%bins][b%bins] + tiny)
		}
		out[a] = row
	}
	return out
}

// viterbi returns the most likely state sequence given per-frame emission
// probabilities, a log transition matrix and initial probabilities.
func viterbi(obs [][]float64, logTrans [][]float64, prior []float64) []int {
	steps := len(obs)
	n := len(prior)
	value := make([]float64, n)
	next := make([]float64, n)
	ptr := make([][]int, steps)
	into := make([][]float64, n)
	for j := range into {
		into[j] = make([]float64, n)
		for i := 0; i < n; i++ {
			into[j][i] = logTrans[i][j]
		}
	}
	for s := 0; s < n; s++ {
		value[s] = math.Log(obs[0][s]+tiny) + math.Log(prior[s]+tiny)
	}
	for t := 1; t < steps; t++ {
		ptr[t] = make([]int, n)
		for j := 0; j < n; j++ {
			col := into[j]
			best := 0
			bestVal := value[0] + col[0]
			for i := 1; i < n; i++ {
				if v := value[i] + col[i]; v > bestVal {
					best = i
					bestVal = v
				}
			}
			ptr[t][j] = best
			next[j] = math.Log(obs[t][j]+tiny) + bestVal
		}
		value, next = next, value
	}

	states := make([]int, steps)
	last := 0
	for s := 1; s < n; s++ {
		if value[s] > value[last] {
			last = s
		}
	}
	states[steps-1] = last
	for t := steps - 2; t >= 0; t-- {
		states[t] = ptr[t+1][states[t+1]]
	}
	return states
}
