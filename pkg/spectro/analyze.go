package spectro

import (
	"math"
	"math/bits"
)

// Analyze computes a mel spectrogram over PCM samples and wraps it in a
// Track. Frames are centered (the signal is zero-padded by half a window
// on each side), magnitudes are mel-projected power converted to dB
// relative to the loudest frame and floored at -80 dB.
//
// The pack carries no DSP dependency, so the STFT and filterbank live
// here; both are small and fixed-function.
func Analyze(samples []float64, sampleRate int, p Params) *Track {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil
	}
	if p.NFFT <= 0 || p.HopLength <= 0 || p.NMels <= 0 {
		p = DefaultParams()
	}

	window := hannWindow(p.NFFT)
	filters := melFilterbank(p, sampleRate)
	frames := 1 + len(samples)/p.HopLength
	half := p.NFFT / 2
	specBins := p.NFFT/2 + 1

	mags := make([][]float32, p.NMels)
	for m := range mags {
		mags[m] = make([]float32, frames)
	}

	re := make([]float64, p.NFFT)
	im := make([]float64, p.NFFT)
	power := make([]float64, specBins)
	for f := 0; f < frames; f++ {
		// Window one centered frame; indexes before the signal start or
		// past its end read as silence.
		base := f*p.HopLength - half
		for i := 0; i < p.NFFT; i++ {
			idx := base + i
			v := 0.0
			if idx >= 0 && idx < len(samples) {
				v = samples[idx]
			}
			re[i] = v * window[i]
			im[i] = 0
		}
		fft(re, im)
		for k := 0; k < specBins; k++ {
			power[k] = re[k]*re[k] + im[k]*im[k]
		}
		for m, filt := range filters {
			sum := 0.0
			for k := filt.lo; k < filt.hi; k++ {
				sum += power[k] * filt.weights[k-filt.lo]
			}
			mags[m][f] = float32(sum)
		}
	}

	powerToDB(mags)

	times := make([]float64, frames)
	for f := range times {
		times[f] = float64(f*p.HopLength) / float64(sampleRate) * 1000
	}
	freqs := make([]float64, p.NMels)
	for m := range freqs {
		freqs[m] = filters[m].center
	}

	return &Track{
		SampleRate:  sampleRate,
		DurationMS:  float64(len(samples)) / float64(sampleRate) * 1000,
		Magnitudes:  mags,
		TimesMS:     times,
		Frequencies: freqs,
		Params:      p,
	}
}

// powerToDB converts mel power values to dB relative to the global peak,
// clamped to the -80 dB floor.
func powerToDB(mags [][]float32) {
	const amin = 1e-10
	ref := amin
	for _, row := range mags {
		for _, v := range row {
			if float64(v) > ref {
				ref = float64(v)
			}
		}
	}
	for _, row := range mags {
		for i, v := range row {
			p := float64(v)
			if p < amin {
				p = amin
			}
			db := 10 * math.Log10(p/ref)
			if db < dbFloor {
				db = dbFloor
			}
			row[i] = float32(db)
		}
	}
}

func hannWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

// melFilter is one triangular filter over spectrogram bins [lo, hi).
type melFilter struct {
	lo, hi  int
	weights []float64
	center  float64
}

func hzToMel(hz float64) float64  { return 2595 * math.Log10(1+hz/700) }
func melToHz(mel float64) float64 { return 700 * (math.Pow(10, mel/2595) - 1) }

// melFilterbank builds NMels triangular filters spaced evenly on the mel
// scale between FMin and FMax.
func melFilterbank(p Params, sampleRate int) []melFilter {
	specBins := p.NFFT/2 + 1
	binHz := float64(sampleRate) / float64(p.NFFT)

	melLo, melHi := hzToMel(p.FMin), hzToMel(p.FMax)
	edges := make([]float64, p.NMels+2)
	for i := range edges {
		mel := melLo + (melHi-melLo)*float64(i)/float64(p.NMels+1)
		edges[i] = melToHz(mel)
	}

	filters := make([]melFilter, p.NMels)
	for m := 0; m < p.NMels; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		lo := int(math.Ceil(left / binHz))
		hi := int(math.Floor(right/binHz)) + 1
		if lo < 0 {
			lo = 0
		}
		if hi > specBins {
			hi = specBins
		}
		if hi < lo {
			hi = lo
		}
		weights := make([]float64, hi-lo)
		for k := lo; k < hi; k++ {
			hz := float64(k) * binHz
			switch {
			case hz < center && center > left:
				weights[k-lo] = (hz - left) / (center - left)
			case hz >= center && right > center:
				weights[k-lo] = (right - hz) / (right - center)
			}
			if weights[k-lo] < 0 {
				weights[k-lo] = 0
			}
		}
		filters[m] = melFilter{lo: lo, hi: hi, weights: weights, center: center}
	}
	return filters
}

// fft is an in-place iterative radix-2 transform. len(re) must be a power
// of two; Params.NFFT always is.
func fft(re, im []float64) {
	n := len(re)
	if n < 2 {
		return
	}
	shift := 64 - uint(bits.Len(uint(n-1)))
	for i := 0; i < n; i++ {
		j := int(bits.Reverse64(uint64(i)) >> shift)
		if j > i {
			re[i], re[j] = re[j], re[i]
			im[i], im[j] = im[j], im[i]
		}
	}
	for size := 2; size <= n; size *= 2 {
		half := size / 2
		step := -2 * math.Pi / float64(size)
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				angle := step * float64(k)
				wr, wi := math.Cos(angle), math.Sin(angle)
				i, j := start+k, start+k+half
				tr := wr*re[j] - wi*im[j]
				ti := wr*im[j] + wi*re[j]
				re[j], im[j] = re[i]-tr, im[i]-ti
				re[i], im[i] = re[i]+tr, im[i]+ti
			}
		}
	}
}
