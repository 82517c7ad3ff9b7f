// Package spectro computes, stores and renders mel-spectrogram data for
// the audio track that accompanies a lighting timeline.
package spectro

import (
	"fmt"
	"sort"
)

// Params are the spectrogram analysis settings. The defaults match the
// editor's reference pipeline; a larger hop keeps long videos tractable.
type Params struct {
	NFFT      int
	HopLength int
	NMels     int
	FMin      float64
	FMax      float64
}

// DefaultParams returns the standard analysis configuration.
func DefaultParams() Params {
	return Params{
		NFFT:      2048,
		HopLength: 1024,
		NMels:     128,
		FMin:      20,
		FMax:      8000,
	}
}

// Track is an immutable mel-spectrogram of one audio source in one channel
// mode. It is produced once by the decode pipeline and only ever read
// afterwards; renderers take it as a snapshot and never write to it.
type Track struct {
	Source      string
	ChannelMode string // ChannelMix, ChannelLeft or ChannelRight
	Title       string
	Artist      string

	SampleRate int
	DurationMS float64

	// Magnitudes is indexed [mel-bin][time-frame], in dB relative to the
	// loudest frame (so the ceiling is 0 and the floor -80).
	Magnitudes  [][]float32
	TimesMS     []float64
	Frequencies []float64

	Params Params
}

// ID identifies a (source, channel-mode) pair. It participates in tile
// cache keys, so switching sources or channel modes naturally misses.
func (t *Track) ID() string {
	return fmt.Sprintf("%s_%s", t.Source, t.ChannelMode)
}

// Frames returns the number of time frames in the spectrogram.
func (t *Track) Frames() int {
	return len(t.TimesMS)
}

// Bins returns the number of mel frequency bins.
func (t *Track) Bins() int {
	return len(t.Magnitudes)
}

// frameRange returns the half-open frame index range whose timestamps fall
// inside [startMS, endMS].
func (t *Track) frameRange(startMS, endMS float64) (int, int) {
	lo := sort.SearchFloat64s(t.TimesMS, startMS)
	hi := sort.Search(len(t.TimesMS), func(i int) bool { return t.TimesMS[i] > endMS })
	return lo, hi
}
