// Package timeline holds the lighting keyframe model and the
// importance-based level-of-detail aggregation used to draw very long
// sequences inside a narrow viewport.
package timeline

import "sort"

// NumChannels is the number of independent lighting channels per keyframe.
const NumChannels = 10

// ChannelState is the hardware state of a single channel: a function code
// plus 4-bit RGB components (0-15).
type ChannelState struct {
	Function int
	Red      uint8
	Green    uint8
	Blue     uint8
}

// Keyframe is one timestamped lighting state across all channels.
type Keyframe struct {
	TimeMS   float64
	Channels [NumChannels]ChannelState
	Marker   string
}

// Brightness returns the sum of all RGB components across every channel.
func (k *Keyframe) Brightness() int {
	total := 0
	for i := range k.Channels {
		c := &k.Channels[i]
		total += int(c.Red) + int(c.Green) + int(c.Blue)
	}
	return total
}

// Sequence is a timestamp-ordered, random-access snapshot of keyframes.
// Ordering and timestamp uniqueness are invariants owned by the editing
// layer; the aggregator assumes them but never verifies or mutates.
type Sequence []Keyframe

// searchAfter returns the index of the first keyframe with TimeMS > t,
// i.e. the insertion point to the right of t.
func (s Sequence) searchAfter(t float64) int {
	return sort.Search(len(s), func(i int) bool { return s[i].TimeMS > t })
}

// medianInterval returns the median gap between consecutive keyframes, or
// 0 when fewer than two keyframes exist.
func (s Sequence) medianInterval() float64 {
	if len(s) < 2 {
		return 0
	}
	gaps := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		gaps = append(gaps, s[i].TimeMS-s[i-1].TimeMS)
	}
	sort.Float64s(gaps)
	mid := len(gaps) / 2
	if len(gaps)%2 == 1 {
		return gaps[mid]
	}
	return (gaps[mid-1] + gaps[mid]) / 2
}
