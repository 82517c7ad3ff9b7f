package timeline

import "math"

// Default calibration. The green and blue gains compensate for the LED
// strips reading hotter than the reference monitor.
const (
	DefaultGamma     = 2.2
	DefaultRedGain   = 1.0
	DefaultGreenGain = 0.7
	DefaultBlueGain  = 0.85
)

// RGB8 is a display color with 8-bit components.
type RGB8 struct {
	R, G, B uint8
}

// ColorLUT maps 4-bit hardware values (0-15) to gamma/gain corrected 8-bit
// display values, one table per channel. A ColorLUT is an immutable value:
// changing gamma or gains produces a fresh LUT, so concurrent renders can
// keep using the one they captured without locking.
type ColorLUT struct {
	Gamma                        float64
	RedGain, GreenGain, BlueGain float64

	r, g, b [16]uint8
	reverse [256]uint8
}

// NewColorLUT builds a LUT from a gamma exponent and per-channel gains.
func NewColorLUT(gamma, redGain, greenGain, blueGain float64) ColorLUT {
	l := ColorLUT{
		Gamma:     gamma,
		RedGain:   redGain,
		GreenGain: greenGain,
		BlueGain:  blueGain,
	}
	for i := 0; i < 16; i++ {
		corrected := math.Pow(float64(i)/15.0, 1.0/gamma)
		l.r[i] = clampByte(corrected * 255 * redGain)
		l.g[i] = clampByte(corrected * 255 * greenGain)
		l.b[i] = clampByte(corrected * 255 * blueGain)
	}
	// Reverse table maps 8-bit back to the nearest 4-bit hardware value,
	// using the green channel as the reference curve.
	for v := 0; v < 256; v++ {
		best, bestDist := uint8(0), math.MaxInt32
		for i := 0; i < 16; i++ {
			d := int(l.g[i]) - v
			if d < 0 {
				d = -d
			}
			if d < bestDist {
				best, bestDist = uint8(i), d
			}
		}
		l.reverse[v] = best
	}
	return l
}

// DefaultColorLUT returns the stock calibration.
func DefaultColorLUT() ColorLUT {
	return NewColorLUT(DefaultGamma, DefaultRedGain, DefaultGreenGain, DefaultBlueGain)
}

// WithGamma returns a new LUT with the gamma replaced.
func (l ColorLUT) WithGamma(gamma float64) ColorLUT {
	return NewColorLUT(gamma, l.RedGain, l.GreenGain, l.BlueGain)
}

// WithGains returns a new LUT with the per-channel gains replaced.
func (l ColorLUT) WithGains(red, green, blue float64) ColorLUT {
	return NewColorLUT(l.Gamma, red, green, blue)
}

// Display resolves a channel's 4-bit state to its 8-bit display color.
func (l *ColorLUT) Display(c ChannelState) RGB8 {
	return RGB8{
		R: l.r[c.Red&0x0f],
		G: l.g[c.Green&0x0f],
		B: l.b[c.Blue&0x0f],
	}
}

// ToHardware maps an 8-bit display value back to the closest 4-bit
// hardware value.
func (l *ColorLUT) ToHardware(v uint8) uint8 {
	return l.reverse[v]
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
