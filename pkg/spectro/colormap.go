package spectro

// A Colormap maps a normalized magnitude in [0,1] to an RGB display color.
// Maps are looked up by name; an unknown name falls back to viridis so a
// bad config value degrades instead of failing.
type Colormap struct {
	name    string
	anchors [][3]uint8
}

// DefaultColormap is the spectrogram's stock palette.
const DefaultColormap = "inferno"

var colormaps = map[string]Colormap{
	"viridis": {name: "viridis", anchors: [][3]uint8{
		{68, 1, 84}, {71, 44, 122}, {59, 81, 139}, {44, 113, 142},
		{33, 144, 141}, {39, 173, 129}, {92, 200, 99}, {170, 220, 50},
		{253, 231, 37},
	}},
	"inferno": {name: "inferno", anchors: [][3]uint8{
		{0, 0, 4}, {27, 12, 65}, {74, 12, 107}, {120, 28, 109},
		{165, 44, 96}, {207, 68, 70}, {237, 105, 37}, {251, 155, 6},
		{252, 255, 164},
	}},
	"magma": {name: "magma", anchors: [][3]uint8{
		{0, 0, 4}, {28, 16, 68}, {79, 18, 123}, {129, 37, 129},
		{181, 54, 122}, {229, 80, 100}, {251, 135, 97}, {254, 194, 135},
		{252, 253, 191},
	}},
	"gray": {name: "gray", anchors: [][3]uint8{
		{0, 0, 0}, {255, 255, 255},
	}},
}

// ColormapByName resolves a palette by name, falling back to viridis.
func ColormapByName(name string) Colormap {
	if m, ok := colormaps[name]; ok {
		return m
	}
	return colormaps["viridis"]
}

// ColormapNames lists the available palette names.
func ColormapNames() []string {
	names := make([]string, 0, len(colormaps))
	for n := range colormaps {
		names = append(names, n)
	}
	return names
}

// Name returns the palette's registered name.
func (m Colormap) Name() string {
	return m.name
}

// Map converts a normalized value to RGB, interpolating linearly between
// the palette's anchor colors. Values outside [0,1] are clamped.
func (m Colormap) Map(v float64) (r, g, b uint8) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	segs := float64(len(m.anchors) - 1)
	pos := v * segs
	i := int(pos)
	if i >= len(m.anchors)-1 {
		last := m.anchors[len(m.anchors)-1]
		return last[0], last[1], last[2]
	}
	frac := pos - float64(i)
	lo, hi := m.anchors[i], m.anchors[i+1]
	return lerpByte(lo[0], hi[0], frac), lerpByte(lo[1], hi[1], frac), lerpByte(lo[2], hi[2], frac)
}

func lerpByte(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
}
