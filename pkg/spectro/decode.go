package spectro

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
	"github.com/hajimehoshi/go-mp3"
)

// Channel modes selectable for analysis. The decoder always yields
// interleaved stereo; the mode decides how the two channels fold into
// the mono stream the analyzer consumes.
const (
	ChannelMix   = "mix"
	ChannelLeft  = "left"
	ChannelRight = "right"
)

// DecodedAudio is raw mono PCM plus whatever metadata the file carried.
type DecodedAudio struct {
	Samples    []float64
	SampleRate int
	Title      string
	Artist     string
}

// DecodeMP3 reads an MP3 file into mono float64 samples in [-1, 1).
// The decoder output is 16-bit little-endian interleaved stereo.
func DecodeMP3(path, channelMode string) (*DecodedAudio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := &DecodedAudio{}
	if m, err := tag.ReadFrom(f); err == nil {
		out.Title = m.Title()
		out.Artist = m.Artist()
	}
	if out.Title == "" {
		fullTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out.Title = fullTitle
		if parts := strings.SplitN(fullTitle, " - ", 2); len(parts) == 2 {
			out.Artist = parts[0]
			out.Title = parts[1]
		}
	}

	if _, err := f.Seek(0, 0); err != nil {
		return nil, err
	}

	d, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	out.SampleRate = d.SampleRate()

	buf := make([]byte, 8192)
	rem := 0
	for {
		n, err := d.Read(buf[rem:])
		n += rem
		// Keep any trailing partial frame for the next read.
		whole := n - n%4
		for i := 0; i < whole; i += 4 {
			l := float64(int16(binary.LittleEndian.Uint16(buf[i:]))) / 32768
			r := float64(int16(binary.LittleEndian.Uint16(buf[i+2:]))) / 32768
			var v float64
			switch channelMode {
			case ChannelLeft:
				v = l
			case ChannelRight:
				v = r
			default:
				v = (l + r) / 2
			}
			out.Samples = append(out.Samples, v)
		}
		rem = n - whole
		copy(buf, buf[whole:n])
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, err
		}
	}
	return out, nil
}

// LoadTrack decodes an MP3 and runs the analyzer over it in one step.
func LoadTrack(path, channelMode string, p Params) (*Track, error) {
	audio, err := DecodeMP3(path, channelMode)
	if err != nil {
		return nil, err
	}
	t := Analyze(audio.Samples, audio.SampleRate, p)
	if t == nil {
		return nil, fmt.Errorf("no audio in %s", path)
	}
	t.Source = filepath.Base(path)
	t.ChannelMode = channelMode
	t.Title = audio.Title
	t.Artist = audio.Artist
	return t, nil
}
