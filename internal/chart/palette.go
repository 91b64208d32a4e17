// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package chart

import (
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
)

// viridisStops are evenly spaced samples of the viridis colour map.
var viridisStops = []colorful.Color{
	mustHex("#440154"),
	mustHex("#482878"),
	mustHex("#3e4989"),
	mustHex("#31688e"),
	mustHex("#26828e"),
	mustHex("#1f9e89"),
	mustHex("#35b779"),
	mustHex("#6dcd59"),
	mustHex("#b4de2c"),
	mustHex("#fde725"),
}

func mustHex(s string) colorful.Color {
	c, err := colorful.Hex(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Viridis returns n colours sampled evenly from dark purple to yellow.
func Viridis(n int) []color.Color {
	if n <= 0 {
		return nil
	}
	out := make([]color.Color, n)
	if n == 1 {
		out[0] = viridisStops[0]
		return out
	}
	last := float64(len(viridisStops) - 1)
	for i := range out {
		pos := float64(i) / float64(n-1) * last
		j := int(pos)
		frac := pos - float64(j)
		switch {
		case j >= len(viridisStops)-1:
			out[i] = viridisStops[len(viridisStops)-1]
		case frac == 0:
			out[i] = viridisStops[j]
		default:
			out[i] = viridisStops[j].BlendLab(viridisStops[j+1], frac).Clamped()
		}
	}
	return out
}

// hexColor formats c as #rrggbb for HTML output.
func hexColor(c color.Color) string {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return "#000000"
	}
	return cf.Hex()
}
