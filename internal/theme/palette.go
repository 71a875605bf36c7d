package theme

import (
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// defaultPalette is green, dark green, blue, dark blue, yellow, dark yellow,
// red, dark red, cyan and dark cyan.
var defaultPalette = []string{
	"#00ff00", "#008000",
	"#0000ff", "#000080",
	"#ffff00", "#808000",
	"#ff0000", "#800000",
	"#00ffff", "#008080",
}

// DefaultPalette returns a fresh copy of the ten class colours.
func DefaultPalette() []color.RGBA {
	out := make([]color.RGBA, 0, len(defaultPalette))
	for _, h := range defaultPalette {
		c, err := colorful.Hex(h)
		if err != nil {
			continue
		}
		out = append(out, toRGBA(c))
	}
	return out
}

func toRGBA(c colorful.Color) color.RGBA {
	r, g, b := c.Clamped().RGB255()
	return color.RGBA{r, g, b, 255}
}

// Gray returns the weighted gray value of c in [0,255], using weights
// 11/16/5 over 32 for red, green and blue.
func Gray(c color.Color) int {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return 0
	}
	r, g, b := cf.RGB255()
	return (int(r)*11 + int(g)*16 + int(b)*5) / 32
}

// Light reports whether dark text reads better than light text on c.
func Light(c color.Color) bool { return Gray(c) > 120 }

// ParsePalette reads a comma separated list of #rrggbb colours.
func ParsePalette(s string) ([]color.RGBA, error) {
	var out []color.RGBA
	for _, part := range splitList(s) {
		c, err := colorful.Hex(part)
		if err != nil {
			return nil, err
		}
		out = append(out, toRGBA(c))
	}
	return out, nil
}

// FormatPalette is the inverse of ParsePalette.
func FormatPalette(p []color.RGBA) string {
	var s string
	for i, c := range p {
		if i > 0 {
			s += ", "
		}
		cf, _ := colorful.MakeColor(c)
		s += cf.Hex()
	}
	return s
}
