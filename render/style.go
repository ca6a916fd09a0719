package render

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// parseColor resolves a CSS color value: named colors, #rgb[a], #rrggbb[aa],
// rgb() and rgba().
func parseColor(s string) (color.RGBA, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return color.RGBA{}, false
	case s == "transparent":
		return color.RGBA{}, true
	case strings.HasPrefix(s, "#"):
		return parseHashColor(s[1:])
	case strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba("):
		return parseRGBFunction(s)
	}
	col, ok := colornames.Map[s]
	return col, ok
}

func parseHashColor(hex string) (color.RGBA, bool) {
	for i := 0; i < len(hex); i++ {
		if _, ok := hexDigit(hex[i]); !ok {
			return color.RGBA{}, false
		}
	}
	d := func(i int) uint8 { v, _ := hexDigit(hex[i]); return v }

	switch len(hex) {
	case 3, 4:
		col := color.RGBA{R: d(0) * 17, G: d(1) * 17, B: d(2) * 17, A: 255}
		if len(hex) == 4 {
			col.A = d(3) * 17
		}
		return col, true
	case 6, 8:
		col := color.RGBA{R: d(0)<<4 | d(1), G: d(2)<<4 | d(3), B: d(4)<<4 | d(5), A: 255}
		if len(hex) == 8 {
			col.A = d(6)<<4 | d(7)
		}
		return col, true
	}
	return color.RGBA{}, false
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func parseRGBFunction(s string) (color.RGBA, bool) {
	open, end := strings.IndexByte(s, '('), strings.LastIndexByte(s, ')')
	if open < 0 || end < open {
		return color.RGBA{}, false
	}
	fields := strings.FieldsFunc(s[open+1:end], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(fields) != 3 && len(fields) != 4 {
		return color.RGBA{}, false
	}

	var channels [4]float64
	channels[3] = 1
	for i, f := range fields {
		pct := strings.HasSuffix(f, "%")
		v, err := strconv.ParseFloat(strings.TrimSuffix(f, "%"), 64)
		if err != nil {
			return color.RGBA{}, false
		}
		switch {
		case i == 3 && pct:
			v /= 100
		case i < 3 && pct:
			v = v * 255 / 100
		}
		channels[i] = v
	}
	return color.RGBA{
		R: uint8(clamp(channels[0], 0, 255)),
		G: uint8(clamp(channels[1], 0, 255)),
		B: uint8(clamp(channels[2], 0, 255)),
		A: uint8(clamp(channels[3], 0, 1) * 255),
	}, true
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

// parsePx reads a length in px. Unitless numbers are accepted as px.
func parsePx(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "px")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
