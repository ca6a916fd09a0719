package render

import (
	"bytes"
	"image/color"
	"image/png"
	"testing"
)

func TestNewCanvas(t *testing.T) {
	canvas := NewCanvas(100, 50)

	if canvas.Width != 100 || canvas.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", canvas.Width, canvas.Height)
	}
	if len(canvas.Pixels) != 5000 {
		t.Errorf("Pixels length = %d, want 5000", len(canvas.Pixels))
	}
	white := color.RGBA{255, 255, 255, 255}
	for i, px := range canvas.Pixels {
		if px != white {
			t.Errorf("Pixel %d = %v, want white", i, px)
			break
		}
	}
}

func TestFillRectClipping(t *testing.T) {
	canvas := NewCanvas(10, 10)
	red := color.RGBA{255, 0, 0, 255}

	canvas.FillRect(-5, -5, 10, 10, red)

	if got := canvas.GetPixel(0, 0); got != red {
		t.Errorf("pixel (0,0) = %v, want %v", got, red)
	}
	if got := canvas.GetPixel(4, 4); got != red {
		t.Errorf("pixel (4,4) = %v, want %v", got, red)
	}
	if got := canvas.GetPixel(5, 5); got == red {
		t.Errorf("pixel (5,5) should be outside the clipped rect")
	}
	if got := canvas.GetPixel(-1, 0); got != (color.RGBA{}) {
		t.Errorf("out of bounds pixel = %v, want transparent", got)
	}
}

func TestFillRectBlendsTranslucentColors(t *testing.T) {
	canvas := NewCanvas(1, 1)
	canvas.FillRect(0, 0, 1, 1, color.RGBA{0, 0, 0, 128})

	got := canvas.GetPixel(0, 0)
	if got.A != 255 {
		t.Errorf("alpha = %d, want 255", got.A)
	}
	if got.R < 120 || got.R > 135 {
		t.Errorf("red = %d, want about half of white", got.R)
	}
}

func TestEncodePNGScalesByRatio(t *testing.T) {
	canvas := NewCanvas(4, 3)
	blue := color.RGBA{0, 0, 255, 255}
	canvas.FillRect(0, 0, 4, 3, blue)

	tests := []struct {
		ratio         float64
		width, height int
	}{
		{1, 4, 3},
		{2, 8, 6},
		{0.5, 2, 2},
	}
	for _, tt := range tests {
		data, err := canvas.EncodePNG(tt.ratio)
		if err != nil {
			t.Fatalf("EncodePNG(%v): %v", tt.ratio, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("decoding: %v", err)
		}
		b := img.Bounds()
		if b.Dx() != tt.width || b.Dy() != tt.height {
			t.Errorf("ratio %v: size = %dx%d, want %dx%d", tt.ratio, b.Dx(), b.Dy(), tt.width, tt.height)
		}
		r, g, bl, _ := img.At(0, 0).RGBA()
		if r != 0 || g != 0 || bl != 0xffff {
			t.Errorf("ratio %v: pixel = %v, want blue", tt.ratio, img.At(0, 0))
		}
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.RGBA
		ok   bool
	}{
		{"red", color.RGBA{255, 0, 0, 255}, true},
		{"RebeccaPurple", color.RGBA{102, 51, 153, 255}, true},
		{"#0f0", color.RGBA{0, 255, 0, 255}, true},
		{"#00ff0080", color.RGBA{0, 255, 0, 128}, true},
		{"rgb(1, 2, 3)", color.RGBA{1, 2, 3, 255}, true},
		{"rgba(255, 0, 0, 0.5)", color.RGBA{255, 0, 0, 127}, true},
		{"rgb(100% 0% 0%)", color.RGBA{255, 0, 0, 255}, true},
		{"transparent", color.RGBA{}, true},
		{"#zzz", color.RGBA{}, false},
		{"notacolor", color.RGBA{}, false},
		{"", color.RGBA{}, false},
	}
	for _, tt := range tests {
		got, ok := parseColor(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseColor(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParsePx(t *testing.T) {
	for in, want := range map[string]float64{"10px": 10, "2.5": 2.5, " 7px ": 7} {
		got, ok := parsePx(in)
		if !ok || got != want {
			t.Errorf("parsePx(%q) = %v, %v; want %v", in, got, ok, want)
		}
	}
	if _, ok := parsePx("auto"); ok {
		t.Errorf("parsePx(auto) should fail")
	}
}
