package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	xdraw "golang.org/x/image/draw"
)

// Canvas is an RGBA pixel surface in CSS pixels.
type Canvas struct {
	Pixels []color.RGBA
	Width  int
	Height int
}

// NewCanvas creates a canvas cleared to white.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{
		Pixels: make([]color.RGBA, width*height),
		Width:  width,
		Height: height,
	}
	c.Clear(color.RGBA{255, 255, 255, 255})
	return c
}

// Clear fills the whole canvas with col.
func (c *Canvas) Clear(col color.RGBA) {
	for i := range c.Pixels {
		c.Pixels[i] = col
	}
}

// GetPixel returns the pixel at x, y or transparent outside the canvas.
func (c *Canvas) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return color.RGBA{}
	}
	return c.Pixels[y*c.Width+x]
}

// SetPixelBlend composites col over the pixel at x, y (source over).
func (c *Canvas) SetPixelBlend(x, y int, col color.RGBA) {
	if x < 0 || x >= c.Width || y < 0 || y >= c.Height {
		return
	}
	idx := y*c.Width + x
	dst := c.Pixels[idx]

	srcA := float64(col.A) / 255.0
	dstA := float64(dst.A) / 255.0
	outA := srcA + dstA*(1-srcA)
	if outA == 0 {
		c.Pixels[idx] = color.RGBA{}
		return
	}

	blend := func(s, d uint8) uint8 {
		return uint8(math.Round((float64(s)*srcA + float64(d)*dstA*(1-srcA)) / outA))
	}
	c.Pixels[idx] = color.RGBA{
		R: blend(col.R, dst.R),
		G: blend(col.G, dst.G),
		B: blend(col.B, dst.B),
		A: uint8(math.Round(outA * 255)),
	}
}

// FillRect fills a rectangle clipped to the canvas. Translucent colors are
// blended.
func (c *Canvas) FillRect(x, y, width, height int, col color.RGBA) {
	x1, y1 := max(x, 0), max(y, 0)
	x2, y2 := min(x+width, c.Width), min(y+height, c.Height)

	for py := y1; py < y2; py++ {
		for px := x1; px < x2; px++ {
			if col.A < 255 {
				c.SetPixelBlend(px, py, col)
			} else {
				c.Pixels[py*c.Width+px] = col
			}
		}
	}
}

// ToImage copies the canvas into an image.RGBA.
func (c *Canvas) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, c.Width, c.Height))
	for y := 0; y < c.Height; y++ {
		for x := 0; x < c.Width; x++ {
			img.SetRGBA(x, y, c.Pixels[y*c.Width+x])
		}
	}
	return img
}

// EncodePNG scales the canvas by ratio and encodes it as PNG.
func (c *Canvas) EncodePNG(ratio float64) ([]byte, error) {
	var img image.Image = c.ToImage()
	if ratio > 0 && ratio != 1 {
		w := max(1, int(math.Ceil(float64(c.Width)*ratio)))
		h := max(1, int(math.Ceil(float64(c.Height)*ratio)))
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
		img = scaled
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
