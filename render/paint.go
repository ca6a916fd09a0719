package render

import (
	"image/color"
	"math"
)

// Rect is a box in CSS pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// DisplayCommand is one painting operation.
type DisplayCommand interface {
	Execute(c *Canvas)
}

// SolidColorCommand fills a rectangle.
type SolidColorCommand struct {
	Color color.RGBA
	Rect  Rect
}

func (cmd *SolidColorCommand) Execute(c *Canvas) {
	c.FillRect(int(cmd.Rect.X), int(cmd.Rect.Y), int(cmd.Rect.Width), int(cmd.Rect.Height), cmd.Color)
}

// BorderCommand paints a solid border of equal width inside Rect.
type BorderCommand struct {
	Color color.RGBA
	Rect  Rect
	Width float64
}

func (cmd *BorderCommand) Execute(c *Canvas) {
	x, y := int(cmd.Rect.X), int(cmd.Rect.Y)
	w, h := int(cmd.Rect.Width), int(cmd.Rect.Height)
	bw := int(cmd.Width)

	c.FillRect(x, y, w, bw, cmd.Color)
	c.FillRect(x, y+h-bw, w, bw, cmd.Color)
	c.FillRect(x, y, bw, h, cmd.Color)
	c.FillRect(x+w-bw, y, bw, h, cmd.Color)
}

// boxOf returns n's box relative to its parent. Missing sizes fall back to
// the given defaults.
func boxOf(n *node, defWidth, defHeight float64) Rect {
	r := Rect{Width: defWidth, Height: defHeight}
	if v, ok := parsePx(n.style["left"]); ok {
		r.X = v
	}
	if v, ok := parsePx(n.style["top"]); ok {
		r.Y = v
	}
	if v, ok := parsePx(n.style["width"]); ok {
		r.Width = v
	}
	if v, ok := parsePx(n.style["height"]); ok {
		r.Height = v
	}
	return r
}

// absoluteBox returns n's box in document coordinates.
func absoluteBox(n *node, viewport Rect) Rect {
	r := boxOf(n, viewport.Width, viewport.Height)
	for p := n.parent; p != nil; p = p.parent {
		pr := boxOf(p, 0, 0)
		r.X += pr.X
		r.Y += pr.Y
	}
	return r
}

// buildDisplayList paints n and its descendants in tree order, with n at the
// origin.
func buildDisplayList(n *node, width, height float64) []DisplayCommand {
	var list []DisplayCommand
	paintNode(n, Rect{Width: width, Height: height}, &list)
	return list
}

func paintNode(n *node, box Rect, list *[]DisplayCommand) {
	if n.style["display"] == "none" {
		return
	}
	if bg, ok := parseColor(n.style["background-color"]); ok && bg.A > 0 {
		*list = append(*list, &SolidColorCommand{Color: bg, Rect: box})
	}
	if bw, ok := parsePx(n.style["border-width"]); ok && bw > 0 {
		col, ok := parseColor(n.style["border-color"])
		if !ok {
			col = color.RGBA{A: 255}
		}
		*list = append(*list, &BorderCommand{Color: col, Rect: box, Width: bw})
	}

	for _, child := range n.children {
		cb := boxOf(child, box.Width, 0)
		cb.X += box.X
		cb.Y += box.Y
		paintNode(child, cb, list)
	}
}

// canvasSize rounds a box size up to whole pixels, at least one.
func canvasSize(r Rect) (int, int) {
	return max(1, int(math.Ceil(r.Width))), max(1, int(math.Ceil(r.Height)))
}
