package dom

import "testing"

func TestDOMRectEdges(t *testing.T) {
	tests := []struct {
		name                     string
		rect                     *DOMRect
		top, right, bottom, left float64
	}{
		{"positive", NewDOMRect(10, 20, 100, 50), 20, 110, 70, 10},
		{"negative width", NewDOMRect(100, 20, -50, 30), 20, 100, 50, 50},
		{"negative height", NewDOMRect(10, 100, 50, -30), 70, 60, 100, 10},
		{"empty", &DOMRect{}, 0, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.rect
			if r.Top() != tt.top || r.Right() != tt.right || r.Bottom() != tt.bottom || r.Left() != tt.left {
				t.Errorf("edges = (%v, %v, %v, %v), want (%v, %v, %v, %v)",
					r.Top(), r.Right(), r.Bottom(), r.Left(), tt.top, tt.right, tt.bottom, tt.left)
			}
		})
	}
}
