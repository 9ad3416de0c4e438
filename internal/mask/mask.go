// Package mask builds purely geometric binary masks over an image plane:
// circles, annuli, and corner discs. It performs no I/O, mirroring the
// separation periph.io/x/periph keeps between conn (wire/geometry contracts)
// and devices (actual hardware access) — MaskLib is conn-shaped: pure,
// deterministic, and image-size-keyed.
package mask

import (
	"image"
	"math"
)

// Mask is a binary selection over a rectangular pixel grid. A true entry
// means the pixel at that offset is included in the masked region.
type Mask struct {
	Width, Height int
	Bits          []bool
}

// New allocates a Mask of the given size with every pixel excluded.
func New(w, h int) *Mask {
	return &Mask{Width: w, Height: h, Bits: make([]bool, w*h)}
}

// At reports whether the pixel at (x, y) is included. Out-of-bounds points
// are always excluded.
func (m *Mask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Bits[y*m.Width+x]
}

func (m *Mask) set(x, y int, v bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	m.Bits[y*m.Width+x] = v
}

// Invert returns a new Mask with every bit flipped. §4.3's "invert-mask
// semantics" for the outer annulus reuse the same underlying mask data with
// the boolean complement applied before counting, which this implements.
func (m *Mask) Invert() *Mask {
	out := New(m.Width, m.Height)
	for i, b := range m.Bits {
		out.Bits[i] = !b
	}
	return out
}

// Count returns the number of included pixels.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Circle fills a filled disc of the given centre and radius.
func Circle(w, h int, centre image.Point, radius float64) *Mask {
	m := New(w, h)
	r2 := radius * radius
	for y := 0; y < h; y++ {
		dy := float64(y - centre.Y)
		for x := 0; x < w; x++ {
			dx := float64(x - centre.X)
			if dx*dx+dy*dy <= r2 {
				m.set(x, y, true)
			}
		}
	}
	return m
}

// Annulus fills the ring between innerRadius and outerRadius (inclusive),
// centred at centre. outerRadius may be math.Inf(1) to mean "to infinity",
// used for the fisheye's unbounded outer annulus (§3 MaskPlan).
func Annulus(w, h int, centre image.Point, innerRadius, outerRadius float64) *Mask {
	m := New(w, h)
	in2 := innerRadius * innerRadius
	out2 := outerRadius * outerRadius
	for y := 0; y < h; y++ {
		dy := float64(y - centre.Y)
		for x := 0; x < w; x++ {
			dx := float64(x - centre.X)
			d2 := dx*dx + dy*dy
			if d2 >= in2 && (math.IsInf(outerRadius, 1) || d2 <= out2) {
				m.set(x, y, true)
			}
		}
	}
	return m
}

// Corners fills four discs of the given radius, one centred at each corner
// of the image rectangle, clipped to the rectangle.
func Corners(w, h int, radius float64) *Mask {
	m := New(w, h)
	corners := []image.Point{
		{0, 0}, {w - 1, 0}, {0, h - 1}, {w - 1, h - 1},
	}
	r2 := radius * radius
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			for _, c := range corners {
				dx := float64(x - c.X)
				dy := float64(y - c.Y)
				if dx*dx+dy*dy <= r2 {
					m.set(x, y, true)
					break
				}
			}
		}
	}
	return m
}

// PairedRings applies a list of (outer, inner) radius pairs in descending
// order of outer radius: each pair fills white out to outer and punches
// black back to inner, so overlapping pairs produce alternating bands per
// the spec's "paired radii" mask specification (§4.6).
func PairedRings(w, h int, centre image.Point, pairs [][2]float64) *Mask {
	sorted := make([][2]float64, len(pairs))
	copy(sorted, pairs)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j][0] > sorted[j-1][0]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	m := New(w, h)
	for _, p := range sorted {
		outer, inner := p[0], p[1]
		out2 := outer * outer
		in2 := inner * inner
		for y := 0; y < h; y++ {
			dy := float64(y - centre.Y)
			for x := 0; x < w; x++ {
				dx := float64(x - centre.X)
				d2 := dx*dx + dy*dy
				if d2 <= out2 {
					m.set(x, y, d2 > in2)
				}
			}
		}
	}
	return m
}

// ConcentricRings returns a sequence of annulus masks of width `margin`,
// spanning from startRadius outward to maxRadius, per the MaskPlan
// concentric-annulus definition in §3.
func ConcentricRings(w, h int, centre image.Point, startRadius, maxRadius, margin float64) []*Mask {
	var rings []*Mask
	for r := startRadius; r < maxRadius; r += margin {
		outer := r + margin
		if outer > maxRadius {
			outer = maxRadius
		}
		rings = append(rings, Annulus(w, h, centre, r, outer))
	}
	return rings
}
