package viewport

import "math"

// Rect is a viewport-relative box in CSS pixels, the shape returned by
// getBoundingClientRect.
type Rect struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bottom returns the bottom edge of r.
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Right returns the right edge of r.
func (r Rect) Right() float64 { return r.Left + r.Width }

// Margin grows (positive) or shrinks (negative) the root box before the
// intersection test. Same semantics as IntersectionObserver's rootMargin.
type Margin struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Ratio returns the fraction of target inside root once root is adjusted by
// m. intersects reports whether the boxes touch at all: edge-adjacent boxes
// intersect with a zero ratio. A zero-area target that intersects has ratio 1.
func Ratio(target, root Rect, m Margin) (ratio float64, intersects bool) {
	top := root.Top - m.Top
	bottom := root.Bottom() + m.Bottom
	left := root.Left - m.Left
	right := root.Right() + m.Right

	x0 := math.Max(target.Left, left)
	x1 := math.Min(target.Right(), right)
	y0 := math.Max(target.Top, top)
	y1 := math.Min(target.Bottom(), bottom)

	if x1 < x0 || y1 < y0 {
		return 0, false
	}

	area := target.Width * target.Height
	if area <= 0 {
		return 1, true
	}
	ratio = (x1 - x0) * (y1 - y0) / area
	if ratio > 1 {
		ratio = 1
	}
	return ratio, true
}

// visible applies a threshold to a Ratio result. Threshold 0 fires on any
// contact, like an IntersectionObserver with the default threshold.
func visible(ratio float64, intersects bool, threshold float64) bool {
	if !intersects {
		return false
	}
	return ratio >= threshold
}
