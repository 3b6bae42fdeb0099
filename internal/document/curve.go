package document

import (
	"math"
	"sort"
)

// Interpolation selects how a curve reaches a point from its predecessor.
type Interpolation string

const (
	InterpBezier   Interpolation = "bezier"
	InterpLinear   Interpolation = "linear"
	InterpConstant Interpolation = "constant"
)

// Coordinate is one (frame, value) pair. X is a 1-based frame number,
// stored as float64 but kept whole-valued by every mutation.
type Coordinate struct {
	X float64 `json:"X"`
	Y float64 `json:"Y"`
}

// Point is one keyframe of a Curve. Bezier handles are offsets relative
// to Co; nil handles mean the default ease shape.
type Point struct {
	Co            Coordinate    `json:"co"`
	Interpolation Interpolation `json:"interpolation"`
	HandleLeft    *Coordinate   `json:"handle_left,omitempty"`
	HandleRight   *Coordinate   `json:"handle_right,omitempty"`
}

// Curve is an animation track for one property: an ordered sequence of
// points, strictly increasing in frame. This is the serialization contract
// with the persistence layer.
type Curve struct {
	Points []Point `json:"Points"`
}

// NewLinearCurve builds a two-point linear curve spanning the given frames.
func NewLinearCurve(startFrame, startValue, endFrame, endValue float64) *Curve {
	return &Curve{Points: []Point{
		{Co: Coordinate{X: startFrame, Y: startValue}, Interpolation: InterpLinear},
		{Co: Coordinate{X: endFrame, Y: endValue}, Interpolation: InterpLinear},
	}}
}

// NewConstantCurve builds a single-point curve holding one value.
func NewConstantCurve(frame, value float64) *Curve {
	return &Curve{Points: []Point{
		{Co: Coordinate{X: frame, Y: value}, Interpolation: InterpConstant},
	}}
}

func (c *Curve) Len() int { return len(c.Points) }

// MinX returns the first point's frame, or 0 for an empty curve.
func (c *Curve) MinX() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return c.Points[0].Co.X
}

// MaxX returns the last point's frame, or 0 for an empty curve.
func (c *Curve) MaxX() float64 {
	if len(c.Points) == 0 {
		return 0
	}
	return c.Points[len(c.Points)-1].Co.X
}

// Sort orders points by frame. Stable so that a later-edited duplicate
// stays after an earlier one until Dedupe resolves it.
func (c *Curve) Sort() {
	sort.SliceStable(c.Points, func(i, j int) bool {
		return c.Points[i].Co.X < c.Points[j].Co.X
	})
}

// Dedupe removes points that share a frame, keeping the most recently
// edited (last in slice order) value. Points must already be sorted.
func (c *Curve) Dedupe() {
	if len(c.Points) < 2 {
		return
	}
	out := c.Points[:0]
	for _, p := range c.Points {
		if len(out) > 0 && out[len(out)-1].Co.X == p.Co.X {
			out[len(out)-1] = p
			continue
		}
		out = append(out, p)
	}
	c.Points = out
}

// EnsureMonotonic enforces strictly increasing frames by nudging any
// collision forward one frame. Two points collapsing onto the same frame
// would make the curve ill-defined.
func (c *Curve) EnsureMonotonic() {
	c.Sort()
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].Co.X <= c.Points[i-1].Co.X {
			c.Points[i].Co.X = c.Points[i-1].Co.X + 1
		}
	}
}

// AddPoint inserts or replaces the point at the given frame, keeping the
// new value when a point already exists there.
func (c *Curve) AddPoint(frame, value float64, interp Interpolation) {
	frame = math.Round(frame)
	for i := range c.Points {
		if c.Points[i].Co.X == frame {
			c.Points[i].Co.Y = value
			c.Points[i].Interpolation = interp
			return
		}
	}
	c.Points = append(c.Points, Point{
		Co:            Coordinate{X: frame, Y: value},
		Interpolation: interp,
	})
	c.Sort()
}

// RemovePoint deletes the point at the given frame, if present.
func (c *Curve) RemovePoint(frame float64) bool {
	for i := range c.Points {
		if c.Points[i].Co.X == frame {
			c.Points = append(c.Points[:i], c.Points[i+1:]...)
			return true
		}
	}
	return false
}

// PointAt returns the point exactly on the given frame, if any.
func (c *Curve) PointAt(frame float64) (*Point, bool) {
	for i := range c.Points {
		if c.Points[i].Co.X == frame {
			return &c.Points[i], true
		}
	}
	return nil, false
}

// ValueAt evaluates the curve at a frame. Before the first point the first
// value holds; after the last point the last value holds.
func (c *Curve) ValueAt(frame float64) float64 {
	n := len(c.Points)
	if n == 0 {
		return 0
	}
	if frame <= c.Points[0].Co.X {
		return c.Points[0].Co.Y
	}
	if frame >= c.Points[n-1].Co.X {
		return c.Points[n-1].Co.Y
	}

	// Find the segment [prev, next] containing the frame.
	i := sort.Search(n, func(i int) bool { return c.Points[i].Co.X >= frame })
	next := c.Points[i]
	prev := c.Points[i-1]
	if next.Co.X == frame {
		return next.Co.Y
	}

	switch next.Interpolation {
	case InterpConstant:
		return prev.Co.Y
	case InterpBezier:
		return bezierValue(prev, next, frame)
	default:
		t := (frame - prev.Co.X) / (next.Co.X - prev.Co.X)
		return prev.Co.Y + (next.Co.Y-prev.Co.Y)*t
	}
}

// bezierValue evaluates the cubic segment ending at next. Handles are
// relative offsets from their point; missing handles get the default
// one-third ease shape.
func bezierValue(prev, next Point, frame float64) float64 {
	dx := next.Co.X - prev.Co.X
	h0 := Coordinate{X: dx / 3, Y: 0}
	h1 := Coordinate{X: -dx / 3, Y: 0}
	if prev.HandleRight != nil {
		h0 = *prev.HandleRight
	}
	if next.HandleLeft != nil {
		h1 = *next.HandleLeft
	}

	p0x, p0y := prev.Co.X, prev.Co.Y
	p1x, p1y := prev.Co.X+h0.X, prev.Co.Y+h0.Y
	p2x, p2y := next.Co.X+h1.X, next.Co.Y+h1.Y
	p3x, p3y := next.Co.X, next.Co.Y

	// Solve for the parameter where the bezier's X equals the frame.
	// X(t) is monotonic for well-formed handles; bisect.
	lo, hi := 0.0, 1.0
	for range 40 {
		mid := (lo + hi) / 2
		x := cubicAt(p0x, p1x, p2x, p3x, mid)
		if x < frame {
			lo = mid
		} else {
			hi = mid
		}
	}
	t := (lo + hi) / 2
	return cubicAt(p0y, p1y, p2y, p3y, t)
}

func cubicAt(a, b, c, d, t float64) float64 {
	mt := 1 - t
	return a*mt*mt*mt + 3*b*mt*mt*t + 3*c*mt*t*t + d*t*t*t
}

// ScaleX rescales every frame by scale anchored at anchor, clamping the
// result to [lo, hi], then restores strict monotonic ordering. Bezier
// handle X offsets scale with the frames.
func (c *Curve) ScaleX(scale, anchor, lo, hi float64) {
	for i := range c.Points {
		p := &c.Points[i]
		x := anchor + (p.Co.X-anchor)*scale
		p.Co.X = math.Round(math.Min(math.Max(x, lo), hi))
		if p.HandleLeft != nil {
			p.HandleLeft.X *= scale
		}
		if p.HandleRight != nil {
			p.HandleRight.X *= scale
		}
	}
	c.EnsureMonotonic()
}

// MirrorX reflects frames about the given axis and swaps each point's
// bezier handles so the curve presents the same shape traversed backward.
func (c *Curve) MirrorX(axis float64) {
	for i := range c.Points {
		p := &c.Points[i]
		p.Co.X = math.Round(axis - p.Co.X)
		left, right := p.HandleLeft, p.HandleRight
		p.HandleLeft, p.HandleRight = right, left
		if p.HandleLeft != nil {
			p.HandleLeft.X = -p.HandleLeft.X
		}
		if p.HandleRight != nil {
			p.HandleRight.X = -p.HandleRight.X
		}
	}
	c.EnsureMonotonic()
}

// ShiftX moves every frame by delta.
func (c *Curve) ShiftX(delta float64) {
	for i := range c.Points {
		c.Points[i].Co.X = math.Round(c.Points[i].Co.X + delta)
	}
}

// Clone deep-copies the curve, including handles.
func (c *Curve) Clone() *Curve {
	out := &Curve{Points: make([]Point, len(c.Points))}
	for i, p := range c.Points {
		cp := p
		if p.HandleLeft != nil {
			h := *p.HandleLeft
			cp.HandleLeft = &h
		}
		if p.HandleRight != nil {
			h := *p.HandleRight
			cp.HandleRight = &h
		}
		out.Points[i] = cp
	}
	return out
}

// Equal compares two curves point-for-point, including handles.
func (c *Curve) Equal(other *Curve) bool {
	if len(c.Points) != len(other.Points) {
		return false
	}
	for i := range c.Points {
		a, b := c.Points[i], other.Points[i]
		if a.Co != b.Co || a.Interpolation != b.Interpolation {
			return false
		}
		if !coordPtrEqual(a.HandleLeft, b.HandleLeft) || !coordPtrEqual(a.HandleRight, b.HandleRight) {
			return false
		}
	}
	return true
}

func coordPtrEqual(a, b *Coordinate) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Monotonic reports whether frames are strictly increasing.
func (c *Curve) Monotonic() bool {
	for i := 1; i < len(c.Points); i++ {
		if c.Points[i].Co.X <= c.Points[i-1].Co.X {
			return false
		}
	}
	return true
}
