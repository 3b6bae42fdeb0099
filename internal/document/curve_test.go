package document

import (
	"math"
	"testing"
)

func pts(frames ...float64) []Point {
	out := make([]Point, len(frames))
	for i, f := range frames {
		out[i] = Point{Co: Coordinate{X: f, Y: float64(i)}, Interpolation: InterpLinear}
	}
	return out
}

func frames(c *Curve) []float64 {
	out := make([]float64, len(c.Points))
	for i, p := range c.Points {
		out[i] = p.Co.X
	}
	return out
}

func TestCurve_ScaleX(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 0}, Interpolation: InterpBezier, HandleRight: &Coordinate{X: 10, Y: 0}},
		{Co: Coordinate{X: 31, Y: 1}, Interpolation: InterpBezier},
	}}
	c.ScaleX(0.5, 1, 1, 16)

	if got := frames(c); got[0] != 1 || got[1] != 16 {
		t.Errorf("frames = %v, want [1 16]", got)
	}
	if c.Points[0].HandleRight.X != 5 {
		t.Errorf("handle X = %v, want 5 (scaled with frames)", c.Points[0].HandleRight.X)
	}
}

func TestCurve_ScaleX_CollapseStaysMonotonic(t *testing.T) {
	c := &Curve{Points: pts(1, 2, 3)}
	c.ScaleX(0.1, 1, 1, 3)

	if !c.Monotonic() {
		t.Fatalf("frames = %v, want strictly increasing", frames(c))
	}
	if c.Len() != 3 {
		t.Errorf("len = %d, want 3 (collapse nudges, never drops)", c.Len())
	}
}

func TestCurve_MirrorX(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 10}, Interpolation: InterpLinear, HandleRight: &Coordinate{X: 5, Y: 2}},
		{Co: Coordinate{X: 31, Y: 40}, Interpolation: InterpLinear},
	}}
	c.MirrorX(c.MinX() + c.MaxX())

	if got := frames(c); got[0] != 1 || got[1] != 31 {
		t.Fatalf("frames = %v, want [1 31]", got)
	}
	if c.Points[0].Co.Y != 40 || c.Points[1].Co.Y != 10 {
		t.Errorf("values = [%v %v], want [40 10]", c.Points[0].Co.Y, c.Points[1].Co.Y)
	}
	// The first point's right handle becomes the last point's left handle,
	// with its X offset negated.
	h := c.Points[1].HandleLeft
	if h == nil || h.X != -5 || h.Y != 2 {
		t.Errorf("mirrored handle = %+v, want {-5 2}", h)
	}
}

func TestCurve_MirrorX_TwiceRestores(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 1}, Interpolation: InterpBezier, HandleRight: &Coordinate{X: 4, Y: 1}},
		{Co: Coordinate{X: 61, Y: 61}, Interpolation: InterpBezier, HandleLeft: &Coordinate{X: -4, Y: -1}},
	}}
	orig := c.Clone()
	axis := c.MinX() + c.MaxX()
	c.MirrorX(axis)
	c.MirrorX(axis)

	if !c.Equal(orig) {
		t.Errorf("double mirror changed the curve: %+v", c.Points)
	}
}

func TestCurve_Dedupe_KeepsLast(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 0}},
		{Co: Coordinate{X: 5, Y: 1}},
		{Co: Coordinate{X: 5, Y: 2}},
		{Co: Coordinate{X: 9, Y: 3}},
	}}
	c.Dedupe()

	if c.Len() != 3 {
		t.Fatalf("len = %d, want 3", c.Len())
	}
	if c.Points[1].Co.Y != 2 {
		t.Errorf("value at frame 5 = %v, want 2 (most recently edited wins)", c.Points[1].Co.Y)
	}
}

func TestCurve_EnsureMonotonic(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 5, Y: 0}},
		{Co: Coordinate{X: 5, Y: 1}},
		{Co: Coordinate{X: 3, Y: 2}},
	}}
	c.EnsureMonotonic()

	want := []float64{3, 5, 6}
	for i, f := range frames(c) {
		if f != want[i] {
			t.Fatalf("frames = %v, want %v", frames(c), want)
		}
	}
}

func TestCurve_ValueAt(t *testing.T) {
	linear := NewLinearCurve(1, 0, 11, 10)
	constant := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 5}, Interpolation: InterpConstant},
		{Co: Coordinate{X: 11, Y: 9}, Interpolation: InterpConstant},
	}}

	tests := []struct {
		name  string
		curve *Curve
		frame float64
		want  float64
	}{
		{"before first holds", linear, 0, 0},
		{"after last holds", linear, 99, 10},
		{"exact point", linear, 11, 10},
		{"linear midpoint", linear, 6, 5},
		{"constant holds previous", constant, 6, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.curve.ValueAt(tt.frame); got != tt.want {
				t.Errorf("ValueAt(%v) = %v, want %v", tt.frame, got, tt.want)
			}
		})
	}
}

func TestCurve_ValueAt_BezierDefaultEase(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 0}, Interpolation: InterpBezier},
		{Co: Coordinate{X: 31, Y: 1}, Interpolation: InterpBezier},
	}}
	// Default handles are symmetric, so the midpoint frame maps to the
	// midpoint value.
	if got := c.ValueAt(16); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("ValueAt(16) = %v, want 0.5", got)
	}
}

func TestCurve_AddPoint_ReplacesExistingFrame(t *testing.T) {
	c := NewLinearCurve(1, 0, 11, 10)
	c.AddPoint(11, 99, InterpConstant)

	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	p, ok := c.PointAt(11)
	if !ok || p.Co.Y != 99 || p.Interpolation != InterpConstant {
		t.Errorf("point at 11 = %+v, want value 99 constant", p)
	}
}

func TestCurve_CloneIsIndependent(t *testing.T) {
	c := &Curve{Points: []Point{
		{Co: Coordinate{X: 1, Y: 0}, HandleRight: &Coordinate{X: 3, Y: 0}},
	}}
	dup := c.Clone()
	dup.Points[0].Co.Y = 7
	dup.Points[0].HandleRight.X = 9

	if c.Points[0].Co.Y != 0 || c.Points[0].HandleRight.X != 3 {
		t.Errorf("mutating the clone changed the original: %+v", c.Points[0])
	}
	if !c.Equal(c.Clone()) {
		t.Error("clone should compare equal to its source")
	}
}
