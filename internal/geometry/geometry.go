// Package geometry converts the timeline document plus scroll/zoom state
// into pixel rectangles and answers hit-test queries. It is a pure
// function of (document, viewport): no side effects, recomputed on demand
// through a dirty flag.
package geometry

// Rect is an axis-aligned rectangle in view (widget) pixels unless noted.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.W && y >= r.Y && y <= r.Y+r.H
}

func (r Rect) IsEmpty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Right() float64  { return r.X + r.W }
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Intersects reports whether two rectangles overlap.
func (r Rect) Intersects(other Rect) bool {
	return r.X < other.Right() && other.X < r.Right() &&
		r.Y < other.Bottom() && other.Y < r.Bottom()
}

// Viewport is the scroll/zoom/sizing state of the timeline widget.
type Viewport struct {
	Width  float64
	Height float64

	ScrollX float64 // world pixels scrolled horizontally
	ScrollY float64 // world pixels scrolled vertically

	TickPixels float64 // pixels per ruler tick
	Zoom       float64 // seconds per ruler tick

	TrackHeight    float64
	TrackSeparator float64
	RulerHeight    float64

	PanelVisible bool
	PanelWidth   float64 // track-name panel on the left
}

// DefaultViewport returns the sizing used by a fresh session.
func DefaultViewport(width, height float64) Viewport {
	return Viewport{
		Width:          width,
		Height:         height,
		TickPixels:     100,
		Zoom:           2, // seconds per tick
		TrackHeight:    62,
		TrackSeparator: 2,
		RulerHeight:    32,
		PanelVisible:   true,
		PanelWidth:     160,
	}
}

// PixelsPerSecond is the horizontal scale of the timeline body.
func (v Viewport) PixelsPerSecond() float64 {
	if v.Zoom <= 0 {
		return v.TickPixels
	}
	return v.TickPixels / v.Zoom
}

// TrackStride is the vertical distance between consecutive track tops.
func (v Viewport) TrackStride() float64 { return v.TrackHeight + v.TrackSeparator }

// BodyOriginX is the view x where world x zero lands before scrolling.
func (v Viewport) BodyOriginX() float64 {
	if v.PanelVisible {
		return v.PanelWidth
	}
	return 0
}

// TimeToWorldX converts timeline seconds to world pixels.
func (v Viewport) TimeToWorldX(seconds float64) float64 {
	return seconds * v.PixelsPerSecond()
}

// WorldXToTime converts world pixels back to timeline seconds.
func (v Viewport) WorldXToTime(wx float64) float64 {
	pps := v.PixelsPerSecond()
	if pps <= 0 {
		return 0
	}
	return wx / pps
}

// WorldXToView projects a world x into view coordinates. Keyframe marks
// are stored in world coordinates precisely so scrolling only needs this
// cheap re-projection, not a layout recompute.
func (v Viewport) WorldXToView(wx float64) float64 {
	return wx - v.ScrollX + v.BodyOriginX()
}

// ViewXToWorld is the inverse projection.
func (v Viewport) ViewXToWorld(vx float64) float64 {
	return vx + v.ScrollX - v.BodyOriginX()
}

// ViewXToTime converts a view x directly to timeline seconds.
func (v Viewport) ViewXToTime(vx float64) float64 {
	return v.WorldXToTime(v.ViewXToWorld(vx))
}
