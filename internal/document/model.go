package document

import "math"

// Kind identifies what class of timeline object an id refers to.
// Selection entries, hit results, and update notifications all carry one.
type Kind string

const (
	KindClip       Kind = "clip"
	KindTransition Kind = "transition"
	KindEffect     Kind = "effect"
	KindMarker     Kind = "marker"
	KindTrack      Kind = "track"
)

// Fraction is an exact frames-per-second ratio (e.g. 30000/1001).
type Fraction struct {
	Num int `json:"num"`
	Den int `json:"den"`
}

func (f Fraction) Float() float64 {
	if f.Den == 0 {
		return 0
	}
	return float64(f.Num) / float64(f.Den)
}

// Project holds the composition-level settings the engines read, and the
// single field they may write: Duration (extend-to-fit).
type Project struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FPS      Fraction `json:"fps"`
	Width    int      `json:"width"`
	Height   int      `json:"height"`
	Duration float64  `json:"duration"` // timeline length in seconds

	DefaultTransitionLength float64 `json:"defaultTransitionLength"`
	DefaultImageLength      float64 `json:"defaultImageLength"`
}

// Track is an ordered lane. Clips and transitions reference it by Number,
// not by containment.
type Track struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
	Label  string `json:"label"`
	Lock   bool   `json:"lock"`
}

// Marker is a named position on the ruler; a snap candidate.
type Marker struct {
	ID       string  `json:"id"`
	Position float64 `json:"position"`
	Icon     string  `json:"icon"`
}

// Segment is derived per-range metadata attached to a clip (e.g. a content
// description produced by media analysis). Times are in source seconds and
// must be re-windowed when the clip is sliced.
type Segment struct {
	Start       float64 `json:"start"`
	End         float64 `json:"end"`
	Description string  `json:"description"`
}

// RepeatSource is the side-cache written on first repeat so a later reset
// can restore the exact pre-repeat state. Idempotent: re-running repeat
// recomputes from this snapshot, never from the previous repeat's output.
type RepeatSource struct {
	Start    float64           `json:"start"`
	End      float64           `json:"end"`
	Duration float64           `json:"duration"`
	Curves   map[string]*Curve `json:"curves"`
}

// Clip is a placed instance of a media source.
// Invariants: End >= Start, Position >= 0.
type Clip struct {
	ID       string  `json:"id"`
	FileID   string  `json:"fileId"`
	Title    string  `json:"title"`
	Layer    int     `json:"layer"`
	Position float64 `json:"position"` // timeline seconds
	Start    float64 `json:"start"`    // trim window, source seconds
	End      float64 `json:"end"`

	Properties map[string]*Property `json:"properties"`
	Effects    []*Effect            `json:"effects,omitempty"`
	Segments   []Segment            `json:"segments,omitempty"`

	RepeatSource *RepeatSource `json:"repeatSource,omitempty"`
}

func (c *Clip) Duration() float64 { return c.End - c.Start }

// Transition is like a clip but carries exactly two animated properties
// (brightness, contrast) and no media source.
type Transition struct {
	ID       string  `json:"id"`
	Layer    int     `json:"layer"`
	Position float64 `json:"position"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`

	Properties map[string]*Property `json:"properties"`
}

func (t *Transition) Duration() float64 { return t.End - t.Start }

// Effect is owned by exactly one clip and embedded in its effect list.
type Effect struct {
	ID         string               `json:"id"`
	Type       string               `json:"type"`
	Properties map[string]*Property `json:"properties"`
}

// Item is the common view of anything placed on a track. The geometry,
// snap, and slice engines operate on items without caring which kind.
type Item interface {
	ItemID() string
	ItemKind() Kind
	TrackNumber() int
	TimeRange() (position, start, end float64)
	SetTimeRange(position, start, end float64)
	PropertyMap() map[string]*Property
}

func (c *Clip) ItemID() string   { return c.ID }
func (c *Clip) ItemKind() Kind   { return KindClip }
func (c *Clip) TrackNumber() int { return c.Layer }
func (c *Clip) TimeRange() (float64, float64, float64) {
	return c.Position, c.Start, c.End
}
func (c *Clip) SetTimeRange(position, start, end float64) {
	c.Position, c.Start, c.End = position, start, end
}
func (c *Clip) PropertyMap() map[string]*Property { return c.Properties }

func (t *Transition) ItemID() string   { return t.ID }
func (t *Transition) ItemKind() Kind   { return KindTransition }
func (t *Transition) TrackNumber() int { return t.Layer }
func (t *Transition) TimeRange() (float64, float64, float64) {
	return t.Position, t.Start, t.End
}
func (t *Transition) SetTimeRange(position, start, end float64) {
	t.Position, t.Start, t.End = position, start, end
}
func (t *Transition) PropertyMap() map[string]*Property { return t.Properties }

// Doc is the timeline document: an arena of objects keyed by stable ids.
// Every cross-reference (clip -> track, selection -> object) is an id
// lookup through these maps, never an owning pointer.
type Doc struct {
	Project     Project                `json:"project"`
	Tracks      map[string]*Track      `json:"tracks"`
	Clips       map[string]*Clip       `json:"clips"`
	Transitions map[string]*Transition `json:"transitions"`
	Markers     map[string]*Marker     `json:"markers"`
}

func NewDoc(project Project) *Doc {
	return &Doc{
		Project:     project,
		Tracks:      make(map[string]*Track),
		Clips:       make(map[string]*Clip),
		Transitions: make(map[string]*Transition),
		Markers:     make(map[string]*Marker),
	}
}

// Item resolves an id of clip or transition kind through the arena.
func (d *Doc) Item(id string) (Item, bool) {
	if c, ok := d.Clips[id]; ok {
		return c, true
	}
	if t, ok := d.Transitions[id]; ok {
		return t, true
	}
	return nil, false
}

// ItemsOnTrack returns all clips and transitions on the given track number.
func (d *Doc) ItemsOnTrack(number int) []Item {
	var items []Item
	for _, c := range d.Clips {
		if c.Layer == number {
			items = append(items, c)
		}
	}
	for _, t := range d.Transitions {
		if t.Layer == number {
			items = append(items, t)
		}
	}
	return items
}

// TrackByNumber resolves a layer number to its track, if any.
func (d *Doc) TrackByNumber(number int) *Track {
	for _, t := range d.Tracks {
		if t.Number == number {
			return t
		}
	}
	return nil
}

// TrackLocked reports whether the track holding the given layer number is
// locked. A missing track is treated as unlocked.
func (d *Doc) TrackLocked(number int) bool {
	if t := d.TrackByNumber(number); t != nil {
		return t.Lock
	}
	return false
}

// MaxEndTime returns the latest timeline second covered by any item.
func (d *Doc) MaxEndTime() float64 {
	var maxEnd float64
	for _, c := range d.Clips {
		if end := c.Position + c.Duration(); end > maxEnd {
			maxEnd = end
		}
	}
	for _, t := range d.Transitions {
		if end := t.Position + t.Duration(); end > maxEnd {
			maxEnd = end
		}
	}
	return maxEnd
}

// FindEffect resolves an effect id to its owning clip and the effect.
func (d *Doc) FindEffect(effectID string) (*Clip, *Effect, bool) {
	for _, c := range d.Clips {
		for _, fx := range c.Effects {
			if fx.ID == effectID {
				return c, fx, true
			}
		}
	}
	return nil, nil, false
}

// RoundToFrame snaps a time in seconds to the nearest whole frame at the
// given FPS.
func RoundToFrame(seconds float64, fps Fraction) float64 {
	rate := fps.Float()
	if rate <= 0 {
		return seconds
	}
	return math.Round(seconds*rate) / rate
}

// FrameOf converts a time in seconds to a 1-based frame number.
func FrameOf(seconds float64, fps Fraction) float64 {
	return math.Round(seconds*fps.Float()) + 1
}

// SecondsOf converts a 1-based frame number back to seconds.
func SecondsOf(frame float64, fps Fraction) float64 {
	rate := fps.Float()
	if rate <= 0 {
		return 0
	}
	return (frame - 1) / rate
}
