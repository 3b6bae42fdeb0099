package document

import (
	"github.com/cutline/cutline/backend-go/internal/typeid"
)

// NewEmptyDoc creates an empty timeline for a new project: three unlocked
// tracks and no clips.
func NewEmptyDoc(projectID, projectName string) *Doc {
	doc := NewDoc(Project{
		ID:                      projectID,
		Name:                    projectName,
		FPS:                     Fraction{Num: 30, Den: 1},
		Width:                   1920,
		Height:                  1080,
		Duration:                300,
		DefaultTransitionLength: 1.0,
		DefaultImageLength:      8.0,
	})
	for i := 1; i <= 3; i++ {
		id := typeid.NewTrackID()
		doc.Tracks[id] = &Track{ID: id, Number: i, Label: trackLabel(i)}
	}
	return doc
}

func trackLabel(n int) string {
	return "Track " + string(rune('0'+n))
}

// NewSampleDoc builds the deterministic demo timeline used by the
// anonymous playground room: two video tracks, three clips with animated
// alpha/scale/time curves, one transition, and two markers.
func NewSampleDoc(projectID string) *Doc {
	doc := NewEmptyDoc(projectID, "Sample")

	clipA := &Clip{
		ID:       typeid.NewClipID(),
		FileID:   typeid.NewFileID(),
		Title:    "intro.mp4",
		Layer:    1,
		Position: 0,
		Start:    0,
		End:      10,
		Properties: map[string]*Property{
			PropAlpha: CurveProperty(NewLinearCurve(1, 0, 31, 1)), // 1s fade in
			PropScaleX: CurveProperty(&Curve{Points: []Point{
				{Co: Coordinate{X: 1, Y: 1.0}, Interpolation: InterpBezier},
				{Co: Coordinate{X: 301, Y: 1.2}, Interpolation: InterpBezier},
			}}),
			PropScaleY: CurveProperty(&Curve{Points: []Point{
				{Co: Coordinate{X: 1, Y: 1.0}, Interpolation: InterpBezier},
				{Co: Coordinate{X: 301, Y: 1.2}, Interpolation: InterpBezier},
			}}),
			PropVolume: ScalarProperty(1.0),
		},
		Segments: []Segment{
			{Start: 0, End: 4.5, Description: "presenter walks on stage"},
			{Start: 4.5, End: 10, Description: "title card"},
		},
	}

	clipB := &Clip{
		ID:       typeid.NewClipID(),
		FileID:   typeid.NewFileID(),
		Title:    "broll.mp4",
		Layer:    1,
		Position: 9.5,
		Start:    2,
		End:      8,
		Properties: map[string]*Property{
			PropAlpha:  ScalarProperty(1.0),
			PropVolume: ScalarProperty(0.6),
			PropTime:   CurveProperty(NewLinearCurve(1, 61, 181, 241)),
		},
	}

	clipC := &Clip{
		ID:       typeid.NewClipID(),
		FileID:   typeid.NewFileID(),
		Title:    "music.wav",
		Layer:    2,
		Position: 0,
		Start:    0,
		End:      16,
		Properties: map[string]*Property{
			PropVolume: CurveProperty(&Curve{Points: []Point{
				{Co: Coordinate{X: 1, Y: 0}, Interpolation: InterpLinear},
				{Co: Coordinate{X: 61, Y: 0.8}, Interpolation: InterpLinear},
				{Co: Coordinate{X: 421, Y: 0.8}, Interpolation: InterpLinear},
				{Co: Coordinate{X: 481, Y: 0}, Interpolation: InterpLinear},
			}}),
		},
	}

	tran := &Transition{
		ID:       typeid.NewTransitionID(),
		Layer:    1,
		Position: 9.5,
		Start:    0,
		End:      0.5,
		Properties: map[string]*Property{
			PropBrightness: CurveProperty(NewLinearCurve(1, 1, 16, -1)),
			PropContrast:   CurveProperty(NewConstantCurve(1, 3)),
		},
	}

	for _, c := range []*Clip{clipA, clipB, clipC} {
		doc.Clips[c.ID] = c
	}
	doc.Transitions[tran.ID] = tran

	m1 := &Marker{ID: typeid.NewMarkerID(), Position: 5, Icon: "blue"}
	m2 := &Marker{ID: typeid.NewMarkerID(), Position: 12, Icon: "green"}
	doc.Markers[m1.ID] = m1
	doc.Markers[m2.ID] = m2

	return doc
}
