package document

import (
	"encoding/json"
	"testing"
)

func TestProperty_JSONVariants(t *testing.T) {
	in := map[string]*Property{
		"alpha": ScalarProperty(0.5),
		"time":  CurveProperty(NewLinearCurve(1, 1, 61, 61)),
		"meta":  ListProperty(json.RawMessage(`["a","b"]`)),
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]*Property
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p := out["alpha"]; p.Kind != PropScalar || p.Scalar != 0.5 {
		t.Errorf("alpha = %+v, want scalar 0.5", p)
	}
	if p := out["time"]; p.Kind != PropKeyframes || p.Curve == nil || p.Curve.Len() != 2 {
		t.Errorf("time = %+v, want 2-point curve", p)
	}
	if p := out["meta"]; p.Kind != PropList || string(p.List) != `["a","b"]` {
		t.Errorf("meta = %+v, want raw list", p)
	}
}

func TestEnsureCurve_PromotesScalar(t *testing.T) {
	props := map[string]*Property{
		PropVolume: ScalarProperty(0.7),
	}
	c := EnsureCurve(props, PropVolume, 1.0)
	if c.Len() != 1 || c.Points[0].Co.Y != 0.7 {
		t.Errorf("promoted curve = %+v, want single point at scalar value", c.Points)
	}
	if props[PropVolume].Kind != PropKeyframes {
		t.Error("property should now be keyframed")
	}
	// A second call returns the same curve, not a new one.
	if EnsureCurve(props, PropVolume, 1.0) != c {
		t.Error("EnsureCurve should be stable once promoted")
	}
}

func TestAllCurves_IncludesEffectCurves(t *testing.T) {
	clip := &Clip{
		ID: "clip_a",
		Properties: map[string]*Property{
			PropAlpha:  CurveProperty(NewLinearCurve(1, 0, 31, 1)),
			PropVolume: ScalarProperty(1), // scalar: not animated
		},
		Effects: []*Effect{{
			ID: "fx_blur",
			Properties: map[string]*Property{
				"radius": CurveProperty(NewLinearCurve(1, 0, 11, 4)),
			},
		}},
	}

	curves := AllCurves(clip)
	if len(curves) != 2 {
		t.Fatalf("got %d curves, want 2", len(curves))
	}
	if _, ok := curves[PropAlpha]; !ok {
		t.Error("missing clip alpha curve")
	}
	if _, ok := curves["fx_blur/radius"]; !ok {
		t.Error("missing effect curve under effectID/property key")
	}
}

func TestFrameConversions(t *testing.T) {
	fps := Fraction{Num: 30, Den: 1}

	tests := []struct {
		seconds float64
		frame   float64
	}{
		{0, 1},
		{1, 31},
		{10, 301},
	}
	for _, tt := range tests {
		if got := FrameOf(tt.seconds, fps); got != tt.frame {
			t.Errorf("FrameOf(%v) = %v, want %v", tt.seconds, got, tt.frame)
		}
		if got := SecondsOf(tt.frame, fps); got != tt.seconds {
			t.Errorf("SecondsOf(%v) = %v, want %v", tt.frame, got, tt.seconds)
		}
	}

	if got := RoundToFrame(2.01, fps); got != 2.0 {
		t.Errorf("RoundToFrame(2.01) = %v, want 2.0", got)
	}
	if got := RoundToFrame(2.02, fps); got != 61.0/30 {
		t.Errorf("RoundToFrame(2.02) = %v, want 61/30", got)
	}
}
