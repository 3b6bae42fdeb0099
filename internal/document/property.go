package document

import (
	"encoding/json"
	"fmt"
)

// Well-known animatable property names. Providers may attach extension
// properties beyond these; those round-trip through the List/raw variants.
const (
	PropScaleX    = "scale_x"
	PropScaleY    = "scale_y"
	PropLocationX = "location_x"
	PropLocationY = "location_y"
	PropAlpha     = "alpha"
	PropVolume    = "volume"
	PropRotation  = "rotation"
	PropShearX    = "shear_x"
	PropShearY    = "shear_y"
	PropTime      = "time" // output frame -> source frame remap
	PropCropLeft  = "crop_left"
	PropCropRight = "crop_right"
	PropCropTop   = "crop_top"
	PropCropBot   = "crop_bottom"

	PropBrightness = "brightness" // transitions
	PropContrast   = "contrast"
)

// PropertyKind tags the variant held by a Property.
type PropertyKind int

const (
	PropScalar PropertyKind = iota
	PropKeyframes
	PropList
)

// Property is a tagged variant: a plain scalar, an animation curve, or an
// opaque list (provider extension data). Clip/transition/effect property
// bags hold these instead of open-ended JSON values.
type Property struct {
	Kind   PropertyKind
	Scalar float64
	Curve  *Curve
	List   json.RawMessage
}

func ScalarProperty(v float64) *Property {
	return &Property{Kind: PropScalar, Scalar: v}
}

func CurveProperty(c *Curve) *Property {
	return &Property{Kind: PropKeyframes, Curve: c}
}

func ListProperty(raw json.RawMessage) *Property {
	return &Property{Kind: PropList, List: raw}
}

// MarshalJSON writes the scalar as a bare number, the curve as its
// {"Points": ...} shape, and the list verbatim.
func (p *Property) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PropScalar:
		return json.Marshal(p.Scalar)
	case PropKeyframes:
		return json.Marshal(p.Curve)
	case PropList:
		return p.List, nil
	default:
		return nil, fmt.Errorf("unknown property kind %d", p.Kind)
	}
}

// UnmarshalJSON sniffs the variant from the JSON shape.
func (p *Property) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*p = Property{Kind: PropScalar, Scalar: scalar}
		return nil
	}

	var curve struct {
		Points *[]Point `json:"Points"`
	}
	if err := json.Unmarshal(data, &curve); err == nil && curve.Points != nil {
		*p = Property{Kind: PropKeyframes, Curve: &Curve{Points: *curve.Points}}
		return nil
	}

	raw := make(json.RawMessage, len(data))
	copy(raw, data)
	*p = Property{Kind: PropList, List: raw}
	return nil
}

// Clone deep-copies the property.
func (p *Property) Clone() *Property {
	out := &Property{Kind: p.Kind, Scalar: p.Scalar}
	if p.Curve != nil {
		out.Curve = p.Curve.Clone()
	}
	if p.List != nil {
		out.List = make(json.RawMessage, len(p.List))
		copy(out.List, p.List)
	}
	return out
}

// CurveOf returns the named property's curve, or nil if the property is
// absent or not keyframed. Callers treat a nil result as an unavailable
// lane, never as an error.
func CurveOf(props map[string]*Property, name string) *Curve {
	p, ok := props[name]
	if !ok || p.Kind != PropKeyframes || p.Curve == nil {
		return nil
	}
	return p.Curve
}

// EnsureCurve returns the named property's curve, promoting a scalar to a
// single-point constant curve (or synthesizing one from fallback) when the
// property is not yet keyframed.
func EnsureCurve(props map[string]*Property, name string, fallback float64) *Curve {
	p, ok := props[name]
	if ok && p.Kind == PropKeyframes && p.Curve != nil {
		return p.Curve
	}
	value := fallback
	if ok && p.Kind == PropScalar {
		value = p.Scalar
	}
	c := NewConstantCurve(1, value)
	props[name] = CurveProperty(c)
	return c
}

// AnimatedCurves returns every keyframed property with at least one point,
// keyed by property name.
func AnimatedCurves(props map[string]*Property) map[string]*Curve {
	out := make(map[string]*Curve)
	for name, p := range props {
		if p.Kind == PropKeyframes && p.Curve != nil && len(p.Curve.Points) > 0 {
			out[name] = p.Curve
		}
	}
	return out
}

// AllCurves returns the item's own animated curves plus, for clips, every
// nested effect curve keyed as "<effectID>/<property>".
func AllCurves(c *Clip) map[string]*Curve {
	out := AnimatedCurves(c.Properties)
	for _, fx := range c.Effects {
		for name, curve := range AnimatedCurves(fx.Properties) {
			out[fx.ID+"/"+name] = curve
		}
	}
	return out
}
