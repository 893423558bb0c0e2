package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// GliffyDocument is the root of a .gliffy file. Older exports carry a
// single stage, newer multi-page exports carry a pages array; both forms
// appear in real corpora and are accepted.
type GliffyDocument struct {
	ContentType string       `json:"contentType,omitempty"`
	Version     string       `json:"version,omitempty"`
	Stage       *GliffyStage `json:"stage,omitempty"`
	Pages       []GliffyPage `json:"pages,omitempty"`
	Metadata    *GliffyMeta  `json:"metadata,omitempty"`
}

// GliffyPage wraps a scene in multi-page documents.
type GliffyPage struct {
	ID    FlexID       `json:"id,omitempty"`
	Name  string       `json:"name,omitempty"`
	Scene *GliffyStage `json:"scene,omitempty"`
}

// GliffyStage holds the drawable objects of one page.
type GliffyStage struct {
	Objects    []*GliffyObject `json:"objects"`
	Background string          `json:"background,omitempty"`
	Width      float64         `json:"width,omitempty"`
	Height     float64         `json:"height,omitempty"`
	GridOn     bool            `json:"gridOn,omitempty"`
}

// GliffyMeta carries document-level metadata (title, library keys).
type GliffyMeta struct {
	Title     string   `json:"title,omitempty"`
	Libraries []string `json:"libraries,omitempty"`
}

// GliffyObject is one node of the (possibly nested) object tree: a shape,
// text, image, line or group frame. Coordinates of children are relative
// to the parent until the assembler flattens them.
type GliffyObject struct {
	ID          *FlexID            `json:"id,omitempty"`
	UID         string             `json:"uid,omitempty"`
	X           float64            `json:"x"`
	Y           float64            `json:"y"`
	Width       float64            `json:"width"`
	Height      float64            `json:"height"`
	Rotation    float64            `json:"rotation,omitempty"`
	Order       FlexID             `json:"order,omitempty"`
	Hidden      bool               `json:"hidden,omitempty"`
	LockShape   bool               `json:"lockshape,omitempty"`
	Graphic     *GliffyGraphic     `json:"graphic,omitempty"`
	Children    []*GliffyObject    `json:"children,omitempty"`
	Constraints *GliffyConstraints `json:"constraints,omitempty"`

	// Rarely, style attributes appear at the object level instead of
	// inside graphic.Shape/Line.
	StrokeColor string   `json:"strokeColor,omitempty"`
	FillColor   string   `json:"fillColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Text        string   `json:"text,omitempty"`
}

// GliffyGraphic is the tagged union of an object's renderable payload.
// Type names the populated branch ("Shape", "Line", "Text", "Svg", ...).
type GliffyGraphic struct {
	Type  string       `json:"type,omitempty"`
	Shape *GliffyShape `json:"Shape,omitempty"`
	Line  *GliffyLine  `json:"Line,omitempty"`
	Text  *GliffyText  `json:"Text,omitempty"`
}

// GliffyShape describes a stencil-rendered shape.
type GliffyShape struct {
	TID          string   `json:"tid,omitempty"`
	StrokeColor  string   `json:"strokeColor,omitempty"`
	FillColor    string   `json:"fillColor,omitempty"`
	StrokeWidth  *float64 `json:"strokeWidth,omitempty"`
	CornerRadius float64  `json:"cornerRadius,omitempty"`
	Opacity      *float64 `json:"opacity,omitempty"`
	DashStyle    string   `json:"dashStyle,omitempty"`
}

// GliffyLine describes a polyline/arrow. ControlPath points are relative
// to the object's own x/y.
type GliffyLine struct {
	StrokeColor     string       `json:"strokeColor,omitempty"`
	StrokeWidth     *float64     `json:"strokeWidth,omitempty"`
	StartArrow      int          `json:"startArrow,omitempty"`
	EndArrow        int          `json:"endArrow,omitempty"`
	InterpolationType string     `json:"interpolationType,omitempty"`
	DashStyle       string       `json:"dashStyle,omitempty"`
	ControlPath     [][2]float64 `json:"controlPath,omitempty"`
}

// GliffyText carries the HTML fragment Gliffy stores text as.
type GliffyText struct {
	HTML    string   `json:"html,omitempty"`
	Valign  string   `json:"valign,omitempty"`
	Overflow string  `json:"overflow,omitempty"`
	PaddingLeft *float64 `json:"paddingLeft,omitempty"`
}

// GliffyConstraints binds a line's endpoints to other objects.
type GliffyConstraints struct {
	StartConstraint *GliffyConstraintWrapper `json:"startConstraint,omitempty"`
	EndConstraint   *GliffyConstraintWrapper `json:"endConstraint,omitempty"`
}

// GliffyConstraintWrapper nests the actual constraint under a
// type-discriminating key, mirroring the wire format.
type GliffyConstraintWrapper struct {
	Start *GliffyPositionConstraint `json:"StartPositionConstraint,omitempty"`
	End   *GliffyPositionConstraint `json:"EndPositionConstraint,omitempty"`
}

// Constraint returns whichever branch is populated.
func (w *GliffyConstraintWrapper) Constraint() *GliffyPositionConstraint {
	if w == nil {
		return nil
	}
	if w.Start != nil {
		return w.Start
	}
	return w.End
}

// GliffyPositionConstraint anchors an endpoint at a relative point
// (px, py in [0,1]) of the node identified by NodeID.
type GliffyPositionConstraint struct {
	NodeID FlexID   `json:"nodeId"`
	PX     *float64 `json:"px"`
	PY     *float64 `json:"py"`
}

// Anchor returns the fractional anchor position on the target shape.
// Documents may omit px/py, which means the shape's center.
func (c *GliffyPositionConstraint) Anchor() (px, py float64) {
	px, py = 0.5, 0.5
	if c.PX != nil {
		px = *c.PX
	}
	if c.PY != nil {
		py = *c.PY
	}
	return px, py
}

// FlexID tolerates the number-or-string identifiers seen in real Gliffy
// exports and normalizes them to a string.
type FlexID string

// UnmarshalJSON accepts JSON numbers, strings and null.
func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = FlexID(n.String())
	return nil
}

// MarshalJSON emits the identifier as a JSON string.
func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns the normalized identifier.
func (f FlexID) String() string { return string(f) }

// Int returns the identifier as an integer when it is numeric.
func (f FlexID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(f), 10, 64)
	return n, err == nil
}

// TID returns the stencil type identifier, or "" for freeform objects.
func (o *GliffyObject) TID() string {
	if o.Graphic != nil && o.Graphic.Shape != nil {
		return o.Graphic.Shape.TID
	}
	return ""
}
