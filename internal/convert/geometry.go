package convert

import (
	"math"

	"github.com/gliffy-migrator/backend/internal/models"
)

// box is an object's absolute bounding box, used to resolve endpoint
// constraints against their target shapes.
type box struct {
	x, y, w, h float64
}

// DegreesToRadians converts Gliffy's clockwise degrees to Excalidraw's
// clockwise radians. This is the one unit change in the geometry model;
// position and size carry over untouched.
func DegreesToRadians(deg float64) float64 {
	if deg == 0 {
		return 0
	}
	return deg * math.Pi / 180
}

// RoundStrokeWidth maps a fractional Gliffy stroke width onto the
// integer widths Excalidraw supports, nearest-integer, minimum 1.
func RoundStrokeWidth(w float64) int {
	if w <= 0 {
		return 1
	}
	r := int(math.Round(w))
	if r < 1 {
		r = 1
	}
	return r
}

// absolutePath shifts a line's control path (relative to the object's
// own origin) into document coordinates.
func absolutePath(obj *flatObject) [][2]float64 {
	if obj.src.Graphic == nil || obj.src.Graphic.Line == nil {
		return nil
	}
	cp := obj.src.Graphic.Line.ControlPath
	if len(cp) == 0 {
		return nil
	}
	points := make([][2]float64, 0, len(cp))
	for _, p := range cp {
		points = append(points, [2]float64{obj.x + p[0], obj.y + p[1]})
	}
	return points
}

// constraintPoint resolves a position constraint to absolute coordinates
// against the target object's bounding box.
func constraintPoint(c *models.GliffyPositionConstraint, info map[string]box) ([2]float64, bool) {
	if c == nil || c.NodeID == "" {
		return [2]float64{}, false
	}
	b, ok := info[c.NodeID.String()]
	if !ok {
		return [2]float64{}, false
	}
	px, py := c.Anchor()
	return [2]float64{b.x + b.w*px, b.y + b.h*py}, true
}

// relativePoints rebases absolute path points onto the first point, the
// form Excalidraw stores linear elements in. Returns the element origin,
// the relative points, and the width/height spanned.
func relativePoints(abs [][2]float64) (x, y float64, rel [][2]float64, w, h float64) {
	first := abs[0]
	x, y = first[0], first[1]
	rel = make([][2]float64, 0, len(abs))
	for _, p := range abs {
		rel = append(rel, [2]float64{p[0] - first[0], p[1] - first[1]})
	}
	last := abs[len(abs)-1]
	w = last[0] - first[0]
	h = last[1] - first[1]
	return
}

// arrowhead maps a Gliffy arrow code to an Excalidraw arrowhead. Code 0
// is no arrowhead; codes 10-12 are ERD cardinality markers with no
// Excalidraw equivalent and degrade to none.
func arrowhead(code int) *string {
	if code == 0 || (code >= 10 && code <= 12) {
		return nil
	}
	s := "arrow"
	return &s
}
