package convert

import (
	"fmt"

	"github.com/gliffy-migrator/backend/internal/models"
)

// flatObject is one Gliffy object after the tree walk: absolute
// coordinates, resolved kind, inherited group ids.
type flatObject struct {
	src      *models.GliffyObject
	id       string // "" when the source object carries no identifier
	parentID string
	x, y     float64
	order    int64
	seq      int // source-walk position, tie-breaker for the z-order sort
	kind     Category
	groupIDs []string
	geom     *arrowGeometry // resolved line path, nil for non-lines
}

// mapper turns flat objects into Excalidraw elements. One mapper serves
// one conversion run; it owns the identifier map shared with the
// assembler's binding pass.
type mapper struct {
	reg      *Registry
	ov       *OverrideStore
	ids      *idGenerator
	updated  int64
	info     map[string]box    // gliffy id -> absolute bounding box
	idMap    map[string]string // gliffy id -> excalidraw id
	files    map[string]models.ExcalidrawFile
	warnings []models.ConversionWarning
}

func newMapper(reg *Registry, ov *OverrideStore, ids *idGenerator, updated int64) *mapper {
	return &mapper{
		reg:     reg,
		ov:      ov,
		ids:     ids,
		updated: updated,
		info:    make(map[string]box),
		idMap:   make(map[string]string),
		files:   make(map[string]models.ExcalidrawFile),
	}
}

// detectKind resolves an object's logical kind from its graphic payload,
// TID and uid. Never fails: anything unrecognized is CategoryGeneric.
func detectKind(obj *models.GliffyObject, reg *Registry) Category {
	if obj.Graphic != nil {
		switch obj.Graphic.Type {
		case "Text":
			return CategoryText
		case "Line":
			return CategoryLine
		case "Shape":
			if tid := obj.TID(); tid != "" {
				entry, _ := reg.Lookup(tid)
				if entry.Category != CategoryGeneric {
					return entry.Category
				}
			}
			if c := Classify(obj.UID); c != CategoryGeneric && c != CategoryText && c != CategoryLine {
				return c
			}
			return CategoryGeneric
		}
	}

	if c := Classify(obj.UID); c != CategoryGeneric {
		return c
	}
	if obj.Graphic == nil && textContent(obj) != "" {
		return CategoryText
	}
	return CategoryGeneric
}

func (m *mapper) warn(code models.WarningCode, objID, format string, args ...interface{}) {
	m.warnings = append(m.warnings, models.ConversionWarning{
		Code:     code,
		ObjectID: objID,
		Message:  fmt.Sprintf(format, args...),
	})
}

// newElement creates an element with editor defaults, a deterministic
// identifier and seed values.
func (m *mapper) newElement(elemType string) *models.ExcalidrawElement {
	return &models.ExcalidrawElement{
		ID:              m.ids.next(elemType),
		Type:            elemType,
		StrokeColor:     "#1e1e1e",
		BackgroundColor: "transparent",
		FillStyle:       "solid",
		StrokeWidth:     2,
		StrokeStyle:     "solid",
		Roughness:       1,
		Opacity:         100,
		GroupIDs:        []string{},
		Seed:            m.ids.nonce(),
		VersionNonce:    m.ids.nonce(),
		Updated:         m.updated,
	}
}

// register records the gliffy→excalidraw identifier mapping consumed by
// the binding resolution pass.
func (m *mapper) register(obj *flatObject, elem *models.ExcalidrawElement) {
	if obj.id != "" {
		m.idMap[obj.id] = elem.ID
	}
}

// strokeColorOf reads the stroke color from object-level or graphic
// styling, first hit wins.
func strokeColorOf(obj *models.GliffyObject, def string) string {
	if obj.StrokeColor != "" {
		return obj.StrokeColor
	}
	if g := obj.Graphic; g != nil {
		if g.Line != nil && g.Line.StrokeColor != "" {
			return g.Line.StrokeColor
		}
		if g.Shape != nil && g.Shape.StrokeColor != "" {
			return g.Shape.StrokeColor
		}
	}
	return def
}

// fillColorOf reads the fill color; "none"/"transparent" collapse to the
// default background.
func fillColorOf(obj *models.GliffyObject, def string) string {
	pick := func(c string) (string, bool) {
		if c == "" {
			return "", false
		}
		switch c {
		case "none", "None", "transparent":
			return def, true
		}
		return c, true
	}
	if c, ok := pick(obj.FillColor); ok {
		return c
	}
	if g := obj.Graphic; g != nil && g.Shape != nil {
		if c, ok := pick(g.Shape.FillColor); ok {
			return c
		}
	}
	return def
}

// strokeWidthOf reads the stroke width from object or graphic styling.
func strokeWidthOf(obj *models.GliffyObject, def float64) float64 {
	if obj.StrokeWidth != nil {
		return *obj.StrokeWidth
	}
	if g := obj.Graphic; g != nil {
		if g.Line != nil && g.Line.StrokeWidth != nil {
			return *g.Line.StrokeWidth
		}
		if g.Shape != nil && g.Shape.StrokeWidth != nil {
			return *g.Shape.StrokeWidth
		}
	}
	return def
}

// mapShape emits the native shape (or override image) for a non-text,
// non-line object, plus a bound text element when the object carries its
// own label. Returns nil when the object is malformed.
func (m *mapper) mapShape(obj *flatObject) []*models.ExcalidrawElement {
	if obj.src.Width <= 0 || obj.src.Height <= 0 {
		m.warn(models.WarnUnsupportedObject, obj.id,
			"object %s has no usable geometry (%gx%g), skipped", obj.id, obj.src.Width, obj.src.Height)
		return nil
	}

	// Override image wins over any native rendering; the object's own
	// fill/stroke styling is discarded.
	if tid := obj.src.TID(); tid != "" && m.ov != nil && m.ov.Has(tid) {
		if img, ok := m.ov.Lookup(tid); ok {
			elem := m.imageElement(obj, img)
			m.register(obj, elem)
			return m.withLabel(obj, elem)
		}
		m.warn(models.WarnMissingImage, obj.id,
			"override image for TID %s unreadable, using native shape", tid)
	}

	elem := m.newElement(obj.kind.ElementType())
	elem.X = obj.x
	elem.Y = obj.y
	elem.Width = obj.src.Width
	elem.Height = obj.src.Height
	elem.Angle = DegreesToRadians(obj.src.Rotation)
	elem.StrokeColor = strokeColorOf(obj.src, "#1e1e1e")
	elem.BackgroundColor = fillColorOf(obj.src, "transparent")
	elem.StrokeWidth = RoundStrokeWidth(strokeWidthOf(obj.src, 2))
	elem.GroupIDs = obj.groupIDs

	switch elem.Type {
	case models.ElementEllipse, models.ElementDiamond:
		elem.Roundness = &models.ExcalidrawRoundness{Type: 2}
	default:
		if g := obj.src.Graphic; g != nil && g.Shape != nil && g.Shape.CornerRadius > 0 {
			elem.Roundness = &models.ExcalidrawRoundness{Type: 3, Value: g.Shape.CornerRadius}
		}
	}

	m.register(obj, elem)
	return m.withLabel(obj, elem)
}

// imageElement builds an image element at the object's geometry and
// records the embedded file.
func (m *mapper) imageElement(obj *flatObject, img *OverrideImage) *models.ExcalidrawElement {
	elem := m.newElement(models.ElementImage)
	elem.X = obj.x
	elem.Y = obj.y
	elem.Width = obj.src.Width
	elem.Height = obj.src.Height
	elem.Angle = DegreesToRadians(obj.src.Rotation)
	elem.GroupIDs = obj.groupIDs
	elem.FileID = m.ids.next("file")
	elem.Scale = []float64{1, 1}

	m.files[elem.FileID] = models.ExcalidrawFile{
		MimeType: img.MimeType,
		ID:       elem.FileID,
		DataURL:  img.DataURL,
	}
	return elem
}

// withLabel appends a bound text element when the shape carries its own
// text content (container/boundText model).
func (m *mapper) withLabel(obj *flatObject, container *models.ExcalidrawElement) []*models.ExcalidrawElement {
	text := textContent(obj.src)
	if text == "" {
		return []*models.ExcalidrawElement{container}
	}

	fontSize := objectFontSize(obj.src, 20)
	label := m.newElement(models.ElementText)
	label.StrokeColor = strokeColorOf(obj.src, "#1e1e1e")
	label.FontSize = fontSize
	label.FontFamily = 1
	label.TextAlign = "center"
	label.VerticalAlign = "middle"
	label.Baseline = int(fontSize * 0.85)
	label.LineHeight = 1.25
	label.OriginalText = text
	label.GroupIDs = obj.groupIDs
	label.ContainerID = &container.ID

	avail := container.Width - 20
	label.Text = text
	if avail > 0 {
		label.Text = wrapText(text, avail, fontSize)
		label.Width = avail
	} else {
		label.Width = container.Width
	}
	label.Height = fontSize * 1.25 * float64(lineCount(label.Text))
	label.X = container.X + (container.Width-label.Width)/2
	label.Y = container.Y + (container.Height-label.Height)/2

	return []*models.ExcalidrawElement{container, label}
}

// mapText emits an element for a standalone text object, a container
// label for a shape parent, or an arrow label positioned at the arrow's
// midpoint.
func (m *mapper) mapText(obj *flatObject, arrowGeom map[string]*arrowGeometry) *models.ExcalidrawElement {
	text := textContent(obj.src)
	if text == "" {
		return nil
	}

	geom, isArrowLabel := arrowGeom[obj.parentID]

	defSize := 20.0
	if isArrowLabel {
		defSize = 12
	}
	fontSize := objectFontSize(obj.src, defSize)
	if isArrowLabel && fontSize > 12 {
		// Arrow labels stay smaller than shape text.
		fontSize = 12
	}

	elem := m.newElement(models.ElementText)
	elem.X = obj.x
	elem.Y = obj.y
	elem.Width = obj.src.Width
	elem.Height = obj.src.Height
	elem.Angle = DegreesToRadians(obj.src.Rotation)
	elem.StrokeColor = strokeColorOf(obj.src, "#000000")
	elem.Text = text
	elem.OriginalText = text
	elem.FontSize = fontSize
	elem.FontFamily = 1
	elem.TextAlign = "center"
	elem.VerticalAlign = "middle"
	elem.Baseline = int(fontSize * 0.85)
	elem.LineHeight = 1.25
	elem.GroupIDs = obj.groupIDs

	if isArrowLabel {
		m.placeArrowLabel(elem, geom, text, fontSize)
		return elem
	}

	// Text child of a shape: integrate via containerId.
	if parentEID, ok := m.idMap[obj.parentID]; ok && obj.parentID != "" {
		elem.ContainerID = &parentEID
		if parent, ok := m.info[obj.parentID]; ok {
			if avail := parent.w - 20; avail > 0 {
				elem.Width = avail
				elem.Text = wrapText(text, avail, fontSize)
			}
		}
	}
	return elem
}

// placeArrowLabel centers a label on the midpoint of the arrow's path
// and sizes it from the text itself.
func (m *mapper) placeArrowLabel(elem *models.ExcalidrawElement, geom *arrowGeometry, text string, fontSize float64) {
	if len(geom.points) == 0 {
		return
	}
	mid := geom.points[len(geom.points)/2]

	runes := float64(len([]rune(text)))
	w := runes * fontSize * 0.6
	if w < 50 {
		w = 50
	} else if w > 200 {
		w = 200
	}
	h := fontSize * 1.5
	if n := float64(lineCount(text)); n > 1 {
		h = fontSize * n * 1.2
	}

	elem.Width = w
	elem.Height = h
	elem.X = mid[0] - w/2
	elem.Y = mid[1] - h/2
}

// arrowGeometry is a line's resolved absolute path plus arrow codes,
// shared between the line pass and arrow-label placement.
type arrowGeometry struct {
	points     [][2]float64
	startArrow int
	endArrow   int
}

// lineGeometry resolves a line object's absolute path from its control
// path, falling back to its endpoint constraints.
func (m *mapper) lineGeometry(obj *flatObject) *arrowGeometry {
	points := absolutePath(obj)

	if len(points) == 0 && obj.src.Constraints != nil {
		if p, ok := constraintPoint(obj.src.Constraints.StartConstraint.Constraint(), m.info); ok {
			points = append(points, p)
		}
		if p, ok := constraintPoint(obj.src.Constraints.EndConstraint.Constraint(), m.info); ok {
			points = append(points, p)
		}
	}

	if len(points) < 2 {
		return nil
	}

	geom := &arrowGeometry{points: points}
	if g := obj.src.Graphic; g != nil && g.Line != nil {
		geom.startArrow = g.Line.StartArrow
		geom.endArrow = g.Line.EndArrow
	}
	return geom
}

// mapLine emits a line or arrow element. Binding targets are returned as
// raw Gliffy identifiers; the assembler resolves them once the id map is
// complete.
func (m *mapper) mapLine(obj *flatObject, geom *arrowGeometry) (*models.ExcalidrawElement, *pendingBinding) {
	if geom == nil {
		m.warn(models.WarnUnsupportedObject, obj.id,
			"line %s has fewer than two resolvable points, skipped", obj.id)
		return nil, nil
	}

	elemType := models.ElementArrow
	if geom.startArrow == 0 && geom.endArrow == 0 {
		elemType = models.ElementLine
	}

	elem := m.newElement(elemType)
	elem.StrokeColor = strokeColorOf(obj.src, "#1e1e1e")
	elem.StrokeWidth = RoundStrokeWidth(strokeWidthOf(obj.src, 2))
	elem.Roundness = &models.ExcalidrawRoundness{Type: 2}
	elem.GroupIDs = obj.groupIDs

	x, y, rel, w, h := relativePoints(geom.points)
	elem.X = x
	elem.Y = y
	elem.Points = rel
	last := rel[len(rel)-1]
	elem.LastCommittedPoint = &last
	elem.Width = w
	elem.Height = h
	elem.StartArrowhead = arrowhead(geom.startArrow)
	elem.EndArrowhead = arrowhead(geom.endArrow)

	m.register(obj, elem)

	pending := &pendingBinding{element: elem}
	if c := obj.src.Constraints; c != nil {
		if sc := c.StartConstraint.Constraint(); sc != nil {
			pending.startTarget = sc.NodeID.String()
		}
		if ec := c.EndConstraint.Constraint(); ec != nil {
			pending.endTarget = ec.NodeID.String()
		}
	}
	return elem, pending
}

// pendingBinding defers endpoint binding resolution until the id map
// covers every mapped object (forward references included).
type pendingBinding struct {
	element     *models.ExcalidrawElement
	startTarget string
	endTarget   string
}

func lineCount(s string) int {
	n := 1
	for _, r := range s {
		if r == '\n' {
			n++
		}
	}
	return n
}
