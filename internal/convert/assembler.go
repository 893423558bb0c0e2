package convert

import (
	"sort"

	"github.com/gliffy-migrator/backend/internal/models"
)

// assembler walks a full Gliffy document and emits the flat, ordered
// Excalidraw element list: depth-first flatten, per-kind mapping passes,
// deferred binding resolution, z-order sort, viewport fit.
type assembler struct {
	m        *mapper
	elements []*models.ExcalidrawElement
	elemObj  map[string]*flatObject // excalidraw id -> source object
	pending  []*pendingBinding
}

func newAssembler(m *mapper) *assembler {
	return &assembler{
		m:       m,
		elemObj: make(map[string]*flatObject),
	}
}

// collectObjects gathers the object roots of either document form.
func collectObjects(doc *models.GliffyDocument) []*models.GliffyObject {
	if doc.Stage != nil && len(doc.Stage.Objects) > 0 {
		return doc.Stage.Objects
	}
	var objects []*models.GliffyObject
	for _, page := range doc.Pages {
		if page.Scene != nil {
			objects = append(objects, page.Scene.Objects...)
		}
	}
	return objects
}

// flatten runs the depth-first walk: child coordinates become absolute,
// group frames contribute a generated groupId inherited by their
// subtree, source order is preserved in seq.
func (a *assembler) flatten(objects []*models.GliffyObject) []*flatObject {
	var out []*flatObject
	var walk func(objs []*models.GliffyObject, offX, offY float64, parentID string, groups []string)

	walk = func(objs []*models.GliffyObject, offX, offY float64, parentID string, groups []string) {
		for _, obj := range objs {
			if obj == nil {
				continue
			}

			f := &flatObject{
				src:      obj,
				parentID: parentID,
				x:        obj.X + offX,
				y:        obj.Y + offY,
				seq:      len(out),
				kind:     detectKind(obj, a.m.reg),
				groupIDs: groups,
			}
			if obj.ID != nil {
				f.id = obj.ID.String()
			}
			if n, ok := obj.Order.Int(); ok {
				f.order = n
			}
			out = append(out, f)

			if len(obj.Children) == 0 {
				continue
			}
			childGroups := groups
			if isGroupFrame(obj) {
				childGroups = append(append([]string{}, groups...), a.m.ids.next("group"))
			}
			walk(obj.Children, f.x, f.y, f.id, childGroups)
		}
	}

	walk(objects, 0, 0, "", nil)
	return out
}

// isGroupFrame reports whether an object is a pure grouping frame (no
// renderable payload of its own). Container shapes with a text child are
// not groups; their label binds via containerId instead.
func isGroupFrame(obj *models.GliffyObject) bool {
	if len(obj.Children) == 0 {
		return false
	}
	if obj.Graphic == nil {
		return true
	}
	return Classify(obj.UID) == CategoryGeneric && obj.Graphic.Shape == nil &&
		obj.Graphic.Line == nil && obj.Graphic.Text == nil
}

// assemble maps all objects and finalizes the document.
func (a *assembler) assemble(objects []*models.GliffyObject) *models.ExcalidrawDocument {
	flat := a.flatten(objects)

	// Bounding boxes first: constraint resolution needs every target.
	for _, f := range flat {
		if f.id != "" {
			a.m.info[f.id] = box{x: f.x, y: f.y, w: f.src.Width, h: f.src.Height}
		}
	}

	// Pass 1: shapes and images, so their ids exist for container labels.
	for _, f := range flat {
		if f.src.Hidden || f.kind == CategoryText || f.kind == CategoryLine {
			continue
		}
		if isGroupFrame(f.src) {
			continue // frame itself renders nothing
		}
		for _, elem := range a.m.mapShape(f) {
			a.add(f, elem)
		}
	}

	// Line geometries next, so arrow labels can find their paths before
	// the line elements themselves exist.
	arrowGeom := make(map[string]*arrowGeometry)
	for _, f := range flat {
		if f.src.Hidden || f.kind != CategoryLine {
			continue
		}
		f.geom = a.m.lineGeometry(f)
		// Lines render regardless of identifier; only the label lookup
		// needs an id key.
		if f.geom != nil && f.id != "" {
			arrowGeom[f.id] = f.geom
		}
	}

	// Pass 2: texts (standalone, container labels, arrow labels).
	for _, f := range flat {
		if f.src.Hidden || f.kind != CategoryText {
			continue
		}
		if elem := a.m.mapText(f, arrowGeom); elem != nil {
			a.add(f, elem)
		}
	}

	// Pass 3: lines and arrows. Binding targets stay symbolic here.
	for _, f := range flat {
		if f.src.Hidden || f.kind != CategoryLine {
			continue
		}
		elem, pending := a.m.mapLine(f, f.geom)
		if elem == nil {
			continue
		}
		a.add(f, elem)
		if pending != nil {
			a.pending = append(a.pending, pending)
		}
	}

	a.resolveBindings()
	a.sortByZOrder()
	a.wireBoundElements()

	doc := models.NewExcalidrawDocument()
	doc.Elements = a.elements
	doc.Files = a.m.files
	fitViewport(doc)
	return doc
}

func (a *assembler) add(f *flatObject, elem *models.ExcalidrawElement) {
	if elem.GroupIDs == nil {
		elem.GroupIDs = []string{}
	}
	a.elements = append(a.elements, elem)
	a.elemObj[elem.ID] = f
}

// resolveBindings is the finalization pass: only now, with the id map
// complete, are endpoint targets resolved, so forward references in
// source order bind correctly. Targets whose object produced no output
// element are cleared with a warning rather than left dangling.
func (a *assembler) resolveBindings() {
	resolve := func(elem *models.ExcalidrawElement, target string) *models.ExcalidrawBinding {
		if target == "" {
			return nil
		}
		eid, ok := a.m.idMap[target]
		if !ok {
			a.m.warn(models.WarnDanglingBinding, target,
				"binding target %s has no output element, binding cleared", target)
			return nil
		}
		return &models.ExcalidrawBinding{ElementID: eid, Focus: 0.5, Gap: 0}
	}

	for _, p := range a.pending {
		p.element.StartBinding = resolve(p.element, p.startTarget)
		p.element.EndBinding = resolve(p.element, p.endTarget)
	}
}

// sortByZOrder orders elements background-to-foreground. Gliffy's order
// attribute ascends toward the foreground and the Excalidraw array
// paints in index order, so an ascending stable sort (source position as
// tie-breaker) preserves the stacking.
func (a *assembler) sortByZOrder() {
	sort.SliceStable(a.elements, func(i, j int) bool {
		oi, oj := a.elemObj[a.elements[i].ID], a.elemObj[a.elements[j].ID]
		if oi.order != oj.order {
			return oi.order < oj.order
		}
		return oi.seq < oj.seq
	})
}

// wireBoundElements adds the back-references from shapes to the arrows
// bound to them, after the final element order is known.
func (a *assembler) wireBoundElements() {
	byID := make(map[string]*models.ExcalidrawElement, len(a.elements))
	for _, e := range a.elements {
		byID[e.ID] = e
	}
	for _, e := range a.elements {
		if e.Type == models.ElementText && e.ContainerID != nil {
			if container, ok := byID[*e.ContainerID]; ok {
				container.BoundElements = append(container.BoundElements, models.BoundElement{
					ID: e.ID, Type: "text",
				})
			}
			continue
		}
		if e.Type != models.ElementArrow && e.Type != models.ElementLine {
			continue
		}
		for _, b := range []*models.ExcalidrawBinding{e.StartBinding, e.EndBinding} {
			if b == nil {
				continue
			}
			if shape, ok := byID[b.ElementID]; ok {
				shape.BoundElements = append(shape.BoundElements, models.BoundElement{
					ID: e.ID, Type: "arrow",
				})
			}
		}
	}
}

// fitViewport centers the app-state scroll on the content and picks a
// zoom that fits it into a nominal viewport.
func fitViewport(doc *models.ExcalidrawDocument) {
	if len(doc.Elements) == 0 {
		return
	}

	const vw, vh = 1200.0, 800.0

	minX, minY := doc.Elements[0].X, doc.Elements[0].Y
	maxX, maxY := minX, minY
	extend := func(x, y float64) {
		if x < minX {
			minX = x
		}
		if y < minY {
			minY = y
		}
		if x > maxX {
			maxX = x
		}
		if y > maxY {
			maxY = y
		}
	}

	for _, e := range doc.Elements {
		if len(e.Points) > 0 {
			for _, p := range e.Points {
				extend(e.X+p[0], e.Y+p[1])
			}
			continue
		}
		extend(e.X, e.Y)
		extend(e.X+e.Width, e.Y+e.Height)
	}

	doc.AppState.ScrollX = (minX+maxX)/2 - vw/2
	doc.AppState.ScrollY = (minY+maxY)/2 - vh/2

	zoom := 1.0
	if w, h := maxX-minX, maxY-minY; w > 0 && h > 0 {
		zx := vw * 0.9 / w
		zy := vh * 0.9 / h
		zoom = zx
		if zy < zoom {
			zoom = zy
		}
		if zoom > 1 {
			zoom = 1
		}
		if zoom < 0.2 {
			zoom = 0.2
		}
	}
	doc.AppState.Zoom = &models.ExcalidrawZoom{Value: zoom}
}
