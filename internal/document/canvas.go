package document

import (
	"fmt"

	"seehuhn.de/go/geom/rect"

	"github.com/inamate/inamate/pathedit/internal/engine"
	"github.com/inamate/inamate/pathedit/internal/pathdata"
	"github.com/inamate/inamate/pathedit/internal/typeid"
)

type ChangeKind string

const (
	ChangeOverlayAdd    ChangeKind = "overlay.add"
	ChangeOverlayUpdate ChangeKind = "overlay.update"
	ChangeOverlayRemove ChangeKind = "overlay.remove"
	ChangePath          ChangeKind = "shape.path"
	ChangeTransform     ChangeKind = "shape.transform"
)

// Change describes one mutation of the canvas, for mirroring it elsewhere.
type Change struct {
	Kind      ChangeKind        `json:"kind"`
	ShapeID   string            `json:"shapeId,omitempty"`
	Ref       engine.OverlayRef `json:"ref,omitempty"`
	Overlay   *engine.Overlay   `json:"overlay,omitempty"`
	Path      string            `json:"path,omitempty"`
	Transform *Transform        `json:"transform,omitempty"`
}

// Canvas is an in-memory scene over a Document. It implements engine.Host
// the way an interactive editor canvas behaves: replacing a shape's path
// data re-derives its box from the new geometry and drops its placement.
type Canvas struct {
	doc      *Document
	overlays map[engine.OverlayRef]engine.Overlay
	order    []engine.OverlayRef
	redraws  int
	dirty    map[string]bool
	watchers []func(Change)
}

var _ engine.Host = (*Canvas)(nil)

func NewCanvas(doc *Document) *Canvas {
	if doc == nil {
		doc = NewEmptyDocument("", "")
	}
	return &Canvas{
		doc:      doc,
		overlays: make(map[engine.OverlayRef]engine.Overlay),
		dirty:    make(map[string]bool),
	}
}

// Watch registers fn for every change made through the canvas.
func (c *Canvas) Watch(fn func(Change)) {
	c.watchers = append(c.watchers, fn)
}

func (c *Canvas) notify(ch Change) {
	for _, fn := range c.watchers {
		fn(ch)
	}
}

func (c *Canvas) Document() *Document { return c.doc }

func (c *Canvas) Shape(id string) (Shape, bool) {
	s, ok := c.doc.Shapes[id]
	return s, ok
}

// PutShape adds or replaces a shape as received from outside the editor.
// It is not reported as a change.
func (c *Canvas) PutShape(s Shape) {
	c.doc.Put(s)
}

// SetTransform moves a shape without touching its path, as a host does while
// the user drags a selection.
func (c *Canvas) SetTransform(id string, t Transform) error {
	s, ok := c.doc.Shapes[id]
	if !ok {
		return fmt.Errorf("set transform of %s: shape not found", id)
	}
	s.Transform = t
	c.doc.Shapes[id] = s
	c.notify(Change{Kind: ChangeTransform, ShapeID: id, Transform: &t})
	return nil
}

// Dirty lists the shapes whose path was written since the last MarkClean.
func (c *Canvas) Dirty() []string {
	var out []string
	for _, id := range c.doc.Order {
		if c.dirty[id] {
			out = append(out, id)
		}
	}
	return out
}

func (c *Canvas) MarkClean(id string) {
	delete(c.dirty, id)
}

// Overlays returns the live overlays in creation order.
func (c *Canvas) Overlays() []engine.Overlay {
	out := make([]engine.Overlay, 0, len(c.order))
	for _, ref := range c.order {
		out = append(out, c.overlays[ref])
	}
	return out
}

// OverlayRefs returns the refs of the live overlays in creation order.
func (c *Canvas) OverlayRefs() []engine.OverlayRef {
	return append([]engine.OverlayRef(nil), c.order...)
}

func (c *Canvas) Overlay(ref engine.OverlayRef) (engine.Overlay, bool) {
	o, ok := c.overlays[ref]
	return o, ok
}

func (c *Canvas) Redraws() int { return c.redraws }

// --- engine.Host ---

func (c *Canvas) PathText(id string) (string, bool) {
	s, ok := c.doc.Shapes[id]
	if !ok {
		return "", false
	}
	return s.Path, true
}

func (c *Canvas) SetPathText(id, text string) error {
	s, ok := c.doc.Shapes[id]
	if !ok {
		return fmt.Errorf("set path of %s: shape not found", id)
	}
	if s.Locked {
		return fmt.Errorf("set path of %s: shape is locked", id)
	}
	s.Path = text
	s.Transform = Transform{SX: 1, SY: 1}
	c.doc.Shapes[id] = s
	c.dirty[id] = true
	c.notify(Change{Kind: ChangePath, ShapeID: id, Path: text})
	return nil
}

func (c *Canvas) ShapeTransform(id string) (engine.ShapeTransform, bool) {
	s, ok := c.doc.Shapes[id]
	if !ok {
		return engine.ShapeTransform{}, false
	}
	box := pathBox(s.Path)
	return engine.ShapeTransform{
		Left:         s.Transform.X,
		Top:          s.Transform.Y,
		ScaleX:       s.Transform.SX,
		ScaleY:       s.Transform.SY,
		AngleDegrees: s.Transform.R,
		Width:        box.URx - box.LLx,
		Height:       box.URy - box.LLy,
	}, true
}

// SetShapeTransform stores the placement. The size is always derived from
// the path and is ignored here.
func (c *Canvas) SetShapeTransform(id string, t engine.ShapeTransform) error {
	tr := Transform{X: t.Left, Y: t.Top, SX: t.ScaleX, SY: t.ScaleY, R: t.AngleDegrees}
	return c.SetTransform(id, tr)
}

func (c *Canvas) Bounds(id string) (rect.Rect, bool) {
	s, ok := c.doc.Shapes[id]
	if !ok {
		return rect.Rect{}, false
	}
	t, _ := c.ShapeTransform(id)
	return t.Matrix().TransformRect(pathBox(s.Path)), true
}

func (c *Canvas) AddOverlay(o engine.Overlay) engine.OverlayRef {
	ref := engine.OverlayRef(typeid.NewOverlayID())
	c.overlays[ref] = o
	c.order = append(c.order, ref)
	c.notify(Change{Kind: ChangeOverlayAdd, Ref: ref, Overlay: &o})
	return ref
}

func (c *Canvas) UpdateOverlay(ref engine.OverlayRef, o engine.Overlay) {
	if _, ok := c.overlays[ref]; !ok {
		return
	}
	c.overlays[ref] = o
	c.notify(Change{Kind: ChangeOverlayUpdate, Ref: ref, Overlay: &o})
}

func (c *Canvas) RemoveOverlay(ref engine.OverlayRef) {
	if _, ok := c.overlays[ref]; !ok {
		return
	}
	delete(c.overlays, ref)
	for i, r := range c.order {
		if r == ref {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.notify(Change{Kind: ChangeOverlayRemove, Ref: ref})
}

func (c *Canvas) RequestRedraw() {
	c.redraws++
}

// pathBox is the local box of a path: its control bounds with the origin
// included, since shape placement is measured from the local origin.
func pathBox(text string) rect.Rect {
	cmds, _ := pathdata.Parse(text)
	r, ok := pathdata.ControlBounds(cmds)
	if !ok {
		return rect.Rect{}
	}
	r.LLx, r.LLy = min(r.LLx, 0), min(r.LLy, 0)
	r.URx, r.URy = max(r.URx, 0), max(r.URy, 0)
	return r
}
