package engine

import (
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/vec"

	"github.com/inamate/inamate/pathedit/internal/pathdata"
	"github.com/inamate/inamate/pathedit/internal/subpath"
)

type OverlayKind string

const (
	OverlayHighlight OverlayKind = "highlight"
	OverlayAnchor    OverlayKind = "anchor"
	OverlayHandle    OverlayKind = "handle"
)

// Point and highlight styling.
const (
	anchorRadius        = 6
	handleRadius        = 4
	anchorFill          = "#fff"
	handleFill          = "#ffe7e7"
	anchorStroke        = "#1890ff"
	handleStroke        = "#ff7875"
	selectedStroke      = "#1890ff"
	pointStrokeWidth    = 2
	selectedStrokeWidth = 3
	highlightFill       = "transparent"
	highlightOpacity    = 0.8

	DefaultHighlightStrokeWidth = 1.0
)

// PathCommand is a single path segment in Canvas2D form:
// ["M", x, y], ["L", x, y], ["Q", cx, cy, x, y], ["C", x1, y1, x2, y2, x, y], ["Z"].
type PathCommand []any

// Overlay describes a non-exported helper object drawn over the edited shape.
// Highlights carry local geometry plus the shape transform; point markers
// carry a scene-space centre and are not scaled with the shape.
type Overlay struct {
	Kind      OverlayKind `json:"kind"`
	SubpathID string      `json:"subpathId,omitempty"`
	PointID   string      `json:"pointId,omitempty"`

	Path      []PathCommand `json:"path,omitempty"`
	Geometry  *path.Data    `json:"-"`
	Transform matrix.Matrix `json:"transform"`

	Center vec.Vec2 `json:"center"`
	Radius float64  `json:"radius,omitempty"`

	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// highlightOverlay outlines one subpath in its display colour. origin is
// the current point the preceding subpaths leave behind.
func highlightOverlay(sp *subpath.Subpath, origin vec.Vec2, t ShapeTransform, strokeWidth float64) Overlay {
	geom := pathdata.ToPathFrom(sp.Commands, origin)
	return Overlay{
		Kind:        OverlayHighlight,
		SubpathID:   sp.ID,
		Path:        compilePath(geom),
		Geometry:    geom,
		Transform:   t.Matrix().Geom(),
		Fill:        highlightFill,
		Stroke:      sp.Color,
		StrokeWidth: strokeWidth,
		Opacity:     highlightOpacity,
	}
}

// pointOverlay places a marker for an editable point at its scene position.
func pointOverlay(sp *subpath.Subpath, p EditablePoint, t ShapeTransform, selected bool) Overlay {
	o := Overlay{
		SubpathID:   sp.ID,
		PointID:     p.ID,
		Transform:   matrix.Identity,
		Center:      t.Forward(vec.Vec2{X: p.X, Y: p.Y}),
		StrokeWidth: pointStrokeWidth,
		Opacity:     1,
	}
	if p.Role == RoleAnchor {
		o.Kind, o.Radius, o.Fill, o.Stroke = OverlayAnchor, anchorRadius, anchorFill, anchorStroke
	} else {
		o.Kind, o.Radius, o.Fill, o.Stroke = OverlayHandle, handleRadius, handleFill, handleStroke
	}
	if selected {
		o.Stroke, o.StrokeWidth = selectedStroke, selectedStrokeWidth
	}
	return o
}

// compilePath flattens path geometry into Canvas2D segments.
func compilePath(p *path.Data) []PathCommand {
	out := make([]PathCommand, 0, len(p.Cmds))
	i := 0
	for _, cmd := range p.Cmds {
		switch cmd {
		case path.CmdMoveTo:
			c := p.Coords[i]
			out = append(out, PathCommand{"M", c.X, c.Y})
			i++
		case path.CmdLineTo:
			c := p.Coords[i]
			out = append(out, PathCommand{"L", c.X, c.Y})
			i++
		case path.CmdQuadTo:
			c, e := p.Coords[i], p.Coords[i+1]
			out = append(out, PathCommand{"Q", c.X, c.Y, e.X, e.Y})
			i += 2
		case path.CmdCubeTo:
			c1, c2, e := p.Coords[i], p.Coords[i+1], p.Coords[i+2]
			out = append(out, PathCommand{"C", c1.X, c1.Y, c2.X, c2.Y, e.X, e.Y})
			i += 3
		case path.CmdClose:
			out = append(out, PathCommand{"Z"})
		}
	}
	return out
}

// overlaySet tracks the overlays a session has placed in the host scene,
// keyed by subpath or point id, so each can be updated or released.
type overlaySet struct {
	host Host
	refs map[string]OverlayRef
	keys []string
}

func newOverlaySet(host Host) *overlaySet {
	return &overlaySet{host: host, refs: make(map[string]OverlayRef)}
}

// put adds the overlay, or updates it in place when the key is known.
func (s *overlaySet) put(key string, o Overlay) OverlayRef {
	if ref, ok := s.refs[key]; ok {
		s.host.UpdateOverlay(ref, o)
		return ref
	}
	ref := s.host.AddOverlay(o)
	s.refs[key] = ref
	s.keys = append(s.keys, key)
	return ref
}

func (s *overlaySet) ref(key string) (OverlayRef, bool) {
	ref, ok := s.refs[key]
	return ref, ok
}

func (s *overlaySet) remove(key string) {
	ref, ok := s.refs[key]
	if !ok {
		return
	}
	s.host.RemoveOverlay(ref)
	delete(s.refs, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// clear releases every overlay, in creation order.
func (s *overlaySet) clear() {
	for _, k := range s.keys {
		s.host.RemoveOverlay(s.refs[k])
	}
	s.refs = make(map[string]OverlayRef)
	s.keys = nil
}

func (s *overlaySet) size() int {
	return len(s.keys)
}
