// Package engine edits the subpaths and control points of one path shape at
// a time. A Session reacts to host events and edit calls, keeps its point
// model consistent with the path commands, and writes changes back to the
// host shape without disturbing its placement.
//
// A Session is not safe for concurrent use; confine it to one goroutine.
package engine

import (
	"errors"
	"fmt"
	"log/slog"

	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"

	"github.com/inamate/inamate/pathedit/internal/pathdata"
	"github.com/inamate/inamate/pathedit/internal/subpath"
)

var (
	ErrNoShape        = errors.New("no active shape")
	ErrUnknownSubpath = errors.New("unknown subpath")
	ErrUnknownPoint   = errors.New("unknown point")
	ErrStaleCommand   = errors.New("stale command reference")
	ErrUnknownPair    = errors.New("unknown control point pair")
)

// DefaultJointTolerance is how close a closed subpath's end anchors must be
// to be dragged together.
const DefaultJointTolerance = 0.1

// State is the editing mode of a Session.
type State int

const (
	StateIdle State = iota
	StateSubpathsExtracted
	StatePointEditing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubpathsExtracted:
		return "subpathsExtracted"
	case StatePointEditing:
		return "pointEditing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Options tune a Session. Zero values select defaults.
type Options struct {
	Logger               *slog.Logger
	Palette              subpath.Palette
	HighlightStrokeWidth float64
	JointTolerance       float64
}

// PanelState is the summary shown by a subpath panel.
type PanelState struct {
	HasSubpaths bool               `json:"hasSubpaths"`
	Subpaths    []*subpath.Subpath `json:"subpaths"`
}

// Session is the editing state for the shape currently selected in a host.
type Session struct {
	host Host
	log  *slog.Logger

	palette        subpath.Palette
	highlightWidth float64
	jointTol       float64

	// Geometric model
	shapeID  string
	subpaths []*subpath.Subpath
	// path text as last read from or written to the host
	hostText string

	// Subpath selection and its highlight overlay
	selectedSubpathID string
	highlightStroke   float64
	highlights        *overlaySet

	// Point editing
	editing          bool
	editingSubpathID string
	points           []EditablePoint
	pairs            []ControlPointPair
	selectedPointID  string
	markers          *overlaySet

	observers observerList
}

// NewSession creates an idle session bound to a host.
func NewSession(host Host, opts Options) *Session {
	s := &Session{
		host:           host,
		log:            opts.Logger,
		palette:        opts.Palette,
		highlightWidth: opts.HighlightStrokeWidth,
		jointTol:       opts.JointTolerance,
		highlights:     newOverlaySet(host),
		markers:        newOverlaySet(host),
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if len(s.palette) == 0 {
		s.palette = subpath.DefaultPalette
	}
	if s.highlightWidth <= 0 {
		s.highlightWidth = DefaultHighlightStrokeWidth
	}
	if s.jointTol <= 0 {
		s.jointTol = DefaultJointTolerance
	}
	return s
}

// Subscribe registers fn for every event. The returned func unsubscribes.
func (s *Session) Subscribe(fn func(Event)) (unsubscribe func()) {
	return s.observers.add(fn)
}

func (s *Session) emit(e Event) {
	s.observers.emit(e)
}

// warn records an ignored or partial operation on the log and the event
// stream.
func (s *Session) warn(op string, err error) {
	s.log.Warn("path edit ignored", "op", op, "shape", s.shapeID, "error", err)
	s.emit(Warning{Op: op, Message: err.Error(), Err: err})
}

// --- Host events ---

// HandleSelectionChanged reacts to a new host selection. An empty id means
// nothing is selected. Only shapes with more than one subpath are edited.
func (s *Session) HandleSelectionChanged(shapeID string) {
	if shapeID == "" {
		s.clearState()
		return
	}
	if s.ExtractSubpaths(shapeID) == 0 {
		s.clearState()
	}
}

// HandleShapeModified reacts to an external edit of the shape. A placement
// change only moves overlays; changed path data rebuilds the model. Text
// that is spelled differently but draws the same path counts as unchanged.
func (s *Session) HandleShapeModified(shapeID string) {
	if shapeID != s.shapeID || len(s.subpaths) == 0 {
		return
	}
	text, ok := s.host.PathText(shapeID)
	if !ok {
		s.warn("shapeModified", fmt.Errorf("read path text: %w", ErrNoShape))
		s.clearState()
		return
	}
	if text == s.hostText || pathdata.SameDrawing(pathdata.MustParse(text), s.commands()) {
		s.hostText = text
		s.redraw()
		return
	}
	s.HandleSelectionChanged(shapeID)
}

// HandleShapeTransforming follows a live move, scale or rotation of the shape.
func (s *Session) HandleShapeTransforming(shapeID string) {
	if shapeID != s.shapeID || len(s.subpaths) == 0 {
		return
	}
	s.redraw()
}

// --- Subpath operations ---

// ExtractSubpaths rebuilds the model from the shape's path text and returns
// the number of subpaths. Shapes with fewer than two subpaths are left alone
// and report 0.
func (s *Session) ExtractSubpaths(shapeID string) int {
	text, ok := s.host.PathText(shapeID)
	if !ok {
		s.warn("extract", fmt.Errorf("read path text of %s: %w", shapeID, ErrNoShape))
		return 0
	}
	if pathdata.CountMoveTo(pathdata.MustParse(text)) <= 1 {
		return 0
	}

	s.clearState()
	s.shapeID = shapeID
	subs, diags := subpath.Extract(text, s.shapeBounds(), s.palette)
	for _, err := range diags {
		s.warn("extract", err)
	}
	s.subpaths = subs
	s.hostText = text
	s.log.Debug("subpaths extracted", "shape", shapeID, "count", len(subs))

	s.emit(SubpathsExtracted{ShapeID: shapeID, Subpaths: cloneSubpaths(subs)})
	return len(subs)
}

// HighlightSubpath replaces any highlight with an outline of one subpath and
// makes it the selected subpath. A non-positive width selects the default.
func (s *Session) HighlightSubpath(id string, strokeWidth float64) {
	sp, _ := subpath.Find(s.subpaths, id)
	if sp == nil {
		s.warn("highlight", fmt.Errorf("highlight %s: %w", id, ErrUnknownSubpath))
		return
	}
	s.releaseHighlights()
	if strokeWidth <= 0 {
		strokeWidth = s.highlightWidth
	}
	ref := s.highlights.put(sp.ID, highlightOverlay(sp, s.origin(sp.ID), s.transform(), strokeWidth))
	sp.IsHighlighted = true
	s.selectedSubpathID = sp.ID
	s.highlightStroke = strokeWidth
	s.host.RequestRedraw()

	s.emit(SubpathHighlighted{Subpath: sp.Clone(), OverlayRef: ref})
}

// SelectSubpath highlights a subpath and, in point editing mode, moves the
// point editor to it.
func (s *Session) SelectSubpath(id string, strokeWidth float64) {
	sp, _ := subpath.Find(s.subpaths, id)
	if sp == nil {
		s.warn("select", fmt.Errorf("select %s: %w", id, ErrUnknownSubpath))
		return
	}
	s.HighlightSubpath(id, strokeWidth)
	s.emit(SubpathSelected{Subpath: sp.Clone()})

	if s.editing && s.editingSubpathID != sp.ID {
		s.EnablePointEditing(sp.ID)
	}
}

// ClearHighlights removes every highlight and drops the subpath selection.
func (s *Session) ClearHighlights() {
	s.releaseHighlights()
	s.selectedSubpathID = ""
	s.host.RequestRedraw()
	s.emit(HighlightsCleared{})
}

func (s *Session) releaseHighlights() {
	s.highlights.clear()
	for _, sp := range s.subpaths {
		sp.IsHighlighted = false
	}
}

// MoveSubpath translates one subpath by (dx, dy) in local path space. A
// following subpath that starts with a relative moveto is offset the other
// way so it stays where it was.
func (s *Session) MoveSubpath(id string, dx, dy float64) {
	sp, i := subpath.Find(s.subpaths, id)
	if sp == nil {
		s.warn("move", fmt.Errorf("move %s: %w", id, ErrUnknownSubpath))
		return
	}
	sp.Translate(dx, dy)
	if i+1 < len(s.subpaths) {
		if next := s.subpaths[i+1]; startsRelative(next) {
			cmds := pathdata.CloneAll(next.Commands)
			cmds[0].Coords[0] -= dx
			cmds[0].Coords[1] -= dy
			next.Commands = cmds
			next.RawText = pathdata.Format(cmds)
			if s.editing && s.editingSubpathID == next.ID {
				refreshPoints(s.points, next.Commands)
			}
		}
	}
	s.commit(sp)
	if s.editing && s.editingSubpathID == sp.ID {
		refreshPoints(s.points, sp.Commands)
	}
	s.redraw()

	s.emit(SubpathMoved{Subpath: sp.Clone(), DX: dx, DY: dy})
}

// DeleteSubpath removes a subpath from the shape. Removing the last one
// empties the shape and returns the session to idle.
func (s *Session) DeleteSubpath(id string) {
	sp, i := subpath.Find(s.subpaths, id)
	if sp == nil {
		s.warn("delete", fmt.Errorf("delete %s: %w", id, ErrUnknownSubpath))
		return
	}
	deleted := sp.Clone()

	if s.selectedSubpathID == id {
		s.ClearHighlights()
	}
	if s.editing && s.editingSubpathID == id {
		s.DisablePointEditing()
	}

	s.subpaths = subpath.Remove(s.subpaths, i, s.palette)
	s.commit(nil)

	if len(s.subpaths) == 0 {
		s.clearState()
		s.emit(SubpathDeleted{DeletedSubpath: deleted, Remaining: []*subpath.Subpath{}, IsEmpty: true})
		return
	}
	s.redraw()
	s.emit(SubpathDeleted{DeletedSubpath: deleted, Remaining: cloneSubpaths(s.subpaths)})
}

// --- Point editing ---

// EnablePointEditing builds the point model for a subpath, or for the
// selected subpath when id is empty.
func (s *Session) EnablePointEditing(id string) {
	if id == "" {
		id = s.selectedSubpathID
	}
	sp, _ := subpath.Find(s.subpaths, id)
	if sp == nil {
		s.warn("enablePoints", fmt.Errorf("edit points of %q: %w", id, ErrUnknownSubpath))
		return
	}
	s.releasePoints()
	s.editing = true
	s.editingSubpathID = sp.ID
	s.points, s.pairs = buildPoints(sp.Commands)
	s.drawMarkers(sp)
	s.host.RequestRedraw()

	s.emit(PointEditingModeChanged{Enabled: true, SubpathID: sp.ID})
}

// DisablePointEditing drops the point model and its markers.
func (s *Session) DisablePointEditing() {
	if !s.editing {
		return
	}
	s.releasePoints()
	s.editing = false
	s.editingSubpathID = ""
	s.host.RequestRedraw()
	s.emit(PointEditingModeChanged{Enabled: false})
}

// TogglePointEditing switches point editing off, or on for id.
func (s *Session) TogglePointEditing(id string) {
	if s.editing {
		s.DisablePointEditing()
		return
	}
	s.EnablePointEditing(id)
}

func (s *Session) releasePoints() {
	s.markers.clear()
	s.points = nil
	s.pairs = nil
	s.selectedPointID = ""
}

// SelectPoint marks one editable point as selected.
func (s *Session) SelectPoint(id string) {
	i := findPoint(s.points, id)
	if i < 0 {
		s.warn("selectPoint", fmt.Errorf("select point %s: %w", id, ErrUnknownPoint))
		return
	}
	prev := s.selectedPointID
	s.selectedPointID = id
	if sp := s.editingSubpath(); sp != nil {
		t := s.transform()
		if j := findPoint(s.points, prev); j >= 0 {
			s.markers.put(prev, pointOverlay(sp, s.points[j], t, false))
		}
		s.markers.put(id, pointOverlay(sp, s.points[i], t, true))
		s.host.RequestRedraw()
	}
	s.emit(PointSelected{Point: s.points[i]})
}

// MovePoint moves a point to (x, y) in local path space. Handles of a moved
// anchor follow it; a handle in a synchronized pair is mirrored by its
// partner through the pair's anchor.
func (s *Session) MovePoint(id string, x, y float64) {
	i := findPoint(s.points, id)
	if i < 0 {
		s.warn("movePoint", fmt.Errorf("move point %s: %w", id, ErrUnknownPoint))
		return
	}
	sp := s.editingSubpath()
	p := s.points[i]
	if sp == nil || sp.CommandIndex(p.CommandID) < 0 {
		s.warn("movePoint", fmt.Errorf("move point %s: command %s: %w", id, p.CommandID, ErrStaleCommand))
		return
	}

	old := p.Pos()
	target := vec.Vec2{X: x, Y: y}
	delta := target.Sub(old)
	moved := map[string]vec.Vec2{p.ID: target}

	if p.Role == RoleAnchor {
		s.shiftHandles(p.CommandID, delta, moved)
		if j := findPoint(s.points, p.LinkedPointID); j >= 0 && coincide(s.points[j].Pos(), old, s.jointTol) {
			linked := s.points[j]
			moved[linked.ID] = linked.Pos().Add(delta)
			s.shiftHandles(linked.CommandID, delta, moved)
		}
	} else if pair, ok := syncPairFor(s.pairs, p.ID); ok {
		otherID, _ := pair.Other(p.ID)
		a, o := findPoint(s.points, pair.AnchorID), findPoint(s.points, otherID)
		if a >= 0 && o >= 0 {
			anchor := s.points[a].Pos()
			moved[otherID] = anchor.Mul(2).Sub(target)
		}
	}

	for _, q := range s.points {
		v, ok := moved[q.ID]
		if !ok {
			continue
		}
		ci := sp.CommandIndex(q.CommandID)
		if ci < 0 {
			s.warn("movePoint", fmt.Errorf("write point %s: %w", q.ID, ErrStaleCommand))
			continue
		}
		at, found := slotFor(sp.Commands[ci].Kind, q.Role)
		if !found || len(sp.Commands[ci].Coords) < sp.Commands[ci].Kind.Arity() {
			s.warn("movePoint", fmt.Errorf("write point %s: %w", q.ID, ErrStaleCommand))
			continue
		}
		writeSlot(&sp.Commands[ci], at, v)
	}

	s.commit(sp)
	if !refreshPoints(s.points, sp.Commands) {
		s.warn("movePoint", fmt.Errorf("refresh points of %s: %w", sp.ID, ErrStaleCommand))
	}
	s.redraw()

	s.emit(PointMoved{Point: s.points[i], OldX: old.X, OldY: old.Y, NewX: x, NewY: y})
}

// DragPoint moves a point to a scene-space position, as delivered by a
// pointer drag over its marker.
func (s *Session) DragPoint(id string, sceneX, sceneY float64) {
	local := s.transform().Inverse(vec.Vec2{X: sceneX, Y: sceneY})
	s.MovePoint(id, local.X, local.Y)
}

func (s *Session) shiftHandles(commandID string, delta vec.Vec2, moved map[string]vec.Vec2) {
	for _, q := range s.points {
		if q.CommandID == commandID && q.Role != RoleAnchor {
			moved[q.ID] = q.Pos().Add(delta)
		}
	}
}

// SetPairSynchronized turns handle mirroring on or off for one pair, given
// as "<handleA>_<handleB>".
func (s *Session) SetPairSynchronized(pairID string, synchronized bool) {
	i := findPair(s.pairs, pairID)
	if i < 0 {
		s.warn("pairSync", fmt.Errorf("update pair %s: %w", pairID, ErrUnknownPair))
		return
	}
	s.pairs[i].Synchronized = synchronized
	s.emit(ControlPairSyncChanged{Pair: s.pairs[i], Synchronized: synchronized})
}

// Close releases every overlay the session created and returns it to idle.
func (s *Session) Close() {
	s.clearState()
}

// --- Queries ---

func (s *Session) ShapeID() string { return s.shapeID }

func (s *Session) State() State {
	switch {
	case len(s.subpaths) == 0:
		return StateIdle
	case s.editing:
		return StatePointEditing
	}
	return StateSubpathsExtracted
}

// Subpaths returns a snapshot of the subpaths in ordinal order.
func (s *Session) Subpaths() []*subpath.Subpath {
	return cloneSubpaths(s.subpaths)
}

func (s *Session) SelectedSubpathID() string { return s.selectedSubpathID }
func (s *Session) EditingSubpathID() string  { return s.editingSubpathID }
func (s *Session) SelectedPointID() string   { return s.selectedPointID }

// Points returns a copy of the editable points.
func (s *Session) Points() []EditablePoint {
	return append([]EditablePoint(nil), s.points...)
}

// Pairs returns a copy of the control point pairs.
func (s *Session) Pairs() []ControlPointPair {
	return append([]ControlPointPair(nil), s.pairs...)
}

// Point returns the editable point with the given id.
func (s *Session) Point(id string) (EditablePoint, bool) {
	if i := findPoint(s.points, id); i >= 0 {
		return s.points[i], true
	}
	return EditablePoint{}, false
}

// PointAt returns the editable point whose marker contains the scene point.
// Markers are tested front to back, so later points win.
func (s *Session) PointAt(sceneX, sceneY float64) (string, bool) {
	if !s.editing {
		return "", false
	}
	t := s.transform()
	at := vec.Vec2{X: sceneX, Y: sceneY}
	for i := len(s.points) - 1; i >= 0; i-- {
		p := s.points[i]
		if !p.Visible {
			continue
		}
		radius := float64(handleRadius)
		if p.Role == RoleAnchor {
			radius = anchorRadius
		}
		if t.Forward(p.Pos()).Sub(at).Length() <= radius {
			return p.ID, true
		}
	}
	return "", false
}

func (s *Session) PanelState() PanelState {
	return PanelState{HasSubpaths: len(s.subpaths) > 0, Subpaths: cloneSubpaths(s.subpaths)}
}

// OverlayCount is the number of host overlays the session currently holds.
func (s *Session) OverlayCount() int {
	return s.highlights.size() + s.markers.size()
}

// --- Internals ---

func (s *Session) editingSubpath() *subpath.Subpath {
	if !s.editing {
		return nil
	}
	sp, _ := subpath.Find(s.subpaths, s.editingSubpathID)
	return sp
}

// transform reads the shape placement, substituting defaults for a missing
// shape or unusable fields.
func (s *Session) transform() ShapeTransform {
	t, ok := s.host.ShapeTransform(s.shapeID)
	if !ok {
		s.log.Debug("shape transform unavailable", "shape", s.shapeID)
	}
	return t.Normalized()
}

func (s *Session) shapeBounds() rect.Rect {
	r, _ := s.host.Bounds(s.shapeID)
	return r
}

// commit writes the reassembled path text to the host and restores the
// shape placement the write may have reset. The touched subpath, if any, is
// re-serialized first and re-analyzed against the new shape bounds.
func (s *Session) commit(touched *subpath.Subpath) {
	if touched != nil {
		touched.RawText = pathdata.Format(touched.Commands)
	}
	saved, hadPlacement := s.host.ShapeTransform(s.shapeID)
	text := subpath.FullText(s.subpaths)

	if err := s.host.SetPathText(s.shapeID, text); err != nil {
		s.warn("commit", fmt.Errorf("set path text: %w", err))
		return
	}
	s.hostText = text
	if hadPlacement {
		restore := saved
		after, ok := s.host.ShapeTransform(s.shapeID)
		if ok {
			restore = after.WithPlacement(saved)
		}
		if !ok || !after.SamePlacement(saved) {
			if err := s.host.SetShapeTransform(s.shapeID, restore); err != nil {
				s.warn("commit", fmt.Errorf("restore shape transform: %w", err))
			}
		}
	}

	bounds := s.shapeBounds()
	for _, sp := range s.subpaths {
		sp.Bounds = subpath.BoundsFromRect(bounds)
	}
	if touched != nil {
		touched.Refresh(bounds)
	}
	s.host.RequestRedraw()
	s.emit(PathChanged{ShapeID: s.shapeID, Text: text})
}

// commands is the whole model as one command list.
func (s *Session) commands() []pathdata.Command {
	var out []pathdata.Command
	for _, sp := range s.subpaths {
		out = append(out, sp.Commands...)
	}
	return out
}

// origin is the current point left by the subpaths before id.
func (s *Session) origin(id string) vec.Vec2 {
	var cur vec.Vec2
	for _, sp := range s.subpaths {
		if sp.ID == id {
			break
		}
		cur = pathdata.EndPoint(sp.Commands, cur)
	}
	return cur
}

func startsRelative(sp *subpath.Subpath) bool {
	return len(sp.Commands) > 0 && sp.Commands[0].Kind == pathdata.MoveTo && sp.Commands[0].Relative
}

// redraw re-places every live overlay from the current model and shape
// placement without rebuilding the model.
func (s *Session) redraw() {
	t := s.transform()
	if sp, _ := subpath.Find(s.subpaths, s.selectedSubpathID); sp != nil {
		if _, ok := s.highlights.ref(sp.ID); ok {
			s.highlights.put(sp.ID, highlightOverlay(sp, s.origin(sp.ID), t, s.highlightStroke))
		}
	}
	if sp := s.editingSubpath(); sp != nil {
		s.drawMarkers(sp)
	}
	s.host.RequestRedraw()
}

func (s *Session) drawMarkers(sp *subpath.Subpath) {
	t := s.transform()
	for _, p := range s.points {
		if !p.Visible {
			continue
		}
		s.markers.put(p.ID, pointOverlay(sp, p, t, p.ID == s.selectedPointID))
	}
}

// clearState tears everything down and returns to idle.
func (s *Session) clearState() {
	hadHighlights := s.highlights.size() > 0 || s.selectedSubpathID != ""
	s.releaseHighlights()
	s.selectedSubpathID = ""
	if hadHighlights {
		s.emit(HighlightsCleared{})
	}
	s.DisablePointEditing()
	s.releasePoints()
	s.subpaths = nil
	s.hostText = ""
	s.shapeID = ""
}
