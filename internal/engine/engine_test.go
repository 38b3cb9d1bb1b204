package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"seehuhn.de/go/geom/vec"

	"github.com/inamate/inamate/pathedit/internal/subpath"
)

const (
	shapeID    = "shape_1"
	twoSquares = "M0 0 L10 0 L10 10 Z M20 20 L30 20 Z"
)

var placed = ShapeTransform{Left: 100, Top: 50, ScaleX: 2, ScaleY: 1.5, AngleDegrees: 30, Width: 30, Height: 20}

type recorder struct {
	events []Event
}

func (r *recorder) names() []string {
	var out []string
	for _, e := range r.events {
		out = append(out, e.EventName())
	}
	return out
}

func (r *recorder) last(name string) Event {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].EventName() == name {
			return r.events[i]
		}
	}
	return nil
}

func (r *recorder) warnings() []Warning {
	var out []Warning
	for _, e := range r.events {
		if w, ok := e.(Warning); ok {
			out = append(out, w)
		}
	}
	return out
}

func newTestSession(t *testing.T, text string) (*Session, *fakeHost, *recorder) {
	t.Helper()
	h := newFakeHost()
	h.addShape(shapeID, text, placed)
	s := NewSession(h, Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	r := &recorder{}
	s.Subscribe(func(e Event) { r.events = append(r.events, e) })
	s.HandleSelectionChanged(shapeID)
	return s, h, r
}

// pointOf finds the point of the given role owned by the command at index.
func pointOf(t *testing.T, s *Session, commandIndex int, role PointRole) EditablePoint {
	t.Helper()
	for _, p := range s.Points() {
		if p.CommandIndex == commandIndex && p.Role == role {
			return p
		}
	}
	t.Fatalf("no %s point on command %d", role, commandIndex)
	return EditablePoint{}
}

func coordsOf(sp *subpath.Subpath) [][]float64 {
	out := make([][]float64, len(sp.Commands))
	for i, c := range sp.Commands {
		out[i] = c.Coords
	}
	return out
}

func positions(s *Session) map[string]vec.Vec2 {
	out := make(map[string]vec.Vec2)
	for _, p := range s.Points() {
		out[p.ID] = p.Pos()
	}
	return out
}

func TestExtractTwoSquares(t *testing.T) {
	s, _, r := newTestSession(t, twoSquares)

	require.Equal(t, StateSubpathsExtracted, s.State())
	subs := s.Subpaths()
	require.Len(t, subs, 2)
	// the close command counts, so a closed triangle has four commands
	assert.Equal(t, subpath.Stats{TotalCommands: 4, TotalPoints: 3, IsClosed: true, Length: 20}, subs[0].Stats)
	assert.Equal(t, "M20 20 L30 20 Z", subs[1].RawText)

	ev, ok := r.last(EventSubpathsExtracted).(SubpathsExtracted)
	require.True(t, ok)
	assert.Equal(t, shapeID, ev.ShapeID)
	assert.Len(t, ev.Subpaths, 2)
	assert.Equal(t, shapeID, s.ShapeID())
}

func TestSelectionOfSingleContourIsIdle(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	h.addShape("single", "M0 0 L5 5 Z", placed)

	s.HandleSelectionChanged("single")
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Subpaths())
	assert.Equal(t, "", s.ShapeID())

	s.HandleSelectionChanged(shapeID)
	require.Equal(t, StateSubpathsExtracted, s.State())
	s.HandleSelectionChanged("")
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, r.warnings())
}

func TestSelectionOfMissingShapeWarns(t *testing.T) {
	s, _, r := newTestSession(t, twoSquares)
	s.HandleSelectionChanged("gone")
	assert.Equal(t, StateIdle, s.State())
	require.Len(t, r.warnings(), 1)
	assert.ErrorIs(t, r.warnings()[0].Err, ErrNoShape)
}

func TestMoveAnchorRewritesCommand(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	sp := s.Subpaths()[0]
	s.EnablePointEditing(sp.ID)
	require.Equal(t, StatePointEditing, s.State())

	anchor := pointOf(t, s, 1, RoleAnchor)
	assert.Equal(t, vec.Vec2{X: 10, Y: 0}, anchor.Pos())
	s.MovePoint(anchor.ID, 15, 5)

	got := s.Subpaths()[0]
	want := [][]float64{{0, 0}, {15, 5}, {10, 10}, nil}
	if d := cmp.Diff(want, coordsOf(got)); d != "" {
		t.Errorf("coords (-want +got):\n%s", d)
	}
	assert.Equal(t, "M0 0 L15 5 L10 10 Z", got.RawText)
	assert.Equal(t, "M0 0 L15 5 L10 10 Z M20 20 L30 20 Z", h.shapes[shapeID].text)
	assert.True(t, h.shapes[shapeID].tr.SamePlacement(placed), "placement must survive the path write")

	moved, ok := r.last(EventPointMoved).(PointMoved)
	require.True(t, ok)
	assert.Equal(t, PointMoved{Point: moved.Point, OldX: 10, OldY: 0, NewX: 15, NewY: 5}, moved)
	assert.Equal(t, vec.Vec2{X: 15, Y: 5}, moved.Point.Pos())

	changed, ok := r.last(EventPathChanged).(PathChanged)
	require.True(t, ok)
	assert.Equal(t, h.shapes[shapeID].text, changed.Text)
	assert.Empty(t, r.warnings())
}

func TestAnchorDragMovesOwnHandles(t *testing.T) {
	s, _, _ := newTestSession(t, "M0 0 C1 2 3 4 5 6 L9 9 Z M20 20 L30 30")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	before := positions(s)
	anchor := pointOf(t, s, 1, RoleAnchor)
	c1 := pointOf(t, s, 1, RoleControl1)
	c2 := pointOf(t, s, 1, RoleControl2)

	s.MovePoint(anchor.ID, 7, 9)

	after := positions(s)
	assert.Equal(t, vec.Vec2{X: 7, Y: 9}, after[anchor.ID])
	assert.Equal(t, vec.Vec2{X: 3, Y: 5}, after[c1.ID])
	assert.Equal(t, vec.Vec2{X: 5, Y: 7}, after[c2.ID])
	for id, p := range before {
		if id == anchor.ID || id == c1.ID || id == c2.ID {
			continue
		}
		assert.Equal(t, p, after[id], id)
	}
	assert.Equal(t, "M0 0 C3 5 5 7 7 9 L9 9 Z", s.Subpaths()[0].RawText)
}

func TestHandleMirroring(t *testing.T) {
	s, _, r := newTestSession(t, "M0 0 C1 2 3 4 5 6 Z M10 10 L20 20")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	c1 := pointOf(t, s, 1, RoleControl1)
	c2 := pointOf(t, s, 1, RoleControl2)
	require.Len(t, s.Pairs(), 1)
	pair := s.Pairs()[0]
	assert.Equal(t, c1.ID+"_"+c2.ID, pair.ID())
	assert.True(t, pair.Synchronized)

	// anchor (5,6): the partner lands on 2A - H'
	s.MovePoint(c1.ID, 4, 7)
	p, _ := s.Point(c2.ID)
	assert.Equal(t, vec.Vec2{X: 6, Y: 5}, p.Pos())
	assert.Equal(t, "M0 0 C4 7 6 5 5 6 Z", s.Subpaths()[0].RawText)

	s.MovePoint(c2.ID, 8, 1)
	p, _ = s.Point(c1.ID)
	assert.Equal(t, vec.Vec2{X: 2, Y: 11}, p.Pos())

	s.SetPairSynchronized(pair.ID(), false)
	ev, ok := r.last(EventControlPairSyncChanged).(ControlPairSyncChanged)
	require.True(t, ok)
	assert.False(t, ev.Synchronized)
	assert.False(t, ev.Pair.Synchronized)

	s.MovePoint(c1.ID, 0, 0)
	p, _ = s.Point(c2.ID)
	assert.Equal(t, vec.Vec2{X: 8, Y: 1}, p.Pos(), "unsynchronized partner stays put")

	s.SetPairSynchronized("nope_nope", true)
	require.Len(t, r.warnings(), 1)
	assert.ErrorIs(t, r.warnings()[0].Err, ErrUnknownPair)
}

func TestJointAnchorsMoveTogether(t *testing.T) {
	s, h, _ := newTestSession(t, "M0 0 L10 0 L10 10 L0 0 Z M20 20 L30 30")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	first := pointOf(t, s, 0, RoleAnchor)
	last := pointOf(t, s, 3, RoleAnchor)
	assert.Equal(t, last.ID, first.LinkedPointID)
	assert.Equal(t, first.ID, last.LinkedPointID)

	s.MovePoint(first.ID, 1, 1)
	assert.Equal(t, "M1 1 L10 0 L10 10 L1 1 Z M20 20 L30 30", h.shapes[shapeID].text)
}

func TestJointAnchorsApartMoveAlone(t *testing.T) {
	s, _, _ := newTestSession(t, "M0 0 L10 0 L10 10 Z M20 20 L30 30")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	first := pointOf(t, s, 0, RoleAnchor)
	assert.NotEmpty(t, first.LinkedPointID)
	s.MovePoint(first.ID, 1, 1)
	assert.Equal(t, "M1 1 L10 0 L10 10 Z", s.Subpaths()[0].RawText)
}

func TestSingleAnchorClosedSubpathHasNoJoint(t *testing.T) {
	s, _, _ := newTestSession(t, "M5 5 Z M20 20 L30 30")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	require.Len(t, s.Points(), 1)
	assert.Empty(t, s.Points()[0].LinkedPointID)
	assert.Empty(t, s.Pairs())
}

func TestClosingJointPairMirrorsThroughFirstAnchor(t *testing.T) {
	s, h, _ := newTestSession(t, "M0 0 Q5 -5 10 0 Q5 5 0 0 Z M20 20 L30 30")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	out := pointOf(t, s, 1, RoleControl1)
	in := pointOf(t, s, 2, RoleControl1)
	first := pointOf(t, s, 0, RoleAnchor)
	require.Equal(t, []ControlPointPair{{HandleAID: out.ID, HandleBID: in.ID, AnchorID: first.ID, Synchronized: true}}, s.Pairs())

	s.MovePoint(out.ID, 4, -6)
	assert.Equal(t, "M0 0 Q4 -6 10 0 Q-4 6 0 0 Z M20 20 L30 30", h.shapes[shapeID].text)
}

func TestHorizontalAndVerticalAnchors(t *testing.T) {
	s, _, _ := newTestSession(t, "M1 2 H5 V7 L3 3 Z M9 9 L8 8")
	s.EnablePointEditing(s.Subpaths()[0].ID)

	want := []vec.Vec2{{X: 1, Y: 2}, {X: 5, Y: 2}, {X: 5, Y: 7}, {X: 3, Y: 3}}
	var got []vec.Vec2
	for _, p := range s.Points() {
		got = append(got, p.Pos())
	}
	assert.Equal(t, want, got)

	h := pointOf(t, s, 1, RoleAnchor)
	s.MovePoint(h.ID, 6, 100)
	assert.Equal(t, "M1 2 H6 V7 L3 3 Z", s.Subpaths()[0].RawText)

	p, _ := s.Point(h.ID)
	assert.Equal(t, vec.Vec2{X: 6, Y: 2}, p.Pos(), "y of H is derived and snaps back")
	v := pointOf(t, s, 2, RoleAnchor)
	assert.Equal(t, vec.Vec2{X: 6, Y: 7}, v.Pos(), "x of V follows the H before it")
}

func TestStalePointIsNoOp(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	subs := s.Subpaths()
	s.EnablePointEditing(subs[0].ID)
	stale := pointOf(t, s, 1, RoleAnchor)

	s.MovePoint("cmd_nope_anchor", 1, 1)
	require.Len(t, r.warnings(), 1)
	assert.ErrorIs(t, r.warnings()[0].Err, ErrUnknownPoint)
	assert.Equal(t, twoSquares, h.shapes[shapeID].text)

	s.points[0].CommandID = "cmd_gone"
	s.MovePoint(s.points[0].ID, 1, 1)
	require.Len(t, r.warnings(), 2)
	assert.ErrorIs(t, r.warnings()[1].Err, ErrStaleCommand)
	assert.Equal(t, twoSquares, h.shapes[shapeID].text)

	s.DeleteSubpath(subs[0].ID)
	assert.Empty(t, s.Points())
	s.MovePoint(stale.ID, 3, 3)
	require.Len(t, r.warnings(), 3)
	assert.ErrorIs(t, r.warnings()[2].Err, ErrUnknownPoint)
	assert.Equal(t, "M20 20 L30 20 Z", h.shapes[shapeID].text)
}

func TestDeleteReindexes(t *testing.T) {
	s, h, r := newTestSession(t, "M0 0 L1 1 M2 2 L3 3 M4 4 L5 5")
	subs := s.Subpaths()

	s.DeleteSubpath(subs[0].ID)
	rest := s.Subpaths()
	require.Len(t, rest, 2)
	for i, sp := range rest {
		assert.Equal(t, i+1, sp.Ordinal)
		assert.Equal(t, subpath.DefaultPalette[i], sp.Color)
	}
	assert.Equal(t, subs[1].ID, rest[0].ID)
	assert.Equal(t, "M2 2 L3 3 M4 4 L5 5", h.shapes[shapeID].text)
	assert.True(t, h.shapes[shapeID].tr.SamePlacement(placed))

	ev, ok := r.last(EventSubpathDeleted).(SubpathDeleted)
	require.True(t, ok)
	assert.Equal(t, subs[0].ID, ev.DeletedSubpath.ID)
	assert.Len(t, ev.Remaining, 2)
	assert.False(t, ev.IsEmpty)
	assert.Equal(t, StateSubpathsExtracted, s.State())

	s.DeleteSubpath(rest[0].ID)
	s.DeleteSubpath(rest[1].ID)
	ev, ok = r.last(EventSubpathDeleted).(SubpathDeleted)
	require.True(t, ok)
	assert.True(t, ev.IsEmpty)
	assert.Empty(t, ev.Remaining)
	assert.Equal(t, StateIdle, s.State())
	assert.Equal(t, "", h.shapes[shapeID].text)

	s.DeleteSubpath(rest[1].ID)
	require.Len(t, r.warnings(), 1)
	assert.ErrorIs(t, r.warnings()[0].Err, ErrUnknownSubpath)
}

func TestDeleteSelectedSubpathClearsHighlight(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	sp := s.Subpaths()[0]
	s.SelectSubpath(sp.ID, 0)
	s.EnablePointEditing("")
	require.Equal(t, sp.ID, s.EditingSubpathID())

	r.events = nil
	s.DeleteSubpath(sp.ID)
	assert.Equal(t, []string{
		EventHighlightsCleared,
		EventPointEditingModeChanged,
		EventPathChanged,
		EventSubpathDeleted,
	}, r.names())
	assert.Empty(t, h.overlays)
	assert.Equal(t, "", s.SelectedSubpathID())
	assert.Equal(t, StateSubpathsExtracted, s.State())
}

func TestHighlightReplacesOverlay(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	subs := s.Subpaths()

	s.HighlightSubpath(subs[0].ID, 0)
	hl := h.overlaysOfKind(OverlayHighlight)
	require.Len(t, hl, 1)
	assert.Equal(t, subs[0].Color, hl[0].Stroke)
	assert.Equal(t, 1.0, hl[0].StrokeWidth)
	assert.Equal(t, 0.8, hl[0].Opacity)
	assert.Equal(t, "transparent", hl[0].Fill)
	assert.Equal(t, placed.Matrix().Geom(), hl[0].Transform)
	assert.Equal(t, PathCommand{"M", 0.0, 0.0}, hl[0].Path[0])
	assert.Len(t, hl[0].Path, 4)

	s.HighlightSubpath(subs[1].ID, 3)
	hl = h.overlaysOfKind(OverlayHighlight)
	require.Len(t, hl, 1)
	assert.Equal(t, subs[1].Color, hl[0].Stroke)
	assert.Equal(t, 3.0, hl[0].StrokeWidth)
	assert.Equal(t, subs[1].ID, s.SelectedSubpathID())

	snap := s.Subpaths()
	assert.False(t, snap[0].IsHighlighted)
	assert.True(t, snap[1].IsHighlighted)

	ev, ok := r.last(EventSubpathHighlighted).(SubpathHighlighted)
	require.True(t, ok)
	_, live := h.overlays[ev.OverlayRef]
	assert.True(t, live)

	s.ClearHighlights()
	assert.Empty(t, h.overlays)
	assert.Equal(t, "", s.SelectedSubpathID())
	assert.Equal(t, EventHighlightsCleared, r.events[len(r.events)-1].EventName())

	s.HighlightSubpath("subpath_nope", 1)
	require.Len(t, r.warnings(), 1)
	assert.ErrorIs(t, r.warnings()[0].Err, ErrUnknownSubpath)
}

func TestSelectSubpathWhileEditingRebuildsPoints(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	subs := s.Subpaths()
	s.EnablePointEditing(subs[0].ID)
	assert.Len(t, s.Points(), 3)

	s.SelectSubpath(subs[1].ID, 0)
	assert.Equal(t, subs[1].ID, s.EditingSubpathID())
	points := s.Points()
	require.Len(t, points, 2)
	for _, p := range points {
		assert.Equal(t, subs[1].Commands[p.CommandIndex].ID, p.CommandID)
	}
	assert.Len(t, h.overlaysOfKind(OverlayAnchor), 2)
	assert.Len(t, h.overlaysOfKind(OverlayHighlight), 1)

	sel, ok := r.last(EventSubpathSelected).(SubpathSelected)
	require.True(t, ok)
	assert.Equal(t, subs[1].ID, sel.Subpath.ID)
}

func TestTogglePointEditing(t *testing.T) {
	s, h, r := newTestSession(t, "M0 0 C1 1 2 2 3 3 M5 5 L6 6")
	id := s.Subpaths()[0].ID

	s.TogglePointEditing(id)
	assert.Equal(t, StatePointEditing, s.State())
	assert.Len(t, h.overlaysOfKind(OverlayAnchor), 2)
	assert.Len(t, h.overlaysOfKind(OverlayHandle), 2)
	ev, ok := r.last(EventPointEditingModeChanged).(PointEditingModeChanged)
	require.True(t, ok)
	assert.Equal(t, PointEditingModeChanged{Enabled: true, SubpathID: id}, ev)

	s.TogglePointEditing(id)
	assert.Equal(t, StateSubpathsExtracted, s.State())
	assert.Empty(t, h.overlays)
	assert.Empty(t, s.Points())
	ev, ok = r.last(EventPointEditingModeChanged).(PointEditingModeChanged)
	require.True(t, ok)
	assert.Equal(t, PointEditingModeChanged{Enabled: false}, ev)
}

func TestEnableWithoutSelectionWarns(t *testing.T) {
	s, _, r := newTestSession(t, twoSquares)
	s.EnablePointEditing("")
	assert.Equal(t, StateSubpathsExtracted, s.State())
	require.Len(t, r.warnings(), 1)
	assert.ErrorIs(t, r.warnings()[0].Err, ErrUnknownSubpath)
}

func TestDragPointInSceneSpace(t *testing.T) {
	s, h, _ := newTestSession(t, twoSquares)
	s.EnablePointEditing(s.Subpaths()[0].ID)
	anchor := pointOf(t, s, 1, RoleAnchor)

	scene := placed.Forward(vec.Vec2{X: 15, Y: 5})
	s.DragPoint(anchor.ID, scene.X, scene.Y)

	coords := s.Subpaths()[0].Commands[1].Coords
	assert.InDelta(t, 15, coords[0], 1e-9)
	assert.InDelta(t, 5, coords[1], 1e-9)

	p, _ := s.Point(anchor.ID)
	tr := h.shapes[shapeID].tr
	var marker *Overlay
	for _, o := range h.overlays {
		if o.PointID == anchor.ID {
			marker = &o
		}
	}
	require.NotNil(t, marker)
	assertNear(t, tr.Forward(p.Pos()), marker.Center, 1e-9)
}

func TestShapeTransformingRedrawsWithoutRebuild(t *testing.T) {
	s, h, _ := newTestSession(t, twoSquares)
	subs := s.Subpaths()
	s.SelectSubpath(subs[0].ID, 0)
	s.EnablePointEditing(subs[0].ID)

	moved := placed
	moved.Left, moved.AngleDegrees = 400, -10
	h.shapes[shapeID].tr = moved
	updates := h.updated

	s.HandleShapeTransforming(shapeID)
	assert.Greater(t, h.updated, updates)
	assert.Equal(t, subs[0].ID, s.Subpaths()[0].ID, "model is not rebuilt")
	assert.Equal(t, moved.Matrix().Geom(), h.overlaysOfKind(OverlayHighlight)[0].Transform)

	anchor := pointOf(t, s, 1, RoleAnchor)
	for _, o := range h.overlays {
		if o.PointID == anchor.ID {
			assertNear(t, moved.Forward(anchor.Pos()), o.Center, 1e-9)
		}
	}

	// events for other shapes are ignored
	updates = h.updated
	s.HandleShapeTransforming("other")
	assert.Equal(t, updates, h.updated)
}

func TestShapeModified(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	ids := []string{s.Subpaths()[0].ID, s.Subpaths()[1].ID}

	s.HandleShapeModified(shapeID)
	assert.Equal(t, ids[0], s.Subpaths()[0].ID, "same text keeps the model")

	h.shapes[shapeID].text = twoSquares + " M40 40 L50 50"
	r.events = nil
	s.HandleShapeModified(shapeID)
	require.Len(t, s.Subpaths(), 3)
	assert.NotEqual(t, ids[0], s.Subpaths()[0].ID)
	assert.Contains(t, r.names(), EventSubpathsExtracted)

	h.shapes[shapeID].text = "M0 0 L1 1"
	s.HandleShapeModified(shapeID)
	assert.Equal(t, StateIdle, s.State())
}

func TestMoveSubpath(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	sp := s.Subpaths()[1]
	s.SelectSubpath(sp.ID, 2)

	s.MoveSubpath(sp.ID, 5, -5)
	assert.Equal(t, "M0 0 L10 0 L10 10 Z M25 15 L35 15 Z", h.shapes[shapeID].text)
	assert.True(t, h.shapes[shapeID].tr.SamePlacement(placed))

	ev, ok := r.last(EventSubpathMoved).(SubpathMoved)
	require.True(t, ok)
	assert.Equal(t, 5.0, ev.DX)
	assert.Equal(t, -5.0, ev.DY)
	assert.Equal(t, "M25 15 L35 15 Z", ev.Subpath.RawText)

	hl := h.overlaysOfKind(OverlayHighlight)
	require.Len(t, hl, 1)
	assert.Equal(t, PathCommand{"M", 25.0, 15.0}, hl[0].Path[0])
	assert.Equal(t, 2.0, hl[0].StrokeWidth)
}

func TestShapeModifiedKeepsRespelledText(t *testing.T) {
	s, h, r := newTestSession(t, "M0 0 L10 0 L10 10 Z\nM20 20 L30 20 Z")
	sp := s.Subpaths()[0]
	s.SelectSubpath(sp.ID, 0)
	s.EnablePointEditing(sp.ID)
	require.Equal(t, StatePointEditing, s.State())
	points := s.Points()
	r.events = nil

	s.HandleShapeModified(shapeID)
	h.shapes[shapeID].text = "M0,0 L10,0 L10,10 Z\n\n  M20,20 L30,20 Z"
	s.HandleShapeModified(shapeID)

	assert.Equal(t, StatePointEditing, s.State())
	assert.Equal(t, sp.ID, s.SelectedSubpathID())
	assert.Equal(t, sp.ID, s.EditingSubpathID())
	assert.Equal(t, points, s.Points())
	assert.NotContains(t, r.names(), EventSubpathsExtracted)

	h.shapes[shapeID].text = "M0 0 L10 0 L10 10 Z\nM20 20 L31 20 Z"
	s.HandleShapeModified(shapeID)
	assert.Equal(t, StateSubpathsExtracted, s.State())
	assert.Contains(t, r.names(), EventSubpathsExtracted)
}

func TestRelativeMoveToFollowsPreviousSubpath(t *testing.T) {
	s, h, _ := newTestSession(t, "M5 5 L10 0 Z m20 20 l5 0 z")
	second := s.Subpaths()[1]
	s.SelectSubpath(second.ID, 0)

	// after z the current point is back at (5,5)
	hl := h.overlaysOfKind(OverlayHighlight)
	require.Len(t, hl, 1)
	assert.Equal(t, PathCommand{"M", 25.0, 25.0}, hl[0].Path[0])

	s.MoveSubpath(s.Subpaths()[0].ID, 1, 2)
	assert.Equal(t, "M6 7 L11 2 Z m19 18 l5 0 z", h.shapes[shapeID].text)
	assert.Equal(t, "m19 18 l5 0 z", s.Subpaths()[1].RawText)

	hl = h.overlaysOfKind(OverlayHighlight)
	require.Len(t, hl, 1)
	assert.Equal(t, PathCommand{"M", 25.0, 25.0}, hl[0].Path[0], "the following subpath stays put")
}

func TestCommitLeavesKeptPlacementAlone(t *testing.T) {
	s, h, _ := newTestSession(t, twoSquares)
	sp := s.Subpaths()[1]

	s.MoveSubpath(sp.ID, 1, 1)
	assert.Equal(t, 1, h.transformSets, "a reset placement is restored")

	h.keepPlacement = true
	s.MoveSubpath(sp.ID, 1, 1)
	assert.Equal(t, 1, h.transformSets)
	assert.True(t, h.shapes[shapeID].tr.SamePlacement(placed))
}

func TestSelectPointStyling(t *testing.T) {
	s, h, r := newTestSession(t, "M0 0 C1 1 2 2 3 3 M5 5 L6 6")
	s.EnablePointEditing(s.Subpaths()[0].ID)
	anchor := pointOf(t, s, 1, RoleAnchor)
	handle := pointOf(t, s, 1, RoleControl1)

	marker := func(id string) Overlay {
		for _, o := range h.overlays {
			if o.PointID == id {
				return o
			}
		}
		t.Fatalf("no marker for %s", id)
		return Overlay{}
	}

	assert.Equal(t, 6.0, marker(anchor.ID).Radius)
	assert.Equal(t, "#fff", marker(anchor.ID).Fill)
	assert.Equal(t, 4.0, marker(handle.ID).Radius)
	assert.Equal(t, "#ff7875", marker(handle.ID).Stroke)

	s.SelectPoint(handle.ID)
	assert.Equal(t, 3.0, marker(handle.ID).StrokeWidth)
	assert.Equal(t, "#1890ff", marker(handle.ID).Stroke)

	s.SelectPoint(anchor.ID)
	assert.Equal(t, 2.0, marker(handle.ID).StrokeWidth)
	assert.Equal(t, "#ff7875", marker(handle.ID).Stroke)
	assert.Equal(t, anchor.ID, s.SelectedPointID())

	ev, ok := r.last(EventPointSelected).(PointSelected)
	require.True(t, ok)
	assert.Equal(t, anchor.ID, ev.Point.ID)
}

func TestPointAt(t *testing.T) {
	s, _, _ := newTestSession(t, twoSquares)
	_, ok := s.PointAt(0, 0)
	assert.False(t, ok, "no hits outside point editing")

	s.EnablePointEditing(s.Subpaths()[0].ID)
	anchor := pointOf(t, s, 1, RoleAnchor)
	at := placed.Forward(anchor.Pos())

	id, ok := s.PointAt(at.X+3, at.Y-2)
	require.True(t, ok)
	assert.Equal(t, anchor.ID, id)

	_, ok = s.PointAt(at.X+50, at.Y)
	assert.False(t, ok)
}

func TestHostWriteFailureWarns(t *testing.T) {
	s, h, r := newTestSession(t, twoSquares)
	s.EnablePointEditing(s.Subpaths()[0].ID)
	h.failSet = true

	s.MovePoint(pointOf(t, s, 1, RoleAnchor).ID, 3, 3)
	require.Len(t, r.warnings(), 1)
	assert.Equal(t, "commit", r.warnings()[0].Op)
	assert.Equal(t, twoSquares, h.shapes[shapeID].text)
}

func TestCloseReleasesOverlays(t *testing.T) {
	s, h, _ := newTestSession(t, twoSquares)
	s.SelectSubpath(s.Subpaths()[0].ID, 0)
	s.EnablePointEditing("")
	require.NotEmpty(t, h.overlays)
	assert.Equal(t, len(h.overlays), s.OverlayCount())

	s.Close()
	assert.Empty(t, h.overlays)
	assert.Zero(t, s.OverlayCount())
	assert.Equal(t, StateIdle, s.State())
}

func TestPanelStateAndUnsubscribe(t *testing.T) {
	s, _, r := newTestSession(t, twoSquares)
	panel := s.PanelState()
	assert.True(t, panel.HasSubpaths)
	assert.Len(t, panel.Subpaths, 2)

	n := len(r.events)
	var extra int
	unsubscribe := s.Subscribe(func(Event) { extra++ })
	s.ClearHighlights()
	unsubscribe()
	s.ClearHighlights()
	assert.Equal(t, 1, extra)
	assert.Len(t, r.events, n+2)

	s.Close()
	assert.False(t, s.PanelState().HasSubpaths)
}
