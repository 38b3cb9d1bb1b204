package engine

import (
	"math"

	"seehuhn.de/go/geom/vec"

	"github.com/inamate/inamate/pathedit/internal/pathdata"
)

// PointRole says which coordinate pair of its command a point edits.
type PointRole string

const (
	RoleAnchor   PointRole = "anchor"
	RoleControl1 PointRole = "control1"
	RoleControl2 PointRole = "control2"
)

// EditablePoint is a draggable anchor or handle in local path space.
// Its id is derived from the owning command id and the role.
type EditablePoint struct {
	ID            string    `json:"id"`
	X             float64   `json:"x"`
	Y             float64   `json:"y"`
	Role          PointRole `json:"role"`
	CommandIndex  int       `json:"commandIndex"`
	CommandID     string    `json:"commandId"`
	Visible       bool      `json:"visible"`
	LinkedPointID string    `json:"linkedPointId,omitempty"`
}

func (p EditablePoint) Pos() vec.Vec2 {
	return vec.Vec2{X: p.X, Y: p.Y}
}

// ControlPointPair keeps two handles mirrored through an anchor while
// Synchronized is set.
type ControlPointPair struct {
	HandleAID    string `json:"handleAId"`
	HandleBID    string `json:"handleBId"`
	AnchorID     string `json:"anchorId"`
	Synchronized bool   `json:"synchronized"`
}

// ID is "<handleA>_<handleB>".
func (p ControlPointPair) ID() string {
	return p.HandleAID + "_" + p.HandleBID
}

// Other returns the handle paired with id.
func (p ControlPointPair) Other(id string) (string, bool) {
	switch id {
	case p.HandleAID:
		return p.HandleBID, true
	case p.HandleBID:
		return p.HandleAID, true
	}
	return "", false
}

func pointID(commandID string, role PointRole) string {
	return commandID + "_" + string(role)
}

// slot is where a role lives in a command's coordinate list. An index of -1
// means the coordinate is derived from earlier commands, as for the missing
// axis of H and V.
type slot struct{ x, y int }

type pointSlot struct {
	role PointRole
	at   slot
}

// pointSlots lists the points a command kind exposes, in emission order.
func pointSlots(k pathdata.Kind) []pointSlot {
	switch k {
	case pathdata.MoveTo, pathdata.LineTo:
		return []pointSlot{{RoleAnchor, slot{0, 1}}}
	case pathdata.CubicCurveTo:
		return []pointSlot{{RoleControl1, slot{0, 1}}, {RoleControl2, slot{2, 3}}, {RoleAnchor, slot{4, 5}}}
	case pathdata.SmoothCubicCurveTo:
		return []pointSlot{{RoleControl2, slot{0, 1}}, {RoleAnchor, slot{2, 3}}}
	case pathdata.QuadraticCurveTo:
		return []pointSlot{{RoleControl1, slot{0, 1}}, {RoleAnchor, slot{2, 3}}}
	case pathdata.HorizontalLineTo:
		return []pointSlot{{RoleAnchor, slot{0, -1}}}
	case pathdata.VerticalLineTo:
		return []pointSlot{{RoleAnchor, slot{-1, 0}}}
	}
	return nil
}

func slotFor(k pathdata.Kind, role PointRole) (slot, bool) {
	for _, s := range pointSlots(k) {
		if s.role == role {
			return s.at, true
		}
	}
	return slot{}, false
}

// previousY finds the nearest earlier command that carries a y coordinate.
func previousY(cmds []pathdata.Command, index int) float64 {
	for i := index - 1; i >= 0; i-- {
		c := cmds[i]
		if len(c.Coords) < c.Kind.Arity() {
			continue
		}
		switch c.Kind {
		case pathdata.MoveTo, pathdata.LineTo:
			return c.Coords[1]
		case pathdata.CubicCurveTo:
			return c.Coords[5]
		case pathdata.SmoothCubicCurveTo, pathdata.QuadraticCurveTo:
			return c.Coords[3]
		case pathdata.VerticalLineTo:
			return c.Coords[0]
		}
	}
	return 0
}

// previousX mirrors previousY for x.
func previousX(cmds []pathdata.Command, index int) float64 {
	for i := index - 1; i >= 0; i-- {
		c := cmds[i]
		if len(c.Coords) < c.Kind.Arity() {
			continue
		}
		switch c.Kind {
		case pathdata.MoveTo, pathdata.LineTo:
			return c.Coords[0]
		case pathdata.CubicCurveTo:
			return c.Coords[4]
		case pathdata.SmoothCubicCurveTo, pathdata.QuadraticCurveTo:
			return c.Coords[2]
		case pathdata.HorizontalLineTo:
			return c.Coords[0]
		}
	}
	return 0
}

// readSlot returns the current position of a slot in cmds[index].
func readSlot(cmds []pathdata.Command, index int, at slot) vec.Vec2 {
	c := cmds[index]
	var v vec.Vec2
	if at.x >= 0 {
		v.X = c.Coords[at.x]
	} else {
		v.X = previousX(cmds, index)
	}
	if at.y >= 0 {
		v.Y = c.Coords[at.y]
	} else {
		v.Y = previousY(cmds, index)
	}
	return v
}

// writeSlot stores a position into a command, skipping derived axes.
func writeSlot(c *pathdata.Command, at slot, v vec.Vec2) {
	if at.x >= 0 {
		c.Coords[at.x] = v.X
	}
	if at.y >= 0 {
		c.Coords[at.y] = v.Y
	}
}

// buildPoints expands a subpath's commands into editable points and the
// synchronized handle pairs between them. Coordinates are taken as written;
// relative commands are not resolved.
func buildPoints(cmds []pathdata.Command) ([]EditablePoint, []ControlPointPair) {
	var points []EditablePoint
	var pairs []ControlPointPair

	for i, c := range cmds {
		if len(c.Coords) < c.Kind.Arity() {
			continue
		}
		for _, s := range pointSlots(c.Kind) {
			v := readSlot(cmds, i, s.at)
			points = append(points, EditablePoint{
				ID:           pointID(c.ID, s.role),
				X:            v.X,
				Y:            v.Y,
				Role:         s.role,
				CommandIndex: i,
				CommandID:    c.ID,
				Visible:      true,
			})
		}
		if c.Kind == pathdata.CubicCurveTo {
			pairs = append(pairs, ControlPointPair{
				HandleAID:    pointID(c.ID, RoleControl1),
				HandleBID:    pointID(c.ID, RoleControl2),
				AnchorID:     pointID(c.ID, RoleAnchor),
				Synchronized: true,
			})
		}
	}

	if n := len(cmds); n > 0 && cmds[n-1].Kind == pathdata.ClosePath {
		if pair, ok := linkClosingJoint(points); ok {
			pairs = append(pairs, pair)
		}
	}
	return points, pairs
}

// linkClosingJoint links the first and last anchors of a closed subpath and,
// when handles sit on both sides of the joint, pairs them through the first
// anchor. The outgoing handle is the leading control of the command after
// the first anchor; the incoming one is the last handle of the last
// anchor's command. A closed subpath with a single anchor, such as "M0 0 Z",
// has no joint: nothing is linked and no pair is returned.
func linkClosingJoint(points []EditablePoint) (ControlPointPair, bool) {
	first, last := -1, -1
	for i, p := range points {
		if p.Role != RoleAnchor {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 || first == last {
		return ControlPointPair{}, false
	}
	points[first].LinkedPointID = points[last].ID
	points[last].LinkedPointID = points[first].ID

	outgoing := ""
	if next := first + 1; next < len(points) && points[next].Role == RoleControl1 {
		outgoing = points[next].ID
	}
	incoming := ""
	for i := last - 1; i >= 0 && points[i].CommandID == points[last].CommandID; i-- {
		if points[i].Role != RoleAnchor {
			incoming = points[i].ID
			break
		}
	}
	if outgoing == "" || incoming == "" || points[first+1].CommandID == points[last].CommandID {
		return ControlPointPair{}, false
	}
	return ControlPointPair{
		HandleAID:    outgoing,
		HandleBID:    incoming,
		AnchorID:     points[first].ID,
		Synchronized: true,
	}, true
}

// refreshPoints re-reads every point position from the commands it belongs
// to. It returns false if a point's command has disappeared.
func refreshPoints(points []EditablePoint, cmds []pathdata.Command) bool {
	index := make(map[string]int, len(cmds))
	for i, c := range cmds {
		index[c.ID] = i
	}
	ok := true
	for i := range points {
		p := &points[i]
		ci, found := index[p.CommandID]
		if !found {
			ok = false
			continue
		}
		at, found := slotFor(cmds[ci].Kind, p.Role)
		if !found || len(cmds[ci].Coords) < cmds[ci].Kind.Arity() {
			ok = false
			continue
		}
		v := readSlot(cmds, ci, at)
		p.X, p.Y = v.X, v.Y
		p.CommandIndex = ci
	}
	return ok
}

func findPoint(points []EditablePoint, id string) int {
	for i, p := range points {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func findPair(pairs []ControlPointPair, pairID string) int {
	for i, p := range pairs {
		if p.ID() == pairID {
			return i
		}
	}
	return -1
}

// syncPairFor returns the first synchronized pair that contains the handle.
// A handle on a closing joint may sit in two pairs; its own command's pair
// is listed first and wins.
func syncPairFor(pairs []ControlPointPair, handleID string) (ControlPointPair, bool) {
	for _, p := range pairs {
		if !p.Synchronized {
			continue
		}
		if _, ok := p.Other(handleID); ok {
			return p, true
		}
	}
	return ControlPointPair{}, false
}

// coincide reports whether two points are within tol on both axes.
func coincide(a, b vec.Vec2, tol float64) bool {
	return math.Abs(a.X-b.X) < tol && math.Abs(a.Y-b.Y) < tol
}
