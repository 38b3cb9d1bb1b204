package pathdata

import (
	"math"

	"seehuhn.de/go/geom/path"
	"seehuhn.de/go/geom/rect"
	"seehuhn.de/go/geom/vec"
)

// ToPath resolves relative coordinates, H/V shorthands and smooth-curve
// reflections into absolute geometry. Arcs are kept only as a line to their
// endpoint; nothing here rasterizes them.
func ToPath(cmds []Command) *path.Data {
	p, _ := resolve(cmds, vec.Vec2{})
	return p
}

// ToPathFrom is ToPath for a subpath that does not start the path: a leading
// relative MoveTo is taken from origin, the current point left by the
// subpaths before it.
func ToPathFrom(cmds []Command, origin vec.Vec2) *path.Data {
	p, _ := resolve(cmds, origin)
	return p
}

// EndPoint returns the current point after cmds, starting from origin. After
// a ClosePath that is the start of the closed subpath.
func EndPoint(cmds []Command, origin vec.Vec2) vec.Vec2 {
	_, end := resolve(cmds, origin)
	return end
}

func resolve(cmds []Command, origin vec.Vec2) (*path.Data, vec.Vec2) {
	p := &path.Data{}
	var lastCtrl vec.Vec2
	cur, start := origin, origin
	var prev Kind = ClosePath
	open := false

	pt := func(c Command, i int) vec.Vec2 {
		v := vec.Vec2{X: c.Coords[i], Y: c.Coords[i+1]}
		if c.Relative {
			v = v.Add(cur)
		}
		return v
	}
	ensureOpen := func() {
		if !open {
			p.MoveTo(cur)
			start = cur
			open = true
		}
	}

	for _, c := range cmds {
		if len(c.Coords) != c.Kind.Arity() {
			continue
		}
		switch c.Kind {
		case MoveTo:
			cur = pt(c, 0)
			start = cur
			p.MoveTo(cur)
			open = true
		case LineTo:
			ensureOpen()
			cur = pt(c, 0)
			p.LineTo(cur)
		case HorizontalLineTo:
			ensureOpen()
			if c.Relative {
				cur.X += c.Coords[0]
			} else {
				cur.X = c.Coords[0]
			}
			p.LineTo(cur)
		case VerticalLineTo:
			ensureOpen()
			if c.Relative {
				cur.Y += c.Coords[0]
			} else {
				cur.Y = c.Coords[0]
			}
			p.LineTo(cur)
		case CubicCurveTo:
			ensureOpen()
			c1, c2, end := pt(c, 0), pt(c, 2), pt(c, 4)
			p.CubeTo(c1, c2, end)
			lastCtrl, cur = c2, end
		case SmoothCubicCurveTo:
			ensureOpen()
			c1 := cur
			if prev == CubicCurveTo || prev == SmoothCubicCurveTo {
				c1 = cur.Mul(2).Sub(lastCtrl)
			}
			c2, end := pt(c, 0), pt(c, 2)
			p.CubeTo(c1, c2, end)
			lastCtrl, cur = c2, end
		case QuadraticCurveTo:
			ensureOpen()
			ctrl, end := pt(c, 0), pt(c, 2)
			p.QuadTo(ctrl, end)
			lastCtrl, cur = ctrl, end
		case SmoothQuadraticCurveTo:
			ensureOpen()
			ctrl := cur
			if prev == QuadraticCurveTo || prev == SmoothQuadraticCurveTo {
				ctrl = cur.Mul(2).Sub(lastCtrl)
			}
			end := pt(c, 0)
			p.QuadTo(ctrl, end)
			lastCtrl, cur = ctrl, end
		case ArcTo:
			ensureOpen()
			cur = pt(c, 5)
			p.LineTo(cur)
		case ClosePath:
			if open {
				p.Close()
				open = false
			}
			cur = start
		}
		prev = c.Kind
	}
	return p, cur
}

// ControlBounds is the bounding box of every resolved on-curve and control
// point. It encloses the drawn path but may be larger than its tight bounds.
// ok is false when there is no geometry.
func ControlBounds(cmds []Command) (r rect.Rect, ok bool) {
	p := ToPath(cmds)
	if len(p.Coords) == 0 {
		return rect.Rect{}, false
	}
	r = rect.Rect{
		LLx: math.Inf(1), LLy: math.Inf(1),
		URx: math.Inf(-1), URy: math.Inf(-1),
	}
	for _, v := range p.Coords {
		r.LLx = min(r.LLx, v.X)
		r.LLy = min(r.LLy, v.Y)
		r.URx = max(r.URx, v.X)
		r.URy = max(r.URy, v.Y)
	}
	return r, true
}
