package pathdata

// Translate returns a copy of cmds shifted by (dx, dy). Absolute coordinates
// move; relative ones already follow their predecessor. The leading MoveTo
// moves even when relative, so the whole subpath shifts.
func Translate(cmds []Command, dx, dy float64) []Command {
	out := CloneAll(cmds)
	for i := range out {
		c := &out[i]
		if c.Relative && !(i == 0 && c.Kind == MoveTo) {
			continue
		}
		switch c.Kind {
		case MoveTo, LineTo, CubicCurveTo, SmoothCubicCurveTo, QuadraticCurveTo, SmoothQuadraticCurveTo:
			for j := 0; j+1 < len(c.Coords); j += 2 {
				c.Coords[j] += dx
				c.Coords[j+1] += dy
			}
		case HorizontalLineTo:
			if len(c.Coords) > 0 {
				c.Coords[0] += dx
			}
		case VerticalLineTo:
			if len(c.Coords) > 0 {
				c.Coords[0] += dy
			}
		case ArcTo:
			// radii, rotation and flags are shape, not position
			if len(c.Coords) == 7 {
				c.Coords[5] += dx
				c.Coords[6] += dy
			}
		}
	}
	return out
}
