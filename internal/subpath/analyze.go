package subpath

import (
	"math"

	"github.com/inamate/inamate/pathedit/internal/pathdata"
)

// Analyze computes the statistics of one subpath's commands.
//
// Length walks the straight segments only. Curves and arcs neither add to
// it nor move the current point used for measuring.
func Analyze(cmds []pathdata.Command) Stats {
	st := Stats{TotalCommands: len(cmds)}
	for _, c := range cmds {
		st.TotalPoints += len(c.Coords) / 2
	}
	if n := len(cmds); n > 0 && cmds[n-1].Kind == pathdata.ClosePath {
		st.IsClosed = true
	}
	st.Length = straightLength(cmds)
	return st
}

func straightLength(cmds []pathdata.Command) float64 {
	var total, x, y float64
	for _, c := range cmds {
		if len(c.Coords) < c.Kind.Arity() {
			continue
		}
		switch c.Kind {
		case pathdata.MoveTo:
			if c.Relative {
				x += c.Coords[0]
				y += c.Coords[1]
			} else {
				x, y = c.Coords[0], c.Coords[1]
			}
		case pathdata.LineTo:
			tx, ty := c.Coords[0], c.Coords[1]
			if c.Relative {
				tx, ty = x+tx, y+ty
			}
			total += math.Hypot(tx-x, ty-y)
			x, y = tx, ty
		case pathdata.HorizontalLineTo:
			tx := c.Coords[0]
			if c.Relative {
				tx += x
			}
			total += math.Abs(tx - x)
			x = tx
		case pathdata.VerticalLineTo:
			ty := c.Coords[0]
			if c.Relative {
				ty += y
			}
			total += math.Abs(ty - y)
			y = ty
		}
	}
	return total
}
