// Package subpath models the independent contours of a multi-contour path
// and computes the statistics shown for each of them.
package subpath

import (
	"errors"
	"fmt"

	"seehuhn.de/go/geom/rect"

	"github.com/inamate/inamate/pathedit/internal/pathdata"
	"github.com/inamate/inamate/pathedit/internal/typeid"
)

// Stats summarises one subpath. Length only counts straight segments.
type Stats struct {
	TotalCommands int     `json:"totalCommands"`
	TotalPoints   int     `json:"totalPoints"`
	IsClosed      bool    `json:"isClosed"`
	Length        float64 `json:"length"`
}

// Bounds is an axis-aligned rectangle in scene coordinates.
type Bounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func BoundsFromRect(r rect.Rect) Bounds {
	return Bounds{Left: r.LLx, Top: r.LLy, Width: r.URx - r.LLx, Height: r.URy - r.LLy}
}

// Subpath is one contour: a MoveTo followed by the commands up to the next
// MoveTo. Ordinal is 1-based and contiguous across a shape.
type Subpath struct {
	ID            string             `json:"id"`
	Ordinal       int                `json:"ordinal"`
	RawText       string             `json:"rawText"`
	Commands      []pathdata.Command `json:"commands"`
	Stats         Stats              `json:"stats"`
	Bounds        Bounds             `json:"bounds"`
	IsHighlighted bool               `json:"isHighlighted"`
	Color         string             `json:"color"`
}

// Clone returns a deep copy, suitable for handing to observers.
func (sp *Subpath) Clone() *Subpath {
	c := *sp
	c.Commands = pathdata.CloneAll(sp.Commands)
	return &c
}

// CommandIndex returns the position of the command with the given id, or -1.
func (sp *Subpath) CommandIndex(id string) int {
	for i, c := range sp.Commands {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Refresh regenerates RawText from Commands and re-runs the analyzer.
func (sp *Subpath) Refresh(shapeBounds rect.Rect) {
	sp.RawText = pathdata.Format(sp.Commands)
	sp.Stats = Analyze(sp.Commands)
	sp.Bounds = BoundsFromRect(shapeBounds)
}

// Translate shifts the subpath by (dx, dy) and regenerates RawText. Command
// ids are kept.
func (sp *Subpath) Translate(dx, dy float64) {
	sp.Commands = pathdata.Translate(sp.Commands, dx, dy)
	sp.RawText = pathdata.Format(sp.Commands)
}

// ErrNoMoveTo reports a segment that lost its leading moveto, such as a bare
// trailing "M". Such segments are dropped.
var ErrNoMoveTo = errors.New("segment does not start with a moveto")

// Extract splits path text into subpaths, numbering and colouring them in
// order. Every command gets a fresh id. Parse diagnostics are returned
// tagged with the subpath ordinal; they never stop extraction.
func Extract(text string, shapeBounds rect.Rect, palette Palette) ([]*Subpath, []error) {
	var diags []error
	segments := pathdata.Split(text)
	subpaths := make([]*Subpath, 0, len(segments))
	for _, seg := range segments {
		n := len(subpaths)
		cmds, errs := pathdata.Parse(seg)
		for _, err := range errs {
			diags = append(diags, fmt.Errorf("parse subpath %d: %w", n+1, err))
		}
		if len(cmds) == 0 || cmds[0].Kind != pathdata.MoveTo {
			diags = append(diags, fmt.Errorf("parse subpath %d: %q: %w", n+1, seg, ErrNoMoveTo))
			continue
		}
		for j := range cmds {
			cmds[j].ID = typeid.NewCommandID()
		}
		subpaths = append(subpaths, &Subpath{
			ID:       typeid.NewSubpathID(),
			Ordinal:  n + 1,
			RawText:  seg,
			Commands: cmds,
			Stats:    Analyze(cmds),
			Bounds:   BoundsFromRect(shapeBounds),
			Color:    palette.Color(n),
		})
	}
	return subpaths, diags
}

// FullText reassembles the path text of a whole shape.
func FullText(subpaths []*Subpath) string {
	segments := make([]string, len(subpaths))
	for i, sp := range subpaths {
		segments[i] = sp.RawText
	}
	return pathdata.Join(segments)
}

// Find returns the subpath with the given id and its index, or nil and -1.
func Find(subpaths []*Subpath, id string) (*Subpath, int) {
	for i, sp := range subpaths {
		if sp.ID == id {
			return sp, i
		}
	}
	return nil, -1
}

// Reindex renumbers subpaths 1..n in slice order and reassigns colours.
func Reindex(subpaths []*Subpath, palette Palette) {
	for i, sp := range subpaths {
		sp.Ordinal = i + 1
		sp.Color = palette.Color(i)
	}
}

// Remove deletes the subpath at index i, renumbering the rest.
func Remove(subpaths []*Subpath, i int, palette Palette) []*Subpath {
	out := append(subpaths[:i:i], subpaths[i+1:]...)
	Reindex(out, palette)
	return out
}
