// Package pathdata reads and writes the compact path drawing-command
// language ("M0 0 L10 0 Z") used by vector shapes.
package pathdata

import (
	"fmt"
	"slices"
	"unicode"
)

// Kind identifies a drawing command independent of its relative/absolute form.
type Kind int

const (
	MoveTo Kind = iota
	LineTo
	HorizontalLineTo
	VerticalLineTo
	CubicCurveTo
	SmoothCubicCurveTo
	QuadraticCurveTo
	SmoothQuadraticCurveTo
	ArcTo
	ClosePath
)

var kindLetters = [...]byte{
	MoveTo:                 'M',
	LineTo:                 'L',
	HorizontalLineTo:       'H',
	VerticalLineTo:         'V',
	CubicCurveTo:           'C',
	SmoothCubicCurveTo:     'S',
	QuadraticCurveTo:       'Q',
	SmoothQuadraticCurveTo: 'T',
	ArcTo:                  'A',
	ClosePath:              'Z',
}

var kindArity = [...]int{
	MoveTo:                 2,
	LineTo:                 2,
	HorizontalLineTo:       1,
	VerticalLineTo:         1,
	CubicCurveTo:           6,
	SmoothCubicCurveTo:     4,
	QuadraticCurveTo:       4,
	SmoothQuadraticCurveTo: 2,
	ArcTo:                  7,
	ClosePath:              0,
}

var kindNames = [...]string{
	MoveTo:                 "MoveTo",
	LineTo:                 "LineTo",
	HorizontalLineTo:       "HorizontalLineTo",
	VerticalLineTo:         "VerticalLineTo",
	CubicCurveTo:           "CubicCurveTo",
	SmoothCubicCurveTo:     "SmoothCubicCurveTo",
	QuadraticCurveTo:       "QuadraticCurveTo",
	SmoothQuadraticCurveTo: "SmoothQuadraticCurveTo",
	ArcTo:                  "ArcTo",
	ClosePath:              "ClosePath",
}

// Arity is the number of coordinates one command of this kind consumes.
func (k Kind) Arity() int {
	return kindArity[k]
}

// Letter returns the absolute (upper case) command letter.
func (k Kind) Letter() byte {
	return kindLetters[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for i, name := range kindNames {
		if name == string(text) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown command kind %q", text)
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// KindForLetter maps a command letter of either case to its kind.
func KindForLetter(c byte) (kind Kind, relative bool, ok bool) {
	upper := byte(unicode.ToUpper(rune(c)))
	for k, l := range kindLetters {
		if l == upper {
			return Kind(k), c != upper, true
		}
	}
	return 0, false, false
}

// Command is one drawing instruction with its coordinate list.
// len(Coords) always equals Kind.Arity() for commands produced by Parse.
type Command struct {
	Kind     Kind      `json:"kind"`
	Relative bool      `json:"relative"`
	Coords   []float64 `json:"coords"`
	ID       string    `json:"id,omitempty"`
}

// Letter returns the command letter, lower case for relative commands.
func (c Command) Letter() byte {
	l := c.Kind.Letter()
	if c.Relative {
		return byte(unicode.ToLower(rune(l)))
	}
	return l
}

// Clone returns a deep copy so the coordinate slice can be edited independently.
func (c Command) Clone() Command {
	c.Coords = append([]float64(nil), c.Coords...)
	return c
}

// CloneAll deep-copies a command list.
func CloneAll(cmds []Command) []Command {
	out := make([]Command, len(cmds))
	for i, c := range cmds {
		out[i] = c.Clone()
	}
	return out
}

// SameDrawing reports whether a and b draw the same path: same commands in
// the same form with equal coordinates. Ids are ignored.
func SameDrawing(a, b []Command) bool {
	return slices.EqualFunc(a, b, func(x, y Command) bool {
		return x.Kind == y.Kind && x.Relative == y.Relative && slices.Equal(x.Coords, y.Coords)
	})
}

// CountMoveTo counts MoveTo commands, the number of subpaths a path text holds.
func CountMoveTo(cmds []Command) int {
	n := 0
	for _, c := range cmds {
		if c.Kind == MoveTo {
			n++
		}
	}
	return n
}
