package engine

import (
	"math"

	"seehuhn.de/go/geom/vec"
)

// ShapeTransform is the placement of a shape in the scene. The path is drawn
// around the centre of its Width x Height box: a local point p lands at
// Rotate(Angle) * Scale * (p - (Width/2, Height/2)) + (Left, Top).
type ShapeTransform struct {
	Left         float64 `json:"left"`
	Top          float64 `json:"top"`
	ScaleX       float64 `json:"scaleX"`
	ScaleY       float64 `json:"scaleY"`
	AngleDegrees float64 `json:"angle"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
}

func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}

// Normalized substitutes defaults for unusable fields: a zero or non-finite
// scale becomes 1, anything else non-finite becomes 0.
func (t ShapeTransform) Normalized() ShapeTransform {
	t.Left = finiteOr(t.Left, 0)
	t.Top = finiteOr(t.Top, 0)
	t.AngleDegrees = finiteOr(t.AngleDegrees, 0)
	t.Width = finiteOr(t.Width, 0)
	t.Height = finiteOr(t.Height, 0)
	if t.ScaleX = finiteOr(t.ScaleX, 1); t.ScaleX == 0 {
		t.ScaleX = 1
	}
	if t.ScaleY = finiteOr(t.ScaleY, 1); t.ScaleY == 0 {
		t.ScaleY = 1
	}
	return t
}

// Offset is the path-local origin of the shape box centre.
func (t ShapeTransform) Offset() vec.Vec2 {
	return vec.Vec2{X: t.Width / 2, Y: t.Height / 2}
}

// Forward maps a point from local path space to scene space.
func (t ShapeTransform) Forward(p vec.Vec2) vec.Vec2 {
	t = t.Normalized()
	q := p.Sub(t.Offset())
	q = vec.Vec2{X: q.X * t.ScaleX, Y: q.Y * t.ScaleY}
	q = rotate(q, t.AngleDegrees)
	return q.Add(vec.Vec2{X: t.Left, Y: t.Top})
}

// Inverse maps a scene point back to local path space. Normalized scales are
// never zero, so the matrix always inverts.
func (t ShapeTransform) Inverse(p vec.Vec2) vec.Vec2 {
	return t.Matrix().Invert().Apply(p)
}

// Matrix is Forward as a single affine matrix.
func (t ShapeTransform) Matrix() Matrix2D {
	t = t.Normalized()
	off := t.Offset()
	return Translate(t.Left, t.Top).
		Multiply(Rotate(t.AngleDegrees * math.Pi / 180)).
		Multiply(Scale(t.ScaleX, t.ScaleY)).
		Multiply(Translate(-off.X, -off.Y))
}

// WithPlacement returns t with the position, scale and rotation of p. The
// size is kept, since it follows the path data.
func (t ShapeTransform) WithPlacement(p ShapeTransform) ShapeTransform {
	t.Left, t.Top = p.Left, p.Top
	t.ScaleX, t.ScaleY = p.ScaleX, p.ScaleY
	t.AngleDegrees = p.AngleDegrees
	return t
}

// SamePlacement reports whether t and p agree on position, scale and rotation.
func (t ShapeTransform) SamePlacement(p ShapeTransform) bool {
	return t.Left == p.Left && t.Top == p.Top &&
		t.ScaleX == p.ScaleX && t.ScaleY == p.ScaleY &&
		t.AngleDegrees == p.AngleDegrees
}

func rotate(p vec.Vec2, degrees float64) vec.Vec2 {
	if degrees == 0 {
		return p
	}
	rad := degrees * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	return vec.Vec2{
		X: p.X*cos - p.Y*sin,
		Y: p.X*sin + p.Y*cos,
	}
}
