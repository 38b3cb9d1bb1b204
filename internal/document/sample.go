package document

import (
	"github.com/inamate/inamate/pathedit/internal/typeid"
)

// Sample path data. The ring and the glyph have several contours; the
// blob has one and is not editable by subpath.
const (
	SampleRingPath  = "M0 0 L120 0 L120 120 L0 120 Z M30 30 L30 90 L90 90 L90 30 Z"
	SampleGlyphPath = "M10 0 C40 0 60 20 60 50 C60 80 40 100 10 100 Z M20 30 Q35 30 35 50 Q35 70 20 70 Z M70 0 H90 V100 H70 Z"
	SampleBlobPath  = "M0 40 C0 10 30 0 50 0 C80 0 100 20 100 50 C100 80 70 100 50 100 C20 100 0 70 0 40 Z"
)

// NewSampleDocument builds a small scene for trying the subpath editor.
func NewSampleDocument(id string) *Document {
	doc := NewEmptyDocument(id, "Untitled")

	doc.Put(Shape{
		ID:        typeid.NewShapeID(),
		Name:      "Ring",
		Path:      SampleRingPath,
		Transform: Transform{X: 240, Y: 200, SX: 1, SY: 1},
		Style:     Style{Fill: "#e94560", Stroke: "#000000", StrokeWidth: 2, Opacity: 1},
		Visible:   true,
	})
	doc.Put(Shape{
		ID:        typeid.NewShapeID(),
		Name:      "Glyph",
		Path:      SampleGlyphPath,
		Transform: Transform{X: 560, Y: 220, SX: 1.5, SY: 1.5, R: 15},
		Style:     Style{Fill: "#0f3460", Stroke: "#16213e", StrokeWidth: 1, Opacity: 1},
		Visible:   true,
	})
	doc.Put(Shape{
		ID:        typeid.NewShapeID(),
		Name:      "Blob",
		Path:      SampleBlobPath,
		Transform: Transform{X: 900, Y: 400, SX: 1, SY: 1},
		Style:     Style{Fill: "#53d769", Stroke: "", StrokeWidth: 0, Opacity: 0.9},
		Visible:   true,
	})

	return doc
}
