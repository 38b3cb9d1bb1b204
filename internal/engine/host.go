package engine

import "seehuhn.de/go/geom/rect"

// OverlayRef is an opaque handle to an overlay owned by the host scene.
type OverlayRef string

// Host is the scene that owns shapes and renders overlays. Shapes are
// addressed by id only; the session never keeps a shape object.
//
// The lookups report ok=false when the shape no longer exists.
type Host interface {
	PathText(shapeID string) (text string, ok bool)
	// SetPathText replaces the path data. Hosts may reset the shape
	// placement while doing so; the session restores it afterwards.
	SetPathText(shapeID, text string) error
	ShapeTransform(shapeID string) (t ShapeTransform, ok bool)
	SetShapeTransform(shapeID string, t ShapeTransform) error
	// Bounds is the scene-space bounding box of the whole shape.
	Bounds(shapeID string) (r rect.Rect, ok bool)

	AddOverlay(o Overlay) OverlayRef
	UpdateOverlay(ref OverlayRef, o Overlay)
	RemoveOverlay(ref OverlayRef)
	RequestRedraw()
}
