package document

import (
	"encoding/json"
	"fmt"
	"slices"
)

// Document is a flat scene of path shapes, in paint order.
type Document struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	Width      int              `json:"width"`
	Height     int              `json:"height"`
	Background string           `json:"background"`
	Shapes     map[string]Shape `json:"shapes"`
	Order      []string         `json:"order"`
}

type Transform struct {
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
	SX float64 `json:"sx"`
	SY float64 `json:"sy"`
	R  float64 `json:"r"`
}

type Style struct {
	Fill        string  `json:"fill"`
	Stroke      string  `json:"stroke"`
	StrokeWidth float64 `json:"strokeWidth"`
	Opacity     float64 `json:"opacity"`
}

// Shape is a vector path object. Path holds SVG path data; Transform places
// the centre of the path's box in the scene.
type Shape struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Transform Transform `json:"transform"`
	Style     Style     `json:"style"`
	Visible   bool      `json:"visible"`
	Locked    bool      `json:"locked"`
}

// NewEmptyDocument creates a document with no shapes.
func NewEmptyDocument(id, name string) *Document {
	return &Document{
		ID:         id,
		Name:       name,
		Width:      1280,
		Height:     720,
		Background: "#1a1a2e",
		Shapes:     map[string]Shape{},
		Order:      []string{},
	}
}

// Parse decodes a document and fills in the maps and order a sparse
// document may leave out.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	if doc.Shapes == nil {
		doc.Shapes = map[string]Shape{}
	}
	seen := make(map[string]bool, len(doc.Order))
	order := doc.Order[:0]
	for _, id := range doc.Order {
		if _, ok := doc.Shapes[id]; ok && !seen[id] {
			seen[id] = true
			order = append(order, id)
		}
	}
	var missing []string
	for id := range doc.Shapes {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	slices.Sort(missing)
	doc.Order = append(order, missing...)
	return &doc, nil
}

// Put adds or replaces a shape. New shapes are painted on top.
func (d *Document) Put(s Shape) {
	if _, ok := d.Shapes[s.ID]; !ok {
		d.Order = append(d.Order, s.ID)
	}
	d.Shapes[s.ID] = s
}
