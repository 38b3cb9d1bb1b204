package engine

import (
	"github.com/inamate/inamate/pathedit/internal/subpath"
)

// Event names, as delivered to observers and over the wire.
const (
	EventSubpathsExtracted       = "subpathsExtracted"
	EventSubpathSelected         = "subpathSelected"
	EventSubpathHighlighted      = "subpathHighlighted"
	EventHighlightsCleared       = "highlightsCleared"
	EventSubpathMoved            = "subpathMoved"
	EventSubpathDeleted          = "subpathDeleted"
	EventPointEditingModeChanged = "pointEditingModeChanged"
	EventPointSelected           = "pointSelected"
	EventPointMoved              = "pointMoved"
	EventControlPairSyncChanged  = "controlPairSyncChanged"
	EventPathChanged             = "pathChanged"
	EventWarning                 = "warning"
)

// Event is a notification from a Session. Payloads are snapshots; changing
// them does not affect the session.
type Event interface {
	EventName() string
}

type SubpathsExtracted struct {
	ShapeID  string             `json:"shapeId"`
	Subpaths []*subpath.Subpath `json:"subpaths"`
}

type SubpathSelected struct {
	Subpath *subpath.Subpath `json:"subpath"`
}

type SubpathHighlighted struct {
	Subpath    *subpath.Subpath `json:"subpath"`
	OverlayRef OverlayRef       `json:"overlayRef"`
}

type HighlightsCleared struct{}

type SubpathMoved struct {
	Subpath *subpath.Subpath `json:"subpath"`
	DX      float64          `json:"dx"`
	DY      float64          `json:"dy"`
}

type SubpathDeleted struct {
	DeletedSubpath *subpath.Subpath   `json:"deletedSubpath"`
	Remaining      []*subpath.Subpath `json:"remaining"`
	IsEmpty        bool               `json:"isEmpty"`
}

type PointEditingModeChanged struct {
	Enabled   bool   `json:"enabled"`
	SubpathID string `json:"subpathId,omitempty"`
}

type PointSelected struct {
	Point EditablePoint `json:"point"`
}

type PointMoved struct {
	Point EditablePoint `json:"point"`
	OldX  float64       `json:"oldX"`
	OldY  float64       `json:"oldY"`
	NewX  float64       `json:"newX"`
	NewY  float64       `json:"newY"`
}

type ControlPairSyncChanged struct {
	Pair         ControlPointPair `json:"pair"`
	Synchronized bool             `json:"synchronized"`
}

// PathChanged reports the full path text the session wrote to the host.
type PathChanged struct {
	ShapeID string `json:"shapeId"`
	Text    string `json:"text"`
}

// Warning reports an operation that was ignored or only partly applied.
// Err wraps one of the package's sentinel errors.
type Warning struct {
	Op      string `json:"op"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (SubpathsExtracted) EventName() string       { return EventSubpathsExtracted }
func (SubpathSelected) EventName() string         { return EventSubpathSelected }
func (SubpathHighlighted) EventName() string      { return EventSubpathHighlighted }
func (HighlightsCleared) EventName() string       { return EventHighlightsCleared }
func (SubpathMoved) EventName() string            { return EventSubpathMoved }
func (SubpathDeleted) EventName() string          { return EventSubpathDeleted }
func (PointEditingModeChanged) EventName() string { return EventPointEditingModeChanged }
func (PointSelected) EventName() string           { return EventPointSelected }
func (PointMoved) EventName() string              { return EventPointMoved }
func (ControlPairSyncChanged) EventName() string  { return EventControlPairSyncChanged }
func (PathChanged) EventName() string             { return EventPathChanged }
func (Warning) EventName() string                 { return EventWarning }

type observer struct {
	id int
	fn func(Event)
}

// observerList is the session's subscriber list. Observers run
// synchronously, in subscription order.
type observerList struct {
	nextID int
	list   []observer
}

func (l *observerList) add(fn func(Event)) func() {
	l.nextID++
	id := l.nextID
	l.list = append(l.list, observer{id: id, fn: fn})
	return func() {
		for i, o := range l.list {
			if o.id == id {
				l.list = append(l.list[:i:i], l.list[i+1:]...)
				return
			}
		}
	}
}

func (l *observerList) emit(e Event) {
	for _, o := range l.list {
		o.fn(e)
	}
}

func cloneSubpaths(subs []*subpath.Subpath) []*subpath.Subpath {
	out := make([]*subpath.Subpath, len(subs))
	for i, sp := range subs {
		out[i] = sp.Clone()
	}
	return out
}
