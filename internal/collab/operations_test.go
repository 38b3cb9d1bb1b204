package collab

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inamate/inamate/pathedit/internal/document"
	"github.com/inamate/inamate/pathedit/internal/engine"
)

func TestApplyOperationValidation(t *testing.T) {
	canvas := document.NewCanvas(document.NewEmptyDocument("doc", ""))
	canvas.PutShape(document.Shape{ID: testShapeID, Path: twoSquares, Transform: placed})
	s := engine.NewSession(canvas, testOptions())
	s.HandleSelectionChanged(testShapeID)
	first := s.Subpaths()[0].ID
	yes := true

	tests := []struct {
		name string
		op   Operation
		want error
	}{
		{"highlight without subpath", Operation{Type: OpSubpathHighlight}, ErrInvalidOperation},
		{"move without subpath", Operation{Type: OpSubpathMove, DX: 1}, ErrInvalidOperation},
		{"select point without point", Operation{Type: OpPointSelect}, ErrInvalidOperation},
		{"drag without point", Operation{Type: OpPointDrag, X: 1, Y: 1}, ErrInvalidOperation},
		{"sync without pair", Operation{Type: OpPairSync, Synchronized: &yes}, ErrInvalidOperation},
		{"unknown type", Operation{Type: "shape.rotate"}, ErrUnknownOperation},
		{"select", Operation{Type: OpSubpathSelect, SubpathID: first}, nil},
		{"enable selected", Operation{Type: OpPointsEnable}, nil},
		{"disable", Operation{Type: OpPointsDisable}, nil},
		{"clear", Operation{Type: OpSubpathClear}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := applyOperation(s, tt.op)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestApplyOperationMovesSubpath(t *testing.T) {
	canvas := document.NewCanvas(document.NewEmptyDocument("doc", ""))
	canvas.PutShape(document.Shape{ID: testShapeID, Path: twoSquares, Transform: placed})
	s := engine.NewSession(canvas, testOptions())
	s.HandleSelectionChanged(testShapeID)
	second := s.Subpaths()[1].ID

	require.NoError(t, applyOperation(s, Operation{Type: OpSubpathMove, SubpathID: second, DX: 5, DY: -5}))

	shape, ok := canvas.Shape(testShapeID)
	require.True(t, ok)
	assert.Equal(t, "M0 0 L10 0 L10 10 Z M25 15 L35 15 Z", shape.Path)
	assert.Equal(t, placed, shape.Transform)
	assert.Equal(t, []string{testShapeID}, canvas.Dirty())
}
