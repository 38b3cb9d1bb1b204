package collab

import (
	"errors"
	"fmt"
	"time"

	"github.com/inamate/inamate/pathedit/internal/engine"
)

var (
	ErrUnknownOperation = errors.New("unknown operation type")
	ErrInvalidOperation = errors.New("invalid operation")
)

// applyOperation validates op and runs it against the session. Session
// operations report problems through warning events, not return values;
// the caller collects those separately.
func applyOperation(s *engine.Session, op Operation) error {
	switch op.Type {
	case OpSubpathHighlight:
		if err := requireField("subpathId", op.SubpathID); err != nil {
			return err
		}
		s.HighlightSubpath(op.SubpathID, op.StrokeWidth)
	case OpSubpathSelect:
		if err := requireField("subpathId", op.SubpathID); err != nil {
			return err
		}
		s.SelectSubpath(op.SubpathID, op.StrokeWidth)
	case OpSubpathClear:
		s.ClearHighlights()
	case OpSubpathMove:
		if err := requireField("subpathId", op.SubpathID); err != nil {
			return err
		}
		s.MoveSubpath(op.SubpathID, op.DX, op.DY)
	case OpSubpathDelete:
		if err := requireField("subpathId", op.SubpathID); err != nil {
			return err
		}
		s.DeleteSubpath(op.SubpathID)
	case OpPointsEnable:
		s.EnablePointEditing(op.SubpathID)
	case OpPointsDisable:
		s.DisablePointEditing()
	case OpPointsToggle:
		s.TogglePointEditing(op.SubpathID)
	case OpPointSelect:
		if err := requireField("pointId", op.PointID); err != nil {
			return err
		}
		s.SelectPoint(op.PointID)
	case OpPointMove:
		if err := requireField("pointId", op.PointID); err != nil {
			return err
		}
		s.MovePoint(op.PointID, op.X, op.Y)
	case OpPointDrag:
		if err := requireField("pointId", op.PointID); err != nil {
			return err
		}
		s.DragPoint(op.PointID, op.X, op.Y)
	case OpPairSync:
		if err := requireField("pairId", op.PairID); err != nil {
			return err
		}
		if op.Synchronized == nil {
			return fmt.Errorf("%w: %s needs synchronized", ErrInvalidOperation, op.Type)
		}
		s.SetPairSynchronized(op.PairID, *op.Synchronized)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownOperation, op.Type)
	}
	return nil
}

func requireField(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidOperation, name)
	}
	return nil
}

// GetServerTimestamp returns the current server timestamp
func GetServerTimestamp() int64 {
	return time.Now().UnixMilli()
}
