package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixSession  = "sess"
	PrefixShape    = "shape"
	PrefixSubpath  = "subpath"
	PrefixCommand  = "cmd"
	PrefixOverlay  = "ovl"
	PrefixRevision = "rev"
	PrefixOp       = "op"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewSessionID() string  { return New(PrefixSession) }
func NewShapeID() string    { return New(PrefixShape) }
func NewSubpathID() string  { return New(PrefixSubpath) }
func NewCommandID() string  { return New(PrefixCommand) }
func NewOverlayID() string  { return New(PrefixOverlay) }
func NewRevisionID() string { return New(PrefixRevision) }
func NewOpID() string       { return New(PrefixOp) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
