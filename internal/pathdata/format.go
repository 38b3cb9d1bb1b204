package pathdata

import (
	"strconv"
	"strings"
)

// FormatNumber writes a coordinate in its shortest exact decimal form.
func FormatNumber(v float64) string {
	if v == 0 {
		// normalise -0
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// String serializes the command as its letter followed by space-joined
// coordinates, or the bare letter when it has none.
func (c Command) String() string {
	var sb strings.Builder
	c.writeTo(&sb)
	return sb.String()
}

func (c Command) writeTo(sb *strings.Builder) {
	sb.WriteByte(c.Letter())
	for i, v := range c.Coords {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(FormatNumber(v))
	}
}

// Format serializes a command list, commands separated by single spaces.
func Format(cmds []Command) string {
	var sb strings.Builder
	for i, c := range cmds {
		if i > 0 {
			sb.WriteByte(' ')
		}
		c.writeTo(&sb)
	}
	return sb.String()
}

// Join reassembles a full path text from subpath texts. Blank segments are
// skipped so deleting a subpath never leaves double separators.
func Join(segments []string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}
