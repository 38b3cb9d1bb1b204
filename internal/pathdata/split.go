package pathdata

import "strings"

// Split cuts raw path text into one segment per subpath, immediately before
// every MoveTo token except the first. Text ahead of the first MoveTo cannot
// start a subpath and is dropped; so are blank segments. Text without any
// MoveTo yields no segments.
func Split(text string) []string {
	s := newScanner(text)
	var starts []int
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		if tok.letter == 'M' || tok.letter == 'm' {
			starts = append(starts, tok.start)
		}
	}
	if len(starts) == 0 {
		return nil
	}

	segments := make([]string, 0, len(starts))
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		if seg := strings.TrimSpace(text[start:end]); seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// SplitCommands groups an already parsed command list the same way Split
// groups text. Commands before the first MoveTo are dropped.
func SplitCommands(cmds []Command) [][]Command {
	var groups [][]Command
	for _, c := range cmds {
		if c.Kind == MoveTo {
			groups = append(groups, []Command{c})
			continue
		}
		if len(groups) == 0 {
			continue
		}
		last := len(groups) - 1
		groups[last] = append(groups[last], c)
	}
	return groups
}
