package pathdata

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	tdstrconv "github.com/tdewolff/parse/v2/strconv"
)

var (
	ErrUnknownCommand   = errors.New("unknown path command")
	ErrIncompleteCoords = errors.New("incomplete coordinates")
	ErrExtraCoords      = errors.New("unexpected coordinates")
)

// token is one command letter and the number run that follows it.
// start and end are byte offsets into the source; end is exclusive. A token
// holding an unrepresentable number is bad and expands to nothing.
type token struct {
	letter byte
	nums   []float64
	start  int
	end    int
	bad    bool
}

type scanState int

const (
	stateCommand scanState = iota
	stateNumbers
)

// scanner is a two-state machine: it waits for a command letter, then
// collects numbers until the next letter or the end of input.
type scanner struct {
	src   []byte
	pos   int
	state scanState
	diags []error
}

func newScanner(text string) *scanner {
	return &scanner{src: []byte(text)}
}

func isSeparator(c byte) bool {
	return c == ' ' || c == ',' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func (s *scanner) skipSeparators() {
	for s.pos < len(s.src) && isSeparator(s.src[s.pos]) {
		s.pos++
	}
}

func (s *scanner) warn(err error, format string, args ...any) {
	s.diags = append(s.diags, fmt.Errorf("%w: "+format, append([]any{err}, args...)...))
}

// next returns the next well-formed command token.
func (s *scanner) next() (token, bool) {
	var tok token
	s.state = stateCommand
	for {
		s.skipSeparators()
		if s.pos >= len(s.src) {
			if s.state == stateNumbers {
				tok.end = s.pos
				return tok, true
			}
			return token{}, false
		}
		c := s.src[s.pos]

		switch s.state {
		case stateCommand:
			if isLetter(c) {
				if _, _, ok := KindForLetter(c); !ok {
					s.warn(ErrUnknownCommand, "%q at offset %d", c, s.pos)
					s.pos++
					s.skipNumbers()
					continue
				}
				tok = token{letter: c, start: s.pos}
				s.pos++
				s.state = stateNumbers
				continue
			}
			if _, n := tdstrconv.ParseFloat(s.src[s.pos:]); n > 0 {
				s.warn(ErrExtraCoords, "number without command at offset %d", s.pos)
				s.pos += n
				continue
			}
			s.warn(ErrUnknownCommand, "%q at offset %d", c, s.pos)
			s.pos++

		case stateNumbers:
			if isLetter(c) {
				tok.end = s.pos
				return tok, true
			}
			f, n := tdstrconv.ParseFloat(s.src[s.pos:])
			if n == 0 {
				s.warn(ErrUnknownCommand, "%q at offset %d", c, s.pos)
				s.pos++
				continue
			}
			if v, ok := s.number(s.src[s.pos:s.pos+n], f); ok {
				tok.nums = append(tok.nums, v)
			} else {
				tok.bad = true
			}
			s.pos += n
		}
	}
}

// number returns the correctly rounded value of a numeral whose extent the
// byte scanner found. Values that overflow to infinity are reported and
// rejected, since they cannot be written back as path text.
func (s *scanner) number(lit []byte, scanned float64) (float64, bool) {
	v, err := strconv.ParseFloat(string(lit), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		v = scanned
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		s.warn(ErrIncompleteCoords, "number %s out of range at offset %d", lit, s.pos)
		return 0, false
	}
	return v, true
}

// skipNumbers discards the number run following an unrecognised letter.
func (s *scanner) skipNumbers() {
	for {
		s.skipSeparators()
		if s.pos >= len(s.src) || isLetter(s.src[s.pos]) {
			return
		}
		_, n := tdstrconv.ParseFloat(s.src[s.pos:])
		if n == 0 {
			n = 1
		}
		s.pos += n
	}
}

// expand turns one token into commands, re-emitting the command once per
// arity-sized chunk of numbers. Extra MoveTo pairs become LineTo.
func (s *scanner) expand(tok token, out []Command) []Command {
	if tok.bad {
		return out
	}
	kind, rel, _ := KindForLetter(tok.letter)
	arity := kind.Arity()

	if arity == 0 {
		if len(tok.nums) > 0 {
			s.warn(ErrExtraCoords, "%d numbers after %c at offset %d", len(tok.nums), tok.letter, tok.start)
		}
		return append(out, Command{Kind: kind, Relative: rel})
	}

	if len(tok.nums) < arity {
		s.warn(ErrIncompleteCoords, "%c needs %d numbers, got %d at offset %d", tok.letter, arity, len(tok.nums), tok.start)
		return out
	}

	i := 0
	for ; i+arity <= len(tok.nums); i += arity {
		k := kind
		if kind == MoveTo && i > 0 {
			k = LineTo
		}
		coords := make([]float64, arity)
		copy(coords, tok.nums[i:i+arity])
		out = append(out, Command{Kind: k, Relative: rel, Coords: coords})
	}
	if i < len(tok.nums) {
		s.warn(ErrIncompleteCoords, "%d trailing numbers after %c at offset %d", len(tok.nums)-i, tok.letter, tok.start)
	}
	return out
}

// Parse tokenizes path text into commands. Malformed input never aborts the
// parse; each skipped token is reported in the returned diagnostics, which
// wrap ErrUnknownCommand, ErrIncompleteCoords or ErrExtraCoords.
func Parse(text string) ([]Command, []error) {
	s := newScanner(text)
	var cmds []Command
	for {
		tok, ok := s.next()
		if !ok {
			break
		}
		cmds = s.expand(tok, cmds)
	}
	return cmds, s.diags
}

// MustParse is Parse for trusted input; diagnostics are discarded.
func MustParse(text string) []Command {
	cmds, _ := Parse(text)
	return cmds
}
