// Package sqltemplate turns SQL templates with named placeholders into
// positionally parameterized PostgreSQL statements.
//
// A placeholder is written {{ name }} or {{ name::type }}. Every occurrence
// becomes its own $N parameter, even when a name repeats, so the parameter
// list always has one entry per occurrence in template order.
package sqltemplate

import (
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// placeholder is a single {{ name::type }} occurrence.
type placeholder struct {
	name string
	typ  string // includes the leading "::", empty when absent
	end  int    // offset just past the closing delimiter
}

// Parameterize rewrites template into a $N parameterized statement.
// Values are looked up in data; a missing name binds nil.
func Parameterize(template string, data map[string]any) (string, []any) {
	var (
		sb     strings.Builder
		params []any
	)
	sb.Grow(len(template))

	s := scanner{input: template}
	for {
		text, ph, ok := s.next()
		sb.WriteString(text)
		if !ok {
			break
		}
		params = append(params, data[ph.name])
		sb.WriteString("$")
		sb.WriteString(strconv.Itoa(len(params)))
		sb.WriteString(ph.typ)
	}

	return sb.String(), params
}

// Names returns the placeholder names of template in occurrence order.
func Names(template string) []string {
	var names []string
	s := scanner{input: template}
	for {
		_, ph, ok := s.next()
		if !ok {
			return names
		}
		names = append(names, ph.name)
	}
}

// scanner walks a template left to right.
type scanner struct {
	input string
	pos   int
}

// next returns the literal text up to the next placeholder and the
// placeholder itself. ok is false once the input is exhausted, in which
// case text holds the trailing literal.
func (s *scanner) next() (text string, ph placeholder, ok bool) {
	start := s.pos
	for i := s.pos; i < len(s.input); i++ {
		if !strings.HasPrefix(s.input[i:], openDelim) {
			continue
		}
		if p, matched := scanPlaceholder(s.input, i); matched {
			s.pos = p.end
			return s.input[start:i], p, true
		}
	}
	s.pos = len(s.input)
	return s.input[start:], placeholder{}, false
}

// scanPlaceholder matches {{\s*(\w+)(::\w+)?\s*}} at offset i.
func scanPlaceholder(input string, i int) (placeholder, bool) {
	pos := i + len(openDelim)
	pos = skipSpace(input, pos)

	nameStart := pos
	pos = skipWord(input, pos)
	if pos == nameStart {
		return placeholder{}, false
	}
	p := placeholder{name: input[nameStart:pos]}

	if strings.HasPrefix(input[pos:], "::") {
		typeStart := pos
		wordStart := pos + 2
		if end := skipWord(input, wordStart); end > wordStart {
			p.typ = input[typeStart:end]
			pos = end
		}
	}

	pos = skipSpace(input, pos)
	if !strings.HasPrefix(input[pos:], closeDelim) {
		return placeholder{}, false
	}
	p.end = pos + len(closeDelim)
	return p, true
}

func skipSpace(input string, pos int) int {
	for pos < len(input) && isSpace(input[pos]) {
		pos++
	}
	return pos
}

func skipWord(input string, pos int) int {
	for pos < len(input) && isWordChar(input[pos]) {
		pos++
	}
	return pos
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// isWordChar matches the regexp \w class.
func isWordChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}
