// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sexpr

import (
	"fmt"
	"strings"
)

// ErrorKind classifies a parse failure.
type ErrorKind string

const (
	// UnbalancedDelimiters: parenthesis depth went negative, or remained
	// positive at end of input.
	UnbalancedDelimiters ErrorKind = "unbalanced_delimiters"
	// UnterminatedString: input ended inside a quoted atom.
	UnterminatedString ErrorKind = "unterminated_string"
)

// ParseError reports malformed input. Parse failures are always surfaced
// to the caller; downstream transforms assume a valid tree.
type ParseError struct {
	Kind   ErrorKind
	Offset int
}

func (e *ParseError) Error() string {
	switch e.Kind {
	case UnterminatedString:
		return fmt.Sprintf("unterminated string starting at byte %d", e.Offset)
	default:
		return fmt.Sprintf("unbalanced delimiters at byte %d", e.Offset)
	}
}

// Parse scans input left to right into a Document. "(" opens a list, ")"
// closes the innermost open list, whitespace separates atoms, and a double
// quote begins a quoted atom running to the next unescaped double quote
// (a backslash escapes the following character). Comment lists (head atom
// "comment") are ordinary lists and are preserved. Parse is side-effect
// free and allocates nothing beyond the returned tree.
func Parse(input []byte) (*Document, error) {
	var (
		root  []Node
		stack []*List
	)

	emit := func(n Node) {
		if len(stack) > 0 {
			top := stack[len(stack)-1]
			top.Items = append(top.Items, n)
			return
		}
		root = append(root, n)
	}

	i := 0
	for i < len(input) {
		c := input[i]
		switch {
		case c == '(':
			stack = append(stack, &List{})
			i++

		case c == ')':
			if len(stack) == 0 {
				return nil, &ParseError{Kind: UnbalancedDelimiters, Offset: i}
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			emit(closed)
			i++

		case c == '"':
			value, end, ok := scanQuoted(input, i)
			if !ok {
				return nil, &ParseError{Kind: UnterminatedString, Offset: i}
			}
			emit(Atom{Value: value, Quoted: true})
			i = end

		case isSpace(c):
			i++

		default:
			start := i
			for i < len(input) && !isSpace(input[i]) && input[i] != '(' && input[i] != ')' && input[i] != '"' {
				i++
			}
			emit(Atom{Value: string(input[start:i])})
		}
	}

	if len(stack) > 0 {
		return nil, &ParseError{Kind: UnbalancedDelimiters, Offset: len(input)}
	}

	return &Document{Nodes: root}, nil
}

// scanQuoted reads a quoted atom beginning at the opening quote at input[i].
// It returns the unescaped value and the index just past the closing quote.
func scanQuoted(input []byte, i int) (value string, end int, ok bool) {
	var b strings.Builder
	j := i + 1
	for j < len(input) {
		switch input[j] {
		case '\\':
			if j+1 >= len(input) {
				return "", 0, false
			}
			b.WriteByte(input[j+1])
			j += 2
		case '"':
			return b.String(), j + 1, true
		default:
			b.WriteByte(input[j])
			j++
		}
	}
	return "", 0, false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
