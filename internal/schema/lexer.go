package schema

import (
	"strings"
	"unicode"
)

// EventKind classifies what the lexer found in the schema text.
type EventKind int

const (
	EventTableStart EventKind = iota
	EventReference
)

func (k EventKind) String() string {
	switch k {
	case EventTableStart:
		return "table"
	case EventReference:
		return "reference"
	default:
		return "unknown"
	}
}

// Event is a single table declaration or foreign-key reference, in text order.
type Event struct {
	Kind EventKind
	Name string
	Line int
}

type tokenKind int

const (
	tokWord tokenKind = iota
	tokQuoted
	tokDot
	tokOther
)

type token struct {
	kind tokenKind
	text string
	line int
}

// Lex scans DDL text and emits table-start and reference events. It is not a
// SQL parser: anything other than CREATE TABLE headers and REFERENCES clauses
// is ignored.
func Lex(text string) []Event {
	toks := tokenize(text)

	var events []Event
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.kind != tokWord {
			continue
		}

		switch {
		case keyword(t, "create"):
			name, line, next, ok := tableHeader(toks, i+1)
			if !ok {
				continue
			}
			events = append(events, Event{Kind: EventTableStart, Name: name, Line: line})
			i = next - 1
		case keyword(t, "references"):
			name, next, ok := qualifiedName(toks, i+1)
			if !ok {
				continue
			}
			events = append(events, Event{Kind: EventReference, Name: name, Line: t.line})
			i = next - 1
		}
	}

	return events
}

// tableHeader matches the remainder of
// CREATE [OR REPLACE] [GLOBAL|LOCAL] [TEMP|TEMPORARY|UNLOGGED] TABLE [IF NOT EXISTS] name
// starting right after CREATE.
func tableHeader(toks []token, i int) (string, int, int, bool) {
	if i+1 < len(toks) && keyword(toks[i], "or") && keyword(toks[i+1], "replace") {
		i += 2
	}
	if i < len(toks) && (keyword(toks[i], "global") || keyword(toks[i], "local")) {
		i++
	}
	if i < len(toks) && (keyword(toks[i], "temp") || keyword(toks[i], "temporary") || keyword(toks[i], "unlogged")) {
		i++
	}
	if i >= len(toks) || !keyword(toks[i], "table") {
		return "", 0, i, false
	}
	line := toks[i].line
	i++

	if i+2 < len(toks) && keyword(toks[i], "if") && keyword(toks[i+1], "not") && keyword(toks[i+2], "exists") {
		i += 3
	}

	name, next, ok := qualifiedName(toks, i)
	return name, line, next, ok
}

// qualifiedName reads ident(.ident)* and returns the last segment.
func qualifiedName(toks []token, i int) (string, int, bool) {
	if i >= len(toks) || !isIdent(toks[i]) {
		return "", i, false
	}
	name := toks[i].text
	i++
	for i+1 < len(toks) && toks[i].kind == tokDot && isIdent(toks[i+1]) {
		name = toks[i+1].text
		i += 2
	}
	return name, i, true
}

func isIdent(t token) bool {
	return (t.kind == tokWord || t.kind == tokQuoted) && t.text != ""
}

func keyword(t token, kw string) bool {
	return t.kind == tokWord && strings.EqualFold(t.text, kw)
}

func isWordRune(r rune) bool {
	return r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func tokenize(text string) []token {
	var toks []token
	src := []rune(text)
	line := 1

	for i := 0; i < len(src); {
		r := src[i]
		switch {
		case r == '\n':
			line++
			i++
		case unicode.IsSpace(r):
			i++
		case r == '-' && i+1 < len(src) && src[i+1] == '-':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case r == '/' && i+1 < len(src) && src[i+1] == '*':
			i += 2
			for i < len(src) && !(src[i] == '*' && i+1 < len(src) && src[i+1] == '/') {
				if src[i] == '\n' {
					line++
				}
				i++
			}
			i += 2
		case r == '\'':
			// string literal, '' escapes a quote
			i++
			for i < len(src) {
				if src[i] == '\'' {
					if i+1 < len(src) && src[i+1] == '\'' {
						i += 2
						continue
					}
					break
				}
				if src[i] == '\n' {
					line++
				}
				i++
			}
			i++
		case r == '"' || r == '`' || r == '[':
			closing := r
			if r == '[' {
				closing = ']'
			}
			start := line
			j := i + 1
			for j < len(src) && src[j] != closing {
				if src[j] == '\n' {
					line++
				}
				j++
			}
			toks = append(toks, token{kind: tokQuoted, text: string(src[i+1 : min(j, len(src))]), line: start})
			i = j + 1
		case r == '.':
			toks = append(toks, token{kind: tokDot, text: ".", line: line})
			i++
		case isWordRune(r):
			j := i
			for j < len(src) && isWordRune(src[j]) {
				j++
			}
			toks = append(toks, token{kind: tokWord, text: string(src[i:j]), line: line})
			i = j
		default:
			toks = append(toks, token{kind: tokOther, text: string(r), line: line})
			i++
		}
	}

	return toks
}
