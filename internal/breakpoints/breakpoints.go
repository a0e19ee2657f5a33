// Package breakpoints reads a theme's breakpoint stylesheet into an ordered
// list of named width boundaries.
//
// A breakpoint stylesheet is a list of single-class rules:
//
//	.xs { width: 0; }
//	.sm { width: 40rem; }
//	.md { width: 60rem; }
//
// Bands are returned in declaration order. Nothing here sorts them, and the
// srcset resolver depends on that order.
package breakpoints

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gorilla/css/scanner"
	"github.com/lehigh-university-libraries/srcsetter/internal/units"
)

// ErrCatalogNotFound is returned when the stylesheet source cannot be read.
var ErrCatalogNotFound = errors.New("breakpoint catalog not found")

// Band is one breakpoint: the class name and the width it starts at.
type Band struct {
	Name  string       `json:"name" yaml:"name"`
	Width units.Length `json:"width" yaml:"width"`
	Px    float64      `json:"px" yaml:"px"`
}

// ParseError reports a stylesheet that is not syntactically valid CSS.
type ParseError struct {
	Line   int
	Column int
	Msg    string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stylesheet parse error at line %d, column %d: %s", e.Line, e.Column, e.Msg)
}

// Load parses stylesheet text into bands. Rules without a width declaration
// and at-rules are skipped.
func Load(text string) ([]Band, error) {
	p := &parser{s: scanner.New(text)}

	var bands []Band
	for {
		tok := p.next()
		switch {
		case tok.Type == scanner.TokenEOF:
			return bands, nil
		case tok.Type == scanner.TokenError:
			return nil, p.errorf(tok, "invalid token %q", tok.Value)
		case tok.Type == scanner.TokenAtKeyword:
			if err := p.skipAtRule(); err != nil {
				return nil, err
			}
			continue
		case isChar(tok, "}"), isChar(tok, ";"):
			return nil, p.errorf(tok, "unexpected %q", tok.Value)
		}

		selector, err := p.selector(tok)
		if err != nil {
			return nil, err
		}

		decls, err := p.block()
		if err != nil {
			return nil, err
		}

		width, ok := decls["width"]
		if !ok {
			continue
		}

		name := strings.TrimPrefix(selector, ".")
		band, err := newBand(name, width)
		if err != nil {
			return nil, err
		}
		bands = append(bands, band)
	}
}

func newBand(name, width string) (Band, error) {
	length, err := units.Parse(width)
	if err != nil {
		return Band{}, fmt.Errorf("breakpoint %q: %w", name, err)
	}
	px, err := units.ToPixels(length)
	if err != nil {
		return Band{}, fmt.Errorf("breakpoint %q: %w", name, err)
	}
	return Band{Name: name, Width: length, Px: px}, nil
}

type parser struct {
	s *scanner.Scanner
}

// next returns the next token that is not whitespace or a comment.
func (p *parser) next() *scanner.Token {
	for {
		tok := p.s.Next()
		if tok.Type != scanner.TokenS && tok.Type != scanner.TokenComment {
			return tok
		}
	}
}

// selector reads the rule prelude up to "{" and returns its first selector.
func (p *parser) selector(first *scanner.Token) (string, error) {
	var b strings.Builder
	done := false

	tok := first
	for {
		switch {
		case tok.Type == scanner.TokenEOF:
			return "", p.errorf(tok, "unexpected end of stylesheet in selector")
		case tok.Type == scanner.TokenError:
			return "", p.errorf(tok, "invalid token %q", tok.Value)
		case isChar(tok, ";"), isChar(tok, "}"):
			return "", p.errorf(tok, "unexpected %q in selector", tok.Value)
		case isChar(tok, "{"):
			sel := strings.TrimSpace(b.String())
			if sel == "" {
				return "", p.errorf(tok, "missing selector")
			}
			return sel, nil
		case isChar(tok, ","):
			done = true
		case !done:
			b.WriteString(tok.Value)
		}
		tok = p.s.Next()
		for tok.Type == scanner.TokenComment {
			tok = p.s.Next()
		}
	}
}

// block reads declarations until the closing brace. The first value of each
// property wins.
func (p *parser) block() (map[string]string, error) {
	decls := make(map[string]string)
	for {
		tok := p.next()
		switch {
		case tok.Type == scanner.TokenEOF:
			return nil, p.errorf(tok, "unclosed block")
		case tok.Type == scanner.TokenError:
			return nil, p.errorf(tok, "invalid token %q", tok.Value)
		case isChar(tok, "}"):
			return decls, nil
		case isChar(tok, ";"):
			continue
		case tok.Type != scanner.TokenIdent:
			return nil, p.errorf(tok, "expected property name, got %q", tok.Value)
		}

		property := strings.ToLower(tok.Value)
		if colon := p.next(); !isChar(colon, ":") {
			return nil, p.errorf(colon, "expected ':' after %q", property)
		}

		value, closed, err := p.value()
		if err != nil {
			return nil, err
		}
		if _, seen := decls[property]; !seen {
			decls[property] = value
		}
		if closed {
			return decls, nil
		}
	}
}

// value returns the first component of a declaration value. closed reports
// whether the value was terminated by the end of the block.
func (p *parser) value() (string, bool, error) {
	first := ""
	for {
		tok := p.next()
		switch {
		case tok.Type == scanner.TokenEOF:
			return "", false, p.errorf(tok, "unclosed block")
		case tok.Type == scanner.TokenError:
			return "", false, p.errorf(tok, "invalid token %q", tok.Value)
		case isChar(tok, "{"):
			return "", false, p.errorf(tok, "unexpected '{' in declaration")
		case isChar(tok, ";"):
			return first, false, nil
		case isChar(tok, "}"):
			return first, true, nil
		case first == "":
			first = tok.Value
		}
	}
}

// skipAtRule consumes an at-rule, either a statement ending in ";" or a
// braced block with nested blocks.
func (p *parser) skipAtRule() error {
	depth := 0
	for {
		tok := p.next()
		switch {
		case tok.Type == scanner.TokenEOF:
			if depth > 0 {
				return p.errorf(tok, "unclosed block")
			}
			return nil
		case tok.Type == scanner.TokenError:
			return p.errorf(tok, "invalid token %q", tok.Value)
		case isChar(tok, ";") && depth == 0:
			return nil
		case isChar(tok, "{"):
			depth++
		case isChar(tok, "}"):
			depth--
			if depth < 0 {
				return p.errorf(tok, "unexpected %q", tok.Value)
			}
			if depth == 0 {
				return nil
			}
		}
	}
}

func (p *parser) errorf(tok *scanner.Token, format string, args ...any) error {
	return &ParseError{Line: tok.Line, Column: tok.Column, Msg: fmt.Sprintf(format, args...)}
}

func isChar(tok *scanner.Token, c string) bool {
	return tok.Type == scanner.TokenChar && tok.Value == c
}
