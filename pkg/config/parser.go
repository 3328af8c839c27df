package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
)

var (
	openTagPattern  = regexp.MustCompile(`^<([a-zA-Z0-9_]+)\s*(.+?)?>$`)
	attrPattern     = regexp.MustCompile(`^([a-zA-Z0-9_]+)\s*(.+)?$`)
	trailingPattern = regexp.MustCompile(`\s*(?:#.*)?$`)
)

// ParseOption configures a parse call.
type ParseOption func(*parser)

// WithStrict makes end of input inside an unclosed block a parse error.
// Without it the open block is closed implicitly.
func WithStrict() ParseOption {
	return func(p *parser) {
		p.strict = true
	}
}

// ReadFile reads the file at path and parses it, using the base filename as
// the display name in error messages.
func ReadFile(path string, opts ...ParseOption) (*Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return Parse(string(data), filepath.Base(path), opts...)
}

// Parse parses nested-block text into a root element named ROOT whose
// children are the top-level blocks. fname is only used in error messages.
func Parse(text, fname string, opts ...ParseOption) (*Element, error) {
	p := &parser{
		lines: strings.Split(text, "\n"),
		fname: fname,
	}
	for _, opt := range opts {
		opt(p)
	}

	// The document scope has no close tag. Empty lines are skipped before
	// close tags are compared, so "" never ends it early.
	root := NewElement(RootName, "")
	if err := p.parseScope(root, "", 0); err != nil {
		return nil, err
	}
	return root, nil
}

// NormalizeLine strips leading whitespace, a trailing #-comment and the
// whitespace before it. An empty result means the line carries nothing.
func NormalizeLine(line string) string {
	line = strings.TrimLeftFunc(line, unicode.IsSpace)
	return trailingPattern.ReplaceAllString(line, "")
}

type parser struct {
	lines  []string
	pos    int
	fname  string
	strict bool
}

// parseScope fills scope with attributes and children until it sees
// closeTag or runs out of lines. depth is 0 for the document scope.
func (p *parser) parseScope(scope *Element, closeTag string, depth int) error {
	for p.pos < len(p.lines) {
		line := NormalizeLine(p.lines[p.pos])

		if line == "" {
			p.pos++
			continue
		}

		if m := openTagPattern.FindStringSubmatch(line); m != nil {
			p.pos++
			child := scope.AddChild(m[1], m[2])
			if err := p.parseScope(child, "</"+m[1]+">", depth+1); err != nil {
				return err
			}
			continue
		}

		if depth > 0 && line == closeTag {
			p.pos++
			return nil
		}

		if m := attrPattern.FindStringSubmatch(line); m != nil {
			scope.Set(m[1], m[2])
			p.pos++
			continue
		}

		return NewParseError(p.fname, p.pos)
	}

	if p.strict && depth > 0 {
		err := NewParseError(p.fname, p.pos)
		err.Message += fmt.Sprintf(": unexpected end of input, expected %s", closeTag)
		return err
	}

	return nil
}
